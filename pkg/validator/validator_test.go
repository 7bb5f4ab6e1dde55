package validator

import (
	"errors"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Amount string `binding:"required,uint256"`
	To     string `binding:"required,eth_addr"`
}

func TestUint256Rule(t *testing.T) {
	Init()
	Init()

	ok := sample{Amount: "115792089237316195423570985008687907853269984665640564039457584007913129639935",
		To: "0x00000000000000000000000000000000000000b1"}
	require.NoError(t, binding.Validator.ValidateStruct(&ok))

	for _, bad := range []string{"-1", "1.5", "abc",
		"115792089237316195423570985008687907853269984665640564039457584007913129639936"} {
		err := binding.Validator.ValidateStruct(&sample{Amount: bad, To: ok.To})
		require.Error(t, err, bad)
		assert.Contains(t, GetErrorMsg(err), "Amount")
	}
}

func TestGetErrorMsg_Fallback(t *testing.T) {
	assert.Equal(t, "请求参数错误", GetErrorMsg(errors.New("x")))

	err := binding.Validator.ValidateStruct(&sample{Amount: "1", To: "nope"})
	require.Error(t, err)
	assert.Contains(t, GetErrorMsg(err), "不是合法的地址")
}
