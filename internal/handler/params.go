package handler

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/holiman/uint256"

	"otc-core/internal/otc"
	"otc-core/pkg/errno"
	"otc-core/pkg/validator"
)

// CallerHeader 调用方地址。鉴权由前置网关完成，这里只信任网关写入的值
const CallerHeader = "X-Caller-Address"

func callerFrom(c *gin.Context) (otc.Address, error) {
	raw := strings.TrimSpace(c.GetHeader(CallerHeader))
	if raw == "" {
		return otc.NullAddress, errno.ErrInvalidArgument.WithMessage("missing " + CallerHeader + " header")
	}
	return parseAddress(CallerHeader, raw)
}

func parseAddress(field, raw string) (otc.Address, error) {
	if !common.IsHexAddress(raw) {
		return otc.NullAddress, errno.ErrInvalidArgument.WithMessage(field + " is not a valid address")
	}
	return common.HexToAddress(raw), nil
}

// optionalAddress 空字符串视为零地址 (原生币)
func optionalAddress(field, raw string) (otc.Address, error) {
	if raw == "" {
		return otc.NullAddress, nil
	}
	return parseAddress(field, raw)
}

func parseAddresses(field string, raws []string) ([]otc.Address, error) {
	out := make([]otc.Address, 0, len(raws))
	for _, raw := range raws {
		a, err := parseAddress(field, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// optionalAmount 空字符串视为 0
func optionalAmount(raw string) (*uint256.Int, error) {
	if raw == "" {
		return new(uint256.Int), nil
	}
	return otc.ParseAmount(raw)
}

func bindError(err error) error {
	return errno.ErrBind.WithMessage(validator.GetErrorMsg(err))
}
