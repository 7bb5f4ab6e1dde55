package crypto_util

import (
	"encoding/hex"
	"testing"
)

func TestKeccak256(t *testing.T) {
	// keccak256("") 的标准测试向量
	got := hex.EncodeToString(Keccak256())
	want := "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"
	if got != want {
		t.Errorf("Keccak256 空输入: 得到 %s, 期望 %s", got, want)
	}

	// 分段输入与整体输入结果一致
	if hex.EncodeToString(Keccak256([]byte("hello "), []byte("world"))) !=
		hex.EncodeToString(Keccak256([]byte("hello world"))) {
		t.Errorf("Keccak256 分段输入结果不一致")
	}
}

func TestDeriveAddressBytes(t *testing.T) {
	a := DeriveAddressBytes("genesis-round")
	b := DeriveAddressBytes("genesis-round")
	c := DeriveAddressBytes("second-round")

	if a != b {
		t.Errorf("同一标签派生结果应一致")
	}
	if a == c {
		t.Errorf("不同标签不应派生出相同地址")
	}
	full := Keccak256([]byte("genesis-round"))
	if hex.EncodeToString(a[:]) != hex.EncodeToString(full[12:]) {
		t.Errorf("派生地址应为哈希末 20 字节")
	}
}

func TestBlake3Hex(t *testing.T) {
	h := Blake3Hex([]byte("hello"), []byte("world"))
	if len(h) != 64 { // 32 bytes * 2 hex chars
		t.Errorf("Blake3 哈希长度不匹配: 得到 %d, 期望 64", len(h))
	}
	if h != Blake3Hex([]byte("helloworld")) {
		t.Errorf("Blake3 分段输入结果不一致")
	}
	if h == Blake3Hex([]byte("hello"), []byte("world!")) {
		t.Errorf("不同输入不应得到相同哈希")
	}
}
