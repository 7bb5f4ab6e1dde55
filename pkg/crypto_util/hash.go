package crypto_util

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
	"lukechampine.com/blake3"
)

// Keccak256 计算输入的 Keccak256 哈希值 (以太坊使用的哈希算法)
func Keccak256(parts ...[]byte) []byte {
	hash := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		hash.Write(p)
	}
	return hash.Sum(nil)
}

// DeriveAddressBytes 由标签派生一个 20 字节身份: keccak256(label) 的末 20 字节
// 用于给集合生成稳定、可复现的 ID。
func DeriveAddressBytes(label string) [20]byte {
	var out [20]byte
	copy(out[:], Keccak256([]byte(label))[12:])
	return out
}

// Blake3Hex 计算各段拼接后的 Blake3 哈希，返回 hex 字符串
// Blake3 是一种现代、高性能的加密哈希函数。
func Blake3Hex(parts ...[]byte) string {
	hasher := blake3.New(32, nil)
	for _, p := range parts {
		hasher.Write(p)
	}
	return hex.EncodeToString(hasher.Sum(nil))
}
