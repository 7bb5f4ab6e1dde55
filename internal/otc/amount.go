package otc

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"otc-core/pkg/errno"
)

// QuoteCost 计算 floor(amount * unitPrice / 1e9)
// 中间乘积按 512 位计算，不会溢出；只有最终结果超过 256 位才返回 ErrArithmeticOverflow。
// 向下取整是最终结果，不做任何舍入补偿。
func QuoteCost(amount, unitPrice *uint256.Int) (*uint256.Int, error) {
	cost, overflow := new(uint256.Int).MulDivOverflow(amount, unitPrice, priceMultiplier)
	if overflow {
		return nil, errno.ErrArithmeticOverflow.WithMessage(
			fmt.Sprintf("cost overflow: amount=%s price=%s", amount.Dec(), unitPrice.Dec()))
	}
	return cost, nil
}

// checkedAdd 带溢出检查的加法
func checkedAdd(a, b *uint256.Int) (*uint256.Int, error) {
	sum, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return nil, errno.ErrArithmeticOverflow.WithMessage(
			fmt.Sprintf("addition overflow: %s + %s", a.Dec(), b.Dec()))
	}
	return sum, nil
}

// ParseAmount 解析十进制无符号整数字符串
func ParseAmount(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errno.ErrInvalidArgument.WithMessage("amount is empty")
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, errno.ErrInvalidArgument.WithMessage(fmt.Sprintf("invalid amount %q: %v", s, err))
	}
	return v, nil
}

// DescalePrice 把定点单价还原成十进制价格 (unitPrice / 1e9)，用于展示
func DescalePrice(unitPrice *uint256.Int) decimal.Decimal {
	return decimal.NewFromBigInt(unitPrice.ToBig(), 0).Shift(-9)
}

// ScalePrice 把十进制价格转换为定点单价，超过 9 位小数的部分会被截断
func ScalePrice(price decimal.Decimal) (*uint256.Int, error) {
	if price.IsNegative() {
		return nil, errno.ErrInvalidArgument.WithMessage("price must not be negative")
	}
	scaled := price.Shift(9).Truncate(0)
	v, overflow := uint256.FromBig(scaled.BigInt())
	if overflow {
		return nil, errno.ErrArithmeticOverflow.WithMessage("scaled price exceeds 256 bits")
	}
	return v, nil
}

// ToDecimal 转换为 numeric(78,0) 列使用的 decimal
func ToDecimal(x *uint256.Int) decimal.Decimal {
	if x == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(x.ToBig(), 0)
}

// FromDecimal 从 numeric(78,0) 列还原；负数、小数或超过 256 位都视为数据损坏
func FromDecimal(d decimal.Decimal) (*uint256.Int, error) {
	if d.IsNegative() || !d.IsInteger() {
		return nil, fmt.Errorf("amount %s is not an unsigned integer", d.String())
	}
	v, overflow := uint256.FromBig(d.BigInt())
	if overflow {
		return nil, errno.ErrArithmeticOverflow.WithMessage(fmt.Sprintf("amount %s exceeds 256 bits", d.String()))
	}
	return v, nil
}
