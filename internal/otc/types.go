package otc

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Address 账户/资产/集合的统一身份类型
type Address = common.Address

// PriceMultiplier 单价的定点缩放倍数 (1e9)
const PriceMultiplier = 1_000_000_000

var (
	// NullAddress 空身份，集合 ID 与提现目标不允许为空
	NullAddress = common.Address{}

	// NativeAsset 原生币哨兵值，paymentAsset 等于它时表示用原生币支付
	NativeAsset = common.Address{}

	priceMultiplier = uint256.NewInt(PriceMultiplier)
)

// Collection 一个销售批次的条款与累计售出量
// 约定: TotalAmount > 0 即视为已注册
type Collection struct {
	ID              Address
	PaymentAsset    Address
	UnitPrice       *uint256.Int
	TotalAmount     *uint256.Int
	PurchasedAmount *uint256.Int
}

// EmptyCollection 返回未注册集合的占位记录 (所有数值为 0，不为 nil)
func EmptyCollection(id Address) Collection {
	return Collection{
		ID:              id,
		UnitPrice:       new(uint256.Int),
		TotalAmount:     new(uint256.Int),
		PurchasedAmount: new(uint256.Int),
	}
}

// Registered reports whether the collection has been registered.
func (c Collection) Registered() bool {
	return c.TotalAmount != nil && !c.TotalAmount.IsZero()
}

// IsNative 是否使用原生币支付
func (c Collection) IsNative() bool {
	return c.PaymentAsset == NativeAsset
}

// Remaining 剩余可售数量
func (c Collection) Remaining() *uint256.Int {
	if !c.Registered() || c.PurchasedAmount.Gt(c.TotalAmount) {
		return new(uint256.Int)
	}
	return new(uint256.Int).Sub(c.TotalAmount, c.PurchasedAmount)
}

// Clone 深拷贝，防止调用方修改内部数值
func (c Collection) Clone() Collection {
	out := c
	out.UnitPrice = cloneOrZero(c.UnitPrice)
	out.TotalAmount = cloneOrZero(c.TotalAmount)
	out.PurchasedAmount = cloneOrZero(c.PurchasedAmount)
	return out
}

// Receipt 一次成功购买的回执
type Receipt struct {
	ID              string
	CollectionID    Address
	Buyer           Address
	PaymentAsset    Address
	Amount          *uint256.Int
	Cost            *uint256.Int
	PurchasedAmount *uint256.Int // 购买后集合累计售出量
	BuyerTotal      *uint256.Int // 购买后该买家在集合内的累计量
}

func cloneOrZero(x *uint256.Int) *uint256.Int {
	if x == nil {
		return new(uint256.Int)
	}
	return x.Clone()
}
