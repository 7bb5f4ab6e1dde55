package otc

import (
	"fmt"

	"github.com/holiman/uint256"

	"otc-core/pkg/errno"
)

// CollectionRegistry 集合注册表，绑定在一个事务上使用
type CollectionRegistry struct {
	tx Tx
}

func NewCollectionRegistry(tx Tx) CollectionRegistry {
	return CollectionRegistry{tx: tx}
}

// Register 注册或覆盖集合条款
// 售出前允许重复注册并覆盖 paymentAsset/unitPrice/totalAmount；一旦有售出 (purchasedAmount != 0) 返回 ErrAlreadySold。
func (r CollectionRegistry) Register(id, paymentAsset Address, unitPrice, totalAmount *uint256.Int) (Collection, error) {
	if id == NullAddress {
		return Collection{}, errno.ErrInvalidArgument.WithMessage("collection id is null")
	}
	if unitPrice == nil || unitPrice.IsZero() {
		return Collection{}, errno.ErrInvalidArgument.WithMessage("unit price must be positive")
	}
	if totalAmount == nil || totalAmount.IsZero() {
		return Collection{}, errno.ErrInvalidArgument.WithMessage("total amount must be positive")
	}

	existing, err := r.tx.Collection(id)
	if err != nil {
		return Collection{}, fmt.Errorf("load collection %s: %w", id.Hex(), err)
	}
	if !existing.PurchasedAmount.IsZero() {
		return Collection{}, errno.ErrAlreadySold.WithMessage(
			fmt.Sprintf("collection %s already sold %s units", id.Hex(), existing.PurchasedAmount.Dec()))
	}

	// purchasedAmount 在此路径下必然为 0，保持原值不重置
	updated := Collection{
		ID:              id,
		PaymentAsset:    paymentAsset,
		UnitPrice:       unitPrice.Clone(),
		TotalAmount:     totalAmount.Clone(),
		PurchasedAmount: existing.PurchasedAmount.Clone(),
	}
	if err := r.tx.PutCollection(updated); err != nil {
		return Collection{}, fmt.Errorf("store collection %s: %w", id.Hex(), err)
	}
	return updated, nil
}

// Get 返回集合当前记录；未注册时返回 TotalAmount == 0 的占位记录
func (r CollectionRegistry) Get(id Address) (Collection, error) {
	c, err := r.tx.Collection(id)
	if err != nil {
		return Collection{}, fmt.Errorf("load collection %s: %w", id.Hex(), err)
	}
	return c, nil
}

// RecordPurchase 累加售出量，返回累加前快照的单价与支付资产
func (r CollectionRegistry) RecordPurchase(id Address, amount *uint256.Int) (*uint256.Int, Address, error) {
	c, err := r.Get(id)
	if err != nil {
		return nil, Address{}, err
	}
	next, err := nextPurchased(c, amount)
	if err != nil {
		return nil, Address{}, err
	}

	price, asset := c.UnitPrice.Clone(), c.PaymentAsset
	c.PurchasedAmount = next
	if err := r.tx.PutCollection(c); err != nil {
		return nil, Address{}, fmt.Errorf("store collection %s: %w", id.Hex(), err)
	}
	return price, asset, nil
}

// nextPurchased 计算 purchasedAmount + amount 并检查容量上限
func nextPurchased(c Collection, amount *uint256.Int) (*uint256.Int, error) {
	next, err := checkedAdd(c.PurchasedAmount, amount)
	if err != nil {
		return nil, err
	}
	if next.Gt(c.TotalAmount) {
		return nil, errno.ErrCapacityExceeded.WithMessage(fmt.Sprintf(
			"collection %s: purchased %s + requested %s exceeds total %s",
			c.ID.Hex(), c.PurchasedAmount.Dec(), amount.Dec(), c.TotalAmount.Dec()))
	}
	return next, nil
}
