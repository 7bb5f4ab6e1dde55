package otc

import (
	"fmt"

	"github.com/holiman/uint256"
)

// PurchaseLedger 每个 (集合, 买家) 的累计购买量，纯记账，不参与任何授权或上限判断
type PurchaseLedger struct {
	tx Tx
}

func NewPurchaseLedger(tx Tx) PurchaseLedger {
	return PurchaseLedger{tx: tx}
}

// Add 累加并返回新的累计值
func (l PurchaseLedger) Add(collectionID, buyer Address, amount *uint256.Int) (*uint256.Int, error) {
	next, err := l.next(collectionID, buyer, amount)
	if err != nil {
		return nil, err
	}
	if err := l.tx.PutPurchased(collectionID, buyer, next); err != nil {
		return nil, fmt.Errorf("store purchase record %s/%s: %w", collectionID.Hex(), buyer.Hex(), err)
	}
	return next, nil
}

// Get 返回累计购买量，默认 0
func (l PurchaseLedger) Get(collectionID, buyer Address) (*uint256.Int, error) {
	v, err := l.tx.Purchased(collectionID, buyer)
	if err != nil {
		return nil, fmt.Errorf("load purchase record %s/%s: %w", collectionID.Hex(), buyer.Hex(), err)
	}
	return v, nil
}

func (l PurchaseLedger) next(collectionID, buyer Address, amount *uint256.Int) (*uint256.Int, error) {
	current, err := l.Get(collectionID, buyer)
	if err != nil {
		return nil, err
	}
	return checkedAdd(current, amount)
}
