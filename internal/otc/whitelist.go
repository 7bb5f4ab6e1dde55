package otc

import (
	"fmt"

	"otc-core/pkg/errno"
)

// WhitelistStore 每个集合的买家白名单
type WhitelistStore struct {
	tx Tx
}

func NewWhitelistStore(tx Tx) WhitelistStore {
	return WhitelistStore{tx: tx}
}

// Add 把 buyers 加入白名单；重复地址与已在名单中的地址都是 no-op，返回实际新增的地址
func (w WhitelistStore) Add(collectionID Address, buyers []Address) ([]Address, error) {
	return w.set(collectionID, buyers, true)
}

// Remove 把 buyers 移出白名单；本就不在名单中的地址是 no-op，返回实际移除的地址
func (w WhitelistStore) Remove(collectionID Address, buyers []Address) ([]Address, error) {
	return w.set(collectionID, buyers, false)
}

// IsWhitelisted 纯查询，未知组合默认 false
func (w WhitelistStore) IsWhitelisted(collectionID, buyer Address) (bool, error) {
	return w.tx.Whitelisted(collectionID, buyer)
}

func (w WhitelistStore) set(collectionID Address, buyers []Address, allowed bool) ([]Address, error) {
	c, err := w.tx.Collection(collectionID)
	if err != nil {
		return nil, fmt.Errorf("load collection %s: %w", collectionID.Hex(), err)
	}
	if !c.Registered() {
		return nil, errno.ErrUnregisteredCollection.WithMessage(
			fmt.Sprintf("collection %s is not registered", collectionID.Hex()))
	}

	changed := make([]Address, 0, len(buyers))
	seen := make(map[Address]struct{}, len(buyers))
	for _, buyer := range buyers {
		if _, ok := seen[buyer]; ok {
			continue
		}
		seen[buyer] = struct{}{}

		current, err := w.tx.Whitelisted(collectionID, buyer)
		if err != nil {
			return nil, fmt.Errorf("load whitelist entry %s: %w", buyer.Hex(), err)
		}
		if current == allowed {
			continue
		}
		if err := w.tx.SetWhitelisted(collectionID, buyer, allowed); err != nil {
			return nil, fmt.Errorf("store whitelist entry %s: %w", buyer.Hex(), err)
		}
		changed = append(changed, buyer)
	}
	return changed, nil
}
