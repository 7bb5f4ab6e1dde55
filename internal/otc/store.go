package otc

import (
	"context"

	"github.com/holiman/uint256"
)

// Store 持久化的事务型状态存储
// Update 中 fn 返回错误时必须丢弃全部写入；View 只读。
type Store interface {
	Update(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(tx Tx) error) error
}

// Tx 单个事务内可见的状态读写
// 读取不存在的记录返回零值 (EmptyCollection / false / 0)，不返回错误。
type Tx interface {
	Collection(id Address) (Collection, error)
	PutCollection(c Collection) error
	ForEachCollection(fn func(c Collection) error) error

	Whitelisted(collectionID, buyer Address) (bool, error)
	SetWhitelisted(collectionID, buyer Address, allowed bool) error

	Purchased(collectionID, buyer Address) (*uint256.Int, error)
	PutPurchased(collectionID, buyer Address, amount *uint256.Int) error

	Paused() (bool, error)
	SetPaused(paused bool) error

	// AppendEvent 写入本地消息表 (Transactional Outbox)，与状态变更同事务提交
	AppendEvent(topic, key string, payload []byte) error
}
