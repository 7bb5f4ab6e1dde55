package service

import (
	"context"

	"otc-core/internal/event"
	"otc-core/internal/otc"
)

// Outbox 本地消息表的读取与确认
type Outbox interface {
	Pending(ctx context.Context, limit int) ([]event.Envelope, error)
	MarkSent(ctx context.Context, id uint64) error
}

// CollectionReader 集合只读查询
type CollectionReader interface {
	Collection(ctx context.Context, id otc.Address) (otc.Collection, error)
	Collections(ctx context.Context) ([]otc.Collection, error)
}
