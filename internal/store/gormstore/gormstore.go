package gormstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"otc-core/internal/event"
	"otc-core/internal/model"
	"otc-core/internal/otc"
)

const engineStateID = 1

// Store 基于 PostgreSQL (gorm) 的事务存储，实现 otc.Store 与 Outbox
// 每个 Update 事务都先对 otc_engine_state 单行加 FOR UPDATE 锁，多实例共享同一数据库时也保持串行。
type Store struct {
	db *gorm.DB
}

var _ otc.Store = (*Store)(nil)

// New 确保全局状态行存在
func New(db *gorm.DB) (*Store, error) {
	state := model.EngineState{ID: engineStateID}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&state).Error; err != nil {
		return nil, fmt.Errorf("gormstore: init engine state: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Update(ctx context.Context, fn func(tx otc.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var state model.EngineState
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&state, "id = ?", engineStateID).Error; err != nil {
			return fmt.Errorf("gormstore: lock engine state: %w", err)
		}
		if err := fn(&gormTx{db: tx, forUpdate: true}); err != nil {
			return err
		}
		return ctx.Err()
	})
}

func (s *Store) View(ctx context.Context, fn func(tx otc.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(&gormTx{db: s.db.WithContext(ctx)})
}

// Pending 按 ID 顺序返回待投递消息
func (s *Store) Pending(ctx context.Context, limit int) ([]event.Envelope, error) {
	var msgs []model.OutboxMessage
	q := s.db.WithContext(ctx).Where("status = ?", model.OutboxPending).Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("gormstore: query outbox: %w", err)
	}
	out := make([]event.Envelope, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, event.Envelope{ID: m.ID, Topic: m.Topic, Key: m.Key, Payload: m.Payload})
	}
	return out, nil
}

// MarkSent 标记为已发送
func (s *Store) MarkSent(ctx context.Context, id uint64) error {
	return s.db.WithContext(ctx).Model(&model.OutboxMessage{}).
		Where("id = ?", id).
		Update("status", model.OutboxSent).Error
}

type gormTx struct {
	db        *gorm.DB
	forUpdate bool
}

func (t *gormTx) query() *gorm.DB {
	if t.forUpdate {
		return t.db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return t.db
}

func (t *gormTx) Collection(id otc.Address) (otc.Collection, error) {
	var row model.Collection
	err := t.query().Where("id = ?", id.Hex()).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return otc.EmptyCollection(id), nil
	}
	if err != nil {
		return otc.Collection{}, err
	}
	return fromRow(row)
}

func (t *gormTx) PutCollection(c otc.Collection) error {
	row := model.Collection{
		ID:              c.ID.Hex(),
		PaymentAsset:    c.PaymentAsset.Hex(),
		UnitPrice:       otc.ToDecimal(c.UnitPrice),
		TotalAmount:     otc.ToDecimal(c.TotalAmount),
		PurchasedAmount: otc.ToDecimal(c.PurchasedAmount),
	}
	return t.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"payment_asset", "unit_price", "total_amount", "purchased_amount", "updated_at"}),
	}).Create(&row).Error
}

func (t *gormTx) ForEachCollection(fn func(c otc.Collection) error) error {
	var rows []model.Collection
	if err := t.db.Order("id ASC").Find(&rows).Error; err != nil {
		return err
	}
	for _, row := range rows {
		c, err := fromRow(row)
		if err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}
	}
	return nil
}

func (t *gormTx) Whitelisted(collectionID, buyer otc.Address) (bool, error) {
	var n int64
	err := t.db.Model(&model.WhitelistEntry{}).
		Where("collection_id = ? AND buyer = ?", collectionID.Hex(), buyer.Hex()).
		Count(&n).Error
	return n > 0, err
}

func (t *gormTx) SetWhitelisted(collectionID, buyer otc.Address, allowed bool) error {
	if !allowed {
		return t.db.Delete(&model.WhitelistEntry{}, "collection_id = ? AND buyer = ?", collectionID.Hex(), buyer.Hex()).Error
	}
	entry := model.WhitelistEntry{CollectionID: collectionID.Hex(), Buyer: buyer.Hex()}
	return t.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&entry).Error
}

func (t *gormTx) Purchased(collectionID, buyer otc.Address) (*uint256.Int, error) {
	var row model.PurchaseRecord
	err := t.query().Where("collection_id = ? AND buyer = ?", collectionID.Hex(), buyer.Hex()).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return new(uint256.Int), nil
	}
	if err != nil {
		return nil, err
	}
	return otc.FromDecimal(row.Amount)
}

func (t *gormTx) PutPurchased(collectionID, buyer otc.Address, amount *uint256.Int) error {
	row := model.PurchaseRecord{
		CollectionID: collectionID.Hex(),
		Buyer:        buyer.Hex(),
		Amount:       otc.ToDecimal(amount),
	}
	return t.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection_id"}, {Name: "buyer"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
	}).Create(&row).Error
}

func (t *gormTx) Paused() (bool, error) {
	var state model.EngineState
	if err := t.db.First(&state, "id = ?", engineStateID).Error; err != nil {
		return false, err
	}
	return state.Paused, nil
}

func (t *gormTx) SetPaused(paused bool) error {
	return t.db.Model(&model.EngineState{}).Where("id = ?", engineStateID).Update("paused", paused).Error
}

func (t *gormTx) AppendEvent(topic, key string, payload []byte) error {
	return model.CreateOutboxMessage(t.db, topic, key, payload)
}

func fromRow(row model.Collection) (otc.Collection, error) {
	price, err := otc.FromDecimal(row.UnitPrice)
	if err != nil {
		return otc.Collection{}, fmt.Errorf("collection %s unit_price: %w", row.ID, err)
	}
	total, err := otc.FromDecimal(row.TotalAmount)
	if err != nil {
		return otc.Collection{}, fmt.Errorf("collection %s total_amount: %w", row.ID, err)
	}
	purchased, err := otc.FromDecimal(row.PurchasedAmount)
	if err != nil {
		return otc.Collection{}, fmt.Errorf("collection %s purchased_amount: %w", row.ID, err)
	}
	return otc.Collection{
		ID:              common.HexToAddress(row.ID),
		PaymentAsset:    common.HexToAddress(row.PaymentAsset),
		UnitPrice:       price,
		TotalAmount:     total,
		PurchasedAmount: purchased,
	}, nil
}
