package boltstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.etcd.io/bbolt"

	"otc-core/internal/event"
	"otc-core/internal/otc"
)

var (
	bucketCollections = []byte("collections")
	bucketWhitelist   = []byte("whitelist")
	bucketPurchases   = []byte("purchases")
	bucketAdmin       = []byte("admin")
	bucketOutbox      = []byte("outbox")
	bucketOutboxSent  = []byte("outbox_sent")

	keyPaused = []byte("paused")
)

const (
	addrLen       = 20
	wordLen       = 32
	collectionLen = addrLen + 3*wordLen // paymentAsset | unitPrice | totalAmount | purchasedAmount
)

var errCorrupt = errors.New("boltstore: corrupt record")

// Store 基于 bbolt 的单机事务存储，实现 otc.Store 与 Outbox
type Store struct {
	db *bbolt.DB
}

var _ otc.Store = (*Store)(nil)

// Open 打开或创建数据库文件，父目录不存在时自动创建
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("boltstore: create directory: %w", err)
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("boltstore: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketCollections, bucketWhitelist, bucketPurchases, bucketAdmin, bucketOutbox, bucketOutboxSent} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("boltstore: create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Update 在一个读写事务中执行 fn；fn 出错或 ctx 已结束时整体回滚
func (s *Store) Update(ctx context.Context, fn func(tx otc.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(btx *bbolt.Tx) error {
		if err := fn(&boltTx{tx: btx}); err != nil {
			return err
		}
		// 提交前最后一次检查，超时的操作不允许落盘
		return ctx.Err()
	})
}

// View 在只读事务中执行 fn
func (s *Store) View(ctx context.Context, fn func(tx otc.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(btx *bbolt.Tx) error {
		return fn(&boltTx{tx: btx})
	})
}

// outboxRecord 消息表中的一条记录
type outboxRecord struct {
	Topic     string    `json:"topic"`
	Key       string    `json:"key"`
	Payload   []byte    `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
	SentAt    time.Time `json:"sent_at,omitempty"`
}

// Pending 按写入顺序返回最多 limit 条未投递消息
func (s *Store) Pending(ctx context.Context, limit int) ([]event.Envelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []event.Envelope
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketOutbox).Cursor()
		for k, v := c.First(); k != nil && (limit <= 0 || len(out) < limit); k, v = c.Next() {
			var rec outboxRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("boltstore: decode outbox record: %w", err)
			}
			out = append(out, event.Envelope{
				ID:      binary.BigEndian.Uint64(k),
				Topic:   rec.Topic,
				Key:     rec.Key,
				Payload: rec.Payload,
			})
		}
		return nil
	})
	return out, err
}

// MarkSent 把消息移入已投递桶；重复标记是幂等的
func (s *Store) MarkSent(ctx context.Context, id uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		key := seqKey(id)
		pending := tx.Bucket(bucketOutbox)
		data := pending.Get(key)
		if data == nil {
			return nil
		}
		var rec outboxRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("boltstore: decode outbox record: %w", err)
		}
		rec.SentAt = time.Now().UTC()
		sent, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketOutboxSent).Put(key, sent); err != nil {
			return fmt.Errorf("boltstore: put sent record: %w", err)
		}
		return pending.Delete(key)
	})
}

// boltTx 实现 otc.Tx
type boltTx struct {
	tx *bbolt.Tx
}

func (t *boltTx) Collection(id otc.Address) (otc.Collection, error) {
	data := t.tx.Bucket(bucketCollections).Get(id.Bytes())
	if data == nil {
		return otc.EmptyCollection(id), nil
	}
	return decodeCollection(id, data)
}

func (t *boltTx) PutCollection(c otc.Collection) error {
	if err := t.tx.Bucket(bucketCollections).Put(c.ID.Bytes(), encodeCollection(c)); err != nil {
		return fmt.Errorf("boltstore: put collection: %w", err)
	}
	return nil
}

func (t *boltTx) ForEachCollection(fn func(c otc.Collection) error) error {
	return t.tx.Bucket(bucketCollections).ForEach(func(k, v []byte) error {
		c, err := decodeCollection(common.BytesToAddress(k), v)
		if err != nil {
			return err
		}
		return fn(c)
	})
}

func (t *boltTx) Whitelisted(collectionID, buyer otc.Address) (bool, error) {
	return t.tx.Bucket(bucketWhitelist).Get(pairKey(collectionID, buyer)) != nil, nil
}

func (t *boltTx) SetWhitelisted(collectionID, buyer otc.Address, allowed bool) error {
	b := t.tx.Bucket(bucketWhitelist)
	key := pairKey(collectionID, buyer)
	if allowed {
		return b.Put(key, []byte{1})
	}
	return b.Delete(key)
}

func (t *boltTx) Purchased(collectionID, buyer otc.Address) (*uint256.Int, error) {
	data := t.tx.Bucket(bucketPurchases).Get(pairKey(collectionID, buyer))
	if data == nil {
		return new(uint256.Int), nil
	}
	if len(data) != wordLen {
		return nil, errCorrupt
	}
	return new(uint256.Int).SetBytes32(data), nil
}

func (t *boltTx) PutPurchased(collectionID, buyer otc.Address, amount *uint256.Int) error {
	word := amount.Bytes32()
	return t.tx.Bucket(bucketPurchases).Put(pairKey(collectionID, buyer), word[:])
}

func (t *boltTx) Paused() (bool, error) {
	v := t.tx.Bucket(bucketAdmin).Get(keyPaused)
	return len(v) == 1 && v[0] == 1, nil
}

func (t *boltTx) SetPaused(paused bool) error {
	v := byte(0)
	if paused {
		v = 1
	}
	return t.tx.Bucket(bucketAdmin).Put(keyPaused, []byte{v})
}

func (t *boltTx) AppendEvent(topic, key string, payload []byte) error {
	b := t.tx.Bucket(bucketOutbox)
	seq, err := b.NextSequence()
	if err != nil {
		return fmt.Errorf("boltstore: outbox sequence: %w", err)
	}
	data, err := json.Marshal(outboxRecord{Topic: topic, Key: key, Payload: payload, CreatedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	return b.Put(seqKey(seq), data)
}

func encodeCollection(c otc.Collection) []byte {
	buf := make([]byte, 0, collectionLen)
	buf = append(buf, c.PaymentAsset.Bytes()...)
	for _, x := range []*uint256.Int{c.UnitPrice, c.TotalAmount, c.PurchasedAmount} {
		var word [wordLen]byte
		if x != nil {
			word = x.Bytes32()
		}
		buf = append(buf, word[:]...)
	}
	return buf
}

func decodeCollection(id otc.Address, data []byte) (otc.Collection, error) {
	if len(data) != collectionLen {
		return otc.Collection{}, fmt.Errorf("%w: collection %s has %d bytes", errCorrupt, id.Hex(), len(data))
	}
	word := func(i int) *uint256.Int {
		off := addrLen + i*wordLen
		return new(uint256.Int).SetBytes32(data[off : off+wordLen])
	}
	return otc.Collection{
		ID:              id,
		PaymentAsset:    common.BytesToAddress(data[:addrLen]),
		UnitPrice:       word(0),
		TotalAmount:     word(1),
		PurchasedAmount: word(2),
	}, nil
}

func pairKey(collectionID, buyer otc.Address) []byte {
	k := make([]byte, 0, 2*addrLen)
	k = append(k, collectionID.Bytes()...)
	return append(k, buyer.Bytes()...)
}

func seqKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}
