package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"otc-core/internal/otc"
	"otc-core/internal/store/boltstore"
	"otc-core/pkg/cache"
)

type published struct {
	topic, key string
	payload    []byte
}

type fakeProducer struct {
	mu     sync.Mutex
	msgs   []published
	failAt int // 第 failAt 次调用失败 (从 1 开始)，0 表示不失败
	calls  int
}

func (p *fakeProducer) Publish(_ context.Context, topic, key string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.failAt > 0 && p.calls == p.failAt {
		return errors.New("broker down")
	}
	p.msgs = append(p.msgs, published{topic: topic, key: key, payload: payload})
	return nil
}

func seedOutbox(t *testing.T, n int) *boltstore.Store {
	t.Helper()
	s, err := boltstore.Open(filepath.Join(t.TempDir(), "otc.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Update(context.Background(), func(tx otc.Tx) error {
		for i := 0; i < n; i++ {
			if err := tx.AppendEvent("otc_events_purchase", "c1", []byte{byte(i)}); err != nil {
				return err
			}
		}
		return nil
	}))
	return s
}

func TestRelayService_PublishesInOrderAndMarksSent(t *testing.T) {
	s := seedOutbox(t, 3)
	producer := &fakeProducer{}
	relay := NewRelayService(s, producer, time.Second, 2)

	assert.Equal(t, 2, relay.ProcessPending(context.Background()))
	assert.Equal(t, 1, relay.ProcessPending(context.Background()))
	assert.Equal(t, 0, relay.ProcessPending(context.Background()))

	require.Len(t, producer.msgs, 3)
	for i, m := range producer.msgs {
		assert.Equal(t, "otc_events_purchase", m.topic)
		assert.Equal(t, "c1", m.key)
		assert.Equal(t, []byte{byte(i)}, m.payload)
	}
}

func TestRelayService_StopsBatchOnFailure(t *testing.T) {
	s := seedOutbox(t, 3)
	producer := &fakeProducer{failAt: 2}
	relay := NewRelayService(s, producer, time.Second, 10)

	assert.Equal(t, 1, relay.ProcessPending(context.Background()))
	pending, err := s.Pending(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	// 恢复后按原顺序补发
	assert.Equal(t, 2, relay.ProcessPending(context.Background()))
	require.Len(t, producer.msgs, 3)
	assert.Equal(t, []byte{1}, producer.msgs[1].payload)
}

func TestRelayService_RunStopsOnCancel(t *testing.T) {
	s := seedOutbox(t, 1)
	producer := &fakeProducer{}
	relay := NewRelayService(s, producer, 10*time.Millisecond, 10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		relay.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		producer.mu.Lock()
		defer producer.mu.Unlock()
		return len(producer.msgs) == 1
	}, time.Second, 10*time.Millisecond)
	cancel()
	<-done
}

type fakeReader struct {
	mu    sync.Mutex
	calls int
	items map[otc.Address]otc.Collection
}

func (r *fakeReader) Collection(_ context.Context, id otc.Address) (otc.Collection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if c, ok := r.items[id]; ok {
		return c, nil
	}
	return otc.EmptyCollection(id), nil
}

func (r *fakeReader) Collections(_ context.Context) ([]otc.Collection, error) {
	out := make([]otc.Collection, 0, len(r.items))
	for _, c := range r.items {
		out = append(out, c)
	}
	return out, nil
}

var collID = common.HexToAddress("0x000000000000000000000000000000000000c0c0")

func sampleReader() *fakeReader {
	return &fakeReader{items: map[otc.Address]otc.Collection{
		collID: {
			ID:              collID,
			PaymentAsset:    otc.NativeAsset,
			UnitPrice:       uint256.NewInt(2_500_000_000),
			TotalAmount:     uint256.NewInt(100),
			PurchasedAmount: uint256.NewInt(40),
		},
	}}
}

func TestQueryService_CachesRegisteredCollections(t *testing.T) {
	reader := sampleReader()
	q := NewQueryService(reader, cache.NewMemoryCache(time.Minute, time.Minute), time.Minute)
	ctx := context.Background()

	view, err := q.Collection(ctx, collID)
	require.NoError(t, err)
	assert.Equal(t, "2.5", view.Price)
	assert.Equal(t, "60", view.Remaining)
	assert.True(t, view.Native)

	_, err = q.Collection(ctx, collID)
	require.NoError(t, err)
	assert.Equal(t, 1, reader.calls)

	q.Invalidate(ctx, collID)
	_, err = q.Collection(ctx, collID)
	require.NoError(t, err)
	assert.Equal(t, 2, reader.calls)

	// 未注册的集合不进缓存
	other := common.HexToAddress("0x0000000000000000000000000000000000000bad")
	for i := 0; i < 2; i++ {
		view, err = q.Collection(ctx, other)
		require.NoError(t, err)
		assert.False(t, view.Registered)
	}
	assert.Equal(t, 4, reader.calls)
}

func TestQueryService_InvalidateVisibleToOtherReplicas(t *testing.T) {
	reader := sampleReader()
	shared := cache.NewMemoryCache(time.Minute, time.Minute)
	a := NewQueryService(reader, shared, time.Minute)
	b := NewQueryService(reader, shared, time.Minute)
	ctx := context.Background()

	view, err := b.Collection(ctx, collID)
	require.NoError(t, err)
	assert.Equal(t, "40", view.PurchasedAmount)

	reader.mu.Lock()
	c := reader.items[collID]
	c.PurchasedAmount = uint256.NewInt(70)
	reader.items[collID] = c
	reader.mu.Unlock()

	// 写入发生在 a 所在的副本，b 不能再读到旧值
	a.Invalidate(ctx, collID)
	view, err = b.Collection(ctx, collID)
	require.NoError(t, err)
	assert.Equal(t, "70", view.PurchasedAmount)
	assert.Equal(t, "30", view.Remaining)
}

type fakeLock struct {
	held     bool
	acquired int
}

func (l *fakeLock) Acquire(context.Context, string, time.Duration) (bool, error) {
	if l.held {
		return false, nil
	}
	l.acquired++
	return true, nil
}

func (l *fakeLock) Release(context.Context, string) error { return nil }

func TestCronService_RefreshCapacityRespectsLock(t *testing.T) {
	reader := sampleReader()
	locker := &fakeLock{}
	svc := NewCronService("@every 1m", reader, locker)

	assert.Equal(t, 1, svc.RefreshCapacity(context.Background()))
	assert.Equal(t, 1, locker.acquired)

	locker.held = true
	assert.Equal(t, 0, svc.RefreshCapacity(context.Background()))

	// 单机模式不需要锁
	assert.Equal(t, 1, NewCronService("", reader, nil).RefreshCapacity(context.Background()))
}
