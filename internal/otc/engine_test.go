package otc_test

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"otc-core/internal/event"
	"otc-core/internal/otc"
	"otc-core/pkg/errno"
)

const price2 = 2 * otc.PriceMultiplier

func setupNativeSale(t *testing.T, env *testEnv, total uint64) {
	t.Helper()
	ctx := context.Background()
	_, err := env.engine.RegisterCollection(ctx, owner, collC, otc.NativeAsset, u(price2), u(total))
	require.NoError(t, err)
	changed, err := env.engine.AddWhitelist(ctx, owner, collC, []otc.Address{buyerB})
	require.NoError(t, err)
	require.Equal(t, []otc.Address{buyerB}, changed)
	env.assets.fund(otc.NativeAsset, buyerB, 1_000)
}

func assertUnchanged(t *testing.T, env *testEnv, purchased, ledger uint64) {
	t.Helper()
	ctx := context.Background()
	c, err := env.engine.Collection(ctx, collC)
	require.NoError(t, err)
	assert.Equal(t, purchased, c.PurchasedAmount.Uint64())
	got, err := env.engine.PurchasedBy(ctx, collC, buyerB)
	require.NoError(t, err)
	assert.Equal(t, ledger, got.Uint64())
}

func TestNewEngine_Validation(t *testing.T) {
	env := newTestEnv(t, 0)
	_, err := otc.NewEngine(otc.Config{Custody: custody}, env.store, env.assets, env.rewards)
	assert.ErrorIs(t, err, errno.ErrInvalidArgument)
	_, err = otc.NewEngine(otc.Config{Owner: owner}, env.store, env.assets, env.rewards)
	assert.ErrorIs(t, err, errno.ErrInvalidArgument)
	_, err = otc.NewEngine(otc.Config{Owner: owner, Custody: custody}, nil, env.assets, env.rewards)
	assert.ErrorIs(t, err, errno.ErrInvalidArgument)
}

func TestPurchase_NativeScenario(t *testing.T) {
	env := newTestEnv(t, 0)
	setupNativeSale(t, env, 100)

	receipt, err := env.engine.Purchase(context.Background(), buyerB, collC, u(10), u(20), u(20))
	require.NoError(t, err)
	require.NotNil(t, receipt)
	assert.Equal(t, uint64(20), receipt.Cost.Uint64())
	assert.Equal(t, uint64(10), receipt.PurchasedAmount.Uint64())
	assert.Equal(t, uint64(10), receipt.BuyerTotal.Uint64())
	assert.Len(t, receipt.ID, 64)

	assertUnchanged(t, env, 10, 10)
	assert.Equal(t, uint64(980), env.assets.balance(otc.NativeAsset, buyerB))
	assert.Equal(t, uint64(20), env.assets.balance(otc.NativeAsset, custody))
	assert.Equal(t, uint64(10), env.rewards.stakedOf(buyerB))

	assert.Equal(t, []string{event.TopicCollection, event.TopicWhitelist, event.TopicPurchase}, env.pendingTopics(t))
}

func TestPurchase_NotWhitelisted(t *testing.T) {
	env := newTestEnv(t, 0)
	setupNativeSale(t, env, 100)
	env.assets.fund(otc.NativeAsset, buyerD, 100)

	_, err := env.engine.Purchase(context.Background(), buyerD, collC, u(10), u(20), u(20))
	require.ErrorIs(t, err, errno.ErrNotWhitelisted)

	assertUnchanged(t, env, 0, 0)
	assert.Equal(t, uint64(100), env.assets.balance(otc.NativeAsset, buyerD))
	assert.Zero(t, env.assets.callCount())
}

func TestPurchase_CostMismatch(t *testing.T) {
	env := newTestEnv(t, 0)
	setupNativeSale(t, env, 100)

	_, err := env.engine.Purchase(context.Background(), buyerB, collC, u(10), u(19), u(19))
	require.ErrorIs(t, err, errno.ErrCostMismatch)
	assertUnchanged(t, env, 0, 0)
	assert.Zero(t, env.assets.callCount())
	assert.Zero(t, env.rewards.stakedOf(buyerB))
}

func TestPurchase_ValueMismatch(t *testing.T) {
	env := newTestEnv(t, 0)
	setupNativeSale(t, env, 100)

	for _, value := range []*uint256.Int{nil, u(19), u(21)} {
		_, err := env.engine.Purchase(context.Background(), buyerB, collC, u(10), u(20), value)
		require.ErrorIs(t, err, errno.ErrValueMismatch)
	}
	assertUnchanged(t, env, 0, 0)
	assert.Zero(t, env.assets.callCount())
}

func TestPurchase_InvalidArguments(t *testing.T) {
	env := newTestEnv(t, 0)
	setupNativeSale(t, env, 100)

	_, err := env.engine.Purchase(context.Background(), buyerB, collC, nil, u(0), nil)
	assert.ErrorIs(t, err, errno.ErrInvalidArgument)
	_, err = env.engine.Purchase(context.Background(), buyerB, collC, u(1), nil, nil)
	assert.ErrorIs(t, err, errno.ErrInvalidArgument)
	_, err = env.engine.Purchase(context.Background(), buyerB, tokenUSD, u(1), u(2), u(2))
	assert.ErrorIs(t, err, errno.ErrUnregisteredCollection)
}

func TestPurchase_ZeroAmountRunsFullChecks(t *testing.T) {
	env := newTestEnv(t, 0)
	setupNativeSale(t, env, 100)
	ctx := context.Background()

	_, err := env.engine.Purchase(ctx, buyerB, tokenUSD, u(0), u(0), nil)
	assert.ErrorIs(t, err, errno.ErrUnregisteredCollection)
	_, err = env.engine.Purchase(ctx, buyerD, collC, u(0), u(0), nil)
	assert.ErrorIs(t, err, errno.ErrNotWhitelisted)
	_, err = env.engine.Purchase(ctx, buyerB, collC, u(0), u(5), nil)
	assert.ErrorIs(t, err, errno.ErrCostMismatch)
	assertUnchanged(t, env, 0, 0)

	// 成本为 0 时不发生划转，状态不变
	first, err := env.engine.Purchase(ctx, buyerB, collC, u(0), u(0), nil)
	require.NoError(t, err)
	assert.Zero(t, first.Cost.Uint64())
	assert.Zero(t, env.assets.callCount())
	second, err := env.engine.Purchase(ctx, buyerB, collC, u(0), u(0), nil)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assertUnchanged(t, env, 0, 0)
}

func TestPause_BlocksMutationsButNotReads(t *testing.T) {
	env := newTestEnv(t, 0)
	setupNativeSale(t, env, 100)
	ctx := context.Background()

	require.NoError(t, env.engine.Pause(ctx, owner))
	paused, err := env.engine.Paused(ctx)
	require.NoError(t, err)
	assert.True(t, paused)

	_, err = env.engine.RegisterCollection(ctx, owner, tokenUSD, otc.NativeAsset, u(1), u(1))
	assert.ErrorIs(t, err, errno.ErrSystemPaused)
	_, err = env.engine.Purchase(ctx, buyerB, collC, u(10), u(20), u(20))
	assert.ErrorIs(t, err, errno.ErrSystemPaused)
	_, err = env.engine.AddWhitelist(ctx, owner, collC, []otc.Address{buyerD})
	assert.ErrorIs(t, err, errno.ErrSystemPaused)
	_, err = env.engine.RemoveWhitelist(ctx, owner, collC, []otc.Address{buyerB})
	assert.ErrorIs(t, err, errno.ErrSystemPaused)
	err = env.engine.Withdraw(ctx, owner, otc.NativeAsset, buyerD, u(1))
	assert.ErrorIs(t, err, errno.ErrSystemPaused)

	ok, err := env.engine.ValidateCollection(ctx, collC, otc.NativeAsset, u(price2))
	require.NoError(t, err)
	assert.True(t, ok)

	assert.ErrorIs(t, env.engine.Pause(ctx, owner), errno.ErrInvalidStateTransition)
	assert.ErrorIs(t, env.engine.Unpause(ctx, buyerB), errno.ErrUnauthorized)
	require.NoError(t, env.engine.Unpause(ctx, owner))
	assert.ErrorIs(t, env.engine.Unpause(ctx, owner), errno.ErrInvalidStateTransition)

	_, err = env.engine.Purchase(ctx, buyerB, collC, u(10), u(20), u(20))
	require.NoError(t, err)
}

// 售出前允许覆盖条款。已加入白名单的买家也会看到新条款，这一行为被刻意保留
func TestRegisterCollection_OverwriteBeforeFirstSale(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()

	_, err := env.engine.RegisterCollection(ctx, owner, collC, otc.NativeAsset, u(price2), u(5))
	require.NoError(t, err)
	_, err = env.engine.AddWhitelist(ctx, owner, collC, []otc.Address{buyerB})
	require.NoError(t, err)

	c, err := env.engine.RegisterCollection(ctx, owner, collC, otc.NativeAsset, u(3*otc.PriceMultiplier), u(5))
	require.NoError(t, err)
	assert.Equal(t, uint64(3*otc.PriceMultiplier), c.UnitPrice.Uint64())

	// 白名单保持不变，按旧报价购买会因成本不一致被拒绝
	ok, err := env.engine.IsWhitelisted(ctx, collC, buyerB)
	require.NoError(t, err)
	assert.True(t, ok)
	env.assets.fund(otc.NativeAsset, buyerB, 100)
	_, err = env.engine.Purchase(ctx, buyerB, collC, u(1), u(2), u(2))
	require.ErrorIs(t, err, errno.ErrCostMismatch)

	_, err = env.engine.Purchase(ctx, buyerB, collC, u(1), u(3), u(3))
	require.NoError(t, err)

	_, err = env.engine.RegisterCollection(ctx, owner, collC, otc.NativeAsset, u(price2), u(5))
	require.ErrorIs(t, err, errno.ErrAlreadySold)

	c, err = env.engine.Collection(ctx, collC)
	require.NoError(t, err)
	assert.Equal(t, uint64(3*otc.PriceMultiplier), c.UnitPrice.Uint64())
	assert.Equal(t, uint64(1), c.PurchasedAmount.Uint64())
}

func TestRegisterCollection_Rejections(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()

	_, err := env.engine.RegisterCollection(ctx, buyerB, collC, otc.NativeAsset, u(1), u(1))
	assert.ErrorIs(t, err, errno.ErrUnauthorized)
	_, err = env.engine.RegisterCollection(ctx, owner, otc.NullAddress, otc.NativeAsset, u(1), u(1))
	assert.ErrorIs(t, err, errno.ErrInvalidArgument)
	_, err = env.engine.RegisterCollection(ctx, owner, collC, otc.NativeAsset, u(0), u(1))
	assert.ErrorIs(t, err, errno.ErrInvalidArgument)
	_, err = env.engine.RegisterCollection(ctx, owner, collC, otc.NativeAsset, u(1), u(0))
	assert.ErrorIs(t, err, errno.ErrInvalidArgument)

	cs, err := env.engine.Collections(ctx)
	require.NoError(t, err)
	assert.Empty(t, cs)
	assert.Empty(t, env.pendingTopics(t))
}

func TestWhitelist_Idempotent(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()

	_, err := env.engine.AddWhitelist(ctx, owner, collC, []otc.Address{buyerB})
	require.ErrorIs(t, err, errno.ErrUnregisteredCollection)

	_, err = env.engine.RegisterCollection(ctx, owner, collC, otc.NativeAsset, u(price2), u(10))
	require.NoError(t, err)

	_, err = env.engine.AddWhitelist(ctx, buyerB, collC, []otc.Address{buyerB})
	require.ErrorIs(t, err, errno.ErrUnauthorized)

	changed, err := env.engine.AddWhitelist(ctx, owner, collC, []otc.Address{buyerB, buyerD, buyerB})
	require.NoError(t, err)
	assert.Equal(t, []otc.Address{buyerB, buyerD}, changed)

	changed, err = env.engine.AddWhitelist(ctx, owner, collC, []otc.Address{buyerB, buyerD})
	require.NoError(t, err)
	assert.Empty(t, changed)

	changed, err = env.engine.AddWhitelist(ctx, owner, collC, nil)
	require.NoError(t, err)
	assert.Empty(t, changed)

	for i := 0; i < 2; i++ {
		_, err = env.engine.RemoveWhitelist(ctx, owner, collC, []otc.Address{buyerD})
		require.NoError(t, err)
		ok, err := env.engine.IsWhitelisted(ctx, collC, buyerD)
		require.NoError(t, err)
		assert.False(t, ok)
	}
	ok, err := env.engine.IsWhitelisted(ctx, collC, buyerB)
	require.NoError(t, err)
	assert.True(t, ok)

	// 只有实际发生变化的调用才写事件: 注册 + 一次新增 + 一次移除
	assert.Equal(t, []string{event.TopicCollection, event.TopicWhitelist, event.TopicWhitelist}, env.pendingTopics(t))
}

func TestPurchase_CapacityBoundary(t *testing.T) {
	env := newTestEnv(t, 0)
	setupNativeSale(t, env, 5)
	ctx := context.Background()

	_, err := env.engine.Purchase(ctx, buyerB, collC, u(3), u(6), u(6))
	require.NoError(t, err)
	_, err = env.engine.Purchase(ctx, buyerB, collC, u(2), u(4), u(4))
	require.NoError(t, err)
	assertUnchanged(t, env, 5, 5)

	calls := env.assets.callCount()
	_, err = env.engine.Purchase(ctx, buyerB, collC, u(1), u(2), u(2))
	require.ErrorIs(t, err, errno.ErrCapacityExceeded)
	assertUnchanged(t, env, 5, 5)
	assert.Equal(t, calls, env.assets.callCount())
}

func TestPurchase_CapacityExceededBeforeAnyPurchase(t *testing.T) {
	env := newTestEnv(t, 0)
	setupNativeSale(t, env, 5)

	_, err := env.engine.Purchase(context.Background(), buyerB, collC, u(6), u(12), u(12))
	require.ErrorIs(t, err, errno.ErrCapacityExceeded)
	_, err = env.engine.Purchase(context.Background(), buyerB, collC, u(5), u(10), u(10))
	require.NoError(t, err)
}

func TestPurchase_CostDeterminismWithLargeValues(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()

	max := new(uint256.Int).SetAllOne()
	price := uint256.NewInt(7 * otc.PriceMultiplier / 3)
	_, err := env.engine.RegisterCollection(ctx, owner, collC, tokenUSD, price, max)
	require.NoError(t, err)
	_, err = env.engine.AddWhitelist(ctx, owner, collC, []otc.Address{buyerB})
	require.NoError(t, err)

	// amount * price 超过 256 位，必须在更宽的中间值上计算
	amount := new(uint256.Int).Lsh(uint256.NewInt(1), 250)
	want := new(big.Int).Mul(amount.ToBig(), price.ToBig())
	want.Quo(want, big.NewInt(otc.PriceMultiplier))

	quoted, err := env.engine.Quote(ctx, collC, amount)
	require.NoError(t, err)
	assert.Equal(t, want.String(), quoted.Dec())

	off := new(uint256.Int).AddUint64(quoted, 1)
	_, err = env.engine.Purchase(ctx, buyerB, collC, amount, off, nil)
	require.ErrorIs(t, err, errno.ErrCostMismatch)
	_, err = env.engine.Purchase(ctx, buyerB, collC, amount, new(uint256.Int).SubUint64(quoted, 1), nil)
	require.ErrorIs(t, err, errno.ErrCostMismatch)
	assert.Zero(t, env.assets.callCount())
}

func TestPurchase_FloorToZeroCostSkipsTransfer(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()

	_, err := env.engine.RegisterCollection(ctx, owner, collC, tokenUSD, u(1), u(10))
	require.NoError(t, err)
	_, err = env.engine.AddWhitelist(ctx, owner, collC, []otc.Address{buyerB})
	require.NoError(t, err)

	receipt, err := env.engine.Purchase(ctx, buyerB, collC, u(3), u(0), nil)
	require.NoError(t, err)
	assert.True(t, receipt.Cost.IsZero())
	assert.Zero(t, env.assets.callCount())
	assert.Equal(t, uint64(3), env.rewards.stakedOf(buyerB))
}

func TestPurchase_FungiblePayment(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()

	_, err := env.engine.RegisterCollection(ctx, owner, collC, tokenUSD, u(price2), u(100))
	require.NoError(t, err)
	_, err = env.engine.AddWhitelist(ctx, owner, collC, []otc.Address{buyerB})
	require.NoError(t, err)
	env.assets.fund(tokenUSD, buyerB, 100)

	// 未授权
	_, err = env.engine.Purchase(ctx, buyerB, collC, u(10), u(20), nil)
	require.ErrorIs(t, err, errno.ErrInsufficientAllowance)
	assertUnchanged(t, env, 0, 0)

	env.assets.approve(tokenUSD, buyerB, 20)

	// 非原生币集合不接受附带的原生币
	_, err = env.engine.Purchase(ctx, buyerB, collC, u(10), u(20), u(20))
	require.ErrorIs(t, err, errno.ErrValueMismatch)

	_, err = env.engine.Purchase(ctx, buyerB, collC, u(10), u(20), u(0))
	require.NoError(t, err)
	assert.Equal(t, uint64(80), env.assets.balance(tokenUSD, buyerB))
	assert.Equal(t, uint64(20), env.assets.balance(tokenUSD, custody))
	assertUnchanged(t, env, 10, 10)
}

func TestPurchase_MintFailureRefundsPayment(t *testing.T) {
	env := newTestEnv(t, 0)
	setupNativeSale(t, env, 100)
	env.rewards.err = errors.New("staking contract reverted")

	_, err := env.engine.Purchase(context.Background(), buyerB, collC, u(10), u(20), u(20))
	require.ErrorIs(t, err, errno.ErrMintOrStakeFailed)
	code, _ := errno.Decode(err)
	assert.Equal(t, errno.ErrMintOrStakeFailed.Code, code)

	assertUnchanged(t, env, 0, 0)
	assert.Equal(t, uint64(1_000), env.assets.balance(otc.NativeAsset, buyerB))
	assert.Zero(t, env.assets.balance(otc.NativeAsset, custody))
	assert.Equal(t, []string{event.TopicCollection, event.TopicWhitelist}, env.pendingTopics(t))
}

func TestPurchase_ReentryFromCollaboratorRejected(t *testing.T) {
	env := newTestEnv(t, 0)
	setupNativeSale(t, env, 100)

	var innerErr error
	env.rewards.before = func(ctx context.Context) {
		env.rewards.before = nil
		_, innerErr = env.engine.Purchase(ctx, buyerB, collC, u(1), u(2), u(2))
	}

	_, err := env.engine.Purchase(context.Background(), buyerB, collC, u(10), u(20), u(20))
	require.NoError(t, err)
	require.ErrorIs(t, innerErr, errno.ErrReentrantCall)
	assertUnchanged(t, env, 10, 10)
}

func TestPurchase_TimeoutRollsBackAndRefunds(t *testing.T) {
	env := newTestEnv(t, 150*time.Millisecond)
	setupNativeSale(t, env, 100)

	started := make(chan struct{})
	release := make(chan struct{})
	env.rewards.before = func(ctx context.Context) {
		close(started)
		<-release
	}

	done := make(chan error, 1)
	go func() {
		_, err := env.engine.Purchase(context.Background(), buyerB, collC, u(10), u(20), u(20))
		done <- err
	}()
	<-started

	// 另一个变更操作在超时内拿不到引擎
	_, err := env.engine.AddWhitelist(context.Background(), owner, collC, []otc.Address{buyerD})
	require.ErrorIs(t, err, errno.ErrEngineBusy)
	close(release)

	err = <-done
	require.ErrorIs(t, err, errno.ErrMintOrStakeFailed)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	env.rewards.before = nil
	assertUnchanged(t, env, 0, 0)
	assert.Equal(t, uint64(1_000), env.assets.balance(otc.NativeAsset, buyerB))
	ok, err := env.engine.IsWhitelisted(context.Background(), collC, buyerD)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPurchase_ConcurrentBuyersNeverExceedCapacity(t *testing.T) {
	env := newTestEnv(t, 5*time.Second)
	setupNativeSale(t, env, 10)
	ctx := context.Background()
	_, err := env.engine.AddWhitelist(ctx, owner, collC, []otc.Address{buyerD})
	require.NoError(t, err)
	env.assets.fund(otc.NativeAsset, buyerD, 1_000)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded = map[otc.Address]uint64{}
	)
	for i := 0; i < 16; i++ {
		buyer := buyerB
		if i%2 == 1 {
			buyer = buyerD
		}
		wg.Add(1)
		go func(buyer otc.Address) {
			defer wg.Done()
			if _, err := env.engine.Purchase(ctx, buyer, collC, u(1), u(2), u(2)); err == nil {
				mu.Lock()
				succeeded[buyer]++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, errno.ErrCapacityExceeded)
			}
		}(buyer)
	}
	wg.Wait()

	c, err := env.engine.Collection(ctx, collC)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), c.PurchasedAmount.Uint64())
	assert.Equal(t, uint64(10), succeeded[buyerB]+succeeded[buyerD])

	for _, buyer := range []otc.Address{buyerB, buyerD} {
		got, err := env.engine.PurchasedBy(ctx, collC, buyer)
		require.NoError(t, err)
		assert.Equal(t, succeeded[buyer], got.Uint64())
		assert.Equal(t, succeeded[buyer], env.rewards.stakedOf(buyer))
	}
	assert.Equal(t, uint64(20), env.assets.balance(otc.NativeAsset, custody))
}

func TestWithdraw(t *testing.T) {
	env := newTestEnv(t, 0)
	setupNativeSale(t, env, 100)
	ctx := context.Background()

	_, err := env.engine.Purchase(ctx, buyerB, collC, u(10), u(20), u(20))
	require.NoError(t, err)

	assert.ErrorIs(t, env.engine.Withdraw(ctx, buyerB, otc.NativeAsset, buyerD, u(5)), errno.ErrUnauthorized)
	assert.ErrorIs(t, env.engine.Withdraw(ctx, owner, otc.NativeAsset, otc.NullAddress, u(5)), errno.ErrInvalidArgument)
	assert.ErrorIs(t, env.engine.Withdraw(ctx, owner, otc.NativeAsset, buyerD, u(0)), errno.ErrInvalidArgument)
	assert.ErrorIs(t, env.engine.Withdraw(ctx, owner, otc.NativeAsset, buyerD, u(21)), errno.ErrTransferFailed)

	require.NoError(t, env.engine.Withdraw(ctx, owner, otc.NativeAsset, buyerD, u(15)))
	assert.Equal(t, uint64(15), env.assets.balance(otc.NativeAsset, buyerD))
	assert.Equal(t, uint64(5), env.assets.balance(otc.NativeAsset, custody))

	topics := env.pendingTopics(t)
	assert.Equal(t, event.TopicWithdraw, topics[len(topics)-1])
	assert.Len(t, topics, 4)
}

func TestValidateCollection(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()

	ok, err := env.engine.ValidateCollection(ctx, collC, otc.NativeAsset, u(price2))
	require.NoError(t, err)
	assert.False(t, ok)

	setupNativeSale(t, env, 100)
	ok, err = env.engine.ValidateCollection(ctx, collC, otc.NativeAsset, u(price2))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = env.engine.ValidateCollection(ctx, collC, tokenUSD, u(price2))
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = env.engine.ValidateCollection(ctx, collC, otc.NativeAsset, u(price2+1))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCollectionHookFiresAfterCommit(t *testing.T) {
	env := newTestEnv(t, 0)
	var seen []otc.Address
	engine, err := otc.NewEngine(otc.Config{Owner: owner, Custody: custody}, env.store, env.assets, env.rewards,
		otc.WithCollectionHook(func(_ context.Context, id otc.Address) { seen = append(seen, id) }))
	require.NoError(t, err)

	ctx := context.Background()
	_, err = engine.RegisterCollection(ctx, owner, collC, otc.NativeAsset, u(price2), u(10))
	require.NoError(t, err)
	_, err = engine.RegisterCollection(ctx, owner, collC, otc.NativeAsset, u(0), u(10))
	require.Error(t, err)
	assert.Equal(t, []otc.Address{collC}, seen)
}
