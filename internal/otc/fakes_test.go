package otc_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"otc-core/internal/otc"
	"otc-core/internal/store/boltstore"
	"otc-core/pkg/errno"
)

var (
	owner    = common.HexToAddress("0x0000000000000000000000000000000000000001")
	custody  = common.HexToAddress("0x00000000000000000000000000000000000000ee")
	collC    = common.HexToAddress("0x000000000000000000000000000000000000c0c0")
	buyerB   = common.HexToAddress("0x000000000000000000000000000000000000b0b0")
	buyerD   = common.HexToAddress("0x000000000000000000000000000000000000d0d0")
	tokenUSD = common.HexToAddress("0x0000000000000000000000000000000000005d5d")
)

// fakeAssets 内存资产账本，记录余额与授权
type fakeAssets struct {
	mu         sync.Mutex
	balances   map[otc.Address]map[otc.Address]*uint256.Int
	allowances map[otc.Address]map[otc.Address]*uint256.Int // asset -> owner -> 授权给引擎的额度
	calls      []string

	failTransfer error
}

func newFakeAssets() *fakeAssets {
	return &fakeAssets{
		balances:   make(map[otc.Address]map[otc.Address]*uint256.Int),
		allowances: make(map[otc.Address]map[otc.Address]*uint256.Int),
	}
}

func (f *fakeAssets) fund(asset, holder otc.Address, amount uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.add(asset, holder, uint256.NewInt(amount))
}

func (f *fakeAssets) approve(asset, holder otc.Address, amount uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.allowances[asset] == nil {
		f.allowances[asset] = make(map[otc.Address]*uint256.Int)
	}
	f.allowances[asset][holder] = uint256.NewInt(amount)
}

func (f *fakeAssets) balance(asset, holder otc.Address) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b := f.balances[asset][holder]; b != nil {
		return b.Uint64()
	}
	return 0
}

func (f *fakeAssets) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeAssets) add(asset, holder otc.Address, amount *uint256.Int) {
	if f.balances[asset] == nil {
		f.balances[asset] = make(map[otc.Address]*uint256.Int)
	}
	cur := f.balances[asset][holder]
	if cur == nil {
		cur = new(uint256.Int)
	}
	f.balances[asset][holder] = new(uint256.Int).Add(cur, amount)
}

func (f *fakeAssets) sub(asset, holder otc.Address, amount *uint256.Int) bool {
	cur := f.balances[asset][holder]
	if cur == nil || cur.Lt(amount) {
		return false
	}
	f.balances[asset][holder] = new(uint256.Int).Sub(cur, amount)
	return true
}

func (f *fakeAssets) TransferFrom(_ context.Context, asset, from, to otc.Address, amount *uint256.Int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf("transferFrom %s %s->%s %s", asset.Hex(), from.Hex(), to.Hex(), amount.Dec()))

	if asset != otc.NativeAsset {
		allowed := f.allowances[asset][from]
		if allowed == nil || allowed.Lt(amount) {
			return errno.ErrInsufficientAllowance
		}
		f.allowances[asset][from] = new(uint256.Int).Sub(allowed, amount)
	}
	if !f.sub(asset, from, amount) {
		return fmt.Errorf("insufficient balance of %s", from.Hex())
	}
	f.add(asset, to, amount)
	return nil
}

func (f *fakeAssets) Transfer(_ context.Context, asset, to otc.Address, amount *uint256.Int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf("transfer %s ->%s %s", asset.Hex(), to.Hex(), amount.Dec()))

	if f.failTransfer != nil {
		return f.failTransfer
	}
	if !f.sub(asset, custody, amount) {
		return fmt.Errorf("custody balance too low")
	}
	f.add(asset, to, amount)
	return nil
}

// fakeRewards 记录每个受益人的质押量
type fakeRewards struct {
	mu     sync.Mutex
	staked map[otc.Address]uint64
	err    error
	before func(ctx context.Context)
}

func newFakeRewards() *fakeRewards {
	return &fakeRewards{staked: make(map[otc.Address]uint64)}
}

func (r *fakeRewards) MintAndStake(ctx context.Context, beneficiary otc.Address, amount *uint256.Int) error {
	if r.before != nil {
		r.before(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.staked[beneficiary] += amount.Uint64()
	return nil
}

func (r *fakeRewards) stakedOf(addr otc.Address) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.staked[addr]
}

type testEnv struct {
	engine  *otc.Engine
	store   *boltstore.Store
	assets  *fakeAssets
	rewards *fakeRewards
}

func newTestEnv(t *testing.T, timeout time.Duration) *testEnv {
	t.Helper()
	store, err := boltstore.Open(filepath.Join(t.TempDir(), "otc.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	env := &testEnv{store: store, assets: newFakeAssets(), rewards: newFakeRewards()}
	env.engine, err = otc.NewEngine(
		otc.Config{Owner: owner, Custody: custody, OpTimeout: timeout},
		store, env.assets, env.rewards,
		otc.WithLogger(zaptest.NewLogger(t)),
	)
	require.NoError(t, err)
	return env
}

func (env *testEnv) pendingTopics(t *testing.T) []string {
	t.Helper()
	pending, err := env.store.Pending(context.Background(), 0)
	require.NoError(t, err)
	topics := make([]string, 0, len(pending))
	for _, p := range pending {
		topics = append(topics, p.Topic)
	}
	return topics
}

func u(v uint64) *uint256.Int { return uint256.NewInt(v) }
