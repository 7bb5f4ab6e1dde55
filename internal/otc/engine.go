package otc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"otc-core/internal/event"
	"otc-core/pkg/crypto_util"
	"otc-core/pkg/errno"
	"otc-core/pkg/monitor"
	"otc-core/pkg/utils/lock"
)

// 操作名，用于日志与监控标签
const (
	OpRegister        = "register_collection"
	OpAddWhitelist    = "add_whitelist"
	OpRemoveWhitelist = "remove_whitelist"
	OpWithdraw        = "withdraw"
	OpPause           = "pause"
	OpUnpause         = "unpause"
	OpPurchase        = "purchase"
)

const (
	defaultOpTimeout = 30 * time.Second
	defaultLockKey   = "otc:engine"
)

// Config 引擎的静态配置
type Config struct {
	Owner     Address       // 唯一管理员
	Custody   Address       // 引擎自有账户，买家付款进入这里，Withdraw 从这里转出
	OpTimeout time.Duration // 单个变更操作的超时，超时即整体回滚
	LockKey   string        // 分布式锁 key (仅在启用分布式锁时使用)
	LockTTL   time.Duration
}

// Option 引擎可选项
type Option func(*Engine)

// WithLogger 指定引擎使用的 zap Logger
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithDistributedLock 多副本部署时，用分布式锁把串行化扩展到所有实例
func WithDistributedLock(l lock.DistributedLock) Option {
	return func(e *Engine) { e.locker = l }
}

// WithCollectionHook 在涉及某个集合的变更提交后回调 (例如清理读缓存)
func WithCollectionHook(fn func(ctx context.Context, id Address)) Option {
	return func(e *Engine) { e.hooks = append(e.hooks, fn) }
}

// Engine OTC 销售引擎
// 所有变更操作都在一个 Store 事务内完成: 先做完全部校验与新值计算，再调用外部协作方，最后统一提交。
// 任何一步失败都会丢弃事务；已收取的付款通过反向 Transfer 退回。
type Engine struct {
	store     Store
	transfers AssetTransfer
	rewards   RewardMintAndStake

	owner   Address
	custody Address

	sem       chan struct{}
	locker    lock.DistributedLock
	lockKey   string
	lockTTL   time.Duration
	opTimeout time.Duration

	log   *zap.Logger
	hooks []func(ctx context.Context, id Address)
}

// NewEngine 构造函数
func NewEngine(cfg Config, store Store, transfers AssetTransfer, rewards RewardMintAndStake, opts ...Option) (*Engine, error) {
	if cfg.Owner == NullAddress {
		return nil, errno.ErrInvalidArgument.WithMessage("engine owner is null")
	}
	if cfg.Custody == NullAddress {
		return nil, errno.ErrInvalidArgument.WithMessage("engine custody address is null")
	}
	if store == nil || transfers == nil || rewards == nil {
		return nil, errno.ErrInvalidArgument.WithMessage("store, asset transfer and reward pipeline are required")
	}

	e := &Engine{
		store:     store,
		transfers: transfers,
		rewards:   rewards,
		owner:     cfg.Owner,
		custody:   cfg.Custody,
		sem:       make(chan struct{}, 1),
		lockKey:   cfg.LockKey,
		lockTTL:   cfg.LockTTL,
		opTimeout: cfg.OpTimeout,
		log:       zap.NewNop(),
	}
	if e.opTimeout <= 0 {
		e.opTimeout = defaultOpTimeout
	}
	if e.lockKey == "" {
		e.lockKey = defaultLockKey
	}
	if e.lockTTL <= 0 {
		e.lockTTL = e.opTimeout + 5*time.Second
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Owner 返回配置的管理员
func (e *Engine) Owner() Address { return e.owner }

// Custody 返回引擎自有账户
func (e *Engine) Custody() Address { return e.custody }

// RegisterCollection 注册或 (售出前) 覆盖一个集合
func (e *Engine) RegisterCollection(ctx context.Context, caller, id, paymentAsset Address, unitPrice, totalAmount *uint256.Int) (Collection, error) {
	start := time.Now()
	fields := []zap.Field{
		zap.String("caller", caller.Hex()),
		zap.String("collection", id.Hex()),
		zap.String("payment_asset", paymentAsset.Hex()),
		zap.String("unit_price", decString(unitPrice)),
		zap.String("total_amount", decString(totalAmount)),
	}

	opCtx, release, err := e.enter(ctx, OpRegister)
	if err != nil {
		return Collection{}, e.finish(OpRegister, start, err, fields...)
	}
	defer release()

	var registered Collection
	err = e.store.Update(opCtx, func(tx Tx) error {
		if err := e.requireRunning(tx); err != nil {
			return err
		}
		if err := e.requireOwner(caller); err != nil {
			return err
		}

		prev, err := tx.Collection(id)
		if err != nil {
			return fmt.Errorf("load collection %s: %w", id.Hex(), err)
		}
		registered, err = NewCollectionRegistry(tx).Register(id, paymentAsset, unitPrice, totalAmount)
		if err != nil {
			return err
		}
		return appendEvent(tx, event.TopicCollection, id.Hex(), event.CollectionRegisteredEvent{
			CollectionID: id.Hex(),
			PaymentAsset: paymentAsset.Hex(),
			UnitPrice:    unitPrice.Dec(),
			TotalAmount:  totalAmount.Dec(),
			Overwrite:    prev.Registered(),
		})
	})
	if err != nil {
		return Collection{}, e.finish(OpRegister, start, err, fields...)
	}

	e.collectionChanged(opCtx, id)
	return registered.Clone(), e.finish(OpRegister, start, nil, fields...)
}

// AddWhitelist 把买家加入集合白名单，返回实际新增的地址
func (e *Engine) AddWhitelist(ctx context.Context, caller, id Address, buyers []Address) ([]Address, error) {
	return e.updateWhitelist(ctx, OpAddWhitelist, caller, id, buyers, true)
}

// RemoveWhitelist 把买家移出集合白名单，返回实际移除的地址
func (e *Engine) RemoveWhitelist(ctx context.Context, caller, id Address, buyers []Address) ([]Address, error) {
	return e.updateWhitelist(ctx, OpRemoveWhitelist, caller, id, buyers, false)
}

func (e *Engine) updateWhitelist(ctx context.Context, op string, caller, id Address, buyers []Address, allowed bool) ([]Address, error) {
	start := time.Now()
	fields := []zap.Field{
		zap.String("caller", caller.Hex()),
		zap.String("collection", id.Hex()),
		zap.Int("buyers", len(buyers)),
	}

	opCtx, release, err := e.enter(ctx, op)
	if err != nil {
		return nil, e.finish(op, start, err, fields...)
	}
	defer release()

	var changed []Address
	err = e.store.Update(opCtx, func(tx Tx) error {
		if err := e.requireRunning(tx); err != nil {
			return err
		}
		if err := e.requireOwner(caller); err != nil {
			return err
		}

		wl := NewWhitelistStore(tx)
		var err error
		if allowed {
			changed, err = wl.Add(id, buyers)
		} else {
			changed, err = wl.Remove(id, buyers)
		}
		if err != nil {
			return err
		}
		if len(changed) == 0 {
			return nil
		}

		payload := event.WhitelistUpdatedEvent{CollectionID: id.Hex()}
		if allowed {
			payload.Added = hexList(changed)
		} else {
			payload.Removed = hexList(changed)
		}
		return appendEvent(tx, event.TopicWhitelist, id.Hex(), payload)
	})
	if err != nil {
		return nil, e.finish(op, start, err, fields...)
	}
	return changed, e.finish(op, start, nil, append(fields, zap.Int("changed", len(changed)))...)
}

// Withdraw 管理员把引擎账户中的资产转出
func (e *Engine) Withdraw(ctx context.Context, caller, asset, destination Address, amount *uint256.Int) error {
	start := time.Now()
	fields := []zap.Field{
		zap.String("caller", caller.Hex()),
		zap.String("asset", asset.Hex()),
		zap.String("destination", destination.Hex()),
		zap.String("amount", decString(amount)),
	}

	opCtx, release, err := e.enter(ctx, OpWithdraw)
	if err != nil {
		return e.finish(OpWithdraw, start, err, fields...)
	}
	defer release()

	transferred := false
	err = e.store.Update(opCtx, func(tx Tx) error {
		if err := e.requireRunning(tx); err != nil {
			return err
		}
		if err := e.requireOwner(caller); err != nil {
			return err
		}
		if destination == NullAddress {
			return errno.ErrInvalidArgument.WithMessage("withdraw destination is null")
		}
		if amount == nil || amount.IsZero() {
			return errno.ErrInvalidArgument.WithMessage("withdraw amount must be positive")
		}

		if err := appendEvent(tx, event.TopicWithdraw, asset.Hex(), event.WithdrawnEvent{
			Asset:       asset.Hex(),
			Destination: destination.Hex(),
			Amount:      amount.Dec(),
		}); err != nil {
			return err
		}

		// 外部划转放在最后，失败时事务整体丢弃
		if err := e.transfers.Transfer(opCtx, asset, destination, amount); err != nil {
			return transferError(err)
		}
		transferred = true
		return nil
	})
	if err != nil && transferred {
		e.log.Error("withdraw transferred but state commit failed",
			append(fields, zap.Error(err))...)
	}
	if err == nil {
		monitor.ObserveWithdrawal(asset.Hex())
	}
	return e.finish(OpWithdraw, start, err, fields...)
}

// Pause 暂停系统；已暂停时返回 ErrInvalidStateTransition
func (e *Engine) Pause(ctx context.Context, caller Address) error {
	return e.setPaused(ctx, OpPause, caller, true)
}

// Unpause 恢复系统；未暂停时返回 ErrInvalidStateTransition
func (e *Engine) Unpause(ctx context.Context, caller Address) error {
	return e.setPaused(ctx, OpUnpause, caller, false)
}

func (e *Engine) setPaused(ctx context.Context, op string, caller Address, paused bool) error {
	start := time.Now()
	fields := []zap.Field{zap.String("caller", caller.Hex())}

	opCtx, release, err := e.enter(ctx, op)
	if err != nil {
		return e.finish(op, start, err, fields...)
	}
	defer release()

	err = e.store.Update(opCtx, func(tx Tx) error {
		if err := e.requireOwner(caller); err != nil {
			return err
		}
		current, err := tx.Paused()
		if err != nil {
			return fmt.Errorf("load pause state: %w", err)
		}
		if current == paused {
			return errno.ErrInvalidStateTransition.WithMessage(
				fmt.Sprintf("%s: system already in paused=%t state", op, paused))
		}
		if err := tx.SetPaused(paused); err != nil {
			return fmt.Errorf("store pause state: %w", err)
		}
		return appendEvent(tx, event.TopicAdmin, op, event.PauseToggledEvent{Paused: paused, By: caller.Hex()})
	})
	return e.finish(op, start, err, fields...)
}

// Purchase 白名单买家按固定价格购买 amount 个奖励单位
// expectedCost 是调用方自行计算的成本，与引擎重新计算的 floor(amount*price/1e9) 不一致即拒绝。
// value 是随调用附带的原生币金额；非原生币集合必须为 0 (或 nil)。
func (e *Engine) Purchase(ctx context.Context, buyer, id Address, amount, expectedCost, value *uint256.Int) (*Receipt, error) {
	start := time.Now()
	fields := []zap.Field{
		zap.String("buyer", buyer.Hex()),
		zap.String("collection", id.Hex()),
		zap.String("amount", decString(amount)),
		zap.String("expected_cost", decString(expectedCost)),
		zap.String("value", decString(value)),
	}

	opCtx, release, err := e.enter(ctx, OpPurchase)
	if err != nil {
		return nil, e.finish(OpPurchase, start, err, fields...)
	}
	defer release()

	if value == nil {
		value = new(uint256.Int)
	}

	var (
		receipt  *Receipt
		payAsset Address
		cost     *uint256.Int
		paid     bool // 付款已收取
		settled  bool // 奖励已铸造并质押
	)
	err = e.store.Update(opCtx, func(tx Tx) error {
		if err := e.requireRunning(tx); err != nil {
			return err
		}
		if amount == nil {
			return errno.ErrInvalidArgument.WithMessage("purchase amount is required")
		}
		if expectedCost == nil {
			return errno.ErrInvalidArgument.WithMessage("expected cost is required")
		}

		registry := NewCollectionRegistry(tx)
		ledger := NewPurchaseLedger(tx)

		// 1. 集合已注册且买家在白名单中
		c, err := registry.Get(id)
		if err != nil {
			return err
		}
		if !c.Registered() {
			return errno.ErrUnregisteredCollection.WithMessage(
				fmt.Sprintf("collection %s is not registered", id.Hex()))
		}
		ok, err := NewWhitelistStore(tx).IsWhitelisted(id, buyer)
		if err != nil {
			return fmt.Errorf("load whitelist entry: %w", err)
		}
		if !ok {
			return errno.ErrNotWhitelisted.WithMessage(
				fmt.Sprintf("buyer %s is not whitelisted for %s", buyer.Hex(), id.Hex()))
		}

		// 2-3. 重新计算成本并与报价比较 (滑点保护)
		cost, err = QuoteCost(amount, c.UnitPrice)
		if err != nil {
			return err
		}
		if !cost.Eq(expectedCost) {
			return errno.ErrCostMismatch.WithMessage(
				fmt.Sprintf("expected cost %s, actual cost %s", expectedCost.Dec(), cost.Dec()))
		}

		// 4. 容量检查，并提前算好所有新值 (溢出在任何外部调用之前暴露)
		if _, err := nextPurchased(c, amount); err != nil {
			return err
		}
		if _, err := ledger.next(id, buyer, amount); err != nil {
			return err
		}

		// 5. 收款
		if c.IsNative() {
			if !value.Eq(cost) {
				return errno.ErrValueMismatch.WithMessage(
					fmt.Sprintf("attached value %s, cost %s", value.Dec(), cost.Dec()))
			}
		} else if !value.IsZero() {
			return errno.ErrValueMismatch.WithMessage(
				fmt.Sprintf("collection pays in %s, native value %s must be zero", c.PaymentAsset.Hex(), value.Dec()))
		}
		payAsset = c.PaymentAsset
		if !cost.IsZero() {
			if err := e.transfers.TransferFrom(opCtx, c.PaymentAsset, buyer, e.custody, cost); err != nil {
				return transferError(err)
			}
			paid = true
		}

		// 6. 记录售出量 (必须在收款之后、铸造之前)
		if _, _, err := registry.RecordPurchase(id, amount); err != nil {
			return err
		}

		// 7. 铸造并质押给买家
		if err := e.rewards.MintAndStake(opCtx, buyer, amount); err != nil {
			return fmt.Errorf("%w: %w", errno.ErrMintOrStakeFailed, err)
		}
		settled = true

		// 8. 买家累计量
		buyerTotal, err := ledger.Add(id, buyer, amount)
		if err != nil {
			return err
		}

		purchased, err := checkedAdd(c.PurchasedAmount, amount)
		if err != nil {
			return err
		}
		// 零数量购买不改变累计量，用随机 nonce 保证回执 ID 唯一
		seq, nonce := purchased.Bytes32(), uuid.New()
		receipt = &Receipt{
			ID:              crypto_util.Blake3Hex(id.Bytes(), buyer.Bytes(), seq[:], nonce[:]),
			CollectionID:    id,
			Buyer:           buyer,
			PaymentAsset:    c.PaymentAsset,
			Amount:          amount.Clone(),
			Cost:            cost.Clone(),
			PurchasedAmount: purchased,
			BuyerTotal:      buyerTotal,
		}
		return appendEvent(tx, event.TopicPurchase, id.Hex(), event.PurchasedEvent{
			ReceiptID:       receipt.ID,
			CollectionID:    id.Hex(),
			Buyer:           buyer.Hex(),
			PaymentAsset:    c.PaymentAsset.Hex(),
			Amount:          amount.Dec(),
			Cost:            cost.Dec(),
			PurchasedAmount: purchased.Dec(),
			BuyerTotal:      buyerTotal.Dec(),
		})
	})

	if err != nil {
		switch {
		case settled:
			// 奖励已经交付，无法撤回，只能告警人工处理
			e.log.Error("purchase settled externally but state commit failed",
				append(fields, zap.String("cost", decString(cost)), zap.Error(err))...)
		case paid:
			e.refund(opCtx, payAsset, buyer, cost, fields)
		}
		return nil, e.finish(OpPurchase, start, err, fields...)
	}

	monitor.ObservePurchase(id.Hex(), toFloat(amount))
	e.collectionChanged(opCtx, id)
	return receipt, e.finish(OpPurchase, start, nil, append(fields, zap.String("receipt", receipt.ID))...)
}

// ValidateCollection 只读: 已注册且 paymentAsset 与 unitPrice 完全一致时返回 true
func (e *Engine) ValidateCollection(ctx context.Context, id, paymentAsset Address, unitPrice *uint256.Int) (bool, error) {
	c, err := e.Collection(ctx, id)
	if err != nil {
		return false, err
	}
	if !c.Registered() || unitPrice == nil {
		return false, nil
	}
	return c.PaymentAsset == paymentAsset && c.UnitPrice.Eq(unitPrice), nil
}

// Quote 只读: 按当前条款计算购买 amount 的成本
func (e *Engine) Quote(ctx context.Context, id Address, amount *uint256.Int) (*uint256.Int, error) {
	if amount == nil {
		return nil, errno.ErrInvalidArgument.WithMessage("amount is required")
	}
	c, err := e.Collection(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.Registered() {
		return nil, errno.ErrUnregisteredCollection.WithMessage(
			fmt.Sprintf("collection %s is not registered", id.Hex()))
	}
	return QuoteCost(amount, c.UnitPrice)
}

// Collection 查询集合；未注册返回 TotalAmount == 0 的占位记录
func (e *Engine) Collection(ctx context.Context, id Address) (Collection, error) {
	var c Collection
	err := e.store.View(ctx, func(tx Tx) error {
		var err error
		c, err = NewCollectionRegistry(tx).Get(id)
		return err
	})
	if err != nil {
		return Collection{}, err
	}
	return c.Clone(), nil
}

// Collections 列出全部集合
func (e *Engine) Collections(ctx context.Context) ([]Collection, error) {
	var out []Collection
	err := e.store.View(ctx, func(tx Tx) error {
		return tx.ForEachCollection(func(c Collection) error {
			out = append(out, c.Clone())
			return nil
		})
	})
	return out, err
}

// IsWhitelisted 查询白名单
func (e *Engine) IsWhitelisted(ctx context.Context, id, buyer Address) (bool, error) {
	var ok bool
	err := e.store.View(ctx, func(tx Tx) error {
		var err error
		ok, err = NewWhitelistStore(tx).IsWhitelisted(id, buyer)
		return err
	})
	return ok, err
}

// PurchasedBy 查询买家在集合内的累计购买量
func (e *Engine) PurchasedBy(ctx context.Context, id, buyer Address) (*uint256.Int, error) {
	var v *uint256.Int
	err := e.store.View(ctx, func(tx Tx) error {
		var err error
		v, err = NewPurchaseLedger(tx).Get(id, buyer)
		return err
	})
	return v, err
}

// Paused 查询是否处于暂停状态
func (e *Engine) Paused(ctx context.Context) (bool, error) {
	var paused bool
	err := e.store.View(ctx, func(tx Tx) error {
		var err error
		paused, err = tx.Paused()
		return err
	})
	return paused, err
}

func (e *Engine) requireRunning(tx Tx) error {
	paused, err := tx.Paused()
	if err != nil {
		return fmt.Errorf("load pause state: %w", err)
	}
	if paused {
		return errno.ErrSystemPaused
	}
	return nil
}

func (e *Engine) requireOwner(caller Address) error {
	if caller != e.owner {
		return errno.ErrUnauthorized.WithMessage(fmt.Sprintf("caller %s is not the owner", caller.Hex()))
	}
	return nil
}

// refund 补偿: 把已收取的付款退回买家
func (e *Engine) refund(ctx context.Context, asset, buyer Address, amount *uint256.Int, fields []zap.Field) {
	refundCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.opTimeout)
	defer cancel()

	if err := e.transfers.Transfer(refundCtx, asset, buyer, amount); err != nil {
		e.log.Error("purchase rolled back but refund failed",
			append(fields, zap.String("refund", amount.Dec()), zap.Error(err))...)
		return
	}
	e.log.Info("purchase rolled back, payment refunded",
		append(fields, zap.String("refund", amount.Dec()))...)
}

func (e *Engine) collectionChanged(ctx context.Context, id Address) {
	for _, hook := range e.hooks {
		hook(ctx, id)
	}
}

// finish 统一记录日志与监控
func (e *Engine) finish(op string, start time.Time, err error, fields ...zap.Field) error {
	monitor.ObserveDuration(op, time.Since(start).Seconds())
	if err != nil {
		code, _ := errno.Decode(err)
		monitor.ObserveRejected(op, code)
		e.log.Warn(op+" rejected", append(fields, zap.Int("code", code), zap.Error(err))...)
		return err
	}
	e.log.Info(op+" accepted", fields...)
	return nil
}

// transferError 把协作方错误归类为 TransferFailed (已经是 InsufficientAllowance/TransferFailed 的保持不变)
func transferError(err error) error {
	if errors.Is(err, errno.ErrInsufficientAllowance) || errors.Is(err, errno.ErrTransferFailed) {
		return err
	}
	return fmt.Errorf("%w: %w", errno.ErrTransferFailed, err)
}

func appendEvent(tx Tx, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}
	if err := tx.AppendEvent(topic, key, data); err != nil {
		return fmt.Errorf("append %s event: %w", topic, err)
	}
	return nil
}

func hexList(addrs []Address) []string {
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = a.Hex()
	}
	return out
}

func decString(x *uint256.Int) string {
	if x == nil {
		return "<nil>"
	}
	return x.Dec()
}

func toFloat(x *uint256.Int) float64 {
	f, _ := new(big.Float).SetInt(x.ToBig()).Float64()
	return f
}
