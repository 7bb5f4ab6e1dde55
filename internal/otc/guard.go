package otc

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"otc-core/pkg/errno"
)

// guardKey 标记 "当前 context 正处于引擎的某个变更操作中"
type guardKey struct{}

const lockRetryInterval = 50 * time.Millisecond

// enter 串行化所有变更操作，并拒绝来自协作方回调的重入
// 返回的 context 与调用方的取消信号解耦，只受引擎自身的操作超时约束；协作方必须沿用它发起回调。
func (e *Engine) enter(ctx context.Context, op string) (context.Context, func(), error) {
	if owner, ok := ctx.Value(guardKey{}).(*Engine); ok && owner == e {
		return nil, nil, errno.ErrReentrantCall.WithMessage(fmt.Sprintf("%s: reentrant call rejected", op))
	}

	opCtx, cancel := context.WithTimeout(context.WithValue(context.WithoutCancel(ctx), guardKey{}, e), e.opTimeout)

	select {
	case e.sem <- struct{}{}:
	case <-opCtx.Done():
		cancel()
		return nil, nil, errno.ErrEngineBusy.WithMessage(fmt.Sprintf("%s: timed out waiting for engine", op))
	}

	if e.locker == nil {
		return opCtx, func() {
			<-e.sem
			cancel()
		}, nil
	}

	if err := e.acquireDistributed(opCtx, op); err != nil {
		<-e.sem
		cancel()
		return nil, nil, err
	}
	return opCtx, func() {
		// 释放锁不受操作超时影响
		releaseCtx, releaseCancel := context.WithTimeout(context.WithoutCancel(opCtx), time.Second)
		if err := e.locker.Release(releaseCtx, e.lockKey); err != nil {
			e.log.Warn("release distributed lock failed", zap.Error(err))
		}
		releaseCancel()
		<-e.sem
		cancel()
	}, nil
}

func (e *Engine) acquireDistributed(ctx context.Context, op string) error {
	ticker := time.NewTicker(lockRetryInterval)
	defer ticker.Stop()
	for {
		ok, err := e.locker.Acquire(ctx, e.lockKey, e.lockTTL)
		if err != nil {
			return fmt.Errorf("%s: acquire distributed lock: %w", op, err)
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return errno.ErrEngineBusy.WithMessage(fmt.Sprintf("%s: timed out waiting for distributed lock", op))
		case <-ticker.C:
		}
	}
}
