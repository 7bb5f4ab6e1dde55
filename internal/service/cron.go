package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"otc-core/internal/otc"
	"otc-core/pkg/logger"
	"otc-core/pkg/monitor"
	"otc-core/pkg/utils/lock"
)

const capacityLockKey = "cron:lock:capacity"

type CronService struct {
	cron   *cron.Cron
	spec   string
	reader CollectionReader
	locker lock.DistributedLock // 为 nil 时单机运行，不加锁
}

func NewCronService(spec string, reader CollectionReader, locker lock.DistributedLock) *CronService {
	if spec == "" {
		spec = "@every 1m"
	}
	return &CronService{
		cron:   cron.New(),
		spec:   spec,
		reader: reader,
		locker: locker,
	}
}

func (s *CronService) Start() error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.RefreshCapacity(context.Background()) }); err != nil {
		return err
	}
	s.cron.Start()
	logger.Info("Cron Service started", zap.String("capacity_spec", s.spec))
	return nil
}

func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	logger.Info("Cron Service stopped")
}

// Run 启动定时任务并阻塞到 ctx 取消
func (s *CronService) Run(ctx context.Context) {
	if err := s.Start(); err != nil {
		logger.Error("Cron Service failed to start", zap.String("spec", s.spec), zap.Error(err))
		return
	}
	<-ctx.Done()
	s.Stop()
}

// RefreshCapacity 刷新每个集合的剩余容量指标，返回处理的集合数
func (s *CronService) RefreshCapacity(ctx context.Context) int {
	if s.locker != nil {
		// 防止多实例同时执行；拿不到锁说明其他节点在运行，跳过
		locked, err := s.locker.Acquire(ctx, capacityLockKey, 30*time.Second)
		if err != nil || !locked {
			logger.Debug("RefreshCapacity: 获取锁失败或已有实例在运行", zap.Error(err))
			return 0
		}
		defer func() { _ = s.locker.Release(ctx, capacityLockKey) }()
	}

	collections, err := s.reader.Collections(ctx)
	if err != nil {
		logger.Error("RefreshCapacity: 查询集合失败", zap.Error(err))
		return 0
	}
	for _, c := range collections {
		monitor.SetRemainingCapacity(c.ID.Hex(), remainingFloat(c))
	}
	return len(collections)
}

func remainingFloat(c otc.Collection) float64 {
	f, _ := otc.ToDecimal(c.Remaining()).Float64()
	return f
}
