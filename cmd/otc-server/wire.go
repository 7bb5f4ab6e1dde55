package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"otc-core/internal/custody"
	"otc-core/internal/model"
	"otc-core/internal/otc"
	"otc-core/internal/reward"
	"otc-core/internal/service"
	"otc-core/internal/service/mq"
	"otc-core/internal/store/boltstore"
	"otc-core/internal/store/gormstore"
	"otc-core/pkg/cache"
	"otc-core/pkg/config"
	"otc-core/pkg/database"
	"otc-core/pkg/logger"
	"otc-core/pkg/utils/lock"
)

const streamMaxLen = 100000

// infra 进程级依赖，Close 按创建的逆序释放
type infra struct {
	db       *gorm.DB
	rdb      *redis.Client
	store    otc.Store
	outbox   service.Outbox
	cache    cache.Cache
	locker   lock.DistributedLock
	producer mq.Producer
	closers  []func()
}

func newInfra(cfg config.Config) (*infra, error) {
	in := &infra{}

	// 托管账本始终在 PostgreSQL 中；引擎状态可以单独放在本地 bbolt 文件
	db, err := database.ConnectPostgres(cfg.DB.DSN(), cfg.App.Env != "production")
	if err != nil {
		return nil, err
	}
	in.db = db
	in.closers = append(in.closers, func() { database.ClosePostgres(db) })
	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		in.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	switch cfg.DB.Driver {
	case "postgres":
		s, err := gormstore.New(db)
		if err != nil {
			in.Close()
			return nil, err
		}
		in.store, in.outbox = s, s
	case "bolt", "":
		if err := os.MkdirAll(filepath.Dir(cfg.DB.BoltPath), 0o755); err != nil {
			in.Close()
			return nil, err
		}
		s, err := boltstore.Open(cfg.DB.BoltPath)
		if err != nil {
			in.Close()
			return nil, err
		}
		in.store, in.outbox = s, s
		in.closers = append(in.closers, func() { _ = s.Close() })
	default:
		in.Close()
		return nil, fmt.Errorf("unknown db.driver %q", cfg.DB.Driver)
	}

	// 单实例用内存缓存；启用 Redis 时只用共享缓存，失效对所有副本立即可见
	in.cache = cache.NewMemoryCache(cfg.OTC.CacheTTL, 5*time.Minute)

	if cfg.Redis.Enabled {
		rdb, err := database.ConnectRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			in.Close()
			return nil, err
		}
		in.rdb = rdb
		in.closers = append(in.closers, func() { _ = rdb.Close() })
		in.cache = cache.NewRedisCache(rdb)
		in.locker = lock.NewRedisLock(rdb)
	}

	switch cfg.Redis.MQType {
	case "kafka":
		logger.Info("使用 Kafka 作为消息队列...")
		p := mq.NewKafkaProducer(cfg.Kafka.Brokers)
		in.producer = p
		in.closers = append(in.closers, func() { _ = p.Close() })
	default:
		if in.rdb != nil {
			logger.Info("使用 Redis Streams 作为消息队列...")
			in.producer = mq.NewRedisProducer(in.rdb, streamMaxLen)
		}
	}
	return in, nil
}

func (in *infra) Close() {
	for i := len(in.closers) - 1; i >= 0; i-- {
		in.closers[i]()
	}
	in.closers = nil
}

// newCollaborators 以托管账本实现资产划转与奖励发放
func newCollaborators(in *infra, custodyAddr otc.Address, cfg config.OTCConfig) (otc.AssetTransfer, otc.RewardMintAndStake) {
	ledger := custody.NewLedger(in.db, logger.Named("custody"))
	rewardAsset := mustAddress("otc.reward_token", cfg.RewardToken)
	token := custody.NewRewardToken(ledger, rewardAsset)
	pool := custody.NewStakingPool(ledger,
		mustAddress("otc.staking_pool", cfg.StakingPool),
		rewardAsset,
		mustAddress("otc.staked_token", cfg.StakedToken))

	return custody.NewEngineAccount(ledger, custodyAddr),
		reward.NewPipeline(token, token, pool, custodyAddr, logger.Named("reward"))
}
