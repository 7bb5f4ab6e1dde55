package main

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"otc-core/internal/handler"
	"otc-core/internal/otc"
	"otc-core/internal/server"
	"otc-core/internal/service"
	"otc-core/pkg/config"
	"otc-core/pkg/logger"
	"otc-core/pkg/validator"

	_ "otc-core/docs/swagger"
)

// @title OTC Sale Engine API
// @version 1.0
// @description Whitelisted fixed-price OTC sales with automatic reward staking
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api/v1
func main() {
	// 0. 初始化 Config
	config.Init()

	// 初始化 Validator
	validator.Init()

	// 1. 初始化 Logger
	logger.Init(config.Global.App.Env)
	defer logger.Sync()

	cfg := config.Global.OTC
	owner := mustAddress("otc.owner", cfg.Owner)
	custodyAddr := mustAddress("otc.custody", cfg.Custody)

	// 2. 基础设施: 数据库、Redis、消息队列
	infra, err := newInfra(config.Global)
	if err != nil {
		logger.Fatal("初始化基础设施失败", zap.Error(err))
	}
	defer infra.Close()

	// 3. 托管账本与奖励流水线
	transfers, rewards := newCollaborators(infra, custodyAddr, cfg)

	// 4. 引擎
	var query *service.QueryService
	opts := []otc.Option{
		otc.WithLogger(logger.Named("engine")),
		otc.WithCollectionHook(func(ctx context.Context, id otc.Address) { query.Invalidate(ctx, id) }),
	}
	if cfg.LockEnabled {
		if infra.locker == nil {
			logger.Fatal("otc.lock_enabled 需要启用 Redis")
		}
		opts = append(opts, otc.WithDistributedLock(infra.locker))
	}
	engine, err := otc.NewEngine(otc.Config{
		Owner:     owner,
		Custody:   custodyAddr,
		OpTimeout: cfg.OpTimeout,
		LockKey:   cfg.LockKey,
		LockTTL:   cfg.LockTTL,
	}, infra.store, transfers, rewards, opts...)
	if err != nil {
		logger.Fatal("初始化引擎失败", zap.Error(err))
	}
	query = service.NewQueryService(engine, infra.cache, cfg.CacheTTL)

	// 5. 后台任务: outbox 中继与容量指标
	var workers []server.Worker
	if infra.producer != nil {
		workers = append(workers, service.NewRelayService(infra.outbox, infra.producer, cfg.RelayInterval, cfg.RelayBatchSize))
	} else {
		logger.Warn("未配置消息队列，事件只保留在 outbox 中")
	}
	workers = append(workers, service.NewCronService(cfg.CapacityCron, engine, infra.locker))

	// 6. HTTP Router
	r := server.NewHTTPRouter(server.Handlers{
		Admin:      handler.NewAdminHandler(engine),
		Collection: handler.NewCollectionHandler(engine, query),
	})

	logger.Info("OTC 引擎就绪",
		zap.String("owner", owner.Hex()),
		zap.String("custody", custodyAddr.Hex()),
		zap.String("store", config.Global.DB.Driver),
		zap.Bool("distributed_lock", cfg.LockEnabled))

	// 7. 运行 (阻塞)
	server.New(server.Config{HttpPort: config.Global.App.HttpPort}, r, workers...).Run()
	logger.Info("系统已退出")
}

func mustAddress(key, raw string) otc.Address {
	if !common.IsHexAddress(raw) {
		logger.Fatal("配置项不是合法地址", zap.String("key", key), zap.String("value", raw))
	}
	return common.HexToAddress(raw)
}
