package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"otc-core/internal/service/mq"
	"otc-core/pkg/logger"
	"otc-core/pkg/monitor"
)

// RelayService 负责将本地消息表的消息搬运到 MQ
type RelayService struct {
	outbox    Outbox
	producer  mq.Producer
	interval  time.Duration
	batchSize int
}

func NewRelayService(outbox Outbox, producer mq.Producer, interval time.Duration, batchSize int) *RelayService {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	if batchSize <= 0 {
		batchSize = 50 // 每次取 50 条，避免内存爆炸
	}
	return &RelayService{
		outbox:    outbox,
		producer:  producer,
		interval:  interval,
		batchSize: batchSize,
	}
}

func (s *RelayService) Run(ctx context.Context) {
	logger.Info("[Relay] 启动消息中继服务", zap.Duration("interval", s.interval))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("[Relay] 停止服务")
			return
		case <-ticker.C:
			s.ProcessPending(ctx)
		}
	}
}

// ProcessPending 投递一批待发送消息，返回成功投递的条数
// 发送成功后才标记 SENT => At-least-once；标记失败的消息下次会重发，消费端需幂等。
// 同一批次内某条失败即停止，保证同一 key 的消息不乱序。
func (s *RelayService) ProcessPending(ctx context.Context) int {
	messages, err := s.outbox.Pending(ctx, s.batchSize)
	if err != nil {
		logger.Error("[Relay] 查询消息失败", zap.Error(err))
		return 0
	}
	if len(messages) == 0 {
		return 0
	}
	logger.Debug("[Relay] 发现待发送消息", zap.Int("count", len(messages)))

	sent := 0
	for _, msg := range messages {
		if err := s.producer.Publish(ctx, msg.Topic, msg.Key, msg.Payload); err != nil {
			logger.Warn("[Relay] 发送消息失败", zap.Uint64("id", msg.ID), zap.String("topic", msg.Topic), zap.Error(err))
			break
		}
		if err := s.outbox.MarkSent(ctx, msg.ID); err != nil {
			logger.Warn("[Relay] 更新状态失败", zap.Uint64("id", msg.ID), zap.Error(err))
			break
		}
		monitor.ObserveRelayPublished(msg.Topic)
		sent++
	}
	return sent
}
