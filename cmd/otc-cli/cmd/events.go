package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"otc-core/internal/event"
	"otc-core/internal/service/mq"
	"otc-core/pkg/config"
	"otc-core/pkg/database"
)

var (
	eventTopics   []string
	eventConsumer string
)

// eventsCmd 订阅引擎投递到消息队列的事件并逐条打印
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "订阅引擎事件 (Redis Streams 或 Kafka，取决于 redis.mq_type)",
	RunE: func(cmd *cobra.Command, args []string) error {
		config.Init()
		cfg := config.Global

		var consumer mq.Consumer
		if cfg.Redis.MQType == "kafka" {
			consumer = mq.NewKafkaConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID)
		} else {
			rdb, err := database.ConnectRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
			if err != nil {
				return err
			}
			defer rdb.Close()
			consumer = mq.NewRedisConsumer(rdb, cfg.Kafka.GroupID, eventConsumer)
		}
		defer consumer.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		g, ctx := errgroup.WithContext(ctx)
		for _, topic := range eventTopics {
			topic := topic
			g.Go(func() error {
				return consumer.Subscribe(ctx, topic, func(msg *mq.Message) error {
					_, err := fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", msg.Topic, msg.ID, msg.Key, msg.Payload)
					return err
				})
			})
		}
		err := g.Wait()
		if ctx.Err() != nil {
			return nil
		}
		return err
	},
}

func init() {
	eventsCmd.Flags().StringSliceVar(&eventTopics, "topic", []string{
		event.TopicCollection,
		event.TopicWhitelist,
		event.TopicPurchase,
		event.TopicWithdraw,
		event.TopicAdmin,
	}, "订阅的主题")
	eventsCmd.Flags().StringVar(&eventConsumer, "name", "otc-cli-0", "Redis 消费者名称")
	rootCmd.AddCommand(eventsCmd)
}
