package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App   AppConfig   `mapstructure:"app"`
	DB    DBConfig    `mapstructure:"db"`
	Redis RedisConfig `mapstructure:"redis"`
	Kafka KafkaConfig `mapstructure:"kafka"`
	OTC   OTCConfig   `mapstructure:"otc"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	HttpPort string `mapstructure:"http_port"`
}

type DBConfig struct {
	Driver   string `mapstructure:"driver"`    // "bolt" or "postgres"
	BoltPath string `mapstructure:"bolt_path"` // driver=bolt 时的数据文件
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

// DSN 生成 PostgreSQL 连接串
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.Host, c.User, c.Password, c.Name, c.Port)
}

// URL 生成 golang-migrate 使用的连接 URL
func (c DBConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.Name)
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	MQType   string `mapstructure:"mq_type"` // "redis" or "kafka"
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	GroupID string   `mapstructure:"group_id"`
}

type OTCConfig struct {
	Owner          string        `mapstructure:"owner"`           // 管理员地址
	Custody        string        `mapstructure:"custody"`         // 引擎自有账户地址
	RewardToken    string        `mapstructure:"reward_token"`    // 奖励资产
	StakedToken    string        `mapstructure:"staked_token"`    // 质押凭证资产
	StakingPool    string        `mapstructure:"staking_pool"`    // 质押合约账户
	OpTimeout      time.Duration `mapstructure:"op_timeout"`      // 单个变更操作超时
	LockEnabled    bool          `mapstructure:"lock_enabled"`    // 多实例部署时启用 Redis 分布式锁
	LockKey        string        `mapstructure:"lock_key"`
	LockTTL        time.Duration `mapstructure:"lock_ttl"`
	RelayInterval  time.Duration `mapstructure:"relay_interval"`  // Outbox 轮询间隔
	RelayBatchSize int           `mapstructure:"relay_batch_size"`
	CapacityCron   string        `mapstructure:"capacity_cron"`   // 剩余容量指标刷新
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`       // 集合查询缓存
}

var Global Config

func Init() {
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yaml")   // REQUIRED if the config file does not have the extension in the name
	viper.AddConfigPath(".")      // optionally look for config in the working directory
	viper.AddConfigPath("./config")

	// 环境变量设置: OTC_OWNER -> otc.owner
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 设置默认值
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("Warning: Config file not found, using defaults and environment variables")
		} else {
			log.Fatalf("Fatal error config file: %s \n", err)
		}
	}

	if err := viper.Unmarshal(&Global); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}

	log.Printf("Configuration loaded successfully. Env: %s", Global.App.Env)
}

func setDefaults() {
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.http_port", "8080")

	viper.SetDefault("db.driver", "bolt")
	viper.SetDefault("db.bolt_path", "data/otc.db")
	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.user", "otc_user")
	viper.SetDefault("db.password", "otc_password")
	viper.SetDefault("db.name", "otc_db")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.mq_type", "redis")

	viper.SetDefault("kafka.brokers", []string{"localhost:9092"})
	viper.SetDefault("kafka.group_id", "otc-cli")

	viper.SetDefault("otc.op_timeout", 30*time.Second)
	viper.SetDefault("otc.lock_key", "otc:engine")
	viper.SetDefault("otc.lock_ttl", 35*time.Second)
	viper.SetDefault("otc.relay_interval", 5*time.Second)
	viper.SetDefault("otc.relay_batch_size", 100)
	viper.SetDefault("otc.capacity_cron", "@every 1m")
	viper.SetDefault("otc.cache_ttl", 30*time.Second)
}
