package testutils

import (
	"fmt"
	"log"

	"github.com/ory/dockertest/v3"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"otc-core/internal/model"
)

const (
	pgUser     = "postgres"
	pgPassword = "secret"
	pgDatabase = "otc_test_db"
)

// SetupPostgres 用 dockertest 启动一个临时 PostgreSQL 并完成表迁移
// docker 不可用时返回 error，调用方应跳过依赖数据库的测试。
func SetupPostgres() (*gorm.DB, func(), error) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, nil, fmt.Errorf("could not construct docker pool: %w", err)
	}
	if err := pool.Client.Ping(); err != nil {
		return nil, nil, fmt.Errorf("could not connect to docker: %w", err)
	}

	resource, err := pool.Run("postgres", "16-alpine", []string{
		"POSTGRES_USER=" + pgUser,
		"POSTGRES_PASSWORD=" + pgPassword,
		"POSTGRES_DB=" + pgDatabase,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("could not start resource: %w", err)
	}
	_ = resource.Expire(300)

	poolCleaner := func() {
		// When you're done, kill and remove the container
		if err := pool.Purge(resource); err != nil {
			log.Printf("failed to purge docker pool: %s", err)
		}
	}

	dsn := fmt.Sprintf("host=localhost port=%s user=%s password=%s dbname=%s sslmode=disable",
		resource.GetPort("5432/tcp"), pgUser, pgPassword, pgDatabase)

	var db *gorm.DB
	err = pool.Retry(func() error {
		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
		if err != nil {
			return err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Ping()
	})
	if err != nil {
		poolCleaner()
		return nil, nil, fmt.Errorf("could not connect to postgres: %w", err)
	}

	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		poolCleaner()
		return nil, nil, fmt.Errorf("auto migrate: %w", err)
	}

	cleaner := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		poolCleaner()
	}
	return db, cleaner, nil
}

// TruncateAll 清空所有业务表，保证用例之间互不影响
func TruncateAll(db *gorm.DB) error {
	for _, m := range model.AllModels() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(m); err != nil {
			return err
		}
		if err := db.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", stmt.Schema.Table)).Error; err != nil {
			return err
		}
	}
	return nil
}
