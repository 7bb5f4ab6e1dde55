package model

import (
	"gorm.io/gorm"
)

// CreateOutboxMessage 在同一个事务中创建业务数据和 Outbox 消息
func CreateOutboxMessage(tx *gorm.DB, topic, key string, payload []byte) error {
	msg := OutboxMessage{
		Topic:   topic,
		Key:     key,
		Payload: payload,
		Status:  OutboxPending,
	}
	return tx.Create(&msg).Error
}
