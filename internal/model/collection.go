package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Collection 销售批次 (集合) 表
// 数值列使用 numeric(78,0)，足以容纳任意 256 位无符号整数
type Collection struct {
	ID              string          `gorm:"type:varchar(42);primaryKey" json:"id"`
	PaymentAsset    string          `gorm:"type:varchar(42);not null" json:"payment_asset"`
	UnitPrice       decimal.Decimal `gorm:"type:numeric(78,0);not null" json:"unit_price"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric(78,0);not null" json:"total_amount"`
	PurchasedAmount decimal.Decimal `gorm:"type:numeric(78,0);not null;default:0" json:"purchased_amount"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// WhitelistEntry 白名单表，存在即表示允许购买
type WhitelistEntry struct {
	CollectionID string    `gorm:"type:varchar(42);primaryKey" json:"collection_id"`
	Buyer        string    `gorm:"type:varchar(42);primaryKey" json:"buyer"`
	CreatedAt    time.Time `json:"created_at"`
}

// PurchaseRecord 每个 (集合, 买家) 的累计购买量
type PurchaseRecord struct {
	CollectionID string          `gorm:"type:varchar(42);primaryKey" json:"collection_id"`
	Buyer        string          `gorm:"type:varchar(42);primaryKey" json:"buyer"`
	Amount       decimal.Decimal `gorm:"type:numeric(78,0);not null" json:"amount"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// EngineState 引擎全局状态，单行表 (ID 固定为 1)
type EngineState struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Paused    bool      `gorm:"not null;default:false" json:"paused"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Collection) TableName() string {
	return "otc_collections"
}

func (WhitelistEntry) TableName() string {
	return "otc_whitelist"
}

func (PurchaseRecord) TableName() string {
	return "otc_purchases"
}

func (EngineState) TableName() string {
	return "otc_engine_state"
}
