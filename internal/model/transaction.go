package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustodyBalance 托管账本余额表
// 核心设计: 引入 Version 字段实现乐观锁
type CustodyBalance struct {
	ID        uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Asset     string          `gorm:"type:varchar(42);not null;uniqueIndex:idx_asset_holder" json:"asset"`
	Holder    string          `gorm:"type:varchar(42);not null;uniqueIndex:idx_asset_holder" json:"holder"`
	Balance   decimal.Decimal `gorm:"type:numeric(78,0);not null;default:0" json:"balance"`
	Version   uint64          `gorm:"not null;default:0" json:"version"` // 乐观锁版本号
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CustodyAllowance 授权额度表: Owner 允许 Spender 从自己账户划走的资产数量
type CustodyAllowance struct {
	ID        uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Asset     string          `gorm:"type:varchar(42);not null;uniqueIndex:idx_allowance" json:"asset"`
	Owner     string          `gorm:"type:varchar(42);not null;uniqueIndex:idx_allowance" json:"owner"`
	Spender   string          `gorm:"type:varchar(42);not null;uniqueIndex:idx_allowance" json:"spender"`
	Amount    decimal.Decimal `gorm:"type:numeric(78,0);not null;default:0" json:"amount"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CustodyTransfer 托管账本流水
type CustodyTransfer struct {
	ID        uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Asset     string          `gorm:"type:varchar(42);not null;index" json:"asset"`
	FromAddr  string          `gorm:"type:varchar(42);not null" json:"from"` // 铸造时为空地址
	ToAddr    string          `gorm:"type:varchar(42);not null" json:"to"`   // 销毁时为空地址
	Amount    decimal.Decimal `gorm:"type:numeric(78,0);not null" json:"amount"`
	Kind      string          `gorm:"type:varchar(20);not null" json:"kind"` // transfer, mint, burn, stake
	CreatedAt time.Time       `json:"created_at"`
}

func (CustodyBalance) TableName() string {
	return "custody_balances"
}

func (CustodyAllowance) TableName() string {
	return "custody_allowances"
}

func (CustodyTransfer) TableName() string {
	return "custody_transfers"
}
