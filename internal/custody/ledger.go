package custody

import (
	"context"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"otc-core/internal/model"
	"otc-core/internal/otc"
	"otc-core/pkg/errno"
)

// 流水类型
const (
	KindTransfer = "transfer"
	KindMint     = "mint"
	KindBurn     = "burn"
	KindStake    = "stake"
)

var errVersionConflict = errors.New("custody: balance version conflict")

// Ledger 数据库内的托管账本: 余额、授权与流水
// 每个公开方法在独立事务内完成，要么全部生效要么完全不生效。
type Ledger struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewLedger(db *gorm.DB, log *zap.Logger) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{db: db, log: log}
}

// BalanceOf 查询余额，没有记录时为 0
func (l *Ledger) BalanceOf(ctx context.Context, asset, holder otc.Address) (*uint256.Int, error) {
	var row model.CustodyBalance
	err := l.db.WithContext(ctx).Where("asset = ? AND holder = ?", asset.Hex(), holder.Hex()).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return new(uint256.Int), nil
	}
	if err != nil {
		return nil, err
	}
	return otc.FromDecimal(row.Balance)
}

// Allowance 查询 owner 授权给 spender 的额度
func (l *Ledger) Allowance(ctx context.Context, asset, owner, spender otc.Address) (*uint256.Int, error) {
	var row model.CustodyAllowance
	err := l.db.WithContext(ctx).
		Where("asset = ? AND owner = ? AND spender = ?", asset.Hex(), owner.Hex(), spender.Hex()).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return new(uint256.Int), nil
	}
	if err != nil {
		return nil, err
	}
	return otc.FromDecimal(row.Amount)
}

// Approve 设置授权额度 (覆盖原值)
func (l *Ledger) Approve(ctx context.Context, asset, owner, spender otc.Address, amount *uint256.Int) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return setAllowance(tx, asset, owner, spender, amount)
	})
}

// Credit 直接入账 (外部充值或铸造)
func (l *Ledger) Credit(ctx context.Context, asset, holder otc.Address, amount *uint256.Int) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return mint(tx, asset, holder, amount)
	})
}

// Burn 销毁 holder 的余额
func (l *Ledger) Burn(ctx context.Context, asset, holder otc.Address, amount *uint256.Int) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := debit(tx, asset, holder, amount); err != nil {
			return err
		}
		return record(tx, asset, holder, otc.NullAddress, amount, KindBurn)
	})
}

// Transfer 从 from 转给 to，不检查授权 (调用方即 from 本人)
func (l *Ledger) Transfer(ctx context.Context, asset, from, to otc.Address, amount *uint256.Int) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return move(tx, asset, from, to, amount, KindTransfer)
	})
}

// TransferFrom spender 动用 owner 的授权把资产转给 to
// 原生币没有授权概念: 随调用附带的金额本身就是授权。
func (l *Ledger) TransferFrom(ctx context.Context, asset, owner, spender, to otc.Address, amount *uint256.Int) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if asset != otc.NativeAsset {
			if err := spendAllowance(tx, asset, owner, spender, amount); err != nil {
				return err
			}
		}
		return move(tx, asset, owner, to, amount, KindTransfer)
	})
}

func move(tx *gorm.DB, asset, from, to otc.Address, amount *uint256.Int, kind string) error {
	if amount.IsZero() {
		return nil
	}
	if err := debit(tx, asset, from, amount); err != nil {
		return err
	}
	if err := credit(tx, asset, to, amount); err != nil {
		return err
	}
	return record(tx, asset, from, to, amount, kind)
}

func mint(tx *gorm.DB, asset, holder otc.Address, amount *uint256.Int) error {
	if err := credit(tx, asset, holder, amount); err != nil {
		return err
	}
	return record(tx, asset, otc.NullAddress, holder, amount, KindMint)
}

// lockBalance 悲观锁读取余额行，不存在时创建
func lockBalance(tx *gorm.DB, asset, holder otc.Address) (model.CustodyBalance, error) {
	row := model.CustodyBalance{Asset: asset.Hex(), Holder: holder.Hex()}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return row, err
	}
	var locked model.CustodyBalance
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("asset = ? AND holder = ?", asset.Hex(), holder.Hex()).
		Take(&locked).Error
	return locked, err
}

// saveBalance 乐观锁更新: version 不匹配说明有并发写入
func saveBalance(tx *gorm.DB, row model.CustodyBalance, balance *uint256.Int) error {
	res := tx.Model(&model.CustodyBalance{}).
		Where("id = ? AND version = ?", row.ID, row.Version).
		Updates(map[string]interface{}{
			"balance": otc.ToDecimal(balance),
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errVersionConflict
	}
	return nil
}

func debit(tx *gorm.DB, asset, holder otc.Address, amount *uint256.Int) error {
	row, err := lockBalance(tx, asset, holder)
	if err != nil {
		return err
	}
	current, err := otc.FromDecimal(row.Balance)
	if err != nil {
		return err
	}
	if current.Lt(amount) {
		return errno.ErrTransferFailed.WithMessage(fmt.Sprintf(
			"insufficient %s balance of %s: have %s, need %s", asset.Hex(), holder.Hex(), current.Dec(), amount.Dec()))
	}
	return saveBalance(tx, row, new(uint256.Int).Sub(current, amount))
}

func credit(tx *gorm.DB, asset, holder otc.Address, amount *uint256.Int) error {
	row, err := lockBalance(tx, asset, holder)
	if err != nil {
		return err
	}
	current, err := otc.FromDecimal(row.Balance)
	if err != nil {
		return err
	}
	next, overflow := new(uint256.Int).AddOverflow(current, amount)
	if overflow {
		return errno.ErrArithmeticOverflow.WithMessage(fmt.Sprintf("%s balance of %s overflows", asset.Hex(), holder.Hex()))
	}
	return saveBalance(tx, row, next)
}

func setAllowance(tx *gorm.DB, asset, owner, spender otc.Address, amount *uint256.Int) error {
	row := model.CustodyAllowance{
		Asset:   asset.Hex(),
		Owner:   owner.Hex(),
		Spender: spender.Hex(),
		Amount:  otc.ToDecimal(amount),
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "asset"}, {Name: "owner"}, {Name: "spender"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
	}).Create(&row).Error
}

func spendAllowance(tx *gorm.DB, asset, owner, spender otc.Address, amount *uint256.Int) error {
	var row model.CustodyAllowance
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("asset = ? AND owner = ? AND spender = ?", asset.Hex(), owner.Hex(), spender.Hex()).
		Take(&row).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	allowed := new(uint256.Int)
	if err == nil {
		if allowed, err = otc.FromDecimal(row.Amount); err != nil {
			return err
		}
	}
	if allowed.Lt(amount) {
		return errno.ErrInsufficientAllowance.WithMessage(fmt.Sprintf(
			"%s allowance %s -> %s is %s, need %s", asset.Hex(), owner.Hex(), spender.Hex(), allowed.Dec(), amount.Dec()))
	}
	return setAllowance(tx, asset, owner, spender, new(uint256.Int).Sub(allowed, amount))
}

func record(tx *gorm.DB, asset, from, to otc.Address, amount *uint256.Int, kind string) error {
	return tx.Create(&model.CustodyTransfer{
		Asset:    asset.Hex(),
		FromAddr: from.Hex(),
		ToAddr:   to.Hex(),
		Amount:   otc.ToDecimal(amount),
		Kind:     kind,
	}).Error
}
