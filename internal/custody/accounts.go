package custody

import (
	"context"

	"github.com/holiman/uint256"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"otc-core/internal/otc"
)

// EngineAccount 以引擎自有账户的身份使用账本，实现 otc.AssetTransfer
type EngineAccount struct {
	ledger *Ledger
	self   otc.Address
}

var _ otc.AssetTransfer = (*EngineAccount)(nil)

func NewEngineAccount(ledger *Ledger, self otc.Address) *EngineAccount {
	return &EngineAccount{ledger: ledger, self: self}
}

// TransferFrom 引擎作为 spender 从 from 拉取资产
func (a *EngineAccount) TransferFrom(ctx context.Context, asset, from, to otc.Address, amount *uint256.Int) error {
	return a.ledger.TransferFrom(ctx, asset, from, a.self, to, amount)
}

// Transfer 从引擎账户转出
func (a *EngineAccount) Transfer(ctx context.Context, asset, to otc.Address, amount *uint256.Int) error {
	err := a.ledger.Transfer(ctx, asset, a.self, to, amount)
	if err != nil {
		a.ledger.log.Warn("custody transfer failed",
			zap.String("asset", asset.Hex()), zap.String("to", to.Hex()), zap.String("amount", amount.Dec()), zap.Error(err))
	}
	return err
}

// RewardToken 奖励资产: 铸造权归 treasury，引擎是被信任的 minter
type RewardToken struct {
	ledger *Ledger
	asset  otc.Address
}

func NewRewardToken(ledger *Ledger, asset otc.Address) *RewardToken {
	return &RewardToken{ledger: ledger, asset: asset}
}

func (r *RewardToken) Asset() otc.Address { return r.asset }

func (r *RewardToken) Mint(ctx context.Context, to otc.Address, amount *uint256.Int) error {
	return r.ledger.Credit(ctx, r.asset, to, amount)
}

func (r *RewardToken) Burn(ctx context.Context, from otc.Address, amount *uint256.Int) error {
	return r.ledger.Burn(ctx, r.asset, from, amount)
}

func (r *RewardToken) Approve(ctx context.Context, owner, spender otc.Address, amount *uint256.Int) error {
	return r.ledger.Approve(ctx, r.asset, owner, spender, amount)
}

// StakingPool 质押池: 拉走 staker 授权的奖励资产，给 beneficiary 记入等量的质押凭证
type StakingPool struct {
	ledger *Ledger
	pool   otc.Address
	reward otc.Address
	staked otc.Address
}

func NewStakingPool(ledger *Ledger, pool, reward, staked otc.Address) *StakingPool {
	return &StakingPool{ledger: ledger, pool: pool, reward: reward, staked: staked}
}

// Address 质押池账户，即奖励资产授权的 spender
func (p *StakingPool) Address() otc.Address { return p.pool }

// Stake 单事务完成: 扣减授权 -> 奖励资产 staker->pool -> 凭证记给 beneficiary
func (p *StakingPool) Stake(ctx context.Context, staker, beneficiary otc.Address, amount *uint256.Int) error {
	return p.ledger.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := spendAllowance(tx, p.reward, staker, p.pool, amount); err != nil {
			return err
		}
		if err := move(tx, p.reward, staker, p.pool, amount, KindStake); err != nil {
			return err
		}
		return mint(tx, p.staked, beneficiary, amount)
	})
}

// StakedOf 查询 beneficiary 的质押凭证余额
func (p *StakingPool) StakedOf(ctx context.Context, beneficiary otc.Address) (*uint256.Int, error) {
	return p.ledger.BalanceOf(ctx, p.staked, beneficiary)
}
