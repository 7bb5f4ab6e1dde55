package reward

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"otc-core/internal/otc"
)

// Treasury 奖励资产的铸造权限
type Treasury interface {
	Mint(ctx context.Context, to otc.Address, amount *uint256.Int) error
	Burn(ctx context.Context, from otc.Address, amount *uint256.Int) error
}

// Approver 奖励资产的授权
type Approver interface {
	Approve(ctx context.Context, owner, spender otc.Address, amount *uint256.Int) error
}

// Staking 质押合约
type Staking interface {
	Address() otc.Address
	Stake(ctx context.Context, staker, beneficiary otc.Address, amount *uint256.Int) error
}

// Pipeline 实现 otc.RewardMintAndStake: mint 到引擎账户 -> 授权质押合约 -> 代 beneficiary 质押
// 授权或质押失败时销毁刚铸造的奖励，保证调用整体无副作用。
type Pipeline struct {
	treasury Treasury
	token    Approver
	staking  Staking
	custody  otc.Address
	log      *zap.Logger
}

var _ otc.RewardMintAndStake = (*Pipeline)(nil)

func NewPipeline(treasury Treasury, token Approver, staking Staking, custody otc.Address, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{treasury: treasury, token: token, staking: staking, custody: custody, log: log}
}

func (p *Pipeline) MintAndStake(ctx context.Context, beneficiary otc.Address, amount *uint256.Int) error {
	if err := p.treasury.Mint(ctx, p.custody, amount); err != nil {
		return fmt.Errorf("mint rewards: %w", err)
	}

	if err := p.token.Approve(ctx, p.custody, p.staking.Address(), amount); err != nil {
		p.burnMinted(ctx, amount, err)
		return fmt.Errorf("approve staking: %w", err)
	}

	if err := p.staking.Stake(ctx, p.custody, beneficiary, amount); err != nil {
		p.burnMinted(ctx, amount, err)
		return fmt.Errorf("stake for %s: %w", beneficiary.Hex(), err)
	}
	return nil
}

// burnMinted 补偿: 销毁本次铸造到引擎账户的奖励
func (p *Pipeline) burnMinted(ctx context.Context, amount *uint256.Int, cause error) {
	if err := p.treasury.Burn(context.WithoutCancel(ctx), p.custody, amount); err != nil {
		p.log.Error("burn minted rewards failed",
			zap.String("amount", amount.Dec()), zap.NamedError("cause", cause), zap.Error(err))
		return
	}
	p.log.Warn("minted rewards burned after failed stake",
		zap.String("amount", amount.Dec()), zap.Error(cause))
}
