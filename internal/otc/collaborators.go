package otc

import (
	"context"

	"github.com/holiman/uint256"
)

// AssetTransfer 资产划转能力 (原生币或同质化代币)
// asset == NativeAsset 时表示原生币。实现方必须保证单次调用要么完整生效要么完全不生效。
type AssetTransfer interface {
	// TransferFrom 由引擎发起，从 from 拉取 amount 到 to (需要 from 事先授权；原生币为随调用附带的金额)
	TransferFrom(ctx context.Context, asset, from, to Address, amount *uint256.Int) error
	// Transfer 从引擎自有余额转出 amount 到 to
	Transfer(ctx context.Context, asset, to Address, amount *uint256.Int) error
}

// RewardMintAndStake 铸造奖励并代为质押
// 实现方负责 "mint 到引擎 -> 授权质押合约 -> stake 给 beneficiary" 的完整序列，任一步失败整体失败。
type RewardMintAndStake interface {
	MintAndStake(ctx context.Context, beneficiary Address, amount *uint256.Int) error
}
