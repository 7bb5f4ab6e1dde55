package cmd

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"otc-core/internal/otc"
	"otc-core/pkg/crypto_util"
)

// deriveIDCmd 由标签派生集合 ID: keccak256(label) 的末 20 字节
var deriveIDCmd = &cobra.Command{
	Use:   "derive-id <label>",
	Short: "由标签派生集合 ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := common.Address(crypto_util.DeriveAddressBytes(args[0]))
		fmt.Fprintln(cmd.OutOrStdout(), id.Hex())
		return nil
	},
}

// scalePriceCmd 十进制价格转换为 x1e9 定点数
var scalePriceCmd = &cobra.Command{
	Use:   "scale-price <price>",
	Short: "把十进制价格转换为定点单价 (x1e9)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := decimal.NewFromString(args[0])
		if err != nil {
			return fmt.Errorf("价格格式错误: %w", err)
		}
		scaled, err := otc.ScalePrice(d)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), scaled.Dec())
		return nil
	},
}

var (
	quoteAmount string
	quotePrice  string
)

// quoteCmd 离线报价，与引擎的 Quote 使用同一公式
var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "离线计算购买成本: floor(amount * unit_price / 1e9)",
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := otc.ParseAmount(quoteAmount)
		if err != nil {
			return err
		}
		price, err := otc.ParseAmount(quotePrice)
		if err != nil {
			return err
		}
		cost, err := otc.QuoteCost(amount, price)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), cost.Dec())
		return nil
	},
}

func init() {
	quoteCmd.Flags().StringVar(&quoteAmount, "amount", "", "购买数量")
	quoteCmd.Flags().StringVar(&quotePrice, "unit-price", "", "定点单价 (x1e9)")
	_ = quoteCmd.MarkFlagRequired("amount")
	_ = quoteCmd.MarkFlagRequired("unit-price")

	rootCmd.AddCommand(deriveIDCmd, scalePriceCmd, quoteCmd)
}
