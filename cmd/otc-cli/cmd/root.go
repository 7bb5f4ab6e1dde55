package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd 代表基础命令，没有子命令时直接调用
var rootCmd = &cobra.Command{
	Use:   "otc-cli",
	Short: "OTC 销售引擎命令行工具",
	Long: `OTC 销售引擎的离线辅助工具。
支持由标签派生集合 ID、价格定点化、离线报价以及订阅引擎事件。`,
	SilenceUsage: true,
}

// Execute 将所有子命令添加到根命令并设置标志
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
