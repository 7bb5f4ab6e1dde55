package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"otc-core/internal/handler"
	"otc-core/pkg/errno"
)

var (
	serverURL string
	callerHex string
)

// apiCall 调用 otc-server 的 HTTP 接口，业务错误码非 0 时转换为 error
func apiCall(ctx context.Context, method, path string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(serverURL, "/")+path, nil)
	if err != nil {
		return nil, err
	}
	if callerHex != "" {
		if !common.IsHexAddress(callerHex) {
			return nil, fmt.Errorf("--caller 不是合法地址: %s", callerHex)
		}
		req.Header.Set(handler.CallerHeader, callerHex)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var out struct {
		Code    int             `json:"code"`
		Message string          `json:"msg"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("解析响应失败 (HTTP %d): %w", resp.StatusCode, err)
	}
	if out.Code != errno.OK.Code {
		return nil, errno.Errno{Code: out.Code, Message: out.Message}
	}
	return out.Data, nil
}

func apiCommand(use, short, method, path string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := apiCall(cmd.Context(), method, path)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "otc-server 地址")
	rootCmd.PersistentFlags().StringVar(&callerHex, "caller", "", "调用方地址 (写入 X-Caller-Address)")

	rootCmd.AddCommand(
		apiCommand("status", "查询引擎状态", http.MethodGet, "/api/v1/status"),
		apiCommand("pause", "暂停引擎 (需要 owner)", http.MethodPost, "/api/v1/admin/pause"),
		apiCommand("unpause", "恢复引擎 (需要 owner)", http.MethodPost, "/api/v1/admin/unpause"),
	)
}
