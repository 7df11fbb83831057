// Package main はCLIツールのエントリポイント。
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

var (
	apiURL  string
	output  string
	timeout time.Duration
)

// HTTPクライアント
var httpClient *http.Client

func main() {
	rootCmd := &cobra.Command{
		Use:   "imsctl",
		Short: "Inventory Management Service CLI",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if apiURL == "" {
				apiURL = os.Getenv("IMSCTL_API_URL")
			}
			httpClient = &http.Client{Timeout: timeout}
		},
	}

	// グローバルフラグ
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "API endpoint URL (or set IMSCTL_API_URL)")
	rootCmd.PersistentFlags().StringVar(&output, "output", "text", "Output format: text, json")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")

	// サブコマンド登録
	rootCmd.AddCommand(sparesDefinitionCmd())
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// versionCmd はバージョン情報を表示する。
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("imsctl version %s\n", version)
		},
	}
}

// sparesDefinitionCmd はスペア定義の管理コマンド。
func sparesDefinitionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spares-definition",
		Short: "Manage the spares definition",
	}
	cmd.AddCommand(sparesDefinitionGetCmd())
	cmd.AddCommand(sparesDefinitionSetCmd())
	return cmd
}

// sparesDefinitionGetCmd は現在のスペア定義を表示する。
func sparesDefinitionGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Show the current spares definition",
		RunE: func(cmd *cobra.Command, args []string) error {
			if apiURL == "" {
				return fmt.Errorf("--api-url is required (or set IMSCTL_API_URL)")
			}

			url := fmt.Sprintf("%s/v1/settings/spares-definition", apiURL)
			resp, err := httpClient.Get(url)
			if err != nil {
				return fmt.Errorf("API request failed: %w", err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("reading response: %w", err)
			}

			if resp.StatusCode == http.StatusNotFound {
				fmt.Println("No spares definition is set.")
				return nil
			}
			if resp.StatusCode != http.StatusOK {
				return handleErrorResponse(resp.StatusCode, body)
			}

			if output == "json" {
				fmt.Println(string(body))
			} else {
				var result struct {
					SystemTypeIDs []string `json:"system_type_ids"`
				}
				if err := json.Unmarshal(body, &result); err != nil {
					return fmt.Errorf("parsing response: %w", err)
				}
				fmt.Printf("Spares definition system types: %s\n", strings.Join(result.SystemTypeIDs, ", "))
			}
			return nil
		},
	}
}

// sparesDefinitionSetCmd はスペア定義を置き換える。
// サーバー側で全カタログアイテムのスペア数が再計算される。
func sparesDefinitionSetCmd() *cobra.Command {
	var systemTypeIDs []string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Replace the spares definition and recalculate all spares counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(systemTypeIDs) == 0 {
				return fmt.Errorf("--system-type-ids is required")
			}
			if apiURL == "" {
				return fmt.Errorf("--api-url is required (or set IMSCTL_API_URL)")
			}

			payload, err := json.Marshal(map[string][]string{"system_type_ids": systemTypeIDs})
			if err != nil {
				return fmt.Errorf("building request: %w", err)
			}

			url := fmt.Sprintf("%s/v1/settings/spares-definition", apiURL)
			req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(payload))
			if err != nil {
				return fmt.Errorf("creating request: %w", err)
			}
			req.Header.Set("Content-Type", "application/json")

			resp, err := httpClient.Do(req)
			if err != nil {
				return fmt.Errorf("API request failed: %w", err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("reading response: %w", err)
			}

			if resp.StatusCode != http.StatusOK {
				return handleErrorResponse(resp.StatusCode, body)
			}

			if output == "json" {
				fmt.Println(string(body))
			} else {
				fmt.Printf("Spares definition updated (%d system types). All spares counts recalculated.\n", len(systemTypeIDs))
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&systemTypeIDs, "system-type-ids", nil, "System type IDs that count as spares (required)")
	cmd.MarkFlagRequired("system-type-ids")
	return cmd
}

func handleErrorResponse(statusCode int, body []byte) error {
	var errResp struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&errResp); err == nil && errResp.Message != "" {
		return fmt.Errorf("Error: %s", errResp.Message)
	}
	return fmt.Errorf("Error: server returned status %d", statusCode)
}
