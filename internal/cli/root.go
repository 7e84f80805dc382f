// Package cli provides the ftadmin command line interface.
package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Araiseimitsu/finetuning-for-chatgpt/internal/config"
	"github.com/Araiseimitsu/finetuning-for-chatgpt/internal/service/ai"
)

var rootCmd = &cobra.Command{
	Use:   "ftadmin",
	Short: "OpenAI ファインチューニング管理ツール",
	Long: `ftadmin はファインチューニング用の学習データのアップロード、
ジョブの作成と監視、学習済みモデルでのチャットを行うツールです。

Examples:
  ftadmin upload training.jsonl
  ftadmin files list
  ftadmin jobs create file-abc123 --suffix my-model
  ftadmin jobs wait ftjob-xyz789
  ftadmin chat ft:gpt-4o-mini-2024-07-18:acme:my-model:abc`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newAIService builds the vendor client from config plus environment. The key
// must be present: every subcommand talks to the vendor API.
func newAIService() (*ai.Service, error) {
	cfg := &config.Config{}
	if path := os.Getenv("FINETUNE_CONFIG"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	} else {
		cfg.ApplyDefaults()
		cfg.OpenAI.APIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	}

	svc := ai.NewService(cfg.OpenAI)
	if !svc.Configured() {
		return nil, fmt.Errorf("OPENAI_API_KEY 環境変数が設定されていません")
	}
	return svc, nil
}

func printHeader(title string) {
	rule := strings.Repeat("=", 80)
	fmt.Println(rule)
	fmt.Println(title)
	fmt.Println(rule)
}

// statusColor colors terminal job states the way the dashboard does.
func statusColor(status string) string {
	switch status {
	case "succeeded":
		return color.GreenString(status)
	case "failed":
		return color.RedString(status)
	case "cancelled":
		return color.YellowString(status)
	default:
		return color.CyanString(status)
	}
}

func formatUnix(ts int64) string {
	if ts == 0 {
		return "-"
	}
	return time.Unix(ts, 0).Format("2006-01-02 15:04:05")
}
