package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "学習済みモデルの管理",
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "利用可能な学習済みモデルの一覧を表示",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runModelsList()
	},
}

var modelsDeleteCmd = &cobra.Command{
	Use:   "delete <model-id>",
	Short: "学習済みモデルを削除",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runModelsDelete(args[0])
	},
}

func init() {
	modelsCmd.AddCommand(modelsListCmd, modelsDeleteCmd)
	rootCmd.AddCommand(modelsCmd)
}

func runModelsList() error {
	svc, err := newAIService()
	if err != nil {
		return err
	}

	printHeader("学習済みモデル一覧")
	options, err := svc.SucceededModels(context.Background())
	if err != nil {
		return err
	}
	if len(options) == 0 {
		fmt.Println("学習済みモデルはありません")
		return nil
	}
	for i, m := range options {
		fmt.Printf("[%d] %s\n", i+1, m.ID)
	}
	return nil
}

func runModelsDelete(modelID string) error {
	printHeader("モデル削除")
	fmt.Printf("モデル: %s\n", modelID)
	color.Yellow("この操作は取り消せません。")
	fmt.Print("削除しますか? (yes/no): ")

	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return scanner.Err()
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	if answer != "yes" && answer != "y" {
		fmt.Println("中止しました。")
		return nil
	}

	svc, err := newAIService()
	if err != nil {
		return err
	}
	if err := svc.DeleteModel(context.Background(), modelID); err != nil {
		color.Red("✗ エラー: %v", err)
		return err
	}
	color.Green("○ モデルを削除しました: %s", modelID)
	return nil
}
