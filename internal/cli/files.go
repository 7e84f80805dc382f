package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Araiseimitsu/finetuning-for-chatgpt/internal/jsonl"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "JSONL形式の学習データをアップロード",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUpload(args[0])
	},
}

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "アップロード済みファイルの管理",
}

var filesListCmd = &cobra.Command{
	Use:   "list",
	Short: "アップロード済みファイルの一覧を表示",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFilesList()
	},
}

func init() {
	filesCmd.AddCommand(filesListCmd)
	rootCmd.AddCommand(uploadCmd, filesCmd)
}

func runUpload(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("ファイルが読み込めません: %w", err)
	}

	printHeader("学習データのアップロード")
	fmt.Printf("ファイル: %s\n\n", path)

	result, err := jsonl.Validate(string(content))
	if err != nil {
		color.Red("✗ バリデーションエラー: %v", err)
		return err
	}
	color.Green("○ バリデーション成功: %s", result.Message())
	fmt.Println()

	svc, err := newAIService()
	if err != nil {
		return err
	}
	uploaded, err := svc.UploadTrainingFile(context.Background(), filepath.Base(path), content)
	if err != nil {
		color.Red("✗ アップロード失敗: %v", err)
		return err
	}

	color.Green("○ アップロード完了!")
	fmt.Printf("  ファイルID: %s\n", uploaded.ID)
	fmt.Printf("  ファイル名: %s\n", uploaded.Filename)
	fmt.Printf("  ステータス: %s\n", uploaded.Status)
	fmt.Println()
	fmt.Println("このファイルIDを使ってジョブを作成できます:")
	fmt.Printf("  ftadmin jobs create %s\n", uploaded.ID)
	return nil
}

func runFilesList() error {
	svc, err := newAIService()
	if err != nil {
		return err
	}

	printHeader("アップロード済みファイル一覧")
	files, err := svc.ListTrainingFiles(context.Background())
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("ファイルはありません")
		return nil
	}
	for i, f := range files {
		fmt.Printf("[%d] ファイルID: %s\n", i+1, f.ID)
		fmt.Printf("    ファイル名: %s\n", f.Filename)
		fmt.Printf("    サイズ: %d bytes\n", f.Bytes)
		fmt.Printf("    ステータス: %s\n", f.Status)
		fmt.Printf("    作成日時: %s\n", formatUnix(f.CreatedAt))
		fmt.Println()
	}
	return nil
}
