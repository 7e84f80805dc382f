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

var chatSystemFlag string

var chatCmd = &cobra.Command{
	Use:   "chat <model>",
	Short: "学習済みモデルと対話",
	Long: `学習済みモデルとの対話型チャットを開始します。

終了するには quit、exit または 終了 と入力してください。`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(args[0])
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatSystemFlag, "system", "", "システムプロンプト")
	rootCmd.AddCommand(chatCmd)
}

func runChat(model string) error {
	svc, err := newAIService()
	if err != nil {
		return err
	}
	ctx := context.Background()

	printHeader("チャット: " + model)
	fmt.Println("質問を入力してください。(終了: quit または exit)")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("あなた: ")
		if !scanner.Scan() {
			fmt.Println()
			fmt.Println("終了します。")
			return scanner.Err()
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		switch strings.ToLower(input) {
		case "quit", "exit", "終了":
			fmt.Println("終了します。")
			return nil
		}
		fmt.Println()

		answer, err := svc.Chat(ctx, model, chatSystemFlag, input)
		if err != nil {
			color.Red("エラー: %v", err)
			fmt.Println()
			continue
		}

		fmt.Printf("アシスタント: %s\n", answer)
		fmt.Println()
	}
}
