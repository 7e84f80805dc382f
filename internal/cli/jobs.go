package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Araiseimitsu/finetuning-for-chatgpt/internal/config"
)

var (
	jobModelFlag  string
	jobSuffixFlag string
	jobEpochsFlag int
	waitInterval  int
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "ファインチューニングジョブの管理",
}

var jobsCreateCmd = &cobra.Command{
	Use:   "create <training-file-id>",
	Short: "ファインチューニングジョブを作成",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runJobsCreate(args[0])
	},
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "ジョブの一覧を表示",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runJobsList()
	},
}

var jobsStatusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "ジョブのステータスを確認",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runJobsStatus(args[0])
	},
}

var jobsWaitCmd = &cobra.Command{
	Use:   "wait <job-id>",
	Short: "ジョブが完了するまで待機",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runJobsWait(args[0])
	},
}

var jobsCancelCmd = &cobra.Command{
	Use:   "cancel <job-id>",
	Short: "ジョブをキャンセル",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runJobsCancel(args[0])
	},
}

func init() {
	jobsCreateCmd.Flags().StringVar(&jobModelFlag, "model", config.DefaultBaseModel, "ベースモデル")
	jobsCreateCmd.Flags().StringVar(&jobSuffixFlag, "suffix", "", "モデル名のサフィックス")
	jobsCreateCmd.Flags().IntVar(&jobEpochsFlag, "epochs", config.DefaultEpochs, "学習エポック数")
	jobsWaitCmd.Flags().IntVar(&waitInterval, "interval", 30, "確認間隔（秒）")
	jobsCmd.AddCommand(jobsCreateCmd, jobsListCmd, jobsStatusCmd, jobsWaitCmd, jobsCancelCmd)
	rootCmd.AddCommand(jobsCmd)
}

func runJobsCreate(trainingFileID string) error {
	svc, err := newAIService()
	if err != nil {
		return err
	}

	printHeader("ファインチューニングジョブ作成")
	fmt.Printf("学習ファイルID: %s\n", trainingFileID)
	fmt.Printf("ベースモデル: %s\n", jobModelFlag)
	fmt.Printf("エポック数: %d\n", jobEpochsFlag)
	if jobSuffixFlag != "" {
		fmt.Printf("モデル名サフィックス: %s\n", jobSuffixFlag)
	}
	fmt.Println()

	job, err := svc.CreateJob(context.Background(), trainingFileID, jobModelFlag, jobSuffixFlag, jobEpochsFlag)
	if err != nil {
		color.Red("✗ エラー: %v", err)
		return err
	}

	color.Green("○ ファインチューニングジョブを作成しました!")
	fmt.Println()
	fmt.Println("ジョブ情報:")
	fmt.Printf("  ジョブID: %s\n", job.ID)
	fmt.Printf("  ステータス: %s\n", statusColor(job.Status))
	fmt.Printf("  モデル: %s\n", job.Model)
	fmt.Printf("  作成日時: %s\n", formatUnix(job.CreatedAt))
	fmt.Println()
	fmt.Println("完了まで数分〜数十分かかる場合があります。")
	fmt.Printf("進捗確認: ftadmin jobs wait %s\n", job.ID)
	return nil
}

func runJobsList() error {
	svc, err := newAIService()
	if err != nil {
		return err
	}

	printHeader("ファインチューニングジョブ一覧")
	jobs, err := svc.ListJobs(context.Background(), 10)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		fmt.Println("ジョブはありません")
		return nil
	}
	for i, job := range jobs {
		fmt.Printf("[%d] ジョブID: %s\n", i+1, job.ID)
		fmt.Printf("    モデル: %s\n", job.Model)
		fmt.Printf("    ファインチューンモデル: %s\n", job.FineTunedModel)
		fmt.Printf("    ステータス: %s\n", statusColor(job.Status))
		fmt.Printf("    作成日時: %s\n", formatUnix(job.CreatedAt))
		if job.FinishedAt != 0 {
			fmt.Printf("    完了日時: %s\n", formatUnix(job.FinishedAt))
		}
		fmt.Println()
	}
	return nil
}

func runJobsStatus(jobID string) error {
	svc, err := newAIService()
	if err != nil {
		return err
	}
	ctx := context.Background()

	job, err := svc.RetrieveJob(ctx, jobID)
	if err != nil {
		return err
	}

	printHeader("ジョブステータス: " + job.ID)
	fmt.Printf("ステータス: %s\n", statusColor(job.Status))
	fmt.Printf("ベースモデル: %s\n", job.Model)
	fmt.Printf("ファインチューンモデル: %s\n", job.FineTunedModel)
	fmt.Printf("作成日時: %s\n", formatUnix(job.CreatedAt))
	if job.FinishedAt != 0 {
		fmt.Printf("完了日時: %s\n", formatUnix(job.FinishedAt))
	}
	if job.Error != "" {
		color.Red("エラー: %s", job.Error)
	}

	events, err := svc.ListJobEvents(ctx, jobID, 5)
	if err == nil && len(events) > 0 {
		fmt.Println()
		fmt.Println("最近のイベント:")
		for _, e := range events {
			fmt.Printf("  [%s] %s\n", time.Unix(e.CreatedAt, 0).Format("15:04:05"), e.Message)
		}
	}
	return nil
}

func runJobsWait(jobID string) error {
	svc, err := newAIService()
	if err != nil {
		return err
	}
	ctx := context.Background()

	printHeader("ファインチューニング完了待機中...")
	interval := time.Duration(waitInterval) * time.Second

	for {
		job, err := svc.RetrieveJob(ctx, jobID)
		if err != nil {
			color.Red("エラー: %v", err)
			return err
		}

		switch job.Status {
		case "succeeded":
			fmt.Println()
			color.Green("○ ファインチューニング完了!")
			fmt.Printf("ファインチューンモデル: %s\n", job.FineTunedModel)
			return nil
		case "failed":
			fmt.Println()
			color.Red("✗ ファインチューニング失敗")
			if job.Error != "" {
				fmt.Printf("エラー: %s\n", job.Error)
			}
			return fmt.Errorf("job %s failed", jobID)
		case "cancelled":
			fmt.Println()
			fmt.Println("キャンセルされました")
			return nil
		default:
			now := time.Now().Format("15:04:05")
			fmt.Printf("[%s] ステータス: %s... 待機中\n", now, job.Status)
		}

		time.Sleep(interval)
	}
}

func runJobsCancel(jobID string) error {
	svc, err := newAIService()
	if err != nil {
		return err
	}
	if err := svc.CancelJob(context.Background(), jobID); err != nil {
		color.Red("✗ エラー: %v", err)
		return err
	}
	color.Green("○ ジョブをキャンセルしました: %s", jobID)
	return nil
}
