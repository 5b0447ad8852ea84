package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/instock/internal/contracts"
	"github.com/wonny/instock/pkg/mail"
)

var (
	dailyDate   string
	dailyNotify bool
)

// dailyCmd runs the full daily pipeline once
var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "일일 배치 1회 실행",
	Long: `일일 배치 1회 실행

단계:
  1. init             DB 초기화 (실패 시 중단)
  2. base_data → composite_data
  3. other_base_data / indicator_data / strategy_data (병렬)
  4. merge → backtest → after_close

Examples:
  go run ./cmd/instock daily
  go run ./cmd/instock daily --date 2024-12-26 --notify`,
	RunE: runDaily,
}

func init() {
	rootCmd.AddCommand(dailyCmd)
	dailyCmd.Flags().StringVar(&dailyDate, "date", "", "run date YYYY-MM-DD (default today)")
	dailyCmd.Flags().BoolVar(&dailyNotify, "notify", false, "send the run summary by mail")
}

func runDaily(cmd *cobra.Command, args []string) error {
	date, err := parseRunDate(dailyDate)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	day := date.Format(contracts.DateLayout)
	report, runErr := a.runDaily(ctx, date)
	if report != nil {
		summary := formatRunReport(day, report)
		fmt.Print(summary)

		if dailyNotify {
			sender := mail.NewSender(a.cfg.Mail)
			if err := sender.Send(fmt.Sprintf("instock %s 일일 배치", day), summary); err != nil {
				a.log.WithError(err).Warn("Failed to send run summary")
			}
		}
	}

	if runErr != nil {
		fmt.Printf("❌ 일일 배치 중단: %v\n", runErr)
		return runErr
	}
	if len(report.Failed()) > 0 {
		return fmt.Errorf("stages failed: %v", report.Failed())
	}
	return nil
}
