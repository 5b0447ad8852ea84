package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var analyzeDate string

// analyzeCmd measures the previous recommendation
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "전일 추천 종목 성과 분석",
	Long: `전일 추천 종목 성과 분석

직전 거래일에 저장된 합병 결과를 기준 날짜 종가와 비교합니다.

Examples:
  go run ./cmd/instock analyze
  go run ./cmd/instock analyze --date 2024-12-27`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVar(&analyzeDate, "date", "", "date YYYY-MM-DD (default today)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	date, err := parseRunDate(analyzeDate)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result, err := a.analyzer().Analyze(ctx, date)
	if err != nil {
		fmt.Printf("❌ 성과 분석 실패: %v\n", err)
		return err
	}
	if result == nil {
		fmt.Println("⚠️  분석할 데이터가 없습니다")
		return nil
	}

	fmt.Print(formatPerformance(result))
	return nil
}
