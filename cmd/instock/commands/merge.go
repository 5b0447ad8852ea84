package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	mergeDate      string
	mergeThreshold int
	mergeSave      bool
)

// mergeCmd merges the strategy outputs of one date
var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "전략 결과 합병 선별",
	Long: `전략 결과 합병 선별

각 전략 테이블의 선택 종목을 합쳐 선택된 전략 수 기준으로 정렬합니다.
threshold 이상 전략에 선택된 종목은 상승확률을 조회합니다.

Examples:
  go run ./cmd/instock merge --date 2024-12-26
  go run ./cmd/instock merge --threshold 3 --save`,
	RunE: runMerge,
}

func init() {
	rootCmd.AddCommand(mergeCmd)
	mergeCmd.Flags().StringVar(&mergeDate, "date", "", "date YYYY-MM-DD (default today)")
	mergeCmd.Flags().IntVar(&mergeThreshold, "threshold", 0, "minimum strategy count (default from strategy config)")
	mergeCmd.Flags().BoolVar(&mergeSave, "save", false, "persist the result")
}

func runMerge(cmd *cobra.Command, args []string) error {
	date, err := parseRunDate(mergeDate)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	report, err := a.aggregator(mergeThreshold).Merge(ctx, date)
	if err != nil {
		fmt.Printf("❌ 합병 실패: %v\n", err)
		return err
	}

	fmt.Print(formatConsensus(report))

	if mergeSave {
		if err := a.consensusRepo().Save(ctx, report); err != nil {
			fmt.Printf("❌ 저장 실패: %v\n", err)
			return err
		}
		fmt.Printf("✅ %d 종목 저장 완료\n", len(report.All))
	}
	return nil
}
