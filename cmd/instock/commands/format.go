package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/wonny/instock/internal/contracts"
	"github.com/wonny/instock/internal/performance"
)

// formatRunReport renders a pipeline run for the terminal and the notification mail
func formatRunReport(date string, report *contracts.RunReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📅 %s 일일 배치 (run %s, %s)\n", date, report.RunID, report.Elapsed.Round(time.Millisecond))
	for _, name := range report.Order {
		o := report.Outcomes[name]
		mark := "✅"
		if !o.OK() {
			mark = "❌"
		}
		fmt.Fprintf(&b, "  %s %-16s %s %s\n", mark, name, name.Description(), o.ErrorText())
	}

	if failed := report.Failed(); len(failed) > 0 {
		fmt.Fprintf(&b, "\n실패 단계: %v\n", failed)
	} else {
		b.WriteString("\n모든 단계 성공\n")
	}
	return b.String()
}

// formatConsensus renders a merged recommendation list
func formatConsensus(report *contracts.ConsensusReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📊 %s 전략 합병 결과: %d 종목, %d개 이상 전략 선택 %d 종목\n",
		report.Date.Format(contracts.DateLayout), len(report.All), report.Threshold, len(report.Notable))
	for i, e := range report.Notable {
		fmt.Fprintf(&b, "%3d. %s %-8s %d개 [%s] 상승확률: %s\n",
			i+1, e.Code, e.Name, e.Count, e.StrategyText(), e.ScoreText())
	}
	return b.String()
}

// formatPerformance renders the analysis summary
func formatPerformance(r *performance.Result) string {
	var b strings.Builder
	s := r.Summary

	fmt.Fprintf(&b, "📈 %s → %s 추천 성과\n",
		r.PrevDate.Format(contracts.DateLayout), r.Date.Format(contracts.DateLayout))
	fmt.Fprintf(&b, "  평균 수익률: %s%%\n", s.AverageReturn.StringFixed(2))
	fmt.Fprintf(&b, "  승률:       %s%%\n", s.WinRate.StringFixed(2))
	fmt.Fprintf(&b, "  거래 수:     %d (수익 %d)\n", s.TotalTrades, s.PositiveTrades)
	fmt.Fprintf(&b, "  최대 수익:   %s%%\n", s.MaxGain.StringFixed(2))
	fmt.Fprintf(&b, "  최대 손실:   %s%%\n", s.MaxLoss.StringFixed(2))
	return b.String()
}
