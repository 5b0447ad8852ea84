package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/instock/internal/contracts"
	"github.com/wonny/instock/pkg/config"
)

var (
	// Global flags
	env     string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "instock",
	Short: "instock - 일일 종목 선별 배치",
	Long: `instock Unified CLI

일일 배치: DB 초기화 → 기초 데이터 → 지표/전략 데이터 → 전략 합병 선별 → 백테스트 → 장 마감 후 데이터.

Usage:
  go run ./cmd/instock [command]

Examples:
  go run ./cmd/instock daily
  go run ./cmd/instock merge --date 2024-12-26
  go run ./cmd/instock scheduler start
  go run ./cmd/instock api`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment override (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// loadConfig loads config and applies the global flags
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if env != "" {
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	return cfg, nil
}

// parseRunDate parses the --date flag, empty means today
func parseRunDate(value string) (time.Time, error) {
	if value == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local), nil
	}

	date, err := time.ParseInLocation(contracts.DateLayout, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q (expected YYYY-MM-DD): %w", value, err)
	}
	return date, nil
}
