package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/instock/internal/api"
	"github.com/wonny/instock/internal/api/handlers"
	"github.com/wonny/instock/internal/performance"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health                   - Health check
  GET  /api/consensus/latest     - 최근 합병 결과
  GET  /api/consensus/{date}     - 날짜별 합병 결과
  GET  /api/performance/{date}   - 날짜별 추천 성과

Example:
  go run ./cmd/instock api
  go run ./cmd/instock api --port 8080`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본 PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== instock API Server ===")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	router := api.NewRouter(api.Handlers{
		Health:      handlers.NewHealthHandler(a.db),
		Consensus:   handlers.NewConsensusHandler(a.consensusRepo(), a.log),
		Performance: handlers.NewPerformanceHandler(performance.NewRepository(a.db.Pool), a.log),
	}, a.log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.log.WithField("port", a.cfg.Port).Info("Starting API server")
	if err := api.New(a.cfg, a.log, router).Run(ctx); err != nil {
		return fmt.Errorf("api server: %w", err)
	}

	fmt.Println("API server stopped")
	return nil
}
