package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/instock/internal/scheduler"
	"github.com/wonny/instock/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행
  status  - 작업 스케줄 및 다음 실행 시각

Example:
  go run ./cmd/instock scheduler start
  go run ./cmd/instock scheduler run daily_pipeline`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- daily_pipeline: PIPELINE_SCHEDULE (기본 평일 오후 5시)
- strategy_performance: 평일 오전 10시 30분 (전일 추천 성과)

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}

	schedulerStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "작업 스케줄 조회",
		RunE:  showStatus,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerStatusCmd)
}

// newScheduler registers the instock jobs
func newScheduler(a *app) (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log, scheduler.Options{MaxRetries: a.cfg.Pipeline.MaxRetries})

	if err := sched.AddJob(jobs.NewDailyPipelineJob(a.runDaily, a.cfg.Pipeline.Schedule, a.log)); err != nil {
		return nil, err
	}
	if err := sched.AddJob(jobs.NewPerformanceJob(a.analyzer(), a.log)); err != nil {
		return nil, err
	}

	return sched, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== instock Scheduler ===")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := newScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	printSchedule(sched)
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := newScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	fmt.Println("Registered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}

	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := newScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Running job: %s\n", jobName)
	start := time.Now()
	if err := sched.RunJob(ctx, jobName); err != nil {
		fmt.Printf("❌ Job failed: %v\n", err)
		return err
	}

	fmt.Printf("✅ Job completed in %v\n", time.Since(start).Round(time.Millisecond))
	return nil
}

func showStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := newScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	// next-run times are only known once cron is running
	sched.Start()
	defer sched.Stop()

	printSchedule(sched)
	return nil
}

func printSchedule(sched *scheduler.Scheduler) {
	stats := sched.GetJobStats()

	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		next := "-"
		if t, err := sched.NextRun(jobName); err == nil && !t.IsZero() {
			next = t.Format("2006-01-02 15:04:05")
		}
		fmt.Printf("  - %-22s %-22s next: %s\n", jobName, stats[jobName].Schedule, next)
	}
}
