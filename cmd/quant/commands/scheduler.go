package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/propick/internal/scheduler"
	"github.com/wonny/propick/internal/scheduler/jobs"
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

Example:
  go run ./cmd/quant scheduler start
  go run ./cmd/quant scheduler list
  go run ./cmd/quant scheduler run daily_ranking`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- daily_ranking: 평일 16:30 (전체 전략 랭킹 → CSV → 저장 → 업로드)

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
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	PrintHeader("propick Scheduler")

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	// Start scheduler
	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		next, _ := sched.NextRun(jobName)
		fmt.Printf("  - %s (next: %s)\n", jobName, next.Format("2006-01-02 15:04:05"))
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	fmt.Println("Registered jobs:")
	for jobName, stat := range sched.GetJobStats() {
		fmt.Printf("  - %s [%s]\n", jobName, stat.Schedule)
	}

	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	fmt.Printf("Running job: %s\n", jobName)

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	result, err := sched.RunNow(cmd.Context(), jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	PrintSuccess(fmt.Sprintf("Job %s completed in %.2fs", jobName, result.Duration.Seconds()))
	return nil
}

func initScheduler(a *app) (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log)

	// Register jobs
	if err := sched.AddJob(jobs.NewDailyRankingJob(a.orchestrator(true), a.log)); err != nil {
		return nil, err
	}

	return sched, nil
}
