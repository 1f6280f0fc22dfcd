package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/propick/internal/api"
	"github.com/wonny/propick/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `저장된 랭킹/백테스트 결과를 조회하는 REST API 서버를 시작합니다.

Endpoints:
  GET  /health                          - Health check
  GET  /api/strategies                  - 전략 목록
  GET  /api/rankings?strategy=N&date=D  - 전략별 랭킹 (date 생략 시 최신)
  GET  /api/backtests/{id}              - 백테스트 결과

Example:
  go run ./cmd/quant api
  go run ./cmd/quant api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	// Override port if flag is set
	port := a.cfg.Port
	if apiPort != "" {
		port = apiPort
	}

	a.log.WithFields(map[string]interface{}{
		"port": port,
		"env":  a.cfg.Env,
	}).Info("Initializing API server")

	router := api.NewRouter(
		handlers.NewRankingHandler(a.store, a.log),
		handlers.NewBacktestHandler(a.store, a.log),
		a.log,
	)
	server := api.New(port, router, a.log)

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  GET  /api/strategies")
	fmt.Println("  GET  /api/rankings")
	fmt.Println("  GET  /api/backtests/{id}")
	fmt.Println("\nPress Ctrl+C to stop")

	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("api server: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
