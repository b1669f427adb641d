package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fastygo/taskpulse/internal/bootstrap"
	"github.com/fastygo/taskpulse/internal/config"
	"github.com/fastygo/taskpulse/pkg/logger"
	"github.com/fastygo/taskpulse/usecase/scoring"
)

var jsonOutput bool

var rootCmd = &cobra.Command{
	Use:   "pulsectl",
	Short: "Operator tooling for the taskpulse backend",
	Long: `pulsectl talks to the same storage, lock and buffer backends as the server,
selected through the usual environment (or .env) configuration.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")
	rootCmd.AddCommand(baselineCmd(), bufferCmd(), featuresCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// runtime holds what a command needs; close releases it.
type runtime struct {
	cfg        *config.Config
	log        *zap.Logger
	storage    *bootstrap.Storage
	aggregator *scoring.Aggregator
	close      func()
}

func withRuntime(ctx context.Context, fn func(ctx context.Context, rt *runtime) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(logger.Config{Level: "warn", Encoding: "console", Output: "stderr"})
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	storage, err := bootstrap.OpenStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	locker, redisClient, err := bootstrap.UserLocker(cfg, log)
	if err != nil {
		storage.Close()
		return err
	}

	rt := &runtime{
		cfg:        cfg,
		log:        log,
		storage:    storage,
		aggregator: scoring.NewAggregator(storage.Tasks, storage.Users, locker, log),
		close: func() {
			if redisClient != nil {
				_ = redisClient.Close()
			}
			storage.Close()
			_ = log.Sync()
		},
	}
	defer rt.close()
	return fn(ctx, rt)
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}
