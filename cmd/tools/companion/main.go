// Command companion drives the chat and mood journal from a terminal against the configured store.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zhouzirui/manasbridge/backend/internal/app"
	"github.com/zhouzirui/manasbridge/backend/internal/config"
	"github.com/zhouzirui/manasbridge/backend/internal/logging"
)

// openFunc builds the services a command runs against, returning a cleanup.
type openFunc func(ctx context.Context, backend, path string) (*app.App, func(), error)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(openFromEnv).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// openFromEnv loads .env and the environment, then applies flag overrides.
func openFromEnv(ctx context.Context, backend, path string) (*app.App, func(), error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	if backend != "" {
		cfg.Storage.Backend = config.StorageBackend(backend)
	}
	if path != "" {
		cfg.Storage.Path = path
	}

	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: "console"})
	if err != nil {
		return nil, nil, err
	}

	store, err := app.OpenStore(cfg.Storage)
	if err != nil {
		return nil, nil, fmt.Errorf("open storage: %w", err)
	}

	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close storage", zap.Error(err))
		}
		_ = logger.Sync()
	}
	return app.New(ctx, cfg, store, logger), cleanup, nil
}

func newRootCmd(open openFunc) *cobra.Command {
	var (
		backend  string
		path     string
		cleanup  func()
		services *app.App
	)

	root := &cobra.Command{
		Use:           "companion",
		Short:         "Talk to the wellness companion and manage the mood journal",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a, done, err := open(cmd.Context(), backend, path)
			if err != nil {
				return err
			}
			services, cleanup = a, done
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if cleanup != nil {
				cleanup()
			}
		},
	}

	root.PersistentFlags().StringVar(&backend, "storage", "", "Storage backend override: memory or bolt")
	root.PersistentFlags().StringVar(&path, "path", "", "Bolt database path override")

	current := func() *app.App { return services }
	root.AddCommand(newChatCmd(current))
	root.AddCommand(newHistoryCmd(current))
	root.AddCommand(newMoodCmd(current))
	return root
}
