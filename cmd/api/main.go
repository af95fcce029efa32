package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/normrepo/nrs-go/internal/config"
	"github.com/normrepo/nrs-go/internal/logger"
	"github.com/normrepo/nrs-go/internal/repository"
	"github.com/normrepo/nrs-go/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	v := viper.New()

	serve := func(cmd *cobra.Command, _ []string) error {
		return withRuntime(cmd.Context(), v, runServer)
	}

	root := &cobra.Command{
		Use:           "nrs",
		Short:         "Norm repository server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve,
	}
	if err := config.BindFlags(root.PersistentFlags(), v); err != nil {
		panic(err)
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API (default)",
			Args:  cobra.NoArgs,
			RunE:  serve,
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply pending database migrations and exit",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withRuntime(cmd.Context(), v, runMigrations)
			},
		},
	)
	return root
}

// withRuntime loads .env and the configuration, builds the logger and opens
// the store, then hands them to fn. The store is closed when fn returns.
func withRuntime(ctx context.Context, v *viper.Viper, fn func(context.Context, config.Config, *repository.Store, *zap.Logger) error) (err error) {
	envErr := godotenv.Load()

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	log, err := logger.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer log.Sync()

	if envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
		log.Warn("Could not load .env file", zap.Error(envErr))
	}

	db, err := repository.NewDB(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN, cfg.MaxOpenConns)
	if err != nil {
		log.Error("Database connection failed", zap.String("driver", cfg.DatabaseDriver), zap.Error(err))
		return err
	}

	store, err := repository.NewStore(db)
	if err != nil {
		return multierr.Append(err, db.Close())
	}
	defer func() {
		err = multierr.Append(err, store.Close())
	}()

	return fn(ctx, cfg, store, log)
}

func runMigrations(ctx context.Context, _ config.Config, store *repository.Store, log *zap.Logger) error {
	results, err := store.Migrate(ctx)
	for _, r := range results {
		log.Info("Applied migration",
			zap.Int64("version", r.Source.Version),
			zap.String("path", r.Source.Path),
			zap.Duration("took", r.Duration))
	}
	if err != nil {
		return err
	}

	log.Info("Database is up to date", zap.String("dialect", store.Dialect().Name), zap.Int("applied", len(results)))
	return nil
}

func runServer(ctx context.Context, cfg config.Config, store *repository.Store, log *zap.Logger) error {
	if cfg.Migrate {
		if err := runMigrations(ctx, cfg, store, log); err != nil {
			return err
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	h, err := server.NewRouter(ctx, cfg, store, log, reg)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced shutdown: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
