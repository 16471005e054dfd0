package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	"github.com/gordonbrander/refrakt/pkg/devtools"
	"github.com/gordonbrander/refrakt/pkg/fx"
	"github.com/gordonbrander/refrakt/pkg/middleware"
	"github.com/gordonbrander/refrakt/pkg/persist"
	"github.com/gordonbrander/refrakt/pkg/store"
)

func serveCmd() *cobra.Command {
	var (
		configPath string
		addr       string
		tick       time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the counter demo server",
		Long: `Run the counter demo server.

Examples:
  refrakt-demo serve
  refrakt-demo serve --addr=:8080 --tick=1s
  refrakt-demo serve --config=refrakt.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := DefaultConfig()
			if configPath != "" {
				var err error
				cfg, err = LoadConfig(configPath)
				if err != nil {
					return err
				}
			}
			if addr != "" {
				cfg.Addr = addr
			}
			if tick > 0 {
				cfg.Tick = tick
			}
			return runServe(cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file")
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "HTTP listen address (default :6360)")
	cmd.Flags().DurationVarP(&tick, "tick", "t", 0, "Auto-increment interval (0 disables)")

	return cmd
}

func runServe(cfg Config) error {
	level, err := parseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	snap, err := newSnapshotter(cfg.Snapshot)
	if err != nil {
		return err
	}

	initial, err := persist.Load(ctx, snap, counterModel{})
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	saver := persist.NewSaver[counterModel, counterMsg](snap,
		persist.WithLogger(logger),
	)
	runner := fx.New(counterFx(750*time.Millisecond),
		fx.WithContext[counterModel, counterMsg](ctx),
		fx.WithLogger[counterModel, counterMsg](logger),
	)

	s := store.New(newCounterReducer(logger), initial,
		store.WithLogger[counterModel, counterMsg](logger),
		store.WithMiddleware(
			store.Logger[counterModel, counterMsg](logger),
			middleware.Prometheus[counterModel, counterMsg](),
			middleware.OpenTelemetry[counterModel, counterMsg](),
			runner.Middleware(),
			saver.Middleware(),
		),
	)

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: devtools.New[counterModel, counterMsg](s, devtools.WithLogger(logger)).Handler(),
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr)
		serveErr <- httpServer.ListenAndServe()
	}()

	if cfg.Tick > 0 {
		go func() {
			ticker := time.NewTicker(cfg.Tick)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					s.Send(counterMsg{Kind: "increment"})
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}

	runner.Wait()
	saver.Close()
	return nil
}

// newSnapshotter builds the configured snapshot backend.
func newSnapshotter(cfg SnapshotConfig) (persist.Snapshotter, error) {
	switch cfg.Backend {
	case "", "memory":
		return persist.NewMemorySnapshotter(), nil

	case "s3":
		client := s3.New(s3.Options{
			Region: cfg.Region,
			Credentials: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
				return aws.Credentials{
					AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
					SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
					SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
				}, nil
			}),
		})
		return persist.NewS3Snapshotter(client, cfg.Bucket, cfg.Key), nil

	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", cfg.Backend)
	}
}
