package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/secmon-lab/themis/pkg/cli/config"
	httpctrl "github.com/secmon-lab/themis/pkg/controller/http"
	"github.com/secmon-lab/themis/pkg/service/worker"
	"github.com/secmon-lab/themis/pkg/usecase"
	"github.com/secmon-lab/themis/pkg/utils/logging"
)

func cmdServe() *cli.Command {
	var addr string
	var expiryInterval time.Duration
	var asyncNotify bool
	var rejectConcurrentMoves bool
	var appCfg config.AppConfig
	var repoCfg config.Repository
	var slackCfg config.Slack

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("THEMIS_ADDR"),
			Destination: &addr,
		},
		&cli.DurationFlag{
			Name:        "expiry-interval",
			Usage:       "Interval of the overdue vendor assessment check (0 disables it)",
			Value:       time.Hour,
			Sources:     cli.EnvVars("THEMIS_EXPIRY_INTERVAL"),
			Destination: &expiryInterval,
		},
		&cli.BoolFlag{
			Name:        "async-notify",
			Usage:       "Send notifications in the background instead of before responding",
			Sources:     cli.EnvVars("THEMIS_ASYNC_NOTIFY"),
			Destination: &asyncNotify,
		},
		&cli.BoolFlag{
			Name:        "reject-concurrent-moves",
			Usage:       "Reject a board move while another move of the same entity is running instead of queueing it",
			Sources:     cli.EnvVars("THEMIS_REJECT_CONCURRENT_MOVES"),
			Destination: &rejectConcurrentMoves,
		},
	}

	// Add shared config flags
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			// Load workspace configurations and build registry
			configs, registry, err := appCfg.Configure(c)
			if err != nil {
				return goerr.Wrap(err, "failed to load workspace configurations")
			}

			// Initialize repository based on backend type
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			var ucOpts []usecase.Option
			notifier, err := slackCfg.Configure(registry)
			if err != nil {
				return goerr.Wrap(err, "failed to configure Slack notifier")
			}
			if notifier != nil {
				ucOpts = append(ucOpts, usecase.WithNotifier(notifier))
				logging.Default().Info("Slack notification enabled", "slack", slackCfg)
			} else {
				logging.Default().Info("Slack Bot Token not configured, notifications are only logged")
			}
			if asyncNotify {
				ucOpts = append(ucOpts, usecase.WithAsyncNotify())
			}
			if rejectConcurrentMoves {
				ucOpts = append(ucOpts, usecase.WithMovePolicy(usecase.MovePolicyReject))
			}

			uc, err := newUseCases(repo, configs, registry, ucOpts...)
			if err != nil {
				return err
			}

			var expiryWorker *worker.ExpiryWorker
			if expiryInterval > 0 {
				expiryWorker = worker.NewExpiryWorker(uc.Entity, workspaceIDs(registry), expiryInterval)
				if err := expiryWorker.Start(ctx); err != nil {
					return goerr.Wrap(err, "failed to start expiry worker")
				}
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc, httpctrl.WithWorkspaceRegistry(registry)),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			// Start server in goroutine
			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server",
					"addr", addr,
					"workspaces", len(configs),
					"expiry_interval", expiryInterval.String())
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			// Wait for shutdown signal or server error
			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				// Stop expiry worker first
				if expiryWorker != nil {
					expiryWorker.Stop()
				}

				// Create shutdown context with timeout
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				// Attempt graceful shutdown
				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
