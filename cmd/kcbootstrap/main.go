package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tendant/kcbootstrap/pkg/bootstrap"
	"github.com/tendant/kcbootstrap/pkg/config"
	"github.com/tendant/kcbootstrap/pkg/logging"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:]))
}

// run executes the command line and returns the process exit status.
func run(ctx context.Context, args []string) int {
	root := newRootCommand()
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

func newRootCommand() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:   "kcbootstrap",
		Short: "Bootstrap the Keycloak realm, client, roles and users for Spending Monitor",
		Long: `Converges a Keycloak instance onto the state the application expects.
Safe to re-run: every stage reads before it writes.

Configuration comes from the environment and an optional .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetup(cmd.Context(), envFile)
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "path to a .env file (default \".env\")")

	root.AddCommand(
		&cobra.Command{
			Use:   "setup",
			Short: "Run the full bootstrap (default)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runSetup(cmd.Context(), envFile)
			},
		},
		&cobra.Command{
			Use:   "sync-users",
			Short: "Create missing users from the application database",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runSyncUsers(cmd.Context(), envFile)
			},
		},
		&cobra.Command{
			Use:   "verify",
			Short: "Check that the realm discovery document is served",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runVerify(cmd.Context(), envFile)
			},
		},
	)
	return root
}

// prepare loads configuration, installs the logger and returns a context cancelled on SIGINT/SIGTERM.
func prepare(parent context.Context, envFile string) (config.Config, string, context.Context, context.CancelFunc, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		return config.Config{}, "", nil, nil, err
	}

	runID := uuid.NewString()
	logger := logging.Setup(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	slog.SetDefault(logger.With("run_id", runID))

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	return cfg, runID, ctx, stop, nil
}

func runSetup(parent context.Context, envFile string) error {
	cfg, runID, ctx, stop, err := prepare(parent, envFile)
	if err != nil {
		return err
	}
	defer stop()

	bootstrap.LogProductionWarnings(cfg)

	report, err := bootstrap.New(cfg, bootstrap.WithRunID(runID)).Run(ctx)
	bootstrap.PrintReport(os.Stdout, cfg, report)
	bootstrap.LogReportSummary(report)
	if ctx.Err() != nil {
		slog.Warn("Bootstrap interrupted; re-run to converge")
		return ctx.Err()
	}
	return err
}

func runSyncUsers(parent context.Context, envFile string) error {
	cfg, _, ctx, stop, err := prepare(parent, envFile)
	if err != nil {
		return err
	}
	defer stop()

	result, err := bootstrap.SyncUsers(ctx, cfg, nil)
	bootstrap.PrintSyncResult(os.Stdout, result)
	if err != nil {
		slog.Error("User sync failed", "error", err)
		return err
	}
	return nil
}

func runVerify(parent context.Context, envFile string) error {
	cfg, _, ctx, stop, err := prepare(parent, envFile)
	if err != nil {
		return err
	}
	defer stop()

	doc, err := bootstrap.Verify(ctx, cfg)
	if err != nil {
		slog.Error("Verification failed", "error", err)
		return err
	}
	fmt.Printf("Realm %q is reachable. Issuer: %s\n", cfg.Realm, doc.Issuer)
	return nil
}
