package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/spf13/cobra"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Cron       string // overrides schedule.allowance_cron
	RefreshNow bool
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the allowance refresh on a schedule",
		Long: `Keep the engine open and restore every regular user's daily allowance
on the cron schedule from the config (schedule.allowance_cron, evaluated in
schedule.timezone). Stops on SIGINT or SIGTERM.

Example:
  gridyield serve
  gridyield serve --cron "*/15 * * * *" --refresh-now`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, rootOpts, func(env *Env, f *OutputFormatter) error {
				return runServe(opts, env, cmd)
			})
		},
	}

	cmd.Flags().StringVar(&opts.Cron, "cron", "", "cron expression for the refresh (overrides config)")
	cmd.Flags().BoolVar(&opts.RefreshNow, "refresh-now", false, "refresh once before waiting for the schedule")

	return cmd
}

func runServe(opts *ServeOptions, env *Env, cmd *cobra.Command) error {
	logger := env.Logger
	expr := env.Config.Schedule.AllowanceCron
	if opts.Cron != "" {
		expr = opts.Cron
	}
	loc, err := time.LoadLocation(env.Config.Schedule.Timezone)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid schedule.timezone", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	refresh := func() {
		if _, err := env.Engine.RefreshAllowances(ctx); err != nil {
			logger.Error("scheduled refresh failed", "error", err)
		}
	}

	if opts.RefreshNow {
		if _, err := env.Engine.RefreshAllowances(ctx); err != nil {
			return err
		}
	}

	s, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	job, err := s.NewJob(
		gocron.CronJob(expr, false),
		gocron.NewTask(refresh),
		gocron.WithName("allowance-refresh"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return WrapExitError(ExitCommandError, fmt.Sprintf("invalid cron expression %q", expr), err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	s.Start()
	next, _ := job.NextRun()
	logger.Info("scheduler started", "cron", expr, "timezone", loc.String(), "next_run", next)
	fmt.Fprintf(cmd.OutOrStdout(), "Serving. Next allowance refresh at %s.\n", next.Format(time.RFC3339))
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl-C to stop.")

	<-ctx.Done()

	if err := s.Shutdown(); err != nil {
		return fmt.Errorf("scheduler shutdown: %w", err)
	}
	logger.Info("scheduler stopped gracefully")
	return nil
}
