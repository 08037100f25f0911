package cli

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/gammazero/workerpool"
	"github.com/spf13/cobra"

	"github.com/roach88/gridyield/internal/engine"
	"github.com/roach88/gridyield/internal/ir"
)

// SimulateOptions holds flags for the simulate command.
type SimulateOptions struct {
	*RootOptions
	Visitors int
	Clicks   int // per visitor
	Workers  int // overrides simulate.workers
	Prefix   string
}

// SimulationReport summarises a simulated burst of clicks.
type SimulationReport struct {
	Module   ir.Module        `json:"module"`
	Visitors int              `json:"visitors"`
	Clicks   int              `json:"clicks"`
	Workers  int              `json:"workers"`
	Outcomes map[string]int   `json:"outcomes"`
	Rewards  map[string]int64 `json:"rewards"`
	Messages int              `json:"messages"`
}

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SimulateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "simulate <module-id>",
		Short: "Click a module from many visitors concurrently",
		Long: `Create simulated visitors and have them click one module concurrently
through a bounded worker pool, then report how the clicks resolved.

Each visitor is a regular user named <prefix>-N holding the daily allowance.
Refused clicks (no votes left, module not clickable, ...) are counted by
error code.

Example:
  gridyield simulate m-1 --visitors 50 --clicks 3 --workers 8`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Visitors <= 0 || opts.Clicks <= 0 {
				return rootOpts.formatter(cmd).Fail(NewExitError(ExitCommandError, "--visitors and --clicks must be positive"))
			}
			return withEnv(cmd, rootOpts, func(env *Env, f *OutputFormatter) error {
				report, err := runSimulation(opts, env, cmd, args[0])
				if err != nil {
					return err
				}
				return f.Emit(report, func(w io.Writer) { printSimulation(w, report) })
			})
		},
	}

	cmd.Flags().IntVar(&opts.Visitors, "visitors", 10, "number of simulated visitors")
	cmd.Flags().IntVar(&opts.Clicks, "clicks", 1, "clicks per visitor")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "worker pool size (overrides config)")
	cmd.Flags().StringVar(&opts.Prefix, "prefix", "sim", "visitor id prefix")

	return cmd
}

func runSimulation(opts *SimulateOptions, env *Env, cmd *cobra.Command, moduleID string) (*SimulationReport, error) {
	ctx := cmd.Context()
	if _, err := env.Engine.Module(ctx, moduleID); err != nil {
		return nil, err
	}

	workers := env.Config.Simulate.Workers
	if opts.Workers > 0 {
		workers = opts.Workers
	}

	visitors := make([]string, opts.Visitors)
	for i := range visitors {
		p, err := env.Engine.AddUser(ctx, fmt.Sprintf("%s-%d", opts.Prefix, i+1), false)
		if err != nil {
			return nil, fmt.Errorf("create visitor: %w", err)
		}
		visitors[i] = p.UserID
	}

	report := &SimulationReport{
		Visitors: opts.Visitors,
		Clicks:   opts.Visitors * opts.Clicks,
		Workers:  workers,
		Outcomes: map[string]int{},
		Rewards:  map[string]int64{},
	}

	var (
		mu       sync.Mutex
		firstErr error
	)
	wp := workerpool.New(workers)
	for round := 0; round < opts.Clicks; round++ {
		for _, visitor := range visitors {
			wp.Submit(func() {
				res, err := env.Engine.Click(ctx, moduleID, visitor)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					code := engine.CodeOf(err)
					if code == "" {
						if firstErr == nil {
							firstErr = err
						}
						code = "error"
					}
					report.Outcomes[string(code)]++
					return
				}
				report.Outcomes["ok"]++
				for _, r := range res.Rewards {
					report.Rewards[r.Item] += r.Qty
				}
				report.Messages += len(res.Messages)
			})
		}
	}
	wp.StopWait()

	if firstErr != nil {
		return nil, fmt.Errorf("simulation aborted: %w", firstErr)
	}

	m, err := env.Engine.Module(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	report.Module = m
	env.Logger.Info("simulation finished", "module", moduleID, "clicks", report.Clicks, "ok", report.Outcomes["ok"])
	return report, nil
}

func printSimulation(w io.Writer, r *SimulationReport) {
	fmt.Fprintf(w, "%d click(s) from %d visitor(s) on %d worker(s)\n", r.Clicks, r.Visitors, r.Workers)
	for _, k := range sortedKeys(r.Outcomes) {
		fmt.Fprintf(w, "  %-28s %d\n", k, r.Outcomes[k])
	}
	for _, k := range sortedKeys(r.Rewards) {
		fmt.Fprintf(w, "  reward %-21s %d\n", k, r.Rewards[k])
	}
	if r.Messages > 0 {
		fmt.Fprintf(w, "  messages %d\n", r.Messages)
	}
	printModule(w, r.Module)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
