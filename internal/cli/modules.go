package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/gridyield/internal/engine"
	"github.com/roach88/gridyield/internal/ir"
	"github.com/roach88/gridyield/internal/store"
)

// moduleCommand builds a command that runs one engine operation on a module
// id given as the first argument.
func moduleCommand(rootOpts *RootOptions, use, short string, nargs int, run func(ctx context.Context, env *Env, f *OutputFormatter, args []string) error) *cobra.Command {
	return &cobra.Command{
		Use:           use,
		Short:         short,
		Args:          cobra.ExactArgs(nargs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, rootOpts, func(env *Env, f *OutputFormatter) error {
				return run(cmd.Context(), env, f, args)
			})
		},
	}
}

// NewPlaceCommand creates the place command.
func NewPlaceCommand(rootOpts *RootOptions) *cobra.Command {
	var x, y int

	cmd := &cobra.Command{
		Use:   "place <owner> <item>",
		Short: "Place a module item from inventory onto the owner's page",
		Long: `Take one module item out of the owner's inventory and place it as a new
module. Without --x/--y the module goes off-grid.

Example:
  gridyield place alice lemonade_stand --x 0 --y 1`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var pos *ir.GridPos
			xSet, ySet := cmd.Flags().Changed("x"), cmd.Flags().Changed("y")
			if xSet != ySet {
				return rootOpts.formatter(cmd).Fail(NewExitError(ExitCommandError, "--x and --y must be given together"))
			}
			if xSet {
				pos = &ir.GridPos{X: x, Y: y}
			}
			return withEnv(cmd, rootOpts, func(env *Env, f *OutputFormatter) error {
				m, err := env.Engine.Place(cmd.Context(), args[0], args[1], pos)
				if err != nil {
					return err
				}
				return f.Emit(m, func(w io.Writer) { printModule(w, m) })
			})
		},
	}
	cmd.Flags().IntVar(&x, "x", 0, "grid column")
	cmd.Flags().IntVar(&y, "y", 0, "grid row")
	return cmd
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return moduleCommand(rootOpts, "remove <module-id>", "Return a module to its owner's inventory", 1,
		func(ctx context.Context, env *Env, f *OutputFormatter, args []string) error {
			if err := env.Engine.Remove(ctx, args[0]); err != nil {
				return err
			}
			out := map[string]string{"removed": args[0]}
			return f.Emit(out, func(w io.Writer) { fmt.Fprintf(w, "removed %s\n", args[0]) })
		})
}

// NewSetupCommand creates the setup command.
func NewSetupCommand(rootOpts *RootOptions) *cobra.Command {
	return moduleCommand(rootOpts, "setup <module-id>", "Pay a module's setup cost from the owner's inventory", 1,
		func(ctx context.Context, env *Env, f *OutputFormatter, args []string) error {
			m, err := env.Engine.Setup(ctx, args[0])
			if err != nil {
				return err
			}
			return f.Emit(m, func(w io.Writer) { printModule(w, m) })
		})
}

// NewTeardownCommand creates the teardown command.
func NewTeardownCommand(rootOpts *RootOptions) *cobra.Command {
	return moduleCommand(rootOpts, "teardown <module-id>", "Undo setup and refund what it consumed", 1,
		func(ctx context.Context, env *Env, f *OutputFormatter, args []string) error {
			m, err := env.Engine.Teardown(ctx, args[0])
			if err != nil {
				return err
			}
			return f.Emit(m, func(w io.Writer) { printModule(w, m) })
		})
}

// NewHarvestCommand creates the harvest command.
func NewHarvestCommand(rootOpts *RootOptions) *cobra.Command {
	return moduleCommand(rootOpts, "harvest <module-id>", "Credit accrued yield to the owner", 1,
		func(ctx context.Context, env *Env, f *OutputFormatter, args []string) error {
			res, err := env.Engine.Harvest(ctx, args[0])
			if err != nil {
				return err
			}
			return f.Emit(res, func(w io.Writer) {
				printYield(w, res.Yield)
				printModule(w, res.Module)
			})
		})
}

// NewPreviewCommand creates the preview command.
func NewPreviewCommand(rootOpts *RootOptions) *cobra.Command {
	return moduleCommand(rootOpts, "preview <module-id>", "Show what a harvest would produce now", 1,
		func(ctx context.Context, env *Env, f *OutputFormatter, args []string) error {
			y, err := env.Engine.Preview(ctx, args[0])
			if err != nil {
				return err
			}
			return f.Emit(y, func(w io.Writer) { printYield(w, y) })
		})
}

// NewTradeCommand creates the trade command.
func NewTradeCommand(rootOpts *RootOptions) *cobra.Command {
	var qty int64

	cmd := moduleCommand(rootOpts, "trade <module-id> <item>", "Save the trade a trade-editor module asks for at setup", 2,
		func(ctx context.Context, env *Env, f *OutputFormatter, args []string) error {
			m, err := env.Engine.SaveTrade(ctx, args[0], ir.ItemQty{Item: args[1], Qty: qty})
			if err != nil {
				return err
			}
			return f.Emit(m, func(w io.Writer) { printModule(w, m) })
		})
	cmd.Flags().Int64VarP(&qty, "qty", "n", 1, "quantity the trade costs")
	return cmd
}

// NewClickCommand creates the click command.
func NewClickCommand(rootOpts *RootOptions) *cobra.Command {
	return moduleCommand(rootOpts, "click <module-id> <visitor>", "Spend one of the visitor's votes on a module", 2,
		func(ctx context.Context, env *Env, f *OutputFormatter, args []string) error {
			res, err := env.Engine.Click(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			return f.Emit(res, func(w io.Writer) {
				printModule(w, res.Module)
				printRewards(w, res.Rewards)
				for _, m := range res.Messages {
					fmt.Fprintf(w, "  message %s -> %s: %s\n", m.Sender, m.Recipient, m.Template)
				}
			})
		})
}

// NewPrizeCommand creates the prize command.
func NewPrizeCommand(rootOpts *RootOptions) *cobra.Command {
	return moduleCommand(rootOpts, "prize <module-id> <user>", "Draw from an arcade module's prize table", 2,
		func(ctx context.Context, env *Env, f *OutputFormatter, args []string) error {
			res, err := env.Engine.SelectPrize(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			return f.Emit(res, func(w io.Writer) {
				fmt.Fprintf(w, "draw %d\n", res.Draw)
				printRewards(w, []engine.Reward{res.Prize})
			})
		})
}

// NewModulesCommand creates the modules command.
func NewModulesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "modules [owner]",
		Short:         "List placed modules",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			owner := ""
			if len(args) > 0 {
				owner = ir.NormalizeUserID(args[0])
			}
			return withStore(cmd, rootOpts, func(st *store.Store, f *OutputFormatter) error {
				mods, err := st.Modules(cmd.Context(), owner)
				if err != nil {
					return err
				}
				return f.Emit(mods, func(w io.Writer) {
					for _, m := range mods {
						printModule(w, m)
					}
				})
			})
		},
	}
}

func printModule(w io.Writer, m ir.Module) {
	pos := "off-grid"
	if m.Pos != nil {
		pos = fmt.Sprintf("(%d,%d)", m.Pos.X, m.Pos.Y)
	}
	fmt.Fprintf(w, "%s %s owner=%s pos=%s state=%s clicks=%d/%d\n",
		m.ID, m.Item, m.Owner, pos, m.State, m.ClicksSinceHarvest, m.TotalClicks)
	if m.Trade != nil {
		fmt.Fprintf(w, "  trade %d %s\n", m.Trade.Qty, m.Trade.Item)
	}
}

func printYield(w io.Writer, y engine.Yield) {
	if y.Item == "" {
		fmt.Fprintln(w, "no yield")
		return
	}
	fmt.Fprintf(w, "yield %d %s (carry %s, %d click(s))\n", y.Quantity, y.Item, y.TimeRemainder, y.ClickRemainder)
}

func printRewards(w io.Writer, rewards []engine.Reward) {
	for _, r := range rewards {
		fmt.Fprintf(w, "  %s reward: %d %s -> %s\n", r.Source, r.Qty, r.Item, r.Recipient)
	}
}
