package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/gridyield/internal/audit"
	"github.com/roach88/gridyield/internal/ir"
	"github.com/roach88/gridyield/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Module  string
	Actor   string
	Limit   int
	Journal string // read this journal directory instead of the database
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the interaction audit log",
		Long: `Show committed interactions in commit order. By default rows come from
the database; --journal reads the compressed hourly journal files instead.

Examples:
  gridyield history --module m-1
  gridyield history --actor bob --limit 20
  gridyield history --journal ./audit --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Module, "module", "", "only this module id")
	cmd.Flags().StringVar(&opts.Actor, "actor", "", "only this acting user")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "at most this many rows (0 = all)")
	cmd.Flags().StringVar(&opts.Journal, "journal", "", "read interactions from a journal directory")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	filter := store.InteractionFilter{
		ModuleID: opts.Module,
		Actor:    ir.NormalizeUserID(opts.Actor),
		Limit:    opts.Limit,
	}

	if opts.Journal != "" {
		formatter := opts.formatter(cmd)
		rows, err := readJournal(opts.Journal, filter)
		if err != nil {
			return formatter.Fail(WrapExitError(ExitCommandError, "failed to read journal", err))
		}
		return emitHistory(formatter, rows)
	}

	return withStore(cmd, opts.RootOptions, func(st *store.Store, f *OutputFormatter) error {
		rows, err := st.Interactions(cmd.Context(), filter)
		if err != nil {
			return err
		}
		return emitHistory(f, rows)
	})
}

// readJournal applies the same filter the database query does.
func readJournal(dir string, f store.InteractionFilter) ([]ir.Interaction, error) {
	files, err := audit.Files(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no journal files in %s", dir)
	}

	out := []ir.Interaction{}
	for _, path := range files {
		rows, err := audit.ReadFile(path)
		if err != nil {
			return nil, err
		}
		for _, in := range rows {
			if f.ModuleID != "" && in.ModuleID != f.ModuleID {
				continue
			}
			if f.Actor != "" && in.Actor != f.Actor {
				continue
			}
			out = append(out, in)
			if f.Limit > 0 && len(out) == f.Limit {
				return out, nil
			}
		}
	}
	return out, nil
}

func emitHistory(f *OutputFormatter, rows []ir.Interaction) error {
	return f.Emit(rows, func(w io.Writer) {
		for _, in := range rows {
			detail, err := ir.MarshalCanonical(in.Detail)
			if err != nil {
				detail = []byte("?")
			}
			fmt.Fprintf(w, "%s %-8s %-10s %-12s %s\n",
				in.At.Format("2006-01-02 15:04:05"), in.Kind, in.ModuleID, in.Actor, detail)
		}
	})
}
