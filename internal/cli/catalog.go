package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/gridyield/internal/catalog"
)

// CatalogReport is the output of catalog validate.
type CatalogReport struct {
	Valid    bool                      `json:"valid"`
	Digest   string                    `json:"digest"`
	Modules  int                       `json:"modules"`
	Findings []catalog.ValidationError `json:"findings,omitempty"`
}

// CatalogEntry summarises one module item for catalog list.
type CatalogEntry struct {
	Item   string `json:"item"`
	Name   string `json:"name,omitempty"`
	Editor string `json:"editor,omitempty"`
	Setup  string `json:"setup"`
	Yield  string `json:"yield,omitempty"`
	Prizes int    `json:"prizes,omitempty"`
}

// NewCatalogCommand creates the catalog command group.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the module catalog",
	}
	cmd.AddCommand(newCatalogValidateCommand(rootOpts))
	cmd.AddCommand(newCatalogListCommand(rootOpts))
	return cmd
}

func newCatalogValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate [catalog-dir]",
		Short: "Compile the catalog and report findings",
		Long: `Compile the CUE catalog against the module schema and report semantic
findings (W3xx codes). Findings are advisory unless --strict is given.

Examples:
  gridyield catalog validate ./catalog
  gridyield catalog validate --strict --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogValidate(rootOpts, args, strict, cmd)
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "treat findings as failures")
	return cmd
}

func runCatalogValidate(opts *RootOptions, args []string, strict bool, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cat, err := loadCatalogArg(opts, args)
	if err != nil {
		return formatter.Fail(err)
	}

	report := CatalogReport{
		Valid:    true,
		Digest:   cat.Digest,
		Modules:  len(cat.Modules),
		Findings: catalog.Validate(cat),
	}
	if strict && len(report.Findings) > 0 {
		report.Valid = false
	}

	err = formatter.Emit(report, func(w io.Writer) {
		for _, f := range report.Findings {
			fmt.Fprintf(w, "%s\n", f.Error())
		}
		if report.Valid {
			fmt.Fprintf(w, "\u2713 %d module(s), digest %s\n", report.Modules, report.Digest)
		} else {
			fmt.Fprintf(w, "\u2717 %d finding(s)\n", len(report.Findings))
		}
	})
	if err != nil {
		return err
	}
	if !report.Valid {
		return reportedFailure("catalog has findings")
	}
	return nil
}

func newCatalogListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list [catalog-dir]",
		Short:         "List module items in the catalog",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			cat, err := loadCatalogArg(rootOpts, args)
			if err != nil {
				return formatter.Fail(err)
			}

			entries := make([]CatalogEntry, 0, len(cat.Modules))
			for _, item := range cat.Items() {
				entries = append(entries, catalogEntry(cat.Modules[item]))
			}
			return formatter.Emit(entries, func(w io.Writer) {
				for _, e := range entries {
					fmt.Fprintf(w, "%-20s setup=%-8s", e.Item, e.Setup)
					if e.Editor != "" {
						fmt.Fprintf(w, " editor=%s", e.Editor)
					}
					if e.Yield != "" {
						fmt.Fprintf(w, " yield=%s", e.Yield)
					}
					if e.Prizes > 0 {
						fmt.Fprintf(w, " prizes=%d", e.Prizes)
					}
					fmt.Fprintln(w)
				}
			})
		},
	}
}

// loadCatalogArg loads the catalog named on the command line, falling back
// to --catalog and then the config file.
func loadCatalogArg(opts *RootOptions, args []string) (*catalog.Catalog, error) {
	dir := ""
	if len(args) > 0 {
		dir = args[0]
	} else {
		cfg, err := loadConfig(opts)
		if err != nil {
			return nil, err
		}
		dir = cfg.Catalog.Dir
	}
	cat, err := catalog.LoadDir(dir)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load catalog", err)
	}
	return cat, nil
}

func catalogEntry(info catalog.ModuleInfo) CatalogEntry {
	e := CatalogEntry{
		Item:   info.Item,
		Name:   info.Name,
		Editor: string(info.Editor),
		Setup:  "none",
		Prizes: len(info.ArcadePrizes),
	}
	if info.Setup != nil {
		e.Setup = info.Setup.Kind().String()
	}
	if y := info.Yield; y != nil {
		e.Yield = fmt.Sprintf("%s %d/day", y.Item, y.PerDay)
		if y.ClicksPerYield > 0 {
			e.Yield += fmt.Sprintf(" 1/%d clicks", y.ClicksPerYield)
		}
		e.Yield += fmt.Sprintf(" max %d", y.Max)
	}
	return e
}
