package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/typelink/internal/analyzer"
	"github.com/mvp-joe/typelink/internal/config"
	"github.com/mvp-joe/typelink/internal/errors"
	"github.com/mvp-joe/typelink/internal/resolve"
)

var (
	// ErrUnresolved is returned by check when a reference names no
	// registered type.
	ErrUnresolved = errors.New("unresolved references")
	// ErrDiagnostics is returned by check --strict when declarations were
	// skipped.
	ErrDiagnostics = errors.New("declarations skipped")
)

var checkStrictFlag bool

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check [dir]",
	Short: "Check that every referenced type is part of the model",
	Long: `Check extracts the model of dir and resolves every type reference
against it. It lists references to unknown types, groups of mutually
recursive types, and the order in which types can be emitted.

Check exits with a non-zero status when any reference is unresolved. With
--strict, skipped declarations fail the check too.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().BoolVar(&checkStrictFlag, "strict", false, "fail when any declaration was skipped")
}

func runCheck(cmd *cobra.Command, args []string) error {
	rootDir, err := rootDirFromArgs(args)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	return executeCheck(ctx, rootDir, checkStrictFlag, cmd.OutOrStdout())
}

func executeCheck(ctx context.Context, rootDir string, strict bool, out io.Writer) error {
	a, cfg, err := newAnalyzer(rootDir, &analyzer.NoOpProgressReporter{})
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.Run(ctx)
	if err != nil {
		return errors.Wrap(err, "extraction failed")
	}

	report, err := resolve.Resolve(result.Natures)
	if err != nil {
		return errors.Wrap(err, "failed to resolve references")
	}

	printReport(out, result, report)

	if !report.OK() {
		names := make([]string, 0, len(report.Unresolved))
		for _, u := range report.Unresolved {
			names = append(names, u.Ref)
		}
		return errors.WithHint(
			errors.Wrapf(ErrUnresolved, "%d missing", len(report.Unresolved)),
			unresolvedHint(dedupe(names), cfg.Select))
	}
	if strict && len(result.Diagnostics) > 0 {
		return errors.Wrapf(ErrDiagnostics, "%d skipped", len(result.Diagnostics))
	}
	return nil
}

// unresolvedHint tells how to bring the missing names into the model.
func unresolvedHint(names []string, sel config.SelectConfig) string {
	list := strings.Join(names, ", ")
	if sel.All {
		return fmt.Sprintf("declare %s in a file matched by paths.include", list)
	}
	return fmt.Sprintf("annotate %s with #[%s] or enable select.all", list, sel.Attribute)
}

func printReport(out io.Writer, result *analyzer.Result, report *resolve.Report) {
	fmt.Fprintf(out, "Checked %d natures from %d files\n", result.Natures.Len(), len(result.Files))

	if len(report.Unresolved) > 0 {
		fmt.Fprintf(out, "\nUnresolved references (%d):\n", len(report.Unresolved))
		for _, u := range report.Unresolved {
			fmt.Fprintf(out, "  %s -> %s\n", u.From, u.Ref)
		}
	}

	if len(report.Cycles) > 0 {
		fmt.Fprintf(out, "\nRecursive groups (%d):\n", len(report.Cycles))
		for _, c := range report.Cycles {
			fmt.Fprintf(out, "  %s\n", strings.Join(c, ", "))
		}
	}

	if len(result.Diagnostics) > 0 {
		fmt.Fprintf(out, "\nSkipped declarations (%d):\n", len(result.Diagnostics))
		for _, d := range result.Diagnostics {
			fmt.Fprintf(out, "  %s\n", d.String())
		}
	}

	if report.OK() {
		fmt.Fprintln(out, "\n✓ All references resolved")
	}
}

// dedupe drops repeated names from a sorted-by-source list, keeping the
// first occurrence.
func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := names[:0]
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
