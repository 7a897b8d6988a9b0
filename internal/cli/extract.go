package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/typelink/internal/analyzer"
	"github.com/mvp-joe/typelink/internal/errors"
	"github.com/mvp-joe/typelink/internal/logger"
	"github.com/mvp-joe/typelink/internal/storage"
)

var (
	extractOutFlag   string
	extractDBFlag    string
	extractKeepFlag  int
	extractQuietFlag bool
	extractWatchFlag bool
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract [dir]",
	Short: "Extract the type model of a Rust crate",
	Long: `Extract parses every matching .rs file under dir (default: the current
directory), collects the annotated declarations and writes the model as JSON.

Declarations that cannot be represented are reported and skipped, unless
analysis.fail_fast is set in the configuration.

Examples:
  # Write .typelink/model.json
  typelink extract

  # Print the model on stdout
  typelink extract --out - ./crates/api

  # Also record the run in a SQLite snapshot, keeping the last 10 runs
  typelink extract --db typelink.db --keep 10

  # Re-extract whenever a source file changes
  typelink extract --watch
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringVarP(&extractOutFlag, "out", "o", "", "model output path, - for stdout (default: output.model)")
	extractCmd.Flags().StringVar(&extractDBFlag, "db", "", "SQLite snapshot path (default: output.database)")
	extractCmd.Flags().IntVar(&extractKeepFlag, "keep", 0, "number of snapshot runs to keep, 0 keeps all")
	extractCmd.Flags().BoolVarP(&extractQuietFlag, "quiet", "q", false, "suppress progress output")
	extractCmd.Flags().BoolVarP(&extractWatchFlag, "watch", "w", false, "re-extract on file changes")
}

// extractOptions carries the resolved flags of one extract invocation.
type extractOptions struct {
	out   string
	db    string
	keep  int
	quiet bool
	watch bool
}

func runExtract(cmd *cobra.Command, args []string) error {
	rootDir, err := rootDirFromArgs(args)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	return executeExtract(ctx, rootDir, extractOptions{
		out:   extractOutFlag,
		db:    extractDBFlag,
		keep:  extractKeepFlag,
		quiet: extractQuietFlag,
		watch: extractWatchFlag,
	}, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// executeExtract runs one extraction, or keeps re-extracting until ctx is
// done when opts.watch is set. Progress goes to errOut.
func executeExtract(ctx context.Context, rootDir string, opts extractOptions, out, errOut io.Writer) error {
	// Progress would corrupt a model written to stdout.
	quiet := opts.quiet || opts.out == "-"

	a, cfg, err := newAnalyzer(rootDir, NewCLIProgressReporter(errOut, quiet))
	if err != nil {
		return err
	}
	defer a.Close()

	sink := &extractSink{
		rootDir:   rootDir,
		modelPath: outputPath(rootDir, opts.out, cfg.Output.Model),
		dbPath:    outputPath(rootDir, opts.db, cfg.Output.Database),
		keep:      opts.keep,
		quiet:     quiet,
		out:       out,
		errOut:    errOut,
	}

	result, err := a.Run(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return errors.New("extraction cancelled")
		}
		return errors.Wrap(err, "extraction failed")
	}
	if err := sink.write(result); err != nil {
		return err
	}

	if !opts.watch {
		return nil
	}

	w, err := analyzer.NewWatcher(a, analyzer.DefaultDebounce, func(result *analyzer.Result, err error) {
		if err != nil {
			logger.Logger.Errorw("Re-extraction failed", "error", err)
			return
		}
		if err := sink.write(result); err != nil {
			logger.Logger.Errorw("Failed to write model", "error", err)
		}
	})
	if err != nil {
		return errors.Wrap(err, "failed to start watch mode")
	}

	if !quiet {
		fmt.Fprintln(errOut, "Watching for changes (Ctrl+C to stop)...")
	}
	w.Start(ctx)
	<-ctx.Done()
	w.Stop()

	if !quiet {
		fmt.Fprintln(errOut, "Watch mode stopped")
	}
	return nil
}

// extractSink writes every result of an extract invocation to its outputs.
type extractSink struct {
	rootDir   string
	modelPath string
	dbPath    string
	keep      int
	quiet     bool
	out       io.Writer
	errOut    io.Writer
}

func (s *extractSink) write(result *analyzer.Result) error {
	model, err := buildModel(s.rootDir, result)
	if err != nil {
		return err
	}

	if s.modelPath == "-" {
		if err := encodeModel(s.out, model); err != nil {
			return errors.Wrap(err, "failed to encode model")
		}
	} else {
		if err := writeModel(s.modelPath, model); err != nil {
			return err
		}
		if !s.quiet {
			fmt.Fprintf(s.errOut, "  Model: %s\n", s.modelPath)
		}
	}

	if s.dbPath != "" {
		if err := s.snapshot(result); err != nil {
			return err
		}
	}

	for _, d := range result.Diagnostics {
		if !s.quiet {
			fmt.Fprintf(s.errOut, "  skipped %s\n", d.String())
		}
	}
	return nil
}

func (s *extractSink) snapshot(result *analyzer.Result) error {
	store, err := storage.Open(s.dbPath)
	if err != nil {
		return errors.Wrap(err, "failed to open snapshot database")
	}
	defer store.Close()

	if err := store.WriteRun(s.rootDir, result); err != nil {
		return errors.Wrap(err, "failed to write snapshot")
	}
	if s.keep > 0 {
		pruned, err := store.PruneRuns(s.keep)
		if err != nil {
			return errors.Wrap(err, "failed to prune snapshot")
		}
		if pruned > 0 {
			logger.Logger.Debugw("Pruned snapshot runs", "count", pruned)
		}
	}
	if !s.quiet {
		fmt.Fprintf(s.errOut, "  Snapshot: %s (run %s)\n", s.dbPath, result.RunID)
	}
	return nil
}
