package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/typelink/internal/analyzer"
	"github.com/mvp-joe/typelink/internal/errors"
	"github.com/mvp-joe/typelink/internal/logger"
	"github.com/mvp-joe/typelink/internal/mcp"
)

var serveWatchFlag bool

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve [dir]",
	Short: "Start the MCP server for querying the type model",
	Long: `Serve extracts the model of dir and answers Model Context Protocol
requests on stdio, so coding assistants can look up types without reading
the sources.

Tools:
  typelink_lookup  one nature by name, with its dependencies and dependents
  typelink_list    registered names, optionally filtered by kind
  typelink_check   unresolved references, cycles and emission order

With --watch the model is re-extracted whenever a source file changes.

Example:
  typelink serve --watch`,
	Args: cobra.MaximumNArgs(1),
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVarP(&serveWatchFlag, "watch", "w", false, "re-extract on file changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	rootDir, err := rootDirFromArgs(args)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	// stdout belongs to the protocol.
	errOut := cmd.ErrOrStderr()
	a, state, err := prepareServe(ctx, rootDir, errOut)
	if err != nil {
		return err
	}
	defer a.Close()

	if serveWatchFlag {
		w, err := analyzer.NewWatcher(a, analyzer.DefaultDebounce, stateUpdater(state))
		if err != nil {
			return errors.Wrap(err, "failed to start watch mode")
		}
		w.Start(ctx)
		defer w.Stop()
	}

	return mcp.NewServer(state, Version).Serve(ctx)
}

// prepareServe runs the initial extraction and wraps it in a server state.
func prepareServe(ctx context.Context, rootDir string, errOut io.Writer) (*analyzer.Analyzer, *mcp.State, error) {
	a, _, err := newAnalyzer(rootDir, &analyzer.NoOpProgressReporter{})
	if err != nil {
		return nil, nil, err
	}

	result, err := a.Run(ctx)
	if err != nil {
		a.Close()
		return nil, nil, errors.Wrap(err, "extraction failed")
	}

	state, err := mcp.NewState(result)
	if err != nil {
		a.Close()
		return nil, nil, err
	}

	fmt.Fprintf(errOut, "Typelink MCP Server\n")
	fmt.Fprintf(errOut, "  Root: %s\n", a.RootDir())
	fmt.Fprintf(errOut, "  Natures: %d (%d skipped)\n", result.Natures.Len(), len(result.Diagnostics))
	return a, state, nil
}

// stateUpdater swaps each successful rerun into state. A failed rerun keeps
// the previous model served.
func stateUpdater(state *mcp.State) analyzer.ResultHandler {
	return func(result *analyzer.Result, err error) {
		if err != nil {
			logger.Logger.Errorw("Re-extraction failed, serving previous model", "error", err)
			return
		}
		if err := state.Update(result); err != nil {
			logger.Logger.Errorw("Failed to update served model", "error", err)
			return
		}
		logger.Logger.Infow("Model updated", "run", result.RunID, "natures", result.Natures.Len())
	}
}
