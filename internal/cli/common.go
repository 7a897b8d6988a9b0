package cli

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mvp-joe/typelink/internal/analyzer"
	"github.com/mvp-joe/typelink/internal/config"
	"github.com/mvp-joe/typelink/internal/errors"
)

// rootDirFromArgs returns the absolute directory named by the first argument,
// or the working directory when there is none.
func rootDirFromArgs(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve directory")
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", errors.Wrapf(err, "cannot analyze %s", dir)
	}
	if !info.IsDir() {
		return "", errors.Newf("%s is not a directory", dir)
	}
	return abs, nil
}

// signalContext is cancelled on interrupt or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// newAnalyzer loads the configuration of rootDir and builds an analyzer for it.
func newAnalyzer(rootDir string, progress analyzer.ProgressReporter) (*analyzer.Analyzer, *config.Config, error) {
	cfg, err := config.LoadConfigFromDir(rootDir)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to load configuration")
	}

	a, err := analyzer.New(rootDir, cfg, analyzer.WithProgress(progress))
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create analyzer")
	}
	return a, cfg, nil
}

// outputPath picks the flag value when set, otherwise the configured path.
// A relative configured path is taken from rootDir; a relative flag value is
// taken from the working directory.
func outputPath(rootDir, flagValue, configured string) string {
	if flagValue != "" {
		return flagValue
	}
	if configured == "" || filepath.IsAbs(configured) {
		return configured
	}
	return filepath.Join(rootDir, configured)
}
