package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/typelink/internal/config"
	"github.com/mvp-joe/typelink/internal/errors"
	"github.com/mvp-joe/typelink/internal/storage"
)

var (
	snapshotDBFlag   string
	snapshotRunFlag  string
	snapshotKindFlag string
	snapshotNameFlag string
	snapshotRunsFlag bool
)

// snapshotCmd represents the snapshot command
var snapshotCmd = &cobra.Command{
	Use:   "snapshot [dir]",
	Short: "Inspect runs recorded in a SQLite snapshot",
	Long: `Snapshot reads the database written by 'typelink extract --db' without
parsing any source. By default it lists the natures and skipped declarations
of the newest run.

Examples:
  # Natures of the latest run, using output.database from the config
  typelink snapshot

  # Every recorded run
  typelink snapshot --db typelink.db --runs

  # Enums of one run
  typelink snapshot --run 3f2a... --kind enum

  # The stored definition of one nature
  typelink snapshot --name Session
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSnapshot,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.Flags().StringVar(&snapshotDBFlag, "db", "", "SQLite snapshot path (default: output.database)")
	snapshotCmd.Flags().StringVar(&snapshotRunFlag, "run", "", "run id (default: latest run)")
	snapshotCmd.Flags().StringVar(&snapshotKindFlag, "kind", "", "only natures of this kind (struct, enum, named_func)")
	snapshotCmd.Flags().StringVar(&snapshotNameFlag, "name", "", "print the definition of one nature")
	snapshotCmd.Flags().BoolVar(&snapshotRunsFlag, "runs", false, "list recorded runs")
}

// snapshotOptions carries the resolved flags of one snapshot invocation.
type snapshotOptions struct {
	db       string
	run      string
	kind     string
	name     string
	listRuns bool
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	rootDir, err := rootDirFromArgs(args)
	if err != nil {
		return err
	}

	return executeSnapshot(rootDir, snapshotOptions{
		db:       snapshotDBFlag,
		run:      snapshotRunFlag,
		kind:     snapshotKindFlag,
		name:     snapshotNameFlag,
		listRuns: snapshotRunsFlag,
	}, cmd.OutOrStdout())
}

func executeSnapshot(rootDir string, opts snapshotOptions, out io.Writer) error {
	cfg, err := config.LoadConfigFromDir(rootDir)
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	dbPath := outputPath(rootDir, opts.db, cfg.Output.Database)
	if dbPath == "" {
		return errors.WithHint(errors.New("no snapshot database configured"), "pass --db or set output.database")
	}
	// Open would create an empty database.
	if _, err := os.Stat(dbPath); err != nil {
		return errors.WithHint(errors.Wrapf(err, "snapshot %s", dbPath), "record one with typelink extract --db")
	}

	store, err := storage.Open(dbPath)
	if err != nil {
		return errors.Wrap(err, "failed to open snapshot database")
	}
	defer store.Close()

	if opts.listRuns {
		return printRuns(store, out)
	}

	run, err := selectRun(store, opts.run)
	if err != nil {
		return err
	}

	if opts.name != "" {
		record, err := store.Entry(run.ID, opts.name)
		if err != nil {
			return err
		}
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, record.Definition, "", "  "); err != nil {
			return errors.Wrapf(err, "malformed definition of %s", record.Name)
		}
		fmt.Fprintln(out, pretty.String())
		return nil
	}

	return printRun(store, run, opts.kind, out)
}

// selectRun returns the run with the given id, or the newest one when id is
// empty.
func selectRun(store *storage.Store, id string) (*storage.Run, error) {
	if id == "" {
		return store.LatestRun()
	}

	runs, err := store.Runs()
	if err != nil {
		return nil, err
	}
	for i := range runs {
		if runs[i].ID == id {
			return &runs[i], nil
		}
	}
	return nil, errors.WithHint(errors.Wrapf(storage.ErrNotFound, "run %s", id), "list recorded runs with --runs")
}

func printRuns(store *storage.Store, out io.Writer) error {
	runs, err := store.Runs()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		return storage.ErrNoRuns
	}

	fmt.Fprintf(out, "Recorded runs (%d):\n", len(runs))
	for _, r := range runs {
		fmt.Fprintf(out, "  %s\n", r.ID)
		fmt.Fprintf(out, "    Created:  %s\n", r.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "    Natures:  %d\n", r.EntryCount)
		fmt.Fprintf(out, "    Skipped:  %d\n", r.DiagnosticCount)
		fmt.Fprintf(out, "    Duration: %s\n", r.Duration)
	}
	return nil
}

func printRun(store *storage.Store, run *storage.Run, kind string, out io.Writer) error {
	records, err := store.Entries(run.ID, kind)
	if err != nil {
		return err
	}
	diags, err := store.Diagnostics(run.ID)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Run %s (%s)\n", run.ID, run.RootDir)
	fmt.Fprintf(out, "  Natures: %d, skipped: %d\n", run.EntryCount, run.DiagnosticCount)

	fmt.Fprintln(out)
	for _, r := range records {
		line := fmt.Sprintf("  %-24s %-10s", r.Name, r.Kind)
		switch {
		case r.Flat:
			line += " flat"
		case r.SelfReturned:
			line += " self"
		}
		if r.File != "" {
			line += fmt.Sprintf("  %s:%d", r.File, r.Line)
		}
		fmt.Fprintln(out, line)
	}

	if len(diags) > 0 {
		fmt.Fprintf(out, "\nSkipped declarations (%d):\n", len(diags))
		for _, d := range diags {
			fmt.Fprintf(out, "  %s\n", d.String())
		}
	}
	return nil
}
