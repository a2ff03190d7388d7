package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/dagsvall/dnn-lab/go-eval/internal/fixture"
	"github.com/dagsvall/dnn-lab/go-eval/internal/metrics"
	"github.com/dagsvall/dnn-lab/go-eval/internal/runstore"
	_ "modernc.org/sqlite"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to eval_runs.db")
	last := flag.Int("last", 4, "number of most recent runs to export")
	outPath := flag.String("out", "", "output fixture JSON path")
	flag.Parse()

	if *dbPath == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db path/to/eval_runs.db --out path/to/fixture.json [--last N]")
		os.Exit(2)
	}

	if err := run(*dbPath, *last, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region extract

func run(dbPath string, last int, outPath string) error {
	store, err := runstore.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	runs, err := store.ListRuns(last)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		return fmt.Errorf("no runs found in %s", dbPath)
	}

	cases := make([]fixture.Case, 0, len(runs))
	for _, rec := range runs {
		var m metrics.Matrix[string]
		if err := json.Unmarshal([]byte(rec.MatrixJSON), &m); err != nil {
			// Skip rows whose matrix cannot be decoded; the rest still export.
			fmt.Fprintf(os.Stderr, "skipping %s: bad matrix: %v\n", rec.RunID, err)
			continue
		}
		cases = append(cases, fixture.Case{
			CaseID:           rec.RunID,
			Matrix:           &m,
			ExpectedAccuracy: rec.Accuracy,
		})
	}
	if len(cases) == 0 {
		return fmt.Errorf("no exportable runs in last %d entries", last)
	}

	fmt.Printf("Found %d exportable runs\n", len(cases))

	fx := fixture.Fixture{
		Description: fmt.Sprintf("Run store export: %d most recent evaluation runs", len(cases)),
		Cases:       cases,
	}

	if err := fixture.Write(fx, outPath); err != nil {
		return err
	}
	fmt.Printf("Wrote fixture to %s (%d cases)\n", outPath, len(cases))
	return nil
}

// #endregion extract
