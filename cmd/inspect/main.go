package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/dagsvall/dnn-lab/go-eval/internal/metrics"
	"github.com/dagsvall/dnn-lab/go-eval/internal/runstore"
	_ "modernc.org/sqlite"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to eval_runs.db")
	last := flag.Int("last", 20, "show N most recent runs")
	runID := flag.String("run", "", "show single run detail")
	best := flag.Bool("best", false, "show the best run on record")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" || (*runID != "" && *best) {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/eval_runs.db [--last N] [--run id] [--best] [--json]")
		os.Exit(2)
	}

	store, err := runstore.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	switch {
	case *runID != "":
		err = runDetailMode(store, *runID, *jsonOut)
	case *best:
		err = runBestMode(store, *jsonOut)
	default:
		err = runListMode(store, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	RunID     string  `json:"run_id"`
	Dataset   string  `json:"dataset"`
	Accuracy  float64 `json:"accuracy"`
	MacroF1   float64 `json:"macro_f1"`
	Passed    bool    `json:"passed"`
	CreatedAt string  `json:"created_at"`
}

func runListMode(store *runstore.Store, last int, jsonOut bool) error {
	runs, err := store.ListRuns(last)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "no runs found")
		return nil
	}

	rows := make([]listRow, len(runs))
	for i, r := range runs {
		rows[i] = listRow{
			RunID:     r.RunID,
			Dataset:   r.Dataset,
			Accuracy:  r.Accuracy,
			MacroF1:   r.MacroF1,
			Passed:    r.Passed,
			CreatedAt: r.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-12s  %-24s  %8s  %8s  %-6s  %s\n",
		"Run", "Dataset", "Accuracy", "Macro F1", "Result", "Time")
	fmt.Printf("%-12s+-%-24s+-%8s+-%8s+-%-6s+-%s\n",
		"------------", "------------------------", "--------", "--------", "------", "--------------------")
	for _, r := range rows {
		fmt.Printf("%-12s  %-24s  %8.4f  %8.4f  %-6s  %s\n",
			shortID(r.RunID), truncate(r.Dataset, 24), r.Accuracy, r.MacroF1, passMark(r.Passed), r.CreatedAt)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type detailOutput struct {
	RunID     string               `json:"run_id"`
	Dataset   string               `json:"dataset"`
	CreatedAt string               `json:"created_at"`
	Accuracy  float64              `json:"accuracy"`
	MacroF1   float64              `json:"macro_f1"`
	Passed    bool                 `json:"passed"`
	Notes     string               `json:"notes,omitempty"`
	Config    json.RawMessage      `json:"config,omitempty"`
	Labels    []string             `json:"labels"`
	Matrix    [][]float64          `json:"matrix"`
	Reports   []runstore.ReportRow `json:"reports,omitempty"`
}

func runBestMode(store *runstore.Store, jsonOut bool) error {
	rec, err := store.GetBest()
	if err != nil {
		return err
	}
	return showRun(store, rec, jsonOut)
}

func runDetailMode(store *runstore.Store, runID string, jsonOut bool) error {
	rec, err := store.GetRun(runID)
	if err != nil {
		return err
	}
	return showRun(store, rec, jsonOut)
}

func showRun(store *runstore.Store, rec runstore.RunRecord, jsonOut bool) error {
	var m metrics.Matrix[string]
	if err := json.Unmarshal([]byte(rec.MatrixJSON), &m); err != nil {
		return fmt.Errorf("stored matrix for %s: %w", rec.RunID, err)
	}

	reports, err := store.Reports(rec.RunID)
	if err != nil {
		return err
	}

	out := detailOutput{
		RunID:     rec.RunID,
		Dataset:   rec.Dataset,
		CreatedAt: rec.CreatedAt.Format("2006-01-02T15:04:05Z"),
		Accuracy:  rec.Accuracy,
		MacroF1:   rec.MacroF1,
		Passed:    rec.Passed,
		Notes:     rec.Notes,
		Labels:    m.Labels,
		Reports:   reports,
	}
	if rec.ConfigJSON != "" {
		out.Config = json.RawMessage(rec.ConfigJSON)
	}
	out.Matrix = make([][]float64, m.Size())
	for i := 0; i < m.Size(); i++ {
		out.Matrix[i] = make([]float64, m.Size())
		for j := 0; j < m.Size(); j++ {
			out.Matrix[i][j] = m.At(i, j)
		}
	}

	if jsonOut {
		return printJSON(out)
	}

	fmt.Printf("Run:       %s\n", out.RunID)
	fmt.Printf("Dataset:   %s\n", out.Dataset)
	fmt.Printf("Created:   %s\n", out.CreatedAt)
	fmt.Printf("Accuracy:  %.4f\n", out.Accuracy)
	fmt.Printf("Macro F1:  %.4f\n", out.MacroF1)
	fmt.Printf("Result:    %s\n", passMark(out.Passed))
	if out.Notes != "" {
		fmt.Printf("Notes:     %s\n", out.Notes)
	}

	fmt.Printf("\nConfusion matrix (rows = predicted, cols = actual):\n")
	fmt.Printf("  %-10s", "")
	for _, l := range m.Labels {
		fmt.Printf("  %8s", l)
	}
	fmt.Println()
	for i, l := range m.Labels {
		fmt.Printf("  %-10s", l)
		for j := range m.Labels {
			fmt.Printf("  %8.0f", m.At(i, j))
		}
		fmt.Println()
	}

	if len(reports) > 0 {
		fmt.Printf("\nGates:\n")
		for _, r := range reports {
			fmt.Printf("  %-24s  %10.4f  %s\n", r.Metric, r.Value, passMark(r.Pass))
		}
	}
	return nil
}

// #endregion detail-mode

// #region output

func passMark(passed bool) string {
	if passed {
		return "pass"
	}
	return "FAIL"
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-1] + "…"
	}
	return s
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// #endregion output
