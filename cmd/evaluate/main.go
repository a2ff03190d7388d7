package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/dagsvall/dnn-lab/go-eval/internal/dataset"
	"github.com/dagsvall/dnn-lab/go-eval/internal/fixture"
	"github.com/dagsvall/dnn-lab/go-eval/internal/harness"
	"github.com/dagsvall/dnn-lab/go-eval/internal/metrics"
	"github.com/dagsvall/dnn-lab/go-eval/internal/runstore"
	_ "modernc.org/sqlite"
)

// #region main

func main() {
	defaults := harness.DefaultConfig()

	dataPath := flag.String("data", "", "label CSV with predicted,actual columns")
	probsPath := flag.String("probs", "", "probability CSV with probability,actual columns")
	threshold := flag.Float64("threshold", 0.5, "decision threshold for --probs")
	dbPath := flag.String("db", os.Getenv("EVAL_DB"), "optional eval_runs.db to persist the run (defaults to $EVAL_DB)")
	minAccuracy := flag.Float64("min-accuracy", defaults.MinAccuracy, "fail the run below this accuracy")
	minMacroF1 := flag.Float64("min-macro-f1", defaults.MinMacroF1, "fail the run below this macro F1")
	minClassRecall := flag.Float64("min-class-recall", defaults.MinClassRecall, "warn below this per-class recall")
	notes := flag.String("notes", "", "free-form note stored with the run")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if (*dataPath == "" && *probsPath == "") || (*dataPath != "" && *probsPath != "") {
		fmt.Fprintln(os.Stderr, "usage: evaluate --data labels.csv [--db eval_runs.db] [--json]")
		fmt.Fprintln(os.Stderr, "       evaluate --probs probs.csv [--threshold 0.5] [--db eval_runs.db] [--json]")
		os.Exit(2)
	}

	config := harness.Config{
		MinAccuracy:          *minAccuracy,
		MinMacroF1:           *minMacroF1,
		MinClassRecall:       *minClassRecall,
		ConsistencyTolerance: defaults.ConsistencyTolerance,
	}

	passed, err := run(*dataPath, *probsPath, *threshold, *dbPath, *notes, config, *jsonOut)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if !passed {
		os.Exit(1)
	}
}

// #endregion main

// #region run

func run(dataPath, probsPath string, threshold float64, dbPath, notes string, config harness.Config, jsonOut bool) (bool, error) {
	predicted, actual, sourcePath, err := loadLabels(dataPath, probsPath, threshold)
	if err != nil {
		return false, err
	}

	h := harness.New[string](config)
	result, err := h.Run(predicted, actual)
	if err != nil {
		return false, err
	}

	var runID string
	if dbPath != "" {
		runID, err = persist(dbPath, sourcePath, notes, config, result)
		if err != nil {
			return false, err
		}
	}

	if jsonOut {
		if err := printJSON(buildOutput(sourcePath, runID, len(predicted), result)); err != nil {
			return false, err
		}
	} else {
		printTable(sourcePath, runID, len(predicted), result)
	}
	return result.Passed, nil
}

func loadLabels(dataPath, probsPath string, threshold float64) (predicted, actual []string, sourcePath string, err error) {
	if dataPath != "" {
		predicted, actual, err = dataset.LoadLabelPairs(dataPath)
		return predicted, actual, dataPath, err
	}

	probs, actualInts, err := dataset.LoadProbabilityPairs(probsPath)
	if err != nil {
		return nil, nil, "", err
	}
	predictedInts := metrics.Binarize(probs, threshold)

	predicted = make([]string, len(predictedInts))
	actual = make([]string, len(actualInts))
	for i := range predictedInts {
		predicted[i] = strconv.Itoa(predictedInts[i])
		actual[i] = strconv.Itoa(actualInts[i])
	}
	return predicted, actual, probsPath, nil
}

// #endregion run

// #region persist

func persist(dbPath, sourcePath, notes string, config harness.Config, result harness.Result[string]) (string, error) {
	store, err := runstore.NewStore(dbPath)
	if err != nil {
		return "", fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	matrixJSON, err := json.Marshal(result.Matrix)
	if err != nil {
		return "", fmt.Errorf("marshal matrix: %w", err)
	}
	configJSON, err := json.Marshal(fixture.FixtureConfig{
		MinAccuracy:          config.MinAccuracy,
		MinMacroF1:           config.MinMacroF1,
		MinClassRecall:       config.MinClassRecall,
		ConsistencyTolerance: config.ConsistencyTolerance,
	})
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}

	reports := make([]runstore.ReportEntry, len(result.Metrics))
	for i, m := range result.Metrics {
		reports[i] = runstore.ReportEntry{Metric: m.Name, Value: m.Value, Pass: m.Pass}
	}

	saved, err := store.SaveRun(runstore.RunRecord{
		Dataset:    sourcePath,
		Accuracy:   result.Accuracy,
		MacroF1:    result.MacroF1,
		Passed:     result.Passed,
		MatrixJSON: string(matrixJSON),
		ConfigJSON: string(configJSON),
		Notes:      notes,
	}, reports)
	if err != nil {
		return "", fmt.Errorf("save run: %w", err)
	}
	return saved.RunID, nil
}

// #endregion persist

// #region output

type classOutput struct {
	Label     string  `json:"label"`
	Support   int     `json:"support"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

type evalOutput struct {
	Dataset  string           `json:"dataset"`
	RunID    string           `json:"run_id,omitempty"`
	Samples  int              `json:"samples"`
	Accuracy float64          `json:"accuracy"`
	MacroF1  float64          `json:"macro_f1"`
	Passed   bool             `json:"passed"`
	Reason   string           `json:"reason"`
	Labels   []string         `json:"labels"`
	Matrix   [][]float64      `json:"matrix"`
	Classes  []classOutput    `json:"classes"`
	Gates    []harness.Metric `json:"gates"`
}

func buildOutput(sourcePath, runID string, samples int, result harness.Result[string]) evalOutput {
	k := result.Matrix.Size()
	grid := make([][]float64, k)
	for i := 0; i < k; i++ {
		grid[i] = make([]float64, k)
		for j := 0; j < k; j++ {
			grid[i][j] = result.Matrix.At(i, j)
		}
	}

	classes := make([]classOutput, len(result.PerClass))
	for i, c := range result.PerClass {
		classes[i] = classOutput{
			Label:     c.Label,
			Support:   c.Support,
			Precision: c.Precision,
			Recall:    c.Recall,
			F1:        c.F1,
		}
	}

	return evalOutput{
		Dataset:  sourcePath,
		RunID:    runID,
		Samples:  samples,
		Accuracy: result.Accuracy,
		MacroF1:  result.MacroF1,
		Passed:   result.Passed,
		Reason:   result.Reason,
		Labels:   result.Matrix.Labels,
		Matrix:   grid,
		Classes:  classes,
		Gates:    result.Metrics,
	}
}

func printTable(sourcePath, runID string, samples int, result harness.Result[string]) {
	fmt.Printf("Dataset:   %s\n", sourcePath)
	fmt.Printf("Samples:   %d\n", samples)
	fmt.Printf("Accuracy:  %.4f\n", result.Accuracy)
	fmt.Printf("Macro F1:  %.4f\n", result.MacroF1)
	status := "PASS"
	if !result.Passed {
		status = "FAIL"
	}
	fmt.Printf("Result:    %s (%s)\n", status, result.Reason)
	if runID != "" {
		fmt.Printf("Run ID:    %s\n", runID)
	}

	fmt.Printf("\nConfusion matrix (rows = predicted, cols = actual):\n")
	printMatrix(result.Matrix)

	fmt.Printf("\nPer-class:\n")
	fmt.Printf("  %-10s  %7s  %9s  %7s  %7s\n", "Label", "Support", "Precision", "Recall", "F1")
	for _, c := range result.PerClass {
		fmt.Printf("  %-10s  %7d  %9.4f  %7.4f  %7.4f\n", c.Label, c.Support, c.Precision, c.Recall, c.F1)
	}

	fmt.Printf("\nGates:\n")
	for _, m := range result.Metrics {
		mark := "pass"
		if !m.Pass {
			mark = "FAIL"
		}
		fmt.Printf("  %-24s  %10.4f  %s\n", m.Name, m.Value, mark)
	}
}

func printMatrix(m *metrics.Matrix[string]) {
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
