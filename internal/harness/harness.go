// Package harness gates classification results against configured
// thresholds, producing the pass/fail report that gets persisted and
// handed to whatever is driving the experiment.
package harness

import (
	"cmp"
	"fmt"
	"math"

	"github.com/dagsvall/dnn-lab/go-eval/internal/metrics"
)

// #region result
// Result is the outcome of running the metric battery on one
// predicted/actual pair.
type Result[L cmp.Ordered] struct {
	Passed   bool
	Metrics  []Metric
	Reason   string
	Accuracy float64
	MacroF1  float64
	Matrix   *metrics.Matrix[L]
	PerClass []metrics.ClassMetrics[L]
}

// #endregion result

// #region harness
// Harness runs the metric battery with a fixed configuration.
type Harness[L cmp.Ordered] struct {
	config Config
}

// New creates a harness with the given configuration.
func New[L cmp.Ordered](config Config) *Harness[L] {
	return &Harness[L]{config: config}
}

// Run computes accuracy, the confusion matrix and per-class metrics
// for the pair, then checks each gate. Per-class recall gates are
// informational only; all other gates block.
func (h *Harness[L]) Run(predicted, actual []L) (Result[L], error) {
	direct, err := metrics.Accuracy(predicted, actual)
	if err != nil {
		return Result[L]{}, fmt.Errorf("accuracy: %w", err)
	}

	m, err := metrics.Confusion(predicted, actual)
	if err != nil {
		return Result[L]{}, fmt.Errorf("confusion matrix: %w", err)
	}

	derived, err := m.Accuracy()
	if err != nil {
		return Result[L]{}, fmt.Errorf("matrix accuracy: %w", err)
	}

	macroF1 := metrics.MacroF1(m)
	perClass := metrics.PerClass(m)

	var checks []Metric
	passed := true
	var failReasons []string

	// 1. Accuracy floor
	accPass := direct >= h.config.MinAccuracy
	checks = append(checks, Metric{Name: "accuracy", Value: direct, Pass: accPass})
	if !accPass {
		passed = false
		failReasons = append(failReasons, fmt.Sprintf("accuracy %.4f below %.4f", direct, h.config.MinAccuracy))
	}

	// 2. Macro F1 floor
	f1Pass := macroF1 >= h.config.MinMacroF1
	checks = append(checks, Metric{Name: "macro_f1", Value: macroF1, Pass: f1Pass})
	if !f1Pass {
		passed = false
		failReasons = append(failReasons, fmt.Sprintf("macro F1 %.4f below %.4f", macroF1, h.config.MinMacroF1))
	}

	// 3. Direct vs matrix-derived accuracy must agree
	gap := math.Abs(direct - derived)
	gapPass := gap <= h.config.ConsistencyTolerance
	checks = append(checks, Metric{Name: "accuracy_consistency", Value: gap, Pass: gapPass})
	if !gapPass {
		passed = false
		failReasons = append(failReasons, fmt.Sprintf("accuracy paths disagree by %.1e", gap))
	}

	// 4. Per-class recall: informational, does not block
	for _, c := range perClass {
		checks = append(checks, Metric{
			Name:  fmt.Sprintf("class_%v_recall", c.Label),
			Value: c.Recall,
			Pass:  c.Recall >= h.config.MinClassRecall,
		})
	}

	reason := "all checks passed"
	if !passed {
		reason = fmt.Sprintf("eval failed: %s", failReasons[0])
		if len(failReasons) > 1 {
			reason = fmt.Sprintf("eval failed: %d checks: %s", len(failReasons), failReasons[0])
		}
	}

	return Result[L]{
		Passed:   passed,
		Metrics:  checks,
		Reason:   reason,
		Accuracy: direct,
		MacroF1:  macroF1,
		Matrix:   m,
		PerClass: perClass,
	}, nil
}

// #endregion harness
