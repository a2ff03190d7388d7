package harness

import (
	"errors"
	"testing"

	"github.com/dagsvall/dnn-lab/go-eval/internal/metrics"
)

func TestRunPassesOnGoodPredictions(t *testing.T) {
	h := New[int](DefaultConfig())

	result, err := h.Run([]int{0, 1, 1, 0, 1}, []int{0, 1, 0, 0, 1})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.Passed {
		t.Fatalf("expected pass at 0.8 accuracy, got fail: %s", result.Reason)
	}
	if result.Accuracy != 0.8 {
		t.Fatalf("expected accuracy 0.8, got %f", result.Accuracy)
	}
	if len(result.Metrics) == 0 {
		t.Fatal("expected metrics")
	}
}

func TestRunFailsBelowAccuracyFloor(t *testing.T) {
	config := DefaultConfig()
	config.MinAccuracy = 0.9
	h := New[int](config)

	result, err := h.Run([]int{0, 1, 1, 0, 1}, []int{0, 1, 0, 0, 1})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Passed {
		t.Fatal("expected fail below accuracy floor")
	}

	var found bool
	for _, m := range result.Metrics {
		if m.Name == "accuracy" && !m.Pass {
			found = true
		}
	}
	if !found {
		t.Fatal("expected accuracy metric marked as failed")
	}
}

func TestRunFailsBelowMacroF1Floor(t *testing.T) {
	config := DefaultConfig()
	config.MinAccuracy = 0.0
	config.MinMacroF1 = 0.99
	h := New[int](config)

	result, err := h.Run([]int{0, 1, 1, 0, 1}, []int{0, 1, 0, 0, 1})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Passed {
		t.Fatal("expected fail below macro F1 floor")
	}
}

func TestRunClassRecallInformationalOnly(t *testing.T) {
	config := DefaultConfig()
	config.MinAccuracy = 0.0
	config.MinMacroF1 = 0.0
	config.MinClassRecall = 1.0
	h := New[int](config)

	// Class 0 recall is 2/3 — below the floor but never blocking.
	result, err := h.Run([]int{0, 1, 1, 0, 1}, []int{0, 1, 0, 0, 1})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.Passed {
		t.Fatalf("class recall should be informational, got fail: %s", result.Reason)
	}

	var flagged bool
	for _, m := range result.Metrics {
		if m.Name == "class_0_recall" && !m.Pass {
			flagged = true
		}
	}
	if !flagged {
		t.Fatal("expected class_0_recall to show pass=false")
	}
}

func TestRunMetricCount(t *testing.T) {
	h := New[int](DefaultConfig())

	result, err := h.Run([]int{0, 1, 1, 0, 1}, []int{0, 1, 0, 0, 1})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// accuracy + macro_f1 + consistency + one recall per class
	if len(result.Metrics) != 5 {
		t.Fatalf("expected 5 metrics, got %d", len(result.Metrics))
	}
}

func TestRunReasonNamesFirstFailure(t *testing.T) {
	config := DefaultConfig()
	config.MinAccuracy = 1.0
	config.MinMacroF1 = 1.0
	h := New[string](config)

	result, err := h.Run([]string{"a", "b"}, []string{"b", "a"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Passed {
		t.Fatal("expected fail")
	}
	if result.Reason == "" || result.Reason == "all checks passed" {
		t.Fatalf("expected failure reason, got %q", result.Reason)
	}
}

func TestRunLengthMismatch(t *testing.T) {
	h := New[int](DefaultConfig())

	_, err := h.Run([]int{0, 1}, []int{0})
	if !errors.Is(err, metrics.ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch, got %v", err)
	}
}

func TestRunEmptyInput(t *testing.T) {
	h := New[int](DefaultConfig())

	_, err := h.Run(nil, nil)
	if !errors.Is(err, metrics.ErrDegenerateInput) {
		t.Fatalf("expected ErrDegenerateInput, got %v", err)
	}
}

func TestRunCarriesMatrixAndPerClass(t *testing.T) {
	h := New[string](DefaultConfig())

	result, err := h.Run([]string{"a", "b", "a"}, []string{"a", "b", "b"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Matrix == nil || result.Matrix.Size() != 2 {
		t.Fatal("expected 2x2 matrix in result")
	}
	if len(result.PerClass) != 2 {
		t.Fatalf("expected 2 per-class entries, got %d", len(result.PerClass))
	}
}
