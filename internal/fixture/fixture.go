// Package fixture loads and verifies golden evaluation fixtures:
// recorded prediction/label cases with their expected scores, replayed
// to catch regressions in the metric code or in exported runs.
package fixture

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dagsvall/dnn-lab/go-eval/internal/harness"
	"github.com/dagsvall/dnn-lab/go-eval/internal/metrics"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a verification fixture.
type Fixture struct {
	Description string        `json:"description"`
	Config      FixtureConfig `json:"config"`
	Cases       []Case        `json:"cases"`
}

// FixtureConfig mirrors harness.Config with JSON tags. A zero value
// means "use the default gates".
type FixtureConfig struct {
	MinAccuracy          float64 `json:"min_accuracy"`
	MinMacroF1           float64 `json:"min_macro_f1"`
	MinClassRecall       float64 `json:"min_class_recall"`
	ConsistencyTolerance float64 `json:"consistency_tolerance"`
}

// Case is one golden evaluation case. Hand-written cases carry the raw
// predicted/actual sequences; cases exported from the run store carry
// only the stored confusion matrix.
type Case struct {
	CaseID           string                  `json:"case_id"`
	Predicted        []string                `json:"predicted,omitempty"`
	Actual           []string                `json:"actual,omitempty"`
	Matrix           *metrics.Matrix[string] `json:"matrix,omitempty"`
	ExpectedAccuracy float64                 `json:"expected_accuracy"`
	ExpectedPassed   *bool                   `json:"expected_passed,omitempty"`
}

// #endregion fixture-types

// #region load

// Load reads and validates a fixture JSON file.
func Load(path string) (Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("read fixture: %w", err)
	}

	var fx Fixture
	if err := json.Unmarshal(data, &fx); err != nil {
		return Fixture{}, fmt.Errorf("parse fixture: %w", err)
	}

	if len(fx.Cases) == 0 {
		return Fixture{}, fmt.Errorf("fixture %s has no cases", path)
	}
	for i, c := range fx.Cases {
		if c.CaseID == "" {
			return Fixture{}, fmt.Errorf("case %d has no case_id", i)
		}
		hasSequences := len(c.Predicted) > 0 || len(c.Actual) > 0
		if hasSequences && c.Matrix != nil {
			return Fixture{}, fmt.Errorf("case %s: sequences and matrix are mutually exclusive", c.CaseID)
		}
		if !hasSequences && c.Matrix == nil {
			return Fixture{}, fmt.Errorf("case %s: needs either predicted/actual or matrix", c.CaseID)
		}
	}
	return fx, nil
}

// HarnessConfig converts the fixture config to a harness config, using
// the defaults when the fixture carries none.
func (fx Fixture) HarnessConfig() harness.Config {
	if (fx.Config == FixtureConfig{}) {
		return harness.DefaultConfig()
	}
	return harness.Config{
		MinAccuracy:          fx.Config.MinAccuracy,
		MinMacroF1:           fx.Config.MinMacroF1,
		MinClassRecall:       fx.Config.MinClassRecall,
		ConsistencyTolerance: fx.Config.ConsistencyTolerance,
	}
}

// #endregion load

// #region write

// Write serializes a fixture to disk, indented for hand editing.
func Write(fx Fixture, path string) error {
	data, err := json.MarshalIndent(fx, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// #endregion write
