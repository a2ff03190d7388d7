package harness

// #region config
// Config holds thresholds for gating an evaluation run.
type Config struct {
	MinAccuracy          float64 // fail the run if accuracy falls below this
	MinMacroF1           float64 // fail the run if macro F1 falls below this
	MinClassRecall       float64 // warn if any class recall falls below this
	ConsistencyTolerance float64 // max gap between direct and matrix-derived accuracy
}

// DefaultConfig returns the standard lab gates.
func DefaultConfig() Config {
	return Config{
		MinAccuracy:          0.7,
		MinMacroF1:           0.6,
		MinClassRecall:       0.5,
		ConsistencyTolerance: 1e-9,
	}
}

// #endregion config

// #region metric
// Metric captures a single gate check result.
type Metric struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Pass  bool    `json:"pass"`
}

// #endregion metric
