package runstore

import "time"

// #region run-record
// RunRecord is one persisted evaluation run.
type RunRecord struct {
	RunID      string
	Dataset    string
	CreatedAt  time.Time
	Accuracy   float64
	MacroF1    float64
	Passed     bool
	MatrixJSON string // serialized metrics.Matrix (labels + counts)
	ConfigJSON string // harness config active for this run
	Notes      string
}

// #endregion run-record

// #region report-entry
// ReportEntry is a single gate result to log against a run.
type ReportEntry struct {
	Metric string
	Value  float64
	Pass   bool
}

// ReportRow is a stored report_log row.
type ReportRow struct {
	RunID     string    `json:"run_id"`
	Metric    string    `json:"metric"`
	Value     float64   `json:"value"`
	Pass      bool      `json:"pass"`
	CreatedAt time.Time `json:"created_at"`
}

// #endregion report-entry
