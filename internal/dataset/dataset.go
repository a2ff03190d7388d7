// Package dataset loads evaluation inputs from CSV files. Upstream
// pipelines export either paired labels or raw probabilities; this is
// where row counts and cell contents get validated, before anything
// reaches the metric code.
package dataset

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/dagsvall/dnn-lab/go-eval/internal/metrics"
)

// #region rows

// labelRow is one sample of a label-pair CSV: columns predicted,actual.
type labelRow struct {
	Predicted string `csv:"predicted"`
	Actual    string `csv:"actual"`
}

// probabilityRow is one sample of a probability CSV: columns probability,actual.
type probabilityRow struct {
	Probability float64 `csv:"probability"`
	Actual      int     `csv:"actual"`
}

// #endregion rows

// #region label-pairs

// LoadLabelPairs reads a CSV with predicted,actual columns and returns
// the two aligned label sequences.
func LoadLabelPairs(path string) (predicted, actual []string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var rows []labelRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("%s: %w", path, metrics.ErrDegenerateInput)
	}

	predicted = make([]string, len(rows))
	actual = make([]string, len(rows))
	for i, r := range rows {
		if r.Predicted == "" || r.Actual == "" {
			return nil, nil, fmt.Errorf("%s: row %d has an empty label (expected columns predicted,actual)", path, i+1)
		}
		predicted[i] = r.Predicted
		actual[i] = r.Actual
	}
	return predicted, actual, nil
}

// #endregion label-pairs

// #region probability-pairs

// LoadProbabilityPairs reads a CSV with probability,actual columns, as
// exported by a binary classifier head before thresholding.
func LoadProbabilityPairs(path string) (probs []float64, actual []int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var rows []probabilityRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("%s: %w", path, metrics.ErrDegenerateInput)
	}

	probs = make([]float64, len(rows))
	actual = make([]int, len(rows))
	for i, r := range rows {
		if r.Probability < 0 || r.Probability > 1 {
			return nil, nil, fmt.Errorf("%s: row %d probability %f outside [0,1]", path, i+1, r.Probability)
		}
		probs[i] = r.Probability
		actual[i] = r.Actual
	}
	return probs, actual, nil
}

// #endregion probability-pairs
