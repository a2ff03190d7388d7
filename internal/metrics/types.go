package metrics

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// #region matrix
// Matrix is a K×K confusion matrix over labels of type L. Rows index
// predicted labels, columns index actual labels, both in the canonical
// (sorted) order given by Labels.
type Matrix[L cmp.Ordered] struct {
	// Labels is the canonical index-to-label mapping shared by rows
	// and columns: the sorted set of labels observed in either input.
	Labels []L

	counts *mat.Dense
}

// Size returns K, the number of distinct labels.
func (m *Matrix[L]) Size() int {
	return len(m.Labels)
}

// At returns the count at row i (predicted) and column j (actual).
func (m *Matrix[L]) At(i, j int) float64 {
	return m.counts.At(i, j)
}

// Index returns the row/column index of a label in the canonical order.
func (m *Matrix[L]) Index(label L) (int, bool) {
	return slices.BinarySearch(m.Labels, label)
}

// Count returns the number of samples predicted as the first label
// whose ground truth was the second. Labels absent from the matrix
// count as zero.
func (m *Matrix[L]) Count(predicted, actual L) float64 {
	i, ok := m.Index(predicted)
	if !ok {
		return 0
	}
	j, ok := m.Index(actual)
	if !ok {
		return 0
	}
	return m.counts.At(i, j)
}

// Total returns the sum of all entries, which equals the sample count.
func (m *Matrix[L]) Total() float64 {
	return mat.Sum(m.counts)
}

// Accuracy derives accuracy from the matrix: trace over total.
func (m *Matrix[L]) Accuracy() (float64, error) {
	return MatrixAccuracy(m.counts)
}

// Dense returns the underlying counts for numeric consumers.
func (m *Matrix[L]) Dense() *mat.Dense {
	return m.counts
}

// #endregion matrix

// #region matrix-json

// matrixJSON is the serialized form used by the run store and fixtures.
type matrixJSON[L cmp.Ordered] struct {
	Labels []L         `json:"labels"`
	Counts [][]float64 `json:"counts"`
}

// MarshalJSON serializes the canonical label order and the count grid.
func (m *Matrix[L]) MarshalJSON() ([]byte, error) {
	k := len(m.Labels)
	counts := make([][]float64, k)
	for i := 0; i < k; i++ {
		row := make([]float64, k)
		for j := 0; j < k; j++ {
			row[j] = m.counts.At(i, j)
		}
		counts[i] = row
	}
	return json.Marshal(matrixJSON[L]{Labels: m.Labels, Counts: counts})
}

// UnmarshalJSON rebuilds a matrix from its serialized form.
func (m *Matrix[L]) UnmarshalJSON(data []byte) error {
	var mj matrixJSON[L]
	if err := json.Unmarshal(data, &mj); err != nil {
		return fmt.Errorf("unmarshal matrix: %w", err)
	}
	k := len(mj.Labels)
	if k == 0 {
		return fmt.Errorf("unmarshal matrix: %w", ErrDegenerateInput)
	}
	if len(mj.Counts) != k {
		return fmt.Errorf("unmarshal matrix: %d labels but %d rows", k, len(mj.Counts))
	}
	counts := mat.NewDense(k, k, nil)
	for i, row := range mj.Counts {
		if len(row) != k {
			return fmt.Errorf("unmarshal matrix: row %d has %d columns, want %d", i, len(row), k)
		}
		for j, v := range row {
			counts.Set(i, j, v)
		}
	}
	m.Labels = mj.Labels
	m.counts = counts
	return nil
}

// #endregion matrix-json

// #region class-metrics
// ClassMetrics summarizes one class of a confusion matrix.
type ClassMetrics[L cmp.Ordered] struct {
	Label     L
	Support   int // ground-truth occurrences (column sum)
	Precision float64
	Recall    float64
	F1        float64
}

// #endregion class-metrics
