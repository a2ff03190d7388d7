// Package metrics computes classification metrics from paired
// predicted/actual label sequences: accuracy, confusion matrices, and
// per-class precision/recall/F1. Every operation is a pure function of
// its inputs; labels may be any ordered type (ints, strings).
package metrics

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// #region errors

var (
	// ErrLengthMismatch reports predicted/actual sequences of unequal length.
	ErrLengthMismatch = errors.New("predicted and actual sequences differ in length")

	// ErrDegenerateInput reports an empty sample set, for which accuracy
	// is undefined. Returned explicitly rather than yielding NaN.
	ErrDegenerateInput = errors.New("no samples to score")

	// ErrNotSquare reports a non-square matrix passed to MatrixAccuracy.
	ErrNotSquare = errors.New("matrix is not square")
)

// #endregion errors

// #region accuracy

// Accuracy returns the fraction of positions where predicted equals
// actual. The two sequences are aligned by index and must have the
// same non-zero length.
func Accuracy[L comparable](predicted, actual []L) (float64, error) {
	if len(predicted) != len(actual) {
		return 0, fmt.Errorf("%w: predicted %d, actual %d", ErrLengthMismatch, len(predicted), len(actual))
	}
	if len(predicted) == 0 {
		return 0, fmt.Errorf("%w: empty sequences", ErrDegenerateInput)
	}

	correct := 0
	for i := range predicted {
		if predicted[i] == actual[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(predicted)), nil
}

// #endregion accuracy

// #region confusion

// Confusion tabulates predicted-vs-actual counts into a K×K matrix,
// where K is the number of distinct labels across both sequences.
// Rows are predicted labels, columns actual labels, both indexed by
// the sorted label set. A label seen in only one sequence still gets
// a row and column.
func Confusion[L cmp.Ordered](predicted, actual []L) (*Matrix[L], error) {
	if len(predicted) != len(actual) {
		return nil, fmt.Errorf("%w: predicted %d, actual %d", ErrLengthMismatch, len(predicted), len(actual))
	}
	if len(predicted) == 0 {
		return nil, fmt.Errorf("%w: empty sequences", ErrDegenerateInput)
	}

	labels := classLabels(predicted, actual)
	index := make(map[L]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}

	counts := mat.NewDense(len(labels), len(labels), nil)
	for i := range predicted {
		r, c := index[predicted[i]], index[actual[i]]
		counts.Set(r, c, counts.At(r, c)+1)
	}

	return &Matrix[L]{Labels: labels, counts: counts}, nil
}

// classLabels returns the sorted set of labels observed in either sequence.
func classLabels[L cmp.Ordered](predicted, actual []L) []L {
	seen := make(map[L]struct{}, len(predicted))
	for _, l := range predicted {
		seen[l] = struct{}{}
	}
	for _, l := range actual {
		seen[l] = struct{}{}
	}

	labels := make([]L, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	slices.Sort(labels)
	return labels
}

// #endregion confusion

// #region matrix-accuracy

// MatrixAccuracy derives accuracy from any square confusion matrix:
// the diagonal sum over the total sum. A zero-total matrix is rejected
// with ErrDegenerateInput.
func MatrixAccuracy(cm mat.Matrix) (float64, error) {
	r, c := cm.Dims()
	if r != c {
		return 0, fmt.Errorf("%w: %dx%d", ErrNotSquare, r, c)
	}
	total := mat.Sum(cm)
	if total == 0 {
		return 0, fmt.Errorf("%w: matrix sums to zero", ErrDegenerateInput)
	}
	return mat.Trace(cm) / total, nil
}

// #endregion matrix-accuracy

// #region per-class

// PerClass computes precision, recall, F1 and support for every class
// in the matrix, in canonical label order. Classes with no predicted
// (or no actual) samples score zero rather than dividing by zero.
func PerClass[L cmp.Ordered](m *Matrix[L]) []ClassMetrics[L] {
	out := make([]ClassMetrics[L], m.Size())
	for i, label := range m.Labels {
		tp := m.At(i, i)

		var rowSum, colSum float64
		for j := 0; j < m.Size(); j++ {
			rowSum += m.At(i, j) // all samples predicted as this class
			colSum += m.At(j, i) // all samples truly of this class
		}

		cm := ClassMetrics[L]{Label: label, Support: int(colSum)}
		if rowSum > 0 {
			cm.Precision = tp / rowSum
		}
		if colSum > 0 {
			cm.Recall = tp / colSum
		}
		if cm.Precision+cm.Recall > 0 {
			cm.F1 = 2 * cm.Precision * cm.Recall / (cm.Precision + cm.Recall)
		}
		out[i] = cm
	}
	return out
}

// MacroF1 returns the unweighted mean of per-class F1 scores.
func MacroF1[L cmp.Ordered](m *Matrix[L]) float64 {
	classes := PerClass(m)
	if len(classes) == 0 {
		return 0
	}
	var sum float64
	for _, c := range classes {
		sum += c.F1
	}
	return sum / float64(len(classes))
}

// #endregion per-class

// #region binarize

// Binarize thresholds probability outputs into 0/1 class labels.
// Values strictly above the threshold become class 1, matching the
// convention of a sigmoid output head cut at 0.5.
func Binarize(probs []float64, threshold float64) []int {
	labels := make([]int, len(probs))
	for i, p := range probs {
		if p > threshold {
			labels[i] = 1
		}
	}
	return labels
}

// #endregion binarize
