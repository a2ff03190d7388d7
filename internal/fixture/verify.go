package fixture

import (
	"fmt"
	"math"

	"github.com/dagsvall/dnn-lab/go-eval/internal/harness"
)

// accuracyTolerance bounds the float drift allowed between a recorded
// accuracy and its recomputation.
const accuracyTolerance = 1e-9

// #region result-types

// CaseResult is the verification outcome for one fixture case.
type CaseResult struct {
	CaseID string
	OK     bool
	Got    float64
	Want   float64
	Reason string
}

// Summary aggregates a verification run.
type Summary struct {
	Total  int
	Passed int
	Failed int
}

// #endregion result-types

// #region verify

// Verify recomputes every case in the fixture and compares it against
// the recorded expectations. Sequence cases run the full harness;
// matrix-only cases recompute the derived accuracy.
func Verify(fx Fixture) (Summary, []CaseResult, error) {
	h := harness.New[string](fx.HarnessConfig())

	results := make([]CaseResult, 0, len(fx.Cases))
	var summary Summary

	for _, c := range fx.Cases {
		var res CaseResult
		var err error
		if c.Matrix != nil {
			res = verifyMatrixCase(c)
		} else {
			res, err = verifySequenceCase(h, c)
			if err != nil {
				return Summary{}, nil, fmt.Errorf("case %s: %w", c.CaseID, err)
			}
		}

		summary.Total++
		if res.OK {
			summary.Passed++
		} else {
			summary.Failed++
		}
		results = append(results, res)
	}

	return summary, results, nil
}

func verifySequenceCase(h *harness.Harness[string], c Case) (CaseResult, error) {
	run, err := h.Run(c.Predicted, c.Actual)
	if err != nil {
		return CaseResult{}, err
	}

	res := CaseResult{
		CaseID: c.CaseID,
		OK:     true,
		Got:    run.Accuracy,
		Want:   c.ExpectedAccuracy,
	}
	if math.Abs(run.Accuracy-c.ExpectedAccuracy) > accuracyTolerance {
		res.OK = false
		res.Reason = fmt.Sprintf("accuracy %.6f, expected %.6f", run.Accuracy, c.ExpectedAccuracy)
		return res, nil
	}
	if c.ExpectedPassed != nil && run.Passed != *c.ExpectedPassed {
		res.OK = false
		res.Reason = fmt.Sprintf("gate outcome %v, expected %v (%s)", run.Passed, *c.ExpectedPassed, run.Reason)
	}
	return res, nil
}

func verifyMatrixCase(c Case) CaseResult {
	res := CaseResult{
		CaseID: c.CaseID,
		Want:   c.ExpectedAccuracy,
	}

	acc, err := c.Matrix.Accuracy()
	if err != nil {
		res.Reason = fmt.Sprintf("matrix accuracy: %v", err)
		return res
	}

	res.Got = acc
	if math.Abs(acc-c.ExpectedAccuracy) > accuracyTolerance {
		res.Reason = fmt.Sprintf("accuracy %.6f, expected %.6f", acc, c.ExpectedAccuracy)
		return res
	}
	res.OK = true
	return res
}

// #endregion verify
