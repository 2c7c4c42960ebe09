package montecarlo

import (
	"errors"
	"strings"

	"github.com/aybabtme/uniplot/histogram"
)

// HistogramString renders the distribution of recorded draws as an
// ASCII histogram for shell display.
func HistogramString(draws []float64, bins int) (string, error) {
	if len(draws) == 0 {
		return "", errors.New("no draws recorded; enable draw recording first")
	}
	if bins <= 0 {
		bins = 15
	}
	h := histogram.Hist(bins, draws)
	var sb strings.Builder
	if err := histogram.Fprint(&sb, h, histogram.Linear(40)); err != nil {
		return "", err
	}
	return sb.String(), nil
}
