// Package indicators provides the pure indicator computations the detection
// pipeline needs, backed by the cinar/indicator library so the logic is
// testable without a live platform.
package indicators

import (
	"fmt"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
)

// macdMinInput is the number of closes the standard 12/26/9 MACD needs
// before it produces stable values.
const macdMinInput = 35

// MACD computes the MACD main and signal lines with the standard 12/26/9
// periods over closes ordered recent-first, and returns both lines
// recent-first. The strategy was designed against these fixed periods; they
// are not tunable.
func MACD(closes []float64) (main, signal []float64, err error) {
	if len(closes) < macdMinInput {
		return nil, nil, fmt.Errorf("not enough closes for MACD: need %d, got %d", macdMinInput, len(closes))
	}

	chronological := reversed(closes)

	macd := trend.NewMacd[float64]()
	mainCh, signalCh := macd.Compute(helper.SliceToChan(chronological))

	// Both output channels must be drained or the pipeline blocks.
	done := make(chan struct{})
	var signalChrono []float64
	go func() {
		signalChrono = helper.ChanToSlice(signalCh)
		close(done)
	}()
	mainChrono := helper.ChanToSlice(mainCh)
	<-done

	return reversed(mainChrono), reversed(signalChrono), nil
}

func reversed(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[len(values)-1-i] = v
	}
	return out
}
