// Package zones locates support and resistance levels from fractal swing
// points. A fractal is a local extremum where the two candles on each side
// are not more extreme; the level that gathered the most touches inside the
// lookback window wins.
package zones

import "fxReversalBot/internal/domain"

// wing is the number of neighbours checked on each side of a fractal
// candidate.
const wing = 2

// Config holds parameters for zone identification.
type Config struct {
	// Lookback is the number of samples scanned for fractal candidates.
	Lookback int
	// TolerancePoints is the touch tolerance expressed in price increments.
	TolerancePoints int
	// Point is the instrument price increment.
	Point float64
}

// Identifier finds the dominant support and resistance zones in a price
// series.
type Identifier struct {
	cfg Config
}

// New creates a zone identifier. Lookback and TolerancePoints must be
// positive and Point must be a positive price increment; the caller
// validates configuration upstream.
func New(cfg Config) *Identifier {
	return &Identifier{cfg: cfg}
}

// MinSamples returns the minimum series length needed to scan the full
// lookback window with complete fractal wings.
func (id *Identifier) MinSamples() int {
	return id.cfg.Lookback + 2*wing + 1
}

// Support locates the dominant support zone in the given lows, ordered
// recent-first. A zero Zone means no extremum qualified, which is a normal
// outcome.
func (id *Identifier) Support(lows []float64) domain.Zone {
	return id.scan(lows, func(center float64, neighbour float64) bool {
		return center <= neighbour
	})
}

// Resistance locates the dominant resistance zone in the given highs,
// ordered recent-first.
func (id *Identifier) Resistance(highs []float64) domain.Zone {
	return id.scan(highs, func(center float64, neighbour float64) bool {
		return center >= neighbour
	})
}

// scan walks the window in ascending age and keeps the first candidate with
// the maximum touch count. Later candidates with an equal count never
// overwrite the incumbent; this scan-order tie-break is part of the design.
func (id *Identifier) scan(samples []float64, extremum func(center, neighbour float64) bool) domain.Zone {
	if len(samples) < id.MinSamples() {
		return domain.Zone{}
	}

	limit := id.cfg.Lookback + wing
	if limit > len(samples)-wing {
		limit = len(samples) - wing
	}
	tolerance := float64(id.cfg.TolerancePoints) * id.cfg.Point

	var best domain.Zone
	for i := wing; i < limit; i++ {
		if !id.isExtremum(samples, i, extremum) {
			continue
		}
		touches := id.countTouches(samples, i, tolerance)
		if touches > best.Touches {
			best = domain.Zone{Price: samples[i], Touches: touches}
		}
	}
	return best
}

func (id *Identifier) isExtremum(samples []float64, i int, extremum func(center, neighbour float64) bool) bool {
	for d := 1; d <= wing; d++ {
		if !extremum(samples[i], samples[i-d]) || !extremum(samples[i], samples[i+d]) {
			return false
		}
	}
	return true
}

// countTouches counts the candidate itself plus every other sample in the
// scan window within tolerance of it.
func (id *Identifier) countTouches(samples []float64, candidate int, tolerance float64) int {
	limit := id.cfg.Lookback + wing
	if limit > len(samples)-wing {
		limit = len(samples) - wing
	}

	touches := 1
	for j := wing; j < limit; j++ {
		if j == candidate {
			continue
		}
		diff := samples[j] - samples[candidate]
		if diff < 0 {
			diff = -diff
		}
		if diff <= tolerance {
			touches++
		}
	}
	return touches
}
