package domain

import "time"

// Signal is the composite outcome of one evaluation cycle. It is transient:
// produced, acted on and discarded within a single cycle, never carried as
// state across cycles.
type Signal struct {
	Symbol          string
	At              time.Time
	Support         Zone
	Resistance      Zone
	Spread          float64
	BearishReversal bool
	MACDConfirmed   bool
	FVGAligned      bool
	SpreadOK        bool
}

// Confirmed reports whether every component of the composite passed.
func (s Signal) Confirmed() bool {
	return s.BearishReversal && s.MACDConfirmed && s.FVGAligned && s.SpreadOK &&
		ValidPair(s.Support, s.Resistance)
}
