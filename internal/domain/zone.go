package domain

// Zone is a support or resistance level derived from a fractal extremum.
// Touches counts how many other samples in the lookback window sat within
// the touch tolerance of the level. The zero Zone means "no zone found",
// which is a normal outcome, not an error.
type Zone struct {
	Price   float64
	Touches int
}

// IsZero reports whether no zone was identified.
func (z Zone) IsZero() bool {
	return z.Price == 0
}

// ValidPair reports whether support and resistance form a usable pair:
// both present and support strictly below resistance.
func ValidPair(support, resistance Zone) bool {
	return support.Price > 0 && resistance.Price > 0 && support.Price < resistance.Price
}
