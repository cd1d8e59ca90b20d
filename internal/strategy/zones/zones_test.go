package zones

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fxReversalBot/internal/domain"
)

func newTestIdentifier() *Identifier {
	return New(Config{Lookback: 10, TolerancePoints: 5, Point: 0.0001})
}

func TestIdentifier_Support(t *testing.T) {
	tests := []struct {
		name     string
		lows     []float64
		expected domain.Zone
	}{
		{
			name: "single fractal low",
			lows: []float64{
				1.2010, 1.2015, 1.2012, 1.2008, 1.1000,
				1.2009, 1.2011, 1.2013, 1.2014, 1.2016,
				1.2017, 1.2018, 1.2019, 1.2020, 1.2021,
			},
			expected: domain.Zone{Price: 1.1000, Touches: 1},
		},
		{
			name: "higher touch count beats earlier candidate",
			lows: []float64{
				1.2010, 1.2012, 1.2011, 1.1100, 1.2013,
				1.2014, 1.1003, 1.2015, 1.2016, 1.1000,
				1.2017, 1.1004, 1.2020, 1.2021, 1.2022,
			},
			expected: domain.Zone{Price: 1.1003, Touches: 3},
		},
		{
			name: "tie keeps the first candidate in scan order",
			lows: []float64{
				1.2010, 1.2012, 1.2011, 1.1000, 1.2013,
				1.2014, 1.2015, 1.2016, 1.2017, 1.1002,
				1.2018, 1.2019, 1.2020, 1.2021, 1.2022,
			},
			expected: domain.Zone{Price: 1.1000, Touches: 2},
		},
		{
			name: "insufficient data yields no zone",
			lows: []float64{
				1.2010, 1.2015, 1.2012, 1.2008, 1.1000,
				1.2009, 1.2011, 1.2013, 1.2014, 1.2016,
			},
			expected: domain.Zone{},
		},
		{
			name: "monotonic series has no fractal",
			lows: []float64{
				1.2001, 1.2002, 1.2003, 1.2004, 1.2005,
				1.2006, 1.2007, 1.2008, 1.2009, 1.2010,
				1.2011, 1.2012, 1.2013, 1.2014, 1.2015,
			},
			expected: domain.Zone{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := newTestIdentifier()
			zone := id.Support(tt.lows)
			assert.InDelta(t, tt.expected.Price, zone.Price, 1e-9)
			assert.Equal(t, tt.expected.Touches, zone.Touches)
		})
	}
}

func TestIdentifier_Resistance(t *testing.T) {
	highs := []float64{
		1.3000, 1.2990, 1.2995, 1.4000, 1.2992,
		1.2991, 1.2989, 1.2988, 1.2987, 1.2986,
		1.2985, 1.2984, 1.2983, 1.2982, 1.2981,
	}

	id := newTestIdentifier()
	zone := id.Resistance(highs)

	assert.InDelta(t, 1.4000, zone.Price, 1e-9)
	assert.Equal(t, 1, zone.Touches)
}

func TestIdentifier_MinSamples(t *testing.T) {
	id := New(Config{Lookback: 20, TolerancePoints: 5, Point: 0.0001})
	assert.Equal(t, 25, id.MinSamples())
}

func TestValidPair(t *testing.T) {
	assert.True(t, domain.ValidPair(domain.Zone{Price: 1.0990, Touches: 2}, domain.Zone{Price: 1.1020, Touches: 3}))
	assert.False(t, domain.ValidPair(domain.Zone{Price: 1.1020, Touches: 2}, domain.Zone{Price: 1.0990, Touches: 3}))
	assert.False(t, domain.ValidPair(domain.Zone{}, domain.Zone{Price: 1.1020, Touches: 1}))
	assert.False(t, domain.ValidPair(domain.Zone{Price: 1.1020, Touches: 1}, domain.Zone{}))
}
