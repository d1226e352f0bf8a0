package order

import "github.com/shopspring/decimal"

// ProgressResult is the normalized rendering of a (value, maximum) pair.
type ProgressResult struct {
	Percent float64
	Over    bool
	Under   bool
}

// Progress maps a (value, maximum) pair to a percentage in [0, 100]. A
// maximum of zero (or less, or missing) is treated as complete so there
// is never a division by zero. Values past the maximum clamp the percent
// at 100 but set the Over flag; short values set Under.
func Progress(value, maximum float64) ProgressResult {
	if maximum <= 0 {
		return ProgressResult{Percent: 100}
	}
	p := ProgressResult{}
	ratio := qty(value).Div(qty(maximum))
	pct, _ := ratio.Mul(decimal.NewFromInt(100)).Round(1).Float64()
	switch {
	case value > maximum:
		p.Percent = 100
		p.Over = true
	case value < maximum:
		p.Percent = pct
		p.Under = true
	default:
		p.Percent = 100
	}
	return p
}

// CompareProgress is the stable sort key for two progress entries:
// entries where both values are zero order by maximum ascending,
// otherwise by value/maximum ascending. Table sort behavior depends on
// this exact rule.
func CompareProgress(value1, max1, value2, max2 float64) int {
	if value1 == 0 && value2 == 0 {
		return decimal.NewFromFloat(max1).Cmp(decimal.NewFromFloat(max2))
	}
	return fraction(value1, max1).Cmp(fraction(value2, max2))
}

func fraction(value, maximum float64) decimal.Decimal {
	if maximum <= 0 {
		// No demand counts as fully complete for ordering purposes.
		return decimal.NewFromInt(1)
	}
	return qty(value).Div(qty(maximum))
}
