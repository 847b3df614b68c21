package aggregation

// RoundDisplay computes the presentation-rounded counterpart of a raw
// aggregate total: values up to 100 pass through, up to 1000 round to the
// nearest ten, larger values to the nearest hundred. A value that rounds to
// zero is suppressed to nil so consumers can tell it from a true zero. The
// rounded value is for display only and must never feed further aggregation.
func RoundDisplay(v *int) *int {
	if v == nil {
		return nil
	}

	n := *v
	sign := 1
	if n < 0 {
		sign = -1
		n = -n
	}

	switch {
	case n <= 100:
		// unchanged
	case n <= 1000:
		n = roundToNearest(n, 10)
	default:
		n = roundToNearest(n, 100)
	}

	if n == 0 {
		return nil
	}
	rounded := sign * n
	return &rounded
}

func roundToNearest(n, unit int) int {
	return (n + unit/2) / unit * unit
}
