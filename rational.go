package vmix

// Rational is a nonnegative fraction used for layout coordinates, keeping a
// LayoutSolution resolution-independent. Denominator must be nonzero.
type Rational struct {
	Numerator   uint32
	Denominator uint32
}

// tweenSpeed controls how much of the remaining distance a tween step
// closes each tick: each tick closes 1/tweenSpeed of the residual.
const tweenSpeed = 5

// minTweenDenominator is the floor shared denominator used when
// interpolating between two Rationals, chosen to avoid precision loss when
// animating between two low-denominator fractions.
const minTweenDenominator = 1000

// normalizeTo rescales r to the given denominator, truncating any
// remainder. d must be nonzero.
func (r Rational) normalizeTo(d uint32) Rational {
	if r.Denominator == d {
		return r
	}
	n := uint64(r.Numerator) * uint64(d) / uint64(r.Denominator)
	return Rational{Numerator: uint32(n), Denominator: d}
}

// toPixels maps r against a pixel extent, truncating toward zero.
func (r Rational) toPixels(extent int) int {
	if r.Denominator == 0 {
		return 0
	}
	return int(uint64(r.Numerator) * uint64(extent) / uint64(r.Denominator))
}

// sharedDenominator picks the denominator two Rationals should be
// normalized to before interpolating between them, per the tween rule.
func sharedDenominator(a, b Rational) uint32 {
	d := a.Denominator
	if b.Denominator > d {
		d = b.Denominator
	}
	if d < minTweenDenominator {
		d = minTweenDenominator
	}
	return d
}

// tweenRational advances cur one step toward target, snapping to target
// once the residual is too small for the truncating division to make
// further progress.
func tweenRational(cur, target Rational) Rational {
	d := sharedDenominator(cur, target)
	c := cur.normalizeTo(d)
	t := target.normalizeTo(d)

	diff := int64(t.Numerator) - int64(c.Numerator)
	if diff == 0 {
		return c
	}
	step := diff / tweenSpeed
	if step == 0 {
		return t
	}
	return Rational{Numerator: uint32(int64(c.Numerator) + step), Denominator: d}
}
