package domain

import "math"

// NegInf and PosInf are the sentinel endpoints representing -∞ and +∞.
// Using saturating int64 arithmetic keeps the range domain free of a
// separate bignum dependency while still satisfying the "overflow
// saturates rather than wraps" boundary behavior.
const (
	NegInf = math.MinInt64
	PosInf = math.MaxInt64
)

// Range is a closed interval [Lo, Hi], or the distinguished bottom (empty)
// interval when Bottom is true. ⊤ is [NegInf, PosInf].
type Range struct {
	Lo, Hi int64
	Bottom bool
}

// RangeBottom returns ⊥.
func RangeBottom() Range { return Range{Bottom: true} }

// RangeTop returns ⊤.
func RangeTop() Range { return Range{Lo: NegInf, Hi: PosInf} }

// RangePoint returns the single-point interval [n, n].
func RangePoint(n int64) Range { return Range{Lo: n, Hi: n} }

func (r Range) IsBottom() bool { return r.Bottom }
func (r Range) IsTop() bool    { return !r.Bottom && r.Lo == NegInf && r.Hi == PosInf }

// canonicalize collapses any interval with Lo > Hi to ⊥, per the invariant
// that empty intervals are always represented as bottom.
func canonicalize(r Range) Range {
	if r.Bottom {
		return RangeBottom()
	}
	if r.Lo > r.Hi {
		return RangeBottom()
	}
	return r
}

// Contains reports whether n lies within r.
func (r Range) Contains(n int64) bool {
	if r.Bottom {
		return false
	}
	return r.Lo <= n && n <= r.Hi
}

// MayContainZero reports whether 0 is not ruled out by r; a bottom
// range (unreachable) never "may contain" anything.
func (r Range) MayContainZero() bool {
	if r.Bottom {
		return false
	}
	return r.Lo <= 0 && 0 <= r.Hi
}

// RangeJoin computes the smallest interval covering both inputs.
func RangeJoin(a, b Range) Range {
	if a.Bottom {
		return b
	}
	if b.Bottom {
		return a
	}
	return canonicalize(Range{Lo: minI64(a.Lo, b.Lo), Hi: maxI64(a.Hi, b.Hi)})
}

// RangeMeet computes the intersection of two intervals.
func RangeMeet(a, b Range) Range {
	if a.Bottom || b.Bottom {
		return RangeBottom()
	}
	return canonicalize(Range{Lo: maxI64(a.Lo, b.Lo), Hi: minI64(a.Hi, b.Hi)})
}

func RangeEquals(a, b Range) bool {
	if a.Bottom != b.Bottom {
		return false
	}
	if a.Bottom {
		return true
	}
	return a.Lo == b.Lo && a.Hi == b.Hi
}

// RangeWiden applies the standard interval-widening operator: below the
// threshold, join; at or above it, any endpoint that moved outward snaps to
// infinity while endpoints that held steady or moved inward are kept. This
// guarantees termination in at most threshold+2 iterations per header.
func RangeWiden(old, new_ Range, iteration, threshold int) Range {
	if iteration < threshold {
		return RangeJoin(old, new_)
	}
	joined := RangeJoin(old, new_)
	if joined.Bottom {
		return joined
	}
	if old.Bottom {
		return joined
	}
	lo := joined.Lo
	if joined.Lo < old.Lo {
		lo = NegInf
	}
	hi := joined.Hi
	if joined.Hi > old.Hi {
		hi = PosInf
	}
	return canonicalize(Range{Lo: lo, Hi: hi})
}

// ClampWidth forces Lo/Hi to ±∞ once the interval's width exceeds maxWidth,
// a ⊤-collapse independent of the widening threshold. maxWidth <= 0
// disables the clamp. RangeJoin and RangeWiden do not call it, and no
// analysis step applies it.
func (r Range) ClampWidth(maxWidth int64) Range {
	if r.Bottom || maxWidth <= 0 || r.Lo == NegInf || r.Hi == PosInf {
		return r
	}
	if width := r.Hi - r.Lo; width > maxWidth {
		return RangeTop()
	}
	return r
}

func addSat(a, b int64) int64 {
	if a == NegInf || b == NegInf {
		if a == PosInf || b == PosInf {
			return 0 // -∞ + ∞ is unreachable for well-formed intervals; treat as neutral
		}
		return NegInf
	}
	if a == PosInf || b == PosInf {
		return PosInf
	}
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		if b > 0 {
			return PosInf
		}
		return NegInf
	}
	return sum
}

func negSat(a int64) int64 {
	switch a {
	case NegInf:
		return PosInf
	case PosInf:
		return NegInf
	default:
		return -a
	}
}

func mulSat(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0 // 0·∞ = 0 by convention
	}
	aInf := a == NegInf || a == PosInf
	bInf := b == NegInf || b == PosInf
	if aInf || bInf {
		negative := (a < 0) != (b < 0)
		if negative {
			return NegInf
		}
		return PosInf
	}
	result := a * b
	if overflowsMul(a, b, result) {
		if (a < 0) != (b < 0) {
			return NegInf
		}
		return PosInf
	}
	return result
}

func overflowsMul(a, b, result int64) bool {
	if a == 0 || b == 0 {
		return false
	}
	return result/b != a
}

func minI64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func maxI64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// RangeAdd computes [a.Lo+b.Lo, a.Hi+b.Hi] with saturating endpoints.
func RangeAdd(a, b Range) Range {
	if a.Bottom || b.Bottom {
		return RangeBottom()
	}
	return canonicalize(Range{Lo: addSat(a.Lo, b.Lo), Hi: addSat(a.Hi, b.Hi)})
}

// RangeSub computes [a.Lo-b.Hi, a.Hi-b.Lo] with saturating endpoints.
func RangeSub(a, b Range) Range {
	if a.Bottom || b.Bottom {
		return RangeBottom()
	}
	return canonicalize(Range{Lo: addSat(a.Lo, negSat(b.Hi)), Hi: addSat(a.Hi, negSat(b.Lo))})
}

// RangeMul computes the interval product by endpoint enumeration.
func RangeMul(a, b Range) Range {
	if a.Bottom || b.Bottom {
		return RangeBottom()
	}
	candidates := [4]int64{
		mulSat(a.Lo, b.Lo), mulSat(a.Lo, b.Hi),
		mulSat(a.Hi, b.Lo), mulSat(a.Hi, b.Hi),
	}
	lo, hi := candidates[0], candidates[0]
	for _, c := range candidates[1:] {
		lo = minI64(lo, c)
		hi = maxI64(hi, c)
	}
	return canonicalize(Range{Lo: lo, Hi: hi})
}

// RangeDiv computes a/b. If b may contain zero, the result is ⊤ and the
// caller is expected to emit a DivByZero-family diagnostic; otherwise the
// quotient is approximated by reciprocal endpoint enumeration.
func RangeDiv(a, b Range) (result Range, mayDivByZero bool) {
	if a.Bottom || b.Bottom {
		return RangeBottom(), false
	}
	if b.MayContainZero() {
		return RangeTop(), true
	}
	recipLo, recipHi := reciprocalBounds(b)
	return RangeMul(a, Range{Lo: recipLo, Hi: recipHi}), false
}

// reciprocalBounds approximates 1/[b.Lo,b.Hi] for a range that does not
// straddle zero, as a coarse [min,max] pair used only for sign/magnitude
// bracketing rather than exact rational results.
func reciprocalBounds(b Range) (lo, hi int64) {
	if b.Lo > 0 {
		return 0, 1
	}
	return -1, 0
}

// RangeNarrowLess narrows x's range assuming `x < k` held (or failed, via
// the ge variant below), per the comparison-refinement rule.
func RangeNarrowLess(x Range, k int64) Range {
	return RangeMeet(x, Range{Lo: NegInf, Hi: subOne(k)})
}

func RangeNarrowLessEqual(x Range, k int64) Range {
	return RangeMeet(x, Range{Lo: NegInf, Hi: k})
}

func RangeNarrowGreater(x Range, k int64) Range {
	return RangeMeet(x, Range{Lo: addOne(k), Hi: PosInf})
}

func RangeNarrowGreaterEqual(x Range, k int64) Range {
	return RangeMeet(x, Range{Lo: k, Hi: PosInf})
}

func RangeNarrowEqual(x Range, k int64) Range {
	return RangeMeet(x, RangePoint(k))
}

func subOne(k int64) int64 {
	if k == NegInf || k == PosInf {
		return k
	}
	return k - 1
}

func addOne(k int64) int64 {
	if k == NegInf || k == PosInf {
		return k
	}
	return k + 1
}
