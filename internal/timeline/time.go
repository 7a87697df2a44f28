package timeline

import (
	"fmt"
	"math"
	"math/big"
)

// TimeValue is a rational timestamp or duration: Value/Timescale seconds.
type TimeValue struct {
	Value     int64 `yaml:"value"`
	Timescale int32 `yaml:"timescale"`
}

// New returns value/timescale.
func New(value int64, timescale int32) TimeValue {
	return TimeValue{Value: value, Timescale: timescale}
}

// Zero returns a zero duration on the given timescale.
func Zero(timescale int32) TimeValue {
	return TimeValue{Value: 0, Timescale: timescale}
}

// FromSeconds rounds seconds to the nearest tick of timescale.
// Only use it at the edges (flags, preferences); never for arithmetic.
func FromSeconds(seconds float64, timescale int32) TimeValue {
	return TimeValue{Value: int64(math.Round(seconds * float64(timescale))), Timescale: timescale}
}

// overflow is the result of arithmetic that has no representation: the
// operands share no timescale that fits int32, or the value leaves int64.
// It is never Valid and poisons every later Add or Sub.
var overflow = TimeValue{Timescale: -1}

func (t TimeValue) Valid() bool      { return t.Timescale > 0 }
func (t TimeValue) IsZero() bool     { return t.Value == 0 }
func (t TimeValue) IsNegative() bool { return t.Value < 0 }

// Seconds is for display and for handing values to external tools.
func (t TimeValue) Seconds() float64 {
	if t.Timescale <= 0 {
		return 0
	}
	return float64(t.Value) / float64(t.Timescale)
}

func (t TimeValue) String() string {
	return fmt.Sprintf("%d/%d", t.Value, t.Timescale)
}

// Rescale converts t to timescale ts. ok is false when the conversion
// would lose precision or does not fit.
func (t TimeValue) Rescale(ts int32) (TimeValue, bool) {
	if t.Timescale == ts {
		return t, true
	}
	if t.Timescale <= 0 || ts <= 0 {
		return overflow, false
	}
	num, ok := mul(t.Value, int64(ts))
	if !ok {
		return overflow, false
	}
	return TimeValue{Value: num / int64(t.Timescale), Timescale: ts}, num%int64(t.Timescale) == 0
}

// Add returns t+o. Mixed timescales are combined on their least common
// multiple. The result is not Valid when no common timescale fits.
func (t TimeValue) Add(o TimeValue) TimeValue {
	a, b, ts, ok := align(t, o)
	if !ok {
		return overflow
	}
	sum, ok := add(a, b)
	if !ok {
		return overflow
	}
	return TimeValue{Value: sum, Timescale: ts}
}

// Sub returns t-o, with the same overflow rule as Add.
func (t TimeValue) Sub(o TimeValue) TimeValue {
	if o.Value == math.MinInt64 {
		return overflow
	}
	return t.Add(TimeValue{Value: -o.Value, Timescale: o.Timescale})
}

// Mul scales t by an integer factor.
func (t TimeValue) Mul(n int64) TimeValue {
	v, ok := mul(t.Value, n)
	if !ok || t.Timescale < 0 {
		return overflow
	}
	return TimeValue{Value: v, Timescale: t.Timescale}
}

// Cmp returns -1, 0 or +1 comparing t and o as rationals. Values too far
// apart to align are compared exactly all the same.
func (t TimeValue) Cmp(o TimeValue) int {
	a, b, _, ok := align(t, o)
	if !ok {
		return t.rat().Cmp(o.rat())
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (t TimeValue) rat() *big.Rat {
	if t.Timescale <= 0 {
		return new(big.Rat)
	}
	return big.NewRat(t.Value, int64(t.Timescale))
}

func (t TimeValue) Equal(o TimeValue) bool { return t.Cmp(o) == 0 }
func (t TimeValue) Less(o TimeValue) bool  { return t.Cmp(o) < 0 }

// Min returns the smaller of a and b.
func Min(a, b TimeValue) TimeValue {
	if b.Less(a) {
		return b
	}
	return a
}

// align brings both values onto a common timescale. An operand without a
// timescale (the zero TimeValue) adopts the other one's. When the least
// common multiple of the timescales does not fit, both operands are reduced
// to lowest terms and tried again. ok is false when that fails too or when
// either operand is the result of an earlier overflow.
func align(a, b TimeValue) (int64, int64, int32, bool) {
	switch {
	case a.Timescale < 0 || b.Timescale < 0:
		return 0, 0, 0, false
	case a.Timescale == 0:
		return a.Value, b.Value, b.Timescale, true
	case b.Timescale == 0, a.Timescale == b.Timescale:
		return a.Value, b.Value, a.Timescale, true
	}
	if x, y, ts, ok := scale(a, b); ok {
		return x, y, ts, true
	}
	return scale(a.reduced(), b.reduced())
}

func scale(a, b TimeValue) (int64, int64, int32, bool) {
	l := lcm(int64(a.Timescale), int64(b.Timescale))
	if l > math.MaxInt32 {
		return 0, 0, 0, false
	}
	x, okA := mul(a.Value, l/int64(a.Timescale))
	y, okB := mul(b.Value, l/int64(b.Timescale))
	return x, y, int32(l), okA && okB
}

// reduced returns t in lowest terms.
func (t TimeValue) reduced() TimeValue {
	g := gcd(abs(t.Value), int64(t.Timescale))
	if g <= 1 {
		return t
	}
	return TimeValue{Value: t.Value / g, Timescale: int32(int64(t.Timescale) / g)}
}

func mul(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	p := a * b
	if p/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	return p, true
}

func add(a, b int64) (int64, bool) {
	s := a + b
	if (a > 0 && b > 0 && s < 0) || (a < 0 && b < 0 && s >= 0) {
		return 0, false
	}
	return s, true
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b int64) int64 {
	return a / gcd(a, b) * b
}
