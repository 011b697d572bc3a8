// Package gamma provides the perceptual brightness correction applied to
// each color channel byte before it is tested bit-by-bit by the bitplane
// encoder.
package gamma // import "github.com/ardnew/hub75/gamma"

import "math"

// Mode selects which correction curve a Table applies.
type Mode int

// Supported gamma modes.
const (
	Off      Mode = iota // identity: pwm(v) == v
	Strict                // standard 2.8 gamma curve
	Modified              // gentler curve, preserves more low-bitplane range
)

const (
	strictExponent   = 2.8
	modifiedExponent = 1.8
)

// Table holds a precomputed 256-entry lookup for one Mode.
type Table struct {
	mode Mode
	lut  [256]uint8
}

// New builds a Table for the given Mode. The lookup is computed once at
// construction; PWM is a pure array index thereafter.
func New(mode Mode) Table {
	t := Table{mode: mode}
	switch mode {
	case Off:
		for i := range t.lut {
			t.lut[i] = uint8(i)
		}
	case Strict:
		fill(&t.lut, strictExponent)
	case Modified:
		fill(&t.lut, modifiedExponent)
	default:
		for i := range t.lut {
			t.lut[i] = uint8(i)
		}
	}
	return t
}

func fill(lut *[256]uint8, exponent float64) {
	for i := range lut {
		v := float64(i) / 255.0
		lut[i] = uint8(math.Round(255.0 * math.Pow(v, exponent)))
	}
}

// Mode returns the correction mode the Table was constructed with.
func (t Table) Mode() Mode { return t.mode }

// PWM maps a linear 8-bit intensity to its corrected 8-bit value.
func (t Table) PWM(v uint8) uint8 { return t.lut[v] }
