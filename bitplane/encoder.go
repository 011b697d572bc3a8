// Package bitplane builds the 16-bit HUB75 control words that make up one
// bitplane buffer, and stores them with the half-word column swap the
// parallel output FIFO requires.
package bitplane // import "github.com/ardnew/hub75/bitplane"

import (
	"github.com/ardnew/hub75/gamma"
	"github.com/ardnew/hub75/geometry"
)

// Bit positions of the 16-bit control word, per spec.md §6's wire layout.
const (
	bitR1 = iota
	bitG1
	bitB1
	bitR2
	bitG2
	bitB2
	bitLAT
	bitOE
	bitA
	bitB
	bitC
	bitD
	bitE
)

const addrBits = 5 // A, B, C, D, E

// Pixel is one RGB color sample, either before gamma correction or, as
// returned by GammaPixel, after it.
type Pixel struct{ R, G, B uint8 }

// StoreIdx returns the half-word-swapped storage column for x, compensating
// for the parallel FIFO's two-words-per-32-bit-burst ordering (spec.md
// §4.1).
func StoreIdx(x int) int { return x ^ 1 }

// EncodeWord builds the control word for column x, half-row y (0 <= y <
// g.Rows), bitplane bit (0 <= bit < g.Depth), from a top-half and
// bottom-half color pair already gamma-corrected by the caller. cutoff and
// transitionBit are the current brightness cutoff column and the BCM
// transition bit t chosen by the descriptor planner.
func EncodeWord(g geometry.Geometry, y, bit, x int, top, bot Pixel, cutoff, transitionBit int) uint16 {
	var w uint16

	// Row address. On the LSB plane, the address lags by one row: the
	// previous row's address is still latched while the LSB plane is
	// physically displayed.
	addr := y
	if bit == 0 {
		addr = y - 1
	}
	addr = ((addr % g.Rows) + g.Rows) % g.Rows
	for i := 0; i < addrBits; i++ {
		if addr&(1<<i) != 0 {
			w |= 1 << (bitA + i)
		}
	}

	last := x == g.Width-1
	if last {
		w |= 1 << bitLAT
	}

	blank := x == 0 || last
	if !blank {
		switch {
		case bit > transitionBit || bit == 0:
			blank = x >= cutoff
		default: // 0 < bit <= transitionBit
			blank = x >= (cutoff >> uint(transitionBit-bit+1))
		}
	}
	if blank {
		w |= 1 << bitOE
	}

	if top.R&(1<<uint(bit)) != 0 {
		w |= 1 << bitR1
	}
	if top.G&(1<<uint(bit)) != 0 {
		w |= 1 << bitG1
	}
	if top.B&(1<<uint(bit)) != 0 {
		w |= 1 << bitB1
	}
	if bot.R&(1<<uint(bit)) != 0 {
		w |= 1 << bitR2
	}
	if bot.G&(1<<uint(bit)) != 0 {
		w |= 1 << bitG2
	}
	if bot.B&(1<<uint(bit)) != 0 {
		w |= 1 << bitB2
	}

	return w
}

// maskTopColor and maskBotColor isolate the six color bits belonging to one
// half of a word, used to preserve the opposite half on a single-point
// pixel update.
const (
	maskTopColor = 1<<bitR1 | 1<<bitG1 | 1<<bitB1
	maskBotColor = 1<<bitR2 | 1<<bitG2 | 1<<bitB2
)

// GammaPixel applies gt to every channel of c.
func GammaPixel(gt gamma.Table, c Pixel) Pixel {
	return Pixel{R: gt.PWM(c.R), G: gt.PWM(c.G), B: gt.PWM(c.B)}
}
