// Package geometry validates and describes the physical shape of a HUB75
// panel chain: width, height, and the number of row-address lines used to
// select which pair of rows is currently driven.
package geometry // import "github.com/ardnew/hub75/geometry"

import "errors"

// ErrInvalidConfig is returned by New when the given width/height/addrLines
// triple does not match one of the supported panel configurations.
var ErrInvalidConfig = errors.New("geometry: unsupported panel configuration")

// Depth is the color bit depth (bits per R, G, B channel) of every
// supported configuration.
const Depth = 8

// Geometry describes a validated panel shape. Once constructed by New, a
// Geometry is immutable and safe to share.
type Geometry struct {
	Width     int // total pixel columns (L, pixels-per-latch)
	Height    int // total pixel rows
	AddrLines int // number of row-address lines in use: 4 or 5
	Rows      int // R = Height/2, rows refreshed in parallel
	Depth     int // D, color bit depth
}

// supported lists every valid (Width, Height, AddrLines) combination. The
// three combinations explicitly marked nonfunctional in spec.md §9
// (32x16/4-scan, 32x32/8-scan, 64x32/8-scan) are deliberately absent: they
// must never validate, even though their Width/Height would otherwise look
// plausible.
var supported = map[[3]int]bool{
	{32, 16, 4}: true, // 8-scan
	{32, 32, 4}: true, // 16-scan
	{64, 32, 4}: true, // 16-scan
	{64, 64, 5}: true, // 32-scan, requires the E row-address line
}

// New validates width, height, and addrLines against the four supported
// panel configurations and returns the derived Geometry. addrLines must be
// 4 or 5; 5 is required only for the 64x64 panel.
func New(width, height, addrLines int) (Geometry, error) {
	if !supported[[3]int{width, height, addrLines}] {
		return Geometry{}, ErrInvalidConfig
	}
	return Geometry{
		Width:     width,
		Height:    height,
		AddrLines: addrLines,
		Rows:      height / 2,
		Depth:     Depth,
	}, nil
}

// InRange reports whether (x, y) addresses a pixel within the panel.
func (g Geometry) InRange(x, y int) bool {
	return x >= 0 && x < g.Width && y >= 0 && y < g.Height
}
