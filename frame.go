package hub75

import (
	"github.com/ardnew/hub75/bitplane"
	"github.com/ardnew/hub75/geometry"
)

// Frame is a plain RGB staging buffer owned by the caller, independent of
// the driver's bitplane buffers. Callers build a picture in a Frame and
// publish it in bulk with Frame.Publish, rather than calling Device.SetPixel
// once per changed pixel.
type Frame struct {
	geo geometry.Geometry
	px  [][]bitplane.Pixel // [Height][Width]
}

// NewFrame allocates a staging Frame sized for g, initially all black.
func NewFrame(g geometry.Geometry) *Frame {
	f := &Frame{geo: g, px: make([][]bitplane.Pixel, g.Height)}
	for y := range f.px {
		f.px[y] = make([]bitplane.Pixel, g.Width)
	}
	return f
}

// SetPixel stores (r, g, b) at (x, y) in the staging frame. Out-of-range
// coordinates are silently ignored.
func (f *Frame) SetPixel(x, y int, r, g, b uint8) {
	if !f.geo.InRange(x, y) {
		return
	}
	f.px[y][x] = bitplane.Pixel{R: r, G: g, B: b}
}

// Fill sets every pixel in the staging frame to (r, g, b).
func (f *Frame) Fill(r, g, b uint8) {
	c := bitplane.Pixel{R: r, G: g, B: b}
	for y := range f.px {
		row := f.px[y]
		for x := range row {
			row[x] = c
		}
	}
}

// Clear zeroes the staging frame.
func (f *Frame) Clear() {
	f.Fill(0, 0, 0)
}

// Publish acquires the flip semaphore (so the drawing buffer it writes into
// is guaranteed idle), encodes the entire staging frame into that buffer,
// and issues a non-blocking flip request before returning (spec.md §4.3's
// "whole-frame flush is always blocking at entry").
func (f *Frame) Publish(d *Device) error {
	d.flip.Acquire()
	_, cutoff := d.brightnessState()

	// Both halves of every column are known directly from the staging
	// frame (px[half] and px[half+Rows]), so no preservation read against
	// the drawing buffer is needed, unlike the single-point pixel API.
	buf := d.buffers[d.current]
	for half := 0; half < f.geo.Rows; half++ {
		for x := 0; x < f.geo.Width; x++ {
			top := bitplane.GammaPixel(d.gt, f.px[half][x])
			bot := bitplane.GammaPixel(d.gt, f.px[half+f.geo.Rows][x])
			for bit := 0; bit < f.geo.Depth; bit++ {
				w := bitplane.EncodeWord(f.geo, half, bit, x, top, bot, cutoff, d.transitionBit)
				bitplane.SetWordAt(buf, half, bit, x, w)
			}
		}
	}

	d.engine.FlipTo(d.current)
	d.current = 1 - d.current
	return nil
}
