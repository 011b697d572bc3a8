package hub75

import "github.com/ardnew/hub75/bitplane"

// SetPixel encodes one column's control word in the drawing buffer,
// preserving the opposite half's color bits (spec.md §4.1). Coordinates
// outside the panel are silently ignored.
func (d *Device) SetPixel(x, y int, r, g, b uint8) {
	_, cutoff := d.brightnessState()
	bitplane.SetColumn(d.buffers[d.current], d.geo, x, y, bitplane.Pixel{R: r, G: g, B: b}, d.gt, cutoff, d.transitionBit)
}

// Fill re-encodes the entire drawing buffer with one color; both halves are
// known, so no preservation read is performed.
func (d *Device) Fill(r, g, b uint8) {
	_, cutoff := d.brightnessState()
	bitplane.FillAll(d.buffers[d.current], d.geo, bitplane.Pixel{R: r, G: g, B: b}, d.gt, cutoff, d.transitionBit)
}

// Publish requests that the stream engine flip to the current drawing
// buffer at its next end-of-list boundary, then advances the drawing-buffer
// index. If block is true, Publish does not return until the flip
// semaphore confirms the new drawing buffer is no longer under streaming
// read (spec.md §4.3); otherwise the caller must not touch the new drawing
// buffer until a subsequent blocking call or explicit semaphore wait
// completes.
func (d *Device) Publish(block bool) error {
	d.engine.FlipTo(d.current)
	d.current = 1 - d.current
	if block {
		d.flip.Acquire()
	}
	return nil
}
