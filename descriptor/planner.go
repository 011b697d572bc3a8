package descriptor

import (
	"errors"

	"github.com/ardnew/hub75/geometry"
)

// Errors returned by Plan, mirroring spec.md §7's init failure kinds.
var (
	ErrOutOfMemory         = errors.New("descriptor: no transition bit fits the available DMA memory")
	ErrRefreshUnachievable = errors.New("descriptor: no transition bit meets the minimum refresh rate")
)

// Plan searches transition bits t = 0..Depth-1 for the smallest t whose
// descriptor ring fits within the DMA memory budget and whose resulting
// refresh rate meets minRefreshHz, per spec.md §4.2. largestFreeBlock and
// totalFree describe the allocator's current DMA-capable memory; reserve is
// the amount of that memory the caller wants to keep free for other uses.
//
// On success it returns the chosen t and the refresh rate it achieves. On
// failure it returns whichever of ErrOutOfMemory / ErrRefreshUnachievable
// is still failing once t has reached Depth-1.
func Plan(g geometry.Geometry, clockHz, minRefreshHz, largestFreeBlock, totalFree, reserve int) (t int, refreshHz float64, err error) {
	budget := totalFree - reserve
	if largestFreeBlock < budget {
		budget = largestFreeBlock
	}

	nsPerLatch := float64(g.Width) * (1e12 / float64(clockHz)) / 1e3

	var ramOK, refreshOK bool
	for t = 0; t < g.Depth; t++ {
		k := K(t, g.Depth)
		ramRequired := k * g.Rows * 2 * DescriptorSize

		nsPerRow := float64(g.Depth) * nsPerLatch
		for i := t + 1; i < g.Depth; i++ {
			repeats := float64(int(1) << uint(i-t-1))
			nsPerRow += repeats * float64(g.Depth-i) * nsPerLatch
		}
		refreshHz = 1e9 / (nsPerRow * float64(g.Rows))

		ramOK = ramRequired <= budget
		refreshOK = refreshHz >= float64(minRefreshHz)
		if ramOK && refreshOK {
			return t, refreshHz, nil
		}
	}

	t = g.Depth - 1
	if !ramOK {
		return t, refreshHz, ErrOutOfMemory
	}
	return t, refreshHz, ErrRefreshUnachievable
}
