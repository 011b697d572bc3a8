// Package descriptor builds the DMA descriptor rings that drive continuous
// bitplane scanning, and searches for the BCM transition bit that meets a
// caller's memory and refresh-rate budgets.
package descriptor // import "github.com/ardnew/hub75/descriptor"

import (
	"unsafe"

	"github.com/ardnew/hub75/bitplane"
	"github.com/ardnew/hub75/geometry"
)

// DescriptorSize is the on-wire size, in bytes, of one hardware descriptor:
// two 32-bit fields (source address, length) plus one 32-bit next-index
// field. It describes the real peripheral's control-block size for the
// budget search in Plan and is independent of this package's in-memory
// Descriptor representation.
const DescriptorSize = 12

// Descriptor points at one contiguous run of real, DMA-capable memory
// backing part of one row's bitplane data (spec.md §4.2). Next is an index
// into the owning Ring's Slab, not a pointer: per spec.md §9's design note,
// the slab is the owned resource, so there is no reference cycle for the
// garbage collector to reason about.
type Descriptor struct {
	Memory    unsafe.Pointer // address of the first control word this descriptor streams
	Length    int            // byte length of the run — spec.md §6's "size_bytes"
	Next      int            // index into Ring.Slab
	EndOfList bool
}

// Ring is one buffer's complete descriptor list: Rows*K(t) descriptors laid
// out so that linear traversal from Head produces the BCM weighting
// described in spec.md §4.2, before looping back to Head.
type Ring struct {
	Slab []Descriptor
	Head int
}

// K returns the per-row descriptor count for transition bit t at the given
// color depth: one descriptor covering every plane once, plus 2^(i-t-1)
// repeats of the suffix [i..depth) for every plane i > t.
func K(t, depth int) int {
	k := 1
	for i := t + 1; i < depth; i++ {
		k += 1 << uint(i-t-1)
	}
	return k
}

// BuildRing lays out one complete descriptor ring for geometry g at
// transition bit t, with every descriptor's Memory/Length pointing at the
// real backing storage of buf — the bitplane buffer this ring will stream —
// rather than an abstract offset into nothing (spec.md §3's "Allocated from
// DMA-capable memory" invariant applies to what the ring addresses too).
func BuildRing(g geometry.Geometry, t int, buf bitplane.Buffer) *Ring {
	k := K(t, g.Depth)
	slab := make([]Descriptor, 0, k*g.Rows)

	for row := 0; row < g.Rows; row++ {
		// Descriptor 0: every bitplane, once.
		mem, size := buf.PlaneRunAddr(row, 0)
		slab = append(slab, Descriptor{Memory: mem, Length: size})
		for i := t + 1; i < g.Depth; i++ {
			repeats := 1 << uint(i-t-1)
			mem, size := buf.PlaneRunAddr(row, i)
			for n := 0; n < repeats; n++ {
				slab = append(slab, Descriptor{Memory: mem, Length: size})
			}
		}
	}

	last := len(slab) - 1
	for i := range slab {
		if i == last {
			slab[i].Next = 0
			slab[i].EndOfList = true
		} else {
			slab[i].Next = i + 1
		}
	}

	return &Ring{Slab: slab, Head: 0}
}

// Engine is the subset of a native.StreamEngine's contract a Ring needs in
// order to hand itself over to real hardware: spec.md §6's
// `link_descriptor(desc, prev, memory, size_bytes)`, registering one
// descriptor's real memory address/length and chaining it after the
// descriptor at index prev (prev < 0 for the first descriptor linked).
// native.StreamEngine satisfies this interface structurally; package
// descriptor does not import package native, keeping the planner
// hardware-agnostic.
type Engine interface {
	LinkDescriptor(bufferID, desc, prev int, memory unsafe.Pointer, sizeBytes int)
}

// Link hands every descriptor of the ring to engine under bufferID via
// repeated LinkDescriptor calls, in ascending slab order, then issues one
// final call that closes the cycle by linking the last descriptor back to
// Head. This is the real wiring from a planned Ring to the stream engine's
// own descriptor chain that spec.md §6 names — engines are never handed a
// Ring directly, only the memory/length/chaining facts the planner derived
// from it, one descriptor at a time.
func (r *Ring) Link(bufferID int, engine Engine) {
	for i, d := range r.Slab {
		prev := i - 1
		engine.LinkDescriptor(bufferID, i, prev, d.Memory, d.Length)
	}
	last := len(r.Slab) - 1
	head := r.Slab[r.Head]
	engine.LinkDescriptor(bufferID, r.Head, last, head.Memory, head.Length)
}
