package bitplane

import (
	"unsafe"

	"github.com/ardnew/hub75/gamma"
	"github.com/ardnew/hub75/geometry"
)

// Buffer is one complete bitplane frame: Rows*Depth*Width contiguous
// control words, carved directly out of caller-supplied DMA-capable memory
// (see NewBuffer) rather than ordinary GC-managed slices, so that a
// descriptor.Ring built against it can hand the stream engine real memory
// addresses (spec.md §3: "Allocated from DMA-capable memory").
type Buffer struct {
	g     geometry.Geometry
	words []uint16 // len == Rows*Depth*Width, row-major: (half*Depth+bit)*Width+x
}

// RequiredBytes returns the number of DMA-capable bytes NewBuffer needs for
// geometry g.
func RequiredBytes(g geometry.Geometry) int {
	return g.Rows * g.Depth * g.Width * 2
}

// NewBuffer reinterprets mem — at least RequiredBytes(g) bytes of
// DMA-capable memory obtained from a native.Allocator — as a Buffer's
// backing word storage. The caller must not otherwise touch mem once it has
// been handed to NewBuffer.
func NewBuffer(g geometry.Geometry, mem []byte) Buffer {
	n := g.Rows * g.Depth * g.Width
	if len(mem) < n*2 {
		panic("bitplane: DMA buffer smaller than RequiredBytes(g)")
	}
	return Buffer{
		g:     g,
		words: unsafe.Slice((*uint16)(unsafe.Pointer(&mem[0])), n),
	}
}

func (b Buffer) index(half, bit, x int) int {
	return (half*b.g.Depth+bit)*b.g.Width + x
}

func (b Buffer) at(half, bit, x int) *uint16 {
	return &b.words[b.index(half, bit, x)]
}

// PlaneRunAddr returns the address and byte length of the contiguous run of
// bitplanes [bitFrom, Depth) within half-row half — exactly the memory a
// descriptor.Descriptor points at when the ring is built (spec.md §4.2:
// "append a descriptor pointing at the corresponding slice of buffer[b][j]").
func (b Buffer) PlaneRunAddr(half, bitFrom int) (memory unsafe.Pointer, sizeBytes int) {
	words := (b.g.Depth - bitFrom) * b.g.Width
	return unsafe.Pointer(b.at(half, bitFrom, 0)), words * 2
}

// WordAddr returns the address of the stored control word at storage column
// x (already half-word-swapped), half-row half, bitplane bit. Exported for
// tests validating descriptor coverage against real memory.
func WordAddr(buf Buffer, half, bit, x int) unsafe.Pointer {
	return unsafe.Pointer(buf.at(half, bit, x))
}

// SetColumn re-encodes every bitplane of column x at absolute row yAbs,
// preserving the opposite half's color bits (spec.md §4.1's "preserve
// opposite half" rule). c is gamma-corrected internally.
func SetColumn(buf Buffer, g geometry.Geometry, x, yAbs int, c Pixel, gt gamma.Table, cutoff, transitionBit int) {
	if !g.InRange(x, yAbs) {
		return
	}
	half := yAbs % g.Rows
	bottom := yAbs >= g.Rows
	gc := GammaPixel(gt, c)
	idx := StoreIdx(x)

	for bit := 0; bit < g.Depth; bit++ {
		var top, bot Pixel
		if bottom {
			bot = gc
		} else {
			top = gc
		}
		w := EncodeWord(g, half, bit, x, top, bot, cutoff, transitionBit)

		p := buf.at(half, bit, idx)
		old := *p
		if bottom {
			w |= old & maskTopColor
		} else {
			w |= old & maskBotColor
		}
		*p = w
	}
}

// FillAll re-encodes the entire buffer with one color applied to both
// halves; no preservation read is needed since both halves are known.
func FillAll(buf Buffer, g geometry.Geometry, c Pixel, gt gamma.Table, cutoff, transitionBit int) {
	gc := GammaPixel(gt, c)
	for half := 0; half < g.Rows; half++ {
		for bit := 0; bit < g.Depth; bit++ {
			for x := 0; x < g.Width; x++ {
				w := EncodeWord(g, half, bit, x, gc, gc, cutoff, transitionBit)
				*buf.at(half, bit, StoreIdx(x)) = w
			}
		}
	}
}

// SetWordAt stores w directly at the half-word-swapped storage column for
// x, half-row half, bitplane bit. Used by the whole-frame publish path,
// which already knows both color halves and needs no preservation read.
func SetWordAt(buf Buffer, half, bit, x int, w uint16) {
	*buf.at(half, bit, StoreIdx(x)) = w
}

// Word returns the currently stored control word for column x, half-row
// half, bitplane bit — the value that would be read back by the stream
// engine. It is exposed for tests validating the testable properties of
// spec.md §8.
func Word(buf Buffer, x, half, bit int) uint16 {
	return *buf.at(half, bit, StoreIdx(x))
}
