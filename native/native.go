// Package native defines the hardware seam the hub75 driver is built
// against: a StreamEngine that continuously emits descriptor-ring-driven
// parallel output, an Allocator that can satisfy DMA-capable memory
// requests, and a FlipSync binary semaphore safe to release from an
// interrupt service routine.
//
// This mirrors the interface-plus-concrete-implementation shape of
// package flash's transport seam: callers depend only on the interface,
// and a build-tagged file per target selects the concrete implementation.
package native // import "github.com/ardnew/hub75/native"

import (
	"errors"
	"unsafe"
)

// ErrAllocFailed is returned by an Allocator when a request cannot be
// satisfied from DMA-capable memory.
var ErrAllocFailed = errors.New("native: DMA-capable allocation failed")

// PinConfig names the GPIO assignment for every HUB75 lane plus the pixel
// clock. Addr[4] (the E line) is unused when the geometry has AddrLines==4.
type PinConfig struct {
	R1, G1, B1, R2, G2, B2 uint8
	LAT, OE, CLK           uint8
	Addr                   [5]uint8
}

// EngineConfig is the configuration surface a StreamEngine's Setup needs:
// the pixel clock frequency and the pin assignment.
type EngineConfig struct {
	ClockHz int
	Pins    PinConfig
}

// StreamEngine is the abstract "parallel stream engine" of spec.md §2.6: it
// emits one 16-bit word per pixel clock across sixteen lanes, follows a
// descriptor ring to end-of-list, fires a completion callback there, and
// supports an atomic flip to the other ring at that boundary.
type StreamEngine interface {
	// Setup configures the engine for the given pin/clock configuration. It
	// does not start emitting and does not yet know any descriptors — those
	// arrive one at a time via LinkDescriptor.
	Setup(cfg EngineConfig) error
	// LinkDescriptor registers descriptor desc of bufferID's ring with the
	// engine: memory and sizeBytes are the real DMA-capable address and
	// byte length that descriptor streams, and prev is the index of the
	// descriptor that should chain to desc (negative for the first
	// descriptor linked into a ring). This is spec.md §6's
	// `link_descriptor(desc, prev, memory, size_bytes)`; it is how the
	// engine learns where in memory to actually read pixel words from.
	LinkDescriptor(bufferID, desc, prev int, memory unsafe.Pointer, sizeBytes int)
	// Start begins continuously emitting buffer 0's ring (or whichever
	// buffer is current after a prior Stop/Start cycle).
	Start() error
	// FlipTo arms a switch to the named buffer (0 or 1); it takes effect at
	// the engine's next end-of-list boundary.
	FlipTo(buffer int)
	// Stop halts emission. The engine may be Start-ed again.
	Stop()
	// SetShiftCompleteCallback registers the function invoked at every
	// end-of-list boundary. The callback must not block or allocate.
	SetShiftCompleteCallback(fn func())
}

// Allocator requests memory with the "DMA-capable" capability and reports
// how much remains, matching spec.md §6's "Timed allocator" collaborator.
type Allocator interface {
	Alloc(size int) ([]byte, error)
	Free(b []byte)
	FreeBytes() int
	LargestFreeBlock() int
}

// FlipSync is a binary semaphore released from a StreamEngine's completion
// callback and acquired by the producer in Device.Publish. Release must be
// safe to call from an interrupt service routine: it never blocks, never
// allocates, and is idempotent.
type FlipSync struct {
	ch chan struct{}
}

// NewFlipSync returns a FlipSync in the "available" state (spec.md §3).
func NewFlipSync() *FlipSync {
	f := &FlipSync{ch: make(chan struct{}, 1)}
	f.ch <- struct{}{}
	return f
}

// Acquire blocks until the semaphore is available.
func (f *FlipSync) Acquire() {
	<-f.ch
}

// TryAcquire attempts to acquire the semaphore without blocking.
func (f *FlipSync) TryAcquire() bool {
	select {
	case <-f.ch:
		return true
	default:
		return false
	}
}

// Release makes the semaphore available. Safe to call from an ISR: a
// buffered, non-blocking send guarded by select/default, so a second
// Release before any Acquire is a no-op rather than a panic or a block.
func (f *FlipSync) Release() {
	select {
	case f.ch <- struct{}{}:
	default:
	}
}
