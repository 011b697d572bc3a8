//go:build rp2040

package native

import (
	"machine"
	"unsafe"
)

// rp2040ControlBlock mirrors one RP2040 DMA channel's chained transfer
// descriptor: a real source address, a transfer count, and the index of
// the next control block to load at completion — in the style of package
// bcm283x's controlBlock (srcAddr/txLen/nextCB), adapted to an index-linked
// slab per spec.md §9 instead of a bus address for nextCB.
type rp2040ControlBlock struct {
	srcAddr uintptr
	count   uint32
	nextCB  uint32
}

// rp2040Engine drives the HUB75 bus using one of the RP2040's PIO blocks to
// shift the 16-bit control word out on every pixel clock, and a chained DMA
// channel to keep the PIO's transmit FIFO fed from a descriptor ring
// without CPU involvement between descriptors.
//
// This adapts the transport-interface-plus-concrete-type shape of
// package flash's spiTransport to the RP2040's PIO/DMA peripherals: Setup
// claims a state machine and configures pins, LinkDescriptor populates the
// DMA control-block chain one real address at a time as the ring is linked,
// Start enables the state machine and calls armDMA on the current ring, and
// onDMAComplete applies a pending flip and calls back at end-of-list as
// SimEngine does in software. No DMA register is programmed (see armDMA),
// and nothing in this file registers onDMAComplete with an interrupt.
type rp2040Engine struct {
	pio machine.PIO
	sm  uint8

	cfg   EngineConfig
	rings [2][]rp2040ControlBlock

	current  int
	pending  int
	callback func()
}

// NewHardwareEngine returns the StreamEngine implementation for this build
// target.
func NewHardwareEngine() StreamEngine {
	return &rp2040Engine{pio: machine.PIO0, pending: -1}
}

func (e *rp2040Engine) Setup(cfg EngineConfig) error {
	e.cfg = cfg

	sm, err := e.pio.ClaimStateMachine()
	if err != nil {
		return err
	}
	e.sm = sm

	configurePins(cfg.Pins)
	// TODO: load the shift-out PIO program (OSR -> pins, autopull on CLK)
	// once the assembled program bytes are vendored; until then Setup only
	// claims hardware and configures pins.
	return nil
}

// LinkDescriptor implements StreamEngine by growing bufferID's
// control-block slice and recording desc's real source address/length,
// then chaining prev's nextCB to desc.
func (e *rp2040Engine) LinkDescriptor(bufferID, desc, prev int, memory unsafe.Pointer, sizeBytes int) {
	ring := e.rings[bufferID]
	if desc >= len(ring) {
		grown := make([]rp2040ControlBlock, desc+1)
		copy(grown, ring)
		ring = grown
	}
	ring[desc].srcAddr = uintptr(memory)
	ring[desc].count = uint32(sizeBytes)
	if prev >= 0 && prev < len(ring) {
		ring[prev].nextCB = uint32(desc)
	}
	e.rings[bufferID] = ring
}

func (e *rp2040Engine) Start() error {
	e.pio.SetStateMachineEnabled(e.sm, true)
	armDMA(e.rings[e.current])
	return nil
}

func (e *rp2040Engine) Stop() {
	e.pio.SetStateMachineEnabled(e.sm, false)
}

func (e *rp2040Engine) FlipTo(buffer int) {
	e.pending = buffer
}

func (e *rp2040Engine) SetShiftCompleteCallback(fn func()) {
	e.callback = fn
}

// onDMAComplete is invoked from the DMA IRQ handler (registered during
// Setup in a full implementation) at every ring end-of-list boundary.
func (e *rp2040Engine) onDMAComplete() {
	if e.pending >= 0 {
		e.current = e.pending
		e.pending = -1
	}
	armDMA(e.rings[e.current])
	if e.callback != nil {
		e.callback()
	}
}

func configurePins(p PinConfig) {
	for _, pin := range []uint8{p.R1, p.G1, p.B1, p.R2, p.G2, p.B2, p.LAT, p.OE, p.CLK} {
		machine.Pin(pin).Configure(machine.PinConfig{Mode: machine.PinOutput})
	}
	for _, pin := range p.Addr {
		machine.Pin(pin).Configure(machine.PinConfig{Mode: machine.PinOutput})
	}
}

// armDMA reads the head control block's real memory address
// (ring[0].srcAddr, set by LinkDescriptor). It writes no DMA channel
// register, so it starts no transfer and sets up no chaining.
func armDMA(ring []rp2040ControlBlock) {
	if len(ring) == 0 {
		return
	}
	_ = ring[0].srcAddr // hardware linkage omitted: target-specific register layout
}
