//go:build stm32f4

package native

import (
	"device/stm32"
	"machine"
	"unsafe"
)

// stm32f4ControlBlock is this engine's own record of one descriptor: a real
// source address, a transfer count, and the index of the next control
// block — analogous to rp2040ControlBlock, sized for re-arming a DMA
// stream's M0AR/NDTR pair instead of a PIO-chained channel.
type stm32f4ControlBlock struct {
	srcAddr uintptr
	count   uint32
	nextCB  uint32
}

// stm32f4Engine drives the HUB75 bus on STM32F4 parts that lack an RP2040-
// style PIO block: a timer (TIMx) ticks at the pixel clock and triggers a
// memory-to-peripheral DMA burst that writes one 16-bit control word into
// a GPIO port's output data register (ODR) per tick. Chaining between
// descriptors is done by re-arming the DMA stream's memory address and
// count from the stream's transfer-complete interrupt, the same way
// package ili9341's spiDriver polls CR1/SR directly rather than going
// through a higher-level peripheral abstraction.
type stm32f4Engine struct {
	tim  *stm32.TIM_Type
	dma  *stm32.DMA_Type
	port *stm32.GPIO_Type

	cfg   EngineConfig
	rings [2][]stm32f4ControlBlock

	current  int
	pending  int
	callback func()
}

// NewHardwareEngine returns the StreamEngine implementation for this build
// target. Its tim/dma/port fields are unexported and left nil; nothing
// outside package native can set them, and while they are nil Start and
// Stop leave the timer untouched and armDMAStream returns at once.
func NewHardwareEngine() StreamEngine {
	return &stm32f4Engine{pending: -1}
}

func (e *stm32f4Engine) Setup(cfg EngineConfig) error {
	e.cfg = cfg

	for _, pin := range []uint8{cfg.Pins.R1, cfg.Pins.G1, cfg.Pins.B1,
		cfg.Pins.R2, cfg.Pins.G2, cfg.Pins.B2, cfg.Pins.LAT, cfg.Pins.OE, cfg.Pins.CLK} {
		machine.Pin(pin).Configure(machine.PinConfig{Mode: machine.PinOutput})
	}
	for _, pin := range cfg.Pins.Addr {
		machine.Pin(pin).Configure(machine.PinConfig{Mode: machine.PinOutput})
	}

	// TODO: program TIMx's auto-reload register from cfg.ClockHz and enable
	// its DMA request on update; requires the board's timer clock tree,
	// which is not available from this package alone.
	return nil
}

// LinkDescriptor implements StreamEngine by growing bufferID's
// control-block slice and recording desc's real source address/length,
// then chaining prev's nextCB to desc.
func (e *stm32f4Engine) LinkDescriptor(bufferID, desc, prev int, memory unsafe.Pointer, sizeBytes int) {
	ring := e.rings[bufferID]
	if desc >= len(ring) {
		grown := make([]stm32f4ControlBlock, desc+1)
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

func (e *stm32f4Engine) Start() error {
	if e.tim != nil {
		e.tim.CR1.SetBits(stm32.TIM_CR1_CEN)
	}
	armDMAStream(e.dma, e.rings[e.current])
	return nil
}

func (e *stm32f4Engine) Stop() {
	if e.tim != nil {
		e.tim.CR1.ClearBits(stm32.TIM_CR1_CEN)
	}
}

func (e *stm32f4Engine) FlipTo(buffer int) {
	e.pending = buffer
}

func (e *stm32f4Engine) SetShiftCompleteCallback(fn func()) {
	e.callback = fn
}

// onStreamComplete is invoked from the DMA stream's transfer-complete
// interrupt at every ring end-of-list boundary.
func (e *stm32f4Engine) onStreamComplete() {
	if e.pending >= 0 {
		e.current = e.pending
		e.pending = -1
	}
	armDMAStream(e.dma, e.rings[e.current])
	if e.callback != nil {
		e.callback()
	}
}

// armDMAStream returns at once when dma is nil or the ring is empty;
// otherwise it reads the head control block's real memory address (set by
// LinkDescriptor). It writes no DMA stream register, so it neither re-arms
// the memory address and transfer count nor starts a burst.
func armDMAStream(dma *stm32.DMA_Type, ring []stm32f4ControlBlock) {
	if dma == nil || len(ring) == 0 {
		return
	}
	_ = ring[0].srcAddr // hardware linkage omitted: target-specific register layout
}
