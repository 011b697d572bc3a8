// Package hub75 drives HUB75 "dumb" RGB LED matrix panels by continuously
// streaming Binary Code Modulation bitplanes through a DMA descriptor ring.
// See SPEC_FULL.md for the full design; this file holds the public
// Device/Config surface and the initialization/shutdown sequence.
package hub75 // import "github.com/ardnew/hub75"

import (
	"sync"

	"github.com/ardnew/hub75/bitplane"
	"github.com/ardnew/hub75/descriptor"
	"github.com/ardnew/hub75/gamma"
	"github.com/ardnew/hub75/geometry"
	"github.com/ardnew/hub75/native"
)

// DefaultBrightness is the brightness percentage applied at init, per
// spec.md §4.6.
const DefaultBrightness = 75

// Supported pixel clock frequencies, in Hz, per spec.md §6's configuration
// surface.
const (
	Clock13p33MHz = 13_330_000
	Clock16MHz    = 16_000_000
	Clock20MHz    = 20_000_000
	Clock26p67MHz = 26_670_000
)

// Config holds everything needed to bring up a Device.
type Config struct {
	Width, Height, AddrLines int // panel geometry, see geometry.New

	ClockHz       int // pixel clock, one of the Clock* constants
	MinRefreshHz  int // minimum acceptable refresh rate
	ReserveBytes  int // DMA-capable memory to keep free for other uses
	GammaMode     gamma.Mode
	Pins          native.PinConfig

	// Engine and Allocator are the hardware collaborators. Neither has a
	// portable default: callers on a real target construct the build-tagged
	// engine for their chip (native.NewHardwareEngine, selected by the
	// rp2040/stm32f4 build tag) and a board-specific DMA-capable allocator;
	// host-side callers (tests) use native.NewSimEngine/NewSimAllocator. A
	// nil Engine is a hardware-setup failure (ErrHardwareFail); a nil
	// Allocator is a config error (ErrInvalidConfig).
	Engine    native.StreamEngine
	Allocator native.Allocator
}

// Device is a connection to one HUB75 panel chain. The zero Device is not
// usable; construct one with New.
type Device struct {
	geo  geometry.Geometry
	gt   gamma.Table
	cfg  Config

	buffers       [2]bitplane.Buffer
	bufMem        [2][]byte
	rings         [2]*descriptor.Ring
	transitionBit int

	engine native.StreamEngine
	flip   *native.FlipSync

	mu      sync.Mutex // guards brightness state below
	percent int
	cutoff  int

	current int // index of the buffer currently accepting writes
}

// New validates cfg, allocates both bitplane buffers and descriptor rings,
// starts the stream engine, and returns a ready Device. On any failure it
// unwinds everything already acquired and returns a non-nil error:
// ErrInvalidConfig, ErrOutOfMemory, ErrRefreshUnachievable, or
// ErrHardwareFail (spec.md §4.6, §7).
func New(cfg Config) (*Device, error) {
	geo, err := geometry.New(cfg.Width, cfg.Height, cfg.AddrLines)
	if err != nil {
		return nil, err
	}
	if cfg.Allocator == nil || cfg.ClockHz == 0 {
		return nil, ErrInvalidConfig
	}

	d := &Device{
		geo:     geo,
		gt:      gamma.New(cfg.GammaMode),
		cfg:     cfg,
		engine:  cfg.Engine,
		current: 0,
	}
	d.setBrightnessLocked(DefaultBrightness)

	// Allocate both bitplane buffers first (spec.md §4.6's init order): their
	// size is fixed by geometry alone, independent of the transition bit.
	// The descriptor planner then sees the DMA budget that remains after
	// the buffers are carved out.
	bufBytes := bitplane.RequiredBytes(geo)
	for i := 0; i < 2; i++ {
		mem, err := cfg.Allocator.Alloc(bufBytes)
		if err != nil {
			d.unwindBuffers(i)
			return nil, ErrOutOfMemory
		}
		d.bufMem[i] = mem
		d.buffers[i] = bitplane.NewBuffer(geo, mem)
	}

	largest := cfg.Allocator.LargestFreeBlock()
	total := cfg.Allocator.FreeBytes()
	t, _, err := descriptor.Plan(geo, cfg.ClockHz, cfg.MinRefreshHz, largest, total, cfg.ReserveBytes)
	if err != nil {
		d.unwindBuffers(2)
		return nil, err
	}
	d.transitionBit = t

	for i := 0; i < 2; i++ {
		d.rings[i] = descriptor.BuildRing(geo, t, d.buffers[i])
	}

	d.flip = native.NewFlipSync()

	if d.engine == nil {
		d.unwindBuffers(2)
		return nil, ErrHardwareFail
	}
	engCfg := native.EngineConfig{ClockHz: cfg.ClockHz, Pins: cfg.Pins}
	if err := d.engine.Setup(engCfg); err != nil {
		d.unwindBuffers(2)
		return nil, ErrHardwareFail
	}
	for i := 0; i < 2; i++ {
		d.rings[i].Link(i, d.engine)
	}
	d.engine.SetShiftCompleteCallback(func() { d.flip.Release() })
	if err := d.engine.Start(); err != nil {
		d.unwindBuffers(2)
		return nil, ErrHardwareFail
	}

	return d, nil
}

// unwindBuffers releases any Allocator memory acquired for buffers
// [0, acquired) during a failed New.
func (d *Device) unwindBuffers(acquired int) {
	for i := 0; i < acquired; i++ {
		if d.bufMem[i] != nil {
			d.cfg.Allocator.Free(d.bufMem[i])
			d.bufMem[i] = nil
		}
	}
}

// Shutdown stops the stream engine and releases every resource New
// acquired, zeroing the Device so it is not reused (spec.md §4.6).
func (d *Device) Shutdown() {
	if d.engine != nil {
		d.engine.Stop()
	}
	for i := 0; i < 2; i++ {
		if d.bufMem[i] != nil {
			d.cfg.Allocator.Free(d.bufMem[i])
		}
	}
	*d = Device{}
}

// SetBrightness clamps percent to [0, 100], derives the new OE-gating
// column cutoff, and returns the previously set percentage. It takes
// effect on the next encoded pixel or frame (spec.md §4.4).
func (d *Device) SetBrightness(percent int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	prev := d.percent
	d.setBrightnessLocked(percent)
	return prev
}

func (d *Device) setBrightnessLocked(percent int) {
	if percent < 0 {
		percent = 0
	} else if percent > 100 {
		percent = 100
	}
	d.percent = percent
	if percent == 100 {
		d.cutoff = d.geo.Width
		return
	}
	// cutoff = round(W*percent/100); computed in integer arithmetic with a
	// half-up rounding term, matching spec.md §4.4's scaled formula. Clamped
	// below Width so percent<100 can never round up to cutoff==Width, which
	// would make it indistinguishable from 100%.
	cutoff := (d.geo.Width*percent + 50) / 100
	if cutoff > d.geo.Width-1 {
		cutoff = d.geo.Width - 1
	}
	d.cutoff = cutoff
}

// GetBrightness returns the current brightness percentage.
func (d *Device) GetBrightness() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.percent
}

// brightnessState returns a consistent (percent, cutoff) snapshot for use
// by the encoder.
func (d *Device) brightnessState() (percent, cutoff int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.percent, d.cutoff
}

// StreamingBuffer returns the bitplane buffer most recently handed to the
// stream engine by Publish (the buffer index opposite the current drawing
// buffer). It is exported for tests and diagnostics that need to inspect
// what the hardware is actually scanning out.
func (d *Device) StreamingBuffer() bitplane.Buffer {
	return d.buffers[1-d.current]
}
