package hub75_test

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/hub75"
	"github.com/ardnew/hub75/bitplane"
	"github.com/ardnew/hub75/gamma"
	"github.com/ardnew/hub75/geometry"
	"github.com/ardnew/hub75/native"
)

func newTestDevice(t *testing.T) (*hub75.Device, geometry.Geometry) {
	t.Helper()
	cfg := hub75.Config{
		Width: 64, Height: 32, AddrLines: 4,
		ClockHz:      hub75.Clock20MHz,
		MinRefreshHz: 1, // keep the transition-bit search trivial for tests
		ReserveBytes: 0,
		GammaMode:    gamma.Off,
		Engine:       native.NewSimEngine(),
		Allocator:    native.NewSimAllocator(1 << 20),
	}
	d, err := hub75.New(cfg)
	require.NoError(t, err)
	t.Cleanup(d.Shutdown)

	g, err := geometry.New(cfg.Width, cfg.Height, cfg.AddrLines)
	require.NoError(t, err)
	return d, g
}

func TestNewSucceedsWithGenerousBudget(t *testing.T) {
	d, _ := newTestDevice(t)
	assert.NotNil(t, d)
	assert.Equal(t, hub75.DefaultBrightness, d.GetBrightness())
}

func TestNewRejectsInvalidGeometry(t *testing.T) {
	_, err := hub75.New(hub75.Config{
		Width: 32, Height: 16, AddrLines: 3, // no such panel configuration
		ClockHz: hub75.Clock20MHz, MinRefreshHz: 1,
		Engine: native.NewSimEngine(), Allocator: native.NewSimAllocator(1 << 20),
	})
	assert.ErrorIs(t, err, hub75.ErrInvalidConfig)
}

func TestNewRejectsMissingAllocator(t *testing.T) {
	_, err := hub75.New(hub75.Config{
		Width: 64, Height: 32, AddrLines: 4,
		ClockHz: hub75.Clock20MHz, MinRefreshHz: 1,
		Engine: native.NewSimEngine(),
	})
	assert.ErrorIs(t, err, hub75.ErrInvalidConfig)
}

func TestNewFailsOutOfMemoryWithTinyAllocator(t *testing.T) {
	_, err := hub75.New(hub75.Config{
		Width: 64, Height: 64, AddrLines: 5,
		ClockHz: hub75.Clock20MHz, MinRefreshHz: 1,
		Engine: native.NewSimEngine(), Allocator: native.NewSimAllocator(16),
	})
	assert.ErrorIs(t, err, hub75.ErrOutOfMemory)
}

func TestSetBrightnessClampsAndReturnsPrevious(t *testing.T) {
	d, _ := newTestDevice(t)

	prev := d.SetBrightness(50)
	assert.Equal(t, hub75.DefaultBrightness, prev)
	assert.Equal(t, 50, d.GetBrightness())

	prev = d.SetBrightness(1000)
	assert.Equal(t, 50, prev)
	assert.Equal(t, 100, d.GetBrightness())

	prev = d.SetBrightness(-5)
	assert.Equal(t, 100, prev)
	assert.Equal(t, 0, d.GetBrightness())
}

func TestPixelFillThenWhitePixelPublish(t *testing.T) {
	d, g := newTestDevice(t)

	d.Fill(255, 0, 0)
	d.SetPixel(3, 3, 255, 255, 255)
	require.NoError(t, d.Publish(true))

	w := deviceWord(d, g, 3, 3, 7)
	assert.NotZero(t, w&(1<<0), "R1")
	assert.NotZero(t, w&(1<<1), "G1")
	assert.NotZero(t, w&(1<<2), "B1")
	assert.NotZero(t, w&(1<<3), "R2 from the fill")
	assert.Zero(t, w&(1<<4), "G2 clear")
	assert.Zero(t, w&(1<<5), "B2 clear")
}

func TestBrightnessZeroBlanksNonLSBHighPlanes(t *testing.T) {
	d, g := newTestDevice(t)
	d.SetBrightness(0)
	d.Fill(255, 255, 255)
	require.NoError(t, d.Publish(true))

	for x := 0; x < g.Width; x++ {
		w := deviceWord(d, g, x, 0, 7)
		assert.NotZero(t, w&(1<<7), "x=%d bitplane 7 OE must be set at 0%% brightness", x)
	}
}

func TestBrightness100StillBlanksColumnZero(t *testing.T) {
	d, g := newTestDevice(t)
	d.SetBrightness(100)
	d.Fill(255, 255, 255)
	require.NoError(t, d.Publish(true))

	w := deviceWord(d, g, 0, 0, 7)
	assert.NotZero(t, w&(1<<7), "column 0 always blanks for the row transition")
}

func TestOutOfRangePixelIgnored(t *testing.T) {
	d, g := newTestDevice(t)
	d.Fill(10, 20, 30)
	require.NoError(t, d.Publish(true))
	before := snapshot(d, g)

	// Publish streams the other buffer next, so give it the same fill.
	d.Fill(10, 20, 30)
	d.SetPixel(g.Width, 0, 255, 255, 255)
	require.NoError(t, d.Publish(true))
	after := snapshot(d, g)

	assert.Equal(t, before, after)
}

func TestFrameRoundTrip(t *testing.T) {
	d, g := newTestDevice(t)
	f := hub75.NewFrame(g)

	f.SetPixel(0, 0, 128, 0, 0)
	require.NoError(t, f.Publish(d))

	// Storage column 1 holds logical column 0, due to the x^1 storage swap.
	w := *(*uint16)(bitplane.WordAddr(d.StreamingBuffer(), 0, 7, 1))
	assert.NotZero(t, w&(1<<0), "R1 set for channel >= 128 on plane 7")
	assert.Zero(t, w&(1<<1), "G1 clear")
	assert.Zero(t, w&(1<<2), "B1 clear")
}

// deviceWord reads back the control word for a pixel just published, from
// whichever buffer is now the streaming buffer (1-d.current after Publish
// advances it).
func deviceWord(d *hub75.Device, g geometry.Geometry, x, yAbs, bit int) uint16 {
	buf := d.StreamingBuffer()
	half := yAbs % g.Rows
	return bitplane.Word(buf, x, half, bit)
}

func snapshot(d *hub75.Device, g geometry.Geometry) []uint16 {
	buf := d.StreamingBuffer()
	var out []uint16
	for half := 0; half < g.Rows; half++ {
		for bit := 0; bit < g.Depth; bit++ {
			for x := 0; x < g.Width; x++ {
				out = append(out, bitplane.Word(buf, x, half, bit))
			}
		}
	}
	return out
}
