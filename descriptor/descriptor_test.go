package descriptor_test

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/hub75/bitplane"
	"github.com/ardnew/hub75/descriptor"
	"github.com/ardnew/hub75/geometry"
)

func newTestBuffer(g geometry.Geometry) bitplane.Buffer {
	return bitplane.NewBuffer(g, make([]byte, bitplane.RequiredBytes(g)))
}

func TestKMatchesFormula(t *testing.T) {
	const depth = 8
	for transition := 0; transition < depth; transition++ {
		want := 1
		for i := transition + 1; i < depth; i++ {
			want += 1 << uint(i-transition-1)
		}
		assert.Equal(t, want, descriptor.K(transition, depth))
	}
	// t = depth-1 means every plane is <= t, so K == 1.
	assert.Equal(t, 1, descriptor.K(depth-1, depth))
}

func TestBuildRingLength(t *testing.T) {
	g, err := geometry.New(64, 32, 4)
	require.NoError(t, err)

	const transition = 3
	buf := newTestBuffer(g)
	ring := descriptor.BuildRing(g, transition, buf)
	want := descriptor.K(transition, g.Depth) * g.Rows
	assert.Len(t, ring.Slab, want)
}

func TestBuildRingLinksCycleBackToHead(t *testing.T) {
	g, err := geometry.New(32, 16, 4)
	require.NoError(t, err)

	buf := newTestBuffer(g)
	ring := descriptor.BuildRing(g, 2, buf)
	last := len(ring.Slab) - 1
	assert.True(t, ring.Slab[last].EndOfList)
	assert.Equal(t, ring.Head, ring.Slab[last].Next)

	for i := 0; i < last; i++ {
		assert.Equal(t, i+1, ring.Slab[i].Next)
		assert.False(t, ring.Slab[i].EndOfList)
	}
}

func TestBuildRingCoversEveryBitplaneAtLeastOnce(t *testing.T) {
	g, err := geometry.New(32, 32, 4)
	require.NoError(t, err)

	const transition = 2
	buf := newTestBuffer(g)
	ring := descriptor.BuildRing(g, transition, buf)

	covers := func(d descriptor.Descriptor, addr unsafe.Pointer) bool {
		start := uintptr(d.Memory)
		end := start + uintptr(d.Length)
		p := uintptr(addr)
		return p >= start && p < end
	}

	for row := 0; row < g.Rows; row++ {
		for bit := 0; bit < g.Depth; bit++ {
			addr := bitplane.WordAddr(buf, row, bit, 0)
			found := false
			for _, d := range ring.Slab {
				if covers(d, addr) {
					found = true
					break
				}
			}
			assert.True(t, found, "row %d bit %d never covered", row, bit)
		}
	}
}

func TestPlanSucceedsWithGenerousBudget(t *testing.T) {
	g, err := geometry.New(64, 32, 4)
	require.NoError(t, err)

	transition, refresh, err := descriptor.Plan(g, 20_000_000, 100, 1<<20, 1<<20, 0)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, refresh, 100.0)

	k := descriptor.K(transition, g.Depth)
	ramRequired := k * g.Rows * 2 * descriptor.DescriptorSize
	assert.LessOrEqual(t, ramRequired, 1<<20)
}

func TestPlanFailsOutOfMemoryWithTinyBudget(t *testing.T) {
	g, err := geometry.New(64, 32, 4)
	require.NoError(t, err)

	_, _, err = descriptor.Plan(g, 20_000_000, 1, 16, 16, 0)
	assert.ErrorIs(t, err, descriptor.ErrOutOfMemory)
}

func TestPlanFailsRefreshUnachievableWithHighTarget(t *testing.T) {
	g, err := geometry.New(64, 64, 5)
	require.NoError(t, err)

	_, _, err = descriptor.Plan(g, 13_330_000, 100_000, 1<<24, 1<<24, 0)
	assert.ErrorIs(t, err, descriptor.ErrRefreshUnachievable)
}
