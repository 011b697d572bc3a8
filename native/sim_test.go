package native_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/hub75/bitplane"
	"github.com/ardnew/hub75/descriptor"
	"github.com/ardnew/hub75/geometry"
	"github.com/ardnew/hub75/native"
)

func TestFlipSyncStartsAvailable(t *testing.T) {
	f := native.NewFlipSync()
	assert.True(t, f.TryAcquire())
	assert.False(t, f.TryAcquire(), "semaphore should be binary, not counting")
}

func TestFlipSyncReleaseIsIdempotent(t *testing.T) {
	f := native.NewFlipSync()
	f.Release()
	f.Release()
	assert.True(t, f.TryAcquire())
	assert.False(t, f.TryAcquire())
}

func TestSimEngineFiresCallbackAtEndOfList(t *testing.T) {
	g, err := geometry.New(32, 16, 4)
	require.NoError(t, err)
	mem := make([]byte, bitplane.RequiredBytes(g))
	buf := bitplane.NewBuffer(g, mem)
	ring := descriptor.BuildRing(g, 3, buf)

	eng := native.NewSimEngine()
	eng.Tick = time.Microsecond
	require.NoError(t, eng.Setup(native.EngineConfig{ClockHz: 20_000_000}))
	ring.Link(0, eng)
	ring.Link(1, eng)

	done := make(chan struct{}, 1)
	eng.SetShiftCompleteCallback(func() {
		select {
		case done <- struct{}{}:
		default:
		}
	})
	require.NoError(t, eng.Start())
	defer eng.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("callback never fired")
	}
}

func TestSimAllocatorRejectsOverCapacity(t *testing.T) {
	a := native.NewSimAllocator(100)
	b, err := a.Alloc(64)
	require.NoError(t, err)
	assert.Len(t, b, 64)
	assert.Equal(t, 36, a.FreeBytes())

	_, err = a.Alloc(64)
	assert.ErrorIs(t, err, native.ErrAllocFailed)
}

func TestSimAllocatorFreeReclaims(t *testing.T) {
	a := native.NewSimAllocator(100)
	b, err := a.Alloc(50)
	require.NoError(t, err)
	a.Free(b)
	assert.Equal(t, 100, a.FreeBytes())
}
