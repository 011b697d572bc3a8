package native

import (
	"sync"
	"sync/atomic"
	"time"
	"unsafe"
)

// simDescriptor is SimEngine's own record of one linked descriptor, built
// entirely from LinkDescriptor calls — mirroring how a real DMA
// controller's control-block chain is populated one link at a time rather
// than handed a whole ring up front.
type simDescriptor struct {
	memory    unsafe.Pointer
	length    int
	next      int
	endOfList bool
}

// SimEngine is a host-runnable StreamEngine used by tests: it walks the
// descriptor chain built by LinkDescriptor calls on a goroutine, honoring
// FlipTo at end-of-list exactly as a real engine's hardware boundary would,
// and invokes the registered callback there. Tick controls how long each
// simulated descriptor step takes; it defaults to a small but nonzero
// duration so ring traversal is observable by a blocking Acquire without
// spinning.
type SimEngine struct {
	cfg   EngineConfig
	rings [2][]simDescriptor
	Tick  time.Duration

	current int32 // atomic: 0 or 1
	pending int32 // atomic: -1 means no flip armed

	mu       sync.Mutex
	callback func()
	stop     chan struct{}
	running  bool
}

// NewSimEngine returns a SimEngine ready for Setup.
func NewSimEngine() *SimEngine {
	return &SimEngine{pending: -1, Tick: time.Microsecond}
}

// Setup implements StreamEngine.
func (s *SimEngine) Setup(cfg EngineConfig) error {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	return nil
}

// LinkDescriptor implements StreamEngine: it grows bufferID's descriptor
// slice to fit desc, records its real memory/length, and chains prev's
// next pointer to desc. A call where prev >= desc only happens on the
// ring-closing link (last descriptor back to Head), which is how the
// traversal in run learns where the end of the list is.
func (s *SimEngine) LinkDescriptor(bufferID, desc, prev int, memory unsafe.Pointer, sizeBytes int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ring := s.rings[bufferID]
	if desc >= len(ring) {
		grown := make([]simDescriptor, desc+1)
		copy(grown, ring)
		ring = grown
	}
	ring[desc].memory = memory
	ring[desc].length = sizeBytes

	if prev >= 0 && prev < len(ring) {
		ring[prev].next = desc
		ring[prev].endOfList = prev >= desc
	}
	s.rings[bufferID] = ring
}

// Start implements StreamEngine.
func (s *SimEngine) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stop = make(chan struct{})
	s.mu.Unlock()

	go s.run()
	return nil
}

// Stop implements StreamEngine.
func (s *SimEngine) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	close(s.stop)
	s.running = false
}

// FlipTo implements StreamEngine.
func (s *SimEngine) FlipTo(buffer int) {
	atomic.StoreInt32(&s.pending, int32(buffer))
}

// SetShiftCompleteCallback implements StreamEngine.
func (s *SimEngine) SetShiftCompleteCallback(fn func()) {
	s.mu.Lock()
	s.callback = fn
	s.mu.Unlock()
}

func (s *SimEngine) run() {
	for {
		select {
		case <-s.stop:
			return
		default:
		}

		s.mu.Lock()
		ring := s.rings[atomic.LoadInt32(&s.current)]
		s.mu.Unlock()
		if len(ring) == 0 {
			return
		}

		idx := 0
		for {
			select {
			case <-s.stop:
				return
			case <-time.After(s.Tick):
			}
			d := ring[idx]
			if d.endOfList {
				break
			}
			idx = d.next
		}

		if p := atomic.LoadInt32(&s.pending); p >= 0 {
			atomic.StoreInt32(&s.current, p)
			atomic.StoreInt32(&s.pending, -1)
		}

		s.mu.Lock()
		cb := s.callback
		s.mu.Unlock()
		if cb != nil {
			cb()
		}
	}
}

// SimAllocator is a host-runnable Allocator backed by plain Go slices, with
// a configurable total capacity so tests can exercise the out-of-memory
// path of descriptor.Plan / Device.New.
type SimAllocator struct {
	mu    sync.Mutex
	total int
	used  int
}

// NewSimAllocator returns a SimAllocator with the given total DMA-capable
// capacity, in bytes.
func NewSimAllocator(total int) *SimAllocator {
	return &SimAllocator{total: total}
}

// Alloc implements Allocator.
func (a *SimAllocator) Alloc(size int) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.used+size > a.total {
		return nil, ErrAllocFailed
	}
	a.used += size
	return make([]byte, size), nil
}

// Free implements Allocator.
func (a *SimAllocator) Free(b []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.used -= len(b)
	if a.used < 0 {
		a.used = 0
	}
}

// FreeBytes implements Allocator.
func (a *SimAllocator) FreeBytes() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.total - a.used
}

// LargestFreeBlock implements Allocator. SimAllocator has no fragmentation
// model, so the largest free block is simply all remaining free bytes.
func (a *SimAllocator) LargestFreeBlock() int {
	return a.FreeBytes()
}
