package vmix

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// inputSlotPoolSize bounds how many buffers an InputSlot keeps in
// circulation: one for the currently busy frame, plus headroom for
// buffers still referenced by an in-flight render while new frames keep
// arriving.
const inputSlotPoolSize = 3

// InputSlot is a per-input single-frame mailbox with lossy overwrite
// semantics: producers never block, and a slow consumer simply sees the
// latest frame each time it asks.
type InputSlot struct {
	mu        sync.Mutex
	index     int
	active    bool
	connected bool
	current   *FrameRef
	free      []*I420Buffer
	allocated int
	logger    zerolog.Logger
}

// NewInputSlot creates an inactive, disconnected slot for the given input
// index.
func NewInputSlot(index int, logger zerolog.Logger) *InputSlot {
	return &InputSlot{index: index, logger: logger}
}

// SetActive flips the active flag. Transitioning to false drops the
// retained frame immediately.
func (s *InputSlot) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
	if !active {
		s.dropCurrentLocked()
	}
}

// SetConnected flips the connected flag. Transitioning to false drops the
// retained frame immediately.
func (s *InputSlot) SetConnected(connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = connected
	if !connected {
		s.dropCurrentLocked()
	}
}

// IsActive reports whether the slot is currently marked active.
func (s *InputSlot) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// IsConnected reports whether the slot is currently marked connected.
func (s *InputSlot) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *InputSlot) dropCurrentLocked() {
	if s.current != nil {
		ref := s.current
		s.current = nil
		// s.mu is already held, so a buffer whose last reference this was
		// goes straight back to the free list rather than through
		// releaseToPool, which takes s.mu itself.
		if atomic.AddInt32(&ref.refs, -1) == 0 {
			s.free = append(s.free, ref.buf)
		}
	}
}

// Push publishes frame as the slot's current busy frame. If the slot is
// inactive the frame is dropped immediately without blocking. If the
// slot's buffer pool is exhausted (an older frame is still referenced by
// the renderer) the frame is dropped and logged — ResourceExhausted is
// never surfaced to the caller, per spec.
func (s *InputSlot) Push(frame *I420Buffer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return
	}

	buf := s.acquireLocked()
	if buf == nil {
		s.logger.Error().Int("input", s.index).Msg("input slot buffer pool exhausted, dropping frame")
		return
	}
	copyI420(buf, frame)

	ref := newFrameRef(buf, s.releaseToPool)
	s.dropCurrentLocked()
	s.current = ref
}

// Pop returns a retained reference to the current busy frame, or nil if
// the slot is inactive, disconnected, or has never been pushed to. The
// caller must Release the handle when done with it.
func (s *InputSlot) Pop() *FrameRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active || !s.connected || s.current == nil {
		return nil
	}
	return s.current.Retain()
}

func (s *InputSlot) acquireLocked() *I420Buffer {
	if n := len(s.free); n > 0 {
		buf := s.free[n-1]
		s.free = s.free[:n-1]
		return buf
	}
	if s.allocated < inputSlotPoolSize {
		s.allocated++
		return &I420Buffer{}
	}
	return nil
}

func (s *InputSlot) releaseToPool(buf *I420Buffer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.free = append(s.free, buf)
}
