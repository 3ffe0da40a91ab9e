package vmix

import "sync/atomic"

// FrameRef is a reference-counted handle to an I420Buffer backed by a
// pool. Consumers (InputSlot.Pop, AvatarStore.Get, generator delivery)
// Retain a reference to keep the buffer alive past the critical section
// that produced it, and Release it when done; the buffer returns to its
// pool only once the last reference is released.
type FrameRef struct {
	buf     *I420Buffer
	refs    int32
	release func(*I420Buffer)
}

// newFrameRef wraps buf with an initial reference count of 1. release is
// invoked exactly once, when the last reference is dropped.
func newFrameRef(buf *I420Buffer, release func(*I420Buffer)) *FrameRef {
	return &FrameRef{buf: buf, refs: 1, release: release}
}

// Retain increments the reference count and returns the same handle, so
// callers can write `ref = ref.Retain()` at the point they hand it off.
func (f *FrameRef) Retain() *FrameRef {
	if f == nil {
		return nil
	}
	atomic.AddInt32(&f.refs, 1)
	return f
}

// Release drops a reference; once it reaches zero the backing buffer is
// returned to its owning pool via the release callback.
func (f *FrameRef) Release() {
	if f == nil {
		return
	}
	if atomic.AddInt32(&f.refs, -1) == 0 && f.release != nil {
		f.release(f.buf)
	}
}

// Buffer returns the underlying pixel buffer. Valid only while the caller
// holds a reference.
func (f *FrameRef) Buffer() *I420Buffer {
	if f == nil {
		return nil
	}
	return f.buf
}
