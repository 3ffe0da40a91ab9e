package vmix

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"
)

// tinyPNG encodes a tiny solid-color PNG, used wherever a test needs real
// decodable image bytes rather than hand-rolled I420 buffers.
func tinyPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding fixture PNG: %v", err)
	}
	return buf.Bytes()
}

// fakeClock is a manually advanced Clock, so tests can assert on delivered
// timestamps deterministically.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeDestination captures every delivered frame for later inspection.
type fakeDestination struct {
	mu        sync.Mutex
	delivered []DeliveredFrame
}

func (d *fakeDestination) Deliver(frame DeliveredFrame) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.delivered = append(d.delivered, frame)
}

func (d *fakeDestination) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.delivered)
}

func (d *fakeDestination) last() DeliveredFrame {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.delivered[len(d.delivered)-1]
}

// fakeInputSource is a minimal InputSource for generator tests that don't
// need a full Compositor.
type fakeInputSource struct {
	frames  map[int32]*I420Buffer
	avatars map[int32]*I420Buffer
}

func (f *fakeInputSource) Frame(index int32) *FrameRef {
	buf, ok := f.frames[index]
	if !ok {
		return nil
	}
	return newFrameRef(buf, func(*I420Buffer) {})
}

func (f *fakeInputSource) Avatar(index int32) *FrameRef {
	buf, ok := f.avatars[index]
	if !ok {
		return nil
	}
	return newFrameRef(buf, func(*I420Buffer) {})
}
