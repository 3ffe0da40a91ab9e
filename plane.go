package vmix

// I420Buffer is a planar 4:2:0 YUV buffer: Y at full resolution, U and V
// at half resolution on both axes. It is reused across ticks via pools
// (InputSlot's per-slot pool, the generator's canvas pool), so EnsureSize
// reallocates the backing planes only when the requested dimensions grow
// past current capacity — matching the teacher's dirty-buffer reuse idiom
// in its framebuffer management, generalized from interleaved RGBA to
// planar YUV.
type I420Buffer struct {
	Width, Height       int
	StrideY, StrideC    int
	Y, U, V             []byte
}

// chromaExtent returns the rounded-up half-resolution chroma plane
// dimensions for a given luma width/height.
func chromaExtent(w, h int) (int, int) {
	return (w + 1) / 2, (h + 1) / 2
}

// NewI420Buffer allocates an I420Buffer for w x h (w, h need not be even;
// chroma planes round up).
func NewI420Buffer(w, h int) *I420Buffer {
	b := &I420Buffer{}
	b.EnsureSize(w, h)
	return b
}

// EnsureSize reallocates the buffer's planes if its current capacity
// cannot hold w x h, and always resets Width/Height/strides to the
// requested extent.
func (b *I420Buffer) EnsureSize(w, h int) {
	cw, ch := chromaExtent(w, h)
	b.Width, b.Height = w, h
	b.StrideY, b.StrideC = w, cw

	ySize := w * h
	cSize := cw * ch
	if cap(b.Y) < ySize {
		b.Y = make([]byte, ySize)
	} else {
		b.Y = b.Y[:ySize]
	}
	if cap(b.U) < cSize {
		b.U = make([]byte, cSize)
	} else {
		b.U = b.U[:cSize]
	}
	if cap(b.V) < cSize {
		b.V = make([]byte, cSize)
	} else {
		b.V = b.V[:cSize]
	}
}

// Fill sets every pixel of the buffer to a constant YUV color.
func (b *I420Buffer) Fill(c YUVColor) {
	for i := range b.Y {
		b.Y[i] = c.Y
	}
	for i := range b.U {
		b.U[i] = c.Cb
	}
	for i := range b.V {
		b.V[i] = c.Cr
	}
}

// YUVColor is a constant background fill color.
type YUVColor struct {
	Y, Cb, Cr uint8
}

// VideoSize is a width/height pair.
type VideoSize struct {
	Width, Height int
}

// I420ABuffer is an I420Buffer plus a full-resolution alpha plane, used
// for decoded overlay and avatar images (spec §3).
type I420ABuffer struct {
	*I420Buffer
	A []byte
}

// NewI420ABuffer allocates an I420ABuffer for w x h.
func NewI420ABuffer(w, h int) *I420ABuffer {
	return &I420ABuffer{
		I420Buffer: NewI420Buffer(w, h),
		A:          make([]byte, w*h),
	}
}

// EnsureSize reallocates the buffer (planes and alpha) if needed to hold
// w x h, reusing the existing backing arrays when they're already large
// enough.
func (b *I420ABuffer) EnsureSize(w, h int) {
	b.I420Buffer.EnsureSize(w, h)
	aSize := w * h
	if cap(b.A) < aSize {
		b.A = make([]byte, aSize)
	} else {
		b.A = b.A[:aSize]
	}
}

// copyI420 copies src's pixel data into dst, resizing dst if needed.
func copyI420(dst *I420Buffer, src *I420Buffer) {
	dst.EnsureSize(src.Width, src.Height)
	copy(dst.Y, src.Y)
	copy(dst.U, src.U)
	copy(dst.V, src.V)
}
