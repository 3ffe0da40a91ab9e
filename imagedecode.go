package vmix

import (
	"bytes"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ImageDecoder turns arbitrary encoded image bytes (PNG/JPEG/WebP/BMP) into
// an I420ABuffer. It is the "external image-decode collaborator" of
// spec.md §1/§6; callers may substitute their own.
type ImageDecoder interface {
	Decode(encoded []byte) (*I420ABuffer, error)
}

// defaultImageDecoder decodes via the standard library's image.Decode
// (png/jpeg registered) plus golang.org/x/image's bmp/webp decoders —
// the same package the teacher depends on for its splash-screen decode
// path (video_chip.go), reused here instead of adding a second image
// stack. The standard library's image/draw normalizes whatever concrete
// image.Image comes back into a single image.NRGBA before the core's own planar YUV
// conversion takes over, because only the core's conversion understands
// 4:2:0 subsampling strides.
type defaultImageDecoder struct{}

// NewImageDecoder returns the core's built-in ImageDecoder.
func NewImageDecoder() ImageDecoder { return defaultImageDecoder{} }

func (defaultImageDecoder) Decode(encoded []byte) (*I420ABuffer, error) {
	img, _, err := image.Decode(bytes.NewReader(encoded))
	if err != nil {
		return nil, newError(DecodeFailure, "image_decode", "unrecognized or corrupt image", err)
	}
	nrgba := toNRGBA(img)
	return nrgbaToI420A(nrgba), nil
}

func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok {
		return n
	}
	b := img.Bounds()
	out := image.NewNRGBA(b)
	draw.Draw(out, b, img, b.Min, draw.Src)
	return out
}

// nrgbaToI420A performs limited-range (studio swing) BT.601 RGB->YUV
// conversion, subsampling
// chroma 2x2, and copies alpha at full resolution.
func nrgbaToI420A(src *image.NRGBA) *I420ABuffer {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := NewI420ABuffer(w, h)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			o := src.PixOffset(b.Min.X+x, b.Min.Y+y)
			r, g, bl, a := src.Pix[o], src.Pix[o+1], src.Pix[o+2], src.Pix[o+3]
			dst.Y[y*dst.StrideY+x] = rgbToY(r, g, bl)
			dst.A[y*w+x] = a
		}
	}
	cw, ch := chromaExtent(w, h)
	for cy := 0; cy < ch; cy++ {
		for cx := 0; cx < cw; cx++ {
			sx, sy := cx*2, cy*2
			if sx >= w {
				sx = w - 1
			}
			if sy >= h {
				sy = h - 1
			}
			o := src.PixOffset(b.Min.X+sx, b.Min.Y+sy)
			r, g, bl := src.Pix[o], src.Pix[o+1], src.Pix[o+2]
			cb, cr := rgbToCbCr(r, g, bl)
			dst.U[cy*dst.StrideC+cx] = cb
			dst.V[cy*dst.StrideC+cx] = cr
		}
	}
	return dst
}

func clampByte(v int32) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func rgbToY(r, g, b uint8) uint8 {
	v := (66*int32(r) + 129*int32(g) + 25*int32(b) + 128) >> 8
	return clampByte(v + 16)
}

func rgbToCbCr(r, g, b uint8) (uint8, uint8) {
	cb := (-38*int32(r) - 74*int32(g) + 112*int32(b) + 128) >> 8
	cr := (112*int32(r) - 94*int32(g) - 18*int32(b) + 128) >> 8
	return clampByte(cb + 128), clampByte(cr + 128)
}
