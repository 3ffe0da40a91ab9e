package vmix

import (
	"crypto/sha256"
	"sync"

	"github.com/rs/zerolog"
)

// Overlay is a single image layer positioned relative to an area (either a
// region, for a per-input overlay, or the whole canvas, for a global
// overlay), per spec.md §4.3.2/§4.3.7.
//
// X, Y, Width and Height are fractions of the area's dimensions, not pixel
// counts. Faithfully to the original implementation this is distilled from,
// Y and Height are scaled by the area's *width*, not its height — a
// documented quirk (see DESIGN.md, "Open Question Decisions"), not a bug
// this core silently corrects.
type Overlay struct {
	ID       string
	Image    []byte
	Z        int32
	X        float64
	Y        float64
	Width    float64
	Height   float64
	Disabled bool
}

// overlayCache decodes overlay image bytes into I420A buffers once per
// distinct content hash and shares the result across overlays that
// reference identical bytes, per SPEC_FULL.md's ingestion enrichment.
type overlayCache struct {
	mu      sync.Mutex
	decoder ImageDecoder
	logger  zerolog.Logger
	entries map[[32]byte]*cachedOverlayImage
}

type cachedOverlayImage struct {
	buf  *I420ABuffer
	refs int
}

func newOverlayCache(decoder ImageDecoder, logger zerolog.Logger) *overlayCache {
	return &overlayCache{
		decoder: decoder,
		logger:  logger,
		entries: make(map[[32]byte]*cachedOverlayImage),
	}
}

// decode returns the decoded buffer for ov.Image, decoding and caching it
// on first use. A decode failure is logged and reported as nil; the caller
// skips rendering that overlay rather than failing the whole tick.
func (c *overlayCache) decode(ov Overlay) *I420ABuffer {
	if len(ov.Image) == 0 {
		return nil
	}
	key := sha256.Sum256(ov.Image)

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return e.buf
	}
	c.mu.Unlock()

	decoded, err := c.decoder.Decode(ov.Image)
	if err != nil {
		c.logger.Warn().Str("overlay", ov.ID).Err(err).Msg("overlay image decode failed, skipping")
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return e.buf
	}
	c.entries[key] = &cachedOverlayImage{buf: decoded, refs: 1}
	return decoded
}

// reconcile drops any decoded entry no longer referenced by any overlay in
// live, the overlay sets of this cache's generator's live config. The
// generator calls it once per tick.
func (c *overlayCache) reconcile(live [][]Overlay) {
	used := make(map[[32]byte]struct{})
	for _, set := range live {
		for _, ov := range set {
			if len(ov.Image) == 0 {
				continue
			}
			used[sha256.Sum256(ov.Image)] = struct{}{}
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if _, ok := used[key]; !ok {
			delete(c.entries, key)
		}
	}
}

// blendByte composes src over dst with coverage alpha (0-255), per the
// linear alpha-blend formula of spec.md §4.3.7.
func blendByte(src, dst, alpha byte) byte {
	a := int(alpha)
	return byte((a*int(src) + (255-a)*int(dst)) / 255)
}

// overlayDestRect computes the overlay's pixel destination within area,
// applying the width-for-both-axes scaling quirk, then clips it to the
// canvas bounds, returning both the clipped destination rect and the
// matching source sub-rect of the decoded overlay image (reduced
// proportionally to whatever was clipped away).
func overlayDestRect(area PixelRect, ov Overlay, canvasW, canvasH int, decoded *I420ABuffer) (dst, src PixelRect, ok bool) {
	areaW := float64(area.W)
	rawX := float64(area.X) + ov.X*areaW
	rawY := float64(area.Y) + ov.Y*areaW
	rawW := ov.Width * areaW
	rawH := ov.Height * areaW
	if rawW <= 0 || rawH <= 0 {
		return PixelRect{}, PixelRect{}, false
	}
	raw := PixelRect{X: int(rawX), Y: int(rawY), W: int(rawW), H: int(rawH)}

	clipped := clampEven(raw, canvasW, canvasH)
	if clipped.Empty() {
		return PixelRect{}, PixelRect{}, false
	}

	srcW, srcH := decoded.Width, decoded.Height
	offXFrac := float64(clipped.X-raw.X) / float64(raw.W)
	offYFrac := float64(clipped.Y-raw.Y) / float64(raw.H)
	scaleXFrac := float64(clipped.W) / float64(raw.W)
	scaleYFrac := float64(clipped.H) / float64(raw.H)

	srcRect := PixelRect{
		X: evenDown(int(offXFrac * float64(srcW))),
		Y: evenDown(int(offYFrac * float64(srcH))),
		W: evenDown(int(scaleXFrac * float64(srcW))),
		H: evenDown(int(scaleYFrac * float64(srcH))),
	}
	if srcRect.W <= 0 {
		srcRect.W = 2
	}
	if srcRect.H <= 0 {
		srcRect.H = 2
	}
	if srcRect.X+srcRect.W > srcW {
		srcRect.W = evenDown(srcW - srcRect.X)
	}
	if srcRect.Y+srcRect.H > srcH {
		srcRect.H = evenDown(srcH - srcRect.Y)
	}
	if srcRect.Empty() {
		return PixelRect{}, PixelRect{}, false
	}
	return clipped, srcRect, true
}

// renderOverlay scales ov's decoded image into a scratch buffer sized to
// its clipped destination rect and alpha-blends it onto canvas. scratch is
// resized with EnsureSize, which reuses its backing arrays when they are
// already large enough, so one scratch can serve several overlays.
func renderOverlay(canvas *I420Buffer, area PixelRect, canvasW, canvasH int, ov Overlay, decoded *I420ABuffer, scratch *I420ABuffer) {
	if decoded == nil || ov.Disabled {
		return
	}
	dstRect, srcRect, ok := overlayDestRect(area, ov, canvasW, canvasH, decoded)
	if !ok {
		return
	}

	scratch.EnsureSize(dstRect.W, dstRect.H)
	scaleI420AInto(scratch, decoded, srcRect)

	for y := 0; y < dstRect.H; y++ {
		srcRow := y * scratch.StrideY
		dstRow := (dstRect.Y + y) * canvas.StrideY
		for x := 0; x < dstRect.W; x++ {
			alpha := scratch.A[srcRow+x]
			idx := dstRow + dstRect.X + x
			canvas.Y[idx] = blendByte(scratch.Y[srcRow+x], canvas.Y[idx], alpha)
		}
	}

	cw, ch := dstRect.W/2, dstRect.H/2
	ccx, ccy := dstRect.X/2, dstRect.Y/2
	for y := 0; y < ch; y++ {
		ay0, ay1 := y*2, y*2+1
		if ay1 >= dstRect.H {
			ay1 = ay0
		}
		cRow := y * scratch.StrideC
		dstRow := (ccy + y) * canvas.StrideC
		for x := 0; x < cw; x++ {
			ax0, ax1 := x*2, x*2+1
			if ax1 >= dstRect.W {
				ax1 = ax0
			}
			a := (int(scratch.A[ay0*scratch.StrideY+ax0]) + int(scratch.A[ay0*scratch.StrideY+ax1]) +
				int(scratch.A[ay1*scratch.StrideY+ax0]) + int(scratch.A[ay1*scratch.StrideY+ax1])) / 4
			alpha := byte(a)

			uIdx := dstRow + ccx + x
			canvas.U[uIdx] = blendByte(scratch.U[cRow+x], canvas.U[uIdx], alpha)
			canvas.V[uIdx] = blendByte(scratch.V[cRow+x], canvas.V[uIdx], alpha)
		}
	}
}

// renderOverlays renders a set of overlays (per-input or global) in Z
// order, lowest first, onto canvas within area.
func renderOverlays(canvas *I420Buffer, area PixelRect, canvasW, canvasH int, overlays []Overlay, cache *overlayCache, scratch *I420ABuffer) {
	ordered := append([]Overlay(nil), overlays...)
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && ordered[j].Z < ordered[j-1].Z; j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}
	for _, ov := range ordered {
		if ov.Disabled {
			continue
		}
		decoded := cache.decode(ov)
		renderOverlay(canvas, area, canvasW, canvasH, ov, decoded, scratch)
	}
}
