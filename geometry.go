package vmix

// Rect is a rectangle in the unit square, interpreted against whichever
// dimensions it is resolved against (canvas for global/background areas,
// a parent region's destination rect for per-input overlays).
type Rect struct {
	Left, Top, Width, Height Rational
}

// Circle is accepted by the data model but never rasterized (spec §3, §9
// open question) — it exists only so host bindings can round-trip a
// circle-shaped region without the core rejecting it.
type Circle struct {
	CenterX, CenterY, Radius Rational
}

// PixelRect is a clamped, even-aligned rectangle in canvas/area pixel
// space, as required by 4:2:0 chroma subsampling (every coordinate and
// extent must be even).
type PixelRect struct {
	X, Y, W, H int
}

func evenDown(v int) int {
	return v &^ 1
}

// Empty reports whether the rect has zero (or negative) area — the
// GeometryDegenerate condition, which callers must skip silently.
func (p PixelRect) Empty() bool {
	return p.W <= 0 || p.H <= 0
}

// toPixelRect resolves r against an areaW x areaH extent, clips to that
// extent, and rounds all four coordinates down to even, per the
// even-pixel invariant.
func (r Rect) toPixelRect(areaW, areaH int) PixelRect {
	left := r.Left.toPixels(areaW)
	top := r.Top.toPixels(areaH)
	width := r.Width.toPixels(areaW)
	height := r.Height.toPixels(areaH)

	if left < 0 {
		left = 0
	}
	if top < 0 {
		top = 0
	}
	if left > areaW {
		left = areaW
	}
	if top > areaH {
		top = areaH
	}
	if left+width > areaW {
		width = areaW - left
	}
	if top+height > areaH {
		height = areaH - top
	}
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}

	left = evenDown(left)
	top = evenDown(top)
	width = evenDown(width)
	height = evenDown(height)

	return PixelRect{X: left, Y: top, W: width, H: height}
}

// clampEven clips p to lie within bounds (W x H from the origin) and
// rounds every coordinate down to even.
func clampEven(p PixelRect, boundsW, boundsH int) PixelRect {
	x, y, w, h := p.X, p.Y, p.W, p.H
	if x < 0 {
		w += x
		x = 0
	}
	if y < 0 {
		h += y
		y = 0
	}
	if x+w > boundsW {
		w = boundsW - x
	}
	if y+h > boundsH {
		h = boundsH - y
	}
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return PixelRect{X: evenDown(x), Y: evenDown(y), W: evenDown(w), H: evenDown(h)}
}

// aspectFitCover computes the centered source crop rect within a
// srcW x srcH image so its aspect matches dstW:dstH, per the
// aspect-fit-cover background rule (§4.3.4): crop, never letterbox.
func aspectFitCover(srcW, srcH, dstW, dstH int) PixelRect {
	if srcW <= 0 || srcH <= 0 || dstW <= 0 || dstH <= 0 {
		return PixelRect{W: srcW, H: srcH}
	}
	rBg := float64(srcW) / float64(srcH)
	rC := float64(dstW) / float64(dstH)

	const epsilon = 0.001
	switch {
	case rBg-rC > epsilon:
		// Source is wider than destination: crop horizontally, centered.
		cropW := int(float64(srcH) * rC)
		if cropW > srcW {
			cropW = srcW
		}
		x := (srcW - cropW) / 2
		return PixelRect{X: evenDown(x), Y: 0, W: evenDown(cropW), H: evenDown(srcH)}
	case rC-rBg > epsilon:
		// Source is taller than destination: crop vertically, centered.
		cropH := int(float64(srcW) / rC)
		if cropH > srcH {
			cropH = srcH
		}
		y := (srcH - cropH) / 2
		return PixelRect{X: 0, Y: evenDown(y), W: evenDown(srcW), H: evenDown(cropH)}
	default:
		return PixelRect{X: 0, Y: 0, W: evenDown(srcW), H: evenDown(srcH)}
	}
}

// letterboxFit computes the largest rectangle inside a dw x dh area whose
// aspect matches srcW:srcH, centered within the area (letterbox mode,
// §4.3.5).
func letterboxFit(srcW, srcH, dw, dh int) PixelRect {
	if srcW <= 0 || srcH <= 0 || dw <= 0 || dh <= 0 {
		return PixelRect{}
	}
	srcAspect := float64(srcW) / float64(srcH)
	areaAspect := float64(dw) / float64(dh)

	var w, h int
	if srcAspect > areaAspect {
		w = dw
		h = int(float64(dw) / srcAspect)
	} else {
		h = dh
		w = int(float64(dh) * srcAspect)
	}
	x := (dw - w) / 2
	y := (dh - h) / 2
	return PixelRect{X: evenDown(x), Y: evenDown(y), W: evenDown(w), H: evenDown(h)}
}

// cropFit picks the largest source crop centered in a srcW x srcH frame
// whose aspect matches dw:dh (crop mode, §4.3.5).
func cropFit(srcW, srcH, dw, dh int) PixelRect {
	if srcW <= 0 || srcH <= 0 || dw <= 0 || dh <= 0 {
		return PixelRect{}
	}
	targetAspect := float64(dw) / float64(dh)
	srcAspect := float64(srcW) / float64(srcH)

	var w, h int
	if srcAspect > targetAspect {
		h = srcH
		w = int(float64(srcH) * targetAspect)
	} else {
		w = srcW
		h = int(float64(srcW) / targetAspect)
	}
	x := (srcW - w) / 2
	y := (srcH - h) / 2
	return PixelRect{X: evenDown(x), Y: evenDown(y), W: evenDown(w), H: evenDown(h)}
}
