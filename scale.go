package vmix

// scaleBoxPlane resamples the srcW x srcH sub-rectangle of src (starting
// at srcX,srcY, row stride srcStride) into the dstW x dstH sub-rectangle
// of dst (starting at dstX,dstY, row stride dstStride), averaging every
// source sample that maps into each destination pixel — a box filter,
// generalizing the teacher's per-row Bresenham-style integer scale
// (video_compositor.go blendFrameScaled) from nearest-neighbor sampling to
// an averaging filter, and from interleaved RGBA to a single YUV plane.
func scaleBoxPlane(dst []byte, dstStride, dstX, dstY, dstW, dstH int, src []byte, srcStride, srcX, srcY, srcW, srcH int) {
	if dstW <= 0 || dstH <= 0 || srcW <= 0 || srcH <= 0 {
		return
	}
	for dy := 0; dy < dstH; dy++ {
		sy0 := srcY + dy*srcH/dstH
		sy1 := srcY + (dy+1)*srcH/dstH
		if sy1 <= sy0 {
			sy1 = sy0 + 1
		}
		if sy1 > srcY+srcH {
			sy1 = srcY + srcH
		}
		dstRow := (dstY + dy) * dstStride
		for dx := 0; dx < dstW; dx++ {
			sx0 := srcX + dx*srcW/dstW
			sx1 := srcX + (dx+1)*srcW/dstW
			if sx1 <= sx0 {
				sx1 = sx0 + 1
			}
			if sx1 > srcX+srcW {
				sx1 = srcX + srcW
			}

			sum, count := 0, 0
			for sy := sy0; sy < sy1; sy++ {
				row := sy * srcStride
				for sx := sx0; sx < sx1; sx++ {
					sum += int(src[row+sx])
					count++
				}
			}
			var v byte
			if count > 0 {
				v = byte(sum / count)
			} else {
				v = src[sy0*srcStride+sx0]
			}
			dst[dstRow+dstX+dx] = v
		}
	}
}

// scaleI420Into box-scales the srcRect of src into the dstRect of dst,
// scaling Y at full resolution and U/V at half resolution on both axes
// (dstRect/srcRect coordinates are guaranteed even by the even-pixel
// invariant, so halving them is exact).
func scaleI420Into(dst *I420Buffer, dstRect PixelRect, src *I420Buffer, srcRect PixelRect) {
	scaleBoxPlane(dst.Y, dst.StrideY, dstRect.X, dstRect.Y, dstRect.W, dstRect.H,
		src.Y, src.StrideY, srcRect.X, srcRect.Y, srcRect.W, srcRect.H)

	dcx, dcy, dcw, dch := dstRect.X/2, dstRect.Y/2, dstRect.W/2, dstRect.H/2
	scx, scy, scw, sch := srcRect.X/2, srcRect.Y/2, srcRect.W/2, srcRect.H/2
	scaleBoxPlane(dst.U, dst.StrideC, dcx, dcy, dcw, dch, src.U, src.StrideC, scx, scy, scw, sch)
	scaleBoxPlane(dst.V, dst.StrideC, dcx, dcy, dcw, dch, src.V, src.StrideC, scx, scy, scw, sch)
}

// scaleI420AInto scales srcRect of src (I420 planes + alpha) into a
// dstW x dstH scratch I420ABuffer starting at the origin — used to build
// the temporary overlay scratch buffer of §4.3.7 before alpha blending.
func scaleI420AInto(dst *I420ABuffer, src *I420ABuffer, srcRect PixelRect) {
	full := PixelRect{X: 0, Y: 0, W: dst.Width, H: dst.Height}
	scaleI420Into(dst.I420Buffer, full, src.I420Buffer, srcRect)
	scaleBoxPlane(dst.A, dst.StrideY, 0, 0, dst.Width, dst.Height, src.A, src.StrideY, srcRect.X, srcRect.Y, srcRect.W, srcRect.H)
}
