package vmix

// DeliveredFrame is a composited frame handed to a FrameDestination: the
// rendered I420 canvas plus an RTP-style 90kHz timestamp derived from the
// generator's clock (spec.md §4.4).
type DeliveredFrame struct {
	Frame     *FrameRef
	Width     int
	Height    int
	Timestamp uint64
}

// FrameDestination receives composited frames at the fps it registered
// for. Deliver must not block the generator's tick loop for long; slow
// destinations should buffer internally rather than stall fanout to the
// other subscribers.
//
// Deliver's frame carries a retained *FrameRef; the destination must
// Release it when done (immediately, if it copies the pixels out, or
// later, if it holds onto the buffer).
type FrameDestination interface {
	Deliver(frame DeliveredFrame)
}

// TextDrawer rasterizes a banner of text into an existing I420 canvas
// region. It is supplied by the host, since text shaping and font
// rendering have no natural home in this core (spec.md §4.3.2 "drawText").
type TextDrawer interface {
	DrawText(canvas *I420Buffer, area PixelRect, text string, color YUVColor) error
}
