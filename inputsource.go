package vmix

// InputSource is the narrow capability a FrameGenerator is given to read
// live input frames and avatar fallbacks, instead of holding a back
// reference to the Compositor that owns it — avoiding the ownership cycle
// Compositor -> FrameGenerator -> Compositor (spec.md §9).
type InputSource interface {
	// Frame returns a retained reference to input index's latest pushed
	// frame, or nil if the slot is inactive, disconnected, or has never
	// received one.
	Frame(index int32) *FrameRef
	// Avatar returns a retained reference to input index's fallback
	// avatar frame, or nil if none is set.
	Avatar(index int32) *FrameRef
}
