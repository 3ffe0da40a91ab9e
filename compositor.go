package vmix

import (
	"context"

	"github.com/rs/zerolog"
)

// Compositor is the package's top-level facade (spec.md §4.1): it owns the
// input slots, the avatar fallback store, and a small set of
// FrameGenerators covering different harmonic fps tiers, and routes every
// public operation to the right generator(s) or input slot.
type Compositor struct {
	inputs  []*InputSlot
	avatars *AvatarStore
	gens    []*FrameGenerator
	logger  zerolog.Logger
}

// CompositorConfig holds the construction-time dependencies a Compositor
// needs, all passed explicitly rather than reached for as package globals
// (spec.md §9). RootSize, BackgroundColor, BackgroundFrame and Crop are
// the facade's `new(maxInput, rootSize, bgColor, bgFrame?, crop)`
// construction parameters (spec.md §6): fixed for the lifetime of the
// Compositor, per its Non-goals ("does not attempt to change output
// resolution or background color after construction").
type CompositorConfig struct {
	MaxInputs       int
	RootSize        VideoSize
	BackgroundColor YUVColor
	BackgroundFrame []byte
	Crop            bool
	Clock           Clock
	TextDrawer      TextDrawer
	Decoder         ImageDecoder
	Logger          zerolog.Logger
}

// NewCompositor builds a Compositor with two generator tiers: a
// high-rate ladder (60 down to 15 fps) and a low-rate ladder (48 down to
// 6 fps), together covering a wide span of harmonically related output
// rates off of two tick loops instead of one per output. Both tiers
// render the same fixed canvas size and background (spec.md §4.5 "Routes
// ... to all generators, so both fps tiers see the same scene").
func NewCompositor(cfg CompositorConfig) (*Compositor, error) {
	if cfg.MaxInputs <= 0 {
		return nil, newError(InvalidArgument, "new_compositor", "maxInputs must be positive", nil)
	}
	if cfg.RootSize.Width <= 0 || cfg.RootSize.Height <= 0 {
		return nil, newError(InvalidArgument, "new_compositor", "rootSize must be positive", nil)
	}
	if cfg.Clock == nil {
		cfg.Clock = NewSystemClock()
	}
	if cfg.Decoder == nil {
		cfg.Decoder = NewImageDecoder()
	}

	c := &Compositor{
		inputs:  make([]*InputSlot, cfg.MaxInputs),
		avatars: NewAvatarStore(cfg.Decoder, cfg.Logger),
		logger:  cfg.Logger,
	}
	for i := range c.inputs {
		c.inputs[i] = NewInputSlot(i, cfg.Logger)
	}

	tiers := [2][2]int{{60, 15}, {48, 6}}
	for _, tier := range tiers {
		gen, err := NewFrameGenerator(cfg.RootSize, cfg.BackgroundColor, cfg.BackgroundFrame, cfg.Crop,
			tier[0], tier[1], cfg.Clock, c, cfg.TextDrawer, cfg.Decoder, cfg.Logger)
		if err != nil {
			return nil, err
		}
		c.gens = append(c.gens, gen)
	}
	return c, nil
}

func (c *Compositor) slot(index int32) (*InputSlot, error) {
	if index < 0 || int(index) >= len(c.inputs) {
		return nil, newError(InvalidArgument, "input_index", "index out of range", nil)
	}
	return c.inputs[index], nil
}

// AddInput marks index as connected, ready to receive pushed frames.
func (c *Compositor) AddInput(index int32) error {
	s, err := c.slot(index)
	if err != nil {
		return err
	}
	s.SetConnected(true)
	return nil
}

// RemoveInput marks index as disconnected, dropping any buffered frame.
func (c *Compositor) RemoveInput(index int32) error {
	s, err := c.slot(index)
	if err != nil {
		return err
	}
	s.SetConnected(false)
	return nil
}

// ActivateInput marks index eligible to be rendered into a layout.
func (c *Compositor) ActivateInput(index int32) error {
	s, err := c.slot(index)
	if err != nil {
		return err
	}
	s.SetActive(true)
	return nil
}

// DeactivateInput marks index ineligible to be rendered, dropping any
// buffered frame.
func (c *Compositor) DeactivateInput(index int32) error {
	s, err := c.slot(index)
	if err != nil {
		return err
	}
	s.SetActive(false)
	return nil
}

// PushInput publishes a freshly decoded frame to index's mailbox. Lossy:
// if the slot's pool is exhausted the frame is dropped and logged, never
// returned as an error (spec.md §4.2).
func (c *Compositor) PushInput(index int32, frame *I420Buffer) error {
	s, err := c.slot(index)
	if err != nil {
		return err
	}
	s.Push(frame)
	return nil
}

// SetAvatarURL assigns a raw-planar-I420 file URL as index's fallback
// avatar image.
func (c *Compositor) SetAvatarURL(index int32, url string) error {
	if index < 0 || int(index) >= len(c.inputs) {
		return newError(InvalidArgument, "input_index", "index out of range", nil)
	}
	return c.avatars.Set(int(index), url)
}

// SetAvatarBytes assigns an in-memory encoded image as index's fallback
// avatar image.
func (c *Compositor) SetAvatarBytes(index int32, encoded []byte) error {
	if index < 0 || int(index) >= len(c.inputs) {
		return newError(InvalidArgument, "input_index", "index out of range", nil)
	}
	return c.avatars.SetBytes(int(index), encoded)
}

// UnsetAvatar removes index's fallback avatar image.
func (c *Compositor) UnsetAvatar(index int32) error {
	if index < 0 || int(index) >= len(c.inputs) {
		return newError(InvalidArgument, "input_index", "index out of range", nil)
	}
	c.avatars.Unset(int(index))
	return nil
}

// Frame implements InputSource for the generators this Compositor owns,
// rather than handing the generators a back-reference to the Compositor
// itself (spec.md §9).
func (c *Compositor) Frame(index int32) *FrameRef {
	if index < 0 || int(index) >= len(c.inputs) {
		return nil
	}
	return c.inputs[index].Pop()
}

// Avatar implements InputSource's fallback lookup.
func (c *Compositor) Avatar(index int32) *FrameRef {
	ref, ok := c.avatars.Get(int(index))
	if !ok {
		return nil
	}
	return ref
}

// UpdateLayoutSolution stages a new target layout on every generator this
// Compositor owns; each tweens toward it independently.
func (c *Compositor) UpdateLayoutSolution(target LayoutSolution) {
	for _, g := range c.gens {
		g.StageLayout(target)
	}
}

// UpdateSceneSolution stages a new background/overlay/effect scene on
// every generator.
func (c *Compositor) UpdateSceneSolution(scene SceneSolution) {
	for _, g := range c.gens {
		g.StageScene(scene)
	}
}

// UpdateInputOverlay stages a new per-input overlay set on every
// generator.
func (c *Compositor) UpdateInputOverlay(index int32, overlays []Overlay) {
	for _, g := range c.gens {
		g.StageInputOverlay(index, overlays)
	}
}

// DrawText stages a persistent text banner on every generator.
func (c *Compositor) DrawText(banner TextBanner) {
	for _, g := range c.gens {
		g.StageTextBanner(&banner)
	}
}

// ClearText clears the text banner on every generator.
func (c *Compositor) ClearText() {
	for _, g := range c.gens {
		g.StageTextBanner(nil)
	}
}

// AddOutput routes dst to the first generator whose harmonic ladder
// accepts fps, trying each tier in turn (spec.md §4.1/§4.4).
func (c *Compositor) AddOutput(w, h, fps int, dst FrameDestination) error {
	var lastErr error
	for _, g := range c.gens {
		if err := g.AddOutput(w, h, fps, dst); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	if lastErr == nil {
		lastErr = newError(InvalidArgument, "add_output", "no generator tier configured", nil)
	}
	return lastErr
}

// RemoveOutput unregisters dst from whichever generator holds it.
func (c *Compositor) RemoveOutput(dst FrameDestination) bool {
	removed := false
	for _, g := range c.gens {
		if g.RemoveOutput(dst) {
			removed = true
		}
	}
	return removed
}

// UpdateRootSize is accepted but rejected: the canvas size is fixed at
// construction (CompositorConfig.RootSize), and every output must request
// exactly that size. It is logged and reported as InvalidArgument rather
// than silently ignored.
func (c *Compositor) UpdateRootSize(width, height int) error {
	c.logger.Warn().Int("requested_width", width).Int("requested_height", height).Msg("updateRootSize is not supported; canvas size is fixed at construction")
	return newError(InvalidArgument, "update_root_size", "root size is not adjustable", nil)
}

// UpdateBackgroundColor is accepted but rejected: the background color is
// fixed at construction (CompositorConfig.BackgroundColor). It is logged
// and reported as InvalidArgument rather than silently ignored.
func (c *Compositor) UpdateBackgroundColor(color YUVColor) error {
	c.logger.Warn().Uint8("requested_y", color.Y).Uint8("requested_cb", color.Cb).Uint8("requested_cr", color.Cr).Msg("updateBackgroundColor is not supported; background color is fixed at construction")
	return newError(InvalidArgument, "update_background_color", "background color is not adjustable", nil)
}

// Start launches every generator's tick loop.
func (c *Compositor) Start(ctx context.Context) error {
	for _, g := range c.gens {
		if err := g.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Stop stops every generator's tick loop, blocking until each has
// drained.
func (c *Compositor) Stop() {
	for _, g := range c.gens {
		g.Stop()
	}
}
