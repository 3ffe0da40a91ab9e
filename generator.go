package vmix

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// SceneSolution is the generator-wide scene state staged by
// updateSceneSolution: the background fill, any global overlays drawn over
// the whole canvas, and an opaque layout-effect tag. LayoutEffect has no
// operational meaning in this core; it is stored and round-tripped only,
// per spec silence on its semantics.
type SceneSolution struct {
	BackgroundImage []byte
	Overlays        []Overlay
	LayoutEffect    string
}

// TextBanner is a persistent text overlay drawn every tick until cleared,
// via the host-supplied TextDrawer.
type TextBanner struct {
	Area  Rect
	Text  string
	Color YUVColor
}

// generatorConfig is the staged/live config swapped under configMu at
// tick-start (spec.md's two-phase config publish, §4.3.1): fields are
// written here under the writer lock from any goroutine, and the render
// loop copies the struct by value once per tick so the hot path never
// takes the lock while rendering.
type generatorConfig struct {
	layoutTarget  LayoutSolution
	scene         SceneSolution
	inputOverlays map[int32][]Overlay
	textBanner    *TextBanner
}

type generatorState int32

const (
	stateIdle generatorState = iota
	stateRunning
	stateStopping
	stateStopped
)

// sizePool is the generator's pool of canvas buffers, all of the one fixed
// canvas size, with the same acquire/release-on-zero-refs shape as
// InputSlot's pool. Unlike InputSlot's pool it never refuses: when the free
// list is empty, acquireCanvas allocates a fresh buffer.
type sizePool struct {
	mu        sync.Mutex
	free      []*I420Buffer
	allocated int
}

const canvasPoolSize = 3

// FrameGenerator owns one tick loop that renders and fans out frames at a
// fixed maxFps, serving any registered output whose fps lies on the
// power-of-two ladder minFps, 2·minFps, …, maxFps (spec.md §4.3-4.4). A Compositor typically owns two generators at
// different tiers (e.g. 60/15 and 48/6) to cover a wider span of output
// rates than a single harmonic ladder could.
type FrameGenerator struct {
	maxFps, minFps int
	tickInterval   time.Duration
	period         int // ticks per full ladder cycle: maxFps/minFps

	// canvasWidth/Height, backgroundColor and crop are fixed at
	// construction (spec.md §4.3 "Construction parameters: canvas
	// VideoSize, background YUVColor, ... crop mode (bool)") and are never
	// restaged: spec.md's Non-goals are explicit that output resolution
	// and background color cannot change after construction.
	canvasWidth, canvasHeight int
	backgroundColor           YUVColor
	crop                      bool

	clock      Clock
	inputs     InputSource
	textDrawer TextDrawer
	decoder    ImageDecoder
	logger     zerolog.Logger

	outputs *OutputRegistry

	globalOverlayCache *overlayCache
	inputOverlayCache  *overlayCache
	backgroundCache    *overlayCache

	configMu sync.Mutex
	staged   generatorConfig
	dirty    bool

	// Owned exclusively by the tick loop (or a test calling Tick
	// directly); never touched concurrently, so no lock is needed.
	live          generatorConfig
	currentLayout LayoutSolution
	tickCount     int

	canvasPool *sizePool

	state  int32 // generatorState, accessed atomically
	cancel context.CancelFunc
	done   chan struct{}
}

// NewFrameGenerator creates a generator with a fixed canvasSize, fixed
// background color and optional background frame, and a fixed crop mode,
// ticking at maxFps and serving outputs down to minFps (spec.md §4.3
// "Construction parameters"). If the sequence minFps, 2·minFps, 4·minFps,
// … does not land exactly on maxFps, maxFps is clamped down to minFps
// and a warning is logged — the generator never
// fails to construct over a malformed ladder.
func NewFrameGenerator(canvasSize VideoSize, bgColor YUVColor, bgFrame []byte, crop bool, maxFps, minFps int, clock Clock, inputs InputSource, textDrawer TextDrawer, decoder ImageDecoder, logger zerolog.Logger) (*FrameGenerator, error) {
	if canvasSize.Width <= 0 || canvasSize.Height <= 0 {
		return nil, newError(InvalidArgument, "new_frame_generator", "canvas size must be positive", nil)
	}
	if maxFps <= 0 {
		return nil, newError(InvalidArgument, "new_frame_generator", "maxFps must be positive", nil)
	}
	if minFps <= 0 || minFps > maxFps {
		minFps = maxFps
	}
	if maxFps%minFps != 0 || !isPowerOfTwo(maxFps/minFps) {
		logger.Warn().
			Int("requested_max_fps", maxFps).
			Int("min_fps", minFps).
			Msg("min/max fps are not on a power-of-two ladder, clamping max fps down to min fps")
		maxFps = minFps
	}
	if clock == nil {
		clock = NewSystemClock()
	}
	if decoder == nil {
		decoder = NewImageDecoder()
	}

	g := &FrameGenerator{
		maxFps:             maxFps,
		minFps:             minFps,
		tickInterval:       time.Second / time.Duration(maxFps),
		period:             maxFps / minFps,
		canvasWidth:        canvasSize.Width,
		canvasHeight:       canvasSize.Height,
		backgroundColor:    bgColor,
		crop:               crop,
		clock:              clock,
		inputs:             inputs,
		textDrawer:         textDrawer,
		decoder:            decoder,
		logger:             logger,
		outputs:            NewOutputRegistry(maxFps, minFps, canvasSize.Width, canvasSize.Height),
		globalOverlayCache: newOverlayCache(decoder, logger),
		inputOverlayCache:  newOverlayCache(decoder, logger),
		backgroundCache:    newOverlayCache(decoder, logger),
		canvasPool:         &sizePool{},
	}
	g.staged.inputOverlays = make(map[int32][]Overlay)
	if len(bgFrame) > 0 {
		g.staged.scene.BackgroundImage = append([]byte(nil), bgFrame...)
	}
	g.live = g.staged
	return g, nil
}

// MaxFps and MinFps report the generator's harmonic tier.
func (g *FrameGenerator) MaxFps() int { return g.maxFps }
func (g *FrameGenerator) MinFps() int { return g.minFps }

// AddOutput registers dst at w x h, fps. Returns InvalidArgument if fps
// isn't on this generator's harmonic ladder; the Compositor tries the
// other tier in that case.
func (g *FrameGenerator) AddOutput(w, h, fps int, dst FrameDestination) error {
	return g.outputs.Add(w, h, fps, dst)
}

// RemoveOutput unregisters dst from this generator, reporting whether it
// was present.
func (g *FrameGenerator) RemoveOutput(dst FrameDestination) bool {
	return g.outputs.Remove(dst)
}

// StageLayout stages a new target layout; it is tweened toward, one tick
// at a time, starting from the next tick after it is published.
func (g *FrameGenerator) StageLayout(target LayoutSolution) {
	staged := append(LayoutSolution(nil), target...)
	g.configMu.Lock()
	g.staged.layoutTarget = staged
	g.dirty = true
	g.configMu.Unlock()
}

// StageScene stages a new scene (background + global overlays + layout
// effect tag), visible starting the next tick.
func (g *FrameGenerator) StageScene(scene SceneSolution) {
	scene.Overlays = append([]Overlay(nil), scene.Overlays...)
	g.configMu.Lock()
	g.staged.scene = scene
	g.dirty = true
	g.configMu.Unlock()
}

// StageInputOverlay replaces the overlay set drawn over a single input's
// region. An empty slice clears it.
func (g *FrameGenerator) StageInputOverlay(index int32, overlays []Overlay) {
	cp := append([]Overlay(nil), overlays...)
	g.configMu.Lock()
	next := make(map[int32][]Overlay, len(g.staged.inputOverlays)+1)
	for k, v := range g.staged.inputOverlays {
		next[k] = v
	}
	next[index] = cp
	g.staged.inputOverlays = next
	g.dirty = true
	g.configMu.Unlock()
}

// StageTextBanner stages a persistent text banner, drawn every tick until
// replaced or cleared. Pass nil to clear.
func (g *FrameGenerator) StageTextBanner(banner *TextBanner) {
	g.configMu.Lock()
	g.staged.textBanner = banner
	g.dirty = true
	g.configMu.Unlock()
}

// Start launches the tick loop. It returns an error if the generator is
// not Idle.
func (g *FrameGenerator) Start(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&g.state, int32(stateIdle), int32(stateRunning)) {
		return newError(Internal, "start", "generator is not idle", nil)
	}
	runCtx, cancel := context.WithCancel(ctx)
	g.cancel = cancel
	g.done = make(chan struct{})
	go g.run(runCtx)
	return nil
}

func (g *FrameGenerator) run(ctx context.Context) {
	defer close(g.done)
	defer atomic.StoreInt32(&g.state, int32(stateStopped))

	ticker := time.NewTicker(g.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.Tick()
		}
	}
}

// Stop signals the tick loop to exit and blocks until it has. It is a
// no-op if the generator isn't Running.
func (g *FrameGenerator) Stop() {
	if !atomic.CompareAndSwapInt32(&g.state, int32(stateRunning), int32(stateStopping)) {
		return
	}
	g.cancel()
	<-g.done
}

// State reports the generator's current lifecycle state.
func (g *FrameGenerator) State() generatorState {
	return generatorState(atomic.LoadInt32(&g.state))
}

// Tick renders and delivers one frame if any subscriber is due this tick.
// It is exported so tests can drive the generator deterministically
// without a real ticker, and is exactly what the tick loop calls every
// tickInterval.
func (g *FrameGenerator) Tick() {
	g.configMu.Lock()
	if g.dirty {
		g.live = g.staged
		g.dirty = false
	}
	live := g.live
	g.configMu.Unlock()

	g.reconcileOverlayCaches(live)
	g.currentLayout = tweenLayout(g.currentLayout, live.layoutTarget)

	if g.outputs.due(g.tickCount) {
		canvas := g.acquireCanvas()
		g.renderFrame(canvas, g.canvasWidth, g.canvasHeight, live)
		ref := newFrameRef(canvas, func(buf *I420Buffer) { g.releaseCanvas(buf) })
		ts := RTPTimestamp(g.clock.Now())
		g.outputs.deliver(g.tickCount, ref, ts)
		ref.Release()
	}

	g.tickCount = (g.tickCount + 1) % g.period
}

// renderFrame paints one full w x h canvas: background, regions (in
// draw-list order, parallelized across non-overlapping batches), global
// overlays, then the text banner.
func (g *FrameGenerator) renderFrame(canvas *I420Buffer, w, h int, cfg generatorConfig) {
	g.renderBackground(canvas, w, h, cfg.scene)

	for _, batch := range planRegionBatches(g.currentLayout, w, h) {
		if len(batch) <= 1 {
			for _, ir := range batch {
				g.renderRegion(canvas, w, h, ir, cfg)
			}
			continue
		}
		var eg errgroup.Group
		for _, ir := range batch {
			ir := ir
			eg.Go(func() error {
				g.renderRegion(canvas, w, h, ir, cfg)
				return nil
			})
		}
		_ = eg.Wait()
	}

	if len(cfg.scene.Overlays) > 0 {
		scratch := NewI420ABuffer(2, 2)
		renderOverlays(canvas, PixelRect{X: 0, Y: 0, W: w, H: h}, w, h, cfg.scene.Overlays, g.globalOverlayCache, scratch)
	}

	if cfg.textBanner != nil && g.textDrawer != nil {
		rect := cfg.textBanner.Area.toPixelRect(w, h)
		if !rect.Empty() {
			if err := g.textDrawer.DrawText(canvas, rect, cfg.textBanner.Text, cfg.textBanner.Color); err != nil {
				g.logger.Warn().Err(err).Msg("text banner draw failed")
			}
		}
	}
}

func (g *FrameGenerator) renderBackground(canvas *I420Buffer, w, h int, scene SceneSolution) {
	if len(scene.BackgroundImage) > 0 {
		decoded := g.backgroundCache.decode(Overlay{ID: "__background__", Image: scene.BackgroundImage})
		if decoded != nil {
			crop := aspectFitCover(decoded.Width, decoded.Height, w, h)
			scaleI420Into(canvas, PixelRect{X: 0, Y: 0, W: w, H: h}, decoded.I420Buffer, crop)
			return
		}
	}
	canvas.Fill(g.backgroundColor)
}

// renderRegion draws one region's source frame (or avatar fallback) into
// its destination rect, then any overlays staged for that input.
func (g *FrameGenerator) renderRegion(canvas *I420Buffer, w, h int, ir InputRegion, cfg generatorConfig) {
	if ir.Region.Shape != ShapeRectangle {
		return
	}
	dstRect := ir.Region.Area.toPixelRect(w, h)
	if dstRect.Empty() {
		return
	}

	if ir.Input != NoInput {
		frame := g.inputs.Frame(ir.Input)
		if frame == nil {
			frame = g.inputs.Avatar(ir.Input)
		}
		if frame != nil {
			src := frame.Buffer()
			if src != nil && src.Width > 0 && src.Height > 0 {
				if g.crop {
					srcRect := cropFit(src.Width, src.Height, dstRect.W, dstRect.H)
					if !srcRect.Empty() {
						scaleI420Into(canvas, dstRect, src, srcRect)
					}
				} else {
					sub := letterboxFit(src.Width, src.Height, dstRect.W, dstRect.H)
					sub.X += dstRect.X
					sub.Y += dstRect.Y
					if !sub.Empty() {
						scaleI420Into(canvas, sub, src, PixelRect{X: 0, Y: 0, W: src.Width, H: src.Height})
					}
				}
			}
			frame.Release()
		}
	}

	if overlays := cfg.inputOverlays[ir.Input]; len(overlays) > 0 {
		scratch := NewI420ABuffer(2, 2)
		renderOverlays(canvas, dstRect, w, h, overlays, g.inputOverlayCache, scratch)
	}
}

// planRegionBatches groups a layout's regions into ordered batches where
// every batch's pixel bounding boxes are mutually disjoint, so a batch can
// render in parallel without two goroutines writing the same canvas
// bytes — and region i+1 still lands in a later batch than region i
// whenever their boxes overlap, preserving "later paints over earlier"
// draw order (spec.md §4.3.6, option (b)).
func planRegionBatches(layout LayoutSolution, w, h int) [][]InputRegion {
	var batches [][]InputRegion
	var batch []InputRegion
	var rects []PixelRect

	for _, ir := range layout {
		var rect PixelRect
		if ir.Region.Shape == ShapeRectangle {
			rect = ir.Region.Area.toPixelRect(w, h)
		}
		overlap := false
		for _, r := range rects {
			if rectsOverlap(rect, r) {
				overlap = true
				break
			}
		}
		if overlap {
			batches = append(batches, batch)
			batch = nil
			rects = nil
		}
		batch = append(batch, ir)
		rects = append(rects, rect)
	}
	if len(batch) > 0 {
		batches = append(batches, batch)
	}
	return batches
}

func rectsOverlap(a, b PixelRect) bool {
	if a.Empty() || b.Empty() {
		return false
	}
	return a.X < b.X+b.W && b.X < a.X+a.W && a.Y < b.Y+b.H && b.Y < a.Y+a.H
}

// reconcileOverlayCaches evicts decoded overlay/background images no
// longer referenced by the live config, run once per tick so a removed
// overlay's decoded buffer doesn't linger forever.
func (g *FrameGenerator) reconcileOverlayCaches(live generatorConfig) {
	g.globalOverlayCache.reconcile([][]Overlay{live.scene.Overlays})

	inputSets := make([][]Overlay, 0, len(live.inputOverlays))
	for _, overlays := range live.inputOverlays {
		inputSets = append(inputSets, overlays)
	}
	g.inputOverlayCache.reconcile(inputSets)

	if len(live.scene.BackgroundImage) > 0 {
		g.backgroundCache.reconcile([][]Overlay{{{Image: live.scene.BackgroundImage}}})
	} else {
		g.backgroundCache.reconcile(nil)
	}
}

// acquireCanvas and releaseCanvas manage the generator's single canvas
// pool: one fixed (canvasWidth, canvasHeight) per generator, so unlike
// the old per-size map there is exactly one pool to take and return a
// buffer from.
func (g *FrameGenerator) acquireCanvas() *I420Buffer {
	g.canvasPool.mu.Lock()
	defer g.canvasPool.mu.Unlock()
	var buf *I420Buffer
	if n := len(g.canvasPool.free); n > 0 {
		buf = g.canvasPool.free[n-1]
		g.canvasPool.free = g.canvasPool.free[:n-1]
	} else {
		buf = &I420Buffer{}
		if g.canvasPool.allocated < canvasPoolSize {
			g.canvasPool.allocated++
		}
	}
	buf.EnsureSize(g.canvasWidth, g.canvasHeight)
	return buf
}

func (g *FrameGenerator) releaseCanvas(buf *I420Buffer) {
	g.canvasPool.mu.Lock()
	defer g.canvasPool.mu.Unlock()
	g.canvasPool.free = append(g.canvasPool.free, buf)
}
