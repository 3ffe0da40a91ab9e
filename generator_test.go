package vmix

import (
	"context"
	"testing"
	"time"
)

func newTestGenerator(t *testing.T, inputs InputSource) *FrameGenerator {
	t.Helper()
	g, err := NewFrameGenerator(VideoSize{Width: 16, Height: 16}, YUVColor{Y: 16, Cb: 128, Cr: 128}, nil, true,
		60, 15, newFakeClock(time.Unix(0, 0)), inputs, nil, NewImageDecoder(), nopLogger())
	if err != nil {
		t.Fatalf("NewFrameGenerator: %v", err)
	}
	return g
}

func TestNewFrameGeneratorClampsMaxFpsWhenLadderIsMalformed(t *testing.T) {
	g, err := NewFrameGenerator(VideoSize{Width: 16, Height: 16}, YUVColor{}, nil, true,
		60, 13, newFakeClock(time.Unix(0, 0)), &fakeInputSource{}, nil, NewImageDecoder(), nopLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 60/13 is not an integer, let alone a power of two, so maxFps must be
	// clamped down to minFps per spec.md §4.3.
	if g.MaxFps() != g.MinFps() {
		t.Fatalf("expected maxFps clamped down to minFps, got max=%d min=%d", g.MaxFps(), g.MinFps())
	}
}

func TestFrameGeneratorConfigIsTwoPhase(t *testing.T) {
	g := newTestGenerator(t, &fakeInputSource{})
	dst := &fakeDestination{}
	_ = g.AddOutput(16, 16, 60, dst)

	overlay := Overlay{ID: "banner", Z: 1}
	g.StageScene(SceneSolution{Overlays: []Overlay{overlay}})
	// Before the next Tick, live config must still be the construction
	// default, not the just-staged value.
	if len(g.live.scene.Overlays) != 0 {
		t.Fatalf("staged config leaked into live config before a tick boundary")
	}

	g.Tick()
	if len(g.live.scene.Overlays) != 1 {
		t.Fatalf("expected staged config visible after a tick boundary")
	}
	if dst.count() != 1 {
		t.Fatalf("expected one delivered frame, got %d", dst.count())
	}
}

func TestFrameGeneratorHarmonicFanout(t *testing.T) {
	g := newTestGenerator(t, &fakeInputSource{})
	fast := &fakeDestination{}
	slow := &fakeDestination{}
	_ = g.AddOutput(16, 16, 60, fast)
	_ = g.AddOutput(16, 16, 15, slow)

	for i := 0; i < 8; i++ {
		g.Tick()
	}
	if fast.count() != 8 {
		t.Fatalf("expected 60fps output delivered every tick, got %d", fast.count())
	}
	if slow.count() != 2 {
		t.Fatalf("expected 15fps output delivered once every 4 ticks, got %d", slow.count())
	}
}

func TestFrameGeneratorTweensLayoutTowardTarget(t *testing.T) {
	g := newTestGenerator(t, &fakeInputSource{})
	target := LayoutSolution{{Input: NoInput, Region: rectRegion("a", 1, 1, 1, 1, 2)}}
	g.StageLayout(target)

	for i := 0; i < 50; i++ {
		g.Tick()
	}
	got := g.currentLayout[0].Region.Area.Left.normalizeTo(1000)
	want := target[0].Region.Area.Left.normalizeTo(1000)
	if got != want {
		t.Fatalf("expected layout converged after 50 ticks: got %v want %v", got, want)
	}
}

func TestFrameGeneratorRendersInputIntoRegion(t *testing.T) {
	frame := NewI420Buffer(16, 16)
	frame.Fill(YUVColor{Y: 222})
	inputs := &fakeInputSource{frames: map[int32]*I420Buffer{0: frame}}

	g := newTestGenerator(t, inputs)
	dst := &fakeDestination{}
	_ = g.AddOutput(16, 16, 60, dst)
	g.StageLayout(LayoutSolution{{Input: 0, Region: rectRegion("a", 0, 0, 1, 1, 1)}})

	g.Tick()
	g.Tick()
	if dst.last().Frame.Buffer().Y[0] != 222 {
		t.Fatalf("expected input frame rendered into canvas, got %d", dst.last().Frame.Buffer().Y[0])
	}
}

func TestFrameGeneratorFallsBackToAvatar(t *testing.T) {
	avatar := NewI420Buffer(16, 16)
	avatar.Fill(YUVColor{Y: 55})
	inputs := &fakeInputSource{avatars: map[int32]*I420Buffer{0: avatar}}

	g := newTestGenerator(t, inputs)
	dst := &fakeDestination{}
	_ = g.AddOutput(16, 16, 60, dst)
	g.StageLayout(LayoutSolution{{Input: 0, Region: rectRegion("a", 0, 0, 1, 1, 1)}})

	g.Tick()
	g.Tick()
	if dst.last().Frame.Buffer().Y[0] != 55 {
		t.Fatalf("expected avatar fallback rendered when no live frame, got %d", dst.last().Frame.Buffer().Y[0])
	}
}

func TestFrameGeneratorStateMachine(t *testing.T) {
	g := newTestGenerator(t, &fakeInputSource{})
	if g.State() != stateIdle {
		t.Fatalf("expected initial state Idle")
	}

	ctx := context.Background()
	if err := g.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := g.Start(ctx); err == nil {
		t.Fatalf("expected second Start to fail while already running")
	}

	g.Stop()
	if g.State() != stateStopped {
		t.Fatalf("expected Stopped after Stop returns, got %v", g.State())
	}
}

func TestPlanRegionBatchesSeparatesOverlappingRegions(t *testing.T) {
	layout := LayoutSolution{
		{Input: 0, Region: rectRegion("a", 0, 0, 1, 1, 2)},   // top-left quarter
		{Input: 1, Region: rectRegion("b", 1, 0, 1, 1, 2)},   // top-right quarter, disjoint from a
		{Input: 2, Region: rectRegion("c", 0, 0, 2, 2, 2)},   // full frame, overlaps both
	}
	batches := planRegionBatches(layout, 100, 100)
	if len(batches) != 2 {
		t.Fatalf("expected 2 batches (disjoint pair, then the overlapping full-frame region), got %d", len(batches))
	}
	if len(batches[0]) != 2 {
		t.Fatalf("expected first batch to contain the two disjoint regions, got %d", len(batches[0]))
	}
	if len(batches[1]) != 1 {
		t.Fatalf("expected second batch to contain only the overlapping region, got %d", len(batches[1]))
	}
}
