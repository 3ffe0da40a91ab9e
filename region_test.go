package vmix

import "testing"

func rectRegion(id string, left, top, width, height uint32, d uint32) Region {
	return Region{
		ID:    id,
		Shape: ShapeRectangle,
		Area: Rect{
			Left:   Rational{Numerator: left, Denominator: d},
			Top:    Rational{Numerator: top, Denominator: d},
			Width:  Rational{Numerator: width, Denominator: d},
			Height: Rational{Numerator: height, Denominator: d},
		},
	}
}

func TestTweenLayoutSnapsNewInput(t *testing.T) {
	current := LayoutSolution{}
	target := LayoutSolution{{Input: 0, Region: rectRegion("a", 0, 0, 1, 1, 2)}}

	got := tweenLayout(current, target)
	if len(got) != 1 || got[0] != target[0] {
		t.Fatalf("expected new input to snap in unchanged, got %+v", got)
	}
}

func TestTweenLayoutDropsRemovedEntriesImmediately(t *testing.T) {
	current := LayoutSolution{{Input: 0, Region: rectRegion("a", 0, 0, 1, 1, 2)}}
	target := LayoutSolution{}

	got := tweenLayout(current, target)
	if len(got) != 0 {
		t.Fatalf("expected removed entry dropped with no exit tween, got %+v", got)
	}
}

func TestTweenLayoutInterpolatesMatchingRectangle(t *testing.T) {
	current := LayoutSolution{{Input: 0, Region: rectRegion("a", 0, 0, 1, 2, 4)}}
	target := LayoutSolution{{Input: 0, Region: rectRegion("a", 1, 1, 1, 1, 2)}}

	got := tweenLayout(current, target)
	if len(got) != 1 {
		t.Fatalf("expected one entry, got %+v", got)
	}
	r := got[0].Region.Area
	targetLeft := target[0].Region.Area.Left.normalizeTo(1000)
	zero := Rational{}
	if r.Left.normalizeTo(1000) == zero {
		t.Fatalf("left should have moved off zero")
	}
	if r.Left.normalizeTo(1000) == targetLeft {
		t.Fatalf("expected partial progress on first tick, landed exactly on target")
	}
}

func TestTweenLayoutNeverInterpolatesCircles(t *testing.T) {
	circle := Region{ID: "c", Shape: ShapeCircle, CircleArea: Circle{
		CenterX: Rational{Numerator: 1, Denominator: 2},
		CenterY: Rational{Numerator: 1, Denominator: 2},
		Radius:  Rational{Numerator: 1, Denominator: 4},
	}}
	current := LayoutSolution{{Input: 0, Region: circle}}
	target := LayoutSolution{{Input: 0, Region: circle}}

	got := tweenLayout(current, target)
	if got[0].Region.Shape != ShapeCircle {
		t.Fatalf("expected circle region preserved unchanged, got %+v", got[0].Region)
	}
}

func TestTweenLayoutConvergesAfterManyTicks(t *testing.T) {
	current := LayoutSolution{{Input: 0, Region: rectRegion("a", 0, 0, 1, 1, 2)}}
	target := LayoutSolution{{Input: 0, Region: rectRegion("a", 1, 1, 1, 1, 2)}}

	for i := 0; i < 200; i++ {
		current = tweenLayout(current, target)
	}
	got := current[0].Region.Area.Left.normalizeTo(1000)
	want := target[0].Region.Area.Left.normalizeTo(1000)
	if got != want {
		t.Fatalf("expected convergence to target after many ticks: got %v want %v", got, want)
	}
}
