package vmix

import "testing"

func TestOutputRegistryAddRejectsWrongCanvasSize(t *testing.T) {
	r := NewOutputRegistry(60, 15, 640, 480)
	if err := r.Add(320, 240, 30, &fakeDestination{}); err == nil {
		t.Fatalf("expected error for a size other than the registry's fixed canvas size")
	}
}

func TestOutputRegistryAddRejectsNonLadderFps(t *testing.T) {
	r := NewOutputRegistry(60, 15, 640, 480)
	// 20 and 4 both divide 60 but are not on the {15, 30, 60} power-of-two
	// ladder, so both must be rejected even though a plain-divisor check
	// would accept them.
	if err := r.Add(640, 480, 20, &fakeDestination{}); err == nil {
		t.Fatalf("expected error for fps dividing maxFps but off the power-of-two ladder")
	}
	if err := r.Add(640, 480, 4, &fakeDestination{}); err == nil {
		t.Fatalf("expected error for fps dividing maxFps but below minFps")
	}
	if err := r.Add(640, 480, 7, &fakeDestination{}); err == nil {
		t.Fatalf("expected error for fps not dividing maxFps at all")
	}
}

func TestOutputRegistryAddAcceptsLadderFps(t *testing.T) {
	r := NewOutputRegistry(60, 15, 640, 480)
	for _, fps := range []int{15, 30, 60} {
		if err := r.Add(640, 480, fps, &fakeDestination{}); err != nil {
			t.Fatalf("expected fps %d on the ladder to be accepted: %v", fps, err)
		}
	}
}

func TestOutputRegistryDueHarmonic(t *testing.T) {
	r := NewOutputRegistry(60, 15, 640, 480)
	dst30 := &fakeDestination{}
	dst15 := &fakeDestination{}
	_ = r.Add(640, 480, 30, dst30)
	_ = r.Add(640, 480, 15, dst15)

	// period for 30fps = 2, for 15fps = 4.
	if !r.due(0) {
		t.Fatalf("expected tick 0 due (both subscribers)")
	}
	if r.due(1) {
		t.Fatalf("expected tick 1 not due")
	}
	if !r.due(2) {
		t.Fatalf("expected tick 2 due (30fps subscriber)")
	}
}

func TestOutputRegistryDeliverOnlyToDueSubscribers(t *testing.T) {
	r := NewOutputRegistry(60, 15, 640, 480)
	dst := &fakeDestination{}
	_ = r.Add(640, 480, 60, dst)

	buf := NewI420Buffer(640, 480)
	ref := newFrameRef(buf, func(*I420Buffer) {})
	defer ref.Release()

	r.deliver(0, ref, 12345)
	if dst.count() != 1 {
		t.Fatalf("expected exactly one delivery, got %d", dst.count())
	}
	if dst.last().Timestamp != 12345 {
		t.Fatalf("expected timestamp propagated, got %d", dst.last().Timestamp)
	}
	if dst.last().Width != 640 || dst.last().Height != 480 {
		t.Fatalf("expected delivered frame to carry the registry's fixed canvas size")
	}
	dst.last().Frame.Release()
}

func TestOutputRegistryRemove(t *testing.T) {
	r := NewOutputRegistry(60, 15, 640, 480)
	dst := &fakeDestination{}
	_ = r.Add(640, 480, 30, dst)

	if !r.Remove(dst) {
		t.Fatalf("expected Remove to report the destination was present")
	}
	if r.Remove(dst) {
		t.Fatalf("expected second Remove to report false")
	}
	if r.due(0) {
		t.Fatalf("expected nothing due after removal")
	}
}

func TestOutputRegistryRejectsDuplicateDestination(t *testing.T) {
	r := NewOutputRegistry(60, 15, 640, 480)
	dst := &fakeDestination{}
	_ = r.Add(640, 480, 30, dst)
	if err := r.Add(640, 480, 15, dst); err == nil {
		t.Fatalf("expected error re-registering the same destination")
	}
}
