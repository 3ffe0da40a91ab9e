package vmix

// Shape selects how a Region's area is interpreted. Only Rectangle is
// rendered; Circle is accepted and stored but never rasterized (§9).
type Shape int

const (
	ShapeRectangle Shape = iota
	ShapeCircle
)

// Region is a named, shaped area of a layout. Area is valid for
// Shape == ShapeRectangle; CircleArea is valid for Shape == ShapeCircle.
//
// Whether a region's source frame is cropped or letterboxed into its
// destination rect is not a per-region choice: it is the generator-wide
// crop mode fixed at construction (§4.3, §4.3.5).
type Region struct {
	ID         string
	Shape      Shape
	Area       Rect
	CircleArea Circle
}

// InputRegion binds an input slot index to a Region. Input == -1 denotes a
// placeholder with no source.
type InputRegion struct {
	Input  int32
	Region Region
}

// NoInput marks an InputRegion as a placeholder with no source.
const NoInput int32 = -1

// LayoutSolution is an ordered draw list; later entries paint over earlier
// ones.
type LayoutSolution []InputRegion

// tweenLayout advances current one tick toward target, per §4.3.3:
//   - new inputs (not present in current) snap in unchanged
//   - non-rectangle regions never interpolate
//   - matching rectangle regions interpolate each coordinate independently
//   - entries removed from target are dropped immediately, no exit tween
func tweenLayout(current, target LayoutSolution) LayoutSolution {
	currentByInput := make(map[int32]InputRegion, len(current))
	for _, ir := range current {
		if _, exists := currentByInput[ir.Input]; !exists {
			currentByInput[ir.Input] = ir
		}
	}

	result := make(LayoutSolution, 0, len(target))
	for _, tgt := range target {
		cur, ok := currentByInput[tgt.Input]
		if !ok || tgt.Region.Shape != ShapeRectangle || cur.Region.Shape != ShapeRectangle {
			result = append(result, tgt)
			continue
		}
		tweened := Region{
			ID:    tgt.Region.ID,
			Shape: ShapeRectangle,
			Area: Rect{
				Left:   tweenRational(cur.Region.Area.Left, tgt.Region.Area.Left),
				Top:    tweenRational(cur.Region.Area.Top, tgt.Region.Area.Top),
				Width:  tweenRational(cur.Region.Area.Width, tgt.Region.Area.Width),
				Height: tweenRational(cur.Region.Area.Height, tgt.Region.Area.Height),
			},
		}
		result = append(result, InputRegion{Input: tgt.Input, Region: tweened})
	}
	return result
}
