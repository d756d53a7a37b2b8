package editor

// Point is a position in side-local coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// DragState is the pointer state of a session. It is either Idle or Dragging;
// no other implementations exist.
type DragState interface {
	dragState()
}

// Idle means no gesture is in progress.
type Idle struct{}

// Dragging tracks a pointer gesture on one element. Offset is the distance
// from the element origin to the pointer at press time. Moved becomes true on
// the first pointer move and decides whether release records history.
type Dragging struct {
	ElementID string
	Offset    Point
	Moved     bool
}

func (Idle) dragState()     {}
func (Dragging) dragState() {}
