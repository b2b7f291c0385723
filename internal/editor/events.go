package editor

// Button is the pointer button index.
type Button int

const (
	ButtonPrimary   Button = 0
	ButtonMiddle    Button = 1
	ButtonSecondary Button = 2
)

// TargetKind says what a pointer event hit.
type TargetKind string

const (
	TargetCanvas TargetKind = "canvas"
	TargetEntity TargetKind = "entity"
	TargetResize TargetKind = "resize"
	TargetRotate TargetKind = "rotate"
	TargetVertex TargetKind = "vertex"
)

// Handle names a resize handle by compass direction.
type Handle string

const (
	HandleN  Handle = "n"
	HandleS  Handle = "s"
	HandleE  Handle = "e"
	HandleW  Handle = "w"
	HandleNE Handle = "ne"
	HandleNW Handle = "nw"
	HandleSE Handle = "se"
	HandleSW Handle = "sw"
)

// Valid reports whether h is one of the eight handles.
func (h Handle) Valid() bool {
	switch h {
	case HandleN, HandleS, HandleE, HandleW, HandleNE, HandleNW, HandleSE, HandleSW:
		return true
	}
	return false
}

func (h Handle) has(c byte) bool {
	for i := 0; i < len(h); i++ {
		if h[i] == c {
			return true
		}
	}
	return false
}

// Target is the hit-test result attached to a pointer event.
// ID is the entity (or route) id; Index is the vertex index for TargetVertex.
type Target struct {
	Kind   TargetKind `json:"kind"`
	ID     string     `json:"id,omitempty"`
	Handle Handle     `json:"handle,omitempty"`
	Index  int        `json:"index,omitempty"`
}

// PointerEvent carries device-space coordinates.
type PointerEvent struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Button Button  `json:"button"`
	Target Target  `json:"target"`
}

// WheelEvent is a zoom request at a device-space point.
type WheelEvent struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	DeltaY float64 `json:"deltaY"`
	Fine   bool    `json:"fine"`
}

// KeyEvent mirrors the DOM key/code pair plus modifiers.
type KeyEvent struct {
	Key   string `json:"key"`
	Code  string `json:"code,omitempty"`
	Ctrl  bool   `json:"ctrl,omitempty"`
	Meta  bool   `json:"meta,omitempty"`
	Shift bool   `json:"shift,omitempty"`
}
