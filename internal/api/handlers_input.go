// handlers_input.go - Raw pointer, keyboard and viewport handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/plc-visualizer/twin-editor/internal/editor"
	"github.com/plc-visualizer/twin-editor/internal/models"
	"github.com/plc-visualizer/twin-editor/internal/session"
	"github.com/plc-visualizer/twin-editor/internal/viewport"
)

// Input phases.
const (
	PhaseDown = "down"
	PhaseMove = "move"
	PhaseUp   = "up"
)

// InputHandlerImpl implements the InputHandler interface
type InputHandlerImpl struct {
	*base
}

type pointerRequest struct {
	Phase string `json:"phase"`
	editor.PointerEvent
}

type keyRequest struct {
	Phase string `json:"phase"`
	editor.KeyEvent
}

// inputResult reports whether an input was consumed and where the viewport ended up.
type inputResult struct {
	Handled  bool               `json:"handled"`
	Gesture  editor.GestureKind `json:"gesture"`
	Viewport viewport.Mapper    `json:"viewport"`
	State    *session.ViewState `json:"state"`
}

func result(ws *session.Workspace, handled bool) inputResult {
	return inputResult{
		Handled:  handled,
		Gesture:  ws.Engine.Gesture(),
		Viewport: *ws.Mapper,
		State:    ws.View(),
	}
}

// dispatchPointer routes one pointer phase through the workspace.
func dispatchPointer(ws *session.Workspace, phase string, ev editor.PointerEvent) (bool, error) {
	switch phase {
	case PhaseDown:
		return ws.PointerDown(ev), nil
	case PhaseMove:
		return ws.PointerMove(ev), nil
	case PhaseUp:
		return ws.PointerUp(ev), nil
	default:
		return false, NewValidationError("phase")
	}
}

// dispatchKey routes one key phase to the engine.
func dispatchKey(ws *session.Workspace, phase string, ev editor.KeyEvent) (bool, error) {
	switch phase {
	case PhaseDown:
		return ws.KeyDown(ev), nil
	case PhaseUp:
		return ws.Engine.KeyUp(ev), nil
	default:
		return false, NewValidationError("phase")
	}
}

// HandlePointer feeds a pointer event (down, move or up) to the engines.
func (h *InputHandlerImpl) HandlePointer(c echo.Context) error {
	var req pointerRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	return h.read(c, func(ws *session.Workspace) (any, error) {
		handled, err := dispatchPointer(ws, req.Phase, req.PointerEvent)
		if err != nil {
			return nil, err
		}
		return result(ws, handled), nil
	})
}

// HandleKey feeds a key event to the engine.
func (h *InputHandlerImpl) HandleKey(c echo.Context) error {
	var req keyRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	return h.read(c, func(ws *session.Workspace) (any, error) {
		handled, err := dispatchKey(ws, req.Phase, req.KeyEvent)
		if err != nil {
			return nil, err
		}
		return result(ws, handled), nil
	})
}

// HandleWheel zooms around the pointer.
func (h *InputHandlerImpl) HandleWheel(c echo.Context) error {
	var ev editor.WheelEvent
	if err := c.Bind(&ev); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	return h.read(c, func(ws *session.Workspace) (any, error) {
		ws.Engine.Wheel(ev)
		return *ws.Mapper, nil
	})
}

// HandleGetViewport returns the current pan and zoom.
func (h *InputHandlerImpl) HandleGetViewport(c echo.Context) error {
	return h.read(c, func(ws *session.Workspace) (any, error) {
		return *ws.Mapper, nil
	})
}

type viewportRequest struct {
	Action string  `json:"action"` // pan, zoom, reset
	DX     float64 `json:"dx"`
	DY     float64 `json:"dy"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Scale  float64 `json:"scale"`
}

// HandleUpdateViewport pans, zooms around a device point, or resets the view.
func (h *InputHandlerImpl) HandleUpdateViewport(c echo.Context) error {
	var req viewportRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	switch req.Action {
	case "pan", "reset":
	case "zoom":
		if req.Scale <= 0 {
			return NewValidationError("scale")
		}
	default:
		return NewValidationError("action")
	}
	ws, err := h.workspace(c)
	if err != nil {
		return err
	}
	var out viewport.Mapper
	if err := ws.Do(func() {
		switch req.Action {
		case "pan":
			ws.Mapper.Pan(req.DX, req.DY)
		case "zoom":
			ws.Mapper.ZoomAround(models.Point{X: req.X, Y: req.Y}, req.Scale)
		case "reset":
			ws.Mapper.Reset()
		}
		out = *ws.Mapper
	}); err != nil {
		return FromError(err)
	}
	return c.JSON(http.StatusOK, out)
}
