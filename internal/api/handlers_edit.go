// handlers_edit.go - Entity, route and document edit handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/plc-visualizer/twin-editor/internal/models"
	"github.com/plc-visualizer/twin-editor/internal/session"
)

// EditHandlerImpl implements the EditHandler interface.
// Every edit is one committed undo step.
type EditHandlerImpl struct {
	*base
}

type createElementRequest struct {
	Type models.DeviceType `json:"type"`
	models.ElementPatch
}

// HandleCreateElement adds an element of the given type.
func (h *EditHandlerImpl) HandleCreateElement(c echo.Context) error {
	var req createElementRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if req.Type == "" {
		return NewValidationError("type")
	}
	return h.mutate(c, http.StatusCreated, func(ws *session.Workspace) error {
		id := ws.History.CreateEntity(req.Type, req.ElementPatch, true)
		ws.Store.Select(id)
		return nil
	})
}

// HandleUpdateElement patches an element. Id and type cannot change.
func (h *EditHandlerImpl) HandleUpdateElement(c echo.Context) error {
	var patch models.ElementPatch
	if err := c.Bind(&patch); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	id := c.Param("id")
	return h.mutate(c, http.StatusOK, func(ws *session.Workspace) error {
		if !ws.Store.HasEntity(id) {
			return NewNotFoundError("element", id)
		}
		ws.History.UpdateEntity(id, patch, true)
		return nil
	})
}

// HandleDeleteElement removes an element.
func (h *EditHandlerImpl) HandleDeleteElement(c echo.Context) error {
	id := c.Param("id")
	return h.mutate(c, http.StatusOK, func(ws *session.Workspace) error {
		if _, ok := ws.History.RemoveEntity(id, true); !ok {
			return NewNotFoundError("element", id)
		}
		return nil
	})
}

// HandleBringToFront selects the element and raises it above all others.
func (h *EditHandlerImpl) HandleBringToFront(c echo.Context) error {
	id := c.Param("id")
	return h.mutate(c, http.StatusOK, func(ws *session.Workspace) error {
		if !ws.Store.HasEntity(id) {
			return NewNotFoundError("element", id)
		}
		ws.Store.Select(id)
		ws.Engine.BringToFront()
		return nil
	})
}

// HandleSendToBack selects the element and lowers it below all others.
func (h *EditHandlerImpl) HandleSendToBack(c echo.Context) error {
	id := c.Param("id")
	return h.mutate(c, http.StatusOK, func(ws *session.Workspace) error {
		if !ws.Store.HasEntity(id) {
			return NewNotFoundError("element", id)
		}
		ws.Store.Select(id)
		ws.Engine.SendToBack()
		return nil
	})
}

// HandleAssignRoute binds an element to a route. An empty routeId unbinds it.
func (h *EditHandlerImpl) HandleAssignRoute(c echo.Context) error {
	var req struct {
		RouteID string `json:"routeId"`
	}
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	id := c.Param("id")
	return h.mutate(c, http.StatusOK, func(ws *session.Workspace) error {
		if !ws.Routes.AssignRoute(id, req.RouteID) {
			return NewNotFoundError("element or route", id+" -> "+req.RouteID)
		}
		return nil
	})
}

// HandleCreateRoute adds a route.
func (h *EditHandlerImpl) HandleCreateRoute(c echo.Context) error {
	var r models.Route
	if err := c.Bind(&r); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if r.Points == nil {
		r.Points = []models.Point{}
	}
	return h.mutate(c, http.StatusCreated, func(ws *session.Workspace) error {
		ws.History.AddRoute(r, true)
		return nil
	})
}

// HandleUpdateRoute patches a route.
func (h *EditHandlerImpl) HandleUpdateRoute(c echo.Context) error {
	var patch models.RoutePatch
	if err := c.Bind(&patch); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	id := c.Param("id")
	return h.mutate(c, http.StatusOK, func(ws *session.Workspace) error {
		if !ws.Store.HasRoute(id) {
			return NewNotFoundError("route", id)
		}
		ws.History.UpdateRoute(id, patch, true)
		return nil
	})
}

// HandleDeleteRoute removes a route. Elements bound to it go inert.
func (h *EditHandlerImpl) HandleDeleteRoute(c echo.Context) error {
	id := c.Param("id")
	return h.mutate(c, http.StatusOK, func(ws *session.Workspace) error {
		if !ws.History.RemoveRoute(id, true) {
			return NewNotFoundError("route", id)
		}
		return nil
	})
}

// HandleSelect sets or clears the selection. Selection is not an undo step.
func (h *EditHandlerImpl) HandleSelect(c echo.Context) error {
	var req struct {
		ID string `json:"id"`
	}
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	return h.mutate(c, http.StatusOK, func(ws *session.Workspace) error {
		if req.ID == "" {
			ws.Store.ClearSelection()
			return nil
		}
		if !ws.Store.HasEntity(req.ID) {
			return NewNotFoundError("element", req.ID)
		}
		ws.Store.Select(req.ID)
		return nil
	})
}

// HandleSetMode switches between select and route mode.
func (h *EditHandlerImpl) HandleSetMode(c echo.Context) error {
	var req struct {
		Mode models.Mode `json:"mode"`
	}
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if !req.Mode.Valid() {
		return NewValidationError("mode")
	}
	return h.mutate(c, http.StatusOK, func(ws *session.Workspace) error {
		ws.SetMode(req.Mode)
		return nil
	})
}

// HandleSetSettings merges grid settings.
func (h *EditHandlerImpl) HandleSetSettings(c echo.Context) error {
	var patch models.SettingsPatch
	if err := c.Bind(&patch); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	return h.mutate(c, http.StatusOK, func(ws *session.Workspace) error {
		ws.Store.SetSettings(patch)
		return nil
	})
}

// HandleUndo steps back once. An empty stack is not an error.
func (h *EditHandlerImpl) HandleUndo(c echo.Context) error {
	return h.mutate(c, http.StatusOK, func(ws *session.Workspace) error {
		ws.Undo()
		return nil
	})
}

// HandleRedo steps forward once.
func (h *EditHandlerImpl) HandleRedo(c echo.Context) error {
	return h.mutate(c, http.StatusOK, func(ws *session.Workspace) error {
		ws.Redo()
		return nil
	})
}
