// handlers_session.go - Workspace lifecycle handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/plc-visualizer/twin-editor/internal/session"
)

// SessionHandlerImpl implements the SessionHandler interface
type SessionHandlerImpl struct {
	*base
}

// HandleCreateSession opens a workspace. ?seed=false starts with an empty floor.
func (h *SessionHandlerImpl) HandleCreateSession(c echo.Context) error {
	seed := c.QueryParam("seed") != "false"
	ws, err := h.sessions.Create(seed)
	if err != nil {
		return FromError(err)
	}
	var view *session.ViewState
	if err := ws.Do(func() { view = ws.View() }); err != nil {
		return FromError(err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"id":    ws.ID,
		"state": view,
	})
}

// HandleListSessions lists open workspaces.
func (h *SessionHandlerImpl) HandleListSessions(c echo.Context) error {
	return c.JSON(http.StatusOK, h.sessions.List())
}

// HandleGetSession returns the full state of a workspace.
func (h *SessionHandlerImpl) HandleGetSession(c echo.Context) error {
	return h.read(c, func(ws *session.Workspace) (any, error) {
		return ws.View(), nil
	})
}

// HandleDeleteSession closes a workspace.
func (h *SessionHandlerImpl) HandleDeleteSession(c echo.Context) error {
	id := c.Param("sessionId")
	if !h.sessions.Delete(id) {
		return NewNotFoundError("session", id)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleSessionKeepAlive refreshes the idle timer of a workspace.
func (h *SessionHandlerImpl) HandleSessionKeepAlive(c echo.Context) error {
	id := c.Param("sessionId")
	if !h.sessions.TouchSession(id) {
		return NewNotFoundError("session", id)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
