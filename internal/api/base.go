package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/plc-visualizer/twin-editor/internal/session"
)

// base gives handlers access to the workspace named in the route.
type base struct {
	sessions SessionManager
}

// workspace resolves :sessionId and refreshes its keep-alive.
func (b *base) workspace(c echo.Context) (*session.Workspace, error) {
	id := c.Param("sessionId")
	ws, ok := b.sessions.Get(id)
	if !ok {
		return nil, NewNotFoundError("session", id)
	}
	b.sessions.TouchSession(id)
	return ws, nil
}

// mutate runs fn on the workspace loop and responds with the resulting state.
func (b *base) mutate(c echo.Context, status int, fn func(ws *session.Workspace) error) error {
	ws, err := b.workspace(c)
	if err != nil {
		return err
	}
	var fnErr error
	var view *session.ViewState
	if err := ws.Do(func() {
		if fnErr = fn(ws); fnErr == nil {
			view = ws.View()
		}
	}); err != nil {
		return FromError(err)
	}
	if fnErr != nil {
		return FromError(fnErr)
	}
	return c.JSON(status, view)
}

// read runs fn on the workspace loop and responds with its result.
func (b *base) read(c echo.Context, fn func(ws *session.Workspace) (any, error)) error {
	ws, err := b.workspace(c)
	if err != nil {
		return err
	}
	var out any
	var fnErr error
	if err := ws.Do(func() { out, fnErr = fn(ws) }); err != nil {
		return FromError(err)
	}
	if fnErr != nil {
		return FromError(fnErr)
	}
	return c.JSON(http.StatusOK, out)
}

func queryInt(c echo.Context, name string, def int) int {
	v := c.QueryParam(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
