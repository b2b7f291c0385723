// handlers_command.go - Text command handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/plc-visualizer/twin-editor/internal/command"
	"github.com/plc-visualizer/twin-editor/internal/session"
)

// CommandHandlerImpl implements the CommandHandler interface
type CommandHandlerImpl struct {
	*base
}

type commandRequest struct {
	Input string `json:"input"`
}

func bindCommand(c echo.Context) (command.Action, error) {
	var req commandRequest
	if err := c.Bind(&req); err != nil {
		return command.Action{}, NewBadRequestError("invalid JSON body", err)
	}
	a, err := command.Parse(req.Input)
	if err != nil {
		return command.Action{}, FromError(err)
	}
	return a, nil
}

// HandlePreviewCommand parses a command and returns its ghost without applying it.
func (h *CommandHandlerImpl) HandlePreviewCommand(c echo.Context) error {
	a, err := bindCommand(c)
	if err != nil {
		return err
	}
	return h.read(c, func(ws *session.Workspace) (any, error) {
		ghost, err := command.Preview(ws.Store, a)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"action": a,
			"ghost":  ghost,
		}, nil
	})
}

// HandleApplyCommand applies a command as one undo step.
func (h *CommandHandlerImpl) HandleApplyCommand(c echo.Context) error {
	a, err := bindCommand(c)
	if err != nil {
		return err
	}
	ws, err := h.workspace(c)
	if err != nil {
		return err
	}
	var id string
	var applyErr error
	var view *session.ViewState
	if err := ws.Do(func() {
		if id, applyErr = command.Apply(ws.History, a); applyErr == nil {
			view = ws.View()
		}
	}); err != nil {
		return FromError(err)
	}
	if applyErr != nil {
		return FromError(applyErr)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"action": a,
		"id":     id,
		"state":  view,
	})
}
