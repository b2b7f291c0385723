// handlers_simulator.go - Simulator, alert and status event handlers
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/plc-visualizer/twin-editor/internal/session"
	"github.com/plc-visualizer/twin-editor/internal/simulator"
)

// SimulatorHandlerImpl implements the SimulatorHandler interface
type SimulatorHandlerImpl struct {
	*base
}

type simulatorStatus struct {
	Running bool   `json:"running"`
	Ticks   uint64 `json:"ticks"`
}

func statusOf(ws *session.Workspace) simulatorStatus {
	return simulatorStatus{Running: ws.Sim.Running(), Ticks: ws.Sim.Ticks()}
}

// HandleSimulatorStatus reports whether the simulator is running.
func (h *SimulatorHandlerImpl) HandleSimulatorStatus(c echo.Context) error {
	return h.read(c, func(ws *session.Workspace) (any, error) {
		return statusOf(ws), nil
	})
}

// HandleSimulatorStart starts ticking. Starting twice is harmless.
func (h *SimulatorHandlerImpl) HandleSimulatorStart(c echo.Context) error {
	return h.read(c, func(ws *session.Workspace) (any, error) {
		ws.Sim.Start()
		return statusOf(ws), nil
	})
}

// HandleSimulatorStop stops ticking.
func (h *SimulatorHandlerImpl) HandleSimulatorStop(c echo.Context) error {
	return h.read(c, func(ws *session.Workspace) (any, error) {
		ws.Sim.Stop()
		return statusOf(ws), nil
	})
}

// HandleSimulatorTick runs a single tick, running or not.
func (h *SimulatorHandlerImpl) HandleSimulatorTick(c echo.Context) error {
	return h.mutate(c, http.StatusOK, func(ws *session.Workspace) error {
		ws.Sim.Tick()
		return nil
	})
}

// HandleGetAlerts lists elements whose status is not normal.
func (h *SimulatorHandlerImpl) HandleGetAlerts(c echo.Context) error {
	return h.read(c, func(ws *session.Workspace) (any, error) {
		return ws.Store.Alerts(), nil
	})
}

// HandleGetEvents returns the most recent status transitions. ?limit defaults to 100.
func (h *SimulatorHandlerImpl) HandleGetEvents(c echo.Context) error {
	ws, err := h.workspace(c)
	if err != nil {
		return err
	}
	if ws.Events == nil {
		return c.JSON(http.StatusOK, []simulator.Transition{})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	events, err := ws.Events.Recent(ctx, queryInt(c, "limit", 100))
	if err != nil {
		return NewInternalError("failed to query events", err)
	}
	return c.JSON(http.StatusOK, events)
}

// HandleGetEventCounts returns transition counts per target status.
func (h *SimulatorHandlerImpl) HandleGetEventCounts(c echo.Context) error {
	ws, err := h.workspace(c)
	if err != nil {
		return err
	}
	if ws.Events == nil {
		return c.JSON(http.StatusOK, map[string]int{})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	counts, err := ws.Events.CountByStatus(ctx)
	if err != nil {
		return NewInternalError("failed to count events", err)
	}
	return c.JSON(http.StatusOK, counts)
}
