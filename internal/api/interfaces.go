// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"github.com/labstack/echo/v4"
	"github.com/plc-visualizer/twin-editor/internal/session"
)

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// SessionHandler handles workspace lifecycle operations
type SessionHandler interface {
	HandleCreateSession(c echo.Context) error
	HandleListSessions(c echo.Context) error
	HandleGetSession(c echo.Context) error
	HandleDeleteSession(c echo.Context) error
	HandleSessionKeepAlive(c echo.Context) error
}

// LayoutHandler handles whole-document import and export
type LayoutHandler interface {
	HandleGetLayout(c echo.Context) error
	HandlePutLayout(c echo.Context) error
	HandleImportLayout(c echo.Context) error
	HandleSaveLayout(c echo.Context) error
	HandleOpenLayout(c echo.Context) error
}

// EditHandler handles entity, route and document edits
type EditHandler interface {
	HandleCreateElement(c echo.Context) error
	HandleUpdateElement(c echo.Context) error
	HandleDeleteElement(c echo.Context) error
	HandleBringToFront(c echo.Context) error
	HandleSendToBack(c echo.Context) error
	HandleCreateRoute(c echo.Context) error
	HandleUpdateRoute(c echo.Context) error
	HandleDeleteRoute(c echo.Context) error
	HandleAssignRoute(c echo.Context) error
	HandleSelect(c echo.Context) error
	HandleSetMode(c echo.Context) error
	HandleSetSettings(c echo.Context) error
	HandleUndo(c echo.Context) error
	HandleRedo(c echo.Context) error
}

// InputHandler handles raw pointer, keyboard and viewport input
type InputHandler interface {
	HandlePointer(c echo.Context) error
	HandleKey(c echo.Context) error
	HandleWheel(c echo.Context) error
	HandleGetViewport(c echo.Context) error
	HandleUpdateViewport(c echo.Context) error
}

// SimulatorHandler handles the realtime simulator
type SimulatorHandler interface {
	HandleSimulatorStatus(c echo.Context) error
	HandleSimulatorStart(c echo.Context) error
	HandleSimulatorStop(c echo.Context) error
	HandleSimulatorTick(c echo.Context) error
	HandleGetAlerts(c echo.Context) error
	HandleGetEvents(c echo.Context) error
	HandleGetEventCounts(c echo.Context) error
}

// CommandHandler handles the text command DSL
type CommandHandler interface {
	HandlePreviewCommand(c echo.Context) error
	HandleApplyCommand(c echo.Context) error
}

// SavedLayoutHandler handles layouts kept in storage
type SavedLayoutHandler interface {
	HandleListLayouts(c echo.Context) error
	HandleExportLayout(c echo.Context) error
	HandleRenameLayout(c echo.Context) error
	HandleDeleteLayout(c echo.Context) error
}

// FeedHandler streams store notifications
type FeedHandler interface {
	HandleWebSocket(c echo.Context) error
}

// SessionManager defines the interface for workspace management
// This allows mocking in tests
type SessionManager interface {
	Create(seed bool) (*session.Workspace, error)
	Get(id string) (*session.Workspace, bool)
	TouchSession(id string) bool
	Delete(id string) bool
	List() []session.Info
}
