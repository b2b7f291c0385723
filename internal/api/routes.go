// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"github.com/labstack/echo/v4"
	"github.com/plc-visualizer/twin-editor/internal/parser"
	"github.com/plc-visualizer/twin-editor/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store    storage.Store
	Sessions SessionManager
	Registry *parser.Registry
	Gatherer prometheus.Gatherer
	Version  string
}

// Handlers holds all handler instances
type Handlers struct {
	Health    HealthHandler
	Session   SessionHandler
	Layout    LayoutHandler
	Edit      EditHandler
	Input     InputHandler
	Simulator SimulatorHandler
	Command   CommandHandler
	Saved     SavedLayoutHandler
	Feed      FeedHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	registry := deps.Registry
	if registry == nil {
		registry = parser.GetGlobalRegistry()
	}
	b := &base{sessions: deps.Sessions}
	return &Handlers{
		Health:    NewHealthHandler(deps.Version, deps.Sessions),
		Session:   &SessionHandlerImpl{base: b},
		Layout:    &LayoutHandlerImpl{base: b, store: deps.Store, registry: registry},
		Edit:      &EditHandlerImpl{base: b},
		Input:     &InputHandlerImpl{base: b},
		Simulator: &SimulatorHandlerImpl{base: b},
		Command:   &CommandHandlerImpl{base: b},
		Saved:     &SavedLayoutHandlerImpl{store: deps.Store, registry: registry},
		Feed:      NewWebSocketHandler(b),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers, gatherer prometheus.Gatherer) {
	// Health check
	e.GET("/api/health", handlers.Health.HandleHealth)
	if gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	// Workspace lifecycle
	sessions := e.Group("/api/sessions")
	sessions.POST("", handlers.Session.HandleCreateSession)
	sessions.GET("", handlers.Session.HandleListSessions)

	ws := sessions.Group("/:sessionId")
	ws.GET("", handlers.Session.HandleGetSession)
	ws.DELETE("", handlers.Session.HandleDeleteSession)
	ws.POST("/keepalive", handlers.Session.HandleSessionKeepAlive)
	ws.GET("/ws", handlers.Feed.HandleWebSocket)

	// Whole document
	ws.GET("/layout", handlers.Layout.HandleGetLayout)
	ws.PUT("/layout", handlers.Layout.HandlePutLayout)
	ws.POST("/layout/import", handlers.Layout.HandleImportLayout)
	ws.POST("/layout/save", handlers.Layout.HandleSaveLayout)
	ws.POST("/layout/open/:layoutId", handlers.Layout.HandleOpenLayout)

	// Edits
	ws.POST("/elements", handlers.Edit.HandleCreateElement)
	ws.PATCH("/elements/:id", handlers.Edit.HandleUpdateElement)
	ws.DELETE("/elements/:id", handlers.Edit.HandleDeleteElement)
	ws.POST("/elements/:id/front", handlers.Edit.HandleBringToFront)
	ws.POST("/elements/:id/back", handlers.Edit.HandleSendToBack)
	ws.PUT("/elements/:id/route", handlers.Edit.HandleAssignRoute)
	ws.POST("/routes", handlers.Edit.HandleCreateRoute)
	ws.PATCH("/routes/:id", handlers.Edit.HandleUpdateRoute)
	ws.DELETE("/routes/:id", handlers.Edit.HandleDeleteRoute)
	ws.PUT("/selection", handlers.Edit.HandleSelect)
	ws.PUT("/mode", handlers.Edit.HandleSetMode)
	ws.PATCH("/settings", handlers.Edit.HandleSetSettings)
	ws.POST("/undo", handlers.Edit.HandleUndo)
	ws.POST("/redo", handlers.Edit.HandleRedo)

	// Raw input
	ws.POST("/input/pointer", handlers.Input.HandlePointer)
	ws.POST("/input/key", handlers.Input.HandleKey)
	ws.POST("/input/wheel", handlers.Input.HandleWheel)
	ws.GET("/viewport", handlers.Input.HandleGetViewport)
	ws.POST("/viewport", handlers.Input.HandleUpdateViewport)

	// Simulator and alerts
	ws.GET("/simulator", handlers.Simulator.HandleSimulatorStatus)
	ws.POST("/simulator/start", handlers.Simulator.HandleSimulatorStart)
	ws.POST("/simulator/stop", handlers.Simulator.HandleSimulatorStop)
	ws.POST("/simulator/tick", handlers.Simulator.HandleSimulatorTick)
	ws.GET("/alerts", handlers.Simulator.HandleGetAlerts)
	ws.GET("/events", handlers.Simulator.HandleGetEvents)
	ws.GET("/events/counts", handlers.Simulator.HandleGetEventCounts)

	// Command DSL
	ws.POST("/command/preview", handlers.Command.HandlePreviewCommand)
	ws.POST("/command", handlers.Command.HandleApplyCommand)

	// Saved layouts
	layouts := e.Group("/api/layouts")
	layouts.GET("", handlers.Saved.HandleListLayouts)
	layouts.GET("/:id", handlers.Saved.HandleExportLayout)
	layouts.PUT("/:id", handlers.Saved.HandleRenameLayout)
	layouts.DELETE("/:id", handlers.Saved.HandleDeleteLayout)
}

// SetupMiddleware configures the error handler. Transport middleware is
// installed by the server command.
func SetupMiddleware(e *echo.Echo) {
	e.HTTPErrorHandler = ErrorHandler
}
