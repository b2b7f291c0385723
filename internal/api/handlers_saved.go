// handlers_saved.go - Saved layout handlers
package api

import (
	"bytes"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/plc-visualizer/twin-editor/internal/parser"
	"github.com/plc-visualizer/twin-editor/internal/storage"
)

// SavedLayoutHandlerImpl implements the SavedLayoutHandler interface
type SavedLayoutHandlerImpl struct {
	store    storage.Store
	registry *parser.Registry
}

func (h *SavedLayoutHandlerImpl) available() error {
	if h.store == nil {
		return NewServiceUnavailableError("storage is not configured")
	}
	return nil
}

// HandleListLayouts returns recently saved layouts. ?limit defaults to 20.
func (h *SavedLayoutHandlerImpl) HandleListLayouts(c echo.Context) error {
	if err := h.available(); err != nil {
		return err
	}
	list, err := h.store.List(queryInt(c, "limit", 20))
	if err != nil {
		return NewInternalError("failed to list layouts", err)
	}
	return c.JSON(http.StatusOK, list)
}

// HandleExportLayout returns a saved layout encoded with ?format (json by default).
func (h *SavedLayoutHandlerImpl) HandleExportLayout(c echo.Context) error {
	if err := h.available(); err != nil {
		return err
	}
	codec, err := h.registry.GetCodecByName(orDefault(c.QueryParam("format"), "json"))
	if err != nil {
		return FromError(err)
	}
	doc, err := h.store.Load(c.Param("id"))
	if err != nil {
		return FromError(err)
	}
	var buf bytes.Buffer
	if err := codec.Encode(&buf, doc); err != nil {
		return FromError(err)
	}
	return c.Blob(http.StatusOK, codec.ContentType(), buf.Bytes())
}

// HandleRenameLayout renames a saved layout.
func (h *SavedLayoutHandlerImpl) HandleRenameLayout(c echo.Context) error {
	if err := h.available(); err != nil {
		return err
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if req.Name == "" {
		return NewValidationError("name")
	}
	info, err := h.store.Rename(c.Param("id"), req.Name)
	if err != nil {
		return FromError(err)
	}
	return c.JSON(http.StatusOK, info)
}

// HandleDeleteLayout removes a saved layout.
func (h *SavedLayoutHandlerImpl) HandleDeleteLayout(c echo.Context) error {
	if err := h.available(); err != nil {
		return err
	}
	if err := h.store.Delete(c.Param("id")); err != nil {
		return FromError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
