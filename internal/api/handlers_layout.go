// handlers_layout.go - Document import/export handlers
package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/plc-visualizer/twin-editor/internal/models"
	"github.com/plc-visualizer/twin-editor/internal/parser"
	"github.com/plc-visualizer/twin-editor/internal/session"
	"github.com/plc-visualizer/twin-editor/internal/state"
	"github.com/plc-visualizer/twin-editor/internal/storage"
)

// LayoutHandlerImpl implements the LayoutHandler interface
type LayoutHandlerImpl struct {
	*base
	store    storage.Store
	registry *parser.Registry
}

// codecFor picks a codec from ?format, falling back to the Content-Type.
func codecFor(registry *parser.Registry, format, contentType string) (parser.Codec, error) {
	if format != "" {
		return registry.GetCodecByName(format)
	}
	mime := strings.TrimSpace(strings.Split(contentType, ";")[0])
	for _, c := range registry.Codecs() {
		if mime != "" && c.ContentType() == mime {
			return c, nil
		}
	}
	return registry.GetCodecByName("json")
}

// loadDocument installs doc. With ?undoable=true the import is one undo step,
// otherwise history is reset.
func loadDocument(ws *session.Workspace, doc models.Document, undoable bool) {
	if undoable {
		ws.History.Replace(state.SnapshotOf(doc), true)
		return
	}
	ws.History.Load(doc)
}

// HandleGetLayout exports the document. ?format selects json, yaml or msgpack.
func (h *LayoutHandlerImpl) HandleGetLayout(c echo.Context) error {
	codec, err := h.registry.GetCodecByName(orDefault(c.QueryParam("format"), "json"))
	if err != nil {
		return FromError(err)
	}
	ws, err := h.workspace(c)
	if err != nil {
		return err
	}
	var doc models.Document
	if err := ws.Do(func() { doc = ws.Store.Serialize() }); err != nil {
		return FromError(err)
	}

	var buf bytes.Buffer
	if err := codec.Encode(&buf, doc); err != nil {
		return FromError(err)
	}
	if c.QueryParam("download") == "true" {
		c.Response().Header().Set(echo.HeaderContentDisposition,
			fmt.Sprintf("attachment; filename=%q", "layout.export"+codec.Extensions()[0]))
	}
	return c.Blob(http.StatusOK, codec.ContentType(), buf.Bytes())
}

// HandlePutLayout replaces the document with the request body.
func (h *LayoutHandlerImpl) HandlePutLayout(c echo.Context) error {
	codec, err := codecFor(h.registry, c.QueryParam("format"), c.Request().Header.Get(echo.HeaderContentType))
	if err != nil {
		return FromError(err)
	}
	doc, err := codec.Decode(c.Request().Body)
	if err != nil {
		return NewBadRequestError("invalid layout body", err)
	}
	undoable := c.QueryParam("undoable") == "true"
	return h.mutate(c, http.StatusOK, func(ws *session.Workspace) error {
		loadDocument(ws, doc, undoable)
		return nil
	})
}

// HandleImportLayout accepts a multipart "file" and picks the codec by its extension.
func (h *LayoutHandlerImpl) HandleImportLayout(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return NewValidationError("file")
	}
	codec, err := h.registry.FindCodec(fh.Filename)
	if err != nil {
		return FromError(err)
	}
	src, err := fh.Open()
	if err != nil {
		return NewBadRequestError("failed to open uploaded file", err)
	}
	defer src.Close()

	doc, err := codec.Decode(src)
	if err != nil {
		return NewBadRequestError(fmt.Sprintf("failed to decode %s", fh.Filename), err)
	}
	undoable := c.QueryParam("undoable") == "true"
	return h.mutate(c, http.StatusOK, func(ws *session.Workspace) error {
		loadDocument(ws, doc, undoable)
		return nil
	})
}

// HandleSaveLayout stores the current document under a name.
func (h *LayoutHandlerImpl) HandleSaveLayout(c echo.Context) error {
	if h.store == nil {
		return NewServiceUnavailableError("storage is not configured")
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

	ws, err := h.workspace(c)
	if err != nil {
		return err
	}
	var doc models.Document
	if err := ws.Do(func() { doc = ws.Store.Serialize() }); err != nil {
		return FromError(err)
	}
	info, err := h.store.Save(req.Name, doc)
	if err != nil {
		return FromError(err)
	}
	return c.JSON(http.StatusCreated, info)
}

// HandleOpenLayout loads a saved layout into the workspace.
func (h *LayoutHandlerImpl) HandleOpenLayout(c echo.Context) error {
	if h.store == nil {
		return NewServiceUnavailableError("storage is not configured")
	}
	doc, err := h.store.Load(c.Param("layoutId"))
	if err != nil {
		return FromError(err)
	}
	undoable := c.QueryParam("undoable") == "true"
	return h.mutate(c, http.StatusOK, func(ws *session.Workspace) error {
		loadDocument(ws, doc, undoable)
		return nil
	})
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
