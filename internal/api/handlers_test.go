package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/plc-visualizer/twin-editor/internal/models"
	"github.com/plc-visualizer/twin-editor/internal/session"
	"github.com/plc-visualizer/twin-editor/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

type testServer struct {
	e        *echo.Echo
	sessions *session.Manager
	store    *testutil.MockStorage
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	e := echo.New()
	SetupMiddleware(e)

	store := testutil.NewMockStorage()
	sessions := session.NewManager(session.Options{})
	t.Cleanup(sessions.Close)

	h := NewHandlers(&Dependencies{Store: store, Sessions: sessions, Version: "test"})
	RegisterRoutes(e, h, nil)
	return &testServer{e: e, sessions: sessions, store: store}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) createSession(t *testing.T, seed bool) string {
	t.Helper()
	path := "/api/sessions"
	if !seed {
		path += "?seed=false"
	}
	rec := s.do(t, http.MethodPost, path, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.ID
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) session.ViewState {
	t.Helper()
	var view session.ViewState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view), rec.Body.String())
	return view
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Contains(t, rec.Body.String(), `"version":"test"`)
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestServer(t)
	id := s.createSession(t, true)

	rec := s.do(t, http.MethodGet, "/api/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeView(t, rec)
	assert.Len(t, view.Elements, 44)
	assert.Equal(t, models.ModeSelect, view.Mode)

	rec = s.do(t, http.MethodGet, "/api/sessions", nil)
	assert.Contains(t, rec.Body.String(), id)

	rec = s.do(t, http.MethodPost, "/api/sessions/"+id+"/keepalive", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"NOT_FOUND"`)
}

func TestElementEditsAndUndo(t *testing.T) {
	s := newTestServer(t)
	id := s.createSession(t, false)
	base := "/api/sessions/" + id

	rec := s.do(t, http.MethodPost, base+"/elements", map[string]interface{}{"type": "AGV", "x": 10, "y": 20})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	view := decodeView(t, rec)
	require.Len(t, view.Elements, 1)
	elID := view.Elements[0].ID
	assert.Equal(t, "agv_1", elID)
	assert.Equal(t, elID, view.Selection)
	assert.Equal(t, 40.0, view.Elements[0].W)

	rec = s.do(t, http.MethodPatch, base+"/elements/"+elID, map[string]interface{}{"x": 99, "status": "fault"})
	require.Equal(t, http.StatusOK, rec.Code)
	view = decodeView(t, rec)
	assert.Equal(t, 99.0, view.Elements[0].X)
	assert.Equal(t, models.StatusFault, view.Elements[0].Status)

	rec = s.do(t, http.MethodGet, base+"/alerts", nil)
	assert.Contains(t, rec.Body.String(), `"status":"fault"`)

	rec = s.do(t, http.MethodPost, base+"/undo", nil)
	view = decodeView(t, rec)
	assert.Equal(t, 10.0, view.Elements[0].X)
	assert.True(t, view.CanRedo)

	rec = s.do(t, http.MethodPost, base+"/redo", nil)
	view = decodeView(t, rec)
	assert.Equal(t, 99.0, view.Elements[0].X)

	rec = s.do(t, http.MethodPatch, base+"/elements/missing", map[string]interface{}{"x": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodDelete, base+"/elements/"+elID, nil)
	view = decodeView(t, rec)
	assert.Empty(t, view.Elements)
	assert.Empty(t, view.Selection)
}

func TestZOrderAndModeValidation(t *testing.T) {
	s := newTestServer(t)
	id := s.createSession(t, true)
	base := "/api/sessions/" + id

	rec := s.do(t, http.MethodPost, base+"/elements/productionline_1/front", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeView(t, rec)
	assert.Equal(t, 44, view.Elements[0].Z)

	rec = s.do(t, http.MethodPost, base+"/elements/productionline_1/back", nil)
	view = decodeView(t, rec)
	assert.Equal(t, 0, view.Elements[0].Z)

	rec = s.do(t, http.MethodPut, base+"/mode", map[string]string{"mode": "paint"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")

	rec = s.do(t, http.MethodPut, base+"/mode", map[string]string{"mode": "route"})
	assert.Equal(t, models.ModeRoute, decodeView(t, rec).Mode)
}

func TestRoutesAndPointerInput(t *testing.T) {
	s := newTestServer(t)
	id := s.createSession(t, false)
	base := "/api/sessions/" + id

	s.do(t, http.MethodPut, base+"/mode", map[string]string{"mode": "route"})
	for _, x := range []float64{0, 100} {
		rec := s.do(t, http.MethodPost, base+"/input/pointer", map[string]interface{}{
			"phase": "down", "x": x, "y": 0, "button": 0, "target": map[string]string{"kind": "canvas"},
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), `"handled":true`)
	}

	rec := s.do(t, http.MethodGet, base, nil)
	view := decodeView(t, rec)
	require.Len(t, view.Routes, 1)
	assert.Equal(t, "Route 1", view.Routes[0].Name)
	assert.Len(t, view.Routes[0].Points, 2)
	routeID := view.Routes[0].ID

	s.do(t, http.MethodPut, base+"/mode", map[string]string{"mode": "select"})
	rec = s.do(t, http.MethodPost, base+"/elements", map[string]interface{}{"type": "AGV"})
	elID := decodeView(t, rec).Selection

	rec = s.do(t, http.MethodPut, base+"/elements/"+elID+"/route", map[string]string{"routeId": routeID})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, base+"/simulator/tick", nil)
	view = decodeView(t, rec)
	var agv models.Element
	for _, e := range view.Elements {
		if e.ID == elID {
			agv = e
		}
	}
	require.NotNil(t, agv.Meta.Sim)
	assert.Greater(t, agv.Meta.Sim.T, 0.0)

	rec = s.do(t, http.MethodPut, base+"/elements/"+elID+"/route", map[string]string{"routeId": "nope"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, base+"/input/pointer", map[string]interface{}{"phase": "hover"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUndoDuringDragAbandonsGesture(t *testing.T) {
	s := newTestServer(t)
	id := s.createSession(t, false)
	base := "/api/sessions/" + id

	rec := s.do(t, http.MethodPost, base+"/elements", map[string]interface{}{"type": "AGV", "x": 0, "y": 0})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	elID := decodeView(t, rec).Elements[0].ID
	s.do(t, http.MethodPatch, base+"/elements/"+elID, map[string]interface{}{"x": 100})

	pointer := func(phase string, x float64) {
		rec := s.do(t, http.MethodPost, base+"/input/pointer", map[string]interface{}{
			"phase": phase, "x": x, "y": 10, "button": 0,
			"target": map[string]string{"kind": "entity", "id": elID},
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	pointer("down", 110)
	pointer("move", 150)

	rec = s.do(t, http.MethodPost, base+"/undo", nil)
	assert.Equal(t, 0.0, decodeView(t, rec).Elements[0].X)

	pointer("move", 160)
	pointer("up", 160)

	view := decodeView(t, s.do(t, http.MethodGet, base, nil))
	assert.Equal(t, 0.0, view.Elements[0].X)

	// The only step left is the creation.
	rec = s.do(t, http.MethodPost, base+"/undo", nil)
	assert.Empty(t, decodeView(t, rec).Elements)
}

func TestKeyboardAndViewport(t *testing.T) {
	s := newTestServer(t)
	id := s.createSession(t, false)
	base := "/api/sessions/" + id

	s.do(t, http.MethodPost, base+"/elements", map[string]interface{}{"type": "RGV"})
	rec := s.do(t, http.MethodPost, base+"/input/key", map[string]interface{}{"phase": "down", "key": "Delete"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"handled":true`)
	assert.Contains(t, rec.Body.String(), `"elements":[]`)

	rec = s.do(t, http.MethodPost, base+"/input/key", map[string]interface{}{"phase": "down", "key": "z", "ctrl": true})
	assert.Contains(t, rec.Body.String(), `"id":"rgv_1"`)

	rec = s.do(t, http.MethodPost, base+"/viewport", map[string]interface{}{"action": "zoom", "x": 100, "y": 100, "scale": 10})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"tx":-300,"ty":-300,"scale":4}`, rec.Body.String())

	rec = s.do(t, http.MethodPost, base+"/viewport", map[string]interface{}{"action": "reset"})
	assert.JSONEq(t, `{"tx":0,"ty":0,"scale":1}`, rec.Body.String())

	rec = s.do(t, http.MethodPost, base+"/viewport", map[string]interface{}{"action": "spin"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCommandEndpoints(t *testing.T) {
	s := newTestServer(t)
	id := s.createSession(t, false)
	base := "/api/sessions/" + id

	rec := s.do(t, http.MethodPost, base+"/command/preview", map[string]string{"input": "add agv x=5 y=6"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"color":"#2563eb"`)

	rec = s.do(t, http.MethodPost, base+"/command", map[string]string{"input": "add agv x=5 y=6 name=Shuttle"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"id":"agv_1"`)

	rec = s.do(t, http.MethodPost, base+"/command", map[string]string{"input": "move Ghost x=1"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, base+"/command", map[string]string{"input": "fly agv"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLayoutExportImport(t *testing.T) {
	s := newTestServer(t)
	id := s.createSession(t, true)
	base := "/api/sessions/" + id

	rec := s.do(t, http.MethodGet, base+"/layout?format=msgpack", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-msgpack", rec.Header().Get(echo.HeaderContentType))
	var doc models.Document
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Len(t, doc.Elements, 44)

	rec = s.do(t, http.MethodGet, base+"/layout?format=yaml", nil)
	assert.Contains(t, rec.Body.String(), "gridSize: 20")

	req := httptest.NewRequest(http.MethodPut, base+"/layout", strings.NewReader(`{"elements":[{"type":"AGV"}]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decodeView(t, rec)
	require.Len(t, view.Elements, 1)
	assert.Equal(t, 40.0, view.Elements[0].W)
	assert.Equal(t, models.StatusNormal, view.Elements[0].Status)
	assert.False(t, view.CanUndo)

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	part, _ := writer.CreateFormFile("file", "floor.yaml")
	part.Write([]byte("elements:\n  - id: w1\n    type: FlatWarehouse\n    name: FW\n"))
	writer.Close()
	req = httptest.NewRequest(http.MethodPost, base+"/layout/import?undoable=true", body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	rec = httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view = decodeView(t, rec)
	require.Len(t, view.Elements, 1)
	assert.Equal(t, "w1", view.Elements[0].ID)
	assert.True(t, view.CanUndo)

	rec = s.do(t, http.MethodGet, base+"/layout?format=bmp", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSavedLayouts(t *testing.T) {
	s := newTestServer(t)
	id := s.createSession(t, true)
	base := "/api/sessions/" + id

	rec := s.do(t, http.MethodPost, base+"/layout/save", map[string]string{"name": "plant"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var info models.LayoutInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, 44, info.ElementCount)

	rec = s.do(t, http.MethodPost, base+"/layout/save", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/layouts", nil)
	assert.Contains(t, rec.Body.String(), `"name":"plant"`)

	rec = s.do(t, http.MethodPut, "/api/layouts/"+info.ID, map[string]string{"name": "plant-b"})
	assert.Contains(t, rec.Body.String(), `"name":"plant-b"`)

	other := s.createSession(t, false)
	rec = s.do(t, http.MethodPost, "/api/sessions/"+other+"/layout/open/"+info.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeView(t, rec).Elements, 44)

	rec = s.do(t, http.MethodGet, "/api/layouts/"+info.ID+"?format=json", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/layouts/"+info.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/layouts/"+info.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSimulatorStartStop(t *testing.T) {
	s := newTestServer(t)
	id := s.createSession(t, false)
	base := "/api/sessions/" + id

	rec := s.do(t, http.MethodPost, base+"/simulator/start", nil)
	assert.JSONEq(t, `{"running":true,"ticks":0}`, rec.Body.String())
	rec = s.do(t, http.MethodGet, base, nil)
	assert.True(t, decodeView(t, rec).Running)

	rec = s.do(t, http.MethodPost, base+"/simulator/stop", nil)
	assert.Contains(t, rec.Body.String(), `"running":false`)

	rec = s.do(t, http.MethodGet, base+"/events", nil)
	assert.JSONEq(t, `[]`, rec.Body.String())
}
