package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plc-visualizer/twin-editor/internal/config"
	"github.com/plc-visualizer/twin-editor/internal/parser"
	"github.com/plc-visualizer/twin-editor/internal/session"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := rootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeSample(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, parser.GetGlobalRegistry().EncodeFile(path, session.SampleLayout()))
	return path
}

func TestCheck(t *testing.T) {
	path := writeSample(t, "plant.json")

	out, err := run(t, "check", path)
	require.NoError(t, err)
	assert.Contains(t, out, "elements: 44")
	assert.Contains(t, out, "AGV")
	assert.Contains(t, out, "routes:   0")

	_, err = run(t, "check", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = run(t, "check", filepath.Join(t.TempDir(), "plant.docx"))
	assert.ErrorIs(t, err, parser.ErrNoCodec)
}

func TestApply(t *testing.T) {
	path := writeSample(t, "plant.json")
	out := filepath.Join(filepath.Dir(path), "plant.yaml")

	stdout, err := run(t, "apply", path, "add crane name=SC11 x=900 y=80", "move A1 x=420 y=120", "-o", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "stackercrane_")

	doc, err := parser.GetGlobalRegistry().DecodeFile(out)
	require.NoError(t, err)
	assert.Len(t, doc.Elements, 45)

	var moved bool
	for _, e := range doc.Elements {
		if e.Name == "A1" {
			moved = true
			assert.Equal(t, 420.0, e.X)
			assert.Equal(t, 120.0, e.Y)
		}
	}
	assert.True(t, moved)

	// The input is untouched when writing elsewhere.
	orig, err := parser.GetGlobalRegistry().DecodeFile(path)
	require.NoError(t, err)
	assert.Len(t, orig.Elements, 44)
}

func TestApplyDryRunAndErrors(t *testing.T) {
	path := writeSample(t, "plant.json")

	_, err := run(t, "apply", "--dry-run", path, "delete A1")
	require.NoError(t, err)
	doc, err := parser.GetGlobalRegistry().DecodeFile(path)
	require.NoError(t, err)
	assert.Len(t, doc.Elements, 44)

	_, err = run(t, "apply", path, "delete NOPE")
	assert.Error(t, err)

	_, err = run(t, "apply", path, "teleport A1")
	assert.Error(t, err)
}

func TestNewServerRoutes(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Storage.Path = filepath.Join(dir, "layouts")
	cfg.Advanced.EventDir = ""
	require.NoError(t, cfg.EnsureDirectories())

	srv, err := newServer(cfg)
	require.NoError(t, err)
	defer srv.Close()

	for _, path := range []string{"/api/health", "/metrics", "/api/layouts"} {
		rec := httptest.NewRecorder()
		srv.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec := httptest.NewRecorder()
	srv.e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sessions", nil))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, srv.sessions.Len())
}
