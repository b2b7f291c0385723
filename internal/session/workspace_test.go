package session

import (
	"context"
	"testing"
	"time"

	"github.com/plc-visualizer/twin-editor/internal/editor"
	"github.com/plc-visualizer/twin-editor/internal/models"
	"github.com/plc-visualizer/twin-editor/internal/simulator"
	"github.com/plc-visualizer/twin-editor/internal/state"
	"github.com/plc-visualizer/twin-editor/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWorkspace(t *testing.T, opts Options, seed bool) *Workspace {
	t.Helper()
	ws, err := NewWorkspace("test-workspace", opts, seed)
	require.NoError(t, err)
	t.Cleanup(ws.Close)
	return ws
}

func TestSampleLayout(t *testing.T) {
	doc := SampleLayout()
	require.Len(t, doc.Elements, 44)

	first := doc.Elements[0]
	assert.Equal(t, "productionline_1", first.ID)
	assert.Equal(t, "Line 1", first.Name)
	assert.Equal(t, 100.0, first.X)
	assert.Equal(t, 160.0, first.W)

	agv := doc.Elements[16] // A7
	assert.Equal(t, models.DeviceTypeAGV, agv.Type)
	assert.Equal(t, "A7", agv.Name)
	assert.Equal(t, 460.0, agv.X)
	assert.Equal(t, 140.0, agv.Y)

	fw := doc.Elements[43]
	assert.Equal(t, "FW4", fw.Name)
	assert.Equal(t, 1260.0, fw.X)
	assert.Equal(t, 280.0, fw.Y)
	assert.Equal(t, 43, fw.Z)
}

func TestWorkspaceSeedDoesNotRecordHistory(t *testing.T) {
	ws := newTestWorkspace(t, Options{}, true)

	var canUndo bool
	var count int
	require.NoError(t, ws.Do(func() {
		canUndo = ws.History.CanUndo()
		count = len(ws.Store.Elements())
	}))
	assert.False(t, canUndo)
	assert.Equal(t, 44, count)
}

func TestWorkspacePointerDispatch(t *testing.T) {
	ws := newTestWorkspace(t, Options{}, false)

	var routeCount int
	var selection string
	require.NoError(t, ws.Do(func() {
		ws.SetMode(models.ModeRoute)
		click := editor.PointerEvent{X: 50, Y: 60, Button: editor.ButtonPrimary, Target: editor.Target{Kind: editor.TargetCanvas}}
		ws.PointerDown(click)
		ws.PointerUp(click)
		click.X = 150
		ws.PointerDown(click)
		ws.PointerUp(click)

		ws.SetMode(models.ModeSelect)
		id := ws.History.CreateEntity(models.DeviceTypeAGV, models.ElementPatch{}, true)
		ws.PointerDown(editor.PointerEvent{X: 5, Y: 5, Target: editor.Target{Kind: editor.TargetEntity, ID: id}})
		ws.PointerUp(editor.PointerEvent{X: 5, Y: 5})

		routeCount = len(ws.Store.Routes())
		selection = ws.Store.Selection()
	}))
	assert.Equal(t, 1, routeCount)
	assert.Equal(t, "agv_2", selection)
}

func TestWorkspaceFeedPublishesChanges(t *testing.T) {
	ws := newTestWorkspace(t, Options{}, false)

	ch, cancel := ws.Feed.Subscribe(4)
	defer cancel()

	require.NoError(t, ws.Do(func() {
		ws.History.CreateEntity(models.DeviceTypeRGV, models.ElementPatch{}, true)
	}))

	select {
	case n := <-ch:
		assert.Equal(t, "state", n.Type)
		assert.Equal(t, string(state.ReasonEntities), n.Reason)
		require.NotNil(t, n.Payload)
		assert.Len(t, n.Payload.Elements, 1)
		assert.True(t, n.Payload.CanUndo)
	case <-time.After(time.Second):
		t.Fatal("no notification received")
	}
}

func TestWorkspaceAutosaveAndEvents(t *testing.T) {
	mock := testutil.NewMockStorage()
	ws := newTestWorkspace(t, Options{
		Storage:       mock,
		Backend:       "mock",
		AutosaveDelay: 10 * time.Millisecond,
		EventDir:      t.TempDir(),
		Simulator:     simulator.Options{Interval: 10 * time.Millisecond, Rand: constRand(0.005)},
	}, false)

	require.NoError(t, ws.Do(func() {
		ws.History.CreateEntity(models.DeviceTypeProductionLine, models.ElementPatch{}, true)
	}))
	assert.Eventually(t, func() bool { return mock.Puts() >= 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, ws.Do(func() { ws.Sim.Tick() }))
	recent, err := ws.Events.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, models.StatusOffline, recent[0].To)
}

type constRand float64

func (c constRand) Float64() float64 { return float64(c) }

func TestUndoMidGestureLeavesNoEmptyStep(t *testing.T) {
	ws := newTestWorkspace(t, Options{}, false)

	var id string
	var x float64
	var undo, redo int
	require.NoError(t, ws.Do(func() {
		id = ws.History.CreateEntity(models.DeviceTypeAGV, models.ElementPatch{X: models.Ptr(0.0), Y: models.Ptr(0.0)}, false)
		ws.History.UpdateEntity(id, models.ElementPatch{X: models.Ptr(5.0)}, true)

		entity := editor.Target{Kind: editor.TargetEntity, ID: id}
		ws.PointerDown(editor.PointerEvent{X: 10, Y: 10, Target: entity})
		ws.PointerMove(editor.PointerEvent{X: 50, Y: 10, Target: entity})

		ws.Undo()

		ws.PointerMove(editor.PointerEvent{X: 60, Y: 10, Target: entity})
		ws.PointerUp(editor.PointerEvent{X: 60, Y: 10, Target: entity})

		el, _ := ws.Store.Element(id)
		x = el.X
		undo, redo = ws.History.Depth()
	}))

	assert.Equal(t, 0.0, x)
	assert.Equal(t, 0, undo, "the drag must not leave a step behind")
	assert.Equal(t, 1, redo)

	require.NoError(t, ws.Do(func() {
		ws.Redo()
		el, _ := ws.Store.Element(id)
		x = el.X
	}))
	assert.Equal(t, 5.0, x)
}
