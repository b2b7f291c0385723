package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plc-visualizer/twin-editor/internal/models"
)

type recorded struct {
	reasons []Reason
}

func (r *recorded) listen(reason Reason, _ View) {
	r.reasons = append(r.reasons, reason)
}

func TestCreateEntityDefaults(t *testing.T) {
	s := NewStore()

	id := s.CreateEntity(models.DeviceTypeAGV, models.ElementPatch{X: models.Ptr(12.0)})
	assert.Equal(t, "agv_1", id)

	e, ok := s.Element(id)
	require.True(t, ok)
	assert.Equal(t, 12.0, e.X)
	assert.Equal(t, 40.0, e.W)
	assert.Equal(t, 24.0, e.H)
	assert.Equal(t, 0, e.Z)
	assert.Equal(t, models.StatusNormal, e.Status)

	id2 := s.CreateEntity(models.DeviceTypeStackerCrane, models.ElementPatch{})
	e2, _ := s.Element(id2)
	assert.Equal(t, "stackercrane_2", id2)
	assert.Equal(t, 1, e2.Z, "z defaults to the entity count")

	id3 := s.CreateEntity(models.DeviceTypeRGV, models.ElementPatch{Z: models.Ptr(-3)})
	e3, _ := s.Element(id3)
	assert.Equal(t, -3, e3.Z)
}

func TestGeneratedIDsSkipExisting(t *testing.T) {
	s := NewStore()
	s.AddEntity(models.Element{ID: "agv_1", Type: models.DeviceTypeAGV})
	s.AddEntity(models.Element{ID: "agv_2", Type: models.DeviceTypeAGV})

	id := s.AddEntity(models.Element{Type: models.DeviceTypeAGV})
	assert.Equal(t, "agv_3", id)

	// A colliding id is replaced rather than duplicated.
	dup := s.AddEntity(models.Element{ID: "agv_1", Type: models.DeviceTypeAGV})
	assert.NotEqual(t, "agv_1", dup)
	assert.Len(t, s.Elements(), 4)

	untyped := s.AddEntity(models.Element{})
	assert.Equal(t, "el_5", untyped)

	rid := s.AddRoute(models.Route{Name: "loop"})
	assert.Equal(t, "route_6", rid)
}

func TestUpdateEntity(t *testing.T) {
	s := NewStore()
	id := s.CreateEntity(models.DeviceTypeProductionLine, models.ElementPatch{})
	rec := &recorded{}
	s.Subscribe(rec.listen)

	s.UpdateEntity(id, models.ElementPatch{
		Name:   models.Ptr("Line 1"),
		W:      models.Ptr(-5.0),
		H:      models.Ptr(0.0),
		Status: models.Ptr(models.Status("exploded")),
	})
	e, _ := s.Element(id)
	assert.Equal(t, "Line 1", e.Name)
	assert.Equal(t, 1.0, e.W)
	assert.Equal(t, 1.0, e.H)
	assert.Equal(t, models.StatusNormal, e.Status)
	assert.Equal(t, models.DeviceTypeProductionLine, e.Type)
	assert.Equal(t, id, e.ID)

	s.UpdateEntity("missing", models.ElementPatch{X: models.Ptr(1.0)})
	assert.Equal(t, []Reason{ReasonEntities}, rec.reasons, "unknown ids do not notify")
}

func TestSimulateEntityReason(t *testing.T) {
	s := NewStore()
	id := s.CreateEntity(models.DeviceTypeAGV, models.ElementPatch{})
	rec := &recorded{}
	s.Subscribe(rec.listen)

	s.SimulateEntity(id, models.ElementPatch{X: models.Ptr(30.0)})
	s.SimulateEntity("missing", models.ElementPatch{X: models.Ptr(1.0)})

	e, _ := s.Element(id)
	assert.Equal(t, 30.0, e.X)
	assert.Equal(t, []Reason{ReasonSimulation}, rec.reasons)
}

func TestRemoveEntityClearsSelection(t *testing.T) {
	s := NewStore()
	a := s.CreateEntity(models.DeviceTypeAGV, models.ElementPatch{})
	b := s.CreateEntity(models.DeviceTypeAGV, models.ElementPatch{})

	s.Select(a)
	_, ok := s.RemoveEntity(b)
	require.True(t, ok)
	assert.Equal(t, a, s.Selection())

	removed, ok := s.RemoveEntity(a)
	require.True(t, ok)
	assert.Equal(t, a, removed.ID)
	assert.Empty(t, s.Selection())

	_, ok = s.RemoveEntity(a)
	assert.False(t, ok)
}

func TestMinMaxZ(t *testing.T) {
	s := NewStore()
	assert.Equal(t, 0, s.MaxZ())
	assert.Equal(t, 0, s.MinZ())

	a := s.CreateEntity(models.DeviceTypeAGV, models.ElementPatch{})
	s.CreateEntity(models.DeviceTypeAGV, models.ElementPatch{})
	s.Reorder(a, 7)
	assert.Equal(t, 7, s.MaxZ())
	assert.Equal(t, 1, s.MinZ())
}

func TestSubscribeOrderAndUnsubscribe(t *testing.T) {
	s := NewStore()
	var order []string
	s.Subscribe(func(Reason, View) { order = append(order, "first") })
	unsub := s.Subscribe(func(Reason, View) { order = append(order, "second") })
	s.Subscribe(func(Reason, View) { order = append(order, "third") })

	s.SetMode(models.ModeRoute)
	assert.Equal(t, []string{"first", "second", "third"}, order)

	order = nil
	unsub()
	s.ClearSelection()
	assert.Equal(t, []string{"first", "third"}, order)
}

func TestBulkReplaceNormalizes(t *testing.T) {
	s := NewStore()
	rec := &recorded{}
	s.Subscribe(rec.listen)

	s.BulkReplace(Snapshot{
		Document: models.Document{
			Elements: []models.Element{{Type: models.DeviceTypeAGV}},
			Routes:   []models.Route{{Points: []models.Point{{X: 1, Y: 2}}}},
		},
	})

	els := s.Elements()
	require.Len(t, els, 1)
	e := els[0]
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, 0.0, e.X)
	assert.Equal(t, 0.0, e.Y)
	assert.Equal(t, 40.0, e.W)
	assert.Equal(t, 40.0, e.H)
	assert.Equal(t, 0, e.Z)
	assert.Equal(t, models.StatusNormal, e.Status)

	routes := s.Routes()
	require.Len(t, routes, 1)
	assert.NotEmpty(t, routes[0].ID)

	assert.Equal(t, 20.0, s.Settings().GridSize)
	assert.Equal(t, models.ModeSelect, s.Mode())
	assert.Equal(t, []Reason{ReasonReplace}, rec.reasons)
}

func TestSerializeIsIndependent(t *testing.T) {
	s := NewStore()
	id := s.CreateEntity(models.DeviceTypeAGV, models.ElementPatch{
		Meta: &models.Meta{Props: map[string]string{"connectedTo": "x"}},
	})

	doc := s.Serialize()
	doc.Elements[0].X = 999
	doc.Elements[0].Meta.Props["connectedTo"] = "y"

	e, _ := s.Element(id)
	assert.Equal(t, 0.0, e.X)
	assert.Equal(t, "x", e.Meta.Props["connectedTo"])
}

func TestSetSettingsIgnoresBadGrid(t *testing.T) {
	s := NewStore()
	s.SetSettings(models.SettingsPatch{GridSize: models.Ptr(0.0), ShowGrid: models.Ptr(false)})
	assert.Equal(t, 20.0, s.Settings().GridSize)
	assert.False(t, s.Settings().ShowGrid)
}

func TestAlertsAndFind(t *testing.T) {
	s := NewStore()
	a := s.CreateEntity(models.DeviceTypeAGV, models.ElementPatch{Name: models.Ptr("A 1")})
	s.CreateEntity(models.DeviceTypeAGV, models.ElementPatch{Name: models.Ptr("A 2")})
	s.UpdateEntity(a, models.ElementPatch{Status: models.Ptr(models.StatusFault)})

	alerts := s.Alerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, a, alerts[0].ID)
	assert.Equal(t, models.StatusFault, alerts[0].Status)

	e, ok := s.FindByIDOrName("A 2")
	require.True(t, ok)
	assert.Equal(t, "A 2", e.Name)

	_, ok = s.FindByIDOrName("nope")
	assert.False(t, ok)
}
