package session

import (
	"fmt"

	"github.com/plc-visualizer/twin-editor/internal/models"
	"github.com/plc-visualizer/twin-editor/internal/state"
)

// SampleLayout returns the default floor shown for a new workspace:
// production lines, an AGV fleet, stacker cranes and flat warehouses.
func SampleLayout() models.Document {
	s := state.NewStore()
	add := func(t models.DeviceType, x, y float64, name string) {
		s.CreateEntity(t, models.ElementPatch{X: &x, Y: &y, Name: &name})
	}

	for i := 0; i < 10; i++ {
		add(models.DeviceTypeProductionLine, 100, float64(100+i*80), fmt.Sprintf("Line %d", i+1))
	}
	for i := 0; i < 20; i++ {
		add(models.DeviceTypeAGV, float64(400+(i%5)*60), float64(100+(i/5)*40), fmt.Sprintf("A%d", i+1))
	}
	for i := 0; i < 10; i++ {
		add(models.DeviceTypeStackerCrane, 800, float64(80+i*60), fmt.Sprintf("SC%d", i+1))
	}
	for i := 0; i < 4; i++ {
		add(models.DeviceTypeFlatWarehouse, float64(1000+(i%2)*260), float64(80+(i/2)*200), fmt.Sprintf("FW%d", i+1))
	}
	return s.Serialize()
}
