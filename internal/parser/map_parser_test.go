package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/plc-visualizer/twin-editor/internal/models"
)

func TestConveyorMapDecode(t *testing.T) {
	content := `<?xml version="1.0" ?>
<ConveyorMap version="1.0">
  <Object name="Belt_01" type="SmartFactory.SmartCIM.GUI.Widgets.WidgetBelt">
    <Size>120, 40</Size>
    <Location>20, 100</Location>
    <UnitId>B1ACNV13301-104</UnitId>
    <Text>Infeed 1</Text>
  </Object>
  <Object name="Arrow_01" type="SmartFactory.SmartCIM.GUI.Widgets.WidgetArrow">
    <Size>30, 20</Size>
    <Location>135, 110</Location>
    <FlowDirection>Angle_90</FlowDirection>
  </Object>
  <Object name="Broken" type="SmartFactory.SmartCIM.GUI.Widgets.WidgetBelt">
    <Size>oops</Size>
  </Object>
</ConveyorMap>`

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "test_map.xml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	doc, err := NewRegistry().DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile failed: %v", err)
	}

	if len(doc.Elements) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(doc.Elements))
	}

	belt := doc.Elements[0]
	if belt.ID != "Belt_01" {
		t.Errorf("unexpected belt id: %s", belt.ID)
	}
	if belt.Type != models.DeviceTypeProductionLine {
		t.Errorf("unexpected belt type: %s", belt.Type)
	}
	if belt.Name != "Infeed 1" {
		t.Errorf("unexpected belt name: %s", belt.Name)
	}
	if belt.X != 20 || belt.Y != 100 || belt.W != 120 || belt.H != 40 {
		t.Errorf("unexpected belt geometry: %+v", belt)
	}
	if belt.Meta.Props["unitId"] != "B1ACNV13301-104" {
		t.Errorf("unexpected unit id: %v", belt.Meta.Props)
	}

	arrow := doc.Elements[1]
	if arrow.Type != "Arrow" {
		t.Errorf("unknown widgets keep their class name, got %s", arrow.Type)
	}
	if arrow.Name != "Arrow_01" {
		t.Errorf("name falls back to the object name, got %s", arrow.Name)
	}
	if arrow.Z != 1 {
		t.Errorf("expected z=1, got %d", arrow.Z)
	}
}

func TestConveyorMapDesignerRoot(t *testing.T) {
	content := `<?xml version="1.0" ?>
<Object type="SmartFactory.SmartCIM.Modeler.Forms.FormLayouts.LayoutDesignerControl, SmartFactory.SmartCIM.Modeler" version="1" name="LayoutDesigner">
  <Name>LayoutDesigner</Name>
  <Size>1306, 1656</Size>
  <Object name="Label78" type="System.Windows.Forms.Label, System.Windows.Forms">
    <Text>BCR </Text>
    <Location>920, 1572</Location>
    <Size>22, 11</Size>
  </Object>
  <Object name="Panel1" type="System.Windows.Forms.Panel, System.Windows.Forms">
    <Location>0, 0</Location>
    <Size>400, 300</Size>
    <Object name="WidgetBelt96" type="SmartFactory.SmartCIM.GUI.Widgets.WidgetBelt, SmartFactory.SmartCIM.GUI">
      <UnitId>B1ACNV13301-132</UnitId>
      <Location>920, 1572</Location>
      <Size>50, 25</Size>
    </Object>
  </Object>
</Object>`

	doc, err := NewConveyorMapCodec().Decode(strings.NewReader(content))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if len(doc.Elements) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(doc.Elements))
	}
	if doc.Elements[0].Name != "BCR" {
		t.Errorf("expected trimmed label text, got %q", doc.Elements[0].Name)
	}
	if doc.Elements[2].ID != "WidgetBelt96" || doc.Elements[2].Type != models.DeviceTypeProductionLine {
		t.Errorf("nested belt not decoded: %+v", doc.Elements[2])
	}
}

func TestConveyorMapEncodeUnsupported(t *testing.T) {
	err := NewConveyorMapCodec().Encode(&strings.Builder{}, models.Document{})
	if err != ErrEncodeUnsupported {
		t.Errorf("expected ErrEncodeUnsupported, got %v", err)
	}
}
