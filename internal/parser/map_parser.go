package parser

import (
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/plc-visualizer/twin-editor/internal/models"
)

// objectElement is one <Object> of a conveyor map or designer layout export.
// Objects nest inside designer containers.
type objectElement struct {
	XMLName       xml.Name
	Name          string          `xml:"name,attr"`
	Type          string          `xml:"type,attr"`
	Version       string          `xml:"version,attr"`
	Text          string          `xml:"Text"`
	Size          string          `xml:"Size"`
	Location      string          `xml:"Location"`
	UnitId        string          `xml:"UnitId"`
	FlowDirection string          `xml:"FlowDirection"`
	ForeColor     string          `xml:"ForeColor"`
	Objects       []objectElement `xml:"Object"`
}

// widgetTypes maps widget class names to device types.
var widgetTypes = map[string]models.DeviceType{
	"belt":         models.DeviceTypeProductionLine,
	"conveyor":     models.DeviceTypeProductionLine,
	"line":         models.DeviceTypeProductionLine,
	"crane":        models.DeviceTypeStackerCrane,
	"stackercrane": models.DeviceTypeStackerCrane,
	"agv":          models.DeviceTypeAGV,
	"rgv":          models.DeviceTypeRGV,
	"warehouse":    models.DeviceTypeFlatWarehouse,
	"rack":         models.DeviceTypeFlatWarehouse,
}

// ConveyorMapCodec imports conveyor map XML exports
// (<ConveyorMap> roots or nested LayoutDesigner <Object> roots). Import only.
type ConveyorMapCodec struct{}

func NewConveyorMapCodec() *ConveyorMapCodec { return &ConveyorMapCodec{} }

func (c *ConveyorMapCodec) Name() string         { return "conveyor-map" }
func (c *ConveyorMapCodec) Extensions() []string { return []string{".xml"} }
func (c *ConveyorMapCodec) ContentType() string  { return "application/xml" }

func (c *ConveyorMapCodec) Encode(io.Writer, models.Document) error {
	return ErrEncodeUnsupported
}

// Decode parses a conveyor map. Objects without a parseable Location and Size
// are skipped.
func (c *ConveyorMapCodec) Decode(r io.Reader) (models.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return models.Document{}, err
	}

	var root objectElement
	if err := xml.Unmarshal(data, &root); err != nil {
		return models.Document{}, err
	}

	// The root is either a ConveyorMap or a designer container; only its
	// descendants are placed.
	var objects []objectElement
	flattenObjects(root.Objects, &objects)

	doc := models.Document{
		Settings: models.DefaultSettings(),
		Elements: make([]models.Element, 0, len(objects)),
		Routes:   []models.Route{},
	}
	for _, obj := range objects {
		x, y, ok := parsePair(obj.Location)
		if !ok {
			continue
		}
		w, h, ok := parsePair(obj.Size)
		if !ok {
			continue
		}

		short := widgetName(obj.Type)
		t, known := widgetTypes[strings.ToLower(short)]
		if !known {
			t = models.DeviceType(short)
		}

		name := strings.TrimSpace(obj.Text)
		if name == "" {
			name = obj.Name
		}
		el := models.Element{
			ID:     obj.Name,
			Type:   t,
			Name:   name,
			X:      x,
			Y:      y,
			W:      w,
			H:      h,
			Z:      len(doc.Elements),
			Status: models.StatusNormal,
		}
		if props := objectProps(obj, short); len(props) > 0 {
			el.Meta.Props = props
		}
		if !(el.W > 0) {
			el.W = models.FallbackSize.W
		}
		if !(el.H > 0) {
			el.H = models.FallbackSize.H
		}
		doc.Elements = append(doc.Elements, el)
	}
	return doc, nil
}

func flattenObjects(in []objectElement, out *[]objectElement) {
	for _, obj := range in {
		*out = append(*out, obj)
		flattenObjects(obj.Objects, out)
	}
}

// widgetName reduces "SmartFactory.SmartCIM.GUI.Widgets.WidgetBelt, Assembly..." to "Belt".
func widgetName(typeAttr string) string {
	name, _, _ := strings.Cut(typeAttr, ",")
	name = strings.TrimSpace(name)
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	if trimmed := strings.TrimPrefix(name, "Widget"); trimmed != "" {
		name = trimmed
	}
	return name
}

func objectProps(obj objectElement, short string) map[string]string {
	props := map[string]string{}
	if obj.UnitId != "" {
		props["unitId"] = obj.UnitId
	}
	if obj.FlowDirection != "" {
		props["flowDirection"] = obj.FlowDirection
	}
	if obj.ForeColor != "" {
		props["foreColor"] = obj.ForeColor
	}
	if short != "" {
		props["widget"] = short
	}
	return props
}

// parsePair parses "120, 40".
func parsePair(s string) (float64, float64, bool) {
	a, b, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, false
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(a), 64)
	if err != nil {
		return 0, 0, false
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if err != nil {
		return 0, 0, false
	}
	return x, y, true
}
