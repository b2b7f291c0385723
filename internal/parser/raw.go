package parser

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/plc-visualizer/twin-editor/internal/models"
)

// rawDocument is the tolerant decode target: every field may be missing, and
// scalars are decoded untyped so a wrongly typed value falls back to its default
// instead of failing the whole document.
type rawDocument struct {
	Settings *rawSettings `json:"settings" yaml:"settings" msgpack:"settings"`
	Elements []rawElement `json:"elements" yaml:"elements" msgpack:"elements"`
	Routes   []rawRoute   `json:"routes" yaml:"routes" msgpack:"routes"`
}

type rawSettings struct {
	GridSize   any `json:"gridSize" yaml:"gridSize" msgpack:"gridSize"`
	SnapToGrid any `json:"snapToGrid" yaml:"snapToGrid" msgpack:"snapToGrid"`
	ShowGrid   any `json:"showGrid" yaml:"showGrid" msgpack:"showGrid"`
}

type rawElement struct {
	ID      any `json:"id" yaml:"id" msgpack:"id"`
	Type    any `json:"type" yaml:"type" msgpack:"type"`
	Name    any `json:"name" yaml:"name" msgpack:"name"`
	X       any `json:"x" yaml:"x" msgpack:"x"`
	Y       any `json:"y" yaml:"y" msgpack:"y"`
	W       any `json:"w" yaml:"w" msgpack:"w"`
	H       any `json:"h" yaml:"h" msgpack:"h"`
	R       any `json:"r" yaml:"r" msgpack:"r"`
	Z       any `json:"z" yaml:"z" msgpack:"z"`
	Status  any `json:"status" yaml:"status" msgpack:"status"`
	RouteID any `json:"routeId" yaml:"routeId" msgpack:"routeId"`
	Meta    any `json:"meta" yaml:"meta" msgpack:"meta"`
}

type rawRoute struct {
	ID     any        `json:"id" yaml:"id" msgpack:"id"`
	Name   any        `json:"name" yaml:"name" msgpack:"name"`
	Points []rawPoint `json:"points" yaml:"points" msgpack:"points"`
	Closed any        `json:"closed" yaml:"closed" msgpack:"closed"`
}

type rawPoint struct {
	X any `json:"x" yaml:"x" msgpack:"x"`
	Y any `json:"y" yaml:"y" msgpack:"y"`
}

// number reads a finite number, accepting numeric strings.
func number(v any) (float64, bool) {
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func orZero(v any) float64 {
	f, _ := number(v)
	return f
}

func positiveOr(v any, def float64) float64 {
	f, ok := number(v)
	if !ok || !(f > 0) {
		return def
	}
	return f
}

// flag reads a boolean; anything unusable leaves def.
func flag(v any, def bool) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		if parsed, err := strconv.ParseBool(b); err == nil {
			return parsed
		}
	}
	return def
}

// text reads a string field. Numbers are formatted; nil and containers give "".
func text(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case bool, map[string]any, map[any]any, []any:
		return ""
	}
	if f, ok := number(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return ""
}

// document applies the load defaults. Ids stay empty when missing; the store
// synthesizes them on replace.
func (raw rawDocument) document() models.Document {
	doc := models.Document{
		Settings: models.DefaultSettings(),
		Elements: make([]models.Element, 0, len(raw.Elements)),
		Routes:   make([]models.Route, 0, len(raw.Routes)),
	}
	if s := raw.Settings; s != nil {
		doc.Settings.GridSize = positiveOr(s.GridSize, doc.Settings.GridSize)
		doc.Settings.SnapToGrid = flag(s.SnapToGrid, doc.Settings.SnapToGrid)
		doc.Settings.ShowGrid = flag(s.ShowGrid, doc.Settings.ShowGrid)
	}

	for _, e := range raw.Elements {
		id := text(e.ID)
		el := models.Element{
			ID:     id,
			Type:   models.DeviceType(text(e.Type)),
			Name:   text(e.Name),
			X:      orZero(e.X),
			Y:      orZero(e.Y),
			W:      positiveOr(e.W, models.FallbackSize.W),
			H:      positiveOr(e.H, models.FallbackSize.H),
			R:      orZero(e.R),
			Status: models.NormalizeStatus(models.Status(text(e.Status))),
			Meta:   decodeMeta(toStringMap(e.Meta)),
		}
		if el.Type == "" {
			el.Type = "Unknown"
		}
		if el.Name == "" {
			el.Name = id
		}
		if el.Name == "" {
			el.Name = "Unnamed"
		}
		// Fractional z values round to the nearest layer.
		if z, ok := number(e.Z); ok {
			el.Z = int(math.Round(z))
		}
		el.RouteID = text(e.RouteID)
		doc.Elements = append(doc.Elements, el)
	}

	for _, r := range raw.Routes {
		route := models.Route{
			ID:     text(r.ID),
			Name:   text(r.Name),
			Points: make([]models.Point, 0, len(r.Points)),
			Closed: flag(r.Closed, false),
		}
		if route.Name == "" {
			route.Name = route.ID
		}
		if route.Name == "" {
			route.Name = "Route"
		}
		for _, p := range r.Points {
			route.Points = append(route.Points, models.Point{X: orZero(p.X), Y: orZero(p.Y)})
		}
		doc.Routes = append(doc.Routes, route)
	}
	return doc
}

// decodeMeta accepts the namespaced form {sim:{...}, props:{...}} as well as
// older flat maps where simulator counters sit next to user keys.
func decodeMeta(m map[string]any) models.Meta {
	var meta models.Meta
	if len(m) == 0 {
		return meta
	}
	sim := models.SimState{}
	hasSim := false
	props := map[string]string{}

	setSim := func(key string, v any) {
		f, ok := toFloat(v)
		if !ok {
			return
		}
		switch key {
		case "statusTtl", "statusTTL":
			sim.StatusTTL = int(f)
		case "routeIdx":
			sim.RouteIdx = int(f)
		case "t":
			sim.T = f
		default:
			return
		}
		hasSim = true
	}

	for k, v := range m {
		switch k {
		case "sim":
			for sk, sv := range toStringMap(v) {
				setSim(sk, sv)
			}
		case "props":
			for pk, pv := range toStringMap(v) {
				props[pk] = stringify(pv)
			}
		case "statusTtl", "statusTTL", "routeIdx", "t":
			setSim(k, v)
		default:
			props[k] = stringify(v)
		}
	}
	if hasSim {
		meta.Sim = &sim
	}
	if len(props) > 0 {
		meta.Props = props
	}
	return meta
}

// toStringMap normalizes the map types produced by the json, yaml and msgpack decoders.
func toStringMap(v any) map[string]any {
	switch m := v.(type) {
	case map[string]any:
		return m
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}
