// Package models contains domain types for the digital-twin layout editor.
package models

import "strings"

// DeviceType identifies the kind of device placed on the canvas.
type DeviceType string

const (
	DeviceTypeProductionLine DeviceType = "ProductionLine"
	DeviceTypeAGV            DeviceType = "AGV"
	DeviceTypeRGV            DeviceType = "RGV"
	DeviceTypeStackerCrane   DeviceType = "StackerCrane"
	DeviceTypeFlatWarehouse  DeviceType = "FlatWarehouse"
)

// DeviceTypes lists the known device types in display order.
var DeviceTypes = []DeviceType{
	DeviceTypeProductionLine,
	DeviceTypeAGV,
	DeviceTypeRGV,
	DeviceTypeStackerCrane,
	DeviceTypeFlatWarehouse,
}

// Size is a width/height pair in canvas units.
type Size struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// FallbackSize is used for unknown device types and for missing persisted dimensions.
var FallbackSize = Size{W: 40, H: 40}

var defaultSizes = map[DeviceType]Size{
	DeviceTypeProductionLine: {W: 160, H: 40},
	DeviceTypeAGV:            {W: 40, H: 24},
	DeviceTypeRGV:            {W: 40, H: 24},
	DeviceTypeStackerCrane:   {W: 24, H: 120},
	DeviceTypeFlatWarehouse:  {W: 200, H: 140},
}

// DefaultSize returns the default footprint of a device type.
func (t DeviceType) DefaultSize() Size {
	if s, ok := defaultSizes[t]; ok {
		return s
	}
	return FallbackSize
}

// Known reports whether t is one of the closed set of device types.
func (t DeviceType) Known() bool {
	_, ok := defaultSizes[t]
	return ok
}

// IDPrefix is the prefix used when generating element ids for this type.
func (t DeviceType) IDPrefix() string {
	if t == "" {
		return "el"
	}
	return strings.ToLower(string(t))
}

// Element is a placed device instance.
// X/Y is the top-left corner; R is the rotation in degrees.
type Element struct {
	ID      string     `json:"id" yaml:"id" msgpack:"id"`
	Type    DeviceType `json:"type" yaml:"type" msgpack:"type"`
	Name    string     `json:"name" yaml:"name" msgpack:"name"`
	X       float64    `json:"x" yaml:"x" msgpack:"x"`
	Y       float64    `json:"y" yaml:"y" msgpack:"y"`
	W       float64    `json:"w" yaml:"w" msgpack:"w"`
	H       float64    `json:"h" yaml:"h" msgpack:"h"`
	R       float64    `json:"r" yaml:"r" msgpack:"r"`
	Z       int        `json:"z" yaml:"z" msgpack:"z"`
	Status  Status     `json:"status" yaml:"status" msgpack:"status"`
	RouteID string     `json:"routeId,omitempty" yaml:"routeId,omitempty" msgpack:"routeId,omitempty"`
	Meta    Meta       `json:"meta" yaml:"meta" msgpack:"meta"`
}

// Center returns the geometric center of the element's bounding box.
func (e Element) Center() Point {
	return Point{X: e.X + e.W/2, Y: e.Y + e.H/2}
}

// Clone returns a deep copy of the element.
func (e Element) Clone() Element {
	e.Meta = e.Meta.Clone()
	return e
}

// Meta carries per-element data that is not part of the fixed geometry.
// Sim is owned by the simulator; Props is free-form user data.
type Meta struct {
	Sim   *SimState         `json:"sim,omitempty" yaml:"sim,omitempty" msgpack:"sim,omitempty"`
	Props map[string]string `json:"props,omitempty" yaml:"props,omitempty" msgpack:"props,omitempty"`
}

// Clone returns a deep copy of the metadata.
func (m Meta) Clone() Meta {
	out := Meta{}
	if m.Sim != nil {
		sim := *m.Sim
		out.Sim = &sim
	}
	if m.Props != nil {
		out.Props = make(map[string]string, len(m.Props))
		for k, v := range m.Props {
			out.Props[k] = v
		}
	}
	return out
}

// SimState holds the simulator-private counters of an element.
type SimState struct {
	StatusTTL int     `json:"statusTtl" yaml:"statusTtl" msgpack:"statusTtl"`
	RouteIdx  int     `json:"routeIdx" yaml:"routeIdx" msgpack:"routeIdx"`
	T         float64 `json:"t" yaml:"t" msgpack:"t"`
}

// ElementPatch is a partial update. Nil fields are left untouched.
// Id and type are deliberately absent.
type ElementPatch struct {
	Name    *string  `json:"name,omitempty"`
	X       *float64 `json:"x,omitempty"`
	Y       *float64 `json:"y,omitempty"`
	W       *float64 `json:"w,omitempty"`
	H       *float64 `json:"h,omitempty"`
	R       *float64 `json:"r,omitempty"`
	Z       *int     `json:"z,omitempty"`
	Status  *Status  `json:"status,omitempty"`
	RouteID *string  `json:"routeId,omitempty"`
	Meta    *Meta    `json:"meta,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p ElementPatch) IsEmpty() bool {
	return p.Name == nil && p.X == nil && p.Y == nil && p.W == nil && p.H == nil &&
		p.R == nil && p.Z == nil && p.Status == nil && p.RouteID == nil && p.Meta == nil
}

// Apply merges the patch into e.
func (p ElementPatch) Apply(e *Element) {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.X != nil {
		e.X = *p.X
	}
	if p.Y != nil {
		e.Y = *p.Y
	}
	if p.W != nil {
		e.W = *p.W
	}
	if p.H != nil {
		e.H = *p.H
	}
	if p.R != nil {
		e.R = *p.R
	}
	if p.Z != nil {
		e.Z = *p.Z
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
	if p.RouteID != nil {
		e.RouteID = *p.RouteID
	}
	if p.Meta != nil {
		e.Meta = p.Meta.Clone()
	}
}

// NewElement builds an element of the given type with the type's default size,
// then applies props on top. Z defaults to zero; the store assigns ids.
func NewElement(t DeviceType, props ElementPatch) Element {
	size := t.DefaultSize()
	e := Element{
		Type:   t,
		Name:   string(t),
		W:      size.W,
		H:      size.H,
		Status: StatusNormal,
	}
	props.Apply(&e)
	return e
}

// Ptr returns a pointer to v. Handy for building patches.
func Ptr[T any](v T) *T {
	return &v
}
