package models

// Settings holds the view settings that are persisted with a layout.
type Settings struct {
	GridSize   float64 `json:"gridSize" yaml:"gridSize" msgpack:"gridSize"`
	SnapToGrid bool    `json:"snapToGrid" yaml:"snapToGrid" msgpack:"snapToGrid"`
	ShowGrid   bool    `json:"showGrid" yaml:"showGrid" msgpack:"showGrid"`
}

// DefaultSettings returns the settings of a fresh layout.
func DefaultSettings() Settings {
	return Settings{GridSize: 20, SnapToGrid: true, ShowGrid: true}
}

// SettingsPatch is a partial settings update.
type SettingsPatch struct {
	GridSize   *float64 `json:"gridSize,omitempty"`
	SnapToGrid *bool    `json:"snapToGrid,omitempty"`
	ShowGrid   *bool    `json:"showGrid,omitempty"`
}

// Apply merges the patch into s.
func (p SettingsPatch) Apply(s *Settings) {
	if p.GridSize != nil {
		s.GridSize = *p.GridSize
	}
	if p.SnapToGrid != nil {
		s.SnapToGrid = *p.SnapToGrid
	}
	if p.ShowGrid != nil {
		s.ShowGrid = *p.ShowGrid
	}
}

// Document is the persisted/exchanged layout: settings, elements and routes.
// It never carries selection, mode or the simulator flag.
type Document struct {
	Settings Settings  `json:"settings" yaml:"settings" msgpack:"settings"`
	Elements []Element `json:"elements" yaml:"elements" msgpack:"elements"`
	Routes   []Route   `json:"routes" yaml:"routes" msgpack:"routes"`
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	out := Document{
		Settings: d.Settings,
		Elements: make([]Element, len(d.Elements)),
		Routes:   make([]Route, len(d.Routes)),
	}
	for i, e := range d.Elements {
		out.Elements[i] = e.Clone()
	}
	for i, r := range d.Routes {
		out.Routes[i] = r.Clone()
	}
	return out
}

// Mode is the canvas interaction mode.
type Mode string

const (
	ModeSelect Mode = "select"
	ModeRoute  Mode = "route"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeSelect || m == ModeRoute
}
