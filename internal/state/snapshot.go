package state

import "github.com/plc-visualizer/twin-editor/internal/models"

// Snapshot is the unit of undo history: the document plus selection and mode.
// The simulator run flag is not part of it.
type Snapshot struct {
	models.Document
	Selection string      `json:"selection,omitempty"`
	Mode      models.Mode `json:"mode"`
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Document:  s.Document.Clone(),
		Selection: s.Selection,
		Mode:      s.Mode,
	}
}

// SnapshotOf wraps a loaded document: no selection, select mode.
func SnapshotOf(doc models.Document) Snapshot {
	return Snapshot{Document: doc, Mode: models.ModeSelect}
}
