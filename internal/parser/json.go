package parser

import (
	"encoding/json"
	"io"

	"github.com/plc-visualizer/twin-editor/internal/models"
)

// JSONCodec handles the canonical export format.
type JSONCodec struct{}

func NewJSONCodec() *JSONCodec { return &JSONCodec{} }

func (c *JSONCodec) Name() string         { return "json" }
func (c *JSONCodec) Extensions() []string { return []string{".json"} }
func (c *JSONCodec) ContentType() string  { return "application/json" }

func (c *JSONCodec) Decode(r io.Reader) (models.Document, error) {
	var raw rawDocument
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return models.Document{}, err
	}
	return raw.document(), nil
}

func (c *JSONCodec) Encode(w io.Writer, doc models.Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
