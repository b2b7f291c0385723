package parser

import (
	"io"

	"github.com/plc-visualizer/twin-editor/internal/models"
	"gopkg.in/yaml.v3"
)

// YAMLCodec reads and writes layouts as YAML.
type YAMLCodec struct{}

func NewYAMLCodec() *YAMLCodec { return &YAMLCodec{} }

func (c *YAMLCodec) Name() string         { return "yaml" }
func (c *YAMLCodec) Extensions() []string { return []string{".yaml", ".yml"} }
func (c *YAMLCodec) ContentType() string  { return "application/yaml" }

func (c *YAMLCodec) Decode(r io.Reader) (models.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return models.Document{}, err
	}

	var raw rawDocument
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return models.Document{}, err
	}
	return raw.document(), nil
}

func (c *YAMLCodec) Encode(w io.Writer, doc models.Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}
