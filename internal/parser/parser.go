// Package parser reads and writes layout documents in the supported file formats.
package parser

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/plc-visualizer/twin-editor/internal/models"
)

var (
	// ErrNoCodec is returned when no codec matches a file or name.
	ErrNoCodec = errors.New("no suitable codec")
	// ErrEncodeUnsupported is returned by import-only codecs.
	ErrEncodeUnsupported = errors.New("codec does not support encoding")
)

// Codec converts between a byte stream and a layout document.
type Codec interface {
	// Name returns the unique name of the codec.
	Name() string
	// Extensions lists the lower-case file extensions handled, dot included.
	Extensions() []string
	// ContentType is the MIME type used when serving encoded layouts.
	ContentType() string
	// Decode reads a document, filling defaults for anything missing.
	Decode(r io.Reader) (models.Document, error)
	// Encode writes doc.
	Encode(w io.Writer, doc models.Document) error
}

// DecodeFile opens path and decodes it with the codec matching its extension.
func (r *Registry) DecodeFile(path string) (models.Document, error) {
	c, err := r.FindCodec(path)
	if err != nil {
		return models.Document{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return models.Document{}, err
	}
	defer f.Close()

	doc, err := c.Decode(f)
	if err != nil {
		return models.Document{}, fmt.Errorf("decoding %s as %s: %w", path, c.Name(), err)
	}
	return doc, nil
}

// EncodeFile writes doc to path with the codec matching its extension.
func (r *Registry) EncodeFile(path string, doc models.Document) error {
	c, err := r.FindCodec(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := c.Encode(f, doc); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s as %s: %w", path, c.Name(), err)
	}
	return f.Close()
}
