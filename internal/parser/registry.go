package parser

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Registry holds all available layout codecs and picks one by file extension.
type Registry struct {
	codecs []Codec
}

// Global registry instance
var globalRegistry = NewRegistry()

func NewRegistry() *Registry {
	return &Registry{
		codecs: []Codec{
			NewJSONCodec(),
			NewYAMLCodec(),
			NewMsgpackCodec(),
			NewConveyorMapCodec(),
		},
	}
}

// GetGlobalRegistry returns the singleton registry.
func GetGlobalRegistry() *Registry {
	return globalRegistry
}

// Register adds a new codec to the registry.
func (r *Registry) Register(c Codec) {
	r.codecs = append(r.codecs, c)
}

// Codecs returns the registered codecs in lookup order.
func (r *Registry) Codecs() []Codec {
	out := make([]Codec, len(r.codecs))
	copy(out, r.codecs)
	return out
}

// FindCodec detects the codec for a file from its extension.
func (r *Registry) FindCodec(filePath string) (Codec, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	for _, c := range r.codecs {
		for _, e := range c.Extensions() {
			if e == ext {
				return c, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNoCodec, filePath)
}

// GetCodecByName returns a codec by its name.
func (r *Registry) GetCodecByName(name string) (Codec, error) {
	name = strings.ToLower(name)
	for _, c := range r.codecs {
		if strings.ToLower(c.Name()) == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNoCodec, name)
}
