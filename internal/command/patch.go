package command

import (
	"fmt"
	"strconv"

	"github.com/plc-visualizer/twin-editor/internal/models"
)

// toPatch converts k=v pairs into an element patch. Geometry keys must be
// numeric; unrecognized keys land in meta props. The type key is dropped.
func toPatch(props map[string]string, base models.Meta) (models.ElementPatch, error) {
	var patch models.ElementPatch
	var extra map[string]string

	num := func(key, raw string) (*float64, error) {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%s", ErrInvalidValue, key, raw)
		}
		return &f, nil
	}

	for k, v := range props {
		var err error
		switch k {
		case "x":
			patch.X, err = num(k, v)
		case "y":
			patch.Y, err = num(k, v)
		case "w":
			patch.W, err = num(k, v)
		case "h":
			patch.H, err = num(k, v)
		case "r":
			patch.R, err = num(k, v)
		case "z":
			z, convErr := strconv.Atoi(v)
			if convErr != nil {
				err = fmt.Errorf("%w: z=%s", ErrInvalidValue, v)
			} else {
				patch.Z = &z
			}
		case "name":
			patch.Name = models.Ptr(v)
		case "status":
			patch.Status = models.Ptr(models.Status(v))
		case "routeid", "route":
			patch.RouteID = models.Ptr(v)
		case "type", "id":
		default:
			if extra == nil {
				extra = make(map[string]string)
			}
			extra[k] = v
		}
		if err != nil {
			return models.ElementPatch{}, err
		}
	}

	if extra != nil {
		meta := base.Clone()
		if meta.Props == nil {
			meta.Props = make(map[string]string, len(extra))
		}
		for k, v := range extra {
			meta.Props[k] = v
		}
		patch.Meta = &meta
	}
	return patch, nil
}
