package command

import (
	"fmt"

	"github.com/plc-visualizer/twin-editor/internal/models"
	"github.com/plc-visualizer/twin-editor/internal/state"
)

// Ghost is the preview rectangle drawn before an action is applied.
type Ghost struct {
	Op    Op      `json:"op"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	W     float64 `json:"w"`
	H     float64 `json:"h"`
	Color string  `json:"color"`
}

const (
	addColor    = "#2563eb"
	moveColor   = "#10b981"
	deleteColor = "#ef4444"
)

// Preview returns the ghost for add, move and delete. Set and connect have
// no ghost and return nil.
func Preview(v state.View, a Action) (*Ghost, error) {
	switch a.Op {
	case OpAdd:
		patch, err := toPatch(a.Props, models.Meta{})
		if err != nil {
			return nil, err
		}
		el := models.NewElement(a.Type, patch)
		return &Ghost{Op: a.Op, X: el.X, Y: el.Y, W: el.W, H: el.H, Color: addColor}, nil
	case OpMove:
		target, err := resolve(v, a.Target)
		if err != nil {
			return nil, err
		}
		patch, err := toPatch(pick(a.Props, "x", "y"), target.Meta)
		if err != nil {
			return nil, err
		}
		g := &Ghost{Op: a.Op, X: target.X, Y: target.Y, W: target.W, H: target.H, Color: moveColor}
		if patch.X != nil {
			g.X = *patch.X
		}
		if patch.Y != nil {
			g.Y = *patch.Y
		}
		return g, nil
	case OpDelete:
		target, err := resolve(v, a.Target)
		if err != nil {
			return nil, err
		}
		return &Ghost{Op: a.Op, X: target.X, Y: target.Y, W: target.W, H: target.H, Color: deleteColor}, nil
	case OpSet, OpConnect:
		return nil, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, a.Op)
}

// Apply commits the action as one undo step and returns the affected element id.
func Apply(h *state.History, a Action) (string, error) {
	store := h.Store()
	switch a.Op {
	case OpAdd:
		patch, err := toPatch(a.Props, models.Meta{})
		if err != nil {
			return "", err
		}
		return h.CreateEntity(a.Type, patch, true), nil

	case OpMove:
		target, err := resolve(store, a.Target)
		if err != nil {
			return "", err
		}
		patch, err := toPatch(pick(a.Props, "x", "y"), target.Meta)
		if err != nil {
			return "", err
		}
		h.UpdateEntity(target.ID, patch, true)
		return target.ID, nil

	case OpSet:
		target, err := resolve(store, a.Target)
		if err != nil {
			return "", err
		}
		patch, err := toPatch(a.Props, target.Meta)
		if err != nil {
			return "", err
		}
		h.UpdateEntity(target.ID, patch, true)
		return target.ID, nil

	case OpDelete:
		target, err := resolve(store, a.Target)
		if err != nil {
			return "", err
		}
		h.RemoveEntity(target.ID, true)
		return target.ID, nil

	case OpConnect:
		from, err := resolve(store, a.Target)
		if err != nil {
			return "", err
		}
		to, err := resolve(store, a.TargetB)
		if err != nil {
			return "", err
		}
		meta := from.Meta.Clone()
		if meta.Props == nil {
			meta.Props = make(map[string]string)
		}
		meta.Props["connectedTo"] = to.ID
		h.UpdateEntity(from.ID, models.ElementPatch{Meta: &meta}, true)
		return from.ID, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCommand, a.Op)
}

// Run parses and applies one line.
func Run(h *state.History, input string) (string, error) {
	a, err := Parse(input)
	if err != nil {
		return "", err
	}
	return Apply(h, a)
}

func resolve(v state.View, target string) (models.Element, error) {
	if el, ok := v.FindByIDOrName(target); ok {
		return el, nil
	}
	return models.Element{}, fmt.Errorf("%w: %s", ErrTargetNotFound, target)
}

func pick(props map[string]string, keys ...string) map[string]string {
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := props[k]; ok {
			out[k] = v
		}
	}
	return out
}
