// Package command implements the short text DSL used to edit layouts:
//
//	add <type> k=v...
//	move <target> x=<n> y=<n>
//	set <target> k=v...
//	delete <target>
//	connect <a> <b>
//
// Targets resolve by element id first, then by name.
package command

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/plc-visualizer/twin-editor/internal/models"
)

var (
	ErrEmpty           = errors.New("empty command")
	ErrUnknownCommand  = errors.New("unknown command")
	ErrMissingArgument = errors.New("missing argument")
	ErrTargetNotFound  = errors.New("target not found")
	ErrInvalidValue    = errors.New("invalid value")
)

// Op is a DSL verb.
type Op string

const (
	OpAdd     Op = "add"
	OpMove    Op = "move"
	OpSet     Op = "set"
	OpDelete  Op = "delete"
	OpConnect Op = "connect"
)

// Action is a parsed command.
type Action struct {
	Op      Op                `json:"op"`
	Type    models.DeviceType `json:"type,omitempty"`
	Target  string            `json:"target,omitempty"`
	TargetB string            `json:"targetB,omitempty"`
	// Props holds the k=v pairs with lower-cased keys.
	Props map[string]string `json:"props,omitempty"`
}

var typeAliases = map[string]models.DeviceType{
	"agv":            models.DeviceTypeAGV,
	"rgv":            models.DeviceTypeRGV,
	"productionline": models.DeviceTypeProductionLine,
	"line":           models.DeviceTypeProductionLine,
	"stackercrane":   models.DeviceTypeStackerCrane,
	"crane":          models.DeviceTypeStackerCrane,
	"flatwarehouse":  models.DeviceTypeFlatWarehouse,
	"warehouse":      models.DeviceTypeFlatWarehouse,
}

// ResolveType maps an alias to a device type. Unknown tokens pass through.
func ResolveType(token string) models.DeviceType {
	if t, ok := typeAliases[strings.ToLower(token)]; ok {
		return t
	}
	return models.DeviceType(token)
}

var kvPattern = regexp.MustCompile(`(\w+)=(\S+)`)

func parseKV(tokens []string) map[string]string {
	props := make(map[string]string)
	for _, m := range kvPattern.FindAllStringSubmatch(strings.Join(tokens, " "), -1) {
		props[strings.ToLower(m[1])] = m[2]
	}
	return props
}

// Parse reads one command line.
func Parse(input string) (Action, error) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return Action{}, ErrEmpty
	}
	op := Op(strings.ToLower(fields[0]))
	args := fields[1:]

	switch op {
	case OpAdd:
		if len(args) == 0 {
			return Action{}, fmt.Errorf("%w: add needs a device type", ErrMissingArgument)
		}
		return Action{Op: op, Type: ResolveType(args[0]), Props: parseKV(args[1:])}, nil
	case OpMove, OpSet, OpDelete:
		if len(args) == 0 {
			return Action{}, fmt.Errorf("%w: %s needs a target", ErrMissingArgument, op)
		}
		return Action{Op: op, Target: args[0], Props: parseKV(args[1:])}, nil
	case OpConnect:
		if len(args) < 2 {
			return Action{}, fmt.Errorf("%w: connect needs two targets", ErrMissingArgument)
		}
		return Action{Op: op, Target: args[0], TargetB: args[1]}, nil
	default:
		return Action{}, fmt.Errorf("%w: %q", ErrUnknownCommand, fields[0])
	}
}
