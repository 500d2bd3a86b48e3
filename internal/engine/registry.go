package engine

import (
	"fmt"
	"slices"
)

// ComponentFactory creates a Component from scene file props.
type ComponentFactory func(props map[string]any) Component

// ComponentSerializer converts a Component back to props for saving.
// It returns nil for components it does not handle.
type ComponentSerializer func(c Component) map[string]any

type componentEntry struct {
	factory    ComponentFactory
	serializer ComponentSerializer
}

var componentRegistry = map[string]componentEntry{}

// RegisterComponent registers a named component kind for scene files.
func RegisterComponent(name string, factory ComponentFactory, serializer ComponentSerializer) {
	if _, exists := componentRegistry[name]; exists {
		panic(fmt.Sprintf("component %q already registered", name))
	}
	componentRegistry[name] = componentEntry{factory: factory, serializer: serializer}
}

// CreateComponent builds a registered component, or returns nil for unknown names.
func CreateComponent(name string, props map[string]any) Component {
	entry, ok := componentRegistry[name]
	if !ok {
		return nil
	}
	return entry.factory(props)
}

// SerializeComponent finds the registered kind of c and returns its props.
func SerializeComponent(c Component) (string, map[string]any, bool) {
	for _, name := range RegisteredComponents() {
		entry := componentRegistry[name]
		if entry.serializer == nil {
			continue
		}
		if props := entry.serializer(c); props != nil {
			return name, props, true
		}
	}
	return "", nil, false
}

// RegisteredComponents returns the registered names in sorted order.
func RegisteredComponents() []string {
	names := make([]string, 0, len(componentRegistry))
	for name := range componentRegistry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// PropFloat reads a numeric prop, accepting the integer and float types
// produced by the YAML decoder.
func PropFloat(props map[string]any, key string, def float32) float32 {
	switch v := props[key].(type) {
	case float64:
		return float32(v)
	case float32:
		return v
	case int:
		return float32(v)
	case int64:
		return float32(v)
	}
	return def
}

func PropBool(props map[string]any, key string, def bool) bool {
	if v, ok := props[key].(bool); ok {
		return v
	}
	return def
}

func PropString(props map[string]any, key string, def string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return def
}

// PropVector3 reads a three element list prop.
func PropVector3(props map[string]any, key string, def [3]float32) [3]float32 {
	var list []any
	switch v := props[key].(type) {
	case []any:
		list = v
	case []float32:
		for _, f := range v {
			list = append(list, f)
		}
	case []float64:
		for _, f := range v {
			list = append(list, f)
		}
	}
	if len(list) != 3 {
		return def
	}
	out := def
	for i, item := range list {
		out[i] = PropFloat(map[string]any{"v": item}, "v", def[i])
	}
	return out
}
