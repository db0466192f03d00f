package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/atlas-foundry/levelport/resolve"
	"github.com/atlas-foundry/levelport/scene"
)

// Converter turns input of one format into another (level -> scene -> scenejson, dot, gltf).
type Converter interface {
	From() string
	To() string
	Convert(ctx context.Context, input any, opts map[string]any) (any, error)
}

// Registry is a threadsafe registry for converters.
type Registry struct {
	mu         sync.RWMutex
	converters map[string]Converter
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{converters: make(map[string]Converter)}
}

// ErrConverterExists indicates a duplicate registration attempt.
var ErrConverterExists = errors.New("converter already registered")

// Register adds a converter. Returns ErrConverterExists when a from->to pair already exists.
func (r *Registry) Register(conv Converter) error {
	if conv == nil {
		return errors.New("converter is nil")
	}
	key := converterKey(conv.From(), conv.To())
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.converters[key]; exists {
		return fmt.Errorf("%w: %s", ErrConverterExists, key)
	}
	r.converters[key] = conv
	return nil
}

// Descriptor captures a registered mapping.
type Descriptor struct {
	From string
	To   string
}

// List returns descriptors for registered converters.
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(r.converters))
	for _, c := range r.converters {
		out = append(out, Descriptor{From: strings.ToLower(c.From()), To: strings.ToLower(c.To())})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From == out[j].From {
			return out[i].To < out[j].To
		}
		return out[i].From < out[j].From
	})
	return out
}

// Convert dispatches to a registered converter.
func (r *Registry) Convert(ctx context.Context, from, to string, input any, opts map[string]any) (any, error) {
	key := converterKey(from, to)
	r.mu.RLock()
	conv, ok := r.converters[key]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no converter for %s", key)
	}
	return conv.Convert(ctx, input, opts)
}

// Default is pre-populated with the built-in converters.
var Default = NewDefaultRegistry()

// NewDefaultRegistry returns a fresh registry holding the built-in converters.
func NewDefaultRegistry() *Registry {
	reg := NewRegistry()
	registerDefaults(reg)
	return reg
}

func converterKey(from, to string) string {
	return strings.ToLower(from) + "->" + strings.ToLower(to)
}

type basicConverter struct {
	from, to string
	fn       func(ctx context.Context, input any, opts map[string]any) (any, error)
}

func (c basicConverter) From() string { return c.from }
func (c basicConverter) To() string   { return c.to }
func (c basicConverter) Convert(ctx context.Context, input any, opts map[string]any) (any, error) {
	return c.fn(ctx, input, opts)
}

func registerDefaults(reg *Registry) {
	// ignore duplicate errors to allow idempotent init in tests
	_ = reg.Register(basicConverter{
		from: "level",
		to:   "scene",
		fn: func(_ context.Context, input any, opts map[string]any) (any, error) {
			res, _ := opts["resolver"].(*resolve.Resolver)
			switch v := input.(type) {
			case *scene.Level:
				return FromLevel(v, res), nil
			case []*scene.Level:
				out := make([]Scene, 0, len(v))
				for _, l := range v {
					out = append(out, FromLevel(l, res))
				}
				return out, nil
			default:
				return nil, fmt.Errorf("level->scene converter expects *scene.Level or []*scene.Level, got %T", input)
			}
		},
	})
	_ = reg.Register(basicConverter{
		from: "scene",
		to:   "scenejson",
		fn: func(_ context.Context, input any, opts map[string]any) (any, error) {
			pretty := true
			if v, ok := opts["pretty"].(bool); ok {
				pretty = v
			}
			switch v := input.(type) {
			case Scene:
				return JSONRenderer{Pretty: pretty}.Render(v)
			case []Scene:
				if pretty {
					return json.MarshalIndent(v, "", "  ")
				}
				return json.Marshal(v)
			default:
				return nil, fmt.Errorf("scene->scenejson converter expects Scene or []Scene, got %T", input)
			}
		},
	})
	_ = reg.Register(basicConverter{
		from: "scenejson",
		to:   "scene",
		fn: func(_ context.Context, input any, _ map[string]any) (any, error) {
			switch v := input.(type) {
			case []byte:
				return decodeSceneJSON(v)
			case string:
				return decodeSceneJSON([]byte(v))
			default:
				return nil, fmt.Errorf("scenejson->scene converter expects []byte or string, got %T", input)
			}
		},
	})
	_ = reg.Register(basicConverter{
		from: "scene",
		to:   "dot",
		fn: func(_ context.Context, input any, opts map[string]any) (any, error) {
			actors, _ := opts["actors"].(bool)
			s, ok := input.(Scene)
			if !ok {
				return nil, fmt.Errorf("scene->dot converter expects Scene, got %T", input)
			}
			return GraphvizRenderer{Actors: actors}.Render(s)
		},
	})
	_ = reg.Register(basicConverter{
		from: "scene",
		to:   "gltf",
		fn: func(_ context.Context, input any, opts map[string]any) (any, error) {
			binary, _ := opts["binary"].(bool)
			s, ok := input.(Scene)
			if !ok {
				return nil, fmt.Errorf("scene->gltf converter expects Scene, got %T", input)
			}
			return GLTFRenderer{Binary: binary}.Render(s)
		},
	})
}

func decodeSceneJSON(body []byte) (any, error) {
	trim := strings.TrimSpace(string(body))
	if strings.HasPrefix(trim, "{") {
		var s Scene
		if err := json.Unmarshal(body, &s); err != nil {
			return nil, err
		}
		return s, nil
	}
	var scenes []Scene
	if err := json.Unmarshal(body, &scenes); err != nil {
		return nil, err
	}
	return scenes, nil
}
