package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Renderer renders a Scene to a target representation.
type Renderer interface {
	Render(Scene) ([]byte, error)
}

// JSONRenderer emits the Scene as JSON.
type JSONRenderer struct {
	Pretty bool
}

// Render marshals the Scene.
func (r JSONRenderer) Render(s Scene) ([]byte, error) {
	if r.Pretty {
		return json.MarshalIndent(s, "", "  ")
	}
	return json.Marshal(s)
}

// GraphvizRenderer emits the layer tree as DOT. Layers are boxes; actors
// are ellipses, or diamonds for prefab instances. Prefab instances also get
// a dashed edge to the prefab package they instantiate.
type GraphvizRenderer struct {
	// Actors includes actor nodes; layers only when false.
	Actors bool
}

// Render converts the scene into DOT. Nodes and edges are sorted.
func (r GraphvizRenderer) Render(s Scene) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("digraph level {\n")
	if s.Level != "" {
		fmt.Fprintf(&buf, "  label=%q;\n", s.Level)
	}

	type edge struct{ from, to, style string }
	var nodes []string
	var edges []edge
	attrs := map[string]string{}

	for _, l := range s.Layers {
		nodes = append(nodes, l.ID)
		attrs[l.ID] = buildDOTAttrs(map[string]string{"label": l.Name, "shape": "box"})
		if l.Parent != "" {
			edges = append(edges, edge{from: l.Parent, to: l.ID})
		}
	}
	if r.Actors {
		prefabs := map[string]bool{}
		for _, a := range s.Actors {
			nodes = append(nodes, a.ID)
			shape := "ellipse"
			if a.Kind == ActorPrefab {
				shape = "diamond"
			}
			style := ""
			if a.Placeholder {
				style = "dotted"
			}
			attrs[a.ID] = buildDOTAttrs(map[string]string{"label": a.Name, "shape": shape, "style": style, "tooltip": a.Asset})
			edges = append(edges, edge{from: a.Layer, to: a.ID})
			if a.Kind == ActorPrefab {
				if !prefabs[a.Asset] {
					prefabs[a.Asset] = true
					nodes = append(nodes, a.Asset)
					attrs[a.Asset] = buildDOTAttrs(map[string]string{"label": a.Source, "shape": "component"})
				}
				edges = append(edges, edge{from: a.ID, to: a.Asset, style: "dashed"})
			}
		}
	}

	sort.Strings(nodes)
	for _, n := range nodes {
		fmt.Fprintf(&buf, "  %q%s;\n", n, attrs[n])
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].from != edges[j].from {
			return edges[i].from < edges[j].from
		}
		return edges[i].to < edges[j].to
	})
	for _, e := range edges {
		fmt.Fprintf(&buf, "  %q -> %q%s;\n", e.from, e.to, buildDOTAttrs(map[string]string{"style": e.style}))
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

func buildDOTAttrs(m map[string]string) string {
	var parts []string
	for k, v := range m {
		if strings.TrimSpace(v) == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%q", k, v))
	}
	if len(parts) == 0 {
		return ""
	}
	sort.Strings(parts)
	return " [" + strings.Join(parts, ",") + "]"
}
