package export

import (
	"bytes"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"

	"github.com/atlas-foundry/levelport/convert"
)

var identityMatrix = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

// GLTFRenderer emits the scene as an empty-mesh glTF node hierarchy for
// previewing layouts in any glTF viewer. Transforms are taken back to
// source meters and rotated from Z up to glTF's Y up; actor assets are kept
// in node extras.
type GLTFRenderer struct {
	// Binary selects GLB output.
	Binary bool
}

// Document builds the glTF document without encoding it.
func (r GLTFRenderer) Document(s Scene) *gltf.Document {
	doc := &gltf.Document{
		Asset: gltf.Asset{Version: "2.0", Generator: "levelport"},
	}
	root := &gltf.Scene{Name: s.Level}
	layerIndex := map[string]int{}

	for _, l := range s.Layers {
		idx := len(doc.Nodes)
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name:     l.Name,
			Matrix:   identityMatrix,
			Rotation: [4]float64{0, 0, 0, 1},
			Scale:    [3]float64{1, 1, 1},
			Extras:   map[string]any{"layer": l.ID},
		})
		layerIndex[l.ID] = idx
		if parent, ok := layerIndex[l.Parent]; ok && l.Parent != "" {
			doc.Nodes[parent].Children = append(doc.Nodes[parent].Children, idx)
		} else {
			root.Nodes = append(root.Nodes, idx)
		}
	}
	for _, a := range s.Actors {
		idx := len(doc.Nodes)
		t, q, sc := yUp(a.Transform)
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name:        a.Name,
			Matrix:      identityMatrix,
			Translation: t,
			Rotation:    q,
			Scale:       sc,
			Extras:      map[string]any{"kind": string(a.Kind), "asset": a.Asset, "source": a.Source},
		})
		if parent, ok := layerIndex[a.Layer]; ok {
			doc.Nodes[parent].Children = append(doc.Nodes[parent].Children, idx)
		} else {
			root.Nodes = append(root.Nodes, idx)
		}
	}

	doc.Scenes = []*gltf.Scene{root}
	zero := 0
	doc.Scene = &zero
	return doc
}

// Render encodes the document as glTF JSON or GLB.
func (r GLTFRenderer) Render(s Scene) ([]byte, error) {
	var buf bytes.Buffer
	enc := gltf.NewEncoder(&buf)
	enc.AsBinary = r.Binary
	if err := enc.Encode(r.Document(s)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// yUp maps a target transform to glTF translation, [x,y,z,w] rotation and scale.
func yUp(t convert.Transform) ([3]float64, [4]float64, [3]float64) {
	p := convert.SourcePosition(t.Location)
	q := convert.SourceQuat(t.Rotation).Normalize()
	// Z up to Y up: (x, y, z) -> (x, z, -y).
	swap := func(v mgl64.Vec3) mgl64.Vec3 { return mgl64.Vec3{v[0], v[2], -v[1]} }
	tp := swap(p)
	qv := swap(q.V)
	return [3]float64{tp[0], tp[1], tp[2]},
		[4]float64{qv[0], qv[1], qv[2], q.W},
		[3]float64{t.Scale[0], t.Scale[2], t.Scale[1]}
}
