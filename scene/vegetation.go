package scene

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// VegetationInstance is one placement of a vegetation object.
type VegetationInstance struct {
	Position   mgl64.Vec3
	Scale      float64
	Angle      float64 // degrees about the vertical axis
	Brightness int
}

// VegetationObject is one painted mesh and all of its placements.
type VegetationObject struct {
	Object    string // mesh path
	Category  string
	ID        int
	GUID      string
	Size      float64
	SizeVar   float64
	Density   float64
	Instances []VegetationInstance
}

// VegetationCategory groups objects painted with the same brush category.
type VegetationCategory struct {
	Name    string
	Objects []VegetationObject
}

// VegetationSet is a parsed vegetation file. Categories keep first-seen order.
type VegetationSet struct {
	Categories []VegetationCategory
}

// Category returns the named category or nil.
func (s *VegetationSet) Category(name string) *VegetationCategory {
	for i := range s.Categories {
		if s.Categories[i].Name == name {
			return &s.Categories[i]
		}
	}
	return nil
}

// MeshPaths lists the distinct object paths in file order.
func (s *VegetationSet) MeshPaths() []string {
	seen := map[string]bool{}
	var out []string
	for _, c := range s.Categories {
		for _, o := range c.Objects {
			if o.Object != "" && !seen[o.Object] {
				seen[o.Object] = true
				out = append(out, o.Object)
			}
		}
	}
	return out
}

// InstanceCount totals the placements across all categories.
func (s *VegetationSet) InstanceCount() int {
	n := 0
	for _, c := range s.Categories {
		for _, o := range c.Objects {
			n += len(o.Instances)
		}
	}
	return n
}

// ParseVegetation decodes a vegetation file. Only a malformed document is an
// error; bad numbers fall back to their defaults with a warning.
func ParseVegetation(r io.Reader, file string) (*VegetationSet, []Warning, error) {
	root, err := decodeTree(r, file)
	if err != nil {
		return nil, nil, err
	}
	p := fieldParser{file: file}
	set := &VegetationSet{}
	index := map[string]int{}
	for _, node := range root.childrenNamed("VegetationObject") {
		obj := VegetationObject{
			Object:   GetString(node.Attrs, "Object", ""),
			Category: GetString(node.Attrs, "Category", ""),
			ID:       p.getInt(node.Attrs, "Id", 0),
			GUID:     GetString(node.Attrs, "GUID", ""),
			Size:     p.getFloat(node.Attrs, "Size", 1.0),
			SizeVar:  p.getFloat(node.Attrs, "SizeVar", 0.25),
			Density:  p.getFloat(node.Attrs, "Density", 10),
		}
		if instances := node.child("Instances"); instances != nil {
			for _, in := range instances.childrenNamed("Instance") {
				obj.Instances = append(obj.Instances, VegetationInstance{
					Position:   p.getVec3(in.Attrs, "Pos", mgl64.Vec3{}),
					Scale:      p.getFloat(in.Attrs, "Scale", 1.0),
					Angle:      p.getFloat(in.Attrs, "Angle", 0),
					Brightness: p.getInt(in.Attrs, "Brightness", 76),
				})
			}
		}
		i, ok := index[obj.Category]
		if !ok {
			i = len(set.Categories)
			index[obj.Category] = i
			set.Categories = append(set.Categories, VegetationCategory{Name: obj.Category})
		}
		set.Categories[i].Objects = append(set.Categories[i].Objects, obj)
	}
	return set, p.warnings, nil
}

// fieldParser applies the attribute defaults and remembers what it substituted.
type fieldParser struct {
	file     string
	warnings []Warning
}

func (p *fieldParser) note(field, value string, err error) {
	p.warnings = append(p.warnings, Warning{
		Kind:    WarnMalformedField,
		File:    p.file,
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("malformed %s, using default: %v", field, err),
	})
}

func (p *fieldParser) getFloat(a Attrs, key string, def float64) float64 {
	v, ok := a[key]
	if !ok {
		return def
	}
	f, err := ParseFloat(v)
	if err != nil {
		p.note(key, v, err)
		return def
	}
	return f
}

func (p *fieldParser) getInt(a Attrs, key string, def int) int {
	v, ok := a[key]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		p.note(key, v, err)
		return def
	}
	return n
}

func (p *fieldParser) getVec3(a Attrs, key string, def mgl64.Vec3) mgl64.Vec3 {
	v, ok := a[key]
	if !ok {
		return def
	}
	out, err := ParseVec3(v)
	if err != nil {
		p.note(key, v, err)
		return def
	}
	return out
}
