package scene

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// Attrs is the attribute set of one element, keyed by local name.
type Attrs map[string]string

func attrsOf(in []xml.Attr) Attrs {
	if len(in) == 0 {
		return Attrs{}
	}
	out := make(Attrs, len(in))
	for _, a := range in {
		out[a.Name.Local] = a.Value
	}
	return out
}

// LookupString returns the raw attribute value and whether it was present.
func LookupString(a Attrs, key string) (string, bool) {
	v, ok := a[key]
	return v, ok
}

// GetString returns the attribute or def when absent.
func GetString(a Attrs, key, def string) string {
	if v, ok := a[key]; ok {
		return v
	}
	return def
}

// GetFloat returns the attribute parsed as a float, or def when absent or malformed.
func GetFloat(a Attrs, key string, def float64) float64 {
	v, ok := a[key]
	if !ok {
		return def
	}
	f, err := ParseFloat(v)
	if err != nil {
		return def
	}
	return f
}

// GetInt returns the attribute parsed as an int, or def when absent or malformed.
func GetInt(a Attrs, key string, def int) int {
	v, ok := a[key]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

// GetVec3 parses "x,y,z", falling back to def.
func GetVec3(a Attrs, key string, def mgl64.Vec3) mgl64.Vec3 {
	v, ok := a[key]
	if !ok {
		return def
	}
	out, err := ParseVec3(v)
	if err != nil {
		return def
	}
	return out
}

// GetQuat parses "w,x,y,z", falling back to def. The result is not normalized.
func GetQuat(a Attrs, key string, def mgl64.Quat) mgl64.Quat {
	v, ok := a[key]
	if !ok {
		return def
	}
	out, err := ParseQuat(v)
	if err != nil {
		return def
	}
	return out
}

// ParseFloat parses a single trimmed float token.
func ParseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// ParseVec3 parses exactly three comma separated floats.
func ParseVec3(s string) (mgl64.Vec3, error) {
	parts, err := parseFloats(s, 3)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	return mgl64.Vec3{parts[0], parts[1], parts[2]}, nil
}

// ParseQuat parses exactly four comma separated floats in w,x,y,z order.
func ParseQuat(s string) (mgl64.Quat, error) {
	parts, err := parseFloats(s, 4)
	if err != nil {
		return mgl64.Quat{}, err
	}
	return mgl64.Quat{W: parts[0], V: mgl64.Vec3{parts[1], parts[2], parts[3]}}, nil
}

func parseFloats(s string, n int) ([]float64, error) {
	tokens := strings.Split(s, ",")
	if len(tokens) != n {
		return nil, fmt.Errorf("expected %d components, got %d", n, len(tokens))
	}
	out := make([]float64, n)
	for i, tok := range tokens {
		f, err := ParseFloat(tok)
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
		out[i] = f
	}
	return out, nil
}
