package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestAttributeFallbacks(t *testing.T) {
	a := Attrs{
		"Pos":    "1.0, 2.0 ,3.0",
		"Bad":    "abc",
		"Short":  "1,2",
		"Rotate": "0.5,0.5,0.5,0.5",
		"Size":   "2.5",
		"Id":     "7",
		"Empty":  "",
	}
	def := mgl64.Vec3{9, 9, 9}

	if got := GetVec3(a, "Pos", def); got != (mgl64.Vec3{1, 2, 3}) {
		t.Fatalf("Pos = %v", got)
	}
	for _, key := range []string{"Bad", "Short", "Missing"} {
		if got := GetVec3(a, key, def); got != def {
			t.Fatalf("%s should fall back, got %v", key, got)
		}
	}
	if got := GetQuat(a, "Rotate", mgl64.QuatIdent()); got.W != 0.5 || got.V != (mgl64.Vec3{0.5, 0.5, 0.5}) {
		t.Fatalf("Rotate = %v", got)
	}
	if got := GetQuat(a, "Pos", mgl64.QuatIdent()); got != mgl64.QuatIdent() {
		t.Fatalf("three components are not a quaternion, got %v", got)
	}
	if got := GetFloat(a, "Size", 1); got != 2.5 {
		t.Fatalf("Size = %v", got)
	}
	if got := GetFloat(a, "Bad", 1); got != 1 {
		t.Fatalf("Bad float = %v", got)
	}
	if got := GetInt(a, "Id", 0); got != 7 {
		t.Fatalf("Id = %v", got)
	}
	if got := GetInt(a, "Size", 3); got != 3 {
		t.Fatalf("non-integer should fall back, got %v", got)
	}
	if got := GetString(a, "Missing", "x"); got != "x" {
		t.Fatalf("GetString default = %q", got)
	}
	if v, ok := LookupString(a, "Empty"); !ok || v != "" {
		t.Fatalf("empty attribute should be present")
	}
}

func TestParseQuatDoesNotNormalize(t *testing.T) {
	q, err := ParseQuat("2,0,0,0")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if q.W != 2 {
		t.Fatalf("quaternion was normalized: %v", q)
	}
	if _, err := ParseQuat("1,0,0,x"); err == nil {
		t.Fatalf("expected error for non-numeric component")
	}
}
