//go:build ignore

// parity compares the scene levelport builds for a level with a reference
// scene dump (for example one captured from an editor session).
// Run with: go run tools/parity.go --root ./extracted --level village --ref village.scene.json
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/atlas-foundry/levelport/export"
	"github.com/atlas-foundry/levelport/scene"
)

func main() {
	root := flag.String("root", ".", "data root")
	level := flag.String("level", "", "level name")
	ref := flag.String("ref", "", "reference scene JSON")
	all := flag.Bool("all-layers", true, "descend into every top-level layer")
	places := flag.Int("places", 3, "decimal places compared for numbers")
	flag.Parse()
	if *level == "" || *ref == "" {
		fmt.Println("missing --level or --ref")
		os.Exit(1)
	}

	lvl, diag, err := scene.Build(scene.BuildOptions{
		FS:             os.DirFS(*root),
		Layout:         scene.DefaultLayout(*level),
		AllowAllLayers: *all,
	})
	if err != nil {
		panic(err)
	}
	if !diag.Empty() {
		fmt.Printf("build recorded %d warnings, %d errors, %d skipped layers\n",
			len(diag.Warnings), len(diag.Errors), len(diag.Skipped))
	}
	ctx := context.Background()
	s, err := export.Default.Convert(ctx, "level", "scene", lvl, nil)
	if err != nil {
		panic(err)
	}
	ours, err := export.Default.Convert(ctx, "scene", "scenejson", s, map[string]any{"pretty": false})
	if err != nil {
		panic(err)
	}
	var oursAny any
	if err := json.Unmarshal(ours.([]byte), &oursAny); err != nil {
		panic(err)
	}

	body, err := os.ReadFile(*ref)
	if err != nil {
		panic(err)
	}
	var refAny any
	if err := json.Unmarshal(body, &refAny); err != nil {
		panic(err)
	}

	scale := math.Pow(10, float64(*places))
	if diff := diffJSON(normalize(oursAny, scale), normalize(refAny, scale)); diff != "" {
		fmt.Println("DIFF:\n", diff)
		os.Exit(1)
	}
	fmt.Println("OK: scenes match after normalization")
}

// normalize recursively sorts slices, trims strings and rounds numbers so
// float noise and actor order do not count as differences.
func normalize(v any, scale float64) any {
	switch val := v.(type) {
	case nil:
		return nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, v2 := range val {
			out[k] = normalize(v2, scale)
		}
		return out
	case []any:
		out := make([]any, 0, len(val))
		for _, v2 := range val {
			out = append(out, normalize(v2, scale))
		}
		sort.Slice(out, func(i, j int) bool {
			ai, _ := json.Marshal(out[i])
			aj, _ := json.Marshal(out[j])
			return string(ai) < string(aj)
		})
		return out
	case string:
		return strings.TrimSpace(val)
	case float64:
		r := math.Round(val*scale) / scale
		if r == 0 {
			return 0.0
		}
		return r
	default:
		return val
	}
}

func diffJSON(a, b any) string {
	aj, _ := json.MarshalIndent(a, "", "  ")
	bj, _ := json.MarshalIndent(b, "", "  ")
	if bytes.Equal(aj, bj) {
		return ""
	}
	return fmt.Sprintf("levelport:\n%s\nreference:\n%s\n", aj, bj)
}
