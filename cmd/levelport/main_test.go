package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/atlas-foundry/levelport/config"
)

const testEditor = `<Level>
  <PrefabsLibrary>
    <LevelLibrary>
      <Prefab Name="crate" Library="props">
        <Objects><Object Type="Brush" Name="crate_mesh" Prefab="objects/props/crate.cgf"/></Objects>
      </Prefab>
    </LevelLibrary>
  </PrefabsLibrary>
  <Objects><ObjectLayers><RootLayer Name="Main" FullName="Main"/></ObjectLayers></Objects>
</Level>`

const testLayer = `<ObjectLayer><Layer Name="Main">
  <LayerObjects>
    <Object Type="Prefab" Name="crate_1" PrefabName="props.crate" Pos="1,2,3"/>
    <Object Type="GeomEntity" Name="rock" Geometry="objects/rock.cgf"/>
  </LayerObjects>
</Layer></ObjectLayer>`

func TestJobWritesOutputs(t *testing.T) {
	fsys := fstest.MapFS{
		"data/levels/demo/level.editor_xml": {Data: []byte(testEditor)},
		"data/levels/demo/layers/Main.lyr":  {Data: []byte(testLayer)},
	}
	cfg := config.Default()
	cfg.Levels = []string{"demo", "missing"}
	cfg.AllowLayers = []string{"Main"}
	cfg.Output.Dir = t.TempDir()
	cfg.Output.Formats = []string{config.OutputSceneJSON, config.OutputDOT, config.OutputGLTF, config.OutputMarkdown}

	j := &job{cfg: cfg, fsys: fsys, log: slog.New(slog.NewTextHandler(io.Discard, nil))}
	err := j.run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "1 of 2 levels failed") {
		t.Fatalf("expected the missing level to fail, got %v", err)
	}

	dir := filepath.Join(cfg.Output.Dir, "demo")
	for _, name := range []string{"demo.scene.json", "demo.dot", "demo.gltf", "demo.md"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("missing output %s: %v", name, err)
		}
	}
	body, err := os.ReadFile(filepath.Join(dir, "demo.scene.json"))
	if err != nil {
		t.Fatalf("read scene: %v", err)
	}
	var s struct {
		Level  string `json:"level"`
		Actors []struct {
			ID    string `json:"id"`
			Asset string `json:"asset"`
		} `json:"actors"`
	}
	if err := json.Unmarshal(body, &s); err != nil {
		t.Fatalf("decode scene: %v", err)
	}
	if s.Level != "demo" || len(s.Actors) != 2 {
		t.Fatalf("unexpected scene: %+v", s)
	}
	if s.Actors[0].Asset != "/Game/Old/prefabs/props/crate" || s.Actors[1].Asset != "/Game/Old/objects/rock" {
		t.Fatalf("unexpected assets: %+v", s.Actors)
	}
	md, _ := os.ReadFile(filepath.Join(dir, "demo.md"))
	if !strings.Contains(string(md), "# Level demo") {
		t.Fatalf("report missing heading:\n%s", md)
	}
	if _, err := os.Stat(filepath.Join(cfg.Output.Dir, "missing")); !os.IsNotExist(err) {
		t.Fatalf("failed level should write nothing, stat err %v", err)
	}
}

func TestCmdVeg(t *testing.T) {
	file := filepath.Join(t.TempDir(), "forest.veg")
	veg := `<Vegetation>
  <VegetationObject Object="objects/trees/pine.cgf" Category="Trees">
    <Instances><Instance Pos="1,2,3" Scale="1.5" Angle="90"/></Instances>
  </VegetationObject>
</Vegetation>`
	if err := os.WriteFile(file, []byte(veg), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	var out bytes.Buffer
	if err := cmdVeg([]string{"-file", file}, &out); err != nil {
		t.Fatalf("veg: %v", err)
	}
	var cats []vegCategoryOut
	if err := json.Unmarshal(out.Bytes(), &cats); err != nil {
		t.Fatalf("decode: %v\n%s", err, out.String())
	}
	if len(cats) != 1 || cats[0].Actor != "VegImport_Trees" {
		t.Fatalf("unexpected categories: %+v", cats)
	}
	obj := cats[0].Objects[0]
	if obj.Component != "pine" || obj.Mesh != "/Game/Old/objects/trees/pine" || len(obj.Instances) != 1 {
		t.Fatalf("unexpected object: %+v", obj)
	}
	if got := obj.Instances[0].Rotation.Yaw; got != -90 {
		t.Fatalf("yaw = %v, want -90", got)
	}
	if err := cmdVeg(nil, io.Discard); err == nil {
		t.Fatalf("expected error without -file")
	}
}
