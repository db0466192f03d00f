package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/atlas-foundry/levelport/config"
	"github.com/atlas-foundry/levelport/export"
	"github.com/atlas-foundry/levelport/report"
	"github.com/atlas-foundry/levelport/scene"
)

// job builds every configured level and writes the requested outputs.
type job struct {
	cfg  config.Config
	fsys fs.FS
	log  *slog.Logger
}

var outputExt = map[string]string{
	config.OutputSceneJSON: ".scene.json",
	config.OutputDOT:       ".dot",
	config.OutputGLTF:      ".gltf",
	config.OutputGLB:       ".glb",
	config.OutputMarkdown:  ".md",
	config.OutputOrg:       ".org",
	config.OutputHTML:      ".html",
}

func (j *job) run(ctx context.Context) error {
	results, err := scene.BuildMany(ctx, j.cfg.BuildOptions(j.fsys, j.log), j.cfg.Parallel)
	if err != nil {
		return err
	}
	failed := 0
	for i, r := range results {
		name := j.cfg.Levels[i]
		if r.Err != nil {
			j.log.Error("build failed", "level", name, "err", r.Err)
			failed++
			continue
		}
		if err := j.write(ctx, name, r); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		c := r.Level.Count()
		j.log.Info("level built", "level", name,
			"layers", c.Layers, "meshes", c.Meshes, "prefabs", c.Prefabs,
			"warnings", len(r.Diagnostics.Warnings), "errors", len(r.Diagnostics.Errors))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d levels failed", failed, len(results))
	}
	return nil
}

func (j *job) write(ctx context.Context, name string, r scene.Result) error {
	dir := filepath.Join(j.cfg.Output.Dir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	s, err := export.Default.Convert(ctx, "level", "scene", r.Level, map[string]any{"resolver": j.cfg.Resolver()})
	if err != nil {
		return err
	}
	for _, format := range j.cfg.Output.Formats {
		body, err := j.render(ctx, format, s, r)
		if err != nil {
			return fmt.Errorf("%s: %w", format, err)
		}
		out := filepath.Join(dir, name+outputExt[format])
		if err := os.WriteFile(out, body, 0o644); err != nil {
			return err
		}
		j.log.Debug("wrote output", "level", name, "format", format, "path", out)
	}
	return nil
}

func (j *job) render(ctx context.Context, format string, s any, r scene.Result) ([]byte, error) {
	var (
		out any
		err error
	)
	switch format {
	case config.OutputSceneJSON:
		out, err = export.Default.Convert(ctx, "scene", "scenejson", s, nil)
	case config.OutputDOT:
		out, err = export.Default.Convert(ctx, "scene", "dot", s, map[string]any{"actors": j.cfg.Output.DOTActors})
	case config.OutputGLTF, config.OutputGLB:
		out, err = export.Default.Convert(ctx, "scene", "gltf", s, map[string]any{"binary": format == config.OutputGLB})
	case config.OutputMarkdown, config.OutputOrg, config.OutputHTML:
		text, rerr := report.Render(r.Level, r.Diagnostics, report.Format(format))
		return []byte(text), rerr
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
	if err != nil {
		return nil, err
	}
	body, ok := out.([]byte)
	if !ok {
		return nil, fmt.Errorf("converter returned %T", out)
	}
	return body, nil
}
