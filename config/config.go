// Package config loads levelport job files.
package config

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/atlas-foundry/levelport/resolve"
	"github.com/atlas-foundry/levelport/scene"
)

// Output formats a job can write per level.
const (
	OutputSceneJSON = "scenejson"
	OutputDOT       = "dot"
	OutputGLTF      = "gltf"
	OutputGLB       = "glb"
	OutputMarkdown  = "markdown"
	OutputOrg       = "org"
	OutputHTML      = "html"
)

var knownOutputs = map[string]bool{
	OutputSceneJSON: true, OutputDOT: true, OutputGLTF: true, OutputGLB: true,
	OutputMarkdown: true, OutputOrg: true, OutputHTML: true,
}

// Config is one import job.
type Config struct {
	// Root is the directory holding the extracted game data.
	Root   string       `yaml:"root"`
	Levels []string     `yaml:"levels"`
	Layout scene.Layout `yaml:"layout"`

	AllowLayers    []string `yaml:"allow_layers"`
	AllowAllLayers bool     `yaml:"allow_all_layers"`
	CheckMeshFiles bool     `yaml:"check_mesh_files"`

	Packages resolve.Resolver `yaml:"packages"`
	LogLevel string           `yaml:"log_level"`
	Output   Output           `yaml:"output"`
	// Parallel bounds concurrent level builds; 0 means unbounded.
	Parallel int `yaml:"parallel"`
}

// Output selects where and what a job writes.
type Output struct {
	Dir     string   `yaml:"dir"`
	Formats []string `yaml:"formats"`
	// DOTActors adds actor nodes to Graphviz output.
	DOTActors bool `yaml:"dot_actors"`
}

// Default returns a job that reads ./data/levels/<level> and writes scene
// JSON plus a Markdown report to ./out.
func Default() Config {
	return Config{
		Root:   ".",
		Layout: scene.DefaultLayout(""),
		Packages: resolve.Resolver{
			PackageRoot: resolve.DefaultPackageRoot,
			PrefabRoot:  resolve.DefaultPrefabRoot,
			Placeholder: resolve.DefaultPlaceholder,
		},
		LogLevel: "info",
		Output:   Output{Dir: "out", Formats: []string{OutputSceneJSON, OutputMarkdown}},
		Parallel: 4,
	}
}

// Load reads a YAML job file over Default. Unlike missing optional
// fields, a missing file is an error.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over Default and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks fields that cannot be defaulted.
func (c Config) Validate() error {
	if len(c.Levels) == 0 {
		return fmt.Errorf("no levels configured")
	}
	for _, l := range c.Levels {
		if strings.TrimSpace(l) == "" {
			return fmt.Errorf("empty level name")
		}
	}
	for _, f := range c.Output.Formats {
		if !knownOutputs[f] {
			return fmt.Errorf("unknown output format %q", f)
		}
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.Parallel < 0 {
		return fmt.Errorf("parallel must not be negative, got %d", c.Parallel)
	}
	return nil
}

// SlogLevel parses LogLevel ("debug", "info", "warn", "error").
func (c Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return lvl, nil
}

// Logger builds a text logger at the configured level.
func (c Config) Logger(w io.Writer) *slog.Logger {
	lvl, err := c.SlogLevel()
	if err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// FS opens Root as a filesystem.
func (c Config) FS() fs.FS {
	return os.DirFS(c.Root)
}

// BuildOptions returns one scene.BuildOptions per configured level.
func (c Config) BuildOptions(fsys fs.FS, logger *slog.Logger) []scene.BuildOptions {
	out := make([]scene.BuildOptions, 0, len(c.Levels))
	for _, name := range c.Levels {
		layout := c.Layout
		layout.LevelName = name
		var log *slog.Logger
		if logger != nil {
			log = logger.With("level", name)
		}
		out = append(out, scene.BuildOptions{
			FS:             fsys,
			Layout:         layout,
			AllowLayers:    c.AllowLayers,
			AllowAllLayers: c.AllowAllLayers,
			CheckMeshFiles: c.CheckMeshFiles,
			Logger:         log,
		})
	}
	return out
}

// Resolver returns the configured package resolver.
func (c Config) Resolver() *resolve.Resolver {
	r := c.Packages
	return &r
}

// Wants reports whether format is among the configured outputs.
func (c Config) Wants(format string) bool {
	for _, f := range c.Output.Formats {
		if f == format {
			return true
		}
	}
	return false
}
