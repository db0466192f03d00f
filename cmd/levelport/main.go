// Command levelport converts editor level exports into target scene data.
//
// Usage:
//
//	levelport build -config job.yaml
//	levelport watch -config job.yaml
//	levelport veg -file level.veg
//	levelport mtl -file objects/rock.mtl -mesh rock
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/atlas-foundry/levelport/config"
	"github.com/atlas-foundry/levelport/convert"
	"github.com/atlas-foundry/levelport/resolve"
	"github.com/atlas-foundry/levelport/scene"
	"github.com/atlas-foundry/levelport/watch"
)

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch os.Args[1] {
	case "build":
		err = cmdBuild(ctx, os.Args[2:])
	case "watch":
		err = cmdWatch(ctx, os.Args[2:])
	case "veg":
		err = cmdVeg(os.Args[2:], os.Stdout)
	case "mtl":
		err = cmdMtl(os.Args[2:], os.Stdout)
	case "help", "-h", "--help":
		usage(os.Stdout)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		usage(os.Stderr)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "levelport:", err)
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: levelport <build|watch|veg|mtl> [flags]")
}

// jobFlags are shared by build and watch.
type jobFlags struct {
	config *string
	root   *string
	levels *string
}

func addJobFlags(fs *flag.FlagSet) jobFlags {
	return jobFlags{
		config: fs.String("config", "levelport.yaml", "job file"),
		root:   fs.String("root", "", "override the data root"),
		levels: fs.String("levels", "", "comma separated level names, overrides the job file"),
	}
}

func (f jobFlags) load() (*job, error) {
	cfg, err := config.Load(*f.config)
	if err != nil {
		return nil, err
	}
	if *f.root != "" {
		cfg.Root = *f.root
	}
	if *f.levels != "" {
		cfg.Levels = strings.Split(*f.levels, ",")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := cfg.Logger(os.Stderr)
	return &job{cfg: cfg, fsys: cfg.FS(), log: log}, nil
}

func cmdBuild(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	flags := addJobFlags(fs)
	_ = fs.Parse(args)
	j, err := flags.load()
	if err != nil {
		return err
	}
	return j.run(ctx)
}

func cmdWatch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	flags := addJobFlags(fs)
	debounce := fs.Duration("debounce", watch.DefaultDebounce, "ignore repeated events inside this window")
	settle := fs.Duration("settle", 300*time.Millisecond, "wait this long after the last change before rebuilding")
	_ = fs.Parse(args)
	j, err := flags.load()
	if err != nil {
		return err
	}
	if err := j.run(ctx); err != nil {
		j.log.Error("initial build", "err", err)
	}

	w, err := watch.NewWithDebounce(*debounce, j.cfg.Root)
	if err != nil {
		return err
	}
	defer w.Close()
	j.log.Info("watching", "root", j.cfg.Root)

	var timer <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			j.log.Debug("change", "path", ev.Path, "kind", string(ev.Kind))
			timer = time.After(*settle)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			j.log.Warn("watch error", "err", err)
		case <-timer:
			timer = nil
			if err := j.run(ctx); err != nil {
				j.log.Error("rebuild", "err", err)
			}
		}
	}
}

type vegObjectOut struct {
	Mesh      string              `json:"mesh"`
	Component string              `json:"component"`
	Instances []convert.Transform `json:"instances"`
}

type vegCategoryOut struct {
	Category string         `json:"category"`
	Actor    string         `json:"actor"`
	Objects  []vegObjectOut `json:"objects"`
}

func cmdVeg(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("veg", flag.ExitOnError)
	file := fs.String("file", "", "vegetation file")
	_ = fs.Parse(args)
	if *file == "" {
		return errors.New("veg: missing -file")
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	f, err := os.Open(*file)
	if err != nil {
		return err
	}
	defer f.Close()
	set, warnings, err := scene.ParseVegetation(f, filepath.ToSlash(*file))
	if err != nil {
		return err
	}
	for _, w := range warnings {
		log.Warn(w.Message, "kind", string(w.Kind), "field", w.Field, "value", w.Value)
	}

	res := resolve.New()
	var cats []vegCategoryOut
	for _, c := range set.Categories {
		co := vegCategoryOut{Category: c.Name, Actor: "VegImport_" + c.Name}
		for _, o := range c.Objects {
			pkg, _ := res.MeshPackage(o.Object)
			base := path.Base(filepath.ToSlash(o.Object))
			oo := vegObjectOut{Mesh: pkg, Component: strings.TrimSuffix(base, path.Ext(base))}
			for _, inst := range o.Instances {
				oo.Instances = append(oo.Instances, convert.Vegetation(inst))
			}
			co.Objects = append(co.Objects, oo)
		}
		cats = append(cats, co)
	}
	log.Info("vegetation parsed", "categories", len(cats), "instances", set.InstanceCount())
	return writeJSON(out, cats)
}

func cmdMtl(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("mtl", flag.ExitOnError)
	file := fs.String("file", "", "material file")
	mesh := fs.String("mesh", "", "mesh name used for instance names (defaults to the file name)")
	pkg := fs.String("package", "", "package path the instances are created in")
	_ = fs.Parse(args)
	if *file == "" {
		return errors.New("mtl: missing -file")
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	f, err := os.Open(*file)
	if err != nil {
		return err
	}
	defer f.Close()
	mats, err := scene.ParseMaterials(f, filepath.ToSlash(*file))
	if err != nil {
		return err
	}
	if *mesh == "" {
		base := filepath.Base(*file)
		*mesh = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if *pkg == "" {
		*pkg = resolve.DefaultPackageRoot
	}

	res := resolve.New()
	var plans []resolve.MaterialPlan
	for i := range mats {
		plan, err := res.PlanMaterial(&mats[i], *mesh, *pkg)
		if errors.Is(err, resolve.ErrUnsupportedShader) {
			log.Warn("skipping material", "material", mats[i].Name, "shader", mats[i].Shader)
			continue
		}
		if err != nil {
			return err
		}
		plans = append(plans, plan)
	}
	return writeJSON(out, plans)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
