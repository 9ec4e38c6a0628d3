package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/terassyi/vx/internal/cachemode"
	"github.com/terassyi/vx/internal/console"
	"github.com/terassyi/vx/internal/coordinator"
	"github.com/terassyi/vx/internal/github"
	"github.com/terassyi/vx/internal/installer"
	"github.com/terassyi/vx/internal/layout"
	"github.com/terassyi/vx/internal/lockfile"
	"github.com/terassyi/vx/internal/manifest"
	"github.com/terassyi/vx/internal/pipeline"
	"github.com/terassyi/vx/internal/platform"
	"github.com/terassyi/vx/internal/projectfile"
	"github.com/terassyi/vx/internal/resolutioncache"
	"github.com/terassyi/vx/internal/runtimemap"
	"github.com/terassyi/vx/internal/schema"
	"github.com/terassyi/vx/internal/versioncache"
	"github.com/terassyi/vx/internal/versionsolver"
	"github.com/terassyi/vx/internal/versionsource"
)

// vxVersion is overridden at link time via -ldflags "-X main.vxVersion=...",
// the same convention the teacher's own version.go command used.
var vxVersion = "dev"

// globalFlags holds the persistent flags every vx command shares
// (spec.md §6.1's global output/cache-mode options).
type globalFlags struct {
	cacheMode string
	verbose   bool
	quiet     bool
	jsonOut   bool
	format    string
	noColor   bool
}

func (g *globalFlags) resolveFormat() console.Format {
	if g.jsonOut || g.format == "json" {
		return console.FormatJSON
	}
	return console.FormatText
}

// app bundles every constructed component a command needs, built once
// per invocation by the buildApp call at the start of each command.
type app struct {
	layout      *layout.Layout
	store       *manifest.Store
	runtimeMap  *runtimemap.Map
	versionC    *versioncache.Cache
	resolutionC *resolutioncache.Cache
	lockFile    *lockfile.LockFile
	lockPath    string
	installer   *installer.Installer
	coordinator *coordinator.Coordinator
	pipeline    *pipeline.Pipeline
	console     *console.Console
	cacheMode   cachemode.Mode
	projectPath string
	config      pipeline.Configuration
}

// buildApp wires every composition-root component together in
// dependency order: Manifest Store -> Runtime Map -> Version/Resolution
// Caches -> Lock File -> Installer -> Coordinator -> Pipeline.
func buildApp(gf *globalFlags) (*app, error) {
	cm, err := cachemode.Parse(gf.cacheMode)
	if err != nil {
		return nil, fmt.Errorf("--cache-mode: %w", err)
	}

	l, err := layout.New()
	if err != nil {
		return nil, fmt.Errorf("resolving layout: %w", err)
	}

	schemaValidator, err := schema.New()
	if err != nil {
		return nil, fmt.Errorf("loading manifest schema: %w", err)
	}

	userLocalDir := filepath.Join(l.StoreDir(), "..", "manifests")
	loader := manifest.NewLoader(l, schemaValidator)
	store, diags := loader.LoadAll(userLocalDir)
	for _, w := range diags.Warnings {
		fmt.Fprintf(os.Stderr, "vx: warning: %s: %s\n", w.Path, w.Message)
	}

	rm, err := runtimemap.New(store)
	if err != nil {
		return nil, fmt.Errorf("building runtime map: %w", err)
	}

	vc := versioncache.New(l)
	rc := resolutioncache.New(l)

	lockPath := filepath.Join(".", "vx.lock")
	lf, err := lockfile.Load(lockPath)
	if err != nil {
		return nil, fmt.Errorf("loading lock file: %w", err)
	}

	inst := installer.New(l)
	co := coordinator.New(l, inst)

	httpClient := github.NewHTTPClient(github.TokenFromEnv())
	fetch := func(rt *manifest.Runtime) ([]versionsolver.Candidate, error) {
		return versionsource.Fetch(context.Background(), rt, httpClient)
	}

	p := pipeline.New(store, rm, l, vc, rc, lf, co, fetch, vxVersion)

	projectPath, err := projectfile.Find(".")
	if err != nil {
		return nil, fmt.Errorf("locating %s: %w", projectfile.FileName, err)
	}
	cfg, err := projectfile.Load(projectPath)
	if err != nil {
		return nil, err
	}

	con := console.New(os.Stdout, os.Stderr, console.Options{
		Format:  gf.resolveFormat(),
		Verbose: gf.verbose,
		Quiet:   gf.quiet,
		NoColor: gf.noColor,
	})

	return &app{
		layout:      l,
		store:       store,
		runtimeMap:  rm,
		versionC:    vc,
		resolutionC: rc,
		lockFile:    lf,
		lockPath:    lockPath,
		installer:   inst,
		coordinator: co,
		pipeline:    p,
		console:     con,
		cacheMode:   cm,
		projectPath: projectPath,
		config:      cfg,
	}, nil
}

func (a *app) platform() platform.Platform { return platform.Current() }

func (a *app) installerFor() *installer.Installer { return a.installer }

func (a *app) saveLockFile() error {
	return lockfile.Save(a.lockPath, a.lockFile)
}
