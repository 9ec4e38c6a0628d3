// Package envbuilder composes the environment map handed to a spawned
// child process (SPEC_FULL.md §4.9, spec.md §4.9): a list of
// operations applied dependencies first and target last, with PATH
// assembled from six fixed-priority bands.
package envbuilder

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/terassyi/vx/internal/manifest"
	"github.com/terassyi/vx/internal/platform"
)

// OpKind names one of the five operation variants spec.md §4.9 defines.
type OpKind int

const (
	OpSet OpKind = iota
	OpPrepend
	OpAppend
	OpRemove
	OpDefault
)

// Op is one environment operation. Build applies ops in the reverse of
// the order envVarOps collects them; Priority is recorded on each op but
// is not used to sort them.
type Op struct {
	Var      string
	Value    string
	Priority int
	Kind     OpKind
}

// PATH priority bands (spec.md §4.9); higher wins.
const (
	PriorityProjectTools = 600
	PriorityRuntimeBin   = 500
	PriorityUserPrepend  = 400
	PrioritySystemPath   = 300
	PriorityUserAppend   = 200
	PriorityLegacyPaths  = 100
)

// RuntimeBinding is one resolved dependency contributing to the
// environment: its bin directory (and any extra directories it injects,
// e.g. a language's global package bin dir) plus its declared env.
type RuntimeBinding struct {
	Runtime    manifest.RuntimeEntry
	Version    string
	StorePath  string
	BinDirs    []string
	Executable string
}

// Request bundles everything the Builder needs to compose one child
// process's environment.
type Request struct {
	// Target is the runtime actually being invoked.
	Target RuntimeBinding
	// Dependencies are the target's transitive dependency closure, in
	// declaration order (PATH priority band 1: "project-specified
	// tools... in declaration order").
	Dependencies     []RuntimeBinding
	UserPrependPaths []string
	UserAppendPaths  []string
	LegacyPaths      []string
	SystemPath       []string
	// BaseEnv is the environment the child inherits before any operation
	// is applied (typically the parent process's os.Environ(), filtered).
	BaseEnv  map[string]string
	Platform platform.Platform
}

// Builder composes Environment maps. It is stateless per invocation.
type Builder struct{}

// New builds a Builder.
func New() *Builder { return &Builder{} }

// Build returns the final environment map for req.
func (b *Builder) Build(req Request) (map[string]string, error) {
	env := make(map[string]string, len(req.BaseEnv))
	for k, v := range req.BaseEnv {
		env[k] = v
	}

	sep := pathSeparator(req.Platform)
	env["PATH"] = buildPath(req, sep)

	ops, err := b.envVarOps(req)
	if err != nil {
		return nil, err
	}
	// Each runtime's own Set ops share one priority band, so application
	// order only matters between bindings sharing a var name; envVarOps
	// yields the target before its dependencies, and the target should
	// win such a collision, so apply in reverse (dependencies first,
	// target last).
	for i := len(ops) - 1; i >= 0; i-- {
		applyOp(env, ops[i], sep)
	}
	return env, nil
}

// buildPath assembles PATH directly from the six fixed-priority bands
// (spec.md §4.9), concatenating highest-priority band first and
// dropping duplicate directories after their first (highest-priority)
// occurrence.
func buildPath(req Request, sep string) string {
	var dirs []string
	for _, dep := range req.Dependencies {
		dirs = append(dirs, dep.BinDirs...)
	}
	dirs = append(dirs, req.Target.BinDirs...)
	dirs = append(dirs, req.UserPrependPaths...)
	dirs = append(dirs, req.SystemPath...)
	dirs = append(dirs, req.UserAppendPaths...)
	dirs = append(dirs, req.LegacyPaths...)
	return strings.Join(dedup(dirs), sep)
}

func dedup(ss []string) []string {
	seen := make(map[string]struct{}, len(ss))
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func applyOp(env map[string]string, op Op, sep string) {
	switch op.Kind {
	case OpSet:
		env[op.Var] = op.Value
	case OpDefault:
		if _, ok := env[op.Var]; !ok {
			env[op.Var] = op.Value
		}
	case OpPrepend:
		if cur, ok := env[op.Var]; ok && cur != "" {
			env[op.Var] = op.Value + sep + cur
		} else {
			env[op.Var] = op.Value
		}
	case OpAppend:
		if cur, ok := env[op.Var]; ok && cur != "" {
			env[op.Var] = cur + sep + op.Value
		} else {
			env[op.Var] = op.Value
		}
	case OpRemove:
		cur, ok := env[op.Var]
		if !ok {
			return
		}
		parts := strings.Split(cur, sep)
		kept := parts[:0]
		for _, p := range parts {
			if !strings.Contains(p, op.Value) {
				kept = append(kept, p)
			}
		}
		env[op.Var] = strings.Join(kept, sep)
	}
}

// envVarOps collects every non-PATH environment operation contributed
// by the target runtime and its dependencies (declared Env plus any
// matching version overlay).
func (b *Builder) envVarOps(req Request) ([]Op, error) {
	var ops []Op
	bindings := append([]RuntimeBinding{req.Target}, req.Dependencies...)
	for _, binding := range bindings {
		entryOps, err := b.bindingOps(binding, req.BaseEnv)
		if err != nil {
			return nil, fmt.Errorf("runtime %q: %w", binding.Runtime.Name, err)
		}
		ops = append(ops, entryOps...)
	}
	return ops, nil
}

func (b *Builder) bindingOps(binding RuntimeBinding, baseEnv map[string]string) ([]Op, error) {
	var ops []Op
	values := make(map[string]string, len(binding.Runtime.Env))
	for k, v := range binding.Runtime.Env {
		values[k] = v
	}
	for _, overlay := range binding.Runtime.EnvOverlays {
		applies, err := overlayApplies(overlay.When, binding.Version)
		if err != nil {
			return nil, err
		}
		if applies {
			for k, v := range overlay.Env {
				values[k] = v
			}
		}
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		expanded, err := expandTemplate(values[k], binding, baseEnv)
		if err != nil {
			return nil, err
		}
		ops = append(ops, Op{Var: k, Value: expanded, Priority: PriorityRuntimeBin, Kind: OpSet})
	}
	return ops, nil
}

// overlayApplies evaluates a Masterminds/semver constraint expression
// (e.g. ">= 18") against version.
func overlayApplies(when, version string) (bool, error) {
	if when == "" {
		return true, nil
	}
	c, err := semver.NewConstraint(when)
	if err != nil {
		return false, fmt.Errorf("invalid env overlay constraint %q: %w", when, err)
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return false, nil // non-semver version: overlay never applies
	}
	return c.Check(v), nil
}

var envRefPattern = regexp.MustCompile(`\{env:([^}]+)\}`)

// expandTemplate resolves {install_dir}, {version}, {executable},
// {PATH}, and {env:VAR} references in a manifest-supplied env value
// (spec.md §4.9).
func expandTemplate(value string, binding RuntimeBinding, baseEnv map[string]string) (string, error) {
	value = envRefPattern.ReplaceAllStringFunc(value, func(m string) string {
		name := envRefPattern.FindStringSubmatch(m)[1]
		return baseEnv[name]
	})

	r := strings.NewReplacer(
		"{install_dir}", binding.StorePath,
		"{version}", binding.Version,
		"{executable}", binding.Executable,
		"{PATH}", baseEnv["PATH"],
	)
	return r.Replace(value), nil
}

func pathSeparator(p platform.Platform) string {
	if p.OS == platform.Windows {
		return ";"
	}
	return ":"
}
