package vxerrors

import "fmt"

// ResolveError kinds (SPEC_FULL.md §4.12).
const (
	KindRuntimeNotFound         = "RuntimeNotFound"
	KindVersionNotFound         = "VersionNotFound"
	KindDependencyCycle         = "DependencyCycle"
	KindPlatformNotSupported    = "PlatformNotSupported"
	KindUnsatisfiableConstraint = "UnsatisfiableConstraint"
	KindCacheMiss               = "CacheMiss"
	KindManifestInvalid         = "ManifestInvalid"
)

// ResolveError is raised by Pipeline.Resolve.
type ResolveError struct {
	Base
}

func newResolve(kind, message, runtime string) *ResolveError {
	return &ResolveError{Base{Stage: StageResolve, Kind: kind, Message: message, Runtime: runtime}}
}

// NewRuntimeNotFound reports that name resolves to no known RuntimeSpec.
func NewRuntimeNotFound(name string) *ResolveError {
	e := newResolve(KindRuntimeNotFound, fmt.Sprintf("unknown runtime %q", name), name)
	e.WithTry("vx providers sync")
	return e
}

// NewVersionNotFound reports that no candidate version satisfied the
// request, attaching the near-miss candidates considered.
func NewVersionNotFound(runtime, request string, nearMisses []string) *ResolveError {
	e := newResolve(KindVersionNotFound, fmt.Sprintf("no version of %q satisfies %q", runtime, request), runtime)
	e.WithDetail("request", request)
	e.WithDetail("near_misses", nearMisses)
	e.WithTry(fmt.Sprintf("vx versions %s", runtime))
	return e
}

// NewDependencyCycle reports a cycle among runtimes.
func NewDependencyCycle(cycle []string) *ResolveError {
	e := newResolve(KindDependencyCycle, "circular dependency detected among runtimes", "")
	e.WithDetail("cycle", cycle)
	return e
}

// NewPlatformNotSupported reports that runtime has no support for the
// current platform.
func NewPlatformNotSupported(runtime, platform string) *ResolveError {
	e := newResolve(KindPlatformNotSupported, fmt.Sprintf("%q is not supported on %s", runtime, platform), runtime)
	e.WithDetail("platform", platform)
	return e
}

// UnsatisfiableConstraintLink is one edge in the conflict chain reported
// by NewUnsatisfiableConstraint: a source (the requiring tool), the
// constraint it imposes, and the runtime the constraint targets.
type UnsatisfiableConstraintLink struct {
	Source     string `json:"source"`
	Constraint string `json:"constraint"`
	Runtime    string `json:"runtime"`
}

// NewUnsatisfiableConstraint reports that two or more sources imply
// constraints on runtime that no version satisfies jointly.
func NewUnsatisfiableConstraint(runtime string, chain []UnsatisfiableConstraintLink, suggestions []string) *ResolveError {
	e := newResolve(KindUnsatisfiableConstraint, fmt.Sprintf("conflicting constraints on %q", runtime), runtime)
	e.WithDetail("chain", chain)
	for _, s := range suggestions {
		e.WithTry(s)
	}
	return e
}

// NewResolveCacheMiss reports that CacheMode=Offline hit an empty cache.
func NewResolveCacheMiss(runtime string) *ResolveError {
	e := newResolve(KindCacheMiss, fmt.Sprintf("no cached versions for %q and cache mode is offline", runtime), runtime)
	e.WithTry(fmt.Sprintf("vx versions %s --cache-mode refresh", runtime))
	return e
}

// NewManifestInvalid reports a provider manifest that failed validation.
func NewManifestInvalid(path, reason string, cause error) *ResolveError {
	e := &ResolveError{Base{Stage: StageResolve, Kind: KindManifestInvalid, Message: reason, Cause: cause}}
	e.WithDetail("path", path)
	return e
}
