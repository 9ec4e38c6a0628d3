package vxerrors

import "fmt"

// PrepareError kinds (SPEC_FULL.md §4.12).
const (
	KindNoExecutable     = "NoExecutable"
	KindProxyNotAvailable = "ProxyNotAvailable"
	KindEnvironmentInvalid = "EnvironmentInvalid"
	KindTemplateError    = "TemplateError"
	KindInstallPathMissing = "InstallPathMissing"
)

// PrepareError is raised by Pipeline.Prepare / the Environment Builder.
type PrepareError struct {
	Base
}

func newPrepare(kind, message, runtime string, cause error) *PrepareError {
	return &PrepareError{Base{Stage: StagePrepare, Kind: kind, Message: message, Runtime: runtime, Cause: cause}}
}

// NewNoExecutable reports that the runtime's declared executable cannot
// be found inside its StorePath after installation.
func NewNoExecutable(runtime, installPath string) *PrepareError {
	e := newPrepare(KindNoExecutable, fmt.Sprintf("no executable found for %q", runtime), runtime, nil)
	e.WithDetail("install_path", installPath)
	e.WithTry(fmt.Sprintf("vx install %s --cache-mode refresh", runtime))
	return e
}

// NewProxyNotAvailable reports that a bundled sub-runtime's parent is not installed.
func NewProxyNotAvailable(runtime, parent string) *PrepareError {
	e := newPrepare(KindProxyNotAvailable, fmt.Sprintf("%q is bundled with %q, which is not installed", runtime, parent), runtime, nil)
	e.WithDetail("bundled_with", parent)
	e.WithTry(fmt.Sprintf("vx install %s", parent))
	return e
}

// NewEnvironmentInvalid reports an environment-builder invariant violation.
func NewEnvironmentInvalid(runtime, reason string) *PrepareError {
	return newPrepare(KindEnvironmentInvalid, reason, runtime, nil)
}

// NewTemplateError reports a failed env/URL template expansion.
func NewTemplateError(runtime, template string, cause error) *PrepareError {
	e := newPrepare(KindTemplateError, fmt.Sprintf("failed to expand template for %q", runtime), runtime, cause)
	e.WithDetail("template", template)
	return e
}

// NewInstallPathMissing reports that the resolved StorePath does not exist on disk.
func NewInstallPathMissing(runtime, version, path string) *PrepareError {
	e := newPrepare(KindInstallPathMissing, fmt.Sprintf("install path missing for %s@%s", runtime, version), runtime, nil)
	e.Version = version
	e.WithDetail("path", path)
	e.WithTry(fmt.Sprintf("vx install %s@%s", runtime, version))
	return e
}
