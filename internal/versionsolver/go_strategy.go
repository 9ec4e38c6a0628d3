package versionsolver

import (
	"fmt"
	"strings"

	xsemver "golang.org/x/mod/semver"
)

// goStrategy implements spec.md §4's "Go-style `go1.22.5`" version
// semantics via golang.org/x/mod/semver, which natively compares Go
// module versions of the form "vX.Y.Z". Go toolchain versions are
// normalized into that shape ("go1.22.5" -> "v1.22.5", "1.22" -> "v1.22.0")
// before delegating.
type goStrategy struct{}

func init() {
	register("go", goStrategy{})
}

func (goStrategy) Name() string { return "go" }

// normalizeGoVersion turns "go1.22.5" or "1.22.5" or "1.22" into the
// "vX.Y[.Z]" shape golang.org/x/mod/semver expects.
func normalizeGoVersion(v string) string {
	v = strings.TrimPrefix(v, "go")
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if strings.Count(v, ".") == 1 {
		v += ".0"
	}
	return v
}

func (g goStrategy) Compare(a, b string) (int, error) {
	na, nb := normalizeGoVersion(a), normalizeGoVersion(b)
	if !xsemver.IsValid(na) {
		return 0, fmt.Errorf("go: invalid version %q", a)
	}
	if !xsemver.IsValid(nb) {
		return 0, fmt.Errorf("go: invalid version %q", b)
	}
	return xsemver.Compare(na, nb), nil
}

func (g goStrategy) Satisfies(version string, req Request) (bool, error) {
	nv := normalizeGoVersion(version)
	if !xsemver.IsValid(nv) {
		return false, fmt.Errorf("go: invalid version %q", version)
	}

	switch req.Kind {
	case Latest, LatestPrerelease:
		return true, nil
	case Exact:
		return xsemver.Compare(nv, normalizeGoVersion(req.Parts[0])) == 0, nil
	case Partial, Wildcard:
		prefix := "v" + strings.Join(req.Parts, ".")
		return nv == prefix || strings.HasPrefix(nv, prefix+"."), nil
	case Caret, Tilde:
		base := normalizeGoVersion(req.Parts[0])
		if xsemver.Major(nv) != xsemver.Major(base) {
			return false, nil
		}
		return xsemver.Compare(nv, base) >= 0, nil
	case Range:
		return satisfiesRangeClauses(req.Parts, func(op, val string) (bool, error) {
			nval := normalizeGoVersion(val)
			cmp := xsemver.Compare(nv, nval)
			return evalOp(op, cmp), nil
		})
	default:
		return false, fmt.Errorf("go: unsupported request kind %s", req.Kind)
	}
}

func (g goStrategy) IsPrerelease(version string) bool {
	return xsemver.Prerelease(normalizeGoVersion(version)) != ""
}
