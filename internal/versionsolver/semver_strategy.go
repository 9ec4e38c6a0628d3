package versionsolver

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// semverStrategy is the default VersionStrategy, grounded on the
// teacher's internal/registry/aqua/version.go use of
// github.com/Masterminds/semver/v3 for its own version-override
// constraint matching ("semver(\"...\")").
type semverStrategy struct{}

func init() {
	register("semver", semverStrategy{})
	register("nodejs", semverStrategy{}) // node/npm both version under plain semver
}

func (semverStrategy) Name() string { return "semver" }

func parseSemver(v string) (*semver.Version, error) {
	return semver.NewVersion(strings.TrimPrefix(v, "v"))
}

func (s semverStrategy) Compare(a, b string) (int, error) {
	va, err := parseSemver(a)
	if err != nil {
		return 0, fmt.Errorf("semver: invalid version %q: %w", a, err)
	}
	vb, err := parseSemver(b)
	if err != nil {
		return 0, fmt.Errorf("semver: invalid version %q: %w", b, err)
	}
	return va.Compare(vb), nil
}

func (s semverStrategy) Satisfies(version string, req Request) (bool, error) {
	v, err := parseSemver(version)
	if err != nil {
		return false, fmt.Errorf("semver: invalid version %q: %w", version, err)
	}

	constraintStr, err := s.constraintString(req)
	if err != nil {
		return false, err
	}
	if constraintStr == "" {
		return true, nil
	}

	c, err := semver.NewConstraint(constraintStr)
	if err != nil {
		return false, fmt.Errorf("semver: invalid constraint %q: %w", constraintStr, err)
	}
	return c.Check(v), nil
}

func (s semverStrategy) constraintString(req Request) (string, error) {
	switch req.Kind {
	case Latest, LatestPrerelease:
		return "", nil
	case Exact:
		return req.Parts[0], nil
	case Caret:
		return "^" + req.Parts[0], nil
	case Tilde:
		return "~" + req.Parts[0], nil
	case Partial:
		return strings.Join(req.Parts, "."), nil
	case Wildcard:
		return strings.Join(req.Parts, ".") + ".x", nil
	case Range:
		return strings.Join(req.Parts, ", "), nil
	default:
		return "", fmt.Errorf("semver: unsupported request kind %s", req.Kind)
	}
}

func (semverStrategy) IsPrerelease(version string) bool {
	v, err := parseSemver(version)
	if err != nil {
		return false
	}
	return v.Prerelease() != ""
}
