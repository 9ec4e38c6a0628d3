package versionsolver

import (
	"strconv"
	"testing"

	"pgregory.net/rapid"
)

// TestSolveIsIdempotent checks the determinism half of spec.md §8
// property 1 over generated semver candidate lists and caret constraints:
// solving twice yields the same result.
func TestSolveIsIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		major := rapid.IntRange(1, 30).Draw(t, "major")
		minor := rapid.IntRange(0, 30).Draw(t, "minor")
		patch := rapid.IntRange(0, 30).Draw(t, "patch")

		n := rapid.IntRange(1, 6).Draw(t, "n")
		candidates := make([]Candidate, 0, n)
		for i := 0; i < n; i++ {
			dm := rapid.IntRange(-2, 2).Draw(t, "dm")
			candidates = append(candidates, Candidate{Version: semverString(major+dm, minor, patch)})
		}

		req := semverString(major, 0, 0)
		first, err1 := Solve("semver", "t", "^"+req, candidates, false)
		second, err2 := Solve("semver", "t", "^"+req, candidates, false)

		if (err1 == nil) != (err2 == nil) {
			t.Fatalf("non-deterministic error-ness: %v vs %v", err1, err2)
		}
		if err1 == nil && first.Version != second.Version {
			t.Fatalf("non-deterministic result: %q vs %q", first.Version, second.Version)
		}
	})
}

func semverString(major, minor, patch int) string {
	if major < 0 {
		major = 0
	}
	return strconv.Itoa(major) + "." + strconv.Itoa(minor) + "." + strconv.Itoa(patch)
}
