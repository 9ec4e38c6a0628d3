package versionsolver

import (
	"errors"
	"testing"

	"github.com/terassyi/vx/internal/vxerrors"
)

func TestSolvePicksHighestSatisfying(t *testing.T) {
	candidates := []Candidate{
		{Version: "18.20.0"},
		{Version: "20.18.0"},
		{Version: "22.0.0"},
	}
	got, err := Solve("nodejs", "node", "^20", candidates, false)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if got.Version != "20.18.0" {
		t.Fatalf("Version = %q", got.Version)
	}
}

func TestSolvePrefersLTS(t *testing.T) {
	candidates := []Candidate{
		{Version: "20.18.0", LTS: true},
		{Version: "20.18.0", LTS: false},
	}
	got, err := Solve("nodejs", "node", "20", candidates, false)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if !got.LTS {
		t.Fatal("expected the LTS candidate to be preferred")
	}
}

func TestSolveExcludesPrereleaseByDefault(t *testing.T) {
	candidates := []Candidate{
		{Version: "20.18.0"},
		{Version: "21.0.0-rc.1", Prerelease: true},
	}
	got, err := Solve("nodejs", "node", "latest", candidates, false)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if got.Version != "20.18.0" {
		t.Fatalf("expected prerelease excluded, got %q", got.Version)
	}
}

func TestSolveVersionNotFound(t *testing.T) {
	candidates := []Candidate{{Version: "16.0.0"}, {Version: "18.0.0"}}
	_, err := Solve("nodejs", "node", "^20", candidates, false)
	if err == nil {
		t.Fatal("expected an error")
	}
	var resolveErr *vxerrors.ResolveError
	if !errors.As(err, &resolveErr) {
		t.Fatalf("expected *vxerrors.ResolveError, got %T", err)
	}
	if resolveErr.Kind != vxerrors.KindVersionNotFound {
		t.Fatalf("Kind = %q", resolveErr.Kind)
	}
	misses, _ := resolveErr.Details["near_misses"].([]string)
	if len(misses) != 2 {
		t.Fatalf("expected 2 near misses, got %v", misses)
	}
}

func TestDetectConflictReportsUnsatisfiable(t *testing.T) {
	candidates := []Candidate{{Version: "16.0.0"}, {Version: "18.0.0"}, {Version: "20.0.0"}}
	err := DetectConflict("nodejs", "node", []ConflictSource{
		{Source: "tool_a", Constraint: ">= 18"},
		{Source: "tool_b", Constraint: "<= 16"},
	}, candidates)
	if err == nil {
		t.Fatal("expected a conflict error")
	}
	var resolveErr *vxerrors.ResolveError
	if !errors.As(err, &resolveErr) {
		t.Fatalf("expected *vxerrors.ResolveError, got %T", err)
	}
	if resolveErr.Kind != vxerrors.KindUnsatisfiableConstraint {
		t.Fatalf("Kind = %q", resolveErr.Kind)
	}
}

func TestDetectConflictNoneWhenSatisfiable(t *testing.T) {
	candidates := []Candidate{{Version: "18.0.0"}}
	err := DetectConflict("nodejs", "node", []ConflictSource{
		{Source: "tool_a", Constraint: ">= 18"},
		{Source: "tool_b", Constraint: "<= 19"},
	}, candidates)
	if err != nil {
		t.Fatalf("expected no conflict, got %v", err)
	}
}

func TestGoStrategySatisfiesCaret(t *testing.T) {
	s := For("go")
	req, err := ParseRequest("^1.22.0")
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	ok, err := s.Satisfies("go1.22.5", req)
	if err != nil || !ok {
		t.Fatalf("expected go1.22.5 to satisfy ^1.22.0, ok=%v err=%v", ok, err)
	}
	ok, err = s.Satisfies("go1.21.0", req)
	if err != nil || ok {
		t.Fatalf("expected go1.21.0 to not satisfy ^1.22.0, ok=%v err=%v", ok, err)
	}
}

func TestPEP440CompareOrdering(t *testing.T) {
	s := For("python")
	cmp, err := s.Compare("3.12.0", "3.12.0rc1")
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if cmp <= 0 {
		t.Fatalf("expected final release to outrank its own rc, got %d", cmp)
	}
}

func TestDateStrategyCompare(t *testing.T) {
	s := For("date")
	cmp, err := s.Compare("20240115", "20230601")
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if cmp <= 0 {
		t.Fatalf("expected later date to compare greater, got %d", cmp)
	}
}
