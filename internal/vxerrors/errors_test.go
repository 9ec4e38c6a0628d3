package vxerrors

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func TestResolveErrorIs(t *testing.T) {
	a := NewRuntimeNotFound("node")
	b := NewRuntimeNotFound("python")
	if !errors.Is(a, b) {
		t.Fatal("expected errors with the same kind to match via Is")
	}

	var target *ResolveError
	if !errors.As(a, &target) {
		t.Fatal("expected errors.As to unwrap into *ResolveError")
	}
	if target.Kind != KindRuntimeNotFound {
		t.Fatalf("Kind = %q", target.Kind)
	}
}

func TestPipelineErrorUnwrap(t *testing.T) {
	inner := NewChecksumMismatch("node", "20.18.0", "sha256:aaa", "sha256:bbb")
	wrapped := Wrap(StageEnsure, inner)

	var ensureErr *EnsureError
	if !errors.As(wrapped, &ensureErr) {
		t.Fatal("expected PipelineError to unwrap to *EnsureError")
	}
	if ensureErr.Kind != KindChecksumMismatch {
		t.Fatalf("Kind = %q", ensureErr.Kind)
	}
}

func TestFormatterText(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(&buf, true, false)
	err := NewVersionNotFound("node", "^99", []string{"20.18.0", "22.0.0"})
	out := f.Format(err)
	if out == "" {
		t.Fatal("expected non-empty formatted output")
	}
	if !bytes.Contains([]byte(out), []byte("VersionNotFound")) {
		t.Fatalf("expected kind in output, got %q", out)
	}
	if !bytes.Contains([]byte(out), []byte("try:")) {
		t.Fatalf("expected a try: suggestion, got %q", out)
	}
}

func TestFormatterJSON(t *testing.T) {
	f := NewFormatter(nil, true, false)
	err := NewDependencyCycle([]string{"a", "b", "a"})
	data, jsonErr := f.FormatJSON(err)
	if jsonErr != nil {
		t.Fatalf("FormatJSON error = %v", jsonErr)
	}

	var decoded struct {
		Error struct {
			Kind string `json:"kind"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.Error.Kind != KindDependencyCycle {
		t.Fatalf("Kind = %q", decoded.Error.Kind)
	}
}
