package schema

import (
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/terassyi/vx/internal/manifest"
)

// Validator checks decoded manifest.Manifest values against the #Manifest
// definition in ManifestSchemaCUE. One Validator is safe for concurrent
// use; the underlying cue.Context is built once and reused, matching the
// teacher's pattern of a single long-lived *cue.Context per Loader.
type Validator struct {
	mu  sync.Mutex
	ctx *cue.Context
	def cue.Value
}

// New compiles the embedded schema and returns a ready Validator.
func New() (*Validator, error) {
	ctx := cuecontext.New()
	schemaVal := ctx.CompileString(ManifestSchemaCUE, cue.Filename("manifest_schema.cue"))
	if schemaVal.Err() != nil {
		return nil, fmt.Errorf("failed to compile manifest schema: %w", schemaVal.Err())
	}

	def := schemaVal.LookupPath(cue.ParsePath("#Manifest"))
	if !def.Exists() {
		return nil, fmt.Errorf("manifest schema has no #Manifest definition")
	}

	return &Validator{ctx: ctx, def: def}, nil
}

// Validate encodes m as a CUE value and unifies it against #Manifest,
// returning a descriptive error on the first violation CUE reports.
func (v *Validator) Validate(m *manifest.Manifest) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	encoded := v.ctx.Encode(m)
	if encoded.Err() != nil {
		return fmt.Errorf("failed to encode manifest for validation: %w", encoded.Err())
	}

	unified := v.def.Unify(encoded)
	if err := unified.Validate(cue.Concrete(false), cue.All()); err != nil {
		return fmt.Errorf("manifest %s does not satisfy schema: %w", m.SourcePath, err)
	}
	return nil
}

var _ manifest.Validator = (*Validator)(nil)
