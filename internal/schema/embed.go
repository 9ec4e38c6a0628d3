// Package schema validates decoded provider manifests against a CUE
// schema, mirroring the teacher's embedded config.cue/schema.cue
// separation (internal/config/config.go's ToCue/WriteSchema/
// CheckSchemaVersion): the on-disk manifest format is TOML, but its
// shape is defined and checked in CUE.
package schema

import _ "embed"

//go:embed cue/manifest_schema.cue
var ManifestSchemaCUE string

// APIVersion is the schema version embedded in ManifestSchemaCUE. Bumped
// whenever #Manifest's shape changes in a way that could reject
// previously valid provider.toml files.
const APIVersion = "v1"
