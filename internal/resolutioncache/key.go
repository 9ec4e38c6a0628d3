package resolutioncache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Key is the fingerprint used by the resolution cache: digest of every
// input that could change the outcome of resolution (spec.md §3
// "ResolutionCacheKey"). The raw key material is never stored on disk —
// only its Digest.
type Key struct {
	CommandInput          string            `json:"command_input"`
	ProjectConfigHash     string            `json:"project_config_hash"`
	LockFileHash          string            `json:"lock_file_hash"`
	Platform              string            `json:"platform"`
	VXVersion             string            `json:"vx_version"`
	ResolverSchemaVersion int               `json:"resolver_schema_version"`
	Env                   map[string]string `json:"env,omitempty"`
}

// Digest computes the canonical sha256 hex digest of k, suitable as the
// resolution cache file name. encoding/json already sorts map keys, so
// Key's Env field encodes deterministically without extra sorting; the
// struct fields themselves have a fixed declaration order.
func (k Key) Digest() (string, error) {
	data, err := json.Marshal(k)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
