package versionsolver

// Candidate is one VersionInfo as obtained from upstream (spec.md §4): a
// candidate version plus the metadata needed to pick among several.
type Candidate struct {
	Version     string
	ReleaseDate string
	Prerelease  bool
	LTS         bool
	DownloadURL string
	Checksum    string
	Metadata    map[string]string
}

// Strategy is the ecosystem-pluggable version semantics spec.md §4
// requires: parse, compare, and constraint-satisfaction, each
// implemented per ecosystem rather than as a type hierarchy (spec.md
// §9's "Pluggable strategies" design note: "values (data + dispatch
// tables) ... not subtypes of a hierarchy").
type Strategy interface {
	// Name identifies the strategy for diagnostics (e.g. "semver", "pep440").
	Name() string
	// Compare returns -1, 0, or 1 as a compares before, equal to, or after b.
	// Returns an error if either version cannot be parsed under this
	// strategy.
	Compare(a, b string) (int, error)
	// Satisfies reports whether version satisfies req under this
	// strategy's constraint grammar.
	Satisfies(version string, req Request) (bool, error)
	// IsPrerelease reports whether version is a prerelease under this
	// strategy's conventions.
	IsPrerelease(version string) bool
}

// registry maps ecosystem labels to their Strategy, per spec.md §9:
// "choosing an implementation is a lookup; adding an ecosystem is
// additive."
var registry = map[string]Strategy{}

func register(name string, s Strategy) {
	registry[name] = s
}

// For returns the Strategy registered for ecosystem, defaulting to semver
// when the ecosystem has no specific strategy (spec.md §4: "semver
// (default)").
func For(ecosystem string) Strategy {
	if s, ok := registry[ecosystem]; ok {
		return s
	}
	return registry["semver"]
}
