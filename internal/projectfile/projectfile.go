// Package projectfile parses vx.toml, the project configuration spec.md
// §6.1's scenarios invoke against (e.g. "[tools] node = \"^20\""), into
// the Configuration View pipeline.Configuration the core consumes —
// no project-file parsing detail leaks past this package (spec.md
// GLOSSARY: "Configuration View ... no project-file parsing details leak
// into the core").
package projectfile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/terassyi/vx/internal/pipeline"
)

// FileName is the project configuration file's canonical name.
const FileName = "vx.toml"

// document is vx.toml's on-disk shape.
type document struct {
	Tools map[string]string `toml:"tools"`
	Env   map[string]string `toml:"env"`
}

// Load parses a vx.toml file at path into a pipeline.Configuration. A
// missing file is not an error: it returns an empty Configuration, the
// same "no project file yet" allowance the lock file's own Load makes.
func Load(path string) (pipeline.Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return pipeline.Configuration{Versions: map[string]string{}, Env: map[string]string{}}, nil
		}
		return pipeline.Configuration{}, fmt.Errorf("projectfile: read %s: %w", path, err)
	}

	var doc document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return pipeline.Configuration{}, fmt.Errorf("projectfile: parse %s: %w", path, err)
	}

	if doc.Tools == nil {
		doc.Tools = map[string]string{}
	}
	if doc.Env == nil {
		doc.Env = map[string]string{}
	}
	return pipeline.Configuration{Versions: doc.Tools, Env: doc.Env}, nil
}

// Find walks up from dir to the filesystem root looking for vx.toml,
// the same upward directory-search convention version-manager config
// files (.tool-versions, .nvmrc, ...) use, so a command run from a
// project subdirectory still finds the root's vx.toml. Returns "" if
// none is found.
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}
