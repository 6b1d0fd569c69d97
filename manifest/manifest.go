// Package manifest loads and validates the update-db manifest, the
// ordered list of change scripts to apply against a database.
package manifest

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	updatedb "github.com/theMK2k/update-db"
)

// Manifest drives a run. Updates is the authoritative application
// order; entries may repeat and every occurrence is processed. Ignore
// exempts files in the script directory from the orphan check.
type Manifest struct {
	Updates []string `toml:"updates"`
	Ignore  []string `toml:"ignore"`
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading manifest")
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse parses a TOML manifest document. Unknown keys are rejected so
// a misspelled array name cannot silently empty the run.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", updatedb.ErrManifestInvalid, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%w: unknown keys: %s",
			updatedb.ErrManifestInvalid, strings.Join(keys, ", "))
	}
	for _, name := range m.Updates {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: blank entry in updates", updatedb.ErrManifestInvalid)
		}
	}
	for _, name := range m.Ignore {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: blank entry in ignore", updatedb.ErrManifestInvalid)
		}
	}
	return &m, nil
}

// Validate checks that every updates entry names an available script.
// available holds script names as returned by the store. The first
// unresolvable entry fails the whole run, before anything is applied.
func (m *Manifest) Validate(available []string) error {
	known := make(map[string]struct{}, len(available))
	for _, name := range available {
		known[name] = struct{}{}
	}
	for _, name := range m.Updates {
		if _, ok := known[name]; !ok {
			return fmt.Errorf("%q: %w", name, updatedb.ErrScriptMissing)
		}
	}
	return nil
}

// Ignored reports whether name is on the ignore list.
func (m *Manifest) Ignored(name string) bool {
	for _, ig := range m.Ignore {
		if ig == name {
			return true
		}
	}
	return false
}
