// Package scripts reads change scripts from a flat directory on disk.
package scripts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	updatedb "github.com/theMK2k/update-db"
)

// DirStore serves change scripts from a single flat directory. Nested
// directories are not descended into.
type DirStore struct {
	dir string
}

var _ updatedb.ScriptStore = (*DirStore)(nil)

// NewDirStore returns a store over dir. The directory must exist.
func NewDirStore(dir string) (*DirStore, error) {
	fi, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrap(err, "script directory")
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("script directory %s: not a directory", dir)
	}
	return &DirStore{dir: dir}, nil
}

// Dir returns the directory the store reads from.
func (s *DirStore) Dir() string { return s.dir }

// List returns the names of all regular files in the directory.
// os.ReadDir already sorts by filename. There is no extension filter;
// the manifest ignore list is the mechanism for exempting stray files.
func (s *DirStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrap(err, "listing scripts")
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// Read returns the script with the given name. Names are plain file
// names; anything with a path separator is treated as missing.
func (s *DirStore) Read(name string) (*updatedb.ChangeScript, error) {
	if strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("%q: %w", name, updatedb.ErrScriptMissing)
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%q: %w", name, updatedb.ErrScriptMissing)
		}
		return nil, errors.Wrapf(err, "reading script %q", name)
	}
	return &updatedb.ChangeScript{Name: name, Content: string(data)}, nil
}
