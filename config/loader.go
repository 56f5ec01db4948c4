package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// Loader produces JSON configuration text for a named container or
// component, per spec.md §6: "load(name, source) -> JSON-text | null,
// where source is an opaque pointer supplied by the host (typically a
// filesystem directory or an in-memory store)."
type Loader interface {
	Load(name string) (string, error)
}

// AferoLoader is the default Loader: name.json files under Dir on an
// afero.Fs, so the same loader code serves a real directory in
// production and an in-memory afero.MemMapFs in tests — the pattern
// warpdl-warpdl uses afero for in its own storage abstraction.
type AferoLoader struct {
	Fs  afero.Fs
	Dir string
}

// NewAferoLoader constructs a loader reading name.json files from dir
// on fs.
func NewAferoLoader(fs afero.Fs, dir string) *AferoLoader {
	return &AferoLoader{Fs: fs, Dir: dir}
}

func (l *AferoLoader) Load(name string) (string, error) {
	path := filepath.Join(l.Dir, name+".json")
	data, err := afero.ReadFile(l.Fs, path)
	if err != nil {
		return "", fmt.Errorf("loading %q: %w", path, err)
	}
	return string(data), nil
}
