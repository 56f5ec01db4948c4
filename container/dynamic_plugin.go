//go:build linux || darwin

package container

import (
	"fmt"
	"plugin"

	"github.com/eaton-coreymutter/iotech-c-utils/config"
)

// loadDynamicFactory resolves a component's "Library"/"Factory" keys
// (spec.md §6) to a Factory using Go's standard plugin package: Library
// names a .so built with -buildmode=plugin, Factory names a zero-
// argument exported function returning a Factory descriptor. plugin is
// a standard-library facility and the idiomatic mechanism for this on
// platforms that support it; nothing in the example pack loads Go
// factories dynamically in a different way.
func loadDynamicFactory(cfg config.Map) (Factory, error) {
	library, err := cfg.String("Library")
	if err != nil {
		return nil, fmt.Errorf("no Library configured for dynamic load: %w", err)
	}
	symbolName, err := cfg.String("Factory")
	if err != nil {
		return nil, fmt.Errorf("no Factory symbol configured for dynamic load: %w", err)
	}

	p, err := plugin.Open(library)
	if err != nil {
		return nil, &dynamicLoadError{fmt.Errorf("opening plugin %q: %w", library, err)}
	}
	sym, err := p.Lookup(symbolName)
	if err != nil {
		return nil, &dynamicLoadError{fmt.Errorf("looking up symbol %q in %q: %w", symbolName, library, err)}
	}
	ctor, ok := sym.(func() Factory)
	if !ok {
		return nil, &dynamicLoadError{fmt.Errorf("symbol %q in %q is not a func() Factory", symbolName, library)}
	}
	return ctor(), nil
}
