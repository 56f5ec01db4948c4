//go:build !linux && !darwin

package container

import (
	"errors"

	"github.com/eaton-coreymutter/iotech-c-utils/config"
)

// loadDynamicFactory reports failure on platforms Go's plugin package
// doesn't support. A component that actually configures Library/Factory
// here is a genuine dynamic-load attempt that failed — spec.md §7's
// "Dynamic-load failure" (logged at error) — while one with neither key
// set was never attempting dynamic load at all, so it stays an "Unknown
// component type" (logged at warn).
func loadDynamicFactory(cfg config.Map) (Factory, error) {
	_, libErr := cfg.String("Library")
	_, factoryErr := cfg.String("Factory")
	if libErr != nil && factoryErr != nil {
		return nil, errors.New("no Library/Factory configured for dynamic load")
	}
	return nil, &dynamicLoadError{errors.New("container: dynamic component loading is not supported on this platform")}
}
