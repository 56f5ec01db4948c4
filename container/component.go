// Package container implements the component container of spec.md §4.5:
// a named, insertion-ordered collection of components sharing a
// dependency-ordered start/stop lifecycle, wired from JSON configuration
// via a factory registry.
package container

import "github.com/eaton-coreymutter/iotech-c-utils/config"

// Component is anything the container can own: constructed by a
// Factory, started in insertion order, stopped in reverse.
type Component interface {
	StartFn() error
	StopFn() error
}

// Factory describes how to construct and destroy components of one
// configuration type, per spec.md §6's "Component factory interface".
type Factory interface {
	// Type is this factory's unique registry key, matched against a
	// component's configured type name.
	Type() string

	// New constructs a component from its parsed configuration. c is
	// the owning container, used to resolve sibling components (e.g. a
	// named logger) via c.FindComponent.
	New(c *Container, cfg config.Map) (Component, error)

	// Free releases a component this factory constructed.
	Free(comp Component)
}
