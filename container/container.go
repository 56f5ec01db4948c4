package container

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/eaton-coreymutter/iotech-c-utils/config"
	"github.com/eaton-coreymutter/iotech-c-utils/logging"
)

// dynamicLoadError marks a genuine, attempted-and-failed Library/Factory
// resolution (plugin.Open, symbol lookup, or the func() Factory type
// assertion) — spec.md §7's "Dynamic-load failure" disposition, which
// logs at error. It is distinct from a component simply having no
// Library/Factory configured to fall back on, which is an "Unknown
// component type" (warn) with no dynamic load ever attempted.
type dynamicLoadError struct {
	err error
}

func (e *dynamicLoadError) Error() string { return e.err.Error() }
func (e *dynamicLoadError) Unwrap() error { return e.err }

// holder pairs a named component with the factory that built it, so
// Free and DeleteComponent know how to release it.
type holder struct {
	name      string
	component Component
	factory   Factory
}

// Container is an insertion-ordered, named collection of components
// sharing start/stop sequencing, per spec.md §3's "Container" data
// model and §4.5's operation table.
type Container struct {
	process *Process
	name    string
	log     logging.Logger

	mu      sync.RWMutex
	holders []holder
	byName  map[string]int

	// mapping is the container-level name->type configuration loaded by
	// Init, cached so FindComponent's lazy chained loads can look up a
	// not-yet-constructed component's type without reparsing.
	mapping map[string]string

	// loading guards against cyclic FindComponent chains: a name is
	// marked while its load is in progress.
	loading map[string]bool
}

func newContainer(p *Process, name string) *Container {
	return &Container{
		process: p,
		name:    name,
		log:     p.log.With(logging.String("container", name)),
		byName:  make(map[string]int),
		loading: make(map[string]bool),
	}
}

// Name returns the container's registry name.
func (c *Container) Name() string { return c.name }

// Init loads the container-level configuration (component_name ->
// component_type) via the process loader and constructs every
// component it names. A component whose configuration fails to parse,
// whose type is unknown, and has no usable dynamic-load fallback, does
// not stop Init from continuing with the rest — per spec.md §7's error
// table, each such failure is logged and skipped.
//
// spec.md §9 flags the original's two-pass init (a dynamic-load
// pre-pass, then a load pass, both over the same un-reset map iterator)
// as a bug: the second pass sees an empty iterator. This Init does
// factory lookup and dynamic-load fallback in one pass per component,
// which sidesteps the bug entirely.
func (c *Container) Init() error {
	if c.process.loader == nil {
		return fmt.Errorf("container %q: no configuration loader configured", c.name)
	}
	text, err := c.process.loader.Load(c.name)
	if err != nil {
		return fmt.Errorf("container %q: loading configuration: %w", c.name, err)
	}
	text = config.ExpandEnv(text)

	var mapping map[string]string
	if err := json.Unmarshal([]byte(text), &mapping); err != nil {
		return fmt.Errorf("container %q: parsing configuration: %w", c.name, err)
	}

	c.mu.Lock()
	c.mapping = mapping
	c.mu.Unlock()

	for name, typ := range mapping {
		if _, exists := c.componentIndex(name); exists {
			continue
		}
		if err := c.loadComponent(name, typ); err != nil {
			var dlErr *dynamicLoadError
			if errors.As(err, &dlErr) {
				c.log.Error("component not created", logging.String("name", name), logging.String("type", typ), logging.Err(err))
			} else {
				c.log.Warn("component not created", logging.String("name", name), logging.String("type", typ), logging.Err(err))
			}
			continue
		}
	}

	return nil
}

func (c *Container) componentIndex(name string) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx, ok := c.byName[name]
	return idx, ok
}

// loadComponent constructs and appends one component, with cycle
// detection across chained FindComponent loads.
func (c *Container) loadComponent(name, typ string) error {
	c.mu.Lock()
	if c.loading[name] {
		c.mu.Unlock()
		return fmt.Errorf("cyclic component reference to %q", name)
	}
	c.loading[name] = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.loading, name)
		c.mu.Unlock()
	}()

	compText, err := c.process.loader.Load(name)
	if err != nil {
		return fmt.Errorf("loading component config: %w", err)
	}
	compText = config.ExpandEnv(compText)
	cfg, err := config.Parse(compText)
	if err != nil {
		return fmt.Errorf("parsing component config: %w", err)
	}

	factory, ok := c.process.factory(typ)
	if !ok {
		factory, err = loadDynamicFactory(cfg)
		if err != nil {
			return fmt.Errorf("unknown type %q: %w", typ, err)
		}
	}

	comp, err := factory.New(c, cfg)
	if err != nil {
		return fmt.Errorf("constructing component: %w", err)
	}

	c.mu.Lock()
	c.byName[name] = len(c.holders)
	c.holders = append(c.holders, holder{name: name, component: comp, factory: factory})
	c.mu.Unlock()

	return nil
}

// FindComponent looks up a component by name, constructing it on demand
// from configuration if it is not yet loaded and the container's
// configuration names it, per spec.md §4.5. It returns nil if the
// component is unknown, its on-demand load fails, or a cyclic reference
// is detected.
func (c *Container) FindComponent(name string) Component {
	c.mu.RLock()
	if idx, ok := c.byName[name]; ok {
		comp := c.holders[idx].component
		c.mu.RUnlock()
		return comp
	}
	typ, known := c.mapping[name]
	c.mu.RUnlock()

	if !known {
		return nil
	}
	if err := c.loadComponent(name, typ); err != nil {
		c.log.Error("find_component load failed", logging.String("name", name), logging.Err(err))
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	idx, ok := c.byName[name]
	if !ok {
		return nil
	}
	return c.holders[idx].component
}

// Start calls StartFn on every component, head to tail (insertion
// order).
func (c *Container) Start() error {
	c.mu.RLock()
	holders := append([]holder(nil), c.holders...)
	c.mu.RUnlock()

	for _, h := range holders {
		if err := h.component.StartFn(); err != nil {
			return fmt.Errorf("starting component %q: %w", h.name, err)
		}
	}
	return nil
}

// Stop calls StopFn on every component, tail to head — the reverse of
// Start's order, so dependents stop before the dependencies they used.
func (c *Container) Stop() error {
	c.mu.RLock()
	holders := append([]holder(nil), c.holders...)
	c.mu.RUnlock()

	var firstErr error
	for i := len(holders) - 1; i >= 0; i-- {
		if err := holders[i].component.StopFn(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("stopping component %q: %w", holders[i].name, err)
		}
	}
	return firstErr
}

// DeleteComponent stops and releases a single named component,
// unlinking it from the container.
func (c *Container) DeleteComponent(name string) error {
	c.mu.Lock()
	idx, ok := c.byName[name]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("container %q: no component named %q", c.name, name)
	}
	h := c.holders[idx]
	c.holders = append(c.holders[:idx], c.holders[idx+1:]...)
	delete(c.byName, name)
	for n, i := range c.byName {
		if i > idx {
			c.byName[n] = i - 1
		}
	}
	c.mu.Unlock()

	if err := h.component.StopFn(); err != nil {
		c.log.Warn("error stopping deleted component", logging.String("name", name), logging.Err(err))
	}
	h.factory.Free(h.component)
	return nil
}

// Free unregisters the container from its process and releases every
// remaining component, in insertion order, via each one's factory.
func (c *Container) Free() {
	c.process.unregister(c.name)

	c.mu.Lock()
	holders := c.holders
	c.holders = nil
	c.byName = make(map[string]int)
	c.mu.Unlock()

	for _, h := range holders {
		h.factory.Free(h.component)
	}
}
