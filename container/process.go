package container

import (
	"fmt"
	"sync"

	"github.com/eaton-coreymutter/iotech-c-utils/config"
	"github.com/eaton-coreymutter/iotech-c-utils/logging"
)

// Process bundles the factory registry, the container registry, and the
// configuration loader as one explicit object, per spec.md §9's design
// note: "expose them as an explicit process-level object initialised at
// startup rather than free-standing globals; this simplifies testing."
// A binary constructs one Process for its lifetime; tests construct
// their own, isolated ones.
type Process struct {
	mu sync.Mutex

	factories  map[string]Factory
	containers map[string]*Container

	loader config.Loader
	log    logging.Logger
}

// NewProcess constructs an empty Process. loader may be nil if no
// container will use configuration-driven Init/FindComponent (tests
// that build containers purely in code, for instance). log may be nil.
func NewProcess(loader config.Loader, log logging.Logger) *Process {
	if log == nil {
		log = logging.Nop()
	}
	return &Process{
		factories:  make(map[string]Factory),
		containers: make(map[string]*Container),
		loader:     loader,
		log:        log,
	}
}

// RegisterFactory adds f to the registry under f.Type(). A duplicate
// type registration is silently ignored — first registration wins, per
// spec.md §7's error-handling table — and RegisterFactory reports
// whether it actually registered.
func (p *Process) RegisterFactory(f Factory) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.factories[f.Type()]; exists {
		return false
	}
	p.factories[f.Type()] = f
	return true
}

func (p *Process) factory(typ string) (Factory, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	f, ok := p.factories[typ]
	return f, ok
}

// Alloc allocates a new, empty container named name and registers it in
// the process-wide container registry. It returns an error if a
// container of this name is already registered, per spec.md §7's
// "Duplicate container name" disposition.
func (p *Process) Alloc(name string) (*Container, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.containers[name]; exists {
		return nil, fmt.Errorf("container: a container named %q already exists", name)
	}
	c := newContainer(p, name)
	p.containers[name] = c
	return c, nil
}

// Find looks up a registered container by name.
func (p *Process) Find(name string) (*Container, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.containers[name]
	return c, ok
}

// unregister removes name from the container registry. Called by
// Container.Free.
func (p *Process) unregister(name string) {
	p.mu.Lock()
	delete(p.containers, name)
	p.mu.Unlock()
}
