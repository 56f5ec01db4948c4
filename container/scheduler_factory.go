package container

import (
	"github.com/eaton-coreymutter/iotech-c-utils/config"
	"github.com/eaton-coreymutter/iotech-c-utils/logging"
	"github.com/eaton-coreymutter/iotech-c-utils/sched"
)

// SchedulerFactoryType is the built-in factory type that constructs a
// *sched.Scheduler as a container component.
const SchedulerFactoryType = "Scheduler"

// SchedulerComponent adapts *sched.Scheduler to the Component
// interface's StartFn/StopFn lifecycle.
type SchedulerComponent struct {
	*sched.Scheduler
}

func (s *SchedulerComponent) StartFn() error {
	s.Start()
	return nil
}

func (s *SchedulerComponent) StopFn() error {
	s.Stop()
	return nil
}

// SchedulerFactory builds SchedulerComponents from the "Logger",
// "Affinity", and "Priority" configuration keys spec.md §6 names:
// Logger is resolved by name from a sibling LoggerProvider component in
// the same container; Affinity and Priority are handed to sched.New,
// which applies Affinity to dedicated dispatch threads for pool-less
// schedules (see threadutil) and does not apply Priority to any thread.
type SchedulerFactory struct{}

func (SchedulerFactory) Type() string { return SchedulerFactoryType }

func (SchedulerFactory) New(c *Container, cfg config.Map) (Component, error) {
	var log logging.Logger
	if name, err := cfg.String("Logger"); err == nil {
		if comp := c.FindComponent(name); comp != nil {
			if lp, ok := comp.(LoggerProvider); ok {
				log = lp.Logger()
			}
		}
	}

	var affinity, priority *int
	if _, ok := cfg["Affinity"]; ok {
		v, err := cfg.Int("Affinity")
		if err != nil {
			return nil, err
		}
		affinity = &v
	}
	if _, ok := cfg["Priority"]; ok {
		v, err := cfg.Int("Priority")
		if err != nil {
			return nil, err
		}
		priority = &v
	}

	return &SchedulerComponent{Scheduler: sched.New(priority, affinity, log)}, nil
}

func (SchedulerFactory) Free(comp Component) {
	if sc, ok := comp.(*SchedulerComponent); ok {
		sc.Free()
	}
}
