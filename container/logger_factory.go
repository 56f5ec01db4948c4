package container

import (
	"github.com/eaton-coreymutter/iotech-c-utils/config"
	"github.com/eaton-coreymutter/iotech-c-utils/logging"
)

// LoggerFactoryType is the built-in factory type for a logger
// component, resolved by name from other components' "Logger"
// configuration key (spec.md §6).
const LoggerFactoryType = "Logger"

// LoggerProvider is implemented by any component that exposes a
// logging.Logger for other components to resolve by name via
// FindComponent.
type LoggerProvider interface {
	Logger() logging.Logger
}

// LoggerComponent adapts a logging.Logger to the Component lifecycle;
// it has no start/stop work of its own.
type LoggerComponent struct {
	log logging.Logger
}

func (l *LoggerComponent) Logger() logging.Logger { return l.log }
func (l *LoggerComponent) StartFn() error         { return nil }
func (l *LoggerComponent) StopFn() error          { return nil }

// LoggerFactory builds LoggerComponents from a "Level" configuration
// key ("debug"/"info"/"warn"/"error"; default "info").
type LoggerFactory struct{}

func (LoggerFactory) Type() string { return LoggerFactoryType }

func (LoggerFactory) New(c *Container, cfg config.Map) (Component, error) {
	level, err := cfg.StringOrDefault("Level", "info")
	if err != nil {
		return nil, err
	}
	return &LoggerComponent{log: logging.NewConsole(level)}, nil
}

func (LoggerFactory) Free(comp Component) {}
