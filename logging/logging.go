// Package logging provides the structured logger interface the scheduler
// and container use, with a zerolog-backed default implementation.
package logging

import(
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Field attaches one structured key/value to a log event.
type Field func( e *zerolog.Event )

func String( k, v string ) Field        { return func( e *zerolog.Event ) { e.Str( k, v ) } }
func Int( k string, v int ) Field       { return func( e *zerolog.Event ) { e.Int( k, v ) } }
func Uint64( k string, v uint64 ) Field { return func( e *zerolog.Event ) { e.Uint64( k, v ) } }
func Bool( k string, v bool ) Field     { return func( e *zerolog.Event ) { e.Bool( k, v ) } }
func Duration( k string, v time.Duration ) Field {
	return func( e *zerolog.Event ) { e.Dur( k, v ) }
}
func Err( err error ) Field { return func( e *zerolog.Event ) { e.Err( err ) } }

// Logger is the structured logging contract the scheduler, container, and
// components depend on. It is the "out of scope" logger collaborator
// spec.md §1 names.
type Logger interface {
	Debug( msg string, fields ...Field )
	Info( msg string, fields ...Field )
	Warn( msg string, fields ...Field )
	Error( msg string, fields ...Field )
	With( fields ...Field ) Logger
}

// zlog adapts a zerolog.Logger to the Logger interface. base holds fields
// attached by With() so they're replayed ahead of per-call fields on
// every event.
type zlog struct {
	root zerolog.Logger
	base []Field
}

// NewConsole builds a human-readable console logger at the given level
// ("debug", "info", "warn", "error"; unrecognised values fall back to
// info).
func NewConsole( level string ) Logger {
	return New( zerolog.ConsoleWriter{ Out: os.Stderr, TimeFormat: time.RFC3339 }, level )
}

// New builds a logger writing to w at the given level.
func New( w io.Writer, level string ) Logger {
	lvl, err := zerolog.ParseLevel( level )
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zlog{ root: zerolog.New( w ).Level( lvl ).With().Timestamp().Logger() }
}

// Nop returns a logger that discards everything, for tests and components
// that have no logger configured.
func Nop() Logger {
	return zlog{ root: zerolog.Nop() }
}

func ( l zlog ) log( evt *zerolog.Event, msg string, fields ...Field ) {
	for _, f := range l.base {
		f( evt )
	}
	for _, f := range fields {
		f( evt )
	}
	evt.Msg( msg )
}

func ( l zlog ) Debug( msg string, fields ...Field ) { l.log( l.root.Debug(), msg, fields... ) }
func ( l zlog ) Info( msg string, fields ...Field )  { l.log( l.root.Info(), msg, fields... ) }
func ( l zlog ) Warn( msg string, fields ...Field )  { l.log( l.root.Warn(), msg, fields... ) }
func ( l zlog ) Error( msg string, fields ...Field ) { l.log( l.root.Error(), msg, fields... ) }

// With returns a child logger that attaches fields to every subsequent
// event in addition to this logger's own base fields.
func ( l zlog ) With( fields ...Field ) Logger {
	merged := make( []Field, 0, len( l.base )+len( fields ) )
	merged = append( merged, l.base... )
	merged = append( merged, fields... )
	return zlog{ root: l.root, base: merged }
}
