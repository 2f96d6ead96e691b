// Package logging defines the minimal logger contract the sprite pipeline
// depends on. It mirrors the engine's top-level Logger interface
// (see logging.go) so that an isogekko.Logger satisfies it without any
// adapter: the pipeline packages never import the engine root package.
package logging

// Logger is satisfied by *isogekko.DefaultLogger and any logger with the
// same method set.
type Logger interface {
	DebugEnabled() bool
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type nopLogger struct{}

// Nop returns a Logger that discards everything. Safe zero value for
// components constructed without an explicit logger.
func Nop() Logger { return nopLogger{} }

func (nopLogger) DebugEnabled() bool                { return false }
func (nopLogger) Debugf(format string, args ...any)  {}
func (nopLogger) Infof(format string, args ...any)   {}
func (nopLogger) Warnf(format string, args ...any)   {}
func (nopLogger) Errorf(format string, args ...any)  {}
