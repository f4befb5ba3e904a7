// Package logging holds the module-tagged logger shared by the analysis and
// transformation packages.
package logging

import (
	"github.com/fatih/color"
	"go.uber.org/zap"
)

// Logger encapsulates a Logger and module which it belongs to.
// Use this through SetLogger() of a component.
type Logger struct {
	*zap.SugaredLogger
	module string
}

// LogSetter is implemented by components which log.
type LogSetter interface {
	SetLogger(*Logger)
}

// New wraps l for use by module.
func New(l *zap.SugaredLogger, module string) *Logger {
	return &Logger{SugaredLogger: l, module: module}
}

// Nop returns a Logger which discards everything.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// For returns a copy of l tagged with module, coloured with c.
func (l *Logger) For(module string, c func(format string, a ...interface{}) string) *Logger {
	if l == nil {
		l = Nop()
	}
	return &Logger{SugaredLogger: l.SugaredLogger, module: c(module)}
}

// Module returns (stylised) module name.
func (l *Logger) Module() string {
	return l.module
}

// Colours for the modules of this repository.
var (
	LoopColour   = color.GreenString
	RotateColour = color.BlueString
	BuildColour  = color.YellowString
	DriverColour = color.MagentaString
)

// DisableColour turns off colour in module names and reports.
func DisableColour() {
	color.NoColor = true
}
