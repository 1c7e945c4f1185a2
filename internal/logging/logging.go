// Package logging wires the commonlog backend and hands out named loggers.
package logging

import (
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

// Root is the prefix of every logger name.
const Root = "exminer"

// Get returns the logger for a component, e.g. Get("miner").
func Get(component string) commonlog.Logger {
	return commonlog.GetLogger(Root + "." + component)
}

// Configure sets the output verbosity: quiet only keeps errors, the default
// shows warnings and notices, verbose adds info and debug.
func Configure(verbose, quiet bool) {
	verbosity := 0
	switch {
	case quiet:
		verbosity = -2
	case verbose:
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)
}
