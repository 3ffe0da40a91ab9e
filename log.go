package vmix

import "github.com/rs/zerolog"

// nopLogger returns a logger that discards every event. The constructors
// do not call it: they log through whatever zerolog.Logger they are given.
func nopLogger() zerolog.Logger {
	return zerolog.Nop()
}
