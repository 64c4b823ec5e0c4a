// Package testhelper is imported for its side effect by test binaries that
// exercise code which logs.
package testhelper

import (
	"os"
	"testing"

	"github.com/rs/zerolog"
)

// LogEnv enables logging in tests when set to a zerolog level name
const LogEnv = "MINIJS_TEST_LOG"

func init() {
	if !testing.Testing() {
		return
	}

	level, err := zerolog.ParseLevel(os.Getenv(LogEnv))
	if err != nil || os.Getenv(LogEnv) == "" {
		zerolog.SetGlobalLevel(zerolog.Disabled)
		return
	}
	zerolog.SetGlobalLevel(level)
}
