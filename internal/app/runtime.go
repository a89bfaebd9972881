package app

import (
	"os"
	"strconv"
	"sync"
	"sync/atomic"
)

// testModeEnv is set by test binaries (see the testing package) so that
// cmd/pedidos and cmd/worker return before dialing Postgres or Redis.
const testModeEnv = "PEDIDOS_TEST_MODE"

var (
	testMode     atomic.Bool
	testModeOnce sync.Once
)

func detectTestMode() {
	on, err := strconv.ParseBool(os.Getenv(testModeEnv))
	testMode.Store(err == nil && on)
}

// InTestMode reports whether binaries should skip startup side effects.
func InTestMode() bool {
	testModeOnce.Do(detectTestMode)
	return testMode.Load()
}

// RefreshTestMode re-reads the environment.
func RefreshTestMode() {
	testModeOnce.Do(func() {})
	detectTestMode()
}
