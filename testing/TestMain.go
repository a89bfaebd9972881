// Package testing switches the process into test mode when imported by a
// test binary, so main packages and components skip network side effects.
package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("PEDIDOS_TEST_MODE", "1")
		if os.Getenv("EXPENSE_OUTBOX") == "" {
			_ = os.Setenv("EXPENSE_OUTBOX", "direct")
		}
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
