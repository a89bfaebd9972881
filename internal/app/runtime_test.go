package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	_ "github.com/sg-pedidos/pedidos/testing"
)

func TestInTestMode(t *testing.T) {
	RefreshTestMode()
	assert.True(t, InTestMode())

	t.Setenv(testModeEnv, "0")
	RefreshTestMode()
	assert.False(t, InTestMode())

	t.Setenv(testModeEnv, "true")
	RefreshTestMode()
	assert.True(t, InTestMode())

	t.Setenv(testModeEnv, "maybe")
	RefreshTestMode()
	assert.False(t, InTestMode())
}
