package registry_test

import (
	"testing"

	"github.com/aretw0/vizkit/pkg/adapters/memory"
	"github.com/aretw0/vizkit/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_UseAndRemove(t *testing.T) {
	reg := registry.New()
	reg.Use(memory.NewTask("b"), memory.NewTask("a"))

	assert.Equal(t, []string{"a", "b"}, reg.Names())

	first, ok := reg.FindTask("a")
	require.True(t, ok)

	reg.Use(memory.NewTask("a"))
	second, ok := reg.FindTask("a")
	require.True(t, ok)
	assert.NotEqual(t, first.ID(), second.ID(), "re-registration replaces the instance")

	assert.True(t, reg.Remove("a"))
	assert.False(t, reg.Remove("a"))
	_, ok = reg.FindTask("a")
	assert.False(t, ok)
}

func TestChain_FirstMatchWins(t *testing.T) {
	local := registry.New()
	remote := registry.New()
	localArm := memory.NewTask("arm")
	local.Use(localArm)
	remote.Use(memory.NewTask("arm"), memory.NewTask("camera"))

	chain := registry.Chain{nil, local, remote}

	arm, ok := chain.FindTask("arm")
	require.True(t, ok)
	assert.Equal(t, localArm.ID(), arm.ID())

	_, ok = chain.FindTask("camera")
	assert.True(t, ok)
	_, ok = chain.FindTask("gripper")
	assert.False(t, ok)
}
