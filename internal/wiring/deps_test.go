package wiring_test

import (
	"context"
	"testing"

	"github.com/grindlemire/graft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/sheaf/internal/app"
	_ "go.trai.ch/sheaf/internal/wiring"
)

// graft.AssertDepsValid infers dependency IDs from the package of the type
// passed to Dep[T], so every ports.X dependency is expected to come from a
// node named "ports". Resolving the full graph is checked instead.
func TestGraph_ResolvesComponents(t *testing.T) {
	components, _, err := graft.ExecuteFor[*app.Components](context.Background())
	require.NoError(t, err)
	require.NotNil(t, components)

	assert.NotNil(t, components.App)
	assert.NotNil(t, components.Logger)
	assert.NotNil(t, components.Listener)
	assert.NotNil(t, components.ConfigLoader)
	assert.NotNil(t, components.Telemetry)
	assert.NotNil(t, components.Transforms)
	assert.NotNil(t, components.Runner)

	_, ok := components.Transforms.Lookup("minify")
	assert.True(t, ok)
}
