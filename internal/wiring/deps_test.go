package wiring_test

import (
	"context"
	"testing"

	"github.com/grindlemire/graft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/ftool/internal/app"
	_ "go.trai.ch/ftool/internal/wiring"
)

// TestComponentsResolve builds the whole node graph the CLI asks for.
// A node missing from wiring or depending on an unregistered ID fails here.
func TestComponentsResolve(t *testing.T) {
	components, _, err := graft.ExecuteFor[*app.Components](context.Background())
	require.NoError(t, err)
	require.NotNil(t, components)
	assert.NotNil(t, components.App)
	assert.NotNil(t, components.Logger)
}
