package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.AddSessionToMemory(ctx, timeSession()))
	second := timeSession()
	second.ID = "s-london"
	require.NoError(t, s.AddSessionToMemory(ctx, second))
	other := timeSession()
	other.UserID = "alice"
	require.NoError(t, s.AddSessionToMemory(ctx, other))

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, s.Path(), st.DBPath)
	assert.Equal(t, 9, st.TotalMemories)
	assert.NotZero(t, st.DBSizeBytes)
	require.Len(t, st.Scopes, 2)
	assert.Equal(t, ScopeStats{AppName: "my_agent", UserID: "user", Memories: 6, Sessions: 2}, st.Scopes[0])
	assert.Equal(t, ScopeStats{AppName: "my_agent", UserID: "alice", Memories: 3, Sessions: 1}, st.Scopes[1])
}

func TestExportAllFilters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.AddSessionToMemory(ctx, timeSession()))
	other := timeSession()
	other.AppName = "clock_app"
	require.NoError(t, s.AddSessionToMemory(ctx, other))

	all, err := s.ExportAll(ctx, "", "")
	require.NoError(t, err)
	assert.Len(t, all, 6)

	scoped, err := s.ExportAll(ctx, "clock_app", "user")
	require.NoError(t, err)
	require.Len(t, scoped, 3)
	for _, r := range scoped {
		assert.Equal(t, "clock_app", r.AppName)
	}

	none, err := s.ExportAll(ctx, "missing", "")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
