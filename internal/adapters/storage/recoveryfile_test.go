package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecoveryFile_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "recover.json")

	rf, err := NewRecoveryFile(path)
	require.NoError(t, err)

	_, found, err := rf.Load(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	started := time.Now().Truncate(time.Second)
	require.NoError(t, rf.Save(ctx, started))

	loaded, found, err := rf.Load(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, started.Unix(), loaded.Unix())
}
