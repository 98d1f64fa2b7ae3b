package session

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	sess := New("codasip_urisc", "master", "bk32-IMp")
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "codasip_urisc", sess.Project)
	assert.Equal(t, "master", sess.Branch)
	assert.Equal(t, "bk32-IMp", sess.Config)
	assert.Equal(t, runtime.GOOS, sess.OS)
	assert.Equal(t, runtime.GOARCH, sess.Arch)
	assert.False(t, sess.Started.IsZero())
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := Open(filepath.Join(t.TempDir(), "sessions.db"), nil)
	require.NoError(t, err)
	defer store.Close()

	sess := New("codasip_urisc", "master", "bk32-IMp")
	require.NoError(t, store.Create(ctx, sess))
	require.NoError(t, store.Finish(ctx, sess, 1, 2))

	loaded, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, loaded.ID)
	assert.Equal(t, "codasip_urisc", loaded.Project)
	assert.Equal(t, 1, loaded.ExitCode)
	assert.Equal(t, 2, loaded.StatusID)
	assert.GreaterOrEqual(t, loaded.Duration, time.Duration(0))
}

func TestFinishUnknownSession(t *testing.T) {
	ctx := context.Background()
	store, err := Open(filepath.Join(t.TempDir(), "sessions.db"), nil)
	require.NoError(t, err)
	defer store.Close()

	err = store.Finish(ctx, New("p", "b", "c"), 0, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown session")
}

func TestGetMissing(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "sessions.db"), nil)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Get(context.Background(), "nope")
	require.Error(t, err)
}
