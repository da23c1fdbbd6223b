package kvstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFileStore(t *testing.T) Store {
	t.Helper()
	s, err := NewFileStore(filepath.Join(t.TempDir(), "state"))
	require.NoError(t, err)
	return s
}

func TestStores(t *testing.T) {
	backends := map[string]func(t *testing.T) Store{
		"memory": func(*testing.T) Store { return NewMemoryStore() },
		"file":   newFileStore,
	}
	for name, factory := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)

			_, ok, err := s.Get(ctx, "user-1", "toggles")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Set(ctx, "user-1", "toggles", []byte(`{"a":true}`)))
			require.NoError(t, s.Set(ctx, "user-2", "toggles", []byte(`{}`)))

			v, ok, err := s.Get(ctx, "user-1", "toggles")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `{"a":true}`, string(v))

			require.NoError(t, s.Set(ctx, "user-1", "toggles", []byte(`{"a":false}`)))
			v, _, _ = s.Get(ctx, "user-1", "toggles")
			assert.Equal(t, `{"a":false}`, string(v), "last write wins")

			require.NoError(t, s.Remove(ctx, "user-1", "toggles"))
			require.NoError(t, s.Remove(ctx, "user-1", "toggles"), "removing a missing key is not an error")
			_, ok, _ = s.Get(ctx, "user-1", "toggles")
			assert.False(t, ok)

			_, ok, _ = s.Get(ctx, "user-2", "toggles")
			assert.True(t, ok, "users are isolated")
		})
	}
}

func TestValidation(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	assert.Error(t, s.Set(ctx, "", "toggles", nil))
	assert.Error(t, s.Set(ctx, "../etc", "toggles", nil))
	assert.Error(t, s.Set(ctx, "user", "bad key", nil))
	assert.NoError(t, ValidateUserID("alice@example.com"))
	assert.Error(t, ValidateUserID(".hidden"))
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	first, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "bob", "profile", []byte(`{"annualIncome":"85000"}`)))

	_, err = os.Stat(filepath.Join(dir, "bob.yaml"))
	require.NoError(t, err)

	second, err := NewFileStore(dir)
	require.NoError(t, err)
	v, ok, err := second.Get(ctx, "bob", "profile")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"annualIncome":"85000"}`, string(v))
}
