package mind

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"amora-bot/internal/storage"
)

func testEngine(t *testing.T) (*Engine, *storage.Storage) {
	t.Helper()
	store, err := storage.New(filepath.Join(t.TempDir(), "amora.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return NewEngine(store, 100), store
}

func ident(channel string) storage.Identity {
	return storage.NewIdentity("guild-1", channel, "user-1")
}
