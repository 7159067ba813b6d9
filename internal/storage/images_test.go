package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageStore_SaveAndRemove(t *testing.T) {
	store, err := NewImageStore(t.TempDir())
	require.NoError(t, err)

	name, err := store.Save(strings.NewReader("fake image bytes"), "cover.PNG")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".png"))
	assert.NotContains(t, name, "cover", "имя файла должно быть непрозрачным")

	full := filepath.Join(store.Dir(), name)
	data, err := os.ReadFile(full)
	require.NoError(t, err)
	assert.Equal(t, "fake image bytes", string(data))

	require.NoError(t, store.Remove(name))
	_, err = os.Stat(full)
	assert.True(t, os.IsNotExist(err))
}

func TestImageStore_RejectsBadType(t *testing.T) {
	store, err := NewImageStore(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"evil.exe", "page.html", "noext", "archive.zip"} {
		_, err := store.Save(strings.NewReader("x"), name)
		assert.ErrorIs(t, err, ErrBadImageType, name)
	}
}

func TestImageStore_RemoveIsScopedToDir(t *testing.T) {
	dir := t.TempDir()
	store, err := NewImageStore(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	outside := filepath.Join(dir, "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("keep"), 0o600))

	// Попытка выйти из каталога загрузок не трогает чужой файл
	require.NoError(t, store.Remove("../secret.txt"))
	_, err = os.Stat(outside)
	assert.NoError(t, err)

	// Пустое имя и несуществующий файл — тихий no-op
	assert.NoError(t, store.Remove(""))
	assert.NoError(t, store.Remove("missing.png"))
}
