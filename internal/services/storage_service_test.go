package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageService_UploadAndDelete(t *testing.T) {
	root := t.TempDir()
	s := NewStorageService(root, "https://cdn.example/")

	key, err := s.Upload(context.Background(), "Avatars", "me.PNG", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "avatars/"))
	assert.True(t, strings.HasSuffix(key, ".png"))

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(key)))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	url := s.PublicURL(key)
	assert.Equal(t, "https://cdn.example/uploads/"+key, url)
	assert.Equal(t, key, s.KeyFromURL(url))
	assert.Empty(t, s.KeyFromURL("https://elsewhere.example/a.png"))

	require.NoError(t, s.Delete(key))
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(key)))
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, s.Delete(key))
}

func TestStorageService_RejectsUnsupportedType(t *testing.T) {
	s := NewStorageService(t.TempDir(), "http://localhost")

	_, err := s.Upload(context.Background(), "avatars", "script.sh", strings.NewReader("#!"))
	assert.ErrorIs(t, err, ErrUnsupportedFile)
}

func TestStorageService_CancelledContext(t *testing.T) {
	s := NewStorageService(t.TempDir(), "http://localhost")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Upload(ctx, "avatars", "a.jpg", strings.NewReader("data"))
	assert.ErrorIs(t, err, context.Canceled)
}
