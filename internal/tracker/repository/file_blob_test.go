package repository

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileBlobStore_UploadAndOpen(t *testing.T) {
	store := NewFileBlobStore(t.TempDir(), "http://localhost:8080/")

	err := store.Upload(context.Background(), "abc.jpg", "image/jpeg", strings.NewReader("jpeg-bytes"), 10)
	require.NoError(t, err)

	r, err := store.Open(context.Background(), "abc.jpg")
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))

	assert.Equal(t, "http://localhost:8080/uploads/abc.jpg", store.PublicURL("abc.jpg"))
}

func TestFileBlobStore_RejectsTraversal(t *testing.T) {
	store := NewFileBlobStore(t.TempDir(), "")

	tests := []string{"", "../etc/passwd", "a/b.jpg", ".hidden"}
	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			err := store.Upload(context.Background(), name, "image/jpeg", strings.NewReader("x"), 1)
			assert.Error(t, err)
		})
	}
}
