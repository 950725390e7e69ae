package uploads

import (
	"bytes"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/safar/delivery-admin/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("profileImage", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })

	return form.File["profileImage"][0]
}

func TestSaveProfileImage(t *testing.T) {
	root := filepath.Join(t.TempDir(), "uploads")
	store, err := NewStore(root, "/uploads", 1<<20)
	require.NoError(t, err)
	store.now = func() time.Time { return time.UnixMilli(1700000000000) }

	ref, err := store.SaveProfileImage(fileHeader(t, "Me.PNG", pngHeader))
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^uploads/profiles/profile-1700000000000-[0-9a-f]{12}\.png$`), ref)

	data, err := os.ReadFile(filepath.Join(root, "profiles", filepath.Base(ref)))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)
}

func TestSaveProfileImageNamesAreUnique(t *testing.T) {
	store, err := NewStore(t.TempDir(), "/uploads", 1<<20)
	require.NoError(t, err)
	store.now = func() time.Time { return time.UnixMilli(42) }

	a, err := store.SaveProfileImage(fileHeader(t, "a.png", pngHeader))
	require.NoError(t, err)
	b, err := store.SaveProfileImage(fileHeader(t, "a.png", pngHeader))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestSaveProfileImageRejectsNonImage(t *testing.T) {
	root := t.TempDir()
	store, err := NewStore(root, "/uploads", 1<<20)
	require.NoError(t, err)

	_, err = store.SaveProfileImage(fileHeader(t, "avatar.png", []byte("#!/bin/sh\necho not an image\n")))
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	entries, err := os.ReadDir(filepath.Join(root, "profiles"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSaveProfileImageExtensionFollowsContent(t *testing.T) {
	store, err := NewStore(t.TempDir(), "/uploads", 1<<20)
	require.NoError(t, err)

	for _, name := range []string{"page.html", "avatar", "photo.jpg"} {
		ref, err := store.SaveProfileImage(fileHeader(t, name, pngHeader))
		require.NoError(t, err)
		assert.Equal(t, ".png", filepath.Ext(ref), name)
	}
}

func TestSaveProfileImageRejectsSVG(t *testing.T) {
	root := t.TempDir()
	store, err := NewStore(root, "/uploads", 1<<20)
	require.NoError(t, err)

	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`)
	_, err = store.SaveProfileImage(fileHeader(t, "avatar.svg", svg))
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	entries, err := os.ReadDir(filepath.Join(root, "profiles"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSaveProfileImageRejectsOversize(t *testing.T) {
	store, err := NewStore(t.TempDir(), "/uploads", 8)
	require.NoError(t, err)

	_, err = store.SaveProfileImage(fileHeader(t, "big.png", pngHeader))
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestRemove(t *testing.T) {
	root := filepath.Join(t.TempDir(), "uploads")
	store, err := NewStore(root, "/uploads", 1<<20)
	require.NoError(t, err)

	ref, err := store.SaveProfileImage(fileHeader(t, "a.png", pngHeader))
	require.NoError(t, err)

	require.NoError(t, store.Remove(ref))
	_, err = os.Stat(filepath.Join(root, "profiles", filepath.Base(ref)))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Remove(ref))
}
