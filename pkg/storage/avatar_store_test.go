package storage

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestDetectImage(t *testing.T) {
	mt, err := DetectImage(pngBytes(t))
	require.NoError(t, err)
	assert.Equal(t, "image/png", mt.String())
	assert.Equal(t, ".png", mt.Extension())

	mt, err = DetectImage(jpegBytes(t))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mt.String())
	assert.Equal(t, ".jpg", mt.Extension())

	_, err = DetectImage([]byte("GIF89a......"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	_, err = DetectImage([]byte("just text"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestAvatarStore_SaveUsesOriginalName(t *testing.T) {
	store, err := NewAvatarStore(filepath.Join(t.TempDir(), "avatars"))
	require.NoError(t, err)

	data := pngBytes(t)
	name, err := store.Save(data, "me.png")
	require.NoError(t, err)
	assert.Equal(t, "me.png", name)

	got, err := os.ReadFile(store.Path(name))
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestAvatarStore_ExtensionFollowsContent(t *testing.T) {
	store, err := NewAvatarStore(t.TempDir())
	require.NoError(t, err)

	disguised := append(pngBytes(t), []byte("<html><script>alert(1)</script></html>")...)
	tests := []struct {
		data     []byte
		filename string
		want     string
	}{
		{disguised, "x.html", "x.png"},
		{pngBytes(t), "photo.JPG", "photo.png"},
		{jpegBytes(t), "photo.png", "photo.jpg"},
		{jpegBytes(t), "noext", "noext.jpg"},
		{pngBytes(t), "archive.tar.svg", "archive.tar.png"},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			name, err := store.Save(tt.data, tt.filename)
			require.NoError(t, err)
			assert.Equal(t, tt.want, name)
			assert.FileExists(t, store.Path(name))
		})
	}

	_, err = store.Save([]byte("<html></html>"), "page.png")
	assert.ErrorIs(t, err, ErrUnsupportedImage)
	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, len(tests), "rejected content must not be written")
}

func TestAvatarStore_SaveDisambiguatesCollision(t *testing.T) {
	store, err := NewAvatarStore(t.TempDir())
	require.NoError(t, err)

	one, two := pngBytes(t), append(pngBytes(t), 0)
	first, err := store.Save(one, "me.png")
	require.NoError(t, err)
	second, err := store.Save(two, "me.png")
	require.NoError(t, err)

	assert.Equal(t, "me.png", first)
	assert.Regexp(t, regexp.MustCompile(`^me_[0-9a-f]{10}\.png$`), second)

	got, err := os.ReadFile(store.Path(first))
	require.NoError(t, err)
	assert.Equal(t, one, got, "first file must not be overwritten")
}

func TestAvatarStore_ConcurrentSameName(t *testing.T) {
	store, err := NewAvatarStore(t.TempDir())
	require.NoError(t, err)

	data := jpegBytes(t)
	const n = 16
	names := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name, err := store.Save(data, "same.jpg")
			assert.NoError(t, err)
			names[i] = name
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for _, name := range names {
		assert.False(t, seen[name], "duplicate name %s", name)
		seen[name] = true
	}
}

func TestAvatarStore_SaveStripsDirectories(t *testing.T) {
	dir := t.TempDir()
	store, err := NewAvatarStore(dir)
	require.NoError(t, err)

	name, err := store.Save(pngBytes(t), "../../etc/Passwd.PNG")
	require.NoError(t, err)
	assert.Equal(t, "Passwd.png", name)
	assert.FileExists(t, filepath.Join(dir, "Passwd.png"))

	name, err = store.Save(pngBytes(t), "")
	require.NoError(t, err)
	assert.Equal(t, "avatar.png", name)
}

func TestAvatarStore_Delete(t *testing.T) {
	store, err := NewAvatarStore(t.TempDir())
	require.NoError(t, err)

	name, err := store.Save(pngBytes(t), "gone.png")
	require.NoError(t, err)

	require.NoError(t, store.Delete(name))
	assert.NoFileExists(t, store.Path(name))

	err = store.Delete(name)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	assert.ErrorIs(t, store.Delete("../outside.png"), ErrInvalidName)
	assert.ErrorIs(t, store.Delete(""), ErrInvalidName)
}
