package photo

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage(t *testing.T, w, h int, format imaging.Format) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: uint8((x ^ y) % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, format))
	return buf.Bytes()
}

func TestFileName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", "Jane", "jane.jpg"},
		{"two words", "Jane Doe", "jane_doe.jpg"},
		{"whitespace runs", "Jane   Q\tDoe", "jane_q_doe.jpg"},
		{"mixed case", "McDONALD", "mcdonald.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FileName(tt.input))
		})
	}
}

func TestURLRoundTrip(t *testing.T) {
	assert.Equal(t, "/images/jane_doe.jpg", URL("jane_doe.jpg"))
	assert.Equal(t, "jane_doe.jpg", NameFromURL("/images/jane_doe.jpg"))
	assert.Equal(t, "", NameFromURL(""))
}

func TestValidateName(t *testing.T) {
	for _, name := range []string{"", ".", "..", "a/b.jpg", `a\b.jpg`, ".hidden.jpg"} {
		assert.ErrorIs(t, ValidateName(name), ErrInvalidName, name)
	}
	assert.NoError(t, ValidateName("jane_doe.jpg"))
}

func TestArchiveName(t *testing.T) {
	ts := time.UnixMilli(1728741802123)
	assert.Equal(t, "jane-1728741802123.jpg", ArchiveName("jane.jpg", ts))
	assert.Equal(t, "noext-1728741802123", ArchiveName("noext", ts))
}

func TestDecodeDataURL(t *testing.T) {
	raw := []byte("hello")
	enc := base64.StdEncoding.EncodeToString(raw)

	data, err := DecodeDataURL("data:image/jpeg;base64," + enc)
	require.NoError(t, err)
	assert.Equal(t, raw, data)

	data, err = DecodeDataURL(enc)
	require.NoError(t, err)
	assert.Equal(t, raw, data)

	_, err = DecodeDataURL("data:image/jpeg," + enc)
	assert.ErrorIs(t, err, ErrInvalidImage)

	_, err = DecodeDataURL("data:image/jpeg;base64,!!!")
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestNormalize(t *testing.T) {
	opts := Options{MaxWidth: 64, MaxHeight: 64, Quality: 80}

	out, err := Normalize(testImage(t, 200, 100, imaging.PNG), "jane.jpg", opts)
	require.NoError(t, err)
	img, err := imaging.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 32, img.Bounds().Dy())

	small, err := Normalize(testImage(t, 10, 10, imaging.JPEG), "jane.jpg", opts)
	require.NoError(t, err)
	img, err = imaging.Decode(bytes.NewReader(small))
	require.NoError(t, err)
	assert.Equal(t, 10, img.Bounds().Dx())

	_, err = Normalize([]byte("garbage"), "jane.jpg", opts)
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func newFS(t *testing.T) *FS {
	t.Helper()
	s, err := NewFS(filepath.Join(t.TempDir(), "profile-images"), DefaultOptions())
	require.NoError(t, err)
	return s
}

func TestFS_SaveOpen(t *testing.T) {
	ctx := context.Background()
	s := newFS(t)

	u, err := s.Save(ctx, "jane.jpg", testImage(t, 20, 20, imaging.JPEG))
	require.NoError(t, err)
	assert.Equal(t, "/images/jane.jpg", u)

	ok, err := s.Exists(ctx, "jane.jpg")
	require.NoError(t, err)
	assert.True(t, ok)

	rc, info, err := s.Open(ctx, "jane.jpg")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), info.Size)
	assert.Equal(t, "image/jpeg", info.ContentType)

	_, _, err = s.Open(ctx, "nobody.jpg")
	assert.ErrorIs(t, err, ErrPhotoNotFound)
	_, _, err = s.Open(ctx, ArchiveDir)
	assert.Error(t, err)

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestFS_Rename(t *testing.T) {
	ctx := context.Background()
	s := newFS(t)
	_, err := s.Save(ctx, "jane.jpg", testImage(t, 8, 8, imaging.JPEG))
	require.NoError(t, err)

	u, err := s.Rename(ctx, "jane.jpg", "jane_doe.jpg")
	require.NoError(t, err)
	assert.Equal(t, "/images/jane_doe.jpg", u)
	assert.NoFileExists(t, filepath.Join(s.Dir(), "jane.jpg"))
	assert.FileExists(t, filepath.Join(s.Dir(), "jane_doe.jpg"))

	_, err = s.Rename(ctx, "missing.jpg", "x.jpg")
	assert.ErrorIs(t, err, ErrPhotoNotFound)
}

func TestFS_ArchiveCollision(t *testing.T) {
	ctx := context.Background()
	s := newFS(t)
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }

	_, err := s.Save(ctx, "jane.jpg", testImage(t, 8, 8, imaging.JPEG))
	require.NoError(t, err)
	archived, err := s.Archive(ctx, "jane.jpg")
	require.NoError(t, err)
	assert.Equal(t, "jane.jpg", archived)

	_, err = s.Save(ctx, "jane.jpg", testImage(t, 8, 8, imaging.JPEG))
	require.NoError(t, err)
	archived, err = s.Archive(ctx, "jane.jpg")
	require.NoError(t, err)
	assert.Equal(t, "jane-1700000000000.jpg", archived)

	assert.FileExists(t, filepath.Join(s.Dir(), ArchiveDir, "jane.jpg"))
	assert.FileExists(t, filepath.Join(s.Dir(), ArchiveDir, "jane-1700000000000.jpg"))
	assert.NoFileExists(t, filepath.Join(s.Dir(), "jane.jpg"))

	_, err = s.Archive(ctx, "missing.jpg")
	assert.ErrorIs(t, err, ErrPhotoNotFound)
}

func TestFS_Compact(t *testing.T) {
	ctx := context.Background()
	s := newFS(t)
	s.opts = Options{MaxWidth: 32, MaxHeight: 32, Quality: 50}

	big := testImage(t, 400, 400, imaging.PNG)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "big.png"), big, 0o600))
	small := testImage(t, 4, 4, imaging.PNG)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "small.png"), small, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "notes.txt"), bytes.Repeat([]byte("x"), 4096), 0o600))

	n, err := s.Compact(ctx, 1024)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	fi, err := os.Stat(filepath.Join(s.Dir(), "big.png"))
	require.NoError(t, err)
	assert.Less(t, fi.Size(), int64(len(big)))

	got, err := os.ReadFile(filepath.Join(s.Dir(), "small.png"))
	require.NoError(t, err)
	assert.Equal(t, small, got)
}
