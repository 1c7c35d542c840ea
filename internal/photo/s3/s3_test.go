package s3

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	"github.com/rhymednick/inw-radio-log/internal/photo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 is a minimal in-memory S3 endpoint covering the calls Store makes.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func response(status int, body []byte, header http.Header) *http.Response {
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{
		StatusCode:    status,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Header:        header,
	}
}

func (f *fakeS3) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}

	switch req.Method {
	case http.MethodHead:
		body, ok := f.objects[key]
		if !ok {
			return response(http.StatusNotFound, nil, nil), nil
		}
		return response(http.StatusOK, nil, http.Header{
			"Content-Length": {fmt.Sprintf("%d", len(body))},
			"Content-Type":   {"image/jpeg"},
		}), nil
	case http.MethodPut:
		if src := req.Header.Get("X-Amz-Copy-Source"); src != "" {
			if strings.ContainsFunc(src, func(r rune) bool { return r > unicode.MaxASCII || r == ' ' }) {
				return response(http.StatusBadRequest, []byte(`<Error><Code>InvalidArgument</Code></Error>`), nil), nil
			}
			src, _ = url.PathUnescape(strings.TrimPrefix(src, "/"))
			srcParts := strings.SplitN(src, "/", 2)
			body, ok := f.objects[srcParts[1]]
			if !ok {
				return response(http.StatusNotFound, []byte(`<Error><Code>NoSuchKey</Code></Error>`), nil), nil
			}
			f.objects[key] = append([]byte(nil), body...)
			return response(http.StatusOK, []byte(`<CopyObjectResult><ETag>"etag"</ETag></CopyObjectResult>`),
				http.Header{"Content-Type": {"application/xml"}}), nil
		}
		body, _ := io.ReadAll(req.Body)
		f.objects[key] = body
		return response(http.StatusOK, nil, http.Header{"ETag": {`"etag"`}}), nil
	case http.MethodGet:
		body, ok := f.objects[key]
		if !ok {
			return response(http.StatusNotFound, []byte(`<Error><Code>NoSuchKey</Code></Error>`), nil), nil
		}
		return response(http.StatusOK, body, http.Header{
			"Content-Length": {fmt.Sprintf("%d", len(body))},
			"Content-Type":   {"image/jpeg"},
			"Last-Modified":  {time.Now().UTC().Format(http.TimeFormat)},
		}), nil
	case http.MethodDelete:
		delete(f.objects, key)
		return response(http.StatusNoContent, nil, nil), nil
	}
	return response(http.StatusNotImplemented, nil, nil), nil
}

func (f *fakeS3) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok
}

func newTestStore(t *testing.T) (*Store, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: make(map[string][]byte)}
	client := awss3.New(awss3.Options{
		Region:                     "us-east-1",
		Credentials:                credentials.NewStaticCredentialsProvider("AKIA", "SECRET", ""),
		HTTPClient:                 &http.Client{Transport: fake},
		BaseEndpoint:               aws.String("https://mock.s3.local"),
		UsePathStyle:               true,
		RequestChecksumCalculation: aws.RequestChecksumCalculationWhenRequired,
		ResponseChecksumValidation: aws.ResponseChecksumValidationWhenRequired,
	})
	return NewWithClient(client, "photos", "profile-images", photo.DefaultOptions()), fake
}

func testJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for x := 0; x < 16; x++ {
		img.Set(x, x, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.JPEG))
	return buf.Bytes()
}

func TestStore_SaveOpenExists(t *testing.T) {
	ctx := context.Background()
	s, fake := newTestStore(t)

	u, err := s.Save(ctx, "jane_doe.jpg", testJPEG(t))
	require.NoError(t, err)
	assert.Equal(t, "/images/jane_doe.jpg", u)
	assert.True(t, fake.has("profile-images/jane_doe.jpg"))

	ok, err := s.Exists(ctx, "jane_doe.jpg")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Exists(ctx, "nobody.jpg")
	require.NoError(t, err)
	assert.False(t, ok)

	rc, info, err := s.Open(ctx, "jane_doe.jpg")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Equal(t, "image/jpeg", info.ContentType)

	_, _, err = s.Open(ctx, "nobody.jpg")
	assert.ErrorIs(t, err, photo.ErrPhotoNotFound)
}

func TestStore_SaveRejectsGarbage(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Save(context.Background(), "x.jpg", []byte("not an image"))
	assert.ErrorIs(t, err, photo.ErrInvalidImage)
}

func TestStore_Rename(t *testing.T) {
	ctx := context.Background()
	s, fake := newTestStore(t)
	_, err := s.Save(ctx, "jane.jpg", testJPEG(t))
	require.NoError(t, err)

	u, err := s.Rename(ctx, "jane.jpg", "jane_doe.jpg")
	require.NoError(t, err)
	assert.Equal(t, "/images/jane_doe.jpg", u)
	assert.False(t, fake.has("profile-images/jane.jpg"))
	assert.True(t, fake.has("profile-images/jane_doe.jpg"))

	_, err = s.Rename(ctx, "missing.jpg", "other.jpg")
	assert.ErrorIs(t, err, photo.ErrPhotoNotFound)
}

func TestStore_Archive(t *testing.T) {
	ctx := context.Background()
	s, fake := newTestStore(t)
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }

	_, err := s.Save(ctx, "jane.jpg", testJPEG(t))
	require.NoError(t, err)
	archived, err := s.Archive(ctx, "jane.jpg")
	require.NoError(t, err)
	assert.Equal(t, "jane.jpg", archived)
	assert.True(t, fake.has("profile-images/archive/jane.jpg"))
	assert.False(t, fake.has("profile-images/jane.jpg"))

	// second archive of the same name must not overwrite the first
	_, err = s.Save(ctx, "jane.jpg", testJPEG(t))
	require.NoError(t, err)
	archived, err = s.Archive(ctx, "jane.jpg")
	require.NoError(t, err)
	assert.Equal(t, "jane-1700000000000.jpg", archived)
	assert.True(t, fake.has("profile-images/archive/jane.jpg"))
	assert.True(t, fake.has("profile-images/archive/jane-1700000000000.jpg"))

	_, err = s.Archive(ctx, "missing.jpg")
	assert.ErrorIs(t, err, photo.ErrPhotoNotFound)
}

func TestStore_RenameAndArchiveNonASCII(t *testing.T) {
	ctx := context.Background()
	s, fake := newTestStore(t)

	_, err := s.Save(ctx, "josé.jpg", testJPEG(t))
	require.NoError(t, err)
	_, err = s.Rename(ctx, "josé.jpg", "josé_garcía.jpg")
	require.NoError(t, err)
	assert.False(t, fake.has("profile-images/josé.jpg"))
	assert.True(t, fake.has("profile-images/josé_garcía.jpg"))

	archived, err := s.Archive(ctx, "josé_garcía.jpg")
	require.NoError(t, err)
	assert.Equal(t, "josé_garcía.jpg", archived)
	assert.True(t, fake.has("profile-images/archive/josé_garcía.jpg"))
}

func TestCopySource(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"profile-images/jane.jpg", "photos/profile-images/jane.jpg"},
		{"profile-images/josé.jpg", "photos/profile-images/jos%C3%A9.jpg"},
		{"profile-images/a b.jpg", "photos/profile-images/a%20b.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, copySource("photos", tt.key))
		})
	}
}

func TestStore_InvalidNames(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	_, err := s.Save(ctx, "../escape.jpg", testJPEG(t))
	assert.ErrorIs(t, err, photo.ErrInvalidName)
	_, err = s.Exists(ctx, "a/b.jpg")
	assert.ErrorIs(t, err, photo.ErrInvalidName)
}

func TestNew_RequiresBucket(t *testing.T) {
	_, err := New(context.Background(), Config{}, photo.DefaultOptions())
	assert.Error(t, err)
}
