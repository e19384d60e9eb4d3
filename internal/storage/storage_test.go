package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "marketplace/internal/errors"
)

var (
	pngBytes  = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)
	jpegBytes = append([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, make([]byte, 32)...)
)

func TestValidateImage(t *testing.T) {
	tests := []struct {
		name     string
		upload   *Upload
		max      int64
		wantType string
		wantErr  bool
	}{
		{"png", &Upload{Filename: "desk.png", Data: pngBytes}, 0, "image/png", false},
		{"jpeg upper ext", &Upload{Filename: "desk.JPG", Data: jpegBytes}, 0, "image/jpeg", false},
		{"jpeg ext", &Upload{Filename: "desk.jpeg", Data: jpegBytes}, 0, "image/jpeg", false},
		{"wrong extension", &Upload{Filename: "desk.gif", Data: pngBytes}, 0, "", true},
		{"content is not an image", &Upload{Filename: "desk.png", Data: []byte("plain text pretending")}, 0, "", true},
		{"too large", &Upload{Filename: "desk.png", Data: pngBytes}, 8, "", true},
		{"empty", &Upload{Filename: "desk.png"}, 0, "", true},
		{"missing", nil, 0, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct, err := ValidateImage(tt.upload, tt.max)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrInvalidUpload)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, ct)
		})
	}
}

func TestObjectKey(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	shape := regexp.MustCompile(`^photo-1700000000123-[0-9a-f]{8}\.(png|jpg)$`)

	png := ObjectKey("photo", "My Desk.PNG", now)
	assert.Regexp(t, shape, png)
	assert.True(t, strings.HasSuffix(png, ".png"))

	jpg := ObjectKey("photo", "a.b.jpg", now)
	assert.Regexp(t, shape, jpg)
	assert.True(t, strings.HasSuffix(jpg, ".jpg"))
}

func TestLocalService_SameMillisecondUploads(t *testing.T) {
	dir := t.TempDir()
	svc, err := NewLocalService(dir, "/uploads/")
	require.NoError(t, err)
	ctx := context.Background()
	now := time.UnixMilli(1700000000123)

	first, err := svc.Save(ctx, ObjectKey("photo", "a.png", now), bytes.NewReader(pngBytes), int64(len(pngBytes)), "image/png")
	require.NoError(t, err)
	second, err := svc.Save(ctx, ObjectKey("photo", "b.png", now), bytes.NewReader(pngBytes), int64(len(pngBytes)), "image/png")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestLocalService_SaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	svc, err := NewLocalService(dir, "/uploads/")
	require.NoError(t, err)
	ctx := context.Background()

	ref, err := svc.Save(ctx, "photo-1.png", bytes.NewReader(pngBytes), int64(len(pngBytes)), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/photo-1.png", ref)

	stored, err := os.ReadFile(filepath.Join(dir, "photo-1.png"))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, stored)

	_, err = svc.Save(ctx, "photo-1.png", bytes.NewReader(pngBytes), int64(len(pngBytes)), "image/png")
	assert.Error(t, err, "existing files are never overwritten")

	require.NoError(t, svc.Delete(ctx, ref))
	_, err = os.Stat(filepath.Join(dir, "photo-1.png"))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, svc.Delete(ctx, ref), "deleting twice is harmless")
	assert.NoError(t, svc.Delete(ctx, "https://elsewhere/photo.png"))
}

func TestLocalService_KeyCannotEscapeDir(t *testing.T) {
	dir := t.TempDir()
	svc, err := NewLocalService(filepath.Join(dir, "uploads"), "/uploads")
	require.NoError(t, err)

	ref, err := svc.Save(context.Background(), "../escape.png", bytes.NewReader(pngBytes), int64(len(pngBytes)), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/escape.png", ref)
	_, err = os.Stat(filepath.Join(dir, "escape.png"))
	assert.True(t, os.IsNotExist(err))
}

type recordedRequest struct {
	method string
	path   string
	body   []byte
}

func TestS3Service_SaveAndDelete(t *testing.T) {
	var (
		mu       sync.Mutex
		requests []recordedRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		requests = append(requests, recordedRequest{method: r.Method, path: r.URL.Path, body: body})
		mu.Unlock()
		switch r.Method {
		case http.MethodPut:
			w.Header().Set("ETag", `"etag"`)
			w.WriteHeader(http.StatusOK)
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	defer srv.Close()

	client := s3.New(s3.Options{
		Region:                     "us-east-1",
		BaseEndpoint:               aws.String(srv.URL),
		UsePathStyle:               true,
		Credentials:                aws.AnonymousCredentials{},
		RequestChecksumCalculation: aws.RequestChecksumCalculationWhenRequired,
	})
	svc, err := NewS3Service(client, S3Options{Bucket: "photos", Region: "us-east-1", Endpoint: srv.URL, KeyPrefix: "listings"})
	require.NoError(t, err)
	ctx := context.Background()

	ref, err := svc.Save(ctx, "photo-1.png", bytes.NewReader(pngBytes), int64(len(pngBytes)), "image/png")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/photos/listings/photo-1.png", ref)

	require.NoError(t, svc.Delete(ctx, ref))
	require.NoError(t, svc.Delete(ctx, "/uploads/local.png"))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, requests, 2)
	assert.Equal(t, http.MethodPut, requests[0].method)
	assert.Equal(t, "/photos/listings/photo-1.png", requests[0].path)
	assert.Equal(t, pngBytes, requests[0].body)
	assert.Equal(t, http.MethodDelete, requests[1].method)
	assert.Equal(t, "/photos/listings/photo-1.png", requests[1].path)
}

func TestNewS3Service_RequiresBucket(t *testing.T) {
	_, err := NewS3Service(s3.New(s3.Options{Region: "us-east-1"}), S3Options{})
	assert.Error(t, err)
}
