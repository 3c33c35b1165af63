package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/invoicer/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewS3ObjectStorage_Validation(t *testing.T) {
	t.Run("nil config returns error", func(t *testing.T) {
		_, err := NewS3ObjectStorage(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	t.Run("missing bucket returns error", func(t *testing.T) {
		_, err := NewS3ObjectStorage(&config.StorageConfig{AccessKey: "k", SecretKey: "s"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("missing access key returns error", func(t *testing.T) {
		_, err := NewS3ObjectStorage(&config.StorageConfig{Bucket: "b", SecretKey: "s"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "access key is required")
	})

	t.Run("missing secret key returns error", func(t *testing.T) {
		_, err := NewS3ObjectStorage(&config.StorageConfig{Bucket: "b", AccessKey: "k"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "secret key is required")
	})

	t.Run("endpoint without scheme is accepted", func(t *testing.T) {
		s, err := NewS3ObjectStorage(&config.StorageConfig{
			Bucket: "signatures", AccessKey: "k", SecretKey: "s", Endpoint: "localhost:9000", UseSSL: true,
		}, WithLogger(zaptest.NewLogger(t)))
		require.NoError(t, err)
		assert.Equal(t, "signatures", s.Bucket())
	})
}

func TestEndpointURL(t *testing.T) {
	tests := []struct {
		endpoint string
		useSSL   bool
		want     string
	}{
		{"", false, "http://localhost:9000"},
		{"minio:9000", false, "http://minio:9000"},
		{"minio:9000", true, "https://minio:9000"},
		{"https://s3.eu-west-1.amazonaws.com", false, "https://s3.eu-west-1.amazonaws.com"},
		{"http://127.0.0.1:9000", true, "http://127.0.0.1:9000"},
	}

	for _, tc := range tests {
		t.Run(tc.endpoint, func(t *testing.T) {
			got, err := endpointURL(tc.endpoint, tc.useSSL)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := endpointURL("http://", false)
	assert.Error(t, err)
}

// fakeS3 serves the handful of path-style object calls the store makes
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	methods []string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.methods = append(f.methods, r.Method+" "+r.URL.Path)

	key := strings.TrimPrefix(r.URL.Path, "/test-bucket/")
	switch r.Method {
	case http.MethodPut:
		_, _ = io.Copy(io.Discard, r.Body)
		f.objects[key] = []byte("stored")
		w.WriteHeader(http.StatusOK)
	case http.MethodGet, http.MethodHead:
		data, ok := f.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			if r.Method == http.MethodGet {
				_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
			}
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = w.Write(data)
		}
	case http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newFakeS3Storage(t *testing.T) (*S3ObjectStorage, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: map[string][]byte{"signatures/existing.png": []byte("png-bytes")}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := NewS3ObjectStorage(&config.StorageConfig{
		Bucket:       "test-bucket",
		AccessKey:    "test-key",
		SecretKey:    "test-secret",
		Endpoint:     srv.URL,
		UsePathStyle: true,
	})
	require.NoError(t, err)
	return s, fake
}

func TestS3ObjectStorage_AgainstFakeServer(t *testing.T) {
	s, fake := newFakeS3Storage(t)
	ctx := context.Background()

	data, err := s.Download(ctx, "signatures/existing.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)

	_, err = s.Download(ctx, "signatures/missing.png")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	exists, err := s.ObjectExists(ctx, "signatures/existing.png")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.ObjectExists(ctx, "signatures/missing.png")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.Upload(ctx, "signatures/new.png", []byte("img"), "image/png"))
	require.NoError(t, s.DeleteObject(ctx, "signatures/existing.png"))

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Contains(t, fake.methods, "PUT /test-bucket/signatures/new.png")
	assert.Contains(t, fake.methods, "DELETE /test-bucket/signatures/existing.png")
	assert.NotContains(t, fake.objects, "signatures/existing.png")
}

func TestS3ObjectStorage_EmptyKey(t *testing.T) {
	s, _ := newFakeS3Storage(t)
	ctx := context.Background()

	assert.ErrorIs(t, s.Upload(ctx, "", []byte("x"), "text/plain"), ErrKeyRequired)
	_, err := s.Download(ctx, "")
	assert.ErrorIs(t, err, ErrKeyRequired)
	assert.ErrorIs(t, s.DeleteObject(ctx, ""), ErrKeyRequired)
	_, err = s.ObjectExists(ctx, "")
	assert.ErrorIs(t, err, ErrKeyRequired)
}

func TestS3ObjectStorage_EnsureBucket(t *testing.T) {
	s, fake := newFakeS3Storage(t)

	require.NoError(t, s.EnsureBucket(context.Background()))

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Len(t, fake.methods, 2)
	assert.True(t, strings.HasPrefix(fake.methods[0], "HEAD /test-bucket"))
	assert.True(t, strings.HasPrefix(fake.methods[1], "PUT /test-bucket"))
}
