package storage

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/sftp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "photo lait.png", want: "photo_lait.png"},
		{in: "  pain  de   mie.jpg ", want: "pain_de_mie.jpg"},
		{in: "../../etc/passwd", want: "passwd"},
		{in: `C:\Users\ana\riz.png`, want: "riz.png"},
		{in: "", wantErr: true},
		{in: "..", wantErr: true},
		{in: ".upload-1234", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := SanitizeName(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidName)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestServable(t *testing.T) {
	assert.True(t, Servable("lait.png"))
	assert.True(t, Servable("photo_lait.png"))

	for _, name := range []string{"", ".", "..", "a/b.png", `a\b.png`, PlaceholderName, ".upload-abc-123"} {
		assert.False(t, Servable(name), name)
	}
}

func TestLocalBucket_UploadAndList(t *testing.T) {
	ctx := context.Background()
	bucket, err := NewLocalBucket(t.TempDir(), "product-images", "http://localhost:8080/")
	require.NoError(t, err)

	obj, err := bucket.Upload(ctx, "jus d'orange.png", strings.NewReader("png-bytes"), UploadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "jus_d'orange.png", obj.Name)
	assert.Equal(t, int64(9), obj.Size)

	_, err = bucket.Upload(ctx, "jus d'orange.png", strings.NewReader("other"), UploadOptions{})
	assert.ErrorIs(t, err, ErrObjectExists)

	data, err := os.ReadFile(filepath.Join(bucket.Root(), obj.Name))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data), "rejected upload must not overwrite")

	_, err = bucket.Upload(ctx, "jus d'orange.png", strings.NewReader("v2"), UploadOptions{Overwrite: true})
	require.NoError(t, err)
	data, err = os.ReadFile(filepath.Join(bucket.Root(), obj.Name))
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))

	_, err = bucket.Upload(ctx, "abricot.png", strings.NewReader("a"), UploadOptions{})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(bucket.Root(), PlaceholderName), nil, 0o644))

	objects, err := bucket.List(ctx, ListOptions{SortBy: SortByName})
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "abricot.png", objects[0].Name)
	assert.Equal(t, "jus_d'orange.png", objects[1].Name)

	assert.Equal(t,
		"http://localhost:8080/storage/v1/object/public/product-images/abricot.png",
		bucket.PublicURL("abricot.png"))
}

func TestLocalBucket_UploadLeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	bucket, err := NewLocalBucket(t.TempDir(), "product-images", "http://localhost:8080")
	require.NoError(t, err)

	_, err = bucket.Upload(ctx, "riz.png", strings.NewReader("riz"), UploadOptions{})
	require.NoError(t, err)
	_, err = bucket.Upload(ctx, "riz.png", strings.NewReader("again"), UploadOptions{})
	require.ErrorIs(t, err, ErrObjectExists)

	entries, err := os.ReadDir(bucket.Root())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "riz.png", entries[0].Name())

	a, b := tempName(), tempName()
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, tempPrefix))
	assert.False(t, Servable(a))
}

func TestLocalBucket_ListByCreatedAtWithLimit(t *testing.T) {
	ctx := context.Background()
	bucket, err := NewLocalBucket(t.TempDir(), "product-images", "http://cdn")
	require.NoError(t, err)

	base := time.Now().Add(-time.Hour)
	for i, name := range []string{"a.png", "b.png", "c.png"} {
		_, err := bucket.Upload(ctx, name, strings.NewReader(name), UploadOptions{})
		require.NoError(t, err)
		stamp := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(filepath.Join(bucket.Root(), name), stamp, stamp))
	}

	objects, err := bucket.List(ctx, ListOptions{SortBy: SortByCreatedAt, Limit: 2})
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "c.png", objects[0].Name)
	assert.Equal(t, "b.png", objects[1].Name)
}

func TestLocalBucket_CanceledContext(t *testing.T) {
	bucket, err := NewLocalBucket(t.TempDir(), "product-images", "http://cdn")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = bucket.Upload(ctx, "x.png", strings.NewReader("x"), UploadOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

// newInMemorySFTP serves an in-memory filesystem over a pipe.
func newInMemorySFTP(t *testing.T) *sftp.Client {
	t.Helper()
	serverConn, clientConn := net.Pipe()
	server := sftp.NewRequestServer(serverConn, sftp.InMemHandler())
	go func() { _ = server.Serve() }()

	client, err := sftp.NewClientPipe(clientConn, clientConn)
	require.NoError(t, err)
	t.Cleanup(func() {
		client.Close()
		server.Close()
	})
	return client
}

func TestSFTPBucket_UploadAndList(t *testing.T) {
	ctx := context.Background()
	bucket, err := NewSFTPBucket(newInMemorySFTP(t), "/srv/storage", "product-images", "https://files.example")
	require.NoError(t, err)

	obj, err := bucket.Upload(ctx, "café moulu.png", strings.NewReader("beans"), UploadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "café_moulu.png", obj.Name)
	assert.Equal(t, int64(5), obj.Size)

	_, err = bucket.Upload(ctx, "café moulu.png", strings.NewReader("again"), UploadOptions{})
	assert.ErrorIs(t, err, ErrObjectExists)

	_, err = bucket.Upload(ctx, "beurre.png", strings.NewReader("b"), UploadOptions{})
	require.NoError(t, err)
	_, err = bucket.Upload(ctx, PlaceholderName, strings.NewReader(""), UploadOptions{})
	require.NoError(t, err)

	objects, err := bucket.List(ctx, ListOptions{SortBy: SortByName, Limit: 100})
	require.NoError(t, err)
	names := make([]string, 0, len(objects))
	for _, o := range objects {
		names = append(names, o.Name)
	}
	assert.Equal(t, []string{"beurre.png", "café_moulu.png"}, names)

	objects, err = bucket.List(ctx, ListOptions{Prefix: "caf"})
	require.NoError(t, err)
	require.Len(t, objects, 1)

	assert.Equal(t, "https://files.example/storage/v1/object/public/product-images/beurre.png", bucket.PublicURL("beurre.png"))
}
