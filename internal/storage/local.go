package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// LocalBucket stores objects as files in a directory.
type LocalBucket struct {
	name       string
	dir        string
	publicBase string
}

// NewLocalBucket creates the bucket directory root/name if needed.
func NewLocalBucket(root, name, publicBase string) (*LocalBucket, error) {
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: failed to create bucket directory: %w", err)
	}
	return &LocalBucket{name: name, dir: dir, publicBase: publicBase}, nil
}

func (b *LocalBucket) Name() string { return b.name }

// Root is the directory holding the objects.
func (b *LocalBucket) Root() string { return b.dir }

func (b *LocalBucket) PublicURL(name string) string {
	return publicURL(b.publicBase, b.name, name)
}

// tempName is the name of an in-flight upload; listings never show it.
func tempName() string {
	return tempPrefix + uuid.NewString()
}

// Upload writes r to a temporary file first so that a failed copy never
// leaves a truncated object behind.
func (b *LocalBucket) Upload(ctx context.Context, name string, r io.Reader, opts UploadOptions) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	name, err := SanitizeName(name)
	if err != nil {
		return Object{}, err
	}
	target := filepath.Join(b.dir, name)

	tmpName := filepath.Join(b.dir, tempName())
	tmp, err := os.OpenFile(tmpName, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return Object{}, fmt.Errorf("storage: failed to create temp file: %w", err)
	}
	defer os.Remove(tmpName)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return Object{}, fmt.Errorf("storage: failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return Object{}, fmt.Errorf("storage: failed to close %s: %w", name, err)
	}

	if opts.Overwrite {
		err = os.Rename(tmpName, target)
	} else {
		// Link fails when target exists, which gives create-exclusive semantics.
		err = os.Link(tmpName, target)
		if errors.Is(err, fs.ErrExist) {
			return Object{}, ErrObjectExists
		}
	}
	if err != nil {
		return Object{}, fmt.Errorf("storage: failed to store %s: %w", name, err)
	}

	info, err := os.Stat(target)
	if err != nil {
		return Object{}, fmt.Errorf("storage: failed to stat %s: %w", name, err)
	}
	return Object{Name: name, Size: info.Size(), CreatedAt: info.ModTime()}, nil
}

func (b *LocalBucket) List(ctx context.Context, opts ListOptions) ([]Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to list bucket %s: %w", b.name, err)
	}
	objects := make([]Object, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !listable(entry.Name(), opts.Prefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		objects = append(objects, Object{Name: entry.Name(), Size: info.Size(), CreatedAt: info.ModTime()})
	}
	return sortAndLimit(objects, opts), nil
}
