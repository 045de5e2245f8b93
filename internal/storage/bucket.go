// Package storage holds product image buckets: a local directory served by
// the HTTP server, or a remote directory reached over SFTP.
package storage

import (
	"context"
	"errors"
	"io"
	"net/url"
	"path"
	"regexp"
	"sort"
	"strings"
	"time"
)

// PlaceholderName is the sentinel object some buckets keep to materialise an
// empty folder. It is never listed.
const PlaceholderName = ".emptyFolderPlaceholder"

// tempPrefix marks in-flight uploads.
const tempPrefix = ".upload-"

var (
	ErrObjectExists = errors.New("storage: object already exists")
	ErrNotFound     = errors.New("storage: object not found")
	ErrInvalidName  = errors.New("storage: invalid object name")
)

// Object describes a stored binary.
type Object struct {
	Name      string
	Size      int64
	CreatedAt time.Time
}

type SortBy string

const (
	SortByName      SortBy = "name"       // ascending
	SortByCreatedAt SortBy = "created_at" // newest first
)

type UploadOptions struct {
	Overwrite bool
}

type ListOptions struct {
	Prefix string
	Limit  int // 0 means unlimited
	SortBy SortBy
}

// Bucket is a flat namespace of named binary objects with public URLs.
type Bucket interface {
	Name() string
	Upload(ctx context.Context, name string, r io.Reader, opts UploadOptions) (Object, error)
	List(ctx context.Context, opts ListOptions) ([]Object, error)
	PublicURL(name string) string
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// SanitizeName turns an uploaded file name into an object name: directory
// components are dropped and whitespace runs become underscores.
func SanitizeName(name string) (string, error) {
	name = strings.ReplaceAll(name, `\`, "/")
	name = path.Base(strings.TrimSpace(name))
	name = whitespaceRun.ReplaceAllString(name, "_")
	if name == "" || name == "." || name == ".." || name == "/" || strings.HasPrefix(name, tempPrefix) {
		return "", ErrInvalidName
	}
	return name, nil
}

// publicURL builds {base}/storage/v1/object/public/{bucket}/{name}.
func publicURL(base, bucket, name string) string {
	return strings.TrimRight(base, "/") + PublicPathPrefix(bucket) + url.PathEscape(name)
}

// PublicPathPrefix is the URL path under which objects of bucket are served.
func PublicPathPrefix(bucket string) string {
	return "/storage/v1/object/public/" + bucket + "/"
}

// listable reports whether a directory entry should appear in listings.
func listable(name string, prefix string) bool {
	if name == PlaceholderName || strings.HasPrefix(name, tempPrefix) {
		return false
	}
	return strings.HasPrefix(name, prefix)
}

// Servable reports whether name is a flat object name that listings would
// show, and so may be served publicly.
func Servable(name string) bool {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return false
	}
	return listable(name, "")
}

func sortAndLimit(objects []Object, opts ListOptions) []Object {
	switch opts.SortBy {
	case SortByCreatedAt:
		sort.SliceStable(objects, func(i, j int) bool {
			if objects[i].CreatedAt.Equal(objects[j].CreatedAt) {
				return objects[i].Name < objects[j].Name
			}
			return objects[i].CreatedAt.After(objects[j].CreatedAt)
		})
	default:
		sort.SliceStable(objects, func(i, j int) bool { return objects[i].Name < objects[j].Name })
	}
	if opts.Limit > 0 && len(objects) > opts.Limit {
		objects = objects[:opts.Limit]
	}
	return objects
}
