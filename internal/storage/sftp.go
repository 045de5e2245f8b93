package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"inventory-service/internal/config"
)

// SFTPBucket stores objects in a directory of a remote SFTP server.
type SFTPBucket struct {
	client     *sftp.Client
	conn       io.Closer
	name       string
	dir        string
	publicBase string
}

// NewSFTPBucket wraps an established SFTP client. Objects live in dir/name.
func NewSFTPBucket(client *sftp.Client, dir, name, publicBase string) (*SFTPBucket, error) {
	bucketDir := path.Join(dir, name)
	if err := client.MkdirAll(bucketDir); err != nil {
		return nil, fmt.Errorf("storage: failed to create remote bucket directory: %w", err)
	}
	return &SFTPBucket{client: client, name: name, dir: bucketDir, publicBase: publicBase}, nil
}

// DialSFTP connects to the configured server with password authentication.
func DialSFTP(cfg config.SFTPConfig, name, publicBase string) (*SFTPBucket, error) {
	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if cfg.HostKey != "" {
		key, _, _, _, err := ssh.ParseAuthorizedKey([]byte(cfg.HostKey))
		if err != nil {
			return nil, fmt.Errorf("storage: invalid SFTP_HOST_KEY: %w", err)
		}
		hostKeyCallback = ssh.FixedHostKey(key)
	}

	sshConn, err := ssh.Dial("tcp", cfg.Addr, &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            []ssh.AuthMethod{ssh.Password(cfg.Password)},
		HostKeyCallback: hostKeyCallback,
		Timeout:         10 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: failed to dial %s: %w", cfg.Addr, err)
	}
	client, err := sftp.NewClient(sshConn)
	if err != nil {
		sshConn.Close()
		return nil, fmt.Errorf("storage: failed to start sftp session: %w", err)
	}
	bucket, err := NewSFTPBucket(client, cfg.Dir, name, publicBase)
	if err != nil {
		client.Close()
		sshConn.Close()
		return nil, err
	}
	bucket.conn = sshConn
	return bucket, nil
}

func (b *SFTPBucket) Name() string { return b.name }

func (b *SFTPBucket) PublicURL(name string) string {
	return publicURL(b.publicBase, b.name, name)
}

// Upload checks for an existing object before writing when overwrite is off.
// The check and the write are not atomic on the server.
func (b *SFTPBucket) Upload(ctx context.Context, name string, r io.Reader, opts UploadOptions) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	name, err := SanitizeName(name)
	if err != nil {
		return Object{}, err
	}
	target := path.Join(b.dir, name)

	if !opts.Overwrite {
		_, err := b.client.Stat(target)
		if err == nil {
			return Object{}, ErrObjectExists
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return Object{}, fmt.Errorf("storage: failed to stat %s: %w", name, err)
		}
	}

	f, err := b.client.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return Object{}, fmt.Errorf("storage: failed to open %s: %w", name, err)
	}
	size, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		_ = b.client.Remove(target)
		return Object{}, fmt.Errorf("storage: failed to write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return Object{}, fmt.Errorf("storage: failed to close %s: %w", name, err)
	}

	obj := Object{Name: name, Size: size, CreatedAt: time.Now()}
	if info, err := b.client.Stat(target); err == nil {
		obj.CreatedAt = info.ModTime()
	}
	return obj, nil
}

func (b *SFTPBucket) List(ctx context.Context, opts ListOptions) ([]Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	infos, err := b.client.ReadDir(b.dir)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to list bucket %s: %w", b.name, err)
	}
	objects := make([]Object, 0, len(infos))
	for _, info := range infos {
		if info.IsDir() || !listable(info.Name(), opts.Prefix) {
			continue
		}
		objects = append(objects, Object{Name: info.Name(), Size: info.Size(), CreatedAt: info.ModTime()})
	}
	return sortAndLimit(objects, opts), nil
}

// Close ends the SFTP session and the underlying SSH connection.
func (b *SFTPBucket) Close() error {
	err := b.client.Close()
	if b.conn != nil {
		if cerr := b.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
