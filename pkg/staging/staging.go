// Package staging moves an uploaded artifact from transient memory into
// durable blob storage via a short-lived scratch file on local disk. The
// scratch copy is removed on every path; the hosting environment also
// reclaims the scratch dir on its own schedule, so cleanup failures are
// logged rather than propagated.
package staging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyArtifact = errors.New("artifact content is empty")
	ErrUploadFailed  = errors.New("artifact upload failed")
)

// BlobStore is the durable storage collaborator. pkg/cloudinary.Client
// satisfies it.
type BlobStore interface {
	UploadImage(ctx context.Context, file io.Reader, folder, publicID string) (string, error)
}

// Stager writes artifact bytes to a uniquely named scratch file and hands
// the file to the blob store. prefix distinguishes scratch files from
// different flows sharing one dir (payment screenshots, product images).
type Stager struct {
	dir    string
	folder string
	prefix string
	store  BlobStore
}

// New builds a Stager. dir defaults to os.TempDir().
func New(dir, folder, prefix string, store BlobStore) *Stager {
	if dir == "" {
		dir = os.TempDir()
	}
	if prefix == "" {
		prefix = "artifact"
	}
	return &Stager{dir: dir, folder: folder, prefix: prefix, store: store}
}

// Stage writes content to a scratch file, uploads it, and returns the durable
// URL. The scratch file is removed whether or not the upload succeeds.
func (s *Stager) Stage(ctx context.Context, content []byte) (string, error) {
	if len(content) == 0 {
		return "", ErrEmptyArtifact
	}
	// Nanosecond timestamp plus a random suffix: two uploads in the same
	// instant cannot collide on the scratch name.
	name := fmt.Sprintf("%s-%d-%s.jpg", s.prefix, time.Now().UnixNano(), shortID())
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return "", fmt.Errorf("%w: scratch write: %v", ErrUploadFailed, err)
	}
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("[staging] failed to remove scratch file %s: %v", path, err)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: scratch read: %v", ErrUploadFailed, err)
	}
	defer f.Close()

	publicID := strings.TrimSuffix(name, filepath.Ext(name))
	url, err := s.store.UploadImage(ctx, f, s.folder, publicID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return url, nil
}

func shortID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}
