// Package blob stores attachment and avatar files on the local
// filesystem and hands out stable refs and URLs for them.
package blob

import (
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/loftchat/loft/internal/types"
)

// Store is a filesystem-backed blob store rooted at one directory.
type Store struct {
	root string
	logf func(format string, args ...any)
}

// DefaultRoot is where blobs live for the local workspace.
func DefaultRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "loft", "blobs"), nil
}

// Open creates the root directory if needed and returns the store.
func Open(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("open blob store: %w", err)
	}
	return &Store{
		root: root,
		logf: func(format string, args ...any) { fmt.Fprintf(os.Stderr, "[blob] "+format+"\n", args...) },
	}, nil
}

// Upload writes the content under a fresh ref and returns it. The ref
// is the stable storage path used for later download and deletion.
func (s *Store) Upload(name string, r io.Reader) (string, int64, error) {
	ref := filepath.Join(uuid.NewString(), sanitizeName(name))
	full := filepath.Join(s.root, ref)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", 0, fmt.Errorf("upload %s: %w", name, err)
	}
	f, err := os.Create(full)
	if err != nil {
		return "", 0, fmt.Errorf("upload %s: %w", name, err)
	}
	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(full)
		return "", 0, fmt.Errorf("upload %s: %w", name, err)
	}
	return ref, size, nil
}

// DownloadURL returns a file URL for a ref.
func (s *Store) DownloadURL(ref string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(filepath.Join(s.root, ref))}
	return u.String()
}

// Delete removes a blob.
func (s *Store) Delete(ref string) error {
	if ref == "" {
		return nil
	}
	if err := os.Remove(filepath.Join(s.root, ref)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete %s: %w", ref, err)
	}
	// Drop the per-upload directory when it's now empty.
	_ = os.Remove(filepath.Dir(filepath.Join(s.root, ref)))
	return nil
}

// DeleteBestEffort removes superseded blobs (old avatars, replaced
// thumbnails). Failures are logged and swallowed so the metadata
// update that superseded them always proceeds.
func (s *Store) DeleteBestEffort(refs ...string) {
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if err := s.Delete(ref); err != nil {
			s.logf("best-effort delete %s: %v", ref, err)
		}
	}
}

// BuildAttachment assembles attachment metadata for an uploaded blob.
func (s *Store) BuildAttachment(name string, size int64, ref string) types.Attachment {
	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return types.Attachment{
		ID:          ref,
		Name:        filepath.Base(name),
		Size:        size,
		ContentType: contentType,
		URL:         s.DownloadURL(ref),
		StoragePath: &ref,
	}
}

// FormatSize renders an attachment size for display.
func FormatSize(size int64) string {
	if size < 0 {
		size = 0
	}
	return humanize.Bytes(uint64(size))
}

func sanitizeName(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "file"
	}
	return base
}
