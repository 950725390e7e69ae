// Package uploads stores profile images on local disk under a public prefix.
package uploads

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/safar/delivery-admin/internal/apperr"
)

const profilesSubdir = "profiles"

type Store struct {
	root     string
	prefix   string
	maxBytes int64
	now      func() time.Time
}

// NewStore creates <root>/profiles if needed. root is expected to be served
// under publicPrefix.
func NewStore(root, publicPrefix string, maxBytes int64) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(root, profilesSubdir), 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &Store{
		root:     root,
		prefix:   strings.Trim(publicPrefix, "/"),
		maxBytes: maxBytes,
		now:      time.Now,
	}, nil
}

// Root is the directory that should be served under the public prefix.
func (s *Store) Root() string {
	return s.root
}

// SaveProfileImage sniffs the upload, rejects anything that is not an image
// and writes it as profiles/profile-<unix-ms>-<random><ext>. The returned
// reference is the public path without its leading slash, e.g.
// "uploads/profiles/profile-1700000000000-1a2b3c4d5e6f.png".
func (s *Store) SaveProfileImage(fh *multipart.FileHeader) (string, error) {
	if fh.Size > s.maxBytes {
		return "", apperr.Validation(fmt.Sprintf("Profile image must be at most %d bytes", s.maxBytes),
			map[string]string{"profileImage": "file too large"})
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	mtype, err := mimetype.DetectReader(src)
	if err != nil {
		return "", fmt.Errorf("detect upload type: %w", err)
	}
	// SVG is an image type that can carry script.
	if !strings.HasPrefix(mtype.String(), "image/") || mtype.Is("image/svg+xml") {
		return "", apperr.Validation("Only image files are allowed!",
			map[string]string{"profileImage": "must be an image, got " + mtype.String()})
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}

	name := s.fileName(mtype)
	dst, err := os.OpenFile(filepath.Join(s.root, profilesSubdir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}

	// One byte past the limit is enough to notice a lying Size header.
	n, err := io.Copy(dst, io.LimitReader(src, s.maxBytes+1))
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && n > s.maxBytes {
		err = apperr.Validation(fmt.Sprintf("Profile image must be at most %d bytes", s.maxBytes),
			map[string]string{"profileImage": "file too large"})
	}
	if err != nil {
		os.Remove(filepath.Join(s.root, profilesSubdir, name))
		return "", err
	}

	return path.Join(s.prefix, profilesSubdir, name), nil
}

// Remove deletes a file previously returned by SaveProfileImage. Unknown
// references are ignored.
func (s *Store) Remove(ref string) error {
	name := path.Base(ref)
	if name == "." || name == "/" {
		return nil
	}
	err := os.Remove(filepath.Join(s.root, profilesSubdir, name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}

// fileName takes the extension from the sniffed type, never from the
// client's file name, so the static server answers with an image type.
func (s *Store) fileName(mtype *mimetype.MIME) string {
	ext := mtype.Extension()
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("profile-%d-%s%s", s.now().UnixMilli(), suffix, ext)
}
