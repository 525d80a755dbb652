// Package uploads stores car images on local disk and hands back the
// references recorded on car records.
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

	"github.com/AtharvaManchalkar/DriveOps/internal/domain"
)

// URLPrefix is where the router serves Dir; references start with it.
const URLPrefix = "/uploads"

var allowed = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// Store writes uploaded images into Dir.
type Store struct {
	Dir       string
	MaxBytes  int64
	MaxImages int

	now func() time.Time
}

// New returns a Store rooted at dir, creating the directory if needed.
func New(dir string, maxBytes int64, maxImages int) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{Dir: dir, MaxBytes: maxBytes, MaxImages: maxImages, now: time.Now}, nil
}

func invalid(format string, args ...any) error {
	return &domain.ValidationError{Field: "images", Reason: fmt.Sprintf(format, args...)}
}

// SaveAll stores files in order and returns their references. Nothing is
// left on disk when any file is rejected.
func (s *Store) SaveAll(files []*multipart.FileHeader) ([]string, error) {
	if s.MaxImages > 0 && len(files) > s.MaxImages {
		return nil, invalid("at most %d images per request", s.MaxImages)
	}
	refs := make([]string, 0, len(files))
	for _, fh := range files {
		ref, err := s.Save(fh)
		if err != nil {
			s.Remove(refs)
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// Save stores one file after sniffing its content type. The file is named
// <unix-millis>-<uuid><ext>.
func (s *Store) Save(fh *multipart.FileHeader) (string, error) {
	if s.MaxBytes > 0 && fh.Size > s.MaxBytes {
		return "", invalid("%s exceeds %d bytes", fh.Filename, s.MaxBytes)
	}
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	mt, err := mimetype.DetectReader(src)
	if err != nil {
		return "", err
	}
	if !allowed[mt.String()] {
		return "", invalid("%s: only JPEG, PNG and GIF images are accepted", fh.Filename)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	name := fmt.Sprintf("%d-%s%s", s.now().UnixMilli(), uuid.NewString(), mt.Extension())
	dst, err := os.OpenFile(filepath.Join(s.Dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(dst.Name())
		return "", err
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(dst.Name())
		return "", err
	}
	return path.Join(URLPrefix, name), nil
}

// Remove deletes stored files by reference. Missing files and references
// outside the store are ignored.
func (s *Store) Remove(refs []string) {
	for _, ref := range refs {
		if p, ok := s.pathOf(ref); ok {
			_ = os.Remove(p)
		}
	}
}

func (s *Store) pathOf(ref string) (string, bool) {
	name := strings.TrimPrefix(ref, URLPrefix+"/")
	if name == ref || name == "" || strings.ContainsAny(name, `/\`) {
		return "", false
	}
	return filepath.Join(s.Dir, name), true
}
