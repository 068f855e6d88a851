// Package documents stores uploaded KYC evidence on the local filesystem and
// hands back retrieval URLs served under /files.
package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	dErrors "kycdesk/pkg/domain-errors"
)

// URLPrefix is the path under which stored files are served.
const URLPrefix = "/files/"

// Stored describes a persisted file.
type Stored struct {
	Name string
	URL  string
	Size int64
}

// LocalStorage writes files into a single directory.
type LocalStorage struct {
	dir      string
	maxBytes int64
}

// NewLocalStorage creates dir when missing.
func NewLocalStorage(dir string, maxBytes int64) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStorage{dir: dir, maxBytes: maxBytes}, nil
}

// Dir is the directory files are written to.
func (s *LocalStorage) Dir() string { return s.dir }

// Save copies r into a uniquely named file derived from originalName.
func (s *LocalStorage) Save(ctx context.Context, originalName string, r io.Reader) (*Stored, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := StoredName(uuid.NewString(), originalName)
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("create stored file: %w", err)
	}
	n, copyErr := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write stored file: %w", err)
	}
	switch {
	case n == 0:
		_ = os.Remove(path)
		return nil, dErrors.New(dErrors.CodeValidation, "file is empty")
	case n > s.maxBytes:
		_ = os.Remove(path)
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("file exceeds %d bytes", s.maxBytes))
	}
	return &Stored{Name: name, URL: URLPrefix + name, Size: n}, nil
}

// Delete removes a stored file by its URL. Missing files are ignored.
func (s *LocalStorage) Delete(_ context.Context, url string) error {
	name := strings.TrimPrefix(url, URLPrefix)
	if name == "" || name != filepath.Base(name) {
		return nil
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete stored file: %w", err)
	}
	return nil
}

// StoredName builds "<id>_<slug>.<ext>" so names are unique and safe to
// serve while staying recognisable.
func StoredName(id, originalName string) string {
	base := filepath.Base(originalName)
	ext := strings.ToLower(filepath.Ext(base))
	stem := slug.Make(strings.TrimSuffix(base, filepath.Ext(base)))
	if stem == "" {
		stem = "document"
	}
	if ext != "" && slug.Make(ext[1:]) != ext[1:] {
		ext = ""
	}
	return id + "_" + stem + ext
}
