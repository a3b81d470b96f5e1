// Package files stores uploaded files on the local filesystem under the
// configured uploads root, one subfolder per feature.
package files

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	whitespaceRegex = regexp.MustCompile(`\s+`)
	unsafeRegex     = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)
)

const maxBaseLen = 80

// SafeName builds a stored filename from the client-provided original name:
// whitespace collapses to dashes, unsafe characters are stripped, the base
// is capped, and a timestamp plus uuid suffix keeps names unique. When
// nothing survives sanitization, fallback is used as the base.
func SafeName(originalName, fallback string) string {
	ext := filepath.Ext(originalName)
	base := strings.TrimSuffix(originalName, ext)
	base = whitespaceRegex.ReplaceAllString(base, "-")
	base = unsafeRegex.ReplaceAllString(base, "")
	if len(base) > maxBaseLen {
		base = base[:maxBaseLen]
	}
	if base == "" {
		base = fallback
	}
	return fmt.Sprintf("%s-%d-%s%s", base, time.Now().Unix(), uuid.New().String()[:8], ext)
}

// Store saves and removes uploads under a root directory.
type Store struct {
	root string
}

func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating uploads dir")
	}
	return &Store{root: root}, nil
}

// Root returns the uploads root directory.
func (s *Store) Root() string { return s.root }

// Save writes an uploaded part into the given subfolder and returns the
// stored filename.
func (s *Store) Save(folder string, fh *multipart.FileHeader, fallback string) (string, error) {
	dir := s.root
	if folder != "" {
		dir = filepath.Join(s.root, folder)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "creating upload folder")
	}

	src, err := fh.Open()
	if err != nil {
		return "", errors.Wrap(err, "opening upload")
	}
	defer src.Close()

	name := SafeName(fh.Filename, fallback)
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", errors.Wrap(err, "creating upload file")
	}
	defer dst.Close()

	if _, err = io.Copy(dst, src); err != nil {
		return "", errors.Wrap(err, "writing upload file")
	}
	return name, nil
}

// Remove deletes a stored file. Missing files are not an error.
func (s *Store) Remove(folder, filename string) error {
	if filename == "" {
		return nil
	}
	path := filepath.Join(s.root, folder, filepath.Base(filename))
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return errors.Wrap(err, "removing upload file")
}

// Path returns the absolute path of a stored file, or an error when it does
// not exist.
func (s *Store) Path(folder, filename string) (string, error) {
	path := filepath.Join(s.root, folder, filepath.Base(filename))
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}
