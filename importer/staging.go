package importer

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Staging is the directory uploads are written to while they are imported.
type Staging struct {
	dir string
}

func NewStaging(dir string) (*Staging, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	return &Staging{dir: dir}, nil
}

func (s *Staging) Dir() string { return s.dir }

// Upload is a staged file. The holder must call Release once it is done.
type Upload struct {
	Path string
	Name string
}

// Save copies src into a new file under the staging directory.
func (s *Staging) Save(src io.Reader, originalName string) (*Upload, error) {
	name := uuid.NewString() + filepath.Ext(originalName)
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create staged file: %w", err)
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("write staged file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("close staged file: %w", err)
	}
	return &Upload{Path: path, Name: originalName}, nil
}

func (u *Upload) Open() (*os.File, error) {
	return os.Open(u.Path)
}

// Release removes the staged file. Releasing twice is not an error.
func (u *Upload) Release() error {
	if err := os.Remove(u.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
