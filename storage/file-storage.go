package storage

import (
	"io"
	"os"
	"path"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// ErrFileMissing is returned when a storage location has no bytes behind it.
var ErrFileMissing = errors.New("file not found in storage")

// FileStorage stores attachment bytes under opaque, slash-separated locations.
type FileStorage interface {
	// Create opens a new file for writing, creating parent directories.
	Create(location string) (io.WriteCloser, error)
	// Open returns a reader and the stored size. ErrFileMissing if absent.
	Open(location string) (io.ReadCloser, int64, error)
	Exists(location string) (bool, error)
	// Remove deletes the file. Removing a missing file is not an error.
	Remove(location string) error
}

// AferoStorage implements FileStorage on top of an afero filesystem.
type AferoStorage struct {
	fs afero.Fs
}

// NewDiskStorage stores files below root on the local disk.
func NewDiskStorage(root string) (*AferoStorage, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, errors.Wrapf(err, "create uploads directory %s", root)
	}
	return &AferoStorage{fs: afero.NewBasePathFs(afero.NewOsFs(), root)}, nil
}

// NewStorage wraps an arbitrary afero filesystem, e.g. afero.NewMemMapFs() in tests.
func NewStorage(fs afero.Fs) *AferoStorage {
	return &AferoStorage{fs: fs}
}

// clean roots location and rejects it when empty or when any segment is "..".
// Names that merely contain dots, such as "v1..2.pdf", are fine.
func clean(location string) (string, error) {
	p := path.Clean("/" + location)
	if p == "/" {
		return "", errors.Errorf("invalid storage location %q", location)
	}
	for _, segment := range strings.Split(strings.ReplaceAll(location, "\\", "/"), "/") {
		if segment == ".." {
			return "", errors.Errorf("invalid storage location %q", location)
		}
	}
	return p, nil
}

func (s *AferoStorage) Create(location string) (io.WriteCloser, error) {
	p, err := clean(location)
	if err != nil {
		return nil, err
	}
	if err := s.fs.MkdirAll(path.Dir(p), 0755); err != nil {
		return nil, errors.Wrapf(err, "create directory for %s", location)
	}
	f, err := s.fs.Create(p)
	if err != nil {
		return nil, errors.Wrapf(err, "create %s", location)
	}
	return f, nil
}

func (s *AferoStorage) Open(location string) (io.ReadCloser, int64, error) {
	p, err := clean(location)
	if err != nil {
		return nil, 0, err
	}
	f, err := s.fs.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, ErrFileMissing
		}
		return nil, 0, errors.Wrapf(err, "open %s", location)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, errors.Wrapf(err, "stat %s", location)
	}
	if info.IsDir() {
		f.Close()
		return nil, 0, ErrFileMissing
	}
	return f, info.Size(), nil
}

func (s *AferoStorage) Exists(location string) (bool, error) {
	p, err := clean(location)
	if err != nil {
		return false, err
	}
	ok, err := afero.Exists(s.fs, p)
	if err != nil {
		return false, errors.Wrapf(err, "stat %s", location)
	}
	return ok, nil
}

func (s *AferoStorage) Remove(location string) error {
	p, err := clean(location)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(p); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "remove %s", location)
	}
	return nil
}
