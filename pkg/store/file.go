package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/scanwf/scanwf/pkg/constants"
	"github.com/scanwf/scanwf/pkg/fileutil"
	"github.com/scanwf/scanwf/pkg/logger"
)

var fileLog = logger.New("store:file")

// File stores the workflow as a file in a directory. Changing the filename
// points later reads and writes at the new file; the old file is left alone.
type File struct {
	dir  string
	name string
}

var _ Store = (*File)(nil)

// NewFile returns a File store for name inside dir. An empty dir means the
// workflows directory of the current repository.
func NewFile(dir, name string) (*File, error) {
	if dir == "" {
		dir = constants.GetWorkflowDir()
	}
	if name == "" {
		return nil, ErrEmptyFilename
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workflow directory %s: %w", dir, err)
	}
	return &File{dir: abs, name: name}, nil
}

// Path returns the absolute path of the current file.
func (f *File) Path() string {
	return filepath.Join(f.dir, f.name)
}

func (f *File) Get() (string, error) {
	path, err := fileutil.ValidateAbsolutePath(f.Path())
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		fileLog.Printf("No workflow at %s yet", path)
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

func (f *File) Set(text string) error {
	path, err := fileutil.ValidateAbsolutePath(f.Path())
	if err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(path, []byte(text), 0o644)
}

func (f *File) Filename() string {
	return f.name
}

func (f *File) SetFilename(name string) error {
	if name == "" {
		return ErrEmptyFilename
	}
	fileLog.Printf("Filename changed: %s -> %s", f.name, name)
	f.name = name
	return nil
}
