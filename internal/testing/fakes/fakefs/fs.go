// Package fakefs provides an in-memory FileSystem implementation for testing.
package fakefs

import (
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/acolita/term-relay-mcp/internal/ports"
)

// FS is an in-memory filesystem for testing.
type FS struct {
	mu      sync.RWMutex
	files   map[string]*fakeFile
	dirs    map[string]bool
	homeDir string
	env     map[string]string
}

type fakeFile struct {
	data    []byte
	mode    fs.FileMode
	modTime time.Time
}

// New creates a new in-memory filesystem.
func New() *FS {
	return &FS{
		files:   make(map[string]*fakeFile),
		dirs:    map[string]bool{"/": true},
		homeDir: "/home/test",
		env:     make(map[string]string),
	}
}

// SetHomeDir overrides the reported home directory.
func (f *FS) SetHomeDir(dir string) {
	f.mu.Lock()
	f.homeDir = dir
	f.mu.Unlock()
}

// SetEnv sets a fake environment variable.
func (f *FS) SetEnv(key, value string) {
	f.mu.Lock()
	f.env[key] = value
	f.mu.Unlock()
}

func (f *FS) ReadFile(name string) ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	name = filepath.Clean(name)
	file, ok := f.files[name]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	data := make([]byte, len(file.data))
	copy(data, file.data)
	return data, nil
}

// WriteFile writes data to the named file. Parent directories are created
// implicitly, unlike os.WriteFile, which keeps tests short.
func (f *FS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	name = filepath.Clean(name)
	f.mkdirAllLocked(filepath.Dir(name))

	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)
	f.files[name] = &fakeFile{data: dataCopy, mode: perm, modTime: time.Now()}
	return nil
}

func (f *FS) Stat(name string) (fs.FileInfo, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	name = filepath.Clean(name)
	if f.dirs[name] {
		return &fakeFileInfo{name: filepath.Base(name), mode: fs.ModeDir | 0755, isDir: true}, nil
	}
	file, ok := f.files[name]
	if !ok {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
	}
	return &fakeFileInfo{
		name:    filepath.Base(name),
		size:    int64(len(file.data)),
		mode:    file.mode,
		modTime: file.modTime,
	}, nil
}

func (f *FS) MkdirAll(path string, perm fs.FileMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mkdirAllLocked(path)
	return nil
}

func (f *FS) Rename(oldpath, newpath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	oldpath = filepath.Clean(oldpath)
	newpath = filepath.Clean(newpath)
	file, ok := f.files[oldpath]
	if !ok {
		return &fs.PathError{Op: "rename", Path: oldpath, Err: fs.ErrNotExist}
	}
	f.mkdirAllLocked(filepath.Dir(newpath))
	f.files[newpath] = file
	delete(f.files, oldpath)
	return nil
}

func (f *FS) UserHomeDir() (string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.homeDir, nil
}

func (f *FS) Getenv(key string) string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.env[key]
}

func (f *FS) mkdirAllLocked(path string) {
	path = filepath.Clean(path)
	for path != "/" && path != "." {
		f.dirs[path] = true
		path = filepath.Dir(path)
	}
}

type fakeFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
	isDir   bool
}

func (i *fakeFileInfo) Name() string       { return i.name }
func (i *fakeFileInfo) Size() int64        { return i.size }
func (i *fakeFileInfo) Mode() fs.FileMode  { return i.mode }
func (i *fakeFileInfo) ModTime() time.Time { return i.modTime }
func (i *fakeFileInfo) IsDir() bool        { return i.isDir }
func (i *fakeFileInfo) Sys() any           { return nil }

var _ ports.FileSystem = (*FS)(nil)
