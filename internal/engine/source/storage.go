package source

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"ngstandalone/internal/shared/util"
)

// Storage is the backing store files are read from and flushed to.
type Storage interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte) error
	// Walk lists the files below root. Directories for which skipDir returns
	// true are not descended into.
	Walk(root string, skipDir func(name string) bool) ([]string, error)
}

// DiskStorage reads and writes the local filesystem. Paths are slash paths.
type DiskStorage struct{}

func (DiskStorage) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(filepath.FromSlash(path))
}

// WriteFile keeps the existing file mode; new files get 0644.
func (DiskStorage) WriteFile(path string, data []byte) error {
	native := filepath.FromSlash(path)
	perm := os.FileMode(0o644)
	if info, err := os.Stat(native); err == nil {
		perm = info.Mode().Perm()
	}
	return util.WriteFileWithDirs(native, data, perm)
}

func (DiskStorage) Walk(root string, skipDir func(name string) bool) ([]string, error) {
	var files []string
	nativeRoot := filepath.FromSlash(root)
	err := filepath.WalkDir(nativeRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != nativeRoot && skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		files = append(files, filepath.ToSlash(p))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// MemoryStorage keeps files in memory. Used for dry runs and tests.
type MemoryStorage struct {
	mu     sync.Mutex
	files  map[string][]byte
	writes []string
	fail   map[string]error
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		files: make(map[string][]byte),
		fail:  make(map[string]error),
	}
}

func (m *MemoryStorage) Put(path string, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[cleanPath(path)] = []byte(content)
}

func (m *MemoryStorage) Get(path string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[cleanPath(path)]
	return string(data), ok
}

// Paths lists stored files in sorted order.
func (m *MemoryStorage) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.files))
	for p := range m.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Writes returns the paths written so far, in write order.
func (m *MemoryStorage) Writes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.writes...)
}

// FailWrites makes every later write to path return err.
func (m *MemoryStorage) FailWrites(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[cleanPath(path)] = err
}

func (m *MemoryStorage) ReadFile(path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[cleanPath(path)]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, os.ErrNotExist)
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryStorage) WriteFile(path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := cleanPath(path)
	if err := m.fail[key]; err != nil {
		return err
	}
	m.files[key] = append([]byte(nil), data...)
	m.writes = append(m.writes, key)
	return nil
}

func (m *MemoryStorage) Walk(root string, skipDir func(name string) bool) ([]string, error) {
	root = cleanPath(root)
	var files []string
	for _, p := range m.Paths() {
		rel := p
		if root != "." {
			if !strings.HasPrefix(p, root+"/") {
				continue
			}
			rel = strings.TrimPrefix(p, root+"/")
		}
		skipped := false
		for _, dir := range strings.Split(path.Dir(rel), "/") {
			if dir != "." && skipDir(dir) {
				skipped = true
				break
			}
		}
		if !skipped {
			files = append(files, p)
		}
	}
	return files, nil
}
