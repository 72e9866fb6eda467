package storage

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// ErrNotFound indicates the key was never written.
var ErrNotFound = errors.New("not found")

// NVM is a small key/value non-volatile store.
type NVM interface {
	Read(key string) ([]byte, error)
	Write(key string, data []byte) error
}

// FileNVM keeps one file per key in Dir.
type FileNVM struct {
	Dir string
}

// Read implements NVM.
func (n *FileNVM) Read(key string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(n.Dir, key))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	return data, err
}

// Write implements NVM. The file is replaced atomically.
func (n *FileNVM) Write(key string, data []byte) error {
	if err := os.MkdirAll(n.Dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(n.Dir, "."+key+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err = tmp.Write(data); err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(n.Dir, key))
}

// MemNVM is a volatile NVM, used when no directory is configured.
type MemNVM struct {
	lock sync.Mutex
	data map[string][]byte
}

// Read implements NVM.
func (n *MemNVM) Read(key string) ([]byte, error) {
	n.lock.Lock()
	defer n.lock.Unlock()
	data, ok := n.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

// Write implements NVM.
func (n *MemNVM) Write(key string, data []byte) error {
	n.lock.Lock()
	defer n.lock.Unlock()
	if n.data == nil {
		n.data = make(map[string][]byte)
	}
	n.data[key] = append([]byte(nil), data...)
	return nil
}
