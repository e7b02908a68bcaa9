package cache

import (
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// Current schema version - increment when diskPayload format changes
const diskSchemaVersion uint16 = 1

// Disk persists entries under the user cache directory so results survive
// server restarts. Thread-safe for concurrent access.
type Disk struct {
	mu  sync.RWMutex
	dir string
}

type diskPayload struct {
	Schema uint16
	Entry  Entry
}

// OpenDisk initializes a disk cache at dir, or at the standard
// XDG_CACHE_HOME location when dir is empty.
func OpenDisk(app, dir string) (*Disk, error) {
	if dir == "" {
		base := os.Getenv("XDG_CACHE_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			base = filepath.Join(home, ".cache")
		}
		dir = filepath.Join(base, app)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Disk{dir: dir}, nil
}

func (d *Disk) pathFor(key Key) string {
	hexKey := hex.EncodeToString(key[:])
	// подкаталог для удобства очистки
	return filepath.Join(d.dir, "passes", hexKey+".mp")
}

// Put serializes and writes an entry atomically (temp file + rename).
func (d *Disk) Put(key Key, entry *Entry) error {
	if d == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	p := d.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(diskPayload{Schema: diskSchemaVersion, Entry: *entry}); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), p)
}

// Get reads an entry from disk. A missing file or a schema mismatch is a
// clean miss, not an error.
func (d *Disk) Get(key Key, out *Entry) (bool, error) {
	if d == nil {
		return false, nil
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	f, err := os.Open(d.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	var payload diskPayload
	if err := msgpack.NewDecoder(f).Decode(&payload); err != nil {
		return false, err
	}
	if payload.Schema != diskSchemaVersion {
		return false, nil
	}
	*out = payload.Entry
	return true, nil
}
