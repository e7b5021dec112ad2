package mcache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
	"github.com/vmihailenco/msgpack/v5"

	"smap/internal/mappings"
)

// Current schema version - increment when entry format changes
const schemaVersion uint16 = 1

// Key identifies a mappings string by its SHA-256 digest.
type Key [sha256.Size]byte

// KeyOf hashes a raw mappings string.
func KeyOf(raw string) Key {
	return sha256.Sum256([]byte(raw))
}

func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

// Cache stores decoded mappings on disk, keyed by the mappings string.
// A nil *Cache is valid and caches nothing.
// Thread-safe for concurrent access.
type Cache struct {
	mu  sync.RWMutex
	fs  afero.Fs
	dir string
}

type entry struct {
	Schema   uint16
	Count    int
	Mappings []mappings.Mapping
}

// Open initializes a cache under $XDG_CACHE_HOME/<app> (or ~/.cache/<app>).
func Open(app string) (*Cache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return OpenDir(filepath.Join(base, app))
}

// OpenDir initializes a cache rooted at dir on the OS filesystem.
func OpenDir(dir string) (*Cache, error) {
	return OpenFs(afero.NewOsFs(), dir)
}

// OpenFs initializes a cache rooted at dir on fs.
func OpenFs(fs afero.Fs, dir string) (*Cache, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{fs: fs, dir: dir}, nil
}

// Dir returns the cache root.
func (c *Cache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *Cache) pathFor(key Key) string {
	return filepath.Join(c.dir, "mappings", key.String()+".mp")
}

// Put writes list under key. The file is replaced atomically.
func (c *Cache) Put(key Key, list []mappings.Mapping) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := c.fs.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := afero.TempFile(c.fs, filepath.Dir(p), "tmp-")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = c.fs.Remove(tmp)
		}
	}()

	enc := msgpack.NewEncoder(f)
	if err = enc.Encode(&entry{Schema: schemaVersion, Count: len(list), Mappings: list}); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return c.fs.Rename(tmp, p)
}

// Get reads the mappings stored under key. Entries written with another
// schema version are reported as misses.
func (c *Cache) Get(key Key) ([]mappings.Mapping, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := c.fs.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var e entry
	if err := msgpack.NewDecoder(f).Decode(&e); err != nil {
		return nil, false, err
	}
	if e.Schema != schemaVersion || e.Count != len(e.Mappings) {
		return nil, false, nil
	}
	return e.Mappings, true, nil
}

// DropAll removes every cached entry.
func (c *Cache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	dir := filepath.Join(c.dir, "mappings")
	if _, err := c.fs.Stat(dir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return c.fs.RemoveAll(dir)
}
