package compile

import (
	"crypto/md5"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/poml-lang/poml/diag"
)

const cacheFileName = "poml_cache.gob"

type fileMetadata struct {
	Hash         string
	LastModified time.Time
}

// CacheEntry is one remembered compile outcome.
type CacheEntry struct {
	Metadata     fileMetadata
	Diags        []diag.Diagnostic
	Settings     Settings
	CreatedAt    time.Time
	LastAccessed time.Time
}

// Cache remembers per-file compile outcomes across runs so unchanged
// files are not recompiled. Entries invalidate when the file's content
// hash or modification time moves, or when they outlive the max age.
type Cache struct {
	dir     string
	entries map[string]CacheEntry
	mutex   sync.RWMutex
	maxAge  time.Duration
}

// NewCache opens the cache rooted at dir, creating the directory and
// loading any previously saved entries.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	cache := &Cache{
		dir:     dir,
		entries: make(map[string]CacheEntry),
	}

	if err := cache.load(); err != nil {
		return nil, fmt.Errorf("loading cache: %w", err)
	}

	return cache, nil
}

func (c *Cache) load() error {
	file, err := os.Open(filepath.Join(c.dir, cacheFileName))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := gob.NewDecoder(file)
	if err := decoder.Decode(&c.entries); err != nil {
		return fmt.Errorf("decoding cache file: %w", err)
	}

	return nil
}

func (c *Cache) save() error {
	file, err := os.Create(filepath.Join(c.dir, cacheFileName))
	if err != nil {
		return fmt.Errorf("creating cache file: %w", err)
	}
	defer file.Close()

	encoder := gob.NewEncoder(file)
	if err := encoder.Encode(c.entries); err != nil {
		return fmt.Errorf("encoding cache file: %w", err)
	}

	return nil
}

// Set records the outcome of compiling path.
func (c *Cache) Set(path string, report *Report) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	metadata, err := getFileMetadata(path)
	if err != nil {
		return fmt.Errorf("reading file metadata: %w", err)
	}

	c.entries[path] = CacheEntry{
		Metadata:     metadata,
		Diags:        report.Diags,
		Settings:     report.Settings,
		CreatedAt:    time.Now(),
		LastAccessed: time.Now(),
	}

	return c.save()
}

// Get returns the remembered report for path if the file is unchanged.
func (c *Cache) Get(path string) (*Report, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[path]
	if !exists {
		return nil, false
	}

	if c.isEntryInvalid(path, entry) {
		delete(c.entries, path)
		return nil, false
	}

	entry.LastAccessed = time.Now()
	c.entries[path] = entry

	return &Report{
		Path:     path,
		Diags:    entry.Diags,
		Settings: entry.Settings,
		Cached:   true,
	}, true
}

func (c *Cache) isEntryInvalid(path string, entry CacheEntry) bool {
	if c.maxAge > 0 && time.Since(entry.CreatedAt) > c.maxAge {
		return true
	}

	current, err := getFileMetadata(path)
	if err != nil || current != entry.Metadata {
		return true
	}

	return false
}

// SetMaxAge bounds how long entries stay valid. Zero means no limit.
func (c *Cache) SetMaxAge(d time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.maxAge = d
}

// InvalidateAll drops every entry and persists the empty cache.
func (c *Cache) InvalidateAll() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries = make(map[string]CacheEntry)
	_ = c.save()
}

func getFileMetadata(path string) (fileMetadata, error) {
	file, err := os.Open(path)
	if err != nil {
		return fileMetadata{}, err
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		return fileMetadata{}, err
	}

	info, err := file.Stat()
	if err != nil {
		return fileMetadata{}, err
	}

	return fileMetadata{
		Hash:         fmt.Sprintf("%x", hash.Sum(nil)),
		LastModified: info.ModTime(),
	}, nil
}
