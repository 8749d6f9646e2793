package compile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/poml-lang/poml/diag"
)

// Config controls how the driver selects and compiles documents.
type Config struct {
	// FailOn is the least severe diagnostic that makes a compile count
	// as failed.
	FailOn diag.Severity `yaml:"fail-on"`

	// Extensions lists the file suffixes compiled when walking
	// directories.
	Extensions []string `yaml:"extensions"`

	// Ignore lists path substrings excluded from directory walks.
	Ignore []string `yaml:"ignore"`

	// Workers bounds the number of concurrent compiles. Zero means one
	// worker per CPU.
	Workers int `yaml:"workers"`

	// CacheDir enables the on-disk diagnostic cache when non-empty.
	CacheDir string `yaml:"cache-dir"`
}

// DefaultConfig returns the configuration used when no file overrides it.
func DefaultConfig() Config {
	return Config{
		FailOn:     diag.SeverityError,
		Extensions: []string{".poml"},
	}
}

// LoadConfig reads a yaml configuration from path. Unknown keys are
// rejected; an empty file yields the defaults.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		return config, err
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil {
		if errors.Is(err, io.EOF) {
			return config, nil
		}
		return config, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return config, nil
}

func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

func (c Config) matchesExtension(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range c.Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func (c Config) ignored(path string) bool {
	for _, pattern := range c.Ignore {
		if pattern != "" && strings.Contains(path, pattern) {
			return true
		}
	}
	return false
}
