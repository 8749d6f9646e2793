// Package compile drives the front end over files and directory trees:
// worker-pool batch compiles, a cross-run diagnostic cache, and change
// watching.
package compile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/poml-lang/poml"
	"github.com/poml-lang/poml/ast"
	"github.com/poml-lang/poml/diag"
	"github.com/poml-lang/poml/source"
)

// Report is the outcome of compiling one document. Cached reports carry
// diagnostics and settings but no file content or AST.
type Report struct {
	Path     string            `json:"path"`
	File     *source.File      `json:"-"`
	AST      *ast.Root         `json:"ast,omitempty"`
	Diags    []diag.Diagnostic `json:"diagnostics"`
	Settings Settings          `json:"settings"`
	Cached   bool              `json:"cached,omitempty"`
}

// Fails reports whether any diagnostic meets floor.
func (r *Report) Fails(floor diag.Severity) bool {
	for _, d := range r.Diags {
		if d.Severity.Meets(floor) {
			return true
		}
	}
	return false
}

// Source compiles an in-memory document: full front-end pipeline plus
// pragma interpretation.
func Source(path, content string) *Report {
	res := poml.ParseNamed(path, content)

	c := diag.NewCollector(res.File)
	settings := ExtractSettings(res.AST, c)

	return &Report{
		Path:     path,
		File:     res.File,
		AST:      res.AST,
		Diags:    append(res.Diags, c.All()...),
		Settings: settings,
	}
}

// File compiles one document from disk. The returned error covers I/O
// only; language problems land in the report's diagnostics.
func File(path string) (*Report, error) {
	file, err := source.Load(path)
	if err != nil {
		return nil, err
	}
	return Source(file.Path, file.Content), nil
}

// Paths compiles every matching document under the given files and
// directories. Directories are walked for cfg.Extensions and ignored
// patterns are skipped; explicitly named files compile regardless of
// extension. Files go through a bounded worker pool and reports come
// back sorted by path. On cancellation the reports collected so far are
// returned along with ctx.Err().
func Paths(ctx context.Context, logger *zap.Logger, paths []string, cfg Config) ([]*Report, error) {
	files, err := collectFiles(paths, cfg)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}

	var cache *Cache
	if cfg.CacheDir != "" {
		cache, err = NewCache(cfg.CacheDir)
		if err != nil {
			if logger != nil {
				logger.Warn("compile cache disabled", zap.Error(err))
			}
			cache = nil
		}
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
		reports  = make([]*Report, 0, len(files))
	)

	sem := make(chan struct{}, cfg.workers())
	bar := newProgressBar(len(files))

	for _, path := range files {
		select {
		case <-ctx.Done():
			wg.Wait()
			return reports, ctx.Err()
		default:
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(fp string) {
			defer wg.Done()
			defer func() { <-sem }()

			report, err := compileOne(fp, cache, logger)

			mu.Lock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				if logger != nil {
					logger.Error("compiling file", zap.String("file", fp), zap.Error(err))
				}
			} else {
				reports = append(reports, report)
			}
			mu.Unlock()
			_ = bar.Add(1)
		}(path)
	}

	wg.Wait()

	sort.Slice(reports, func(i, j int) bool { return reports[i].Path < reports[j].Path })
	return reports, firstErr
}

func compileOne(path string, cache *Cache, logger *zap.Logger) (*Report, error) {
	if cache != nil {
		if report, ok := cache.Get(path); ok {
			return report, nil
		}
	}

	report, err := File(path)
	if err != nil {
		return nil, err
	}

	if cache != nil {
		if err := cache.Set(path, report); err != nil && logger != nil {
			logger.Warn("caching compile result", zap.String("file", path), zap.Error(err))
		}
	}
	return report, nil
}

func collectFiles(paths []string, cfg Config) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("accessing %s: %w", path, err)
		}

		if !info.IsDir() {
			if !cfg.ignored(path) {
				files = append(files, path)
			}
			continue
		}

		err = filepath.Walk(path, func(filePath string, fileInfo os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if fileInfo.IsDir() {
				if cfg.ignored(filePath) {
					return filepath.SkipDir
				}
				return nil
			}
			if cfg.matchesExtension(filePath) && !cfg.ignored(filePath) {
				files = append(files, filePath)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", path, err)
		}
	}
	return files, nil
}

func newProgressBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("compiling"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
