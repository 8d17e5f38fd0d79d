package runner

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/lcalzada-xor/fast/internal/core/domain"
	"gopkg.in/yaml.v3"
)

// exploitsFile mirrors the `exploits:` section of fast.yaml, decoded
// independently of ClientConfig so the loader can reread just that section
// on a file-change notification without re-validating connect/listener.
type exploitsFile struct {
	Exploits []domain.ExploitDefinition `yaml:"exploits"`
}

// DefinitionsLoader watches fast.yaml and keeps a DefinitionsCache current
// (§4.2). A parse failure is SchemaDrift (§7): the previous definitions set
// is retained and a warning logged.
type DefinitionsLoader struct {
	path   string
	cache  *DefinitionsCache
	logger *slog.Logger
}

// NewDefinitionsLoader builds a loader for the exploits section of path.
func NewDefinitionsLoader(path string, cache *DefinitionsCache, logger *slog.Logger) *DefinitionsLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefinitionsLoader{path: path, cache: cache, logger: logger}
}

func parseExploits(raw []byte) ([]domain.ExploitDefinition, error) {
	var f exploitsFile
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode exploits: %w", err)
	}
	for i, def := range f.Exploits {
		if def.Name == "" {
			return nil, fmt.Errorf("exploits[%d]: name is required", i)
		}
		if def.Module == "" && def.Run == "" {
			return nil, fmt.Errorf("exploit %q: exactly one of module or run is required", def.Name)
		}
		if def.Module != "" && def.Run != "" {
			return nil, fmt.Errorf("exploit %q: module and run are mutually exclusive", def.Name)
		}
		if !def.UsesAutoTargets() && len(def.Targets) == 0 {
			return nil, fmt.Errorf("exploit %q: targets must be non-empty or [\"auto\"]", def.Name)
		}
	}
	return f.Exploits, nil
}

// LoadOnce reads the file once and refreshes the cache, used at startup.
func (l *DefinitionsLoader) LoadOnce() {
	raw, err := os.ReadFile(l.path)
	if err != nil {
		l.logger.Warn("exploit definitions: read failed", "path", l.path, "error", err)
		return
	}
	_, changed, ok := l.cache.Refresh(raw, parseExploits)
	if !ok {
		l.logger.Warn("exploit definitions: invalid fast.yaml, keeping previous definitions (none if never loaded)")
		return
	}
	if changed {
		l.logger.Info("exploit definitions: loaded", "path", l.path)
	}
}

// Watch runs until ctx is cancelled, reloading on every write to the
// configured file (§9 "content-hash cache... invalidate proactively").
func (l *DefinitionsLoader) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("exploit definitions: create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(l.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("exploit definitions: watch dir %s: %w", dir, err)
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(l.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				// Editors often write in several bursts; a short debounce
				// avoids reparsing a half-written file.
				time.Sleep(50 * time.Millisecond)
				l.LoadOnce()
			}
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			l.logger.Warn("exploit definitions: watcher error", "error", werr)
		case <-ctx.Done():
			return nil
		}
	}
}
