package runner

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/dgraph-io/ristretto"
	"github.com/lcalzada-xor/fast/internal/core/domain"
)

const definitionsCacheKey = "exploit-definitions"

// DefinitionsCache is the single-slot content-hash cache backing the
// Exploit Launcher's per-tick snapshot (§4.2): it reparses fast.yaml's
// exploits section only when the file's bytes actually changed, and keeps
// serving the previous definitions set on a parse failure (§7 SchemaDrift).
type DefinitionsCache struct {
	store *ristretto.Cache
	mu    sync.Mutex
	hash  string
	valid bool
}

// NewDefinitionsCache builds an empty cache.
func NewDefinitionsCache() (*DefinitionsCache, error) {
	store, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 100,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &DefinitionsCache{store: store}, nil
}

// Refresh is called whenever the loader observes new file bytes. parse is
// invoked only if the content hash differs from what's cached; on parse
// failure the previous definitions (if any) are kept and ok=false is
// returned to signal SchemaDrift to the caller.
func (c *DefinitionsCache) Refresh(raw []byte, parse func([]byte) ([]domain.ExploitDefinition, error)) (defs []domain.ExploitDefinition, changed bool, ok bool) {
	sum := sha256.Sum256(raw)
	newHash := hex.EncodeToString(sum[:])

	c.mu.Lock()
	defer c.mu.Unlock()

	if newHash == c.hash && c.valid {
		cached, _ := c.current()
		return cached, false, true
	}

	parsed, err := parse(raw)
	if err != nil {
		// SchemaDrift: keep serving the previous value, if any.
		cached, _ := c.current()
		return cached, false, false
	}

	c.hash = newHash
	c.valid = true
	c.store.Set(definitionsCacheKey, parsed, int64(len(raw)))
	c.store.Wait()
	return parsed, true, true
}

func (c *DefinitionsCache) current() ([]domain.ExploitDefinition, bool) {
	val, found := c.store.Get(definitionsCacheKey)
	if !found {
		return nil, false
	}
	defs, ok := val.([]domain.ExploitDefinition)
	return defs, ok
}

// Snapshot returns the most recently cached definitions set. ok is false
// when no definitions have ever loaded successfully (§4.2 "tick is a
// no-op with a warning").
func (c *DefinitionsCache) Snapshot() ([]domain.ExploitDefinition, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.valid {
		return nil, false
	}
	return c.current()
}
