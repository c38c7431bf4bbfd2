package policy

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

var ErrUnknownDataType = errors.New("unknown data type")

// Catalog is the retention policy table every scan reads from.
type Catalog interface {
	Get() map[string]RetentionPolicy
	Update(dataType string, patch Patch) (RetentionPolicy, error)
}

// FileCatalog merges built-in defaults with administrator overrides stored
// in a YAML file. Overrides hold fully merged policies, so merge semantics
// survive restarts. An unreadable overrides file degrades to defaults.
type FileCatalog struct {
	path string

	mu        sync.RWMutex
	overrides map[string]RetentionPolicy
}

func NewFileCatalog(path string) *FileCatalog {
	c := &FileCatalog{path: path, overrides: map[string]RetentionPolicy{}}
	c.Reload()
	return c
}

func (c *FileCatalog) Get() map[string]RetentionPolicy {
	merged := Defaults()
	c.mu.RLock()
	defer c.mu.RUnlock()
	for dataType, pol := range c.overrides {
		if _, ok := merged[dataType]; !ok {
			continue
		}
		merged[dataType] = pol
	}
	return merged
}

func (c *FileCatalog) Update(dataType string, patch Patch) (RetentionPolicy, error) {
	current, ok := c.Get()[dataType]
	if !ok {
		return RetentionPolicy{}, fmt.Errorf("%w: %s", ErrUnknownDataType, dataType)
	}

	if patch.Category != nil {
		current.Category = *patch.Category
	}
	if patch.RetentionDays != nil {
		current.RetentionDays = *patch.RetentionDays
	}
	if patch.LegalBasis != nil {
		current.LegalBasis = *patch.LegalBasis
	}
	if patch.AutoDelete != nil {
		current.AutoDelete = *patch.AutoDelete
	}
	if patch.NotifyBeforeDays != nil {
		current.NotifyBeforeDays = *patch.NotifyBeforeDays
	}
	if patch.Description != nil {
		current.Description = *patch.Description
	}

	c.mu.Lock()
	c.overrides[dataType] = current
	snapshot := make(map[string]RetentionPolicy, len(c.overrides))
	for k, v := range c.overrides {
		snapshot[k] = v
	}
	c.mu.Unlock()

	if err := c.persist(snapshot); err != nil {
		slog.Warn("policy overrides persist failed", "path", c.path, "err", err)
	}
	return current, nil
}

// Reload replaces the in-memory overrides with the file contents. Missing
// or malformed files leave the catalog on defaults.
func (c *FileCatalog) Reload() {
	loaded := map[string]RetentionPolicy{}
	raw, err := os.ReadFile(c.path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, &loaded); err != nil {
			slog.Warn("policy overrides unreadable, using defaults", "path", c.path, "err", err)
			loaded = map[string]RetentionPolicy{}
		}
	case !os.IsNotExist(err):
		slog.Warn("policy overrides read failed, using defaults", "path", c.path, "err", err)
	}

	c.mu.Lock()
	c.overrides = loaded
	c.mu.Unlock()
}

func (c *FileCatalog) persist(overrides map[string]RetentionPolicy) error {
	raw, err := yaml.Marshal(overrides)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(c.path, raw, 0o644)
}
