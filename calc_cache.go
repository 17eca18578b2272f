package loadout

import "sync"

// ProgramCache stores compiled calculation programs keyed by expression
// strings. Engines consult it before compiling.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// MemoryProgramCache is a ProgramCache safe for concurrent use.
type MemoryProgramCache struct {
	programs sync.Map
}

// NewMemoryProgramCache constructs an empty cache.
func NewMemoryProgramCache() *MemoryProgramCache {
	return &MemoryProgramCache{}
}

// Get returns the cached program for key.
func (c *MemoryProgramCache) Get(key string) (any, bool) {
	return c.programs.Load(key)
}

// Set stores the program under key.
func (c *MemoryProgramCache) Set(key string, value any) {
	c.programs.Store(key, value)
}
