package headers

import (
	"os"
	"sync"
)

// CachedHeader is what Cache remembers about one resolved header: its
// nested #include list, so a later scan that reaches the same header
// (from a different source file, or the same one on a later build) doesn't
// need to re-read and re-scan its contents.
type CachedHeader struct {
	NestedIncludes []string // resolved absolute paths, in order of appearance
}

// Cache is shared across all Scanners for one build invocation (and may be
// kept warm across builds, the way the teacher's IncludesCache survives for
// the lifetime of its daemon process). All accessors are goroutine-safe;
// lock ordering in SPEC_FULL.md section 5 places Cache.mu ahead of any Project.mu a
// caller might also be holding.
type Cache struct {
	mu sync.RWMutex

	angleResolve map[string]string // "math.h" -> "/usr/include/math.h", "" means known-missing
	headers      map[string]*CachedHeader

	statCache map[string]bool // absolute path -> exists, avoids redundant os.Stat calls
}

func NewCache() *Cache {
	return &Cache{
		angleResolve: make(map[string]string),
		headers:      make(map[string]*CachedHeader),
		statCache:    make(map[string]bool),
	}
}

func (c *Cache) GetAngleResolve(arg string) (resolved string, known bool) {
	c.mu.RLock()
	resolved, known = c.angleResolve[arg]
	c.mu.RUnlock()
	return
}

func (c *Cache) AddAngleResolve(arg, resolved string) {
	c.mu.Lock()
	c.angleResolve[arg] = resolved
	c.mu.Unlock()
}

func (c *Cache) Get(absPath string) (*CachedHeader, bool) {
	c.mu.RLock()
	h, ok := c.headers[absPath]
	c.mu.RUnlock()
	return h, ok
}

func (c *Cache) Put(absPath string, nestedIncludes []string) {
	c.mu.Lock()
	c.headers[absPath] = &CachedHeader{NestedIncludes: nestedIncludes}
	c.mu.Unlock()
}

func (c *Cache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.headers)
}

func (c *Cache) Clear() {
	c.mu.Lock()
	c.angleResolve = make(map[string]string)
	c.headers = make(map[string]*CachedHeader)
	c.statCache = make(map[string]bool)
	c.mu.Unlock()
}

func (c *Cache) exists(path string) bool {
	c.mu.RLock()
	exists, known := c.statCache[path]
	c.mu.RUnlock()
	if known {
		return exists
	}

	_, err := os.Stat(path)
	exists = err == nil

	c.mu.Lock()
	c.statCache[path] = exists
	c.mu.Unlock()
	return exists
}

func (c *Cache) readFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}
