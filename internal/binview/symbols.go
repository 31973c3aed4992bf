package binview

import (
	"sync"

	"github.com/ianlancetaylor/demangle"
)

// demangleCache avoids repeated demangling of hot symbols. Function
// lookup hits the same names constantly while a user steps through a
// binary.
type demangleCache struct {
	mu    sync.RWMutex
	names map[string]string
}

var dcache = &demangleCache{names: make(map[string]string)}

// CachedDemangle demangles a symbol name, consulting the cache first.
// Names that are not mangled come back unchanged.
func CachedDemangle(mangled string) string {
	dcache.mu.RLock()
	if d, ok := dcache.names[mangled]; ok {
		dcache.mu.RUnlock()
		return d
	}
	dcache.mu.RUnlock()

	d := demangle.Filter(mangled, demangle.NoClones)

	dcache.mu.Lock()
	dcache.names[mangled] = d
	dcache.mu.Unlock()
	return d
}
