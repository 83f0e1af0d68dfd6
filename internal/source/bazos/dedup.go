package bazos

import (
	"sync"

	"listing_harvester/internal/domain"
)

// DedupGuard remembers every listing id admitted during the process lifetime.
type DedupGuard struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewDedupGuard() *DedupGuard {
	return &DedupGuard{seen: make(map[string]struct{})}
}

// Admit records id and reports whether it was seen for the first time.
func (g *DedupGuard) Admit(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.seen[id]; ok {
		return false
	}
	g.seen[id] = struct{}{}
	return true
}

// Filter keeps the listings whose id has not been admitted before.
func (g *DedupGuard) Filter(listings []domain.Listing) []domain.Listing {
	var fresh []domain.Listing
	for _, l := range listings {
		if g.Admit(l.ID) {
			fresh = append(fresh, l)
		}
	}
	return fresh
}

func (g *DedupGuard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.seen)
}
