package cache

import (
	"fmt"
	"strings"
)

// NamespaceStats is a per-namespace counter snapshot.
type NamespaceStats struct {
	Name    string  `json:"name"`
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	HitRate float64 `json:"hit_rate"`
	Entries int     `json:"entries"`
}

// Stats is an immutable snapshot of pool counters.
type Stats struct {
	Namespaces   []NamespaceStats `json:"namespaces"`
	TotalEntries int              `json:"total_entries"`
	MaxEntries   int              `json:"max_entries"`
	Evictions    uint64           `json:"evictions"`
}

// Namespace returns the snapshot for one namespace.
func (s Stats) Namespace(name string) (NamespaceStats, bool) {
	for _, ns := range s.Namespaces {
		if ns.Name == name {
			return ns, true
		}
	}
	return NamespaceStats{}, false
}

func hitRate(hits, misses uint64) float64 {
	total := hits + misses
	if total == 0 {
		total = 1
	}
	return float64(hits) / float64(total)
}

// Stats returns a snapshot, namespaces in configuration order.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	perNS := make(map[string]int, len(p.namespaces))
	for _, e := range p.entries {
		perNS[e.Namespace]++
	}

	out := Stats{
		Namespaces:   make([]NamespaceStats, 0, len(p.cfg.Namespaces)),
		TotalEntries: len(p.entries),
		MaxEntries:   p.cfg.MaxEntries,
		Evictions:    p.evictions,
	}
	for _, ns := range p.cfg.Namespaces {
		c := p.stats[ns.Name]
		out.Namespaces = append(out.Namespaces, NamespaceStats{
			Name:    ns.Name,
			Hits:    c.hits,
			Misses:  c.misses,
			HitRate: hitRate(c.hits, c.misses),
			Entries: perNS[ns.Name],
		})
	}
	return out
}

// Info renders Stats as a short human-readable report.
func (p *Pool) Info() string {
	s := p.Stats()

	var b strings.Builder
	b.WriteString("=== cache pool ===\n")
	for _, ns := range s.Namespaces {
		fmt.Fprintf(&b, "%s: %d entries, hit rate %.2f%%\n", ns.Name, ns.Entries, ns.HitRate*100)
	}
	fmt.Fprintf(&b, "total: %d/%d\n", s.TotalEntries, s.MaxEntries)
	fmt.Fprintf(&b, "evictions: %d", s.Evictions)
	return b.String()
}
