package cache

import (
	"context"

	"github.com/dmitrymomot/styledoc/pkg/logger"
)

// Stats is a point-in-time snapshot of the manager counters.
type Stats struct {
	Hits          int64            `json:"hits"`
	Misses        int64            `json:"misses"`
	HitsPerTier   map[string]int64 `json:"hits_per_tier"`
	ErrorsPerTier map[string]int64 `json:"errors_per_tier"`
	// HitRate is Hits / (Hits + Misses), 0 before the first lookup.
	HitRate float64 `json:"hit_rate"`
	// TierSizes holds the entry count per tier, -1 when the tier could not tell.
	TierSizes map[string]int `json:"tier_sizes"`
	Tiers     []string       `json:"tiers"`
}

// Stats returns the counters and the current size of every tier.
func (m *Manager) Stats(ctx context.Context) Stats {
	s := Stats{
		Hits:          m.hits.Load(),
		Misses:        m.misses.Load(),
		HitsPerTier:   make(map[string]int64, len(m.tiers)),
		ErrorsPerTier: make(map[string]int64, len(m.tiers)),
		TierSizes:     make(map[string]int, len(m.tiers)),
		Tiers:         m.Tiers(),
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}

	for i, t := range m.tiers {
		name := t.Name()
		s.HitsPerTier[name] += m.tierHits[i].Load()
		s.ErrorsPerTier[name] += m.tierErrors[i].Load()

		n, err := t.Len(ctx)
		if err != nil {
			m.logger.DebugContext(ctx, "cache: tier size unavailable", logger.Tier(name), logger.Error(err))
			n = -1
		}
		s.TierSizes[name] = n
	}
	return s
}
