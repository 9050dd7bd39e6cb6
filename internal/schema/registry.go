package schema

import "sync"

// PeriodRegistry tracks every distinct period key seen per category across
// all ingests. It is append-only: periods are never removed once observed,
// and re-adding a known period is a no-op.
type PeriodRegistry struct {
	mu      sync.RWMutex
	periods map[Category][]PeriodKey // sorted most recent first
}

// NewPeriodRegistry creates an empty registry.
func NewPeriodRegistry() *PeriodRegistry {
	return &PeriodRegistry{periods: make(map[Category][]PeriodKey)}
}

// Add records period keys for a category, keeping the set deduplicated and
// sorted descending. It returns how many keys were actually new.
func (r *PeriodRegistry) Add(cat Category, keys ...PeriodKey) int {
	if len(keys) == 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing := make(map[PeriodKey]bool, len(r.periods[cat]))
	for _, k := range r.periods[cat] {
		existing[k] = true
	}

	added := 0
	for _, k := range keys {
		if k.IsZero() || existing[k] {
			continue
		}
		existing[k] = true
		r.periods[cat] = append(r.periods[cat], k)
		added++
	}
	if added > 0 {
		SortPeriodsDesc(r.periods[cat])
	}
	return added
}

// AddDiscovered merges a classification's discovered periods, returning the
// total count of newly observed keys.
func (r *PeriodRegistry) AddDiscovered(discovered map[Category][]PeriodKey) int {
	added := 0
	for cat, keys := range discovered {
		added += r.Add(cat, keys...)
	}
	return added
}

// Periods returns a copy of the category's period set, most recent first.
func (r *PeriodRegistry) Periods(cat Category) []PeriodKey {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]PeriodKey, len(r.periods[cat]))
	copy(out, r.periods[cat])
	return out
}

// Len returns the number of distinct periods known for a category.
func (r *PeriodRegistry) Len(cat Category) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.periods[cat])
}
