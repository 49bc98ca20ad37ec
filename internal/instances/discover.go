package instances

import (
	"fmt"
	"log"
	"sort"
)

// Discovery enumerates live instances from a Store, pruning records
// whose process has died. The liveness oracle is injectable for tests.
type Discovery struct {
	store Store
	alive func(pid int) bool
}

// NewDiscovery creates a Discovery over store. A nil alive function
// selects the platform process probe.
func NewDiscovery(store Store, alive func(pid int) bool) *Discovery {
	if alive == nil {
		alive = pidAlive
	}
	return &Discovery{store: store, alive: alive}
}

// Discover returns the records of currently live instances, newest
// first (by started_at). Records referencing dead processes are deleted
// from the store as a side effect and excluded from the result. The
// directory listing is not treated as a stable snapshot: every record
// is validated independently, so Discover is safe to call concurrently
// with instances starting and stopping.
func (d *Discovery) Discover() ([]Record, error) {
	records, err := d.store.List()
	if err != nil {
		return nil, fmt.Errorf("listing instance records: %w", err)
	}

	live := records[:0]
	for _, rec := range records {
		if rec.PID > 0 && !d.alive(rec.PID) {
			// Stale record: the instance died without deregistering.
			// Any reader may garbage-collect it; losing the race with
			// another reader is harmless.
			if err := d.store.Delete(rec.Port); err != nil {
				log.Printf("WARNING: pruning stale instance record (port %d): %v", rec.Port, err)
			}
			continue
		}
		live = append(live, rec)
	}

	sort.Slice(live, func(i, j int) bool {
		if live[i].StartedAt != live[j].StartedAt {
			return live[i].StartedAt > live[j].StartedAt
		}
		return live[i].Port > live[j].Port
	})
	return live, nil
}
