// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package recommend

import (
	"fmt"
	"sync"
)

// ActiveRuns tracks which (user, media kind) pairs have a run in flight and
// the id of the run row each one owns. It is safe for concurrent use.
type ActiveRuns struct {
	mu     sync.Mutex
	active map[string]string
}

// NewActiveRuns creates an empty registry.
func NewActiveRuns() *ActiveRuns {
	return &ActiveRuns{active: make(map[string]string)}
}

func runKey(userID int, kind MediaKind) string {
	return fmt.Sprintf("%d:%s", userID, kind)
}

// TryAcquire marks the pair active. It returns false if it already was.
func (r *ActiveRuns) TryAcquire(userID int, kind MediaKind) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := runKey(userID, kind)
	if _, busy := r.active[key]; busy {
		return false
	}
	r.active[key] = ""
	return true
}

// Attach records the run id owned by an acquired pair. Attaching to a pair
// that is not held is a no-op.
func (r *ActiveRuns) Attach(userID int, kind MediaKind, runID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := runKey(userID, kind)
	if _, held := r.active[key]; held {
		r.active[key] = runID
	}
}

// RunIDs returns the ids of the runs currently in flight.
func (r *ActiveRuns) RunIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.active))
	for _, id := range r.active {
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Release clears the pair. Releasing an inactive pair is a no-op.
func (r *ActiveRuns) Release(userID int, kind MediaKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, runKey(userID, kind))
}

// IsActive reports whether a run is in flight for the pair.
func (r *ActiveRuns) IsActive(userID int, kind MediaKind) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, busy := r.active[runKey(userID, kind)]
	return busy
}

// Len returns the number of active runs.
func (r *ActiveRuns) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}
