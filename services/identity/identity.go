// Package identity hands out stable question identifiers backed by
// persistent per-type counters.
package identity

import (
	"fmt"
	"strings"
	"sync"

	apperr "quizharvester/pkg/errors"
	"quizharvester/internal/classify"
	"quizharvester/logger"
)

// SequenceStore persists per-type counters. Save must be durable before it
// returns: an identifier is never handed out until its counter is on disk.
type SequenceStore interface {
	Load() (map[string]int, error)
	Save(counters map[string]int) error
}

// Allocator allocates question identifiers of the form
// Question_{prefix}_Parsed_{Domain}_{Difficulty}_{NNNN}. Counters advance
// per type prefix, never per domain, so identifiers stay unique even when
// domain or difficulty metadata is missing.
type Allocator struct {
	store SequenceStore

	mu       sync.Mutex
	counters map[string]int
}

// NewAllocator loads existing counters from the store. A missing store file
// starts all counters at zero.
func NewAllocator(store SequenceStore) (*Allocator, error) {
	counters, err := store.Load()
	if err != nil {
		return nil, err
	}
	if counters == nil {
		counters = make(map[string]int)
	}
	return &Allocator{store: store, counters: counters}, nil
}

// Next increments the counter for the question type, persists it, and only
// then formats the identifier. Domain and difficulty are embedded when both
// are present; otherwise a short form is used and logged.
func (a *Allocator) Next(qtype classify.Type, domain, difficulty string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	prefix := qtype.Prefix()
	next := a.counters[prefix] + 1
	a.counters[prefix] = next

	if err := a.store.Save(a.counters); err != nil {
		// Roll back so a retry does not skip a number.
		a.counters[prefix] = next - 1
		return "", apperr.NewPersistence("", "save question counters", err)
	}

	domain = sanitizeSegment(domain)
	difficulty = sanitizeSegment(difficulty)
	if domain == "" || difficulty == "" {
		id := fmt.Sprintf("Question_%s_Parsed_%04d", prefix, next)
		logger.Warn("missing domain or difficulty, using short identifier %s", id)
		return id, nil
	}
	return fmt.Sprintf("Question_%s_Parsed_%s_%s_%04d", prefix, domain, difficulty, next), nil
}

// Counters returns a copy of the current per-prefix counters.
func (a *Allocator) Counters() map[string]int {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]int, len(a.counters))
	for k, v := range a.counters {
		out[k] = v
	}
	return out
}

func sanitizeSegment(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	return strings.ReplaceAll(s, "_", "")
}
