// Package taxonomy translates site-specific category labels into the
// standardized domain/topic/difficulty vocabulary used in output records.
package taxonomy

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	apperr "quizharvester/pkg/errors"
	"quizharvester/logger"
)

// Kind names one of the three mapped vocabularies.
type Kind string

const (
	KindDomain     Kind = "domain"
	KindTopic      Kind = "topic"
	KindDifficulty Kind = "difficulty"
)

// Mapper maps raw site values to standardized ones. A miss is never an error:
// the raw value passes through and is recorded as unmapped, unless strict mode
// is enabled.
type Mapper struct {
	// standardized value -> lowercase raw values that map to it
	domains      map[string][]string
	topics       map[string][]string
	difficulties map[string][]string

	strict bool

	mu       sync.Mutex
	unmapped map[Kind]map[string]struct{}
}

type mappingsFile struct {
	DomainMapping     map[string][]string `json:"domain_mapping"`
	TopicMapping      map[string][]string `json:"topic_mapping"`
	DifficultyMapping map[string][]string `json:"difficulty_mapping"`
}

// Load reads the mappings file. Strict mode turns mapping misses into
// validation errors instead of pass-throughs.
func Load(path string, strict bool) (*Mapper, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.NewConfiguration(fmt.Sprintf("read mappings file %s", path), err)
	}

	var file mappingsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, apperr.NewConfiguration(fmt.Sprintf("parse mappings file %s", path), err)
	}

	return &Mapper{
		domains:      lowerValues(file.DomainMapping),
		topics:       lowerValues(file.TopicMapping),
		difficulties: lowerValues(file.DifficultyMapping),
		strict:       strict,
		unmapped:     make(map[Kind]map[string]struct{}),
	}, nil
}

// NewFromTables builds a mapper from in-memory tables, used in tests.
func NewFromTables(domains, topics, difficulties map[string][]string, strict bool) *Mapper {
	return &Mapper{
		domains:      lowerValues(domains),
		topics:       lowerValues(topics),
		difficulties: lowerValues(difficulties),
		strict:       strict,
		unmapped:     make(map[Kind]map[string]struct{}),
	}
}

func lowerValues(table map[string][]string) map[string][]string {
	out := make(map[string][]string, len(table))
	for std, raws := range table {
		lowered := make([]string, len(raws))
		for i, raw := range raws {
			lowered[i] = strings.ToLower(raw)
		}
		out[std] = lowered
	}
	return out
}

// Map returns the standardized value for raw, or raw itself on a miss.
// In strict mode a miss returns a validation error instead.
func (m *Mapper) Map(raw string, kind Kind) (string, error) {
	table := m.table(kind)
	lower := strings.ToLower(strings.TrimSpace(raw))
	if lower == "" {
		return "", nil
	}

	for std, raws := range table {
		for _, candidate := range raws {
			if candidate == lower {
				return std, nil
			}
		}
	}

	if m.strict {
		return "", apperr.NewValidation("", fmt.Sprintf("unknown %s value %q", kind, raw))
	}

	m.recordUnmapped(kind, raw)
	logger.Warn("unmapped %s value %q, passing through", kind, raw)
	return raw, nil
}

func (m *Mapper) table(kind Kind) map[string][]string {
	switch kind {
	case KindDomain:
		return m.domains
	case KindTopic:
		return m.topics
	case KindDifficulty:
		return m.difficulties
	default:
		return nil
	}
}

func (m *Mapper) recordUnmapped(kind Kind, raw string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unmapped[kind] == nil {
		m.unmapped[kind] = make(map[string]struct{})
	}
	m.unmapped[kind][raw] = struct{}{}
}

// Unmapped returns the sorted raw values seen for kind that had no mapping.
func (m *Mapper) Unmapped(kind Kind) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	values := make([]string, 0, len(m.unmapped[kind]))
	for v := range m.unmapped[kind] {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}
