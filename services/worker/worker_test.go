package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"quizharvester/internal/classify"
	"quizharvester/internal/scraper"
	"quizharvester/services/publisher"
)

type fakeCatalog struct {
	categories []string
	quizzes    map[string][]string
	listErr    error
}

func (f *fakeCatalog) Categories(ctx context.Context) ([]string, error) {
	return f.categories, f.listErr
}

func (f *fakeCatalog) Quizzes(ctx context.Context, category string) ([]string, error) {
	return f.quizzes[category], nil
}

type fakeRunner struct {
	mu       sync.Mutex
	perQuiz  map[string][]scraper.QuestionRecord
	failing  map[string]bool
	delay    time.Duration
	inFlight int32
	maxSeen  int32
	calls    []string
}

func (f *fakeRunner) Harvest(ctx context.Context, quizURL string) ([]scraper.QuestionRecord, error) {
	current := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		max := atomic.LoadInt32(&f.maxSeen)
		if current <= max || atomic.CompareAndSwapInt32(&f.maxSeen, max, current) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.calls = append(f.calls, quizURL)
	f.mu.Unlock()

	if f.failing[quizURL] {
		return nil, errors.New("boom")
	}
	return f.perQuiz[quizURL], nil
}

type fakeStore struct {
	mu      sync.Mutex
	records []scraper.QuestionRecord
}

func (f *fakeStore) Append(records []scraper.QuestionRecord) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, records...)
	return len(records), nil
}

// dedupingStore mirrors the CSV store's contract: only records with unseen
// keys count as written.
type dedupingStore struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (d *dedupingStore) Append(records []scraper.QuestionRecord) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen == nil {
		d.seen = make(map[string]bool)
	}
	written := 0
	for _, r := range records {
		if d.seen[r.Key] {
			continue
		}
		d.seen[r.Key] = true
		written++
	}
	return written, nil
}

func record(key string) scraper.QuestionRecord {
	return scraper.QuestionRecord{Key: key, Type: classify.TypeMultipleChoice}
}

func TestRunHarvestsAllCategories(t *testing.T) {
	catalog := &fakeCatalog{
		categories: []string{"cat1", "cat2"},
		quizzes: map[string][]string{
			"cat1": {"quiz1", "quiz2"},
			"cat2": {"quiz3"},
		},
	}
	runner := &fakeRunner{perQuiz: map[string][]scraper.QuestionRecord{
		"quiz1": {record("a"), record("b")},
		"quiz2": {record("c")},
		"quiz3": {record("d")},
	}}
	store := &fakeStore{}

	w := NewWorker(context.Background(), catalog, runner, store, publisher.Noop{}, 2, 0)
	report, err := w.Run()
	assert.NoError(t, err)
	assert.Equal(t, 4, report.Records)
	assert.Equal(t, 0, report.Duplicates)
	assert.Len(t, report.Categories, 2)
	assert.Len(t, store.records, 4)
}

func TestRunIsolatesQuizFailures(t *testing.T) {
	catalog := &fakeCatalog{
		categories: []string{"cat1"},
		quizzes:    map[string][]string{"cat1": {"good", "bad", "also-good"}},
	}
	runner := &fakeRunner{
		perQuiz: map[string][]scraper.QuestionRecord{
			"good":      {record("a")},
			"also-good": {record("b")},
		},
		failing: map[string]bool{"bad": true},
	}
	store := &fakeStore{}

	w := NewWorker(context.Background(), catalog, runner, store, publisher.Noop{}, 2, 0)
	report, err := w.Run()
	assert.NoError(t, err)
	assert.Equal(t, 2, report.Records)
	assert.Equal(t, 1, report.Categories[0].Failed)
	assert.Len(t, runner.calls, 3)
}

func TestRunRespectsConcurrencyCap(t *testing.T) {
	quizzes := make([]string, 8)
	perQuiz := make(map[string][]scraper.QuestionRecord, 8)
	for i := range quizzes {
		name := fmt.Sprintf("quiz%d", i)
		quizzes[i] = name
		perQuiz[name] = []scraper.QuestionRecord{record(name)}
	}
	catalog := &fakeCatalog{categories: []string{"cat"}, quizzes: map[string][]string{"cat": quizzes}}
	runner := &fakeRunner{perQuiz: perQuiz, delay: 20 * time.Millisecond}
	store := &fakeStore{}

	w := NewWorker(context.Background(), catalog, runner, store, publisher.Noop{}, 3, 0)
	_, err := w.Run()
	assert.NoError(t, err)
	assert.LessOrEqual(t, runner.maxSeen, int32(3))
	assert.Len(t, runner.calls, 8)
}

func TestRunStopsDispatchAtTarget(t *testing.T) {
	catalog := &fakeCatalog{
		categories: []string{"cat1", "cat2"},
		quizzes: map[string][]string{
			"cat1": {"quiz1"},
			"cat2": {"quiz2"},
		},
	}
	runner := &fakeRunner{perQuiz: map[string][]scraper.QuestionRecord{
		"quiz1": {record("a"), record("b"), record("c")},
		"quiz2": {record("d")},
	}}
	store := &fakeStore{}

	w := NewWorker(context.Background(), catalog, runner, store, publisher.Noop{}, 1, 2)
	report, err := w.Run()
	assert.NoError(t, err)
	// The first quiz overshoots the target; the second is never dispatched.
	assert.Equal(t, 3, report.Records)
	assert.Len(t, runner.calls, 1)
}

func TestRunTalliesAlreadyPresentRecords(t *testing.T) {
	catalog := &fakeCatalog{
		categories: []string{"cat1"},
		quizzes:    map[string][]string{"cat1": {"quiz1", "quiz2"}},
	}
	// quiz2 re-harvests two records quiz1 already persisted.
	runner := &fakeRunner{perQuiz: map[string][]scraper.QuestionRecord{
		"quiz1": {record("a"), record("b"), record("c")},
		"quiz2": {record("b"), record("c"), record("d")},
	}}
	store := &dedupingStore{}

	w := NewWorker(context.Background(), catalog, runner, store, publisher.Noop{}, 1, 0)
	report, err := w.Run()
	assert.NoError(t, err)
	assert.Equal(t, 4, report.Records)
	assert.Equal(t, 2, report.Duplicates)
	assert.Equal(t, 2, report.Categories[0].Duplicates)
}

func TestRunCategoryListError(t *testing.T) {
	catalog := &fakeCatalog{listErr: errors.New("offline")}
	w := NewWorker(context.Background(), catalog, &fakeRunner{}, &fakeStore{}, publisher.Noop{}, 1, 0)
	_, err := w.Run()
	assert.Error(t, err)
}
