// Package worker orchestrates a harvesting run: category discovery, quiz
// fan-out under a concurrency cap, persistence and publishing.
package worker

import (
	"context"
	"sync"

	"quizharvester/helpers"
	"quizharvester/internal/scraper"
	"quizharvester/logger"
	"quizharvester/services/publisher"
)

// QuizRunner mines a single quiz into records.
type QuizRunner interface {
	Harvest(ctx context.Context, quizURL string) ([]scraper.QuestionRecord, error)
}

// CategoryLister discovers category and quiz links.
type CategoryLister interface {
	Categories(ctx context.Context) ([]string, error)
	Quizzes(ctx context.Context, categoryURL string) ([]string, error)
}

// RecordStore persists records and reports how many were genuinely new.
type RecordStore interface {
	Append(records []scraper.QuestionRecord) (int, error)
}

// Worker drives the whole run. Quizzes within a category run concurrently
// under a counting semaphore; a started quiz always runs to completion, and
// the question target only stops new dispatch.
type Worker struct {
	ctx          context.Context
	catalog      CategoryLister
	runner       QuizRunner
	store        RecordStore
	publisher    publisher.Publisher
	concurrency  int
	maxQuestions int
	log          *logger.Logger

	mu        sync.Mutex
	harvested int
}

// CategoryReport summarizes one category's outcome. Records counts newly
// persisted records; Duplicates counts harvested records already present in
// storage.
type CategoryReport struct {
	Category   string
	Quizzes    int
	Failed     int
	Records    int
	Duplicates int
}

// RunReport summarizes a full run.
type RunReport struct {
	Categories []CategoryReport
	Records    int
	Duplicates int
}

func NewWorker(
	ctx context.Context,
	catalog CategoryLister,
	runner QuizRunner,
	store RecordStore,
	pub publisher.Publisher,
	concurrency int,
	maxQuestions int,
) *Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Worker{
		ctx:          ctx,
		catalog:      catalog,
		runner:       runner,
		store:        store,
		publisher:    pub,
		concurrency:  concurrency,
		maxQuestions: maxQuestions,
		log:          logger.ForWorker(),
	}
}

// Run harvests every discovered category until the catalog is exhausted or
// the question target is reached.
func (w *Worker) Run() (RunReport, error) {
	categories, err := w.catalog.Categories(w.ctx)
	if err != nil {
		return RunReport{}, err
	}
	w.log.Info().Int("categories", len(categories)).Msg("starting run")

	report := RunReport{}
	for _, category := range categories {
		if w.targetReached() {
			w.log.Info().Int("records", w.total()).Msg("question target reached, stopping dispatch")
			break
		}
		cr := w.runCategory(category)
		report.Categories = append(report.Categories, cr)
		report.Records += cr.Records
		report.Duplicates += cr.Duplicates
	}

	if err := w.publisher.TrimStreams(); err != nil {
		w.log.Error().Err(err).Msg("stream trimming failed")
	}

	w.log.Info().
		Int("records", report.Records).
		Int("already_present", report.Duplicates).
		Msg("run finished")
	return report, nil
}

// runCategory fans quizzes out under the semaphore. One bad quiz never
// aborts its category.
func (w *Worker) runCategory(category string) CategoryReport {
	log := logger.ForCategory(category)
	report := CategoryReport{Category: category}

	quizzes, err := w.catalog.Quizzes(w.ctx, category)
	if err != nil {
		log.Error().Err(err).Msg("quiz discovery failed")
		report.Failed++
		return report
	}
	report.Quizzes = len(quizzes)
	log.Info().Int("quizzes", len(quizzes)).Msg("category discovered")

	sem := make(chan struct{}, w.concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, quizURL := range quizzes {
		if w.targetReached() {
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(quizURL string) {
			defer wg.Done()
			defer func() { <-sem }()

			written, duplicates, err := w.harvestOne(quizURL)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed++
				return
			}
			report.Records += written
			report.Duplicates += duplicates
		}(quizURL)
	}
	wg.Wait()

	log.Info().
		Int("records", report.Records).
		Int("already_present", report.Duplicates).
		Int("failed", report.Failed).
		Msg("category finished")
	return report
}

func (w *Worker) harvestOne(quizURL string) (written, duplicates int, err error) {
	log := logger.ForQuiz(helpers.QuizSlug(quizURL))

	records, err := w.runner.Harvest(w.ctx, quizURL)
	if err != nil {
		log.Error().Err(err).Msg("quiz harvest failed")
		return 0, 0, err
	}
	if len(records) == 0 {
		return 0, 0, nil
	}

	written, err = w.store.Append(records)
	if err != nil {
		log.Error().Err(err).Msg("persist failed")
		return 0, 0, err
	}
	duplicates = len(records) - written

	if written > 0 {
		if err := w.publisher.PublishRecords(records); err != nil {
			log.Error().Err(err).Msg("publish failed")
		}
	}

	w.mu.Lock()
	w.harvested += written
	w.mu.Unlock()
	return written, duplicates, nil
}

func (w *Worker) targetReached() bool {
	if w.maxQuestions <= 0 {
		return false
	}
	return w.total() >= w.maxQuestions
}

func (w *Worker) total() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.harvested
}
