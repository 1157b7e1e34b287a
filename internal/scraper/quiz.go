package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	"quizharvester/helpers"
	"quizharvester/internal/browser"
	"quizharvester/internal/classify"
	"quizharvester/internal/results"
	"quizharvester/internal/taxonomy"
	"quizharvester/logger"
	apperr "quizharvester/pkg/errors"
	"quizharvester/services/identity"
	"quizharvester/services/ratelimit"
)

// Options are the per-quiz pipeline knobs.
type Options struct {
	PageLoadTimeout    time.Duration
	NetworkIdleTimeout time.Duration
	ResultsWaitTimeout time.Duration
	MaxRetries         uint64
}

// QuizHarvester runs the full pipeline for a single quiz: navigate, detect,
// extract, answer, submit, mine results, classify and build records.
type QuizHarvester struct {
	factory   browser.Factory
	limiter   *ratelimit.Limiter
	pipeline  *results.Pipeline
	mapper    *taxonomy.Mapper
	allocator *identity.Allocator
	media     *MediaStore
	opts      Options
}

func NewQuizHarvester(
	factory browser.Factory,
	limiter *ratelimit.Limiter,
	pipeline *results.Pipeline,
	mapper *taxonomy.Mapper,
	allocator *identity.Allocator,
	media *MediaStore,
	opts Options,
) *QuizHarvester {
	return &QuizHarvester{
		factory:   factory,
		limiter:   limiter,
		pipeline:  pipeline,
		mapper:    mapper,
		allocator: allocator,
		media:     media,
		opts:      opts,
	}
}

var startSelectors = []string{
	"input[type='submit'][value*='Start']",
	"input[value*='Take Quiz']",
}

// Harvest mines one quiz. Navigation and timeout failures are retried with
// bounded exponential backoff; an unsupported layout yields zero records
// without error.
func (h *QuizHarvester) Harvest(ctx context.Context, quizURL string) ([]QuestionRecord, error) {
	var records []QuestionRecord

	attempt := func() error {
		var err error
		records, err = h.attempt(ctx, quizURL)
		if err != nil && !apperr.Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(2*time.Second),
		backoff.WithMaxInterval(30*time.Second),
	), h.opts.MaxRetries), ctx)

	if err := backoff.Retry(attempt, policy); err != nil {
		return nil, err
	}
	return records, nil
}

func (h *QuizHarvester) attempt(ctx context.Context, quizURL string) (records []QuestionRecord, err error) {
	log := logger.ForQuiz(helpers.QuizSlug(quizURL))

	session := h.factory.NewSession()
	defer session.Close(context.Background())

	// A single bad page must never take down the category.
	defer func() {
		if r := recover(); r != nil {
			records = nil
			err = apperr.NewExtraction(quizURL, fmt.Sprintf("panic during harvest: %v", r), nil)
		}
	}()

	if err := h.limiter.Acquire(ctx); err != nil {
		return nil, err
	}

	navCtx, cancel := context.WithTimeout(ctx, h.opts.PageLoadTimeout)
	defer cancel()
	if err := session.Navigate(navCtx, quizURL); err != nil {
		if errors.Is(err, browser.ErrTimeout) {
			return nil, apperr.NewTimeout(quizURL, "quiz page load", err)
		}
		return nil, apperr.NewNavigation(quizURL, "quiz page load", err)
	}
	session.WaitNetworkIdle(ctx, h.opts.NetworkIdleTimeout)

	html, err := session.Content(ctx)
	if err != nil {
		return nil, apperr.NewNavigation(quizURL, "read quiz page", err)
	}
	metadata := ExtractMetadata(html, quizURL)

	if h.clickStart(ctx, session, log) {
		session.WaitNetworkIdle(ctx, h.opts.NetworkIdleTimeout)
		if refreshed, err := session.Content(ctx); err == nil {
			html = refreshed
		}
	}

	qtype := DetectType(html, quizURL)
	if !qtype.Supported() {
		log.Info().Str("layout", string(qtype)).Msg("unsupported quiz layout, skipping")
		return nil, nil
	}

	questions, err := ExtractQuestions(html, qtype)
	if err != nil {
		return nil, apperr.NewExtraction(quizURL, "parse quiz page", err)
	}
	if len(questions) == 0 {
		log.Warn().Msg("no questions found on quiz page")
		return nil, nil
	}
	log.Info().Int("questions", len(questions)).Str("layout", string(qtype)).Msg("extracted questions")

	if _, err := NewAnswerSelector(session).SelectAll(ctx, questions); err != nil {
		return nil, err
	}

	NewQuizSubmitter(session, h.opts.ResultsWaitTimeout).Submit(ctx)

	resultsHTML, err := session.Content(ctx)
	if err != nil {
		return nil, apperr.NewExtraction(quizURL, "read results page", err)
	}
	resultsText, err := session.InnerText(ctx)
	if err != nil {
		resultsText = ""
	}

	graded := h.pipeline.Extract(
		results.Content{HTML: resultsHTML, Text: resultsText},
		toResultQuestions(questions),
	)

	return h.buildRecords(ctx, quizURL, qtype, pairGraded(questions, graded), metadata)
}

func (h *QuizHarvester) clickStart(ctx context.Context, session browser.Session, log *logger.Logger) bool {
	for _, selector := range startSelectors {
		found, err := session.Click(ctx, selector, 0)
		if err == nil && found {
			log.Info().Msg("clicked start button")
			return true
		}
	}
	return false
}

func toResultQuestions(questions []RawQuestion) []results.Question {
	out := make([]results.Question, len(questions))
	for i, q := range questions {
		out[i] = results.Question{Number: q.Number, Prompt: q.Prompt, Options: q.Options}
	}
	return out
}

// pairGraded zips each raw question with its mined grading. The pipeline
// guarantees one grading per question.
func pairGraded(questions []RawQuestion, graded []results.Graded) []GradedQuestion {
	out := make([]GradedQuestion, len(questions))
	for i, q := range questions {
		out[i] = GradedQuestion{
			RawQuestion:    q,
			CorrectAnswer:  graded[i].Answer,
			Explanation:    graded[i].Explanation,
			AnswerFallback: graded[i].Fallback,
		}
	}
	return out
}

func (h *QuizHarvester) buildRecords(
	ctx context.Context,
	quizURL string,
	qtype QuizType,
	questions []GradedQuestion,
	metadata QuizMetadata,
) ([]QuestionRecord, error) {
	domain, _ := h.mapper.Map(metadata.Domain, taxonomy.KindDomain)
	topic, _ := h.mapper.Map(metadata.Topic, taxonomy.KindTopic)
	difficulty, _ := h.mapper.Map(metadata.Difficulty, taxonomy.KindDifficulty)

	records := make([]QuestionRecord, 0, len(questions))
	for _, q := range questions {
		recordType := classify.Classify(q.Prompt, q.Options)
		if qtype == QuizTypeAudio {
			recordType = classify.TypeSound
		}

		id, err := h.allocator.Next(recordType, domain, difficulty)
		if err != nil {
			return nil, err
		}

		mediaPath := ""
		if q.MediaURL != "" {
			isAudio := q.IsAudio || qtype == QuizTypeAudio
			mediaPath = h.media.Download(ctx, id, resolveMediaURL(quizURL, q.MediaURL), isAudio)
		}

		records = append(records, QuestionRecord{
			Key:           id,
			Type:          recordType,
			Domain:        domain,
			Topic:         topic,
			Difficulty:    difficulty,
			Question:      CleanPrompt(q.Prompt),
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Description:   q.Explanation,
			MediaPath:     mediaPath,
		})
	}
	return records, nil
}

func resolveMediaURL(pageURL, mediaURL string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return mediaURL
	}
	ref, err := url.Parse(mediaURL)
	if err != nil {
		return mediaURL
	}
	return base.ResolveReference(ref).String()
}
