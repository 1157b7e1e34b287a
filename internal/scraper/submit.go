package scraper

import (
	"context"
	"strings"
	"time"

	"quizharvester/internal/browser"
	"quizharvester/logger"
)

// QuizSubmitter submits the answered quiz and waits for the graded results
// page. The wait is a cascade of weakening signals that always ends in
// "proceed": extraction must tolerate a page that never signalled readiness.
type QuizSubmitter struct {
	session     browser.Session
	waitTimeout time.Duration
	settleDelay time.Duration
	log         *logger.Logger
}

var submitSelectors = []string{
	"input[type='submit'][value*='Score']",
	"input[type='submit'][value*='Submit']",
	"button[type='submit']",
	"input[value*='Finish']",
}

var resultsMarkers = []string{".questionReview", ".questionTable", ".result-item", ".question-result"}

var resultsKeywords = []string{"correct answer", "your score", "you scored"}

func NewQuizSubmitter(session browser.Session, waitTimeout time.Duration) *QuizSubmitter {
	return &QuizSubmitter{
		session:     session,
		waitTimeout: waitTimeout,
		settleDelay: 2 * time.Second,
		log:         logger.ForBrowser(),
	}
}

// Submit clicks the first matching submit control and waits for results.
// It reports whether a control was actually invoked; the caller proceeds to
// extraction either way.
func (s *QuizSubmitter) Submit(ctx context.Context) bool {
	clicked := false
	for _, selector := range submitSelectors {
		found, err := s.session.Click(ctx, selector, 0)
		if err != nil {
			s.log.Debug().Err(err).Str("selector", selector).Msg("submit click failed")
			continue
		}
		if found {
			s.log.Info().Str("selector", selector).Msg("submitted quiz")
			clicked = true
			break
		}
	}
	if !clicked {
		s.log.Warn().Msg("no submit control found")
		return false
	}

	s.waitForResults(ctx)
	return true
}

func (s *QuizSubmitter) waitForResults(ctx context.Context) {
	if err := s.session.WaitNetworkIdle(ctx, s.waitTimeout); err == nil {
		return
	}

	for _, marker := range resultsMarkers {
		if n, err := s.session.Count(ctx, marker); err == nil && n > 0 {
			return
		}
	}

	if url, err := s.session.URL(ctx); err == nil && strings.Contains(strings.ToLower(url), "score") {
		return
	}

	if text, err := s.session.InnerText(ctx); err == nil {
		lower := strings.ToLower(text)
		for _, kw := range resultsKeywords {
			if strings.Contains(lower, kw) {
				return
			}
		}
	}

	// Nothing signalled readiness: give the page a moment and proceed anyway.
	s.log.Debug().Msg("no results signal, proceeding after settle delay")
	select {
	case <-time.After(s.settleDelay):
	case <-ctx.Done():
	}
}
