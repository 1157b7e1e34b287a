// Package results mines a graded quiz results page for correct answers and
// explanations. Extraction is layered: structured strategies run first and a
// fallback guarantees output for every question.
package results

import (
	"strings"

	"quizharvester/logger"
)

// Content is the results page in both forms the strategies need.
type Content struct {
	HTML string
	Text string
}

// Question is a quiz question awaiting grading.
type Question struct {
	Number  string
	Prompt  string
	Options []string
}

// Graded is the mined outcome for one question. Fallback marks answers that
// did not match any option, including answers synthesized by the last-resort
// stage.
type Graded struct {
	Answer      string
	Explanation string
	Fallback    bool
}

// Strategy is one extraction approach. TryExtract reports false when the
// page shape it depends on is absent.
type Strategy interface {
	Name() string
	TryExtract(page Content, questions []Question) ([]Graded, bool)
}

// Pipeline runs strategies in order and accepts the first result that passes
// the quality gate. The final stage always succeeds, so Extract always
// returns one entry per question.
type Pipeline struct {
	stages []Strategy
	log    *logger.Logger
}

func NewPipeline() *Pipeline {
	return &Pipeline{
		stages: []Strategy{
			&documentStage{},
			&blockStage{},
			&lineStage{},
		},
		log: logger.ForPipeline(),
	}
}

// Extract grades every question. A stage result is accepted when it covers
// every question and either carries at least one explanation or matched more
// than half of the answers to a real option.
func (p *Pipeline) Extract(page Content, questions []Question) []Graded {
	if len(questions) == 0 {
		return nil
	}

	for _, stage := range p.stages {
		graded, ok := stage.TryExtract(page, questions)
		if !ok {
			continue
		}
		if !accepted(graded, questions) {
			p.log.Debug().Str("stage", stage.Name()).Msg("stage output rejected by quality gate")
			continue
		}
		p.log.Info().
			Str("stage", stage.Name()).
			Int("questions", len(questions)).
			Int("matched", matchedCount(graded)).
			Msg("results extracted")
		p.reportFallbacks(graded, questions)
		return graded
	}

	p.log.Warn().Int("questions", len(questions)).Msg("all extraction stages failed, using first options")
	graded := (&fallbackStage{}).extract(questions)
	p.reportFallbacks(graded, questions)
	return graded
}

func accepted(graded []Graded, questions []Question) bool {
	if len(graded) != len(questions) {
		return false
	}
	for _, g := range graded {
		if g.Explanation != "" {
			return true
		}
	}
	return matchedCount(graded)*2 > len(questions)
}

func matchedCount(graded []Graded) int {
	n := 0
	for _, g := range graded {
		if !g.Fallback && g.Answer != "" {
			n++
		}
	}
	return n
}

func (p *Pipeline) reportFallbacks(graded []Graded, questions []Question) {
	for i, g := range graded {
		if g.Fallback {
			p.log.Warn().
				Str("question", questions[i].Number).
				Str("answer", g.Answer).
				Msg("answer did not match an option, fallback recorded")
		}
	}
}

// matchOption maps a captured answer onto the real option list. Exact match
// first, then containment either way. An unmatched capture comes back
// verbatim with fallback set so downstream can see it.
func matchOption(capture string, options []string) (string, bool) {
	capture = strings.TrimSpace(capture)
	lower := strings.ToLower(capture)

	for _, opt := range options {
		if strings.EqualFold(strings.TrimSpace(opt), capture) {
			return strings.TrimSpace(opt), true
		}
	}
	for _, opt := range options {
		clean := strings.ToLower(strings.TrimSpace(opt))
		if clean == "" {
			continue
		}
		if strings.Contains(lower, clean) || strings.Contains(clean, lower) {
			return strings.TrimSpace(opt), true
		}
	}
	return capture, false
}
