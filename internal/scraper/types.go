// Package scraper drives a browser session through a quiz and turns the
// graded results page into validated question records.
package scraper

import "quizharvester/internal/classify"

// QuizType is the detected page layout of a quiz.
type QuizType string

const (
	QuizTypePhoto    QuizType = "photo"
	QuizTypeAudio    QuizType = "audio"
	QuizTypeMatch    QuizType = "match"
	QuizTypeStandard QuizType = "standard"
	QuizTypeUnknown  QuizType = "unknown"
)

// Supported reports whether records can be mined from this layout.
func (t QuizType) Supported() bool {
	switch t {
	case QuizTypePhoto, QuizTypeAudio, QuizTypeStandard:
		return true
	default:
		return false
	}
}

// RawQuestion is a question as lifted from the live quiz page, before
// grading. Number is the on-page label ("1", "2", ...); InputName is the
// radio group name binding the prompt to its options. IsPhoto and IsAudio
// say what kind of media MediaURL points at.
type RawQuestion struct {
	Number    string
	Prompt    string
	Options   []string
	InputName string
	MediaURL  string
	IsPhoto   bool
	IsAudio   bool
}

// GradedQuestion pairs a raw question with what the results page said
// about it. AnswerFallback marks answers synthesized when extraction could
// not match a real one.
type GradedQuestion struct {
	RawQuestion
	CorrectAnswer  string
	Explanation    string
	AnswerFallback bool
}

// QuizMetadata is what the page reveals about the quiz itself.
type QuizMetadata struct {
	Title      string
	Domain     string
	Topic      string
	Difficulty string
}

// QuestionRecord is the final validated output unit.
type QuestionRecord struct {
	Key           string
	Type          classify.Type
	Domain        string
	Topic         string
	Difficulty    string
	Question      string
	Options       []string
	CorrectAnswer string
	Description   string
	MediaPath     string
}
