// Package publisher fans freshly harvested question records out to
// downstream consumers.
package publisher

import "quizharvester/internal/scraper"

// Publisher delivers new question records to a message stream.
type Publisher interface {
	// PublishRecords publishes a batch of question records
	PublishRecords(records []scraper.QuestionRecord) error

	// TrimStreams trims all streams to the configured maximum length
	TrimStreams() error

	// Close closes the publisher connection
	Close() error
}

// Noop is used when no stream backend is configured.
type Noop struct{}

func (Noop) PublishRecords([]scraper.QuestionRecord) error { return nil }
func (Noop) TrimStreams() error                            { return nil }
func (Noop) Close() error                                  { return nil }
