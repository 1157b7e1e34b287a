// Package storage persists question records to per-type CSV files.
// Appends are incremental and idempotent: records whose Key already exists
// in the target file are skipped.
package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"quizharvester/internal/classify"
	"quizharvester/internal/scraper"
	"quizharvester/logger"
	apperr "quizharvester/pkg/errors"
)

// Per-type column layouts. The binary type carries two options and no media
// column; the other types carry four options and a trailing media path.
var csvColumns = map[classify.Type][]string{
	classify.TypeMultipleChoice: {
		"Key", "Domain", "Topic", "Difficulty", "Question",
		"Option1", "Option2", "Option3", "Option4",
		"CorrectAnswer", "Description", "ImagePath",
	},
	classify.TypeTrueFalse: {
		"Key", "Domain", "Topic", "Difficulty", "Question",
		"Option1", "Option2", "CorrectAnswer", "Description",
	},
	classify.TypeSound: {
		"Key", "Domain", "Topic", "Difficulty", "Question",
		"Option1", "Option2", "Option3", "Option4",
		"CorrectAnswer", "Description", "AudioPath",
	},
}

// CSVStore writes one CSV file per question type under a base directory.
type CSVStore struct {
	dir string
	mu  sync.Mutex
	log *logger.Logger
}

func NewCSVStore(dir string) *CSVStore {
	return &CSVStore{dir: dir, log: logger.ForStorage()}
}

// Append writes records to their per-type files and returns how many were
// genuinely new. Duplicate keys and repeated calls are safe.
func (s *CSVStore) Append(records []scraper.QuestionRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byType := make(map[classify.Type][]scraper.QuestionRecord)
	for _, r := range records {
		byType[r.Type] = append(byType[r.Type], r)
	}

	written := 0
	for qtype, group := range byType {
		n, err := s.appendType(qtype, group)
		if err != nil {
			return written, err
		}
		written += n
	}
	return written, nil
}

// FilePath returns the CSV file used for a question type.
func (s *CSVStore) FilePath(qtype classify.Type) string {
	return filepath.Join(s.dir, string(qtype)+".csv")
}

func (s *CSVStore) appendType(qtype classify.Type, records []scraper.QuestionRecord) (int, error) {
	columns, ok := csvColumns[qtype]
	if !ok {
		return 0, apperr.NewValidation("", fmt.Sprintf("unknown question type %q", qtype))
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return 0, apperr.NewPersistence("", "create output directory", err)
	}

	path := s.FilePath(qtype)
	existing, err := existingKeys(path)
	if err != nil {
		return 0, err
	}
	writeHeader := len(existing) == 0
	if _, statErr := os.Stat(path); statErr == nil {
		writeHeader = false
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return 0, apperr.NewPersistence("", "open output file", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if writeHeader {
		if err := w.Write(columns); err != nil {
			return 0, apperr.NewPersistence("", "write header", err)
		}
	}

	written := 0
	for _, r := range records {
		if existing[r.Key] {
			s.log.Debug().Str("key", r.Key).Msg("duplicate key skipped")
			continue
		}
		if err := w.Write(recordRow(qtype, r)); err != nil {
			return written, apperr.NewPersistence("", "write record", err)
		}
		existing[r.Key] = true
		written++
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return written, apperr.NewPersistence("", "flush records", err)
	}

	s.log.Info().Str("file", path).Int("written", written).Int("skipped", len(records)-written).Msg("records appended")
	return written, nil
}

func existingKeys(path string) (map[string]bool, error) {
	keys := make(map[string]bool)

	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return keys, nil
	}
	if err != nil {
		return nil, apperr.NewPersistence("", "read output file", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, apperr.NewPersistence("", "parse output file", err)
	}
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue
		}
		keys[row[0]] = true
	}
	return keys, nil
}

func recordRow(qtype classify.Type, r scraper.QuestionRecord) []string {
	optionCount := 4
	if qtype == classify.TypeTrueFalse {
		optionCount = 2
	}
	options := make([]string, optionCount)
	for i := 0; i < optionCount && i < len(r.Options); i++ {
		options[i] = r.Options[i]
	}

	row := []string{r.Key, r.Domain, r.Topic, r.Difficulty, r.Question}
	row = append(row, options...)
	row = append(row, r.CorrectAnswer, r.Description)
	if qtype != classify.TypeTrueFalse {
		row = append(row, r.MediaPath)
	}
	return row
}
