package results

// fallbackStage is the last resort: every question gets its first option and
// no explanation. It cannot fail, which keeps the one-output-per-question
// guarantee intact.
type fallbackStage struct{}

func (s *fallbackStage) Name() string { return "fallback" }

func (s *fallbackStage) TryExtract(page Content, questions []Question) ([]Graded, bool) {
	return s.extract(questions), true
}

func (s *fallbackStage) extract(questions []Question) []Graded {
	graded := make([]Graded, len(questions))
	for i, q := range questions {
		graded[i] = firstOptionGraded(q)
	}
	return graded
}
