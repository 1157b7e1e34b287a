package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractMetadataFromBreadcrumbs(t *testing.T) {
	html := `<html><head><title>Ancient Rome Quiz</title></head><body>
		<div class="breadcrumbs">
			<a href="/">Home</a>
			<a href="/quizzes/history/">History Trivia</a>
			<a href="/quizzes/history/ancient/">Ancient History</a>
			<a href="/quiz/history/ancient/rome.html">Rome</a>
		</div>
		<h1>Ancient Rome</h1>
		<div class="quiz-info">Difficulty: Hard. 10 questions.</div>
	</body></html>`

	md := ExtractMetadata(html, "https://www.funtrivia.com/quiz/history/ancient/rome-123.html")
	assert.Equal(t, "History", md.Domain)
	assert.Equal(t, "Ancient History", md.Topic)
	assert.Equal(t, "Hard", md.Difficulty)
	assert.Equal(t, "Ancient Rome", md.Title)
}

func TestExtractMetadataFromURL(t *testing.T) {
	html := `<html><head><title>quiz</title></head><body><h1>What Came First? Quiz #9</h1></body></html>`

	md := ExtractMetadata(html, "https://www.funtrivia.com/quiz/history/world-war-two/blitz-99.html")
	assert.Equal(t, "history", md.Domain)
	assert.Equal(t, "World War Two", md.Topic)
	assert.Equal(t, "Normal", md.Difficulty)
}

func TestExtractMetadataTopicDefaultsToGeneral(t *testing.T) {
	html := `<html><body><h1>A Very Specific Quiz Title With Numbers 42</h1></body></html>`

	md := ExtractMetadata(html, "https://www.funtrivia.com/quiz/mixed-1.html")
	assert.Equal(t, "General", md.Topic)
}

func TestExtractMetadataDifficultyKeywords(t *testing.T) {
	easy := `<html><body><div class="quiz-meta">An easy quiz for beginners</div></body></html>`
	assert.Equal(t, "Easy", ExtractMetadata(easy, "").Difficulty)

	hard := `<html><head><title>Difficult Geography</title></head><body></body></html>`
	assert.Equal(t, "Hard", ExtractMetadata(hard, "").Difficulty)
}
