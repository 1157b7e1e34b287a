package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyTrueFalse(t *testing.T) {
	tests := []struct {
		name    string
		prompt  string
		options []string
		want    Type
	}{
		{
			name:    "capital question with true/false options",
			prompt:  "Is Paris the capital of France?",
			options: []string{"True", "False"},
			want:    TypeTrueFalse,
		},
		{
			name:    "yes/no pair",
			prompt:  "Does the sun rise in the east?",
			options: []string{"Yes", "No"},
			want:    TypeTrueFalse,
		},
		{
			name:    "correct/incorrect pair",
			prompt:  "The Great Wall is visible from space.",
			options: []string{"Correct", "Incorrect"},
			want:    TypeTrueFalse,
		},
		{
			name:    "mixed polarity synonyms",
			prompt:  "Can penguins fly?",
			options: []string{"yes", "false"},
			want:    TypeTrueFalse,
		},
		{
			name:    "grammar marker with short options",
			prompt:  "Did the Romans build aqueducts?",
			options: []string{"They did", "Never"},
			want:    TypeTrueFalse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.prompt, tt.options))
		})
	}
}

func TestClassifyMultipleChoice(t *testing.T) {
	tests := []struct {
		name    string
		prompt  string
		options []string
	}{
		{
			name:    "four city options",
			prompt:  "Which city is the capital of France?",
			options: []string{"Paris", "London", "Berlin", "Madrid"},
		},
		{
			name:    "factual question with two options stays multiple choice",
			prompt:  "What year did the war end?",
			options: []string{"1945", "1918"},
		},
		{
			name:    "two long options",
			prompt:  "Which statement describes the process?",
			options: []string{"Water evaporates from the surface", "Water freezes into glacial ice"},
		},
		{
			name:    "single option",
			prompt:  "Pick one",
			options: []string{"Only choice"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, TypeMultipleChoice, Classify(tt.prompt, tt.options))
		})
	}
}

func TestClassifySound(t *testing.T) {
	assert.Equal(t, TypeSound,
		Classify("Listen to the clip and name the instrument", []string{"Violin", "Cello", "Viola", "Bass"}))
	assert.Equal(t, TypeSound,
		Classify("What sound does this animal make?", []string{"True", "False"}))
	assert.Equal(t, TypeSound,
		Classify("Identify the audio sample", []string{"A", "B"}))
}

func TestClassifyIsDeterministic(t *testing.T) {
	prompt := "Is it raining?"
	options := []string{"Yes", "No"}
	first := Classify(prompt, options)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Classify(prompt, options))
	}
}

func TestTypePrefix(t *testing.T) {
	assert.Equal(t, "MQ", TypeMultipleChoice.Prefix())
	assert.Equal(t, "TF", TypeTrueFalse.Prefix())
	assert.Equal(t, "Sound", TypeSound.Prefix())
}
