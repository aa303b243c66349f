package screening

import (
	"strings"
)

// HeuristicScore rates a transcript 0-100 without a model. Used when a
// job has no description to score against, and as the fallback when the
// model answers outside its schema. Longer, multi-turn conversations
// with question-and-answer texture score higher.
func HeuristicScore(transcript string) int {
	text := strings.TrimSpace(transcript)
	if text == "" {
		return 0
	}

	score := 20

	// Length buckets: substance needs words
	words := len(strings.Fields(text))
	switch {
	case words >= 600:
		score += 30
	case words >= 300:
		score += 22
	case words >= 120:
		score += 15
	case words >= 40:
		score += 8
	}

	// Question-and-answer texture
	questions := strings.Count(text, "?")
	switch {
	case questions >= 8:
		score += 20
	case questions >= 4:
		score += 14
	case questions >= 1:
		score += 7
	}

	// Speaker turns: a monologue is not a screening
	turns := countSpeakerTurns(text)
	switch {
	case turns >= 12:
		score += 20
	case turns >= 6:
		score += 14
	case turns >= 2:
		score += 7
	}

	// Engagement language
	lower := strings.ToLower(text)
	for _, marker := range []string{"experience", "worked on", "my role", "available", "interested"} {
		if strings.Contains(lower, marker) {
			score += 2
		}
	}

	if score > 100 {
		score = 100
	}
	return score
}

// countSpeakerTurns counts lines that open with a speaker label, the
// "name:" convention transcripts use.
func countSpeakerTurns(text string) int {
	turns := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if idx := strings.Index(line, ":"); idx > 0 && idx <= 24 {
			turns++
		}
	}
	return turns
}
