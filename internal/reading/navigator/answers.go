package navigator

import (
	"strings"

	"github.com/ilawngbayan/storybooks/internal/reading/models"
)

// IsCorrect checks an answer against a question. Text answers compare
// trimmed and case-insensitively. Multiple choice answers match the key
// exactly, or through the option letter ("b") on either side.
func IsCorrect(q *models.Question, answer string) bool {
	given := strings.TrimSpace(answer)
	want := strings.TrimSpace(q.CorrectAnswer)
	if given == "" {
		return false
	}

	if q.AnswerType != models.AnswerMultipleChoice {
		return strings.EqualFold(given, want)
	}

	if given == want {
		return true
	}
	return optionText(q, given) == want || given == optionText(q, want)
}

// optionText converts an option letter to its text. Anything that is not a
// letter naming an existing option comes back unchanged.
func optionText(q *models.Question, letter string) string {
	if len(letter) != 1 {
		return letter
	}
	idx := int(strings.ToLower(letter)[0]) - 'a'
	opts := q.OptionList()
	if idx < 0 || idx >= len(opts) {
		return letter
	}
	return strings.TrimSpace(opts[idx])
}
