package navigator

import (
	"fmt"
	"testing"
	"time"

	"github.com/ilawngbayan/storybooks/internal/reading/models"
	"github.com/ilawngbayan/storybooks/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

// sunAndMoon is an 8-page book where every page is gated by one question.
func sunAndMoon() *models.Book {
	book := &models.Book{ID: 1, Title: "Sun and Moon"}
	for n := 1; n <= 8; n++ {
		book.Pages = append(book.Pages, models.Page{
			ID:         uint(n),
			PageNumber: n,
			Questions: []models.Question{{
				ID:            uint(100 + n),
				AnswerType:    models.AnswerText,
				QuestionText:  fmt.Sprintf("Question %d", n),
				CorrectAnswer: fmt.Sprintf("answer%d", n),
			}},
		})
	}
	return book
}

func plainBook(pages int) *models.Book {
	book := &models.Book{ID: 2, Title: "Plain"}
	for n := 1; n <= pages; n++ {
		book.Pages = append(book.Pages, models.Page{ID: uint(n), PageNumber: n})
	}
	return book
}

func newNav(t *testing.T, book *models.Book) (*Navigator, *clock.Fake) {
	t.Helper()
	clk := clock.NewFake(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	nav, err := New(book, clk, DefaultFlipDuration)
	require.NoError(t, err)
	return nav, clk
}

// pass answers the open gate of page index i correctly.
func pass(t *testing.T, nav *Navigator, clk *clock.Fake) {
	t.Helper()
	i := nav.CurrentPage()
	require.NoError(t, nav.Next())
	require.Equal(t, QuestionGate, nav.State())
	require.NoError(t, nav.Answer(uint(101+i), fmt.Sprintf("answer%d", i+1)))
	fb, err := nav.SubmitAnswers()
	require.NoError(t, err)
	require.True(t, fb.Passed)
	clk.Advance(DefaultFlipDuration)
}

func TestPercentComplete(t *testing.T) {
	assert.Equal(t, 13, PercentComplete(1, 8))
	assert.Equal(t, 50, PercentComplete(4, 8))
	assert.Equal(t, 100, PercentComplete(8, 8))
	assert.Equal(t, 100, PercentComplete(9, 8))
	assert.Equal(t, 33, PercentComplete(1, 3))
	assert.Equal(t, 67, PercentComplete(2, 3))
	assert.Equal(t, 0, PercentComplete(0, 8))
	assert.Equal(t, 0, PercentComplete(3, 0))
}

func TestNew_SeedsFirstPage(t *testing.T) {
	nav, _ := newNav(t, sunAndMoon())

	assert.Equal(t, Reading, nav.State())
	assert.Equal(t, 0, nav.CurrentPage())
	assert.Equal(t, []int{0}, nav.Visited())
	assert.Equal(t, 13, nav.PercentComplete())
	assert.False(t, nav.ShowQuestions())
	assert.False(t, nav.IsFlipping())

	_, err := New(&models.Book{}, clock.System{}, 0)
	assert.ErrorIs(t, err, ErrEmptyBook)
}

func TestNew_OrdersPagesByNumber(t *testing.T) {
	book := plainBook(3)
	book.Pages[0], book.Pages[2] = book.Pages[2], book.Pages[0]

	nav, _ := newNav(t, book)
	assert.Equal(t, 1, nav.Page().PageNumber)
}

func TestNavigator_VisitingHalfTheBook(t *testing.T) {
	nav, clk := newNav(t, plainBook(8))

	for i := 0; i < 3; i++ {
		require.NoError(t, nav.Next())
		clk.Advance(DefaultFlipDuration)
	}
	assert.Equal(t, []int{0, 1, 2, 3}, nav.Visited())
	assert.Equal(t, 50, nav.PercentComplete())
	assert.False(t, nav.CanFinish())
}

func TestNavigator_WrongAnswerKeepsGate(t *testing.T) {
	nav, clk := newNav(t, sunAndMoon())

	// Clear pages 1 and 2 to reach page 3 (index 2).
	pass(t, nav, clk)
	pass(t, nav, clk)
	require.Equal(t, 2, nav.CurrentPage())

	require.NoError(t, nav.Next())
	require.Equal(t, QuestionGate, nav.State())
	require.NoError(t, nav.Answer(103, "wrong"))

	fb, err := nav.SubmitAnswers()
	require.NoError(t, err)
	assert.False(t, fb.Passed)
	assert.Equal(t, []QuestionResult{{QuestionID: 103, Correct: false}}, fb.Results)
	assert.Equal(t, QuestionGate, nav.State())
	assert.Equal(t, 2, nav.CurrentPage())
	assert.False(t, nav.HasVisited(3))

	assert.ErrorIs(t, nav.Next(), ErrGateOpen)

	require.NoError(t, nav.Answer(103, "  ANSWER3 "))
	fb, err = nav.SubmitAnswers()
	require.NoError(t, err)
	assert.True(t, fb.Passed)
	assert.Equal(t, Reading, nav.State())
	assert.Equal(t, 3, nav.CurrentPage())
	assert.True(t, nav.HasVisited(3))
}

func TestNavigator_PrevCancelsGateWithoutTurning(t *testing.T) {
	nav, clk := newNav(t, sunAndMoon())
	pass(t, nav, clk)

	require.NoError(t, nav.Next())
	require.True(t, nav.ShowQuestions())

	require.NoError(t, nav.Prev())
	assert.Equal(t, Reading, nav.State())
	assert.Equal(t, 1, nav.CurrentPage())

	require.NoError(t, nav.Prev())
	assert.Equal(t, 0, nav.CurrentPage())
	clk.Advance(DefaultFlipDuration)

	assert.ErrorIs(t, nav.Prev(), ErrFirstPage)

	// A cleared gate stays cleared for the rest of the pass.
	require.NoError(t, nav.Next())
	assert.Equal(t, 1, nav.CurrentPage())
}

func TestNavigator_FullReadReachesComplete(t *testing.T) {
	nav, clk := newNav(t, sunAndMoon())

	for i := 0; i < 7; i++ {
		pass(t, nav, clk)
	}
	assert.Equal(t, 7, nav.CurrentPage())
	assert.True(t, nav.CanFinish())
	assert.Equal(t, 100, nav.PercentComplete())
	assert.Equal(t, Reading, nav.State())

	// The last page's gate still stands between the reader and Complete.
	pass(t, nav, clk)
	assert.Equal(t, Complete, nav.State())
	assert.Equal(t, 100, nav.PercentComplete())
	assert.ErrorIs(t, nav.Next(), ErrComplete)
	assert.ErrorIs(t, nav.Prev(), ErrComplete)
}

func TestNavigator_ReadAgainResets(t *testing.T) {
	nav, clk := newNav(t, plainBook(2))

	assert.ErrorIs(t, nav.ReadAgain(), ErrNotComplete)

	require.NoError(t, nav.Next())
	clk.Advance(DefaultFlipDuration)
	require.NoError(t, nav.Next())
	require.Equal(t, Complete, nav.State())

	require.NoError(t, nav.ReadAgain())
	assert.Equal(t, Reading, nav.State())
	assert.Equal(t, 0, nav.CurrentPage())
	assert.Equal(t, []int{0}, nav.Visited())
}

func TestNavigator_DebounceIgnoresInputsDuringFlip(t *testing.T) {
	nav, clk := newNav(t, plainBook(4))

	require.NoError(t, nav.Next())
	assert.True(t, nav.IsFlipping())

	clk.Advance(DefaultFlipDuration - time.Millisecond)
	assert.ErrorIs(t, nav.Next(), ErrFlipping)
	assert.ErrorIs(t, nav.Prev(), ErrFlipping)
	assert.Equal(t, 1, nav.CurrentPage())
	assert.Equal(t, []int{0, 1}, nav.Visited())

	clk.Advance(time.Millisecond)
	assert.False(t, nav.IsFlipping())
	require.NoError(t, nav.Next())
	assert.Equal(t, 2, nav.CurrentPage())
}

func TestNavigator_DebounceAfterTurningBack(t *testing.T) {
	nav, clk := newNav(t, sunAndMoon())
	pass(t, nav, clk)

	require.NoError(t, nav.Prev())
	assert.ErrorIs(t, nav.Next(), ErrFlipping)
	assert.Equal(t, 0, nav.CurrentPage())

	clk.Advance(DefaultFlipDuration)
	require.NoError(t, nav.Next())
	require.Equal(t, 1, nav.CurrentPage())
	clk.Advance(DefaultFlipDuration)

	// Opening and answering a gate does not turn a page.
	require.NoError(t, nav.Next())
	require.NoError(t, nav.Answer(102, "answer2"))
	fb, err := nav.SubmitAnswers()
	require.NoError(t, err)
	require.True(t, fb.Passed)
	assert.True(t, nav.IsFlipping())

	_, err = nav.SubmitAnswers()
	assert.ErrorIs(t, err, ErrNotInGate)
}

func TestNavigator_AnswerValidation(t *testing.T) {
	nav, _ := newNav(t, sunAndMoon())

	assert.ErrorIs(t, nav.Answer(101, "answer1"), ErrNotInGate)
	require.NoError(t, nav.Next())
	assert.ErrorIs(t, nav.Answer(999, "x"), ErrUnknownQuestion)

	fb, err := nav.SubmitAnswers()
	require.NoError(t, err)
	assert.False(t, fb.Passed)
}

func TestIsCorrect(t *testing.T) {
	opts := datatypes.JSON(`["The Sun","The Moon","A Star"]`)
	mc := &models.Question{AnswerType: models.AnswerMultipleChoice, CorrectAnswer: "The Moon", Options: opts}
	byLetter := &models.Question{AnswerType: models.AnswerMultipleChoice, CorrectAnswer: "b", Options: opts}
	text := &models.Question{AnswerType: models.AnswerText, CorrectAnswer: "Bayan"}

	tests := []struct {
		name   string
		q      *models.Question
		answer string
		want   bool
	}{
		{"text case-insensitive", text, "  bayan ", true},
		{"text wrong", text, "bayani", false},
		{"text empty", text, "", false},
		{"choice exact", mc, "The Moon", true},
		{"choice letter", mc, "b", true},
		{"choice upper letter", mc, "B", true},
		{"choice other letter", mc, "a", false},
		{"choice letter out of range", mc, "z", false},
		{"letter key with text", byLetter, "The Moon", true},
		{"letter key with letter", byLetter, "b", true},
		{"letter key wrong text", byLetter, "The Sun", false},
		{"choice is case-sensitive", mc, "the moon", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCorrect(tt.q, tt.answer))
		})
	}
}
