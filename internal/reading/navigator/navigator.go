// Package navigator is the reader-side page state machine: page index,
// visited pages, question gates and the page-flip debounce.
//
// States are Reading(i), QuestionGate(i) and Complete. Next from Reading(i)
// opens the gate of page i when it has uncleared questions, otherwise turns
// to page i+1, or to Complete from the last page. Every page turn starts a
// flip window; Next, Prev and SubmitAnswers arriving inside it are ignored
// with ErrFlipping.
package navigator

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/ilawngbayan/storybooks/internal/reading/models"
	"github.com/ilawngbayan/storybooks/pkg/clock"
)

// DefaultFlipDuration is the page-turn debounce window.
const DefaultFlipDuration = 600 * time.Millisecond

var (
	ErrFlipping        = errors.New("page flip in progress")
	ErrGateOpen        = errors.New("answer the page questions first")
	ErrNotInGate       = errors.New("no question gate is open")
	ErrFirstPage       = errors.New("already on the first page")
	ErrComplete        = errors.New("book already complete")
	ErrNotComplete     = errors.New("book not complete")
	ErrUnknownQuestion = errors.New("question is not on this page")
	ErrEmptyBook       = errors.New("book has no pages")
)

// State is the navigation phase
type State int

const (
	Reading State = iota
	QuestionGate
	Complete
)

func (s State) String() string {
	switch s {
	case Reading:
		return "reading"
	case QuestionGate:
		return "question_gate"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// QuestionResult is the feedback for one gate question
type QuestionResult struct {
	QuestionID uint
	Correct    bool
}

// Feedback is the outcome of submitting a gate
type Feedback struct {
	Passed  bool
	Results []QuestionResult
}

// Navigator holds one reading pass over a book. It is not safe for
// concurrent use.
type Navigator struct {
	pages []models.Page
	clock clock.Clock
	flip  time.Duration

	state     State
	current   int
	visited   map[int]struct{}
	cleared   map[int]struct{}
	answers   map[uint]string
	flipUntil time.Time
}

// New starts a pass on the first page. A zero flip disables the debounce.
func New(book *models.Book, clk clock.Clock, flip time.Duration) (*Navigator, error) {
	if book == nil || len(book.Pages) == 0 {
		return nil, ErrEmptyBook
	}

	pages := make([]models.Page, len(book.Pages))
	copy(pages, book.Pages)
	sort.SliceStable(pages, func(i, j int) bool { return pages[i].PageNumber < pages[j].PageNumber })

	n := &Navigator{pages: pages, clock: clk, flip: flip}
	n.reset()
	return n, nil
}

func (n *Navigator) reset() {
	n.state = Reading
	n.current = 0
	n.visited = map[int]struct{}{0: {}}
	n.cleared = make(map[int]struct{})
	n.answers = make(map[uint]string)
}

func (n *Navigator) State() State { return n.state }

// CurrentPage is the 0-based page index.
func (n *Navigator) CurrentPage() int { return n.current }

// Page returns the page being read.
func (n *Navigator) Page() *models.Page { return &n.pages[n.current] }

func (n *Navigator) TotalPages() int { return len(n.pages) }

// ShowQuestions reports whether the current page's gate is open.
func (n *Navigator) ShowQuestions() bool { return n.state == QuestionGate }

// IsFlipping reports whether a page turn is still inside its debounce window.
func (n *Navigator) IsFlipping() bool { return n.clock.Now().Before(n.flipUntil) }

// Visited returns the visited page indices in ascending order.
func (n *Navigator) Visited() []int {
	out := make([]int, 0, len(n.visited))
	for i := range n.visited {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

func (n *Navigator) HasVisited(i int) bool {
	_, ok := n.visited[i]
	return ok
}

// PercentComplete derives completion from the visited set.
func (n *Navigator) PercentComplete() int {
	return PercentComplete(len(n.visited), len(n.pages))
}

// CanFinish reports whether every page has been visited.
func (n *Navigator) CanFinish() bool {
	return len(n.visited) == len(n.pages)
}

// Next moves forward: into the current page's gate, to the next page, or to
// Complete from the last page.
func (n *Navigator) Next() error {
	switch {
	case n.state == Complete:
		return ErrComplete
	case n.IsFlipping():
		return ErrFlipping
	case n.state == QuestionGate:
		return ErrGateOpen
	}

	page := n.Page()
	if _, ok := n.cleared[n.current]; page.HasQuestions() && !ok {
		n.state = QuestionGate
		return nil
	}

	n.advance()
	return nil
}

// Prev cancels an open gate without turning the page, or turns back one page.
func (n *Navigator) Prev() error {
	switch {
	case n.state == Complete:
		return ErrComplete
	case n.IsFlipping():
		return ErrFlipping
	case n.state == QuestionGate:
		n.state = Reading
		return nil
	case n.current == 0:
		return ErrFirstPage
	}

	n.current--
	n.startFlip()
	return nil
}

// Answer records an answer for a question of the open gate.
func (n *Navigator) Answer(questionID uint, answer string) error {
	if n.state != QuestionGate {
		return ErrNotInGate
	}
	if n.question(questionID) == nil {
		return ErrUnknownQuestion
	}
	n.answers[questionID] = answer
	return nil
}

// SubmitAnswers grades the open gate. When every question is answered
// correctly the gate clears and the reader moves on; otherwise the reader
// stays on the gate with per-question feedback.
func (n *Navigator) SubmitAnswers() (*Feedback, error) {
	if n.state != QuestionGate {
		return nil, ErrNotInGate
	}
	if n.IsFlipping() {
		return nil, ErrFlipping
	}

	questions := n.Page().Questions
	fb := &Feedback{Passed: true, Results: make([]QuestionResult, len(questions))}
	for i := range questions {
		q := &questions[i]
		correct := IsCorrect(q, n.answers[q.ID])
		fb.Results[i] = QuestionResult{QuestionID: q.ID, Correct: correct}
		if !correct {
			fb.Passed = false
		}
	}
	if !fb.Passed {
		return fb, nil
	}

	n.cleared[n.current] = struct{}{}
	n.advance()
	return fb, nil
}

// ReadAgain starts a fresh pass from the first page.
func (n *Navigator) ReadAgain() error {
	if n.state != Complete {
		return ErrNotComplete
	}
	n.reset()
	n.startFlip()
	return nil
}

func (n *Navigator) advance() {
	if n.current == len(n.pages)-1 {
		n.state = Complete
	} else {
		n.current++
		n.visited[n.current] = struct{}{}
		n.state = Reading
	}
	n.startFlip()
}

func (n *Navigator) startFlip() {
	n.flipUntil = n.clock.Now().Add(n.flip)
}

func (n *Navigator) question(id uint) *models.Question {
	questions := n.Page().Questions
	for i := range questions {
		if questions[i].ID == id {
			return &questions[i]
		}
	}
	return nil
}

// PercentComplete is min(round(visited/total*100), 100), halves rounding up.
func PercentComplete(visited, total int) int {
	if total <= 0 || visited <= 0 {
		return 0
	}
	p := int(math.Round(float64(visited) * 100 / float64(total)))
	if p > 100 {
		return 100
	}
	return p
}
