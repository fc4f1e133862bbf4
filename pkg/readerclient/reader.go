package readerclient

import (
	"context"
	"time"

	"github.com/ilawngbayan/storybooks/internal/reading/models"
	"github.com/ilawngbayan/storybooks/internal/reading/navigator"
	"github.com/ilawngbayan/storybooks/pkg/clock"
	"github.com/ilawngbayan/storybooks/pkg/logger"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Operations reported to the error callback.
const (
	OpStartSession = "start_session"
	OpEndSession   = "end_session"
	OpPostProgress = "post_progress"
	OpBeacon       = "beacon"
)

var (
	// ErrNotOpen is returned by reader actions before Open.
	ErrNotOpen = errors.New("reader has no open book")
	// ErrUnvisitedPages is returned by Finish while some page was never shown.
	ErrUnvisitedPages = errors.New("some pages have not been visited yet")
)

// Reader walks one book with a navigator. Session and progress calls are best
// effort: their failures go to the error callback and never block navigation.
type Reader struct {
	client  *Client
	clock   clock.Clock
	flip    time.Duration
	onError func(op string, err error)

	book *models.Book
	nav  *navigator.Navigator
}

// ReaderOption configures a Reader
type ReaderOption func(*Reader)

// WithClock sets the clock driving the page-flip debounce
func WithClock(clk clock.Clock) ReaderOption {
	return func(r *Reader) { r.clock = clk }
}

// WithFlipDuration sets the page-flip debounce window
func WithFlipDuration(d time.Duration) ReaderOption {
	return func(r *Reader) { r.flip = d }
}

// OnError registers a callback for swallowed session and progress failures
func OnError(fn func(op string, err error)) ReaderOption {
	return func(r *Reader) { r.onError = fn }
}

// NewReader creates a reader on top of client
func NewReader(client *Client, opts ...ReaderOption) *Reader {
	r := &Reader{
		client: client,
		clock:  clock.System{},
		flip:   navigator.DefaultFlipDuration,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open fetches the book, starts a session and reports the first page as
// visited. A book that is already open is closed first. Only a failed book
// fetch is returned.
func (r *Reader) Open(ctx context.Context, bookID uint) error {
	if r.book != nil {
		r.Close(ctx)
	}

	book, err := r.client.GetBook(ctx, bookID)
	if err != nil {
		return err
	}
	nav, err := navigator.New(book, r.clock, r.flip)
	if err != nil {
		return errors.Wrapf(err, "open book %d", bookID)
	}
	r.book = book
	r.nav = nav

	r.startSession(ctx)
	r.postProgress(ctx)
	return nil
}

// Book returns the open book
func (r *Reader) Book() *models.Book { return r.book }

// Navigator exposes the underlying state machine for rendering
func (r *Reader) Navigator() *navigator.Navigator { return r.nav }

// Next moves forward and posts progress when a new page was reached
func (r *Reader) Next(ctx context.Context) error {
	if r.nav == nil {
		return ErrNotOpen
	}
	return r.tracking(ctx, r.nav.Next)
}

// Prev moves back or cancels an open question gate
func (r *Reader) Prev(ctx context.Context) error {
	if r.nav == nil {
		return ErrNotOpen
	}
	return r.tracking(ctx, r.nav.Prev)
}

// Answer records an answer on the open gate
func (r *Reader) Answer(questionID uint, answer string) error {
	if r.nav == nil {
		return ErrNotOpen
	}
	return r.nav.Answer(questionID, answer)
}

// Submit grades the open gate and posts progress when it lets the reader on
func (r *Reader) Submit(ctx context.Context) (*navigator.Feedback, error) {
	if r.nav == nil {
		return nil, ErrNotOpen
	}
	var fb *navigator.Feedback
	err := r.tracking(ctx, func() error {
		var err error
		fb, err = r.nav.SubmitAnswers()
		return err
	})
	return fb, err
}

// Finish posts 100% and then marks the book complete. It needs every page
// visited.
func (r *Reader) Finish(ctx context.Context) (*models.Progress, error) {
	if r.nav == nil {
		return nil, ErrNotOpen
	}
	if !r.nav.CanFinish() {
		return nil, ErrUnvisitedPages
	}

	if _, _, err := r.client.PostProgress(ctx, models.ProgressRequest{
		BookID:          r.book.ID,
		CurrentPage:     r.nav.TotalPages() - 1,
		PercentComplete: 100,
	}); err != nil {
		r.report(OpPostProgress, err)
	}
	return r.client.CompleteBook(ctx, r.book.ID)
}

// Close ends the session. A missing session is not an error.
func (r *Reader) Close(ctx context.Context) {
	if r.book == nil {
		return
	}
	if _, err := r.client.EndSession(ctx, r.book.ID); err != nil && !errors.Is(err, ErrNoActiveSession) {
		r.report(OpEndSession, err)
	}
}

// Leave ends the session with the unload beacon. It is used when the reader
// is interrupted and cannot wait for a regular end call.
func (r *Reader) Leave(ctx context.Context) {
	if r.book == nil {
		return
	}
	if err := r.client.EndSessionBeacon(ctx, r.book.ID); err != nil {
		r.report(OpBeacon, err)
	}
}

// ReadAgain restarts the book with a fresh session
func (r *Reader) ReadAgain(ctx context.Context) error {
	if r.nav == nil {
		return ErrNotOpen
	}
	if err := r.nav.ReadAgain(); err != nil {
		return err
	}
	r.Close(ctx)
	r.startSession(ctx)
	r.postProgress(ctx)
	return nil
}

func (r *Reader) tracking(ctx context.Context, move func() error) error {
	before := len(r.nav.Visited())
	if err := move(); err != nil {
		return err
	}
	if len(r.nav.Visited()) > before {
		r.postProgress(ctx)
	}
	return nil
}

func (r *Reader) startSession(ctx context.Context) {
	if _, err := r.client.StartSession(ctx, r.book.ID); err != nil {
		r.report(OpStartSession, err)
	}
}

func (r *Reader) postProgress(ctx context.Context) {
	_, _, err := r.client.PostProgress(ctx, models.ProgressRequest{
		BookID:          r.book.ID,
		CurrentPage:     r.nav.CurrentPage(),
		PercentComplete: r.nav.PercentComplete(),
	})
	if err != nil {
		r.report(OpPostProgress, err)
	}
}

func (r *Reader) report(op string, err error) {
	logger.Warn("reader call failed", zap.String("op", op), zap.Error(err))
	if r.onError != nil {
		r.onError(op, err)
	}
}
