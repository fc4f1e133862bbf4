package readerclient_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ilawngbayan/storybooks/internal/common/auth"
	"github.com/ilawngbayan/storybooks/internal/common/cache"
	"github.com/ilawngbayan/storybooks/internal/reading/events"
	"github.com/ilawngbayan/storybooks/internal/reading/handlers"
	"github.com/ilawngbayan/storybooks/internal/reading/models"
	"github.com/ilawngbayan/storybooks/internal/reading/navigator"
	"github.com/ilawngbayan/storybooks/internal/reading/repository"
	"github.com/ilawngbayan/storybooks/internal/reading/services"
	"github.com/ilawngbayan/storybooks/internal/testutil"
	"github.com/ilawngbayan/storybooks/pkg/clock"
	"github.com/ilawngbayan/storybooks/pkg/metrics"
	"github.com/ilawngbayan/storybooks/pkg/readerclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const flip = 600 * time.Millisecond

type server struct {
	url    string
	repos  *repository.Registry
	clock  *clock.Fake
	tokens *auth.TokenManager
	book   *models.Book
}

func newServer(t *testing.T) *server {
	t.Helper()

	repos := testutil.NewRegistry(t)
	clk := clock.NewFake(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	m := metrics.New()
	settingsCache := cache.New(0)
	tokens := auth.NewTokenManager("test-secret", time.Hour, "storybooks-test")

	h := handlers.New(handlers.Deps{
		Sessions: services.NewSessionService(repos, clk, events.Discard{}, m),
		Progress: services.NewProgressService(repos, clk, events.Discard{}, m),
		Books:    services.NewBookService(repos),
		Settings: services.NewSettingsService(repos, settingsCache, time.Minute, clk),
		Tokens:   tokens,
	})
	srv := httptest.NewServer(handlers.NewRouter(h, nil))
	t.Cleanup(func() {
		srv.Close()
		settingsCache.Stop()
	})

	return &server{
		url:    srv.URL,
		repos:  repos,
		clock:  clk,
		tokens: tokens,
		book:   testutil.SeedBook(t, repos, "Sun and Moon", 8, true),
	}
}

func (s *server) client(t *testing.T, userID uint) *readerclient.Client {
	t.Helper()
	token, err := s.tokens.GenerateToken(userID, models.RoleStudent)
	require.NoError(t, err)
	return readerclient.New(s.url, token)
}

func (s *server) progress(t *testing.T, userID uint) *models.Progress {
	t.Helper()
	p, err := s.repos.Progress.Get(context.Background(), userID, s.book.ID)
	require.NoError(t, err)
	return p
}

// clearGate answers the open gate with the fixture's answer for the page.
func clearGate(t *testing.T, ctx context.Context, r *readerclient.Reader) {
	t.Helper()
	page := r.Navigator().Page()
	for _, q := range page.Questions {
		require.NoError(t, r.Answer(q.ID, fmt.Sprintf("answer%d", page.PageNumber)))
	}
	fb, err := r.Submit(ctx)
	require.NoError(t, err)
	require.True(t, fb.Passed)
}

func TestReader_FullRead(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()

	var failures []string
	r := readerclient.NewReader(srv.client(t, 1),
		readerclient.WithClock(srv.clock),
		readerclient.WithFlipDuration(flip),
		readerclient.OnError(func(op string, err error) { failures = append(failures, op) }),
	)
	require.NoError(t, r.Open(ctx, srv.book.ID))
	assert.Equal(t, 13, srv.progress(t, 1).PercentComplete)

	_, err := r.Finish(ctx)
	assert.ErrorIs(t, err, readerclient.ErrUnvisitedPages)

	for r.Navigator().State() != navigator.Complete {
		srv.clock.Advance(flip)
		require.NoError(t, r.Next(ctx))
		require.Equal(t, navigator.QuestionGate, r.Navigator().State())
		clearGate(t, ctx, r)

		if r.Navigator().State() == navigator.Reading {
			assert.ErrorIs(t, r.Next(ctx), navigator.ErrFlipping)
			assert.Equal(t, r.Navigator().PercentComplete(), srv.progress(t, 1).PercentComplete)
		}
	}
	assert.Equal(t, 100, srv.progress(t, 1).PercentComplete)

	progress, err := r.Finish(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100, progress.PercentComplete)
	assert.NotNil(t, progress.CompletedAt)

	srv.clock.Advance(time.Minute)
	r.Close(ctx)

	final := srv.progress(t, 1)
	assert.Equal(t, 100, final.PercentComplete)
	assert.Positive(t, final.TotalReadingTime)
	assert.Empty(t, failures)
}

func TestReader_WrongAnswerKeepsGate(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()

	r := readerclient.NewReader(srv.client(t, 1), readerclient.WithClock(srv.clock), readerclient.WithFlipDuration(flip))
	require.NoError(t, r.Open(ctx, srv.book.ID))

	for r.Navigator().CurrentPage() < 2 {
		srv.clock.Advance(flip)
		require.NoError(t, r.Next(ctx))
		clearGate(t, ctx, r)
	}
	srv.clock.Advance(flip)

	require.NoError(t, r.Next(ctx))
	q := r.Navigator().Page().Questions[0]
	require.NoError(t, r.Answer(q.ID, "the wrong answer"))
	fb, err := r.Submit(ctx)
	require.NoError(t, err)
	assert.False(t, fb.Passed)
	assert.Equal(t, navigator.QuestionGate, r.Navigator().State())
	assert.Equal(t, 2, r.Navigator().CurrentPage())
	assert.False(t, r.Navigator().HasVisited(3))
	assert.Equal(t, 38, srv.progress(t, 1).PercentComplete)

	clearGate(t, ctx, r)
	assert.True(t, r.Navigator().HasVisited(3))
	assert.Equal(t, 50, srv.progress(t, 1).PercentComplete)
}

func TestReader_ReadAgainStartsNewSession(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()

	r := readerclient.NewReader(srv.client(t, 1), readerclient.WithClock(srv.clock), readerclient.WithFlipDuration(0))
	require.NoError(t, r.Open(ctx, srv.book.ID))
	for r.Navigator().State() != navigator.Complete {
		srv.clock.Advance(time.Second)
		require.NoError(t, r.Next(ctx))
		clearGate(t, ctx, r)
	}

	require.NoError(t, r.ReadAgain(ctx))
	assert.Equal(t, 0, r.Navigator().CurrentPage())
	assert.Equal(t, 13, srv.progress(t, 1).PercentComplete)

	history, err := srv.repos.Sessions.ListByUserBook(ctx, 1, srv.book.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.True(t, history[0].IsOpen())
	assert.False(t, history[1].IsOpen())
}

func TestReader_FailuresDoNotBlockNavigation(t *testing.T) {
	book := models.Book{ID: 5, Title: "Offline", Pages: []models.Page{
		{ID: 1, PageNumber: 1, Content: "one"},
		{ID: 2, PageNumber: 2, Content: "two"},
	}}
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/api/books/") {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(models.BookResponse{Book: &book})
			return
		}
		http.Error(w, `{"code":"INTERNAL_ERROR","message":"down"}`, http.StatusInternalServerError)
	}))
	defer stub.Close()

	var (
		mu  sync.Mutex
		ops []string
	)
	r := readerclient.NewReader(readerclient.New(stub.URL, "token"),
		readerclient.WithFlipDuration(0),
		readerclient.OnError(func(op string, err error) {
			mu.Lock()
			defer mu.Unlock()
			ops = append(ops, op)
		}),
	)

	ctx := context.Background()
	require.NoError(t, r.Open(ctx, book.ID))
	require.NoError(t, r.Next(ctx))
	assert.Equal(t, 1, r.Navigator().CurrentPage())
	r.Close(ctx)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		readerclient.OpStartSession,
		readerclient.OpPostProgress,
		readerclient.OpPostProgress,
		readerclient.OpEndSession,
	}, ops)
}

func TestReader_OpenClosesPreviousBook(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()
	other := testutil.SeedBook(t, srv.repos, "The Monkey and the Turtle", 3, false)

	r := readerclient.NewReader(srv.client(t, 1), readerclient.WithClock(srv.clock), readerclient.WithFlipDuration(0))
	require.NoError(t, r.Open(ctx, srv.book.ID))
	srv.clock.Advance(20 * time.Second)
	require.NoError(t, r.Open(ctx, other.ID))
	assert.Equal(t, other.ID, r.Book().ID)

	first, err := srv.repos.Sessions.ListByUserBook(ctx, 1, srv.book.ID)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.False(t, first[0].IsOpen())
	assert.EqualValues(t, 20, srv.progress(t, 1).TotalReadingTime)

	second, err := srv.repos.Sessions.ListByUserBook(ctx, 1, other.ID)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.True(t, second[0].IsOpen())
}

func TestReader_LeaveSendsBeacon(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()

	r := readerclient.NewReader(srv.client(t, 1), readerclient.WithClock(srv.clock))
	require.NoError(t, r.Open(ctx, srv.book.ID))
	srv.clock.Advance(9 * time.Second)
	r.Leave(ctx)

	history, err := srv.repos.Sessions.ListByUserBook(ctx, 1, srv.book.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.ClosedByBeacon, history[0].ClosedBy)
	assert.EqualValues(t, 9, srv.progress(t, 1).TotalReadingTime)
}

func TestReader_ActionsBeforeOpen(t *testing.T) {
	r := readerclient.NewReader(readerclient.New("http://127.0.0.1:0", ""))
	assert.ErrorIs(t, r.Next(context.Background()), readerclient.ErrNotOpen)
	_, err := r.Finish(context.Background())
	assert.ErrorIs(t, err, readerclient.ErrNotOpen)
}
