package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gin-gonic/gin"
	"github.com/ilawngbayan/storybooks/internal/common/auth"
	"github.com/ilawngbayan/storybooks/internal/common/cache"
	"github.com/ilawngbayan/storybooks/internal/reading/events"
	"github.com/ilawngbayan/storybooks/internal/reading/handlers"
	"github.com/ilawngbayan/storybooks/internal/reading/models"
	"github.com/ilawngbayan/storybooks/internal/reading/repository"
	"github.com/ilawngbayan/storybooks/internal/reading/services"
	"github.com/ilawngbayan/storybooks/internal/testutil"
	"github.com/ilawngbayan/storybooks/pkg/clock"
	"github.com/ilawngbayan/storybooks/pkg/metrics"
	"github.com/ilawngbayan/storybooks/pkg/readerclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	repos  *repository.Registry
	book   *models.Book
	reader *readerclient.Reader
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repos := testutil.NewRegistry(t)
	clk := clock.System{}
	m := metrics.New()
	settingsCache := cache.New(0)
	tokens := auth.NewTokenManager("secret", time.Hour, "test")

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

	book := testutil.SeedBook(t, repos, "Two Pages", 2, true)
	token, err := tokens.GenerateToken(1, models.RoleStudent)
	require.NoError(t, err)

	reader := readerclient.NewReader(readerclient.New(srv.URL, token), readerclient.WithFlipDuration(0))
	require.NoError(t, reader.Open(context.Background(), book.ID))

	return &testServer{repos: repos, book: book, reader: reader}
}

func (s *testServer) sessions(t *testing.T) []*models.ReadingSession {
	t.Helper()
	history, err := s.repos.Sessions.ListByUserBook(context.Background(), 1, s.book.ID)
	require.NoError(t, err)
	return history
}

// press feeds keys to the model. Special names map to their key types; any
// other string is typed as runes.
func press(t *testing.T, m tea.Model, keys ...string) tea.Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m, _ = m.Update(msg)
	}
	return m
}

func TestModel_ReadsThroughGatedBook(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	var m tea.Model = newModel(ctx, srv.reader)
	assert.Contains(t, m.View(), "page 1/2 (50%)")

	m = press(t, m, "n")
	assert.Contains(t, m.View(), "What happens on page 1?")

	m = press(t, m, "nope", "enter")
	assert.Contains(t, m.View(), "wrong")
	assert.Contains(t, m.View(), "What happens on page 1?")

	m = press(t, m, "answer1", "enter")
	assert.Contains(t, m.View(), "page 2/2 (100%)")
	assert.Contains(t, m.View(), "correct!")

	m = press(t, m, "n", "esc")
	assert.NotContains(t, m.View(), "What happens on page 2?")

	m = press(t, m, "n", "answer2", "enter")
	assert.Contains(t, m.View(), "the end (100%)")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Contains(t, m.View(), "book complete: 100%")

	p, err := srv.repos.Progress.Get(ctx, 1, srv.book.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, p.PercentComplete)
	assert.NotNil(t, p.CompletedAt)
}

func TestModel_FinishNeedsEveryPage(t *testing.T) {
	srv := newTestServer(t)

	m := press(t, newModel(context.Background(), srv.reader), "f")
	assert.Contains(t, m.View(), readerclient.ErrUnvisitedPages.Error())
}

func TestRunReader_QuitEndsSession(t *testing.T) {
	srv := newTestServer(t)

	var out bytes.Buffer
	progress, err := runReader(context.Background(), srv.reader, strings.NewReader("q"), &out)
	require.NoError(t, err)
	assert.Nil(t, progress)

	history := srv.sessions(t)
	require.Len(t, history, 1)
	assert.False(t, history[0].IsOpen())
	assert.Equal(t, models.ClosedByClient, history[0].ClosedBy)
}

func TestRunReader_InterruptSendsBeacon(t *testing.T) {
	srv := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(50*time.Millisecond, cancel)

	var out bytes.Buffer
	_, err := runReader(ctx, srv.reader, strings.NewReader(""), &out)
	require.NoError(t, err)

	history := srv.sessions(t)
	require.Len(t, history, 1)
	assert.False(t, history[0].IsOpen())
	assert.Equal(t, models.ClosedByBeacon, history[0].ClosedBy)
}

func TestTokenCmdRequiresUser(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"token"})
	cmd.SetOut(&bytes.Buffer{})
	assert.EqualError(t, cmd.Execute(), "--user-id is required")
}
