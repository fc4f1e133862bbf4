package readerclient_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/ilawngbayan/storybooks/internal/reading/models"
	"github.com/ilawngbayan/storybooks/pkg/readerclient"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SessionLifecycle(t *testing.T) {
	srv := newServer(t)
	c := srv.client(t, 1)
	ctx := context.Background()

	started, err := c.StartSession(ctx, srv.book.ID)
	require.NoError(t, err)
	assert.True(t, started.Success)
	assert.False(t, started.Resumed)

	again, err := c.StartSession(ctx, srv.book.ID)
	require.NoError(t, err)
	assert.True(t, again.Resumed)
	assert.Equal(t, started.SessionID, again.SessionID)

	srv.clock.Advance(42 * time.Second)
	ended, err := c.EndSession(ctx, srv.book.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 42, ended.TotalSeconds)

	_, err = c.EndSession(ctx, srv.book.ID)
	assert.ErrorIs(t, err, readerclient.ErrNoActiveSession)
}

func TestClient_Beacon(t *testing.T) {
	srv := newServer(t)
	c := srv.client(t, 1)
	ctx := context.Background()

	_, err := c.StartSession(ctx, srv.book.ID)
	require.NoError(t, err)
	srv.clock.Advance(15 * time.Second)

	require.NoError(t, c.EndSessionBeacon(ctx, srv.book.ID))
	assert.EqualValues(t, 15, srv.progress(t, 1).TotalReadingTime)

	// nothing left to close, still not an error
	require.NoError(t, c.EndSessionBeacon(ctx, srv.book.ID))
}

func TestClient_ProgressAndCompletion(t *testing.T) {
	srv := newServer(t)
	c := srv.client(t, 1)
	ctx := context.Background()

	p, created, err := c.PostProgress(ctx, models.ProgressRequest{BookID: srv.book.ID, CurrentPage: 3, PercentComplete: 50})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 50, p.PercentComplete)

	_, created, err = c.PostProgress(ctx, models.ProgressRequest{BookID: srv.book.ID, CurrentPage: 4, PercentComplete: 63})
	require.NoError(t, err)
	assert.False(t, created)

	done, err := c.CompleteBook(ctx, srv.book.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, done.PercentComplete)

	rows, err := c.ListProgress(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 100, rows[0].PercentComplete)
}

func TestClient_APIErrors(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()

	_, err := srv.client(t, 1).GetBook(ctx, 999)
	var apiErr *readerclient.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "NOT_FOUND", apiErr.Code)
	assert.Equal(t, "book not found", apiErr.Message)

	_, err = readerclient.New(srv.url, "").ListProgress(ctx)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}
