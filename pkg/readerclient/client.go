// Package readerclient is the Go client for the reading API, plus a Reader
// that drives a navigator and keeps the server in step with it.
package readerclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ilawngbayan/storybooks/internal/reading/models"
	"github.com/pkg/errors"
)

// ErrNoActiveSession is returned by EndSession when the server had no open
// session for the book.
var ErrNoActiveSession = errors.New("no active reading session")

// APIError is a non-2xx answer from the server
type APIError struct {
	StatusCode int    `json:"status"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("reading api: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("reading api: status %d: [%s] %s", e.StatusCode, e.Code, e.Message)
}

// Client calls the reading API with a bearer token
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a client for the API at baseURL
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartSession opens or resumes the session for bookID
func (c *Client) StartSession(ctx context.Context, bookID uint) (*models.StartSessionResponse, error) {
	var out models.StartSessionResponse
	if _, err := c.do(ctx, http.MethodPost, "/api/reading-sessions/start", models.SessionRequest{BookID: bookID}, &out); err != nil {
		return nil, errors.Wrap(err, "start session")
	}
	return &out, nil
}

// EndSession closes the open session for bookID
func (c *Client) EndSession(ctx context.Context, bookID uint) (*models.EndSessionResponse, error) {
	var out models.EndSessionResponse
	_, err := c.do(ctx, http.MethodPost, "/api/reading-sessions/end", models.SessionRequest{BookID: bookID}, &out)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return nil, ErrNoActiveSession
	}
	if err != nil {
		return nil, errors.Wrap(err, "end session")
	}
	return &out, nil
}

// EndSessionBeacon sends the unload-time end request: a text/plain body
// carrying the token. The server always answers 204, so only transport
// failures are reported.
func (c *Client) EndSessionBeacon(ctx context.Context, bookID uint) error {
	body, err := json.Marshal(models.BeaconRequest{BookID: bookID, Token: c.token})
	if err != nil {
		return errors.WithStack(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/reading-sessions/end-beacon", bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build beacon request")
	}
	req.Header.Set("Content-Type", "text/plain;charset=UTF-8")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "send beacon")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// PostProgress upserts progress. created reports a 201 answer.
func (c *Client) PostProgress(ctx context.Context, req models.ProgressRequest) (progress *models.Progress, created bool, err error) {
	var out models.ProgressResponse
	status, err := c.do(ctx, http.MethodPost, "/api/progress", req, &out)
	if err != nil {
		return nil, false, errors.Wrap(err, "post progress")
	}
	return out.Progress, status == http.StatusCreated, nil
}

// CompleteBook marks bookID complete for the caller
func (c *Client) CompleteBook(ctx context.Context, bookID uint) (*models.Progress, error) {
	var out models.CompleteResponse
	if _, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/books/%d/complete", bookID), struct{}{}, &out); err != nil {
		return nil, errors.Wrap(err, "complete book")
	}
	return out.Progress, nil
}

// ListProgress returns the rows visible to the caller
func (c *Client) ListProgress(ctx context.Context) ([]*models.Progress, error) {
	var out models.ProgressListResponse
	if _, err := c.do(ctx, http.MethodGet, "/api/progress", nil, &out); err != nil {
		return nil, errors.Wrap(err, "list progress")
	}
	return out.Progress, nil
}

// GetBook fetches a book with its pages and questions
func (c *Client) GetBook(ctx context.Context, bookID uint) (*models.Book, error) {
	var out models.BookResponse
	if _, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/books/%d", bookID), nil, &out); err != nil {
		return nil, errors.Wrapf(err, "get book %d", bookID)
	}
	return out.Book, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) (int, error) {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return 0, errors.WithStack(err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, errors.Wrap(err, "read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if json.Unmarshal(raw, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		apiErr.StatusCode = resp.StatusCode
		// soft failures carry {success:false, message} without a code
		if apiErr.Code == "" && resp.StatusCode == http.StatusNotFound {
			apiErr.Code = "NOT_FOUND"
		}
		return resp.StatusCode, apiErr
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, errors.Wrap(err, "decode response")
		}
	}
	return resp.StatusCode, nil
}
