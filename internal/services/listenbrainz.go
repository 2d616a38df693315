// ListenBrainz API client with rate limiting and bounded retry.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lbx/internal/models"
	"github.com/desertthunder/lbx/internal/shared"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.listenbrainz.org/1/"

// RetryPolicy bounds the retry loop for recoverable network errors.
type RetryPolicy struct {
	MaxRetries  int           // Attempts before giving up
	BackoffBase time.Duration // First retry delay; doubles per attempt
	BackoffMax  time.Duration // Ceiling for backoff and Retry-After waits
}

// DefaultRetryPolicy mirrors the shipped config defaults.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 5, BackoffBase: 500 * time.Millisecond, BackoffMax: 30 * time.Second}
}

// ListenBrainzService implements [ListenSource] against the public
// ListenBrainz HTTP API.
type ListenBrainzService struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      RetryPolicy
	logger     *log.Logger
}

// ListenBrainzOpts configures a ListenBrainzService.
type ListenBrainzOpts struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	RateLimit  float64 // Requests per second; <=0 disables limiting
	Retry      RetryPolicy
	Logger     *log.Logger
}

// NewListenBrainzService creates a ListenBrainz client.
func NewListenBrainzService(opts ListenBrainzOpts) *ListenBrainzService {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Retry.MaxRetries <= 0 {
		opts.Retry = DefaultRetryPolicy()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	return &ListenBrainzService{
		baseURL:    opts.BaseURL,
		token:      opts.Token,
		httpClient: opts.HTTPClient,
		limiter:    limiter,
		retry:      opts.Retry,
		logger:     opts.Logger,
	}
}

// Name returns the service name.
func (s *ListenBrainzService) Name() string { return "ListenBrainz" }

// listensResponse mirrors GET /user/{name}/listens.
type listensResponse struct {
	Payload struct {
		Listens []models.RawListen `json:"listens"`
		Count   int                `json:"count"`
	} `json:"payload"`
}

// FetchListensPage retrieves up to count listens older than maxTS, newest first.
func (s *ListenBrainzService) FetchListensPage(ctx context.Context, username string, maxTS int64, count int) (*ListensPage, error) {
	params := url.Values{}
	params.Set("count", strconv.Itoa(count))
	if maxTS > 0 {
		params.Set("max_ts", strconv.FormatInt(maxTS, 10))
	}

	var resp listensResponse
	path := fmt.Sprintf("user/%s/listens", url.PathEscape(username))
	if err := s.getJSON(ctx, path, params, &resp); err != nil {
		return nil, err
	}

	return &ListensPage{Listens: resp.Payload.Listens}, nil
}

// feedbackResponse mirrors GET /feedback/user/{name}/get-feedback.
type feedbackResponse struct {
	Feedback []struct {
		RecordingMBID string `json:"recording_mbid"`
		Score         int    `json:"score"`
	} `json:"feedback"`
	Count      int  `json:"count"`
	TotalCount *int `json:"total_count"`
	Offset     int  `json:"offset"`
}

// FetchLikesPage retrieves one page of liked (score=1) recordings.
func (s *ListenBrainzService) FetchLikesPage(ctx context.Context, username string, offset, count int) (*LikesPage, error) {
	params := url.Values{}
	params.Set("score", "1")
	params.Set("metadata", "false")
	params.Set("offset", strconv.Itoa(offset))
	params.Set("count", strconv.Itoa(count))

	var resp feedbackResponse
	path := fmt.Sprintf("feedback/user/%s/get-feedback", url.PathEscape(username))
	if err := s.getJSON(ctx, path, params, &resp); err != nil {
		return nil, err
	}

	page := &LikesPage{Fetched: len(resp.Feedback), TotalCount: -1}
	if resp.TotalCount != nil {
		page.TotalCount = *resp.TotalCount
	}
	for _, item := range resp.Feedback {
		if item.Score == 1 && item.RecordingMBID != "" {
			page.MBIDs = append(page.MBIDs, item.RecordingMBID)
		}
	}

	return page, nil
}

// getJSON performs a GET with rate limiting and the bounded retry loop, then
// decodes the response body into target.
func (s *ListenBrainzService) getJSON(ctx context.Context, path string, params url.Values, target any) error {
	fullURL := s.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < s.retry.MaxRetries; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrCancelled, err)
		}

		body, retryAfter, err := s.doRequest(ctx, fullURL)
		if err == nil {
			if err := json.Unmarshal(body, target); err != nil {
				return fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
			}
			return nil
		}

		if !errors.Is(err, shared.ErrNetwork) && !errors.Is(err, shared.ErrRateLimited) {
			return err
		}

		lastErr = err
		wait := s.backoff(attempt)
		if retryAfter > 0 {
			wait = retryAfter
			if wait > s.retry.BackoffMax {
				wait = s.retry.BackoffMax
			}
		}

		s.logger.Warn("retrying request", "url", fullURL, "attempt", attempt+1, "wait", wait, "err", err)
		if err := sleepCtx(ctx, wait); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrCancelled, err)
		}
	}

	return fmt.Errorf("%w: %v", shared.ErrRetriesExceeded, lastErr)
}

// doRequest performs one HTTP attempt. It returns the response body on
// success, or a classified error plus any server-specified retry delay.
func (s *ListenBrainzService) doRequest(ctx context.Context, fullURL string) ([]byte, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: failed to create request: %v", shared.ErrAPIRequest, err)
	}
	req.Header.Set("User-Agent", "lbx/1.0")
	if s.token != "" {
		req.Header.Set("Authorization", "Token "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, fmt.Errorf("%w: %v", shared.ErrCancelled, ctx.Err())
		}
		// Timeouts and connection resets retry identically.
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, 0, fmt.Errorf("%w: %w: %v", shared.ErrNetwork, shared.ErrTimeout, err)
		}
		return nil, 0, fmt.Errorf("%w: %v", shared.ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: failed to read response: %v", shared.ErrNetwork, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, 0, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		wait := 5 * time.Second
		if v := resp.Header.Get("Retry-After"); v != "" {
			if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
				wait = time.Duration(secs) * time.Second
			}
		}
		return nil, wait, fmt.Errorf("%w: HTTP 429", shared.ErrRateLimited)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, 0, fmt.Errorf("%w: HTTP %d", shared.ErrAuth, resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, 0, fmt.Errorf("%w: HTTP %d", shared.ErrNetwork, resp.StatusCode)
	default:
		return nil, 0, fmt.Errorf("%w: HTTP %d: %s", shared.ErrAPIRequest, resp.StatusCode, string(body))
	}
}

// backoff returns the exponential delay for the given zero-based attempt.
func (s *ListenBrainzService) backoff(attempt int) time.Duration {
	wait := s.retry.BackoffBase << uint(attempt)
	if wait > s.retry.BackoffMax || wait <= 0 {
		wait = s.retry.BackoffMax
	}
	return wait
}

// sleepCtx sleeps for d unless the context is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
