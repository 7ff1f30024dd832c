package explorer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/DavidS48/opening-simulator/internal/book"
)

const defaultBaseURL = "https://explorer.lichess.ovh"

// Response is the slice of the opening-explorer payload the simulator needs.
type Response struct {
	White int    `json:"white"`
	Draws int    `json:"draws"`
	Black int    `json:"black"`
	Moves []Move `json:"moves"`
}

type Move struct {
	UCI   string `json:"uci"`
	SAN   string `json:"san"`
	White int    `json:"white"`
	Draws int    `json:"draws"`
	Black int    `json:"black"`
}

// Weight is the total number of games in which the move was played.
func (m Move) Weight() int64 {
	return int64(m.White + m.Draws + m.Black)
}

// TotalGames sums the game counts over all recorded moves.
func (r Response) TotalGames() int64 {
	var total int64
	for _, m := range r.Moves {
		total += m.Weight()
	}
	return total
}

// Client fetches recorded moves for positions from one explorer database.
// Responses are cached per position, and throttled requests are retried
// after a long pause; waiting 60+ seconds between retries is considered
// polite, so we go for 120.
type Client struct {
	source     book.Source
	httpClient *http.Client
	baseURL    string
	speed      string
	rating     string
	cache      *lru.Cache[string, Response]
	retryWait  time.Duration
	maxRetries int
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithSpeedRating narrows the online database to one speed and rating band.
// It has no effect on the masters database.
func WithSpeedRating(speed, rating string) Option {
	return func(c *Client) {
		if speed != "" {
			c.speed = speed
		}
		if rating != "" {
			c.rating = rating
		}
	}
}

func WithRetry(wait time.Duration, max int) Option {
	return func(c *Client) {
		if wait > 0 {
			c.retryWait = wait
		}
		if max >= 0 {
			c.maxRetries = max
		}
	}
}

func New(source book.Source, opts ...Option) (*Client, error) {
	cache, err := lru.New[string, Response](8192)
	if err != nil {
		return nil, err
	}
	c := &Client{
		source:     source,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		speed:      "rapid",
		rating:     "2000",
		cache:      cache,
		retryWait:  120 * time.Second,
		maxRetries: 10,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Source reports which database the client queries.
func (c *Client) Source() book.Source {
	return c.source
}

// Moves fetches the recorded continuations for a position, consulting the
// cache first. The FEN is normalized before use, so equivalent positions
// share one cache slot and one request.
func (c *Client) Moves(ctx context.Context, fen string) (Response, error) {
	key, err := book.NormalizePosition(fen)
	if err != nil {
		return Response{}, err
	}

	cacheKey := string(c.source) + "|" + c.speed + "|" + c.rating + "|" + string(key)
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached, nil
	}

	reqURL, err := c.requestURL(key)
	if err != nil {
		return Response{}, err
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Response{}, ctx.Err()
			case <-time.After(c.retryWait):
			}
		}

		resp, err := c.fetch(ctx, reqURL)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return Response{}, ctx.Err()
			}
			continue
		}
		c.cache.Add(cacheKey, resp)
		return resp, nil
	}
	return Response{}, fmt.Errorf("explorer %s: %w", c.source, lastErr)
}

func (c *Client) requestURL(pos book.Position) (string, error) {
	endpoint := c.baseURL
	switch c.source {
	case book.SourceOnline:
		endpoint += "/lichess"
	case book.SourceMasters:
		endpoint += "/masters"
	default:
		return "", fmt.Errorf("unknown explorer source %q", c.source)
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("explorer url: %w", err)
	}
	q := url.Values{}
	q.Set("fen", pos.FullFEN())
	q.Set("variant", "standard")
	if c.source == book.SourceOnline {
		q.Set("speeds[]", c.speed)
		q.Set("ratings[]", c.rating)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) fetch(ctx context.Context, reqURL string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Response{}, err
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusTooManyRequests {
		return Response{}, fmt.Errorf("throttled (status %d)", res.StatusCode)
	}
	if res.StatusCode != http.StatusOK {
		return Response{}, fmt.Errorf("unexpected status %d", res.StatusCode)
	}

	// A body that fails to decode is normally the first clue that the API
	// has throttled us, so decode failures go through the retry path too.
	var out Response
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}
