package explorer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DavidS48/opening-simulator/internal/book"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func fenKey(fen string) string {
	parts := strings.Fields(fen)
	return strings.Join(parts[:4], " ")
}

func TestClientMoves(t *testing.T) {
	t.Run("online requests carry speed and rating filters", func(t *testing.T) {
		var gotPath string
		var gotQuery map[string][]string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotQuery = r.URL.Query()
			_ = json.NewEncoder(w).Encode(Response{})
		}))
		defer server.Close()

		c, err := New(book.SourceOnline,
			WithBaseURL(server.URL), WithSpeedRating("blitz", "1600"))
		require.NoError(t, err)

		_, err = c.Moves(context.Background(), "")
		require.NoError(t, err)
		require.Equal(t, "/lichess", gotPath)
		require.Equal(t, []string{fenKey(startFEN) + " 0 1"}, gotQuery["fen"])
		require.Equal(t, []string{"blitz"}, gotQuery["speeds[]"])
		require.Equal(t, []string{"1600"}, gotQuery["ratings[]"])
	})

	t.Run("masters requests omit the online filters", func(t *testing.T) {
		var gotPath string
		var gotQuery map[string][]string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotQuery = r.URL.Query()
			_ = json.NewEncoder(w).Encode(Response{})
		}))
		defer server.Close()

		c, err := New(book.SourceMasters, WithBaseURL(server.URL))
		require.NoError(t, err)

		_, err = c.Moves(context.Background(), "")
		require.NoError(t, err)
		require.Equal(t, "/masters", gotPath)
		require.NotContains(t, gotQuery, "speeds[]")
		require.NotContains(t, gotQuery, "ratings[]")
	})

	t.Run("responses are cached per position", func(t *testing.T) {
		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			_ = json.NewEncoder(w).Encode(Response{
				Moves: []Move{{UCI: "e2e4", White: 10, Draws: 5, Black: 5}},
			})
		}))
		defer server.Close()

		c, err := New(book.SourceMasters, WithBaseURL(server.URL))
		require.NoError(t, err)

		first, err := c.Moves(context.Background(), startFEN)
		require.NoError(t, err)
		// same position, different counters
		second, err := c.Moves(context.Background(), fenKey(startFEN)+" 7 9")
		require.NoError(t, err)

		require.Equal(t, first, second)
		require.Equal(t, int32(1), hits.Load())
		require.Equal(t, int64(20), first.Moves[0].Weight())
	})

	t.Run("throttled requests are retried", func(t *testing.T) {
		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hits.Add(1) <= 2 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			_ = json.NewEncoder(w).Encode(Response{})
		}))
		defer server.Close()

		c, err := New(book.SourceMasters,
			WithBaseURL(server.URL), WithRetry(time.Millisecond, 5))
		require.NoError(t, err)

		_, err = c.Moves(context.Background(), "")
		require.NoError(t, err)
		require.Equal(t, int32(3), hits.Load())
	})

	t.Run("gives up after exhausting retries", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not json, probably a throttle page"))
		}))
		defer server.Close()

		c, err := New(book.SourceMasters,
			WithBaseURL(server.URL), WithRetry(time.Millisecond, 2))
		require.NoError(t, err)

		_, err = c.Moves(context.Background(), "")
		require.Error(t, err)
	})

	t.Run("rejects invalid positions without a request", func(t *testing.T) {
		c, err := New(book.SourceMasters, WithBaseURL("http://127.0.0.1:0"))
		require.NoError(t, err)
		_, err = c.Moves(context.Background(), "garbage")
		require.Error(t, err)
	})
}

func TestCrawl(t *testing.T) {
	// a tiny fake book: 1. e4 is popular, 1. d4 is below the game floor,
	// and 1... e5 is the only recorded answer
	afterE4 := "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3"
	responses := map[string]Response{
		fenKey(startFEN): {
			Moves: []Move{
				{UCI: "e2e4", White: 600, Draws: 400, Black: 500},
				{UCI: "d2d4", White: 20, Draws: 10, Black: 20},
			},
		},
		afterE4: {
			Moves: []Move{
				{UCI: "e7e5", White: 500, Draws: 300, Black: 400},
			},
		},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := responses[fenKey(r.URL.Query().Get("fen"))]
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	c, err := New(book.SourceOnline, WithBaseURL(server.URL))
	require.NoError(t, err)

	entries, err := c.Crawl(context.Background(), CrawlConfig{
		MaxDepth:  4,
		MaxBranch: 4,
		MinGames:  100,
	})
	require.NoError(t, err)

	require.Equal(t, []book.Entry{
		{Position: fenKey(startFEN), Move: "e2e4", Weight: 1500},
		{Position: afterE4, Move: "e7e5", Weight: 1200},
	}, entries)

	t.Run("crawled entries build a playable table", func(t *testing.T) {
		table, report := book.Build(book.SourceOnline, entries)
		require.Zero(t, report.Skipped)
		require.Equal(t, 2, table.Size())
	})
}
