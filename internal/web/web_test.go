package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DavidS48/opening-simulator/internal/book"
	"github.com/DavidS48/opening-simulator/internal/db"
	"github.com/DavidS48/opening-simulator/internal/sim"
)

func newTestServer(t *testing.T) (*httptest.Server, *db.Store) {
	t.Helper()
	store, err := db.Open(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	mux := http.NewServeMux()
	NewHandler(store).RegisterRoutes(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, store
}

func TestRunEndpoints(t *testing.T) {
	server, store := newTestServer(t)
	ctx := context.Background()

	cfg := sim.RunConfig{ID: "weighted-online", NumTrials: 100, MaxDepth: 40, Concurrency: 4, Seed: 1}
	summary := sim.Summary{
		ConfigID:       "weighted-online",
		TrialCount:     100,
		MeanDepth:      9.5,
		DepthHistogram: map[int]int{9: 50, 10: 50},
		StatusCounts:   map[sim.Status]int{sim.StatusOutOfBook: 100},
	}
	id, err := store.InsertRun(ctx, cfg, summary)
	require.NoError(t, err)

	t.Run("lists stored runs", func(t *testing.T) {
		res, err := http.Get(server.URL + "/api/runs")
		require.NoError(t, err)
		defer res.Body.Close()
		require.Equal(t, http.StatusOK, res.StatusCode)

		var views []runView
		require.NoError(t, json.NewDecoder(res.Body).Decode(&views))
		require.Len(t, views, 1)
		require.Equal(t, "weighted-online", views[0].Summary.ConfigID)
		require.Equal(t, 9.5, views[0].Summary.MeanDepth)
	})

	t.Run("fetches one run by id", func(t *testing.T) {
		res, err := http.Get(server.URL + "/api/runs/" + strconv.FormatInt(id, 10))
		require.NoError(t, err)
		defer res.Body.Close()
		require.Equal(t, http.StatusOK, res.StatusCode)

		var view runView
		require.NoError(t, json.NewDecoder(res.Body).Decode(&view))
		require.Equal(t, id, view.ID)
		require.Equal(t, map[int]int{9: 50, 10: 50}, view.Summary.DepthHistogram)
	})

	t.Run("unknown runs are 404", func(t *testing.T) {
		res, err := http.Get(server.URL + "/api/runs/99999")
		require.NoError(t, err)
		defer res.Body.Close()
		require.Equal(t, http.StatusNotFound, res.StatusCode)
	})

	t.Run("bad limits are rejected", func(t *testing.T) {
		res, err := http.Get(server.URL + "/api/runs?limit=nope")
		require.NoError(t, err)
		defer res.Body.Close()
		require.Equal(t, http.StatusBadRequest, res.StatusCode)
	})
}

func TestOpeningsEndpoint(t *testing.T) {
	server, store := newTestServer(t)
	ctx := context.Background()

	_, err := store.ReplaceOpenings(ctx, book.SourceMasters, []book.Entry{
		{Position: "", Move: "e2e4", Weight: 100},
		{Position: "", Move: "d2d4", Weight: 80},
	})
	require.NoError(t, err)

	t.Run("lists continuations for a position", func(t *testing.T) {
		res, err := http.Get(server.URL + "/api/openings?source=masters&fen=")
		require.NoError(t, err)
		defer res.Body.Close()
		require.Equal(t, http.StatusOK, res.StatusCode)

		var view openingsView
		require.NoError(t, json.NewDecoder(res.Body).Decode(&view))
		require.Equal(t, "masters", view.Source)
		require.Equal(t, []openingView{
			{Move: "e2e4", Weight: 100},
			{Move: "d2d4", Weight: 80},
		}, view.Moves)
	})

	t.Run("rejects unknown sources", func(t *testing.T) {
		res, err := http.Get(server.URL + "/api/openings?source=club")
		require.NoError(t, err)
		defer res.Body.Close()
		require.Equal(t, http.StatusBadRequest, res.StatusCode)
	})

	t.Run("rejects bad fens", func(t *testing.T) {
		res, err := http.Get(server.URL + "/api/openings?source=online&fen=garbage")
		require.NoError(t, err)
		defer res.Body.Close()
		require.Equal(t, http.StatusBadRequest, res.StatusCode)
	})
}
