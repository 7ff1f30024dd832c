package app

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/DavidS48/opening-simulator/internal/db"
	"github.com/DavidS48/opening-simulator/internal/web"
)

// App wires the results store to the reporting API.
type App struct {
	store *db.Store
	mux   *http.ServeMux

	closeOnce sync.Once
}

func New(dbPath string) (*App, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	store, err := db.Open(dbPath)
	if err != nil {
		return nil, err
	}

	h := web.NewHandler(store)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	return &App{
		store: store,
		mux:   mux,
	}, nil
}

func (a *App) Router() http.Handler {
	return a.mux
}

func (a *App) Close() {
	a.closeOnce.Do(func() {
		_ = a.store.Close()
	})
}
