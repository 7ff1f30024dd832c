package config

import (
	"os"
	"path/filepath"
)

type Config struct {
	ListenAddr  string
	DataDir     string
	DBPath      string
	RunConfig   string
	ExplorerURL string
}

func FromEnv() Config {
	listenAddr := getenv("OPENINGSIM_LISTEN_ADDR", ":8080")
	dataDir := getenv("OPENINGSIM_DATA_DIR", "./data")
	dbPath := getenv("OPENINGSIM_DB_PATH", filepath.Join(dataDir, "openings.sqlite"))
	runConfig := getenv("OPENINGSIM_RUN_CONFIG", filepath.Join(dataDir, "run_config.json"))
	explorerURL := getenv("OPENINGSIM_EXPLORER_URL", "")

	return Config{
		ListenAddr:  listenAddr,
		DataDir:     dataDir,
		DBPath:      dbPath,
		RunConfig:   runConfig,
		ExplorerURL: explorerURL,
	}
}

func getenv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
