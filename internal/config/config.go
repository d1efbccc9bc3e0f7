package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dvloznov/upi-tracker/internal/kvstore"
)

const (
	defaultTimezone    = "Asia/Kolkata"
	defaultPort        = "8080"
	defaultGeminiModel = "gemini-2.5-flash"
	defaultBQDataset   = "upi_tracker"
)

// Config holds process-wide settings read from the environment.
type Config struct {
	StoreBackend string
	DataDir      string
	SQLitePath   string
	DBSource     string
	GCSBucket    string
	GCSPrefix    string

	// Backup target: a GCS bucket wins over a local directory.
	BackupBucket string
	BackupDir    string

	Timezone string
	Location *time.Location

	LogLevel string
	Port     string

	NotionToken string
	NotionDBID  string

	BQProject string
	BQDataset string

	GeminiModel   string
	LaunchCommand string
}

// Load reads configuration from environment variables, applying defaults.
func Load() (*Config, error) {
	dataDir := os.Getenv("UPI_TRACKER_DATA_DIR")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("config.Load: resolve home dir: %w", err)
		}
		dataDir = filepath.Join(home, ".upi-tracker")
	}

	sqlitePath := os.Getenv("UPI_TRACKER_SQLITE_PATH")
	if sqlitePath == "" {
		sqlitePath = filepath.Join(dataDir, "upi-tracker.db")
	}

	tz := getenv("UPI_TRACKER_TZ", defaultTimezone)
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("config.Load: UPI_TRACKER_TZ %q: %w", tz, err)
	}

	backend := strings.ToLower(getenv("UPI_TRACKER_STORE", kvstore.BackendFile))
	switch backend {
	case kvstore.BackendMemory, kvstore.BackendFile, kvstore.BackendSQLite:
	case kvstore.BackendPostgres:
		if os.Getenv("DB_SOURCE") == "" {
			return nil, fmt.Errorf("config.Load: DB_SOURCE environment variable is required for the postgres store")
		}
	case kvstore.BackendGCS:
		if os.Getenv("GCS_BUCKET") == "" {
			return nil, fmt.Errorf("config.Load: GCS_BUCKET environment variable is required for the gcs store")
		}
	default:
		return nil, fmt.Errorf("config.Load: unknown UPI_TRACKER_STORE %q", backend)
	}

	return &Config{
		StoreBackend:  backend,
		DataDir:       dataDir,
		SQLitePath:    sqlitePath,
		DBSource:      os.Getenv("DB_SOURCE"),
		GCSBucket:     os.Getenv("GCS_BUCKET"),
		GCSPrefix:     os.Getenv("GCS_PREFIX"),
		BackupBucket:  os.Getenv("UPI_TRACKER_BACKUP_BUCKET"),
		BackupDir:     getenv("UPI_TRACKER_BACKUP_DIR", filepath.Join(dataDir, "backup")),
		Timezone:      tz,
		Location:      loc,
		LogLevel:      getenv("LOG_LEVEL", "info"),
		Port:          getenv("SERVER_PORT", defaultPort),
		NotionToken:   os.Getenv("NOTION_TOKEN"),
		NotionDBID:    os.Getenv("NOTION_DB_ID"),
		BQProject:     os.Getenv("BQ_PROJECT"),
		BQDataset:     getenv("BQ_DATASET", defaultBQDataset),
		GeminiModel:   getenv("GEMINI_MODEL", defaultGeminiModel),
		LaunchCommand: os.Getenv("UPI_LAUNCH_COMMAND"),
	}, nil
}

// StoreOptions converts the storage settings for kvstore.Open.
func (c *Config) StoreOptions() kvstore.Options {
	return kvstore.Options{
		Backend:     c.StoreBackend,
		DataDir:     c.DataDir,
		SQLitePath:  c.SQLitePath,
		PostgresDSN: c.DBSource,
		GCSBucket:   c.GCSBucket,
		GCSPrefix:   c.GCSPrefix,
	}
}

// BackupOptions configures the store the backup target copies into.
// Bucket backups are written under a per-day prefix.
func (c *Config) BackupOptions(now time.Time) kvstore.Options {
	if c.BackupBucket != "" {
		return kvstore.Options{
			Backend:   kvstore.BackendGCS,
			GCSBucket: c.BackupBucket,
			GCSPrefix: "backups/" + now.In(c.Location).Format("2006-01-02"),
		}
	}
	return kvstore.Options{Backend: kvstore.BackendFile, DataDir: c.BackupDir}
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
