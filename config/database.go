package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

var (
	db *gorm.DB
)

func GetDB() *gorm.DB {
	return db
}

func init() {
	// Load env from .env
	godotenv.Load()
	// Do NOT open the database in init(); callers decide when the ledger
	// comes up so the HTTP server can start listening first.
}

// DataDir is where the embedded ledger file and the persisted company id live.
func DataDir() string {
	dir := strings.TrimSpace(os.Getenv("POS_DATA_DIR"))
	if dir == "" {
		dir = "./data"
	}
	return dir
}

// ConnectDatabaseWithRetry opens the embedded ledger and sets the global DB.
// The ledger is a local SQLite file, so failures here are rare (directory
// permissions, corrupt file); we still retry with backoff to match the
// service's other connectors.
func ConnectDatabaseWithRetry() {
	dir := DataDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Fatalf("cannot create data dir %s: %v", dir, err)
	}

	dbFile := strings.TrimSpace(os.Getenv("POS_DB_FILE"))
	if dbFile == "" {
		dbFile = filepath.Join(dir, "pos.db")
	}
	// Single-writer ledger: serialize writes at the driver, keep WAL on so
	// sync reads never block local operations.
	dsn := dbFile + "?_journal_mode=WAL&_busy_timeout=5000"

	var attempt int
	for {
		attempt++
		var err error
		db, err = gorm.Open(sqlite.Open(dsn), initConfig())
		if err == nil {
			if sqlDB, derr := db.DB(); derr == nil && sqlDB != nil {
				// One writer; concurrent readers are fine under WAL.
				sqlDB.SetMaxOpenConns(intFromEnv("DB_MAX_OPEN_CONNS", 1))
				sqlDB.SetConnMaxIdleTime(time.Duration(intFromEnv("DB_CONN_MAX_IDLE_TIME_SECONDS", 60)) * time.Second)
			}
			if pluginErr := db.Use(otelgorm.NewPlugin()); pluginErr != nil {
				log.Printf("db opened but failed to install otelgorm plugin: %v", pluginErr)
			}
			log.Printf("opened ledger %s (attempt=%d)", dbFile, attempt)
			return
		}

		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		log.Printf("failed to open ledger (attempt=%d): %v; retrying in %s", attempt, err, sleep)
		time.Sleep(sleep)
	}
}

// SetDB swaps the global handle. Used by tests that run against an
// in-memory ledger.
func SetDB(d *gorm.DB) {
	db = d
}

func intFromEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func initConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         initLog(),
		NamingStrategy: initNamingStrategy(),
	}
}

func initLog() logger.Interface {
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			Colorful:      false,
			LogLevel:      logger.Error,
			SlowThreshold: time.Second,
		},
	)
	return newLogger
}

func initNamingStrategy() *schema.NamingStrategy {
	return &schema.NamingStrategy{
		SingularTable: false,
		TablePrefix:   "",
	}
}
