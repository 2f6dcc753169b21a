package database

import (
	"fmt"
	"os"
	"path/filepath"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mail-assistant-backend/internal/email/domain"
	"mail-assistant-backend/pkg/config"
)

func init() {
	// Register the sqlite-vec extension on every new sqlite3 connection.
	// Must run before the first gorm.Open so the vec0 virtual table module
	// is available to all pooled connections.
	sqlite_vec.Auto()
}

// NewSQLiteConnection opens (or creates) the sqlite database, enables WAL
// mode, migrates the relational tables and creates the vec0 virtual table
// for embeddings.
func NewSQLiteConnection(cfg *config.Config) (*gorm.DB, error) {
	if dir := filepath.Dir(cfg.DBFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(cfg.DBFile), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// WAL mode for better concurrent read performance.
	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if err := db.AutoMigrate(&domain.Email{}, &domain.EmailAttribute{}, &domain.Template{}); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	// vec0 virtual tables are not gorm models; create directly.
	createVectors := fmt.Sprintf(`
		CREATE VIRTUAL TABLE IF NOT EXISTS email_vectors
		USING vec0(
			uid INTEGER,
			embedding FLOAT[%d]
		)`, cfg.EmbeddingDim)
	if err := db.Exec(createVectors).Error; err != nil {
		return nil, fmt.Errorf("creating email_vectors table (is the sqlite-vec extension loaded?): %w", err)
	}

	return db, nil
}
