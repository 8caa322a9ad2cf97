// Package storage persists route caches, build reports, branch
// geometry, and user preferences. Postgres is preferred; when it is
// unreachable the store falls back to a local SQLite database so the
// visualization still works fully offline.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// ErrCacheMiss is returned when no fresh cached route exists.
var ErrCacheMiss = errors.New("no cached route")

// Store handles database connections and operations.
type Store struct {
	DB              *gorm.DB
	SqlDB           *sql.DB
	IsValid         bool
	ShouldSaveLocal bool
	Logger          zerolog.Logger
}

// NewStore creates a store with no open connection.
func NewStore(log zerolog.Logger) *Store {
	return &Store{Logger: log}
}

// Connect establishes a database connection, falling back to SQLite
// if Postgres fails.
func (s *Store) Connect(sqlitePath string) error {
	var err error

	s.DB, err = s.openPostgres()
	if err != nil {
		s.Logger.Error().Err(err).Msg("Failed to connect to Postgres DB, trying SQLite")
		return s.connectSqlite(sqlitePath)
	}

	s.SqlDB, err = s.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err = s.SqlDB.Ping(); err != nil {
		s.Logger.Error().Err(err).Msg("Failed to validate connection, trying SQLite")
		return s.connectSqlite(sqlitePath)
	}

	s.Logger.Info().Msg("Connected to database")
	s.IsValid = true
	s.SqlDB.SetMaxOpenConns(10)
	return nil
}

// ConnectSqlite opens a SQLite database directly, skipping Postgres.
// An empty path uses an in-memory database.
func (s *Store) ConnectSqlite(path string) error {
	return s.connectSqlite(path)
}

func (s *Store) connectSqlite(path string) error {
	var err error
	s.ShouldSaveLocal = true
	s.DB, err = s.openSqlite(path)
	if err != nil || s.DB == nil {
		s.IsValid = false
		return fmt.Errorf("failed to get local SQLite DB: %w", err)
	}
	s.IsValid = true
	return nil
}

func (s *Store) openPostgres() (*gorm.DB, error) {
	dsn := fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		viper.GetString("db.host"),
		viper.GetString("db.port"),
		viper.GetString("db.username"),
		viper.GetString("db.password"),
		viper.GetString("db.database"),
	)

	s.Logger.Debug().Msgf("Connecting to Postgres DB at '%s'", dsn)

	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        1000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
}

// openSqlite returns a connection to a SQLite database. If path is
// empty, uses an in-memory database.
func (s *Store) openSqlite(path string) (*gorm.DB, error) {
	dsn := "file::memory:?cache=shared"
	if path != "" {
		dsn = path
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		CreateBatchSize:        1000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if path != "" {
		s.Logger.Info().Str("path", path).Msg("Using local SQLite DB")
	} else {
		s.Logger.Info().Msg("Using local SQLite DB in memory")
	}

	pragmas := []string{
		"PRAGMA user_version = 1;",
		"PRAGMA journal_mode = MEMORY;",
		"PRAGMA synchronous = OFF;",
		"PRAGMA cache_size = -32000;",
		"PRAGMA temp_store = MEMORY;",
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("error setting PRAGMA: %w", err)
		}
	}
	return db, nil
}

// Setup migrates the schema.
func (s *Store) Setup() error {
	s.Logger.Info().Msg("Migrating schema")
	if err := s.DB.AutoMigrate(DatabaseModels...); err != nil {
		s.IsValid = false
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	s.Logger.Info().Msg("Database setup complete")
	return nil
}

// SaveRouteCache upserts the raw route payload for one line and
// direction.
func (s *Store) SaveRouteCache(lineID, direction string, payload []byte) error {
	row := CachedRoute{
		LineID:    lineID,
		Direction: direction,
		FetchedAt: time.Now().UTC(),
		Payload:   payload,
	}
	return s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "line_id"}, {Name: "direction"}},
		DoUpdates: clause.AssignmentColumns([]string{"fetched_at", "payload", "updated_at"}),
	}).Create(&row).Error
}

// LoadRouteCache returns the cached payload for one line and
// direction if one exists no older than maxAge. A zero maxAge accepts
// any age.
func (s *Store) LoadRouteCache(lineID, direction string, maxAge time.Duration) ([]byte, error) {
	var row CachedRoute
	err := s.DB.Where("line_id = ? AND direction = ?", lineID, direction).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	if maxAge > 0 && time.Since(row.FetchedAt) > maxAge {
		return nil, ErrCacheMiss
	}
	return row.Payload, nil
}

// SavePreference upserts one user preference.
func (s *Store) SavePreference(key, value string) error {
	return s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&Preference{Key: key, Value: value}).Error
}

// LoadPreference returns the stored value for key, or fallback when
// the key has never been saved.
func (s *Store) LoadPreference(key, fallback string) string {
	var row Preference
	err := s.DB.Where("key = ?", key).First(&row).Error
	if err != nil {
		return fallback
	}
	return row.Value
}

// SaveBuildReport appends one build outcome.
func (s *Store) SaveBuildReport(report *BuildReport) error {
	return s.DB.Create(report).Error
}

// ReplaceBranchGeometries replaces all stored geometry for one line
// with the given rows.
func (s *Store) ReplaceBranchGeometries(lineID string, rows []BranchGeometry) error {
	err := s.DB.Unscoped().Where("line_id = ?", lineID).Delete(&BranchGeometry{}).Error
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return s.DB.Create(&rows).Error
}

// BranchGeometries returns all stored geometry for one line, in
// branch order.
func (s *Store) BranchGeometries(lineID string) ([]BranchGeometry, error) {
	var rows []BranchGeometry
	err := s.DB.Where("line_id = ?", lineID).Order("branch_idx").Find(&rows).Error
	return rows, err
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	if s.DB == nil {
		return nil
	}
	db, err := s.DB.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
