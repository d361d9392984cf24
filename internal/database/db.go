// Package database keeps the recommendation history in a SQL database via
// gorm. SQLite is the default; PostgreSQL is selected with driver "postgres".
package database

import (
	"errors"
	"fmt"

	"fuzzymenu/internal/models"

	"github.com/jinzhu/gorm"
	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// ErrNotFound is returned by Get when no recommendation has the given ID.
var ErrNotFound = errors.New("recommendation not found")

// Store is the recommendation history.
type Store struct {
	db *gorm.DB
}

// Open connects to the database and migrates the schema.
func Open(driver, dsn string) (*Store, error) {
	switch driver {
	case "sqlite3", "postgres":
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if driver == "sqlite3" {
		// One connection, otherwise every pooled connection to ":memory:"
		// sees its own empty database.
		db.DB().SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&models.Recommendation{}).Error; err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Save inserts a recommendation.
func (s *Store) Save(r *models.Recommendation) error {
	if r.ID == "" {
		return errors.New("recommendation ID is required")
	}
	if err := s.db.Create(r).Error; err != nil {
		return fmt.Errorf("failed to save recommendation %s: %w", r.ID, err)
	}
	return nil
}

// Get loads one recommendation by ID.
func (s *Store) Get(id string) (*models.Recommendation, error) {
	var r models.Recommendation
	err := s.db.Where("id = ?", id).First(&r).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load recommendation %s: %w", id, err)
	}
	return &r, nil
}

// List returns up to limit recommendations, newest first. A limit of zero
// or less returns everything.
func (s *Store) List(limit int) ([]models.Recommendation, error) {
	q := s.db.Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []models.Recommendation
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list recommendations: %w", err)
	}
	return out, nil
}

// CountByDish returns how often each dish has been recommended.
func (s *Store) CountByDish() (map[string]int, error) {
	var rows []struct {
		DishName string
		Count    int
	}
	err := s.db.Model(&models.Recommendation{}).
		Select("dish_name, count(*) as count").
		Group("dish_name").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count dishes: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.DishName] = r.Count
	}
	return counts, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
