package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/decorlens/backend/internal/domain"
)

const selectCatalogQuery = `
	SELECT id, category, name, price, vendor, COALESCE(vendor_link, '')
	FROM furniture_catalog
	ORDER BY position, id`

// PostgresSource reads the catalog from the furniture_catalog table
type PostgresSource struct {
	db     *sql.DB
	logger *zap.Logger
}

// OpenPostgres connects to PostgreSQL and verifies the connection
func OpenPostgres(ctx context.Context, dsn string, logger *zap.Logger) (*PostgresSource, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	return NewPostgresSource(db, logger), nil
}

// NewPostgresSource wraps an open database handle
func NewPostgresSource(db *sql.DB, logger *zap.Logger) *PostgresSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresSource{db: db, logger: logger}
}

// LoadItems reads every catalog row in position order
func (s *PostgresSource) LoadItems(ctx context.Context) ([]domain.CatalogItem, error) {
	rows, err := s.db.QueryContext(ctx, selectCatalogQuery)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	var items []domain.CatalogItem
	for rows.Next() {
		var item domain.CatalogItem
		if err := rows.Scan(&item.ID, &item.Category, &item.Name, &item.Price, &item.Vendor, &item.VendorLink); err != nil {
			return nil, fmt.Errorf("scan catalog row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read catalog rows: %w", err)
	}

	s.logger.Debug("Read catalog from PostgreSQL", zap.Int("rows", len(items)))
	return items, nil
}

// Close closes the database connection
func (s *PostgresSource) Close() error {
	return s.db.Close()
}
