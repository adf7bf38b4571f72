package app

import (
	"database/sql"
	"fmt"

	"busbooking/internal/config"
	"busbooking/internal/repository"
	"busbooking/internal/repository/file"
	"busbooking/internal/repository/memory"
	"busbooking/internal/repository/postgres"
)

// NewCatalogStore returns the catalog store selected by cfg.Backend. The
// postgres backend needs db.
func NewCatalogStore(cfg config.CatalogConfig, db *sql.DB) (repository.RouteCatalogStore, error) {
	switch cfg.Backend {
	case config.CatalogBackendFile:
		return file.NewCatalogStore(cfg.File), nil
	case config.CatalogBackendPostgres:
		if db == nil {
			return nil, fmt.Errorf("catalog backend %q requires DB_ENABLED=true", cfg.Backend)
		}
		return postgres.NewCatalogRepository(db), nil
	default:
		return nil, fmt.Errorf("unknown catalog backend %q", cfg.Backend)
	}
}

// NewBookingRepository returns the Postgres booking repository when db is
// set and an in-memory one otherwise.
func NewBookingRepository(db *sql.DB) repository.BookingRepository {
	if db == nil {
		return memory.NewBookingRepository()
	}
	return postgres.NewBookingRepository(db)
}
