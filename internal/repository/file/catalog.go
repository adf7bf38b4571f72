package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"busbooking/internal/domain"
	"busbooking/internal/repository"
)

// catalogDocument is the on-disk layout of the catalog file.
type catalogDocument struct {
	Legs []domain.RouteLeg `yaml:"legs"`
}

// CatalogStore keeps the catalog in a YAML file.
type CatalogStore struct {
	path string
	mu   sync.Mutex
}

// NewCatalogStore creates a store backed by the YAML file at path.
func NewCatalogStore(path string) *CatalogStore {
	return &CatalogStore{path: path}
}

// LoadLegs reads and validates the catalog file. Legs without an id get a stable one.
func (s *CatalogStore) LoadLegs(ctx context.Context) ([]domain.RouteLeg, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	data, err := os.ReadFile(s.path)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", s.path, err)
	}

	var doc catalogDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", s.path, err)
	}

	for i := range doc.Legs {
		if err := doc.Legs[i].Validate(); err != nil {
			return nil, fmt.Errorf("catalog %s: leg %d: %w", s.path, i, err)
		}
		doc.Legs[i].DeriveAvailability()
	}
	repository.AssignLegIDs(doc.Legs)

	return doc.Legs, nil
}

// SaveLegs writes the catalog through a temporary file and rename, so a
// reader never sees a half-written catalog.
func (s *CatalogStore) SaveLegs(ctx context.Context, legs []domain.RouteLeg) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := yaml.Marshal(catalogDocument{Legs: legs})
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".catalog-*.yaml")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// Ensure CatalogStore implements repository.RouteCatalogStore.
var _ repository.RouteCatalogStore = (*CatalogStore)(nil)
