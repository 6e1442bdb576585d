package layout

import (
	"context"
	"errors"
	"fmt"

	"github.com/Wolfieeewolf/lightscape/internal/spatial"
)

// SaveGrid snapshots g under name. An existing layout with the same name is
// overwritten in place and keeps its ID.
func SaveGrid(ctx context.Context, repo Repository, g *spatial.Grid, name, description string) (*SavedLayout, error) {
	s := &SavedLayout{Name: name, Description: description, Layout: g.Snapshot()}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	existing, err := repo.GetByName(ctx, s.Name)
	switch {
	case err == nil:
		s.ID = existing.ID
		s.CreatedAt = existing.CreatedAt
	case !errors.Is(err, ErrLayoutNotFound):
		return nil, err
	}

	if err := repo.Save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadInto restores the layout identified by ID or, failing that, by name
// into g.
func LoadInto(ctx context.Context, repo Repository, g *spatial.Grid, idOrName string) (*SavedLayout, error) {
	s, err := repo.Get(ctx, idOrName)
	if errors.Is(err, ErrLayoutNotFound) {
		s, err = repo.GetByName(ctx, idOrName)
	}
	if err != nil {
		return nil, err
	}

	if err := g.Restore(s.Layout); err != nil {
		return nil, fmt.Errorf("restoring layout %q: %w", s.Name, err)
	}
	return s, nil
}
