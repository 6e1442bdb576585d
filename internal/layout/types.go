package layout

import (
	"fmt"
	"strings"
	"time"

	"github.com/Wolfieeewolf/lightscape/internal/spatial"
)

// MaxNameLength bounds layout names.
const MaxNameLength = 100

// SavedLayout is a named, persisted grid layout.
type SavedLayout struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Layout      spatial.Layout `json:"layout"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Summary is the listing view of a saved layout.
type Summary struct {
	ID                   string             `json:"id"`
	Name                 string             `json:"name"`
	Description          string             `json:"description,omitempty"`
	Dimensions           spatial.Dimensions `json:"dimensions"`
	AssignmentCount      int                `json:"assignment_count"`
	RequiresUserPosition bool               `json:"requires_user_position"`
	UpdatedAt            time.Time          `json:"updated_at"`
}

// Summary returns the listing view of s.
func (s *SavedLayout) Summary() Summary {
	return Summary{
		ID:                   s.ID,
		Name:                 s.Name,
		Description:          s.Description,
		Dimensions:           s.Layout.Dimensions,
		AssignmentCount:      s.Layout.AssignmentCount(),
		RequiresUserPosition: s.Layout.RequiresUserPosition,
		UpdatedAt:            s.UpdatedAt,
	}
}

// Validate trims the name and checks it and the layout dimensions.
func (s *SavedLayout) Validate() error {
	s.Name = strings.TrimSpace(s.Name)
	if s.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidLayout)
	}
	if len(s.Name) > MaxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidLayout, MaxNameLength)
	}
	if err := s.Layout.Dimensions.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidLayout, err)
	}
	return nil
}
