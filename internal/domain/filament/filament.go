// Package filament models spools loaded on printers, the material/print
// profiles that describe how a filament behaves, and the slice
// configuration that ties a profile to the external slicer.
package filament

import (
	"time"

	"github.com/google/uuid"

	"github.com/print-farm/farm-go/internal/domain/shared"
)

// Filament is a physical spool currently or previously loaded on a printer.
type Filament struct {
	ID         uuid.UUID
	Material   string // e.g. "PLA", "PETG", "ABS"
	Color      string
	ProfileID  uuid.UUID
	RemainingG float64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Matches reports whether this filament satisfies a piece's material/color
// requirement. Color match is case-insensitive; an empty required color
// matches any loaded color.
func (f *Filament) Matches(material, color string) bool {
	if f.Material != material {
		return false
	}
	if color == "" {
		return true
	}
	return f.Color == color
}

// NewFilament validates and constructs a Filament.
func NewFilament(material, color string, profileID uuid.UUID, remainingG float64) (*Filament, error) {
	if material == "" {
		return nil, shared.NewValidationError("material", "must not be empty")
	}
	if remainingG < 0 {
		return nil, shared.NewValidationError("remaining_g", "must not be negative")
	}
	return &Filament{
		ID:         uuid.New(),
		Material:   material,
		Color:      color,
		ProfileID:  profileID,
		RemainingG: remainingG,
	}, nil
}
