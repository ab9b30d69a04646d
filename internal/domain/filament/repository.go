package filament

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists Filament spools.
type Repository interface {
	Save(ctx context.Context, f *Filament) error
	FindByID(ctx context.Context, id uuid.UUID) (*Filament, error)
	// FindAvailable returns loaded or spare filaments matching any of the
	// given materials and any of the given colors (empty colors matches all).
	FindAvailable(ctx context.Context, materials, colors []string) ([]*Filament, error)
}

// PrinterProfileRepository persists PrinterProfile definitions.
type PrinterProfileRepository interface {
	Save(ctx context.Context, p *PrinterProfile) error
	FindByID(ctx context.Context, id uuid.UUID) (*PrinterProfile, error)
	List(ctx context.Context) ([]*PrinterProfile, error)
}

// MaterialProfileRepository persists MaterialProfile definitions.
type MaterialProfileRepository interface {
	Save(ctx context.Context, p *MaterialProfile) error
	FindByID(ctx context.Context, id uuid.UUID) (*MaterialProfile, error)
	FindByMaterial(ctx context.Context, material string) (*MaterialProfile, error)
}

// PrintProfileRepository persists PrintProfile definitions.
type PrintProfileRepository interface {
	Save(ctx context.Context, p *PrintProfile) error
	FindByID(ctx context.Context, id uuid.UUID) (*PrintProfile, error)
}
