package filament

import (
	"context"

	"github.com/google/uuid"
)

// SliceConfiguration bundles a PrintProfile with the slicer-specific knobs
// (support density, raft, brim) used when a piece is sent out for slicing.
// Exactly one SliceConfiguration may be marked the quoting profile at a
// time -- the one used to produce price/time estimates shown to operators
// before a piece is actually scheduled.
type SliceConfiguration struct {
	ID             uuid.UUID
	Name           string
	PrintProfileID uuid.UUID
	SupportDensityPct int
	RaftEnabled    bool
	BrimWidthMM    float64
	QuotingProfile bool
}

// SliceConfigurationRepository persists slice configurations and enforces
// the "at most one quoting profile" invariant as a single transactional
// update rather than a read-then-write race.
type SliceConfigurationRepository interface {
	Save(ctx context.Context, cfg *SliceConfiguration) error
	FindByID(ctx context.Context, id uuid.UUID) (*SliceConfiguration, error)
	FindQuotingProfile(ctx context.Context) (*SliceConfiguration, error)

	// SetQuotingProfile clears the quoting_profile flag on every other
	// configuration and sets it on id, atomically.
	SetQuotingProfile(ctx context.Context, id uuid.UUID) error
}
