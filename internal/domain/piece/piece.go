// Package piece models orderable pieces, their per-copy print attempts,
// and the external slicing/quoting handle attached to each piece.
package piece

import (
	"github.com/google/uuid"

	"github.com/print-farm/farm-go/internal/domain/shared"
)

// PrintSettings optionally pins a piece to a specific printer profile,
// overriding the geometry-fit compatibility check in the scheduler.
type PrintSettings struct {
	PrinterProfileID uuid.UUID
}

// Piece is one orderable item within an Order; it expands into Copies
// physical print attempts (UnitPieces) over its lifetime.
type Piece struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	Copies    int
	Scale     float64
	Materials []string
	Colors    []string

	// Exactly one of GeometryModelID / ProgramFile is set.
	GeometryModelID *uuid.UUID
	ProgramFile     string

	PrintSettings *PrintSettings

	// SliceJobID is the quote handle: for a geometry piece it tracks the
	// quoting SliceJob. A ready-program piece gets no quoting job; its
	// SliceJobID stays uuid.Nil, so build time and weight are never filled
	// in for it.
	SliceJobID uuid.UUID

	Cancelled bool
}

// NewPieceFromGeometry constructs a Piece backed by a geometry model that
// still needs slicing.
func NewPieceFromGeometry(orderID uuid.UUID, geometryModelID uuid.UUID, copies int, scale float64, materials, colors []string) (*Piece, error) {
	p, err := newPiece(orderID, copies, scale, materials, colors)
	if err != nil {
		return nil, err
	}
	p.GeometryModelID = &geometryModelID
	return p, nil
}

// NewPieceFromProgram constructs a Piece backed by an already-sliced,
// ready-to-run device program.
func NewPieceFromProgram(orderID uuid.UUID, programFile string, copies int, scale float64, materials, colors []string) (*Piece, error) {
	if programFile == "" {
		return nil, shared.NewValidationError("program_file", "must not be empty")
	}
	p, err := newPiece(orderID, copies, scale, materials, colors)
	if err != nil {
		return nil, err
	}
	p.ProgramFile = programFile
	return p, nil
}

func newPiece(orderID uuid.UUID, copies int, scale float64, materials, colors []string) (*Piece, error) {
	if copies < 1 {
		return nil, shared.NewValidationError("copies", "must be >= 1")
	}
	if len(materials) == 0 {
		return nil, shared.NewValidationError("materials", "must not be empty")
	}
	return &Piece{
		ID:        uuid.New(),
		OrderID:   orderID,
		Copies:    copies,
		Scale:     scale,
		Materials: materials,
		Colors:    colors,
	}, nil
}

// HasGeometry reports whether this piece requires slicing.
func (p *Piece) HasGeometry() bool {
	return p.GeometryModelID != nil
}

// QuoteReady reports whether the attached SliceJob has produced estimates.
// The application layer resolves SliceJobID to a *SliceJob and calls this
// with its Ready flag; kept here as a named predicate for readability at
// call sites.
func QuoteReady(job *SliceJob) bool {
	return job != nil && job.Ready
}

// Counts are the derived, never-directly-written accounting fields of a
// Piece, computed from its UnitPiece set.
type Counts struct {
	Completed int
	Pending   int
	Queued    int
}

// DeriveCounts computes Counts from the number of UnitPieces whose job
// succeeded, the number still pending, and the piece's total copies.
// Panics-free: queued is clamped at 0 so a transient overcount (e.g. a
// UnitPiece created but not yet reflected in copies) never goes negative.
func DeriveCounts(copies, completed, pending int) Counts {
	queued := copies - completed - pending
	if queued < 0 {
		queued = 0
	}
	return Counts{Completed: completed, Pending: pending, Queued: queued}
}

// Placeable reports whether this piece can still be assigned new print
// attempts: its quote must be ready, it must not be cancelled, and it must
// have queued copies remaining.
func (p *Piece) Placeable(quoteReady bool, counts Counts) bool {
	return quoteReady && !p.Cancelled && counts.Queued > 0
}

// SelectFilament returns the first filament in candidates whose material
// is in p.Materials and whose color is in p.Colors (or p.Colors is empty,
// matching any color). Returns nil if none match.
func (p *Piece) SelectFilament(candidates []FilamentCandidate) *FilamentCandidate {
	for i := range candidates {
		c := candidates[i]
		if !containsString(p.Materials, c.Material) {
			continue
		}
		if len(p.Colors) > 0 && !containsString(p.Colors, c.Color) {
			continue
		}
		return &c
	}
	return nil
}

// FilamentCandidate is the minimal filament shape Piece.SelectFilament
// needs, decoupling the piece package from the filament package's full
// entity and its repository.
type FilamentCandidate struct {
	ID       uuid.UUID
	Material string
	Color    string
}

func containsString(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
