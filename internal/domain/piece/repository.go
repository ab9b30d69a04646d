package piece

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists Pieces.
type Repository interface {
	Save(ctx context.Context, p *Piece) error
	FindByID(ctx context.Context, id uuid.UUID) (*Piece, error)
	// FindPlaceable returns pieces that are not cancelled and have at
	// least one queued copy, for the scheduler's input snapshot.
	FindPlaceable(ctx context.Context) ([]*Piece, error)
}

// OrderRepository persists Orders.
type OrderRepository interface {
	Save(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
}

// GeometryModelRepository persists GeometryModels.
type GeometryModelRepository interface {
	Save(ctx context.Context, g *GeometryModel) error
	FindByID(ctx context.Context, id uuid.UUID) (*GeometryModel, error)
}

// SliceJobRepository persists SliceJob handles.
type SliceJobRepository interface {
	Save(ctx context.Context, s *SliceJob) error
	FindByID(ctx context.Context, id uuid.UUID) (*SliceJob, error)
}

// UnitPieceRepository persists UnitPieces and answers the aggregate
// queries Piece.Counts needs.
type UnitPieceRepository interface {
	Save(ctx context.Context, u *UnitPiece) error
	FindByPieceID(ctx context.Context, pieceID uuid.UUID) ([]*UnitPiece, error)
	// CountByOutcome returns (completed, pending) UnitPiece counts for a
	// piece, joined against each UnitPiece's PrintJob outcome.
	CountByOutcome(ctx context.Context, pieceID uuid.UUID) (completed int, pending int, err error)
	DeleteByPieceID(ctx context.Context, pieceID uuid.UUID) error
}
