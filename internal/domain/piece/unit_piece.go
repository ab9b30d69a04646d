package piece

import "github.com/google/uuid"

// UnitPiece is one physical print attempt of one copy of a Piece, created
// when a PrintJob is launched for it and destroyed alongside its Piece.
type UnitPiece struct {
	ID         uuid.UUID
	PieceID    uuid.UUID
	PrintJobID uuid.UUID
}

// NewUnitPiece links a piece to the PrintJob launched to satisfy one of
// its copies.
func NewUnitPiece(pieceID, printJobID uuid.UUID) *UnitPiece {
	return &UnitPiece{ID: uuid.New(), PieceID: pieceID, PrintJobID: printJobID}
}
