// Package commands implements the Piece (C4) write-side operations:
// creating pieces from either a geometry model or a ready program, and
// submitting the quoting slice job for the former.
package commands

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/print-farm/farm-go/internal/application/common"
	"github.com/print-farm/farm-go/internal/domain/filament"
	"github.com/print-farm/farm-go/internal/domain/piece"
	"github.com/print-farm/farm-go/internal/domain/ports"
)

// CreatePieceCommand creates a Piece within an existing Order. Exactly
// one of GeometryModelID / ProgramFile must be set.
type CreatePieceCommand struct {
	OrderID         uuid.UUID
	GeometryModelID *uuid.UUID
	ProgramFile     string
	Copies          int
	Scale           float64
	Materials       []string
	Colors          []string
}

// CreatePieceResponse returns the created piece's id.
type CreatePieceResponse struct {
	PieceID uuid.UUID
}

// CreatePieceHandler handles CreatePieceCommand.
type CreatePieceHandler struct {
	PieceRepo       piece.Repository
	OrderRepo       piece.OrderRepository
	SliceConfigRepo filament.SliceConfigurationRepository
	Slicer          ports.SlicerClient
}

// Handle creates the piece and, for a geometry-backed piece, submits its
// quoting slice job so the scheduler can later resolve processing time.
func (h *CreatePieceHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*CreatePieceCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	if _, err := h.OrderRepo.FindByID(ctx, cmd.OrderID); err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}

	var p *piece.Piece
	var err error
	if cmd.GeometryModelID != nil {
		p, err = piece.NewPieceFromGeometry(cmd.OrderID, *cmd.GeometryModelID, cmd.Copies, cmd.Scale, cmd.Materials, cmd.Colors)
	} else {
		p, err = piece.NewPieceFromProgram(cmd.OrderID, cmd.ProgramFile, cmd.Copies, cmd.Scale, cmd.Materials, cmd.Colors)
	}
	if err != nil {
		return nil, err
	}

	if p.HasGeometry() {
		quoting, err := h.SliceConfigRepo.FindQuotingProfile(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve quoting configuration: %w", err)
		}
		cfgID := uuid.Nil
		if quoting != nil {
			cfgID = quoting.ID
		}
		jobID, err := h.Slicer.Submit(ctx, ports.SliceRequest{
			SliceConfigurationID: cfgID,
			GeometryModelIDs:     []uuid.UUID{*p.GeometryModelID},
			SaveProgram:          false,
		})
		if err != nil {
			return nil, fmt.Errorf("submit quoting slice job: %w", err)
		}
		p.SliceJobID = jobID
	}

	if err := h.PieceRepo.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("save piece: %w", err)
	}

	return &CreatePieceResponse{PieceID: p.ID}, nil
}

// CancelPieceCommand cancels a piece, excluding it from future scheduling.
type CancelPieceCommand struct {
	PieceID uuid.UUID
}

// CancelPieceHandler handles CancelPieceCommand.
type CancelPieceHandler struct {
	PieceRepo piece.Repository
}

// Handle marks the piece cancelled. Idempotent.
func (h *CancelPieceHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*CancelPieceCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	p, err := h.PieceRepo.FindByID(ctx, cmd.PieceID)
	if err != nil {
		return nil, fmt.Errorf("find piece: %w", err)
	}
	p.Cancelled = true
	if err := h.PieceRepo.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("save piece: %w", err)
	}
	return nil, nil
}
