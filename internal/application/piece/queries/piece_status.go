// Package queries implements the Piece (C4) read-side operations: the
// derived counts/placeable check and the quote-exposed deadline/build
// time/weight fields.
package queries

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/print-farm/farm-go/internal/application/common"
	"github.com/print-farm/farm-go/internal/domain/piece"
)

// GetPieceStatusQuery resolves a piece's derived counts and placeability.
type GetPieceStatusQuery struct {
	PieceID uuid.UUID
}

// GetPieceStatusResponse reports the piece's derived accounting fields.
type GetPieceStatusResponse struct {
	Counts     piece.Counts
	Placeable  bool
	QuoteReady bool
}

// GetPieceStatusHandler handles GetPieceStatusQuery.
type GetPieceStatusHandler struct {
	PieceRepo     piece.Repository
	UnitPieceRepo piece.UnitPieceRepository
	SliceJobRepo  piece.SliceJobRepository
}

// Handle computes Counts from UnitPieceRepository.CountByOutcome and
// resolves quote readiness from the piece's SliceJob handle (spec.md §4.4).
func (h *GetPieceStatusHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	q, ok := request.(*GetPieceStatusQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	p, err := h.PieceRepo.FindByID(ctx, q.PieceID)
	if err != nil {
		return nil, fmt.Errorf("find piece: %w", err)
	}

	completed, pending, err := h.UnitPieceRepo.CountByOutcome(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("count unit pieces: %w", err)
	}
	counts := piece.DeriveCounts(p.Copies, completed, pending)

	quoteReady := false
	if p.SliceJobID != uuid.Nil {
		sj, err := h.SliceJobRepo.FindByID(ctx, p.SliceJobID)
		if err == nil {
			quoteReady = piece.QuoteReady(sj)
		}
	}

	return &GetPieceStatusResponse{
		Counts:     counts,
		Placeable:  p.Placeable(quoteReady, counts),
		QuoteReady: quoteReady,
	}, nil
}

// GetPieceQuoteQuery resolves the quote fields a storefront shows before a
// piece is actually scheduled: deadline-from-now, build time, weight.
type GetPieceQuoteQuery struct {
	PieceID uuid.UUID
}

// GetPieceQuoteResponse carries the three quote fields.
type GetPieceQuoteResponse struct {
	DeadlineFromNowSeconds int64
	BuildTimeSeconds       int64
	WeightG                float64
	Ready                  bool
}

// GetPieceQuoteHandler handles GetPieceQuoteQuery.
type GetPieceQuoteHandler struct {
	PieceRepo    piece.Repository
	OrderRepo    piece.OrderRepository
	SliceJobRepo piece.SliceJobRepository
	Now          func() time.Time
}

// Handle resolves the quote fields, returning Ready=false with zeroed
// estimates while the slice job has not yet produced them.
func (h *GetPieceQuoteHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	q, ok := request.(*GetPieceQuoteQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	p, err := h.PieceRepo.FindByID(ctx, q.PieceID)
	if err != nil {
		return nil, fmt.Errorf("find piece: %w", err)
	}
	order, err := h.OrderRepo.FindByID(ctx, p.OrderID)
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}

	resp := &GetPieceQuoteResponse{
		DeadlineFromNowSeconds: order.DeadlineFromNow(h.Now()),
	}

	if p.SliceJobID == uuid.Nil {
		resp.Ready = true // program-ready pieces carry no pending quote
		return resp, nil
	}

	sj, err := h.SliceJobRepo.FindByID(ctx, p.SliceJobID)
	if err != nil {
		return nil, fmt.Errorf("find slice job: %w", err)
	}
	resp.Ready = sj.Ready
	if sj.Ready {
		resp.BuildTimeSeconds = sj.EstimatedBuildTimeSeconds()
		resp.WeightG = sj.EstimatedWeightG
	}
	return resp, nil
}
