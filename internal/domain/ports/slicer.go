package ports

import (
	"context"

	"github.com/google/uuid"
)

// SliceRequest is what the dispatcher hands the external slicing/quoting
// service when it submits a piece for build-time/weight estimation or
// actual program generation.
type SliceRequest struct {
	SliceConfigurationID uuid.UUID
	GeometryModelIDs     []uuid.UUID
	SaveProgram          bool
}

// SliceResult mirrors the fields spec.md §1 says the core consumes from a
// SliceJob handle: ready(), build_time, weight, program_file.
type SliceResult struct {
	Ready              bool
	EstimatedBuildTime int64 // seconds
	EstimatedWeightG   float64
	ProgramFile        string
	ErrorLog           string
}

// SlicerClient is the external geometry->program service. The core treats
// it as a black box exposing submit/ready/result (spec.md §9), never
// touching mesh or G-code data itself.
type SlicerClient interface {
	Submit(ctx context.Context, req SliceRequest) (jobID uuid.UUID, err error)
	Result(ctx context.Context, jobID uuid.UUID) (SliceResult, error)
}

// StorefrontPiece is the shape the order-creation webhook yields; the
// core consumes only this projection of the storefront's richer product
// catalog (spec.md §1, §6).
type StorefrontPiece struct {
	OrderID         uuid.UUID
	Copies          int
	Scale           float64
	Materials       []string
	Colors          []string
	GeometryModelID *uuid.UUID
	ProgramFile     string
}

// StorefrontClient receives order/piece ingestion events. The core only
// needs to be told about new pieces; full catalog/variation management
// stays in the storefront (spec.md §1 non-goal).
type StorefrontClient interface {
	PendingPieces(ctx context.Context) ([]StorefrontPiece, error)
}
