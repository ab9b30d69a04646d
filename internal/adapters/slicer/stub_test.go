package slicer_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/print-farm/farm-go/internal/adapters/slicer"
	"github.com/print-farm/farm-go/internal/domain/ports"
)

func TestStub_SubmitAndResult(t *testing.T) {
	// Arrange
	s := slicer.NewStub(nil)
	s.Delay = time.Millisecond

	// Act
	jobID, err := s.Submit(t.Context(), ports.SliceRequest{
		GeometryModelIDs: []uuid.UUID{uuid.New(), uuid.New()},
		SaveProgram:      true,
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		result, err := s.Result(t.Context(), jobID)
		return err == nil && result.Ready
	}, time.Second, time.Millisecond)

	result, err := s.Result(t.Context(), jobID)

	// Assert
	require.NoError(t, err)
	require.True(t, result.Ready)
	require.Equal(t, int64(2*1800), result.EstimatedBuildTime)
	require.Equal(t, 2*25.0, result.EstimatedWeightG)
	require.NotEmpty(t, result.ProgramFile)
}

func TestStub_SubmitRejectsEmptyModels(t *testing.T) {
	// Arrange
	s := slicer.NewStub(nil)

	// Act
	_, err := s.Submit(t.Context(), ports.SliceRequest{})

	// Assert
	require.Error(t, err)
}

func TestStub_ResultUnknownJob(t *testing.T) {
	// Arrange
	s := slicer.NewStub(nil)

	// Act
	_, err := s.Result(t.Context(), uuid.New())

	// Assert
	require.Error(t, err)
}
