package piece

import (
	"time"

	"github.com/google/uuid"

	"github.com/print-farm/farm-go/internal/domain/shared"
)

// Order is the customer order a Piece belongs to.
type Order struct {
	ID       uuid.UUID
	Client   string
	DueDate  time.Time
	Priority int // 0..5, higher is more urgent
}

// NewOrder validates and constructs an Order.
func NewOrder(client string, dueDate time.Time, priority int) (*Order, error) {
	if client == "" {
		return nil, shared.NewValidationError("client", "must not be empty")
	}
	if priority < 0 || priority > 5 {
		return nil, shared.NewValidationError("priority", "must be in [0,5]")
	}
	return &Order{ID: uuid.New(), Client: client, DueDate: dueDate, Priority: priority}, nil
}

// DeadlineFromNow returns the seconds until the order's due date, clamped to
// at least 1 second so the scheduler never sees a non-positive deadline.
func (o *Order) DeadlineFromNow(now time.Time) int64 {
	d := int64(o.DueDate.Sub(now).Seconds())
	if d < 1 {
		return 1
	}
	return d
}
