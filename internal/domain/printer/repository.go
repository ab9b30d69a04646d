package printer

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists Printers.
type Repository interface {
	Save(ctx context.Context, p *Printer) error
	FindByID(ctx context.Context, id uuid.UUID) (*Printer, error)
	FindEnabled(ctx context.Context) ([]*Printer, error)
	List(ctx context.Context) ([]*Printer, error)
}

// ControllerRepository persists DeviceControllers.
type ControllerRepository interface {
	Save(ctx context.Context, c *DeviceController) error
	FindByID(ctx context.Context, id uuid.UUID) (*DeviceController, error)
	FindByPrinterID(ctx context.Context, printerID uuid.UUID) (*DeviceController, error)
	List(ctx context.Context) ([]*DeviceController, error)
}

// FilamentChangeRepository persists FilamentChanges.
type FilamentChangeRepository interface {
	Save(ctx context.Context, fc *FilamentChange) error
	FindByID(ctx context.Context, id uuid.UUID) (*FilamentChange, error)
	FindUnconfirmed(ctx context.Context) ([]*FilamentChange, error)
}
