// Package printer models the physical Printer, its 1:1 DeviceController,
// and the FilamentChange compound task that mutates the printer's loaded
// filament under human confirmation.
package printer

import "github.com/google/uuid"

// Printer is the logical identity; its DeviceController is created
// alongside it and keyed by printer id, resolving the cyclic
// Controller<->Printer reference by making Printer the owner (spec.md §9).
type Printer struct {
	ID               uuid.UUID
	Name             string
	PrinterProfileID uuid.UUID
	LoadedFilamentID *uuid.UUID
	Disabled         bool
}

// NewPrinter constructs a Printer with no filament loaded yet.
func NewPrinter(name string, profileID uuid.UUID) *Printer {
	return &Printer{ID: uuid.New(), Name: name, PrinterProfileID: profileID}
}

// LoadedFilamentInfo is the minimal shape of the printer's currently
// loaded filament needed for compatibility checks, decoupling this
// package from the filament package's full entity.
type LoadedFilamentInfo struct {
	Material string
	Color    string
}

// CompatibleWithFilament reports whether the printer's currently loaded
// filament (if any) matches the given material/color requirement.
func (p *Printer) CompatibleWithFilament(material, color string, loaded *LoadedFilamentInfo) bool {
	if loaded == nil {
		return false
	}
	if loaded.Material != material {
		return false
	}
	if color == "" {
		return true
	}
	return loaded.Color == color
}

// Enabled reports whether the printer may receive new scheduled work.
func (p *Printer) Enabled() bool {
	return !p.Disabled
}

// ToggleEnabled flips the disabled flag (operator REST "toggle_printer_en_dis").
func (p *Printer) ToggleEnabled() {
	p.Disabled = !p.Disabled
}

// LoadFilament records a confirmed filament swap. Only FilamentChange.Confirm
// should call this, keeping the "filament mutated only by FilamentChange"
// invariant of spec.md §5 in one place.
func (p *Printer) LoadFilament(filamentID uuid.UUID) {
	id := filamentID
	p.LoadedFilamentID = &id
}
