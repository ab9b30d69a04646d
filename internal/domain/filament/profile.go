package filament

import "github.com/google/uuid"

// MaterialProfile describes the physical print parameters for a material
// (nozzle/bed temperature, flow rate) independent of a specific printer.
type MaterialProfile struct {
	ID             uuid.UUID
	Name           string
	NozzleTempC    int
	BedTempC       int
	FlowRatePct    int
	MaxSpeedMMs    int
}

// PrintProfile ties a MaterialProfile to a PrinterProfile, producing the
// concrete slicer settings used to generate device programs for a piece.
type PrintProfile struct {
	ID                uuid.UUID
	Name              string
	MaterialProfileID uuid.UUID
	PrinterProfileID  uuid.UUID
	LayerHeightMM      float64
	InfillPct          int
	SupportsEnabled    bool
}

// PrinterProfile describes a printer model's capabilities: build volume and
// the set of materials it can run.
type PrinterProfile struct {
	ID              uuid.UUID
	Name            string
	BuildVolumeXMM  float64
	BuildVolumeYMM  float64
	BuildVolumeZMM  float64
	SupportedMaterials []string
}

// Supports reports whether the printer profile can run the given material.
func (p *PrinterProfile) Supports(material string) bool {
	for _, m := range p.SupportedMaterials {
		if m == material {
			return true
		}
	}
	return false
}

// Fits reports whether a piece's bounding box fits within the build volume.
func (p *PrinterProfile) Fits(xMM, yMM, zMM float64) bool {
	return xMM <= p.BuildVolumeXMM && yMM <= p.BuildVolumeYMM && zMM <= p.BuildVolumeZMM
}
