// Package idgen generates entity identifiers, grounded on the teacher's
// pkg/utils container-id helper: a readable prefix plus a compact unique
// suffix, alongside plain google/uuid generation for internal entities.
package idgen

import (
	"strings"

	"github.com/google/uuid"
)

// New returns a fresh random entity id.
func New() uuid.UUID {
	return uuid.New()
}

// Short returns an 8-character hex id, used for human-facing labels like
// remote program filenames where a full UUID would be unwieldy.
func Short() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}

// ProgramFilename produces the remote filename a program task uploads
// under: "{kind}-{shortid}.gcode".
func ProgramFilename(kind string) string {
	return kind + "-" + Short() + ".gcode"
}
