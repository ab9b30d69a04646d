package piece

import "github.com/google/uuid"

// GeometryModel is an uploaded mesh (STL/3MF-style) awaiting slicing.
// Program-file parsing/mesh handling itself is an external collaborator;
// the core only needs the bounding box and a file reference.
type GeometryModel struct {
	ID       uuid.UUID
	FileName string
	SizeXMM  float64
	SizeYMM  float64
	SizeZMM  float64
}

// sortedDims returns the model's dimensions sorted ascending, used for the
// elementwise bed-fit comparison in the scheduler's compatibility predicate.
func (g *GeometryModel) sortedDims() [3]float64 {
	d := [3]float64{g.SizeXMM, g.SizeYMM, g.SizeZMM}
	if d[0] > d[1] {
		d[0], d[1] = d[1], d[0]
	}
	if d[1] > d[2] {
		d[1], d[2] = d[2], d[1]
	}
	if d[0] > d[1] {
		d[0], d[1] = d[1], d[0]
	}
	return d
}

// FitsBed reports whether this model's sorted dimensions fit elementwise
// within the sorted dimensions of a printer's bed shape (spec.md §4.5).
func (g *GeometryModel) FitsBed(bedXMM, bedYMM, bedZMM float64) bool {
	bed := [3]float64{bedXMM, bedYMM, bedZMM}
	if bed[0] > bed[1] {
		bed[0], bed[1] = bed[1], bed[0]
	}
	if bed[1] > bed[2] {
		bed[1], bed[2] = bed[2], bed[1]
	}
	if bed[0] > bed[1] {
		bed[0], bed[1] = bed[1], bed[0]
	}
	dims := g.sortedDims()
	return dims[0] <= bed[0] && dims[1] <= bed[1] && dims[2] <= bed[2]
}
