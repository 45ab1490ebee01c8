package spec

import (
	"github.com/pingcap/errors"
)

// ErrEmptyBatch is returned when a batch of zero rows is requested.
var ErrEmptyBatch = errors.New("batch must contain at least one row")

// Batch is a run of consecutive rows stored column-wise.
type Batch struct {
	// Start is the global index of the first row.
	Start     int64
	Count     int
	Dim       int
	ScalarLen int

	// Vectors holds Count*Dim components, row-major.
	Vectors []float32
	// Scalars holds Count*ScalarLen bytes, one fixed-width slot per row.
	Scalars []byte
}

// End returns the global index one past the last row.
func (b *Batch) End() int64 {
	return b.Start + int64(b.Count)
}

// Vector returns the vector of the i-th row of the batch.
func (b *Batch) Vector(i int) []float32 {
	return b.Vectors[i*b.Dim : (i+1)*b.Dim]
}

// Scalar returns the scalar of the i-th row of the batch.
func (b *Batch) Scalar(i int) []byte {
	return b.Scalars[i*b.ScalarLen : (i+1)*b.ScalarLen]
}

// Assembler builds batches from a VectorSpec. It keeps no state between
// calls and may be shared by several goroutines.
type Assembler struct {
	spec VectorSpec
}

// NewAssembler creates an assembler for the given spec.
func NewAssembler(s VectorSpec) *Assembler {
	return &Assembler{spec: s}
}

// Spec returns the spec batches are built from.
func (a *Assembler) Spec() VectorSpec {
	return a.spec
}

// Assemble generates count rows starting at global row index start.
func (a *Assembler) Assemble(start int64, count int) (*Batch, error) {
	if count <= 0 {
		return nil, errors.Annotatef(ErrEmptyBatch, "assemble at row %d", start)
	}

	var (
		dim       = a.spec.Dim
		scalarLen = a.spec.ScalarLen
		src       = NewRowSource(a.spec)
		b         = &Batch{
			Start:     start,
			Count:     count,
			Dim:       dim,
			ScalarLen: scalarLen,
			Vectors:   make([]float32, count*dim),
			Scalars:   make([]byte, count*scalarLen),
		}
	)

	for i := range count {
		src.FillRow(start+int64(i), b.Vector(i), b.Scalar(i))
	}
	return b, nil
}
