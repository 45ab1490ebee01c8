package generator

import "time"

// SizeEstimator predicts the size of the open file from the rows written
// to it. The prediction is linear: every row costs its raw payload plus a
// fixed overhead. Compression is ignored, so compressible data yields
// files below the target.
type SizeEstimator struct {
	rowBytes  int64
	target    int64
	estimated int64
}

// NewSizeEstimator creates an estimator for cfg. Zero RowOverheadBytes
// means DefaultRowOverheadBytes.
func NewSizeEstimator(cfg *GenerationConfig) SizeEstimator {
	overhead := cfg.RowOverheadBytes
	if overhead == 0 {
		overhead = DefaultRowOverheadBytes
	}
	return SizeEstimator{
		rowBytes: int64(cfg.VectorSpec().RowBytes()) + overhead,
		target:   cfg.TargetFileSizeBytes,
	}
}

// Add accounts rows written to the current file.
func (e *SizeEstimator) Add(rows int64) {
	e.estimated += rows * e.rowBytes
}

// ShouldRotate reports whether the current file reached the target.
func (e *SizeEstimator) ShouldRotate() bool {
	return e.estimated >= e.target
}

// Reset starts a new file.
func (e *SizeEstimator) Reset() {
	e.estimated = 0
}

func (e *SizeEstimator) Estimated() int64 { return e.estimated }

func (e *SizeEstimator) RowBytes() int64 { return e.rowBytes }

func (e *SizeEstimator) Target() int64 { return e.target }

// BatchFootprint is the estimated size of rows rows.
func (e *SizeEstimator) BatchFootprint(rows int64) int64 {
	return rows * e.rowBytes
}

// RowsPerFile is the number of rows after which a file is rotated.
func (e *SizeEstimator) RowsPerFile() int64 {
	if e.rowBytes <= 0 {
		return 1
	}
	n := (e.target + e.rowBytes - 1) / e.rowBytes
	return max(n, 1)
}

// FileState is the bookkeeping of the open file.
type FileState struct {
	Index   int
	Name    string
	Path    string
	Rows    int64
	Size    SizeEstimator
	Started time.Time
}
