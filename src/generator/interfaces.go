package generator

import (
	"context"

	"vectorWriter/src/spec"
)

// BatchSource yields the batches of a run in row order. Batch k covers rows
// [k*BatchSize, min((k+1)*BatchSize, TotalRows)), so batch boundaries do not
// depend on where files are rotated.
type BatchSource interface {
	// Next returns the next batch, or io.EOF after the last one.
	Next(ctx context.Context) (*spec.Batch, error)
	Close()
}

// Observer is notified by the controller as the run progresses. Calls come
// from the controller goroutine, one at a time.
type Observer interface {
	// BatchWritten is called after every batch with the rows written in
	// total and the size estimate of the current file.
	BatchWritten(rowsWritten int64, fileIndex int, estimatedBytes int64)
	// FileFinished is called after a file was closed successfully.
	FileFinished(fileIndex int, path string, rows, bytes int64)
}
