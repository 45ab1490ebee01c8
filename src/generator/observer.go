package generator

import "time"

// NopObserver ignores all notifications.
type NopObserver struct{}

func (NopObserver) BatchWritten(int64, int, int64) {}

func (NopObserver) FileFinished(int, string, int64, int64) {}

// MultiObserver fans notifications out to several observers.
type MultiObserver []Observer

func (m MultiObserver) BatchWritten(rowsWritten int64, fileIndex int, estimatedBytes int64) {
	for _, o := range m {
		o.BatchWritten(rowsWritten, fileIndex, estimatedBytes)
	}
}

func (m MultiObserver) FileFinished(fileIndex int, path string, rows, bytes int64) {
	for _, o := range m {
		o.FileFinished(fileIndex, path, rows, bytes)
	}
}

// FileResult describes one finished file.
type FileResult struct {
	Index          int
	Name           string
	Path           string
	Rows           int64
	EstimatedBytes int64
	// Bytes is the size reported by the writer on close.
	Bytes   int64
	Elapsed time.Duration
}

// Result is the outcome of a successful run.
type Result struct {
	Files     []FileResult
	TotalRows int64
	Elapsed   time.Duration
}

// Paths returns the paths of the produced files in creation order.
func (r *Result) Paths() []string {
	paths := make([]string, 0, len(r.Files))
	for _, f := range r.Files {
		paths = append(paths, f.Path)
	}
	return paths
}

// Bytes is the total size of the produced files.
func (r *Result) Bytes() int64 {
	var n int64
	for _, f := range r.Files {
		n += f.Bytes
	}
	return n
}
