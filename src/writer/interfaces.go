package writer

import (
	"context"

	"vectorWriter/src/spec"

	"github.com/pingcap/tidb/br/pkg/storage"
)

// Store is the part of storage.ExternalStorage needed to create output files.
type Store interface {
	Create(ctx context.Context, name string, option *storage.WriterOption) (storage.ExternalFileWriter, error)
}

// FileWriter receives the batches of a single output file.
type FileWriter interface {
	WriteBatch(b *spec.Batch) error
	// Close finishes the file and returns the number of bytes written.
	Close() (int64, error)
	// Abort releases the underlying handle without finishing the file.
	Abort() error
}

// Factory opens output files.
type Factory interface {
	Open(ctx context.Context, name string, fileIndex int) (FileWriter, error)
	// Extension is the file name suffix, without the dot.
	Extension() string
}
