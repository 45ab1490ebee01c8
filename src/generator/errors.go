package generator

import "github.com/pingcap/errors"

var (
	// ErrInvalidConfig is returned before any file is opened.
	ErrInvalidConfig = errors.Normalize("invalid generation config: %s",
		errors.RFCCodeText("VectorWriter:generator:ErrInvalidConfig"))
	// ErrFileIO reports an output file that could not be created, written or closed.
	ErrFileIO = errors.Normalize("%s %s (file %d, row %d): %s",
		errors.RFCCodeText("VectorWriter:generator:ErrFileIO"))
	// ErrEncoding reports a batch the columnar writer refused.
	ErrEncoding = errors.Normalize("encode %s (file %d, rows %d-%d): %s",
		errors.RFCCodeText("VectorWriter:generator:ErrEncoding"))
)
