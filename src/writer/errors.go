package writer

import "github.com/pingcap/errors"

var (
	// ErrStorage reports a failure of the output store: create, write or close.
	ErrStorage = errors.Normalize("storage %s %s: %s",
		errors.RFCCodeText("VectorWriter:writer:ErrStorage"))
	// ErrBatchShape reports a batch whose buffers disagree with the file layout.
	ErrBatchShape = errors.Normalize("batch at row %d with %d rows does not match dim %d, scalar length %d",
		errors.RFCCodeText("VectorWriter:writer:ErrBatchShape"))
	// ErrEncode reports a failure inside the parquet encoder.
	ErrEncode = errors.Normalize("encode %s: %s",
		errors.RFCCodeText("VectorWriter:writer:ErrEncode"))
)
