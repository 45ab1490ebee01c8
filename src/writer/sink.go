package writer

import (
	"context"

	"github.com/pingcap/errors"
	"github.com/pingcap/tidb/br/pkg/storage"
)

// sink adapts a storage.ExternalFileWriter to the io.WriteCloser the
// parquet writer expects and counts the bytes that reached storage.
type sink struct {
	ctx     context.Context
	writer  storage.ExternalFileWriter
	onWrite func(n int64)

	written int64
	err     error
	closed  bool
}

func (s *sink) Write(p []byte) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	n, err := s.writer.Write(s.ctx, p)
	s.written += int64(n)
	if s.onWrite != nil && n > 0 {
		s.onWrite(int64(n))
	}
	if err != nil {
		s.err = errors.Trace(err)
		return n, s.err
	}
	return n, nil
}

// Close closes the storage writer. Only the first call reaches storage.
func (s *sink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return errors.Trace(s.writer.Close(s.ctx))
}
