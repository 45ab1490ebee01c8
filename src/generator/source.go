package generator

import (
	"context"
	"io"

	"vectorWriter/src/spec"

	"github.com/pingcap/errors"
	"golang.org/x/sync/errgroup"
)

// NewBatchSource returns an inline source for one worker and a prefetching
// one otherwise. Both yield identical batches.
func NewBatchSource(ctx context.Context, cfg *GenerationConfig) BatchSource {
	asm := spec.NewAssembler(cfg.VectorSpec())
	if cfg.Workers <= 1 {
		return &sequentialSource{
			asm:       asm,
			total:     cfg.TotalRows,
			batchSize: int64(cfg.BatchSize),
		}
	}
	return newParallelSource(ctx, asm, cfg.TotalRows, int64(cfg.BatchSize), cfg.Workers)
}

type sequentialSource struct {
	asm       *spec.Assembler
	total     int64
	batchSize int64
	next      int64
}

func (s *sequentialSource) Next(ctx context.Context) (*spec.Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Trace(err)
	}
	if s.next >= s.total {
		return nil, io.EOF
	}
	count := min(s.batchSize, s.total-s.next)
	b, err := s.asm.Assemble(s.next, int(count))
	if err != nil {
		return nil, errors.Trace(err)
	}
	s.next += count
	return b, nil
}

func (s *sequentialSource) Close() {}

type future struct {
	done  chan struct{}
	batch *spec.Batch
	err   error
}

// parallelSource assembles batches on a bounded pool of goroutines. Futures
// are queued in row order, so the consumer sees batches in order no matter
// which worker finishes first.
type parallelSource struct {
	cancel   context.CancelFunc
	eg       *errgroup.Group
	queue    chan *future
	produced chan struct{}
	// prodErr is set before queue is closed when production stopped early.
	prodErr error
}

func newParallelSource(
	ctx context.Context,
	asm *spec.Assembler,
	total, batchSize int64,
	workers int,
) *parallelSource {
	ctx, cancel := context.WithCancel(ctx)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	s := &parallelSource{
		cancel:   cancel,
		eg:       eg,
		queue:    make(chan *future, workers*2),
		produced: make(chan struct{}),
	}

	go func() {
		defer close(s.produced)
		defer close(s.queue)

		for start := int64(0); start < total; start += batchSize {
			f := &future{done: make(chan struct{})}
			select {
			case s.queue <- f:
			case <-egCtx.Done():
				s.prodErr = errors.Trace(egCtx.Err())
				return
			}

			count := int(min(batchSize, total-start))
			eg.Go(func() error {
				defer close(f.done)
				if err := egCtx.Err(); err != nil {
					f.err = errors.Trace(err)
					return f.err
				}
				f.batch, f.err = asm.Assemble(start, count)
				return f.err
			})
		}
	}()
	return s
}

func (s *parallelSource) Next(ctx context.Context) (*spec.Batch, error) {
	var f *future
	select {
	case next, ok := <-s.queue:
		if !ok {
			if s.prodErr != nil {
				return nil, s.prodErr
			}
			return nil, io.EOF
		}
		f = next
	case <-ctx.Done():
		return nil, errors.Trace(ctx.Err())
	}

	select {
	case <-f.done:
		return f.batch, f.err
	case <-ctx.Done():
		return nil, errors.Trace(ctx.Err())
	}
}

// Close stops production and waits for running workers.
func (s *parallelSource) Close() {
	s.cancel()
	<-s.produced
	_ = s.eg.Wait()
}
