package generator

import (
	"context"
	"io"
	"time"

	"vectorWriter/src/spec"
	"vectorWriter/src/writer"

	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

// State is the lifecycle state of a Controller.
type State int

const (
	StateAwaitingFile State = iota
	StateWritingFile
	StateRotating
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateAwaitingFile:
		return "awaiting-file"
	case StateWritingFile:
		return "writing-file"
	case StateRotating:
		return "rotating"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Option customizes a Controller.
type Option func(*Controller)

// WithObserver sets the observer notified about batches and files.
func WithObserver(o Observer) Option {
	return func(c *Controller) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithLogger sets the logger, log.L() by default.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// Controller writes TotalRows rows into a sequence of files, rotating to a
// new file once the size estimate of the current one reaches the target.
// At most one file is open at a time. A Controller runs once.
type Controller struct {
	cfg      *GenerationConfig
	factory  writer.Factory
	observer Observer
	logger   *zap.Logger

	state   State
	file    writer.FileWriter
	cur     FileState
	written int64
	files   []FileResult
}

// NewController validates cfg and prepares a run. Nothing is opened before Run.
func NewController(cfg *GenerationConfig, factory writer.Factory, opts ...Option) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Controller{
		cfg:      cfg.resolved(),
		factory:  factory,
		observer: NopObserver{},
		logger:   log.L(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Generate validates cfg and runs a controller over it.
func Generate(ctx context.Context, cfg *GenerationConfig, factory writer.Factory, opts ...Option) (*Result, error) {
	c, err := NewController(cfg, factory, opts...)
	if err != nil {
		return nil, err
	}
	return c.Run(ctx)
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// Run generates all rows. On failure the open file is aborted and left
// behind together with every file finished before it.
func (c *Controller) Run(ctx context.Context) (*Result, error) {
	if c.state != StateAwaitingFile {
		return nil, errors.Errorf("controller cannot run in state %s", c.state)
	}

	start := time.Now()
	est := NewSizeEstimator(c.cfg)
	c.logger.Info("start generation",
		zap.Int64("rows", c.cfg.TotalRows),
		zap.Int64("target-file-size", c.cfg.TargetFileSizeBytes),
		zap.Int64("estimated-row-bytes", est.RowBytes()),
		zap.Int64("estimated-rows-per-file", est.RowsPerFile()),
		zap.Int("batch-size", c.cfg.BatchSize),
		zap.Int("workers", c.cfg.Workers),
		zap.Stringer("compression", c.cfg.Compression))

	src := NewBatchSource(ctx, c.cfg)
	defer src.Close()

	for {
		switch c.state {
		case StateAwaitingFile:
			if c.cfg.TotalRows == 0 {
				c.state = StateDone
				continue
			}
			if err := c.openFile(ctx, 0); err != nil {
				return nil, c.fail(err)
			}
			c.state = StateWritingFile

		case StateWritingFile:
			if c.written == c.cfg.TotalRows {
				if err := c.closeFile(); err != nil {
					return nil, c.fail(err)
				}
				c.state = StateDone
				continue
			}
			if c.cur.Size.ShouldRotate() {
				c.state = StateRotating
				continue
			}
			if err := c.writeNext(ctx, src); err != nil {
				return nil, c.fail(err)
			}

		case StateRotating:
			if err := c.closeFile(); err != nil {
				return nil, c.fail(err)
			}
			if err := c.openFile(ctx, c.cur.Index+1); err != nil {
				return nil, c.fail(err)
			}
			c.state = StateWritingFile

		case StateDone:
			res := &Result{
				Files:     c.files,
				TotalRows: c.written,
				Elapsed:   time.Since(start),
			}
			c.logger.Info("generation finished",
				zap.Int("files", len(res.Files)),
				zap.Int64("rows", res.TotalRows),
				zap.Duration("elapsed", res.Elapsed))
			return res, nil

		default:
			return nil, errors.Errorf("controller in unexpected state %s", c.state)
		}
	}
}

func (c *Controller) openFile(ctx context.Context, index int) error {
	name := c.cfg.FileName(index, c.factory.Extension())
	c.cur = FileState{
		Index:   index,
		Name:    name,
		Path:    c.cfg.FilePath(name),
		Size:    NewSizeEstimator(c.cfg),
		Started: time.Now(),
	}

	fw, err := c.factory.Open(ctx, name, index)
	if err != nil {
		return ErrFileIO.GenWithStackByArgs("open", c.cur.Path, index, c.written, err.Error())
	}
	c.file = fw
	c.logger.Info("open file", zap.Int("index", index), zap.String("path", c.cur.Path))
	return nil
}

func (c *Controller) writeNext(ctx context.Context, src BatchSource) error {
	b, err := src.Next(ctx)
	if err == io.EOF {
		return errors.Errorf("batch source exhausted after %d of %d rows", c.written, c.cfg.TotalRows)
	}
	if err != nil {
		return errors.Trace(err)
	}
	want := min(int64(c.cfg.BatchSize), c.cfg.TotalRows-c.written)
	if b.Start != c.written || int64(b.Count) != want {
		return errors.Errorf("batch source out of order: got rows %d+%d, want %d+%d",
			b.Start, b.Count, c.written, want)
	}

	if err := c.file.WriteBatch(b); err != nil {
		return c.writeError(b, err)
	}

	rows := int64(b.Count)
	c.cur.Rows += rows
	c.cur.Size.Add(rows)
	c.written += rows

	c.logger.Debug("batch written",
		zap.Int("file", c.cur.Index),
		zap.Int64("start", b.Start),
		zap.Int("rows", b.Count),
		zap.Int64("estimated-bytes", c.cur.Size.Estimated()))
	c.observer.BatchWritten(c.written, c.cur.Index, c.cur.Size.Estimated())
	return nil
}

func (c *Controller) writeError(b *spec.Batch, err error) error {
	if writer.ErrStorage.Equal(err) {
		return ErrFileIO.GenWithStackByArgs("write", c.cur.Path, c.cur.Index, b.Start, err.Error())
	}
	return ErrEncoding.GenWithStackByArgs(c.cur.Path, c.cur.Index, b.Start, b.End()-1, err.Error())
}

func (c *Controller) closeFile() error {
	fw := c.file
	c.file = nil
	bytes, err := fw.Close()
	if err != nil {
		return ErrFileIO.GenWithStackByArgs("close", c.cur.Path, c.cur.Index, c.written, err.Error())
	}

	elapsed := time.Since(c.cur.Started)
	c.files = append(c.files, FileResult{
		Index:          c.cur.Index,
		Name:           c.cur.Name,
		Path:           c.cur.Path,
		Rows:           c.cur.Rows,
		EstimatedBytes: c.cur.Size.Estimated(),
		Bytes:          bytes,
		Elapsed:        elapsed,
	})

	rowsPerSec := 0.0
	if elapsed > 0 {
		rowsPerSec = float64(c.cur.Rows) / elapsed.Seconds()
	}
	c.logger.Info("close file",
		zap.Int("index", c.cur.Index),
		zap.String("path", c.cur.Path),
		zap.Int64("rows", c.cur.Rows),
		zap.Int64("estimated-bytes", c.cur.Size.Estimated()),
		zap.Int64("bytes", bytes),
		zap.Duration("elapsed", elapsed),
		zap.Float64("rows-per-second", rowsPerSec))
	c.observer.FileFinished(c.cur.Index, c.cur.Path, c.cur.Rows, bytes)
	return nil
}

// fail moves to StateFailed and releases the open file, if any.
func (c *Controller) fail(err error) error {
	c.state = StateFailed
	if c.file != nil {
		if aerr := c.file.Abort(); aerr != nil {
			c.logger.Warn("abort file failed",
				zap.Int("index", c.cur.Index),
				zap.String("path", c.cur.Path),
				zap.Error(aerr))
		}
		c.file = nil
	}
	c.logger.Error("generation failed",
		zap.Int("file", c.cur.Index),
		zap.Int64("rows-written", c.written),
		zap.Error(err))
	return err
}
