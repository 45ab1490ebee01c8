package writer

import (
	"context"
	"strconv"

	"vectorWriter/src/spec"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/schema"
	"github.com/docker/go-units"
	"github.com/pingcap/errors"
	"github.com/pingcap/tidb/br/pkg/storage"
)

const (
	DefaultPageSize     = units.MiB
	DefaultRowGroupRows = 100000

	defaultConcurrency = 8

	vectorColumn     = "vector"
	scalarColumn     = "scalar"
	vectorColumnPath = "vector.list.element"

	metaPrefix = "vector_writer."
)

// Options configures the parquet files a ParquetFactory opens.
type Options struct {
	Spec         spec.VectorSpec
	Compression  Compression
	PageSize     int64
	RowGroupRows int

	// Concurrency is passed to the store for multipart uploads.
	Concurrency int
	Allocator   memory.Allocator
	// OnWrite, if set, is called with the size of every chunk sent to storage.
	OnWrite func(n int64)
}

func (o *Options) setDefaults() {
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.RowGroupRows <= 0 {
		o.RowGroupRows = DefaultRowGroupRows
	}
	if o.Concurrency <= 0 {
		o.Concurrency = defaultConcurrency
	}
	if o.Allocator == nil {
		o.Allocator = memory.DefaultAllocator
	}
}

// ParquetFactory opens parquet files with a vector and a scalar column on a store.
type ParquetFactory struct {
	store  Store
	opts   Options
	schema *schema.GroupNode
	props  *parquet.WriterProperties
}

// NewParquetFactory builds the file schema and writer properties once for all files.
func NewParquetFactory(store Store, opts Options) (*ParquetFactory, error) {
	if opts.Spec.Dim <= 0 || opts.Spec.ScalarLen <= 0 {
		return nil, errors.Errorf("invalid row shape: dim %d, scalar length %d", opts.Spec.Dim, opts.Spec.ScalarLen)
	}
	opts.setDefaults()

	root, err := buildSchema()
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &ParquetFactory{
		store:  store,
		opts:   opts,
		schema: root,
		props:  writerProperties(opts),
	}, nil
}

func buildSchema() (*schema.GroupNode, error) {
	vector, err := schema.ListOf(
		schema.NewFloat32Node(vectorColumn, parquet.Repetitions.Required, -1),
		parquet.Repetitions.Required, -1)
	if err != nil {
		return nil, errors.Trace(err)
	}
	scalar, err := schema.NewPrimitiveNodeConverted(
		scalarColumn,
		parquet.Repetitions.Required,
		parquet.Types.ByteArray, schema.ConvertedTypes.UTF8,
		0, 0, 0,
		-1,
	)
	if err != nil {
		return nil, errors.Trace(err)
	}
	node, err := schema.NewGroupNode("schema", parquet.Repetitions.Required, schema.FieldList{vector, scalar}, -1)
	return node, errors.Trace(err)
}

func writerProperties(opts Options) *parquet.WriterProperties {
	return parquet.NewWriterProperties(
		parquet.WithAllocator(opts.Allocator),
		parquet.WithDataPageSize(opts.PageSize),
		parquet.WithDataPageVersion(parquet.DataPageV2),
		parquet.WithVersion(parquet.V2_LATEST),
		parquet.WithCompression(opts.Compression.Codec()),
		parquet.WithDictionaryDefault(false),
		parquet.WithEncodingFor(vectorColumnPath, parquet.Encodings.ByteStreamSplit),
		parquet.WithEncodingFor(scalarColumn, parquet.Encodings.Plain),
	)
}

// Extension implements Factory.
func (f *ParquetFactory) Extension() string {
	return "parquet"
}

// Open creates name on the store and writes the parquet header.
func (f *ParquetFactory) Open(ctx context.Context, name string, fileIndex int) (fw FileWriter, err error) {
	w, err := f.store.Create(ctx, name, &storage.WriterOption{
		Concurrency: f.opts.Concurrency,
	})
	if err != nil {
		return nil, ErrStorage.GenWithStackByArgs("create", name, err.Error())
	}

	pf := &ParquetFile{
		name:         name,
		dim:          f.opts.Spec.Dim,
		scalarLen:    f.opts.Spec.ScalarLen,
		rowGroupRows: f.opts.RowGroupRows,
		sink:         &sink{ctx: ctx, writer: w, onWrite: f.opts.OnWrite},
		firstRow:     -1,
	}
	defer func() {
		if r := recover(); r != nil {
			_ = pf.sink.Close()
			fw, err = nil, pf.failure("open", errors.Errorf("%v", r))
		}
	}()

	pf.w = file.NewParquetWriter(pf.sink, f.schema, file.WithWriterProps(f.props))
	meta := [][2]string{
		{"seed", strconv.FormatUint(f.opts.Spec.Seed, 10)},
		{"dim", strconv.Itoa(f.opts.Spec.Dim)},
		{"scalar_len", strconv.Itoa(f.opts.Spec.ScalarLen)},
		{"distribution", f.opts.Spec.Distribution.String()},
		{"normalized", strconv.FormatBool(f.opts.Spec.Normalize)},
		{"file_index", strconv.Itoa(fileIndex)},
	}
	for _, kv := range meta {
		if err := pf.w.AppendKeyValueMetadata(metaPrefix+kv[0], kv[1]); err != nil {
			_ = pf.sink.Close()
			return nil, ErrEncode.GenWithStackByArgs(name, err.Error())
		}
	}
	return pf, nil
}

// ParquetFile writes batches into one parquet file. Rows are collected in a
// buffered row group which is closed every rowGroupRows rows.
type ParquetFile struct {
	name         string
	dim          int
	scalarLen    int
	rowGroupRows int

	sink *sink
	w    *file.Writer
	rgw  file.BufferedRowGroupWriter

	rgRows   int
	rows     int64
	firstRow int64
	closed   bool

	defLevels []int16
	repLevels []int16
	scalars   []parquet.ByteArray
}

// Name returns the name the file was created with.
func (f *ParquetFile) Name() string {
	return f.name
}

// Rows returns the number of rows written so far.
func (f *ParquetFile) Rows() int64 {
	return f.rows
}

// WriteBatch implements FileWriter.
func (f *ParquetFile) WriteBatch(b *spec.Batch) (err error) {
	if f.closed {
		return errors.Errorf("write to closed file %s", f.name)
	}
	if b.Count <= 0 || b.Dim != f.dim || b.ScalarLen != f.scalarLen ||
		len(b.Vectors) != b.Count*f.dim || len(b.Scalars) != b.Count*f.scalarLen {
		return ErrBatchShape.GenWithStackByArgs(b.Start, b.Count, f.dim, f.scalarLen)
	}
	defer func() {
		if r := recover(); r != nil {
			err = f.failure("write", errors.Errorf("%v", r))
		}
	}()

	if f.firstRow < 0 {
		f.firstRow = b.Start
		if err := f.w.AppendKeyValueMetadata(metaPrefix+"first_row", strconv.FormatInt(b.Start, 10)); err != nil {
			return ErrEncode.GenWithStackByArgs(f.name, err.Error())
		}
	}

	for offset := 0; offset < b.Count; {
		if f.rgw == nil {
			f.rgw = f.w.AppendBufferedRowGroup()
		}
		n := min(b.Count-offset, f.rowGroupRows-f.rgRows)
		if err := f.writeRows(b, offset, n); err != nil {
			return f.failure("write", err)
		}
		offset += n
		f.rgRows += n
		f.rows += int64(n)

		if f.rgRows == f.rowGroupRows {
			err := f.rgw.Close()
			f.rgw, f.rgRows = nil, 0
			if err != nil {
				return f.failure("write", err)
			}
		}
	}
	return nil
}

func (f *ParquetFile) writeRows(b *spec.Batch, offset, n int) error {
	cw, err := f.rgw.Column(0)
	if err != nil {
		return errors.Trace(err)
	}
	vw, ok := cw.(*file.Float32ColumnChunkWriter)
	if !ok {
		return errors.Errorf("unexpected writer %T for column %s", cw, vectorColumnPath)
	}
	def, rep := f.levels(n * f.dim)
	if _, err := vw.WriteBatch(b.Vectors[offset*f.dim:(offset+n)*f.dim], def, rep); err != nil {
		return errors.Trace(err)
	}

	cw, err = f.rgw.Column(1)
	if err != nil {
		return errors.Trace(err)
	}
	sw, ok := cw.(*file.ByteArrayColumnChunkWriter)
	if !ok {
		return errors.Errorf("unexpected writer %T for column %s", cw, scalarColumn)
	}
	if cap(f.scalars) < n {
		f.scalars = make([]parquet.ByteArray, n)
	}
	scalars := f.scalars[:n]
	for i := range scalars {
		scalars[i] = b.Scalar(offset + i)
	}
	_, err = sw.WriteBatch(scalars, nil, nil)
	return errors.Trace(err)
}

// levels returns definition and repetition levels for count vector
// components. Every component is present; a new row starts every dim values.
func (f *ParquetFile) levels(count int) ([]int16, []int16) {
	if len(f.defLevels) < count {
		f.defLevels = make([]int16, count)
		f.repLevels = make([]int16, count)
		for i := range count {
			f.defLevels[i] = 1
			if i%f.dim != 0 {
				f.repLevels[i] = 1
			}
		}
	}
	return f.defLevels[:count], f.repLevels[:count]
}

// Close implements FileWriter. It writes the footer, closes the storage
// writer and returns the size of the file.
func (f *ParquetFile) Close() (n int64, err error) {
	if f.closed {
		return 0, errors.Errorf("file %s already closed", f.name)
	}
	f.closed = true
	defer func() {
		if r := recover(); r != nil {
			_ = f.sink.Close()
			n, err = 0, f.failure("close", errors.Errorf("%v", r))
		}
	}()

	if f.rgw != nil {
		err := f.rgw.Close()
		f.rgw = nil
		if err != nil {
			_ = f.sink.Close()
			return 0, f.failure("close", err)
		}
	}
	if err := f.w.FlushWithFooter(); err != nil {
		_ = f.sink.Close()
		return 0, f.failure("close", err)
	}
	// Close closes the sink, which closes the storage writer.
	if err := f.w.Close(); err != nil {
		return 0, ErrStorage.GenWithStackByArgs("close", f.name, err.Error())
	}
	return f.sink.written, nil
}

// Abort implements FileWriter. Whatever reached storage stays there.
func (f *ParquetFile) Abort() error {
	if f.closed {
		return nil
	}
	f.closed = true
	if err := f.sink.Close(); err != nil {
		return ErrStorage.GenWithStackByArgs("abort", f.name, err.Error())
	}
	return nil
}

// failure classifies err: a failed storage write wins over whatever the
// encoder reported about it.
func (f *ParquetFile) failure(op string, err error) error {
	if f.sink.err != nil {
		return ErrStorage.GenWithStackByArgs(op, f.name, f.sink.err.Error())
	}
	return ErrEncode.GenWithStackByArgs(f.name, err.Error())
}
