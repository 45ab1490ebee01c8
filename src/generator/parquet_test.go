package generator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"vectorWriter/src/writer"

	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/pingcap/tidb/br/pkg/storage"
	"github.com/stretchr/testify/require"
)

func generateParquet(t *testing.T, dir string, workers int) *Result {
	t.Helper()
	ctx := context.Background()

	backend, err := storage.ParseBackend(dir, nil)
	require.NoError(t, err)
	store, err := storage.NewWithDefaultOpt(ctx, backend)
	require.NoError(t, err)
	defer store.Close()

	cfg := &GenerationConfig{
		OutputDir:           dir,
		TotalRows:           2500,
		TargetFileSizeBytes: 64 * 1024,
		Compression:         writer.CompressionZstd,
		VectorDim:           32,
		ScalarLen:           16,
		Seed:                42,
		BatchSize:           128,
		FileNamePrefix:      "bench",
		Workers:             workers,
	}
	factory, err := writer.NewParquetFactory(store, writer.Options{
		Spec:         cfg.VectorSpec(),
		Compression:  cfg.Compression,
		RowGroupRows: 300,
	})
	require.NoError(t, err)

	res, err := Generate(ctx, cfg, factory)
	require.NoError(t, err)
	return res
}

func TestGenerateParquetFiles(t *testing.T) {
	dir := t.TempDir()
	res := generateParquet(t, dir, 1)

	// (32*4 + 16 + 16) bytes per row, 410 rows reach the target: 4 batches per file
	require.Len(t, res.Files, 5)
	var total int64
	for i, f := range res.Files {
		require.Equal(t, filepath.Join(dir, f.Name), f.Path)
		st, err := os.Stat(f.Path)
		require.NoError(t, err)
		require.Equal(t, st.Size(), f.Bytes)

		r, err := file.OpenParquetFile(f.Path, false)
		require.NoError(t, err)
		require.Equal(t, f.Rows, r.NumRows())
		require.Equal(t, 2, r.MetaData().Schema.NumColumns())
		require.NoError(t, r.Close())

		if i < len(res.Files)-1 {
			require.Equal(t, int64(512), f.Rows)
		}
		total += f.Rows
	}
	require.Equal(t, int64(2500), total)
}

func TestGenerateParquetReproducible(t *testing.T) {
	first := generateParquet(t, t.TempDir(), 1)
	again := generateParquet(t, t.TempDir(), 1)
	parallel := generateParquet(t, t.TempDir(), 4)

	require.Len(t, again.Files, len(first.Files))
	require.Len(t, parallel.Files, len(first.Files))
	for i := range first.Files {
		want, err := os.ReadFile(first.Files[i].Path)
		require.NoError(t, err)
		for _, other := range []*Result{again, parallel} {
			got, err := os.ReadFile(other.Files[i].Path)
			require.NoError(t, err)
			require.Equal(t, want, got, "file %d", i)
		}
	}
}
