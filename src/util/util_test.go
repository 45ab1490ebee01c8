package util

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"vectorWriter/src/generator"
	"vectorWriter/src/writer"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestPadOrTrim(t *testing.T) {
	require.Equal(t, "abc  ", padOrTrim("abc", 5))
	require.Equal(t, "abcde", padOrTrim("abcde", 5))
	require.Equal(t, "ab...", padOrTrim("abcdefgh", 5))
	require.Equal(t, "abc", padOrTrim("abcdefgh", 3))
	require.Equal(t, "abcdefgh", padOrTrim("abcdefgh", 0))
}

func TestProgressDescription(t *testing.T) {
	desc := progressDescription("writing", 3*1024*1024, 1024, 2)
	require.Len(t, desc, progressPrefixWidth+1)
	require.True(t, strings.HasPrefix(desc, "writing 3MiB (1KiB/s, 2 files)"), desc)
}

func TestProgressLoggerCounts(t *testing.T) {
	var out bytes.Buffer
	p := newProgressLogger(1000, "writing", time.Millisecond, &out)
	var obs generator.Observer = p

	obs.BatchWritten(400, 0, 0)
	p.UpdateBytes(100)
	p.UpdateBytes(0)
	obs.FileFinished(0, "a", 400, 100)
	obs.BatchWritten(1000, 1, 0)
	obs.FileFinished(1, "b", 600, 150)
	p.UpdateBytes(150)
	p.Close()
	p.Close()

	rows, files, n := p.Snapshot()
	require.Equal(t, int64(1000), rows)
	require.Equal(t, int64(2), files)
	require.Equal(t, int64(250), n)
	require.Contains(t, out.String(), "writing")
}

func TestProgressLoggerWithoutRows(t *testing.T) {
	p := NewProgressLogger(0, "writing", time.Second)
	p.BatchWritten(0, 0, 0)
	p.Close()
	rows, files, n := p.Snapshot()
	require.Zero(t, rows+files+n)
}

func TestLogObserver(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	o := NewLogObserver(zap.New(core), 100, time.Hour)

	o.BatchWritten(50, 0, 2048)
	o.BatchWritten(100, 0, 4096)
	o.FileFinished(0, "/out/v_0.parquet", 100, 3000)

	entries := logs.All()
	// the first batch is throttled, the last one is always logged
	require.Len(t, entries, 2)
	require.Equal(t, "progress", entries[0].Message)
	require.Equal(t, "100.0%", entries[0].ContextMap()["percent"])
	require.Equal(t, "file finished", entries[1].Message)
	require.Equal(t, "/out/v_0.parquet", entries[1].ContextMap()["path"])
	require.Equal(t, int64(100), entries[1].ContextMap()["rows"])
}

func TestPrintSummary(t *testing.T) {
	cfg := &generator.GenerationConfig{OutputDir: "/out", Compression: writer.CompressionZstd}
	res := &generator.Result{
		Files: []generator.FileResult{
			{Index: 0, Name: "v_0.parquet", Rows: 10, Bytes: 2048, EstimatedBytes: 4096},
			{Index: 1, Name: "v_1.parquet", Rows: 5, Bytes: 1024, EstimatedBytes: 2048},
		},
		TotalRows: 15,
		Elapsed:   time.Second,
	}

	var out bytes.Buffer
	PrintSummary(&out, cfg, res, false)
	s := out.String()
	require.Contains(t, s, "Files: 2")
	require.Contains(t, s, "Total Rows: 15")
	require.Contains(t, s, "Bytes: 3KiB")
	require.Contains(t, s, "Throughput: 3KiB/s, 15 rows/s")
	require.Contains(t, s, "Compression: zstd")
	require.NotContains(t, s, "v_0.parquet")

	out.Reset()
	PrintSummary(&out, cfg, res, true)
	require.Contains(t, out.String(), "v_1.parquet: 5 rows, 1KiB (estimated 2KiB)")
}
