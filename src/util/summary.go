package util

import (
	"fmt"
	"io"
	"time"

	"vectorWriter/src/generator"

	"github.com/docker/go-units"
)

// PrintSummary writes the outcome of a run in the same layout for every
// output backend.
func PrintSummary(w io.Writer, cfg *generator.GenerationConfig, res *generator.Result, verbose bool) {
	var (
		bytes      = res.Bytes()
		throughput = 0.0
		rowsPerSec = 0.0
	)
	if secs := res.Elapsed.Seconds(); secs > 0 {
		throughput = float64(bytes) / secs
		rowsPerSec = float64(res.TotalRows) / secs
	}

	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "  Files: %d\n", len(res.Files))
	fmt.Fprintf(w, "  Total Rows: %d\n", res.TotalRows)
	fmt.Fprintf(w, "  Bytes: %s\n", units.BytesSize(float64(bytes)))
	fmt.Fprintf(w, "  Elapsed: %s\n", res.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "  Throughput: %s/s, %.0f rows/s\n", units.BytesSize(throughput), rowsPerSec)
	fmt.Fprintf(w, "  Compression: %s\n", cfg.Compression)
	fmt.Fprintf(w, "  Path: %s\n", cfg.OutputDir)

	if !verbose {
		return
	}
	for _, f := range res.Files {
		fmt.Fprintf(w, "  %s: %d rows, %s (estimated %s), %s\n",
			f.Name, f.Rows,
			units.BytesSize(float64(f.Bytes)),
			units.BytesSize(float64(f.EstimatedBytes)),
			f.Elapsed.Round(time.Millisecond))
	}
}
