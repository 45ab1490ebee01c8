package generator

import (
	"fmt"
	"strings"

	"vectorWriter/src/spec"
	"vectorWriter/src/writer"
)

// DefaultRowOverheadBytes is the per-row allowance of the size model for
// encoding and page overhead. It is a calibration constant: raise it when
// files come out larger than the target, lower it when they come out smaller.
const DefaultRowOverheadBytes = 16

// GenerationConfig is the resolved input of one generation run. It is not
// modified after it is handed to a Controller.
type GenerationConfig struct {
	// OutputDir is where files are created. It is only used to report paths,
	// files are created through the writer factory.
	OutputDir string

	TotalRows           int64
	TargetFileSizeBytes int64
	Compression         writer.Compression
	VectorDim           int
	ScalarLen           int
	Seed                uint64
	BatchSize           int
	FileNamePrefix      string

	Distribution     spec.Distribution
	Normalize        bool
	RowOverheadBytes int64
	// Workers is the number of goroutines assembling batches ahead of the writer.
	Workers int
	// Folders spreads files over partNNNNN sub folders when greater than 1.
	Folders int
}

// Validate reports every violated constraint in a single ErrInvalidConfig.
func (c *GenerationConfig) Validate() error {
	var errs []string

	if c.TotalRows < 0 {
		errs = append(errs, fmt.Sprintf("total rows must be >= 0, got %d", c.TotalRows))
	}
	if c.TargetFileSizeBytes <= 0 {
		errs = append(errs, fmt.Sprintf("target file size must be > 0, got %d", c.TargetFileSizeBytes))
	}
	if c.VectorDim <= 0 {
		errs = append(errs, fmt.Sprintf("vector dim must be > 0, got %d", c.VectorDim))
	}
	if c.ScalarLen <= 0 {
		errs = append(errs, fmt.Sprintf("scalar length must be > 0, got %d", c.ScalarLen))
	}
	if c.BatchSize <= 0 {
		errs = append(errs, fmt.Sprintf("batch size must be > 0, got %d", c.BatchSize))
	}
	if strings.TrimSpace(c.FileNamePrefix) == "" {
		errs = append(errs, "file name prefix is required")
	}
	if c.Compression < writer.CompressionUncompressed || c.Compression > writer.CompressionZstd {
		errs = append(errs, fmt.Sprintf("unknown compression %d", c.Compression))
	}
	if c.Distribution != spec.DistributionUniform && c.Distribution != spec.DistributionNormal {
		errs = append(errs, fmt.Sprintf("unknown distribution %d", c.Distribution))
	}
	if c.RowOverheadBytes < 0 {
		errs = append(errs, fmt.Sprintf("row overhead must be >= 0, got %d", c.RowOverheadBytes))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Sprintf("workers must be >= 0, got %d", c.Workers))
	}
	if c.Folders < 0 {
		errs = append(errs, fmt.Sprintf("folders must be >= 0, got %d", c.Folders))
	}

	if len(errs) == 0 {
		return nil
	}
	return ErrInvalidConfig.GenWithStackByArgs(strings.Join(errs, "; "))
}

// resolved returns a copy with the optional fields defaulted.
func (c *GenerationConfig) resolved() *GenerationConfig {
	out := *c
	if out.RowOverheadBytes == 0 {
		out.RowOverheadBytes = DefaultRowOverheadBytes
	}
	if out.Workers <= 0 {
		out.Workers = 1
	}
	return &out
}

// VectorSpec returns the row shape described by the config.
func (c *GenerationConfig) VectorSpec() spec.VectorSpec {
	return spec.VectorSpec{
		Dim:          c.VectorDim,
		ScalarLen:    c.ScalarLen,
		Seed:         c.Seed,
		Distribution: c.Distribution,
		Normalize:    c.Normalize,
	}
}

// FileName returns the name of file index relative to OutputDir.
func (c *GenerationConfig) FileName(index int, ext string) string {
	name := fmt.Sprintf("%s_%d.%s", c.FileNamePrefix, index, ext)
	if c.Folders > 1 {
		name = fmt.Sprintf("part%05d/%s", index%c.Folders, name)
	}
	return name
}

// FilePath joins OutputDir and name. OutputDir may be a storage URL, so
// path.Join is not used.
func (c *GenerationConfig) FilePath(name string) string {
	if c.OutputDir == "" {
		return name
	}
	return strings.TrimRight(c.OutputDir, "/") + "/" + name
}
