package config

import (
	"context"
	"fmt"
	"strings"

	"vectorWriter/src/generator"
	"vectorWriter/src/spec"
	"vectorWriter/src/writer"

	"github.com/BurntSushi/toml"
	"github.com/docker/go-units"
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"github.com/pingcap/tidb/br/pkg/storage"
)

const (
	defaultPath         = "./output"
	defaultPrefix       = "vectors"
	defaultRows         = 1000
	defaultFileSize     = "512MB"
	defaultBatchSize    = 10000
	defaultDim          = 1024
	defaultScalarLen    = 32
	defaultSeed         = 42
	defaultCompression  = "snappy"
	defaultDistribution = "uniform"
)

type S3Config struct {
	Region          string `toml:"region,omitempty"`
	AccessKey       string `toml:"access_key,omitempty"`
	SecretAccessKey string `toml:"secret_key,omitempty"`
	Provider        string `toml:"provider,omitempty"`
	Endpoint        string `toml:"endpoint,omitempty"`
	Force           bool   `toml:"force,omitempty"`
	RoleArn         string `toml:"role_arn,omitempty"`
}

type GCSConfig struct {
	Credential string `toml:"credential,omitempty"`
}

type CommonConfig struct {
	Path      string `toml:"path"`
	Prefix    string `toml:"prefix"`
	Folders   int    `toml:"folders"`
	Rows      int64  `toml:"rows"`
	FileSize  string `toml:"file_size"`
	BatchSize int    `toml:"batch_size"`
	// Threads is the number of goroutines assembling batches.
	Threads int `toml:"threads"`

	// FileSizeBytes is derived at runtime and not read from config.
	FileSizeBytes int64 `toml:"-"`
}

type VectorConfig struct {
	Dim          int    `toml:"dim"`
	ScalarLen    int    `toml:"scalar_len"`
	Seed         uint64 `toml:"seed"`
	Distribution string `toml:"distribution"`
	Normalize    bool   `toml:"normalize"`
}

type ParquetConfig struct {
	PageSize     string `toml:"page_size"`
	RowGroupRows int    `toml:"row_group_rows"`
	Compression  string `toml:"compression"`
	RowOverhead  int64  `toml:"row_overhead"`

	// PageSizeBytes is derived at runtime and not read from config.
	PageSizeBytes int64 `toml:"-"`
}

type Config struct {
	Common    CommonConfig  `toml:"common"`
	Vector    VectorConfig  `toml:"vector"`
	Parquet   ParquetConfig `toml:"parquet"`
	Log       log.Config    `toml:"log"`
	S3Config  *S3Config     `toml:"s3,omitempty"`
	GCSConfig *GCSConfig    `toml:"gcs,omitempty"`
}

// Load decodes a TOML config file. Keys that are absent take their default,
// so "rows = 0" and "seed = 0" are kept as written.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, errors.Annotatef(err, "decode config %s", path)
	}
	applyDefaults(cfg, meta)
	return cfg, nil
}

// Decode is Load for in-memory config text.
func Decode(data string) (*Config, error) {
	cfg := &Config{}
	meta, err := toml.Decode(data, cfg)
	if err != nil {
		return nil, errors.Annotate(err, "decode config")
	}
	applyDefaults(cfg, meta)
	return cfg, nil
}

func applyDefaults(cfg *Config, meta toml.MetaData) {
	if !meta.IsDefined("common", "rows") {
		cfg.Common.Rows = defaultRows
	}
	if !meta.IsDefined("vector", "seed") {
		cfg.Vector.Seed = defaultSeed
	}
	if cfg.Common.Path == "" {
		cfg.Common.Path = defaultPath
	}
	if cfg.Common.Prefix == "" {
		cfg.Common.Prefix = defaultPrefix
	}
	if cfg.Common.FileSize == "" {
		cfg.Common.FileSize = defaultFileSize
	}
	if cfg.Common.BatchSize == 0 {
		cfg.Common.BatchSize = defaultBatchSize
	}
	if cfg.Vector.Dim == 0 {
		cfg.Vector.Dim = defaultDim
	}
	if cfg.Vector.ScalarLen == 0 {
		cfg.Vector.ScalarLen = defaultScalarLen
	}
	if cfg.Vector.Distribution == "" {
		cfg.Vector.Distribution = defaultDistribution
	}
	if cfg.Parquet.Compression == "" {
		cfg.Parquet.Compression = defaultCompression
	}
}

// Normalize resolves derived config values after loading.
func Normalize(cfg *Config) error {
	fileBytes, err := resolveSize("file_size", cfg.Common.FileSize, 0)
	if err != nil {
		return err
	}
	cfg.Common.FileSizeBytes = fileBytes

	pageBytes, err := resolveSize("page_size", cfg.Parquet.PageSize, writer.DefaultPageSize)
	if err != nil {
		return err
	}
	cfg.Parquet.PageSizeBytes = pageBytes
	return nil
}

// Validate returns a user-friendly error if the configuration is invalid.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Common.Path == "" {
		errs = append(errs, "common.path is required")
	}
	if cfg.Common.Prefix == "" {
		errs = append(errs, "common.prefix is required")
	}
	if cfg.Common.Rows < 0 {
		errs = append(errs, "common.rows must be >= 0")
	}
	if cfg.Common.FileSizeBytes <= 0 {
		errs = append(errs, "common.file_size must be greater than 0")
	}
	if cfg.Common.BatchSize <= 0 {
		errs = append(errs, "common.batch_size must be greater than 0")
	}
	if cfg.Common.Folders < 0 {
		errs = append(errs, "common.folders must be >= 0")
	}
	if cfg.Common.Threads < 0 {
		errs = append(errs, "common.threads must be >= 0")
	}

	if cfg.Vector.Dim <= 0 {
		errs = append(errs, "vector.dim must be greater than 0")
	}
	if cfg.Vector.ScalarLen <= 0 {
		errs = append(errs, "vector.scalar_len must be greater than 0")
	}
	if _, ok := spec.ParseDistribution(cfg.Vector.Distribution); !ok {
		errs = append(errs, "vector.distribution must be uniform or normal")
	}

	if _, err := writer.ParseCompression(cfg.Parquet.Compression); err != nil {
		errs = append(errs, "parquet.compression must be one of snappy, gzip, lz4, zstd, uncompressed")
	}
	if cfg.Parquet.PageSizeBytes <= 0 {
		errs = append(errs, "parquet.page_size must be greater than 0")
	}
	if cfg.Parquet.RowGroupRows < 0 {
		errs = append(errs, "parquet.row_group_rows must be >= 0")
	}
	if cfg.Parquet.RowOverhead < 0 {
		errs = append(errs, "parquet.row_overhead must be >= 0")
	}

	if cfg.S3Config != nil && cfg.GCSConfig != nil {
		errs = append(errs, "only one of [s3] or [gcs] can be configured")
	}

	if len(errs) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("invalid config:\n")
	for _, err := range errs {
		sb.WriteString(" - ")
		sb.WriteString(err)
		sb.WriteString("\n")
	}
	return errors.New(strings.TrimRight(sb.String(), "\n"))
}

func resolveSize(key, value string, def int64) (int64, error) {
	if value == "" {
		return def, nil
	}
	bytes, err := units.FromHumanSize(value)
	if err != nil {
		return 0, errors.Errorf("invalid %s %q: %v", key, value, err)
	}
	if bytes <= 0 {
		return 0, errors.Errorf("invalid %s %q: must be greater than 0", key, value)
	}
	return bytes, nil
}

// GenerationConfig converts a normalized config into the generator input.
func (c *Config) GenerationConfig() (*generator.GenerationConfig, error) {
	compression, err := writer.ParseCompression(c.Parquet.Compression)
	if err != nil {
		return nil, errors.Trace(err)
	}
	dist, ok := spec.ParseDistribution(c.Vector.Distribution)
	if !ok {
		return nil, errors.Errorf("unknown distribution %q", c.Vector.Distribution)
	}
	return &generator.GenerationConfig{
		OutputDir:           c.Common.Path,
		TotalRows:           c.Common.Rows,
		TargetFileSizeBytes: c.Common.FileSizeBytes,
		Compression:         compression,
		VectorDim:           c.Vector.Dim,
		ScalarLen:           c.Vector.ScalarLen,
		Seed:                c.Vector.Seed,
		BatchSize:           c.Common.BatchSize,
		FileNamePrefix:      c.Common.Prefix,
		Distribution:        dist,
		Normalize:           c.Vector.Normalize,
		RowOverheadBytes:    c.Parquet.RowOverhead,
		Workers:             c.Common.Threads,
		Folders:             c.Common.Folders,
	}, nil
}

// WriterOptions returns the parquet options matching gc.
func (c *Config) WriterOptions(gc *generator.GenerationConfig) writer.Options {
	return writer.Options{
		Spec:         gc.VectorSpec(),
		Compression:  gc.Compression,
		PageSize:     c.Parquet.PageSizeBytes,
		RowGroupRows: c.Parquet.RowGroupRows,
	}
}

// String renders the settings that shape the output, one per line.
func (c *Config) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "  Output path: %s\n", c.Common.Path)
	fmt.Fprintf(&sb, "  Prefix: %s\n", c.Common.Prefix)
	fmt.Fprintf(&sb, "  Total rows: %d\n", c.Common.Rows)
	fmt.Fprintf(&sb, "  Target file size: %s\n", units.HumanSize(float64(c.Common.FileSizeBytes)))
	fmt.Fprintf(&sb, "  Batch size: %d\n", c.Common.BatchSize)
	fmt.Fprintf(&sb, "  Vector dimension: %d (%s", c.Vector.Dim, c.Vector.Distribution)
	if c.Vector.Normalize {
		sb.WriteString(", normalized")
	}
	sb.WriteString(")\n")
	fmt.Fprintf(&sb, "  Scalar length: %d bytes\n", c.Vector.ScalarLen)
	fmt.Fprintf(&sb, "  Seed: %d\n", c.Vector.Seed)
	fmt.Fprintf(&sb, "  Compression: %s\n", c.Parquet.Compression)
	fmt.Fprintf(&sb, "  Page size: %s", units.BytesSize(float64(c.Parquet.PageSizeBytes)))
	return sb.String()
}

// GetStore initializes and returns an ExternalStorage instance based on the provided configuration.
func GetStore(c *Config) (storage.ExternalStorage, error) {
	var op *storage.BackendOptions
	if c.S3Config != nil {
		op = &storage.BackendOptions{S3: storage.S3BackendOptions{
			Region:          c.S3Config.Region,
			AccessKey:       c.S3Config.AccessKey,
			SecretAccessKey: c.S3Config.SecretAccessKey,
			Provider:        c.S3Config.Provider,
			Endpoint:        c.S3Config.Endpoint,
			ForcePathStyle:  c.S3Config.Force,
			RoleARN:         c.S3Config.RoleArn,
		}}
	} else if c.GCSConfig != nil {
		op = &storage.BackendOptions{GCS: storage.GCSBackendOptions{
			CredentialsFile: c.GCSConfig.Credential,
		}}
	}

	s, err := storage.ParseBackend(c.Common.Path, op)
	if err != nil {
		return nil, errors.Trace(err)
	}

	return storage.NewWithDefaultOpt(context.Background(), s)
}
