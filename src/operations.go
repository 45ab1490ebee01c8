package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"time"

	"vectorWriter/src/config"
	"vectorWriter/src/generator"
	"vectorWriter/src/util"
	"vectorWriter/src/writer"

	"github.com/docker/go-units"
	"github.com/google/uuid"
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"github.com/pingcap/tidb/br/pkg/storage"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultUploadThreads = 16
	uploadChunkSize      = 8 * units.MiB
)

func DeleteAllFiles(cfg *config.Config) error {
	var fileNames []string
	store, err := config.GetStore(cfg)
	if err != nil {
		return errors.Trace(err)
	}

	//nolint: errcheck
	defer store.Close()

	ctx := context.Background()
	err = store.WalkDir(ctx, &storage.WalkOption{}, func(path string, size int64) error {
		fileNames = append(fileNames, path)
		return nil
	})
	if err != nil {
		return errors.Trace(err)
	}

	var eg errgroup.Group
	eg.SetLimit(runtime.NumCPU())
	for _, fileName := range fileNames {
		eg.Go(func() error {
			return errors.Annotatef(store.DeleteFile(ctx, fileName), "delete %s", fileName)
		})
	}

	if err := eg.Wait(); err != nil {
		return err
	}
	log.Info("deleted files", zap.Int("count", len(fileNames)), zap.String("path", cfg.Common.Path))
	return nil
}

func ShowFiles(cfg *config.Config) error {
	store, err := config.GetStore(cfg)
	if err != nil {
		return errors.Trace(err)
	}

	//nolint: errcheck
	defer store.Close()

	var (
		count int
		total int64
	)
	err = store.WalkDir(context.Background(), &storage.WalkOption{}, func(path string, size int64) error {
		count++
		total += size
		fmt.Printf("Name: %s, Size: %d, Size (MiB): %f\n", path, size, float64(size)/1024/1024)
		return nil
	})
	if err != nil {
		return errors.Trace(err)
	}
	fmt.Printf("Total: %d files, %s\n", count, units.BytesSize(float64(total)))
	return nil
}

// GenerateFiles writes the dataset described by cfg to the configured store.
func GenerateFiles(cfg *config.Config, threads int, verbose bool) error {
	gc, err := cfg.GenerationConfig()
	if err != nil {
		return errors.Trace(err)
	}
	if threads > 0 {
		gc.Workers = threads
	}

	if verbose {
		fmt.Println("Configuration:")
		fmt.Println(cfg.String())
		fmt.Printf("  Threads: %d\n\n", max(gc.Workers, 1))
	}

	store, err := config.GetStore(cfg)
	if err != nil {
		return errors.Trace(err)
	}
	defer store.Close()

	logger := log.L().With(zap.String("run", uuid.NewString()))
	progress := util.NewProgressLogger(gc.TotalRows, "writing", time.Second)
	defer progress.Close()

	opts := cfg.WriterOptions(gc)
	opts.OnWrite = progress.UpdateBytes
	factory, err := writer.NewParquetFactory(store, opts)
	if err != nil {
		return errors.Trace(err)
	}

	observer := generator.MultiObserver{
		progress,
		util.NewLogObserver(logger, gc.TotalRows, 10*time.Second),
	}
	res, err := generator.Generate(context.Background(), gc, factory,
		generator.WithLogger(logger),
		generator.WithObserver(observer))
	progress.Close()
	if err != nil {
		return err
	}

	fmt.Printf("Generate and upload took %s\n", res.Elapsed)
	util.PrintSummary(os.Stdout, gc, res, verbose)
	return nil
}

// UploadLocalFiles uploads all files from a local directory to the configured remote path
func UploadLocalFiles(cfg *config.Config, localDir string, threads int) error {
	start := time.Now()
	defer func() {
		fmt.Printf("Upload took %s\n", time.Since(start))
	}()
	if threads <= 0 {
		threads = defaultUploadThreads
	}

	if _, err := os.Stat(localDir); os.IsNotExist(err) {
		return errors.Errorf("local directory does not exist: %s", localDir)
	}

	store, err := config.GetStore(cfg)
	if err != nil {
		return errors.Trace(err)
	}
	defer store.Close()

	var filesToUpload []string
	err = filepath.Walk(localDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		filesToUpload = append(filesToUpload, path)
		return nil
	})
	if err != nil {
		return errors.Trace(err)
	}

	if len(filesToUpload) == 0 {
		fmt.Println("No files to upload")
		return nil
	}

	fmt.Printf("Found %d files to upload\n", len(filesToUpload))

	eg, ctx := errgroup.WithContext(context.Background())
	eg.SetLimit(threads)

	var uploadedFiles atomic.Int32
	barDone := make(chan struct{})
	go func() {
		defer close(barDone)
		bar := util.NewFileProgressBar(len(filesToUpload), "uploading")
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		var prev int
		for range ticker.C {
			cur := int(uploadedFiles.Load())
			if cur > prev {
				_ = bar.Add(cur - prev)
				prev = cur
			}
			if cur >= len(filesToUpload) || ctx.Err() != nil {
				_ = bar.Finish()
				return
			}
		}
	}()

	for _, filePath := range filesToUpload {
		eg.Go(func() error {
			relPath, err := filepath.Rel(localDir, filePath)
			if err != nil {
				return errors.Trace(err)
			}
			remotePath := filepath.ToSlash(relPath)

			if err := uploadFile(ctx, store, filePath, remotePath); err != nil {
				return err
			}
			uploadedFiles.Add(1)
			log.Debug("uploaded", zap.String("local", filePath), zap.String("remote", remotePath))
			return nil
		})
	}

	err = eg.Wait()
	<-barDone
	if err != nil {
		return errors.Trace(err)
	}

	fmt.Printf("\nSuccessfully uploaded %d files\n", len(filesToUpload))
	return nil
}

func uploadFile(ctx context.Context, store storage.ExternalStorage, localPath, remotePath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return errors.Annotatef(err, "failed to read local file: %s", localPath)
	}
	defer f.Close()

	w, err := store.Create(ctx, remotePath, &storage.WriterOption{
		Concurrency: 8,
	})
	if err != nil {
		return errors.Annotatef(err, "failed to create remote file: %s", remotePath)
	}

	buf := make([]byte, uploadChunkSize)
	for {
		n, rerr := f.Read(buf)
		if n > 0 {
			if _, err := w.Write(ctx, buf[:n]); err != nil {
				_ = w.Close(ctx)
				return errors.Annotatef(err, "failed to upload file: %s", remotePath)
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			_ = w.Close(ctx)
			return errors.Annotatef(rerr, "failed to read local file: %s", localPath)
		}
	}
	return errors.Annotatef(w.Close(ctx), "failed to finish remote file: %s", remotePath)
}
