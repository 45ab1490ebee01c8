package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"vectorWriter/src/config"

	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

var (
	operation = flag.String("op", "create", "create/delete/show/upload, default is create")
	cfgPath   = flag.String("cfg", "", "config path")
	threads   = flag.Int("threads", 0, "goroutines assembling batches, overrides common.threads")
	localDir  = flag.String("dir", "", "local directory for upload operation")
	verbose   = flag.Bool("verbose", false, "print the configuration and per-file results")
)

func loadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path == "" {
		cfg, err = config.Decode("")
	} else {
		cfg, err = config.Load(path)
	}
	if err != nil {
		return nil, err
	}
	if err := config.Normalize(cfg); err != nil {
		return nil, errors.Trace(err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func initLogger(cfg *config.Config) error {
	logger, props, err := log.InitLogger(&cfg.Log)
	if err != nil {
		return errors.Trace(err)
	}
	log.ReplaceGlobals(logger, props)
	return nil
}

func main() {
	flag.Parse()

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := initLogger(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	switch strings.ToLower(*operation) {
	case "delete":
		if err := DeleteAllFiles(cfg); err != nil {
			log.Fatal("failed to delete files", zap.Error(err))
		}
	case "show":
		if err := ShowFiles(cfg); err != nil {
			log.Fatal("failed to show files", zap.Error(err))
		}
	case "create":
		if err := GenerateFiles(cfg, *threads, *verbose); err != nil {
			log.Fatal("failed to generate files", zap.Error(err))
		}
	case "upload":
		if *localDir == "" {
			log.Fatal("local directory (-dir) must be specified for upload operation")
		}
		if err := UploadLocalFiles(cfg, *localDir, *threads); err != nil {
			log.Fatal("failed to upload files", zap.Error(err))
		}
	default:
		log.Fatal("unknown operation", zap.String("op", *operation))
	}
}
