package util

import (
	"fmt"
	"time"

	"github.com/docker/go-units"
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

// LogObserver logs finished files at info level and throttled progress at
// debug level. It implements generator.Observer.
type LogObserver struct {
	logger    *zap.Logger
	totalRows int64
	interval  time.Duration
	started   time.Time
	lastLog   time.Time
}

// NewLogObserver creates a LogObserver. A nil logger means log.L().
func NewLogObserver(logger *zap.Logger, totalRows int64, interval time.Duration) *LogObserver {
	if logger == nil {
		logger = log.L()
	}
	now := time.Now()
	return &LogObserver{
		logger:    logger,
		totalRows: totalRows,
		interval:  interval,
		started:   now,
		lastLog:   now,
	}
}

func (o *LogObserver) BatchWritten(rowsWritten int64, fileIndex int, estimatedBytes int64) {
	now := time.Now()
	if now.Sub(o.lastLog) < o.interval && rowsWritten < o.totalRows {
		return
	}
	o.lastLog = now
	o.logger.Debug("progress",
		zap.Int64("rows", rowsWritten),
		zap.Int64("total-rows", o.totalRows),
		zap.String("percent", percent(rowsWritten, o.totalRows)),
		zap.Int("file", fileIndex),
		zap.String("file-estimate", units.BytesSize(float64(estimatedBytes))))
}

func (o *LogObserver) FileFinished(fileIndex int, path string, rows, bytes int64) {
	o.logger.Info("file finished",
		zap.Int("index", fileIndex),
		zap.String("path", path),
		zap.Int64("rows", rows),
		zap.String("size", units.BytesSize(float64(bytes))),
		zap.Duration("since-start", time.Since(o.started)))
}

func percent(n, total int64) string {
	if total <= 0 {
		return "100.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(n)*100/float64(total))
}
