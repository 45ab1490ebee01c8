package util

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/docker/go-units"
	"github.com/schollz/progressbar/v3"
)

const (
	progressPrefixWidth = 52
	progressBarWidth    = 32
)

// ProgressLogger tracks rows, files and bytes of a run and renders them as
// a progress bar. It implements generator.Observer.
type ProgressLogger struct {
	totalRows int64
	action    string
	interval  time.Duration
	out       io.Writer

	rows  atomic.Int64
	files atomic.Int32
	bytes atomic.Int64

	bar      *progressbar.ProgressBar
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewProgressLogger creates and starts a progress logger rendering to stdout.
// Nothing is rendered when totalRows is 0.
func NewProgressLogger(totalRows int64, action string, interval time.Duration) *ProgressLogger {
	return newProgressLogger(totalRows, action, interval, os.Stdout)
}

func newProgressLogger(totalRows int64, action string, interval time.Duration, out io.Writer) *ProgressLogger {
	p := &ProgressLogger{
		totalRows: totalRows,
		action:    action,
		interval:  interval,
		out:       out,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	p.start()
	return p
}

// BatchWritten records the total number of rows written so far.
func (p *ProgressLogger) BatchWritten(rowsWritten int64, _ int, _ int64) {
	p.rows.Store(rowsWritten)
}

// FileFinished counts a closed file.
func (p *ProgressLogger) FileFinished(int, string, int64, int64) {
	p.files.Add(1)
}

// UpdateBytes increments the byte counter.
func (p *ProgressLogger) UpdateBytes(delta int64) {
	if delta == 0 {
		return
	}
	p.bytes.Add(delta)
}

// Snapshot returns the current row, file and byte counts.
func (p *ProgressLogger) Snapshot() (rows int64, files int64, bytes int64) {
	return p.rows.Load(), int64(p.files.Load()), p.bytes.Load()
}

// Close stops rendering and waits for the render loop to exit.
func (p *ProgressLogger) Close() {
	p.stopOnce.Do(func() { close(p.stop) })
	<-p.done
}

func (p *ProgressLogger) start() {
	if p.totalRows <= 0 {
		close(p.done)
		return
	}

	p.bar = newRowProgressBar(p.totalRows, p.action, p.out)

	go func() {
		defer close(p.done)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		prevRows := p.rows.Load()
		prevBytes := p.bytes.Load()
		prevTime := time.Now()
		lastDesc := ""

		for {
			stopped := false
			select {
			case <-ticker.C:
			case <-p.stop:
				stopped = true
			}

			curRows := p.rows.Load()
			curBytes := p.bytes.Load()
			curFiles := int64(p.files.Load())
			now := time.Now()
			elapsed := now.Sub(prevTime).Seconds()

			desc := progressDescription(p.action, curBytes, progressRate(curBytes-prevBytes, elapsed), curFiles)
			if desc != lastDesc {
				p.bar.Describe(desc)
				lastDesc = desc
			}
			if delta := curRows - prevRows; delta > 0 {
				_ = p.bar.Add64(delta)
			}

			prevRows = curRows
			prevBytes = curBytes
			prevTime = now

			if curRows >= p.totalRows {
				_ = p.bar.Finish()
				return
			}
			if stopped {
				_ = p.bar.Exit()
				return
			}
		}
	}()
}

func progressRate(delta int64, elapsedSeconds float64) float64 {
	if elapsedSeconds <= 0 {
		return 0
	}
	return float64(delta) / elapsedSeconds
}

func newRowProgressBar(totalRows int64, action string, out io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions64(
		totalRows,
		progressbar.OptionSetWriter(out),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetDescription(progressDescription(action, 0, 0, 0)),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("rows"),
		progressbar.OptionSetWidth(progressBarWidth),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(out)
		}),
		progressbar.OptionSetTheme(barTheme),
	)
}

// NewFileProgressBar creates a themed progress bar for file-based work.
func NewFileProgressBar(totalFiles int, action string) *progressbar.ProgressBar {
	return progressbar.NewOptions(
		totalFiles,
		progressbar.OptionSetWriter(os.Stdout),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetDescription(padOrTrim(action, progressPrefixWidth)+" "),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(progressBarWidth),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stdout)
		}),
		progressbar.OptionSetTheme(barTheme),
	)
}

var barTheme = progressbar.Theme{
	Saucer:        "[light_magenta]━",
	SaucerHead:    "[light_magenta]╸",
	SaucerPadding: "[dark_gray]━",
	BarStart:      "",
	BarEnd:        "[reset]",
}

func progressDescription(action string, bytes int64, bytesPerSec float64, files int64) string {
	prefix := fmt.Sprintf(
		"%s %s (%s/s, %d files)",
		action,
		units.BytesSize(float64(bytes)),
		units.BytesSize(bytesPerSec),
		files,
	)
	return padOrTrim(prefix, progressPrefixWidth) + " "
}

func padOrTrim(s string, width int) string {
	if width <= 0 {
		return s
	}
	if len(s) > width {
		if width <= 3 {
			return s[:width]
		}
		return s[:width-3] + "..."
	}
	if len(s) < width {
		return s + strings.Repeat(" ", width-len(s))
	}
	return s
}
