package generator

import (
	"context"
	"fmt"

	"vectorWriter/src/spec"
	"vectorWriter/src/writer"

	"github.com/pingcap/errors"
)

type fakeFile struct {
	name    string
	index   int
	batches []*spec.Batch
	closed  bool
	aborted bool
}

func (f *fakeFile) rows() int64 {
	var n int64
	for _, b := range f.batches {
		n += int64(b.Count)
	}
	return n
}

type fakeFactory struct {
	files []*fakeFile

	failOpenAt  int
	failWriteAt int
	failCloseAt int
	writeErr    error
	writes      int
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{failOpenAt: -1, failWriteAt: -1, failCloseAt: -1}
}

func (f *fakeFactory) Extension() string { return "parquet" }

func (f *fakeFactory) Open(_ context.Context, name string, fileIndex int) (writer.FileWriter, error) {
	if fileIndex == f.failOpenAt {
		return nil, errors.New("no space left on device")
	}
	ff := &fakeFile{name: name, index: fileIndex}
	f.files = append(f.files, ff)
	return &fakeWriter{factory: f, file: ff}, nil
}

func (f *fakeFactory) openFiles() int {
	n := 0
	for _, ff := range f.files {
		if !ff.closed && !ff.aborted {
			n++
		}
	}
	return n
}

type fakeWriter struct {
	factory *fakeFactory
	file    *fakeFile
}

func (w *fakeWriter) WriteBatch(b *spec.Batch) error {
	if w.factory.openFiles() != 1 {
		return fmt.Errorf("%d files open", w.factory.openFiles())
	}
	call := w.factory.writes
	w.factory.writes++
	if call == w.factory.failWriteAt {
		return w.factory.writeErr
	}
	w.file.batches = append(w.file.batches, b)
	return nil
}

func (w *fakeWriter) Close() (int64, error) {
	w.file.closed = true
	if w.file.index == w.factory.failCloseAt {
		return 0, errors.New("flush failed")
	}
	return w.file.rows() * 100, nil
}

func (w *fakeWriter) Abort() error {
	w.file.aborted = true
	return nil
}

type recordingObserver struct {
	batches  []int64
	finished []FileResult
}

func (o *recordingObserver) BatchWritten(rowsWritten int64, _ int, _ int64) {
	o.batches = append(o.batches, rowsWritten)
}

func (o *recordingObserver) FileFinished(fileIndex int, path string, rows, bytes int64) {
	o.finished = append(o.finished, FileResult{Index: fileIndex, Path: path, Rows: rows, Bytes: bytes})
}
