package filesink

import (
	"bufio"
	"io"
	"os"
	"sync"

	"github.com/anand2532/SAE-J1939-parser/frame"
	"github.com/anand2532/SAE-J1939-parser/j1939"
	"github.com/anand2532/SAE-J1939-parser/report"
	"github.com/cockroachdb/errors"
)

// files holds the two append-only logs shared by the workers.
type files struct {
	mux sync.Mutex

	closers []io.Closer

	raw     *bufio.Writer
	decoded *bufio.Writer
	records *report.JSONLinesWriter

	rawBuf []byte
}

func openFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	return f, nil
}

func openFiles(rawPath, decodedPath string) (*files, error) {
	rawFile, err := openFile(rawPath)
	if err != nil {
		return nil, err
	}

	decodedFile, err := openFile(decodedPath)
	if err != nil {
		rawFile.Close()
		return nil, err
	}

	return newFiles(rawFile, decodedFile, rawFile, decodedFile), nil
}

func newFiles(raw, decoded io.Writer, closers ...io.Closer) *files {
	decodedBuf := bufio.NewWriter(decoded)

	return &files{
		closers: closers,

		raw:     bufio.NewWriter(raw),
		decoded: decodedBuf,
		records: report.NewJSONLinesWriter(decodedBuf),
	}
}

// write appends a batch to both logs and flushes them.
// It returns the number of frames and records written.
func (f *files) write(msg *j1939.Message) (int, int, error) {
	f.mux.Lock()
	defer f.mux.Unlock()

	f.rawBuf = f.rawBuf[:0]
	for _, cf := range msg.Frames {
		f.rawBuf = frame.AppendEncode(f.rawBuf, cf)
	}

	if _, err := f.raw.Write(f.rawBuf); err != nil {
		return 0, 0, errors.Wrap(err, "write raw log")
	}
	if err := f.raw.Flush(); err != nil {
		return 0, 0, errors.Wrap(err, "flush raw log")
	}

	recordCount := 0
	for _, decoded := range msg.Messages {
		if err := f.records.Write(report.NewRecord(decoded)); err != nil {
			return len(msg.Frames), recordCount, errors.Wrap(err, "write decoded log")
		}
		recordCount++
	}

	if err := f.decoded.Flush(); err != nil {
		return len(msg.Frames), recordCount, errors.Wrap(err, "flush decoded log")
	}

	return len(msg.Frames), recordCount, nil
}

func (f *files) close() error {
	f.mux.Lock()
	defer f.mux.Unlock()

	err := errors.CombineErrors(f.raw.Flush(), f.decoded.Flush())
	for _, c := range f.closers {
		err = errors.CombineErrors(err, c.Close())
	}

	return err
}
