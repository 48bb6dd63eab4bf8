// Package outputfile implements the crash-safe output strategy: write to a
// sibling temporary file, then atomically commit (fsync, rename, fsync) or
// abort (remove the temporary), so a failure never corrupts the target.
package outputfile

import (
	"io"
	"os"

	"github.com/opustools/zoog"
	"github.com/opustools/zoog/internal/pathutil"
)

// OutputFile is either a Sink (every write discarded, used for list/dry-run)
// or a Temp (backed by a real sibling temporary file awaiting Commit or
// Abort). Exactly one of Commit or Abort must be called, exactly once.
type OutputFile struct {
	sink      bool
	tempPath  string
	finalPath string
	file      *os.File
	done      bool
}

// NewSink returns an OutputFile whose writes are discarded.
func NewSink() *OutputFile {
	return &OutputFile{sink: true}
}

// NewTarget returns an OutputFile backed by a sibling temporary file that
// will be renamed onto finalPath on Commit.
func NewTarget(finalPath string) (*OutputFile, error) {
	tempPath := pathutil.SiblingTempPath(finalPath)
	f, err := os.Create(tempPath)
	if err != nil {
		return nil, &zoog.Error{Kind: zoog.IO, Op: "NewTarget", Err: err}
	}
	return &OutputFile{tempPath: tempPath, finalPath: finalPath, file: f}, nil
}

// NewTargetOrDiscard returns a Sink if dryRun is true, else a real Temp
// target via NewTarget.
func NewTargetOrDiscard(finalPath string, dryRun bool) (*OutputFile, error) {
	if dryRun {
		return NewSink(), nil
	}
	return NewTarget(finalPath)
}

// Writer returns the io.Writer to stream rewritten output into.
func (o *OutputFile) Writer() io.Writer {
	if o.sink {
		return io.Discard
	}
	return o.file
}

// Commit fsyncs the temporary's data, atomically renames it onto the final
// path, then fsyncs the renamed file. A no-op for a Sink.
func (o *OutputFile) Commit() error {
	if o.done {
		panic("outputfile: Commit/Abort called more than once")
	}
	o.done = true
	if o.sink {
		return nil
	}
	if err := o.file.Sync(); err != nil {
		_ = o.file.Close()
		_ = os.Remove(o.tempPath)
		return &zoog.Error{Kind: zoog.IO, Op: "Commit", Err: err}
	}
	if err := o.file.Close(); err != nil {
		_ = os.Remove(o.tempPath)
		return &zoog.Error{Kind: zoog.IO, Op: "Commit", Err: err}
	}
	if err := os.Rename(o.tempPath, o.finalPath); err != nil {
		_ = os.Remove(o.tempPath)
		return &zoog.Error{Kind: zoog.IO, Op: "Commit", Err: err}
	}
	final, err := os.Open(o.finalPath)
	if err != nil {
		return &zoog.Error{Kind: zoog.IO, Op: "Commit", Err: err}
	}
	defer final.Close()
	if err := final.Sync(); err != nil {
		return &zoog.Error{Kind: zoog.IO, Op: "Commit", Err: err}
	}
	return nil
}

// Abort discards the temporary file without touching the final path.
// A no-op for a Sink.
func (o *OutputFile) Abort() error {
	if o.done {
		panic("outputfile: Commit/Abort called more than once")
	}
	o.done = true
	if o.sink {
		return nil
	}
	_ = o.file.Close()
	if err := os.Remove(o.tempPath); err != nil && !os.IsNotExist(err) {
		return &zoog.Error{Kind: zoog.IO, Op: "Abort", Err: err}
	}
	return nil
}
