package convert

// ProgressSink receives batch-normalized progress updates, conventionally
// as (percent, 100).
type ProgressSink interface {
	Progress(current, total int)
}

// ProgressSinkFunc adapts a plain function to a ProgressSink.
type ProgressSinkFunc func(current, total int)

func (f ProgressSinkFunc) Progress(current, total int) {
	f(current, total)
}

// FileProgress scopes raw (current, total) pairs from one file's pipeline to
// a 0-100 percentage within a batch. For every file but the last a raw 100%
// is clamped to 99% so the batch never prematurely claims completion; the
// true 100% is emitted by the worker after the last file's results are
// delivered.
type FileProgress struct {
	Sink       ProgressSink
	FileIndex  int
	TotalFiles int
	LastFile   bool
}

// NewFileProgress builds the per-file progress scope for file fileIndex
// (0-based) of totalFiles.
func NewFileProgress(sink ProgressSink, fileIndex, totalFiles int) FileProgress {
	return FileProgress{
		Sink:       sink,
		FileIndex:  fileIndex,
		TotalFiles: totalFiles,
		LastFile:   fileIndex == totalFiles-1,
	}
}

// Report forwards a raw progress pair as (percent, 100).
func (p FileProgress) Report(current, total int) {
	if p.Sink == nil {
		return
	}

	percent := 0
	if total > 0 {
		percent = int(float64(current) / float64(total) * 100)
		if percent < 0 {
			percent = 0
		}
		if percent > 100 {
			percent = 100
		}
	}

	if !p.LastFile && percent == 100 {
		percent = 99
	}
	p.Sink.Progress(percent, 100)
}
