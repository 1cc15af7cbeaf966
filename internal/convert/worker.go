package convert

import (
	"fmt"
	"strings"

	"comic-tool/internal/util"
)

// Worker drives one conversion batch to completion and reports through
// one-way callbacks: progress (percent, 100), free-text status, the final
// result list, and a finished signal. Callbacks fire on the calling
// goroutine; the caller decides where Run executes. A batch runs every file
// to completion or failure; there is no cancellation.
type Worker struct {
	FilePaths      []string
	TargetFormat   string
	DeleteOriginal bool

	OnProgress func(current, total int)
	OnStatus   func(message string)
	OnComplete func(results []Result)
	OnFinished func()

	Logger util.Logger

	lastPercent int
}

// NewWorker creates a worker for one batch.
func NewWorker(filePaths []string, targetFormat string, deleteOriginal bool) *Worker {
	return &Worker{
		FilePaths:      filePaths,
		TargetFormat:   strings.ToLower(targetFormat),
		DeleteOriginal: deleteOriginal,
		Logger:         &util.NoopLogger{},
		lastPercent:    -1,
	}
}

// Run executes the batch. OnComplete fires exactly once with one Result per
// input path in input order, then the final 100% progress, then OnFinished.
func (w *Worker) Run() {
	defer func() {
		if w.OnFinished != nil {
			w.OnFinished()
		}
	}()

	sink := ProgressSinkFunc(w.emitProgress)

	// The orchestrator for the whole batch is picked once, up front.
	var converter BatchConverter
	if w.usePDFConverter() {
		converter = NewPDFConverter(sink, w.Logger)
		w.Logger.Info("Using PDF converter")
		w.status("Initializing PDF converter...")
	} else {
		converter = NewArchiveConverter(sink, w.Logger)
		w.Logger.Info("Using archive converter")
		w.status("Initializing archive converter...")
	}

	w.Logger.Info(fmt.Sprintf("Target format: %s, Files: %d", w.TargetFormat, len(w.FilePaths)))
	w.status(fmt.Sprintf("Starting conversion of %d file(s)...", len(w.FilePaths)))

	results := converter.ConvertBatch(w.FilePaths, w.TargetFormat, w.DeleteOriginal, w.status)

	w.Logger.Info(fmt.Sprintf("Conversion completed: %d files processed", len(results)))
	w.status("Conversion completed.")

	if w.OnComplete != nil {
		w.OnComplete(results)
	}
	// The true final 100% goes out only after the results are delivered.
	if w.OnProgress != nil {
		w.OnProgress(100, 100)
	}
}

func (w *Worker) usePDFConverter() bool {
	if w.TargetFormat == "pdf" {
		return true
	}
	for _, path := range w.FilePaths {
		if strings.HasSuffix(strings.ToLower(path), ".pdf") {
			return true
		}
	}
	return false
}

func (w *Worker) status(message string) {
	if w.OnStatus != nil {
		w.OnStatus(message)
	}
}

// emitProgress forwards progress, throttled to changes of at least one
// percentage point; 100% is always emitted.
func (w *Worker) emitProgress(current, total int) {
	if w.OnProgress == nil {
		return
	}
	if total <= 0 {
		w.OnProgress(current, total)
		return
	}

	percent := current * 100 / total
	if abs(percent-w.lastPercent) >= 1 || percent == 100 {
		w.lastPercent = percent
		w.OnProgress(current, total)
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
