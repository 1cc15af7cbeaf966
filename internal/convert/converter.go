package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"comic-tool/internal/util"
)

// StatusFunc receives human-readable status messages. The text is free form
// and never machine-parsed.
type StatusFunc func(message string)

// Result is the outcome of one file's conversion attempt. ConvertedPath is
// computed up front from the original path and the target format, so it is
// populated even when the attempt fails.
type Result struct {
	OriginalPath  string `json:"original_path"`
	ConvertedPath string `json:"converted_path"`
	Success       bool   `json:"success"`
	ErrorMessage  string `json:"error_message"`
}

// FileConverter is the single-file entry point both orchestrators implement.
type FileConverter interface {
	ConvertFile(path, targetFormat string, deleteOriginal bool, progress ProgressFunc, status StatusFunc) Result
}

// BatchConverter is the whole-batch entry point both orchestrators implement.
type BatchConverter interface {
	ConvertBatch(paths []string, targetFormat string, deleteOriginal bool, status StatusFunc) []Result
}

// convertBatch runs every path through conv sequentially, scoping progress
// and status per file. A failed file never stops the files after it.
func convertBatch(conv FileConverter, sink ProgressSink, paths []string, targetFormat string, deleteOriginal bool, status StatusFunc) []Result {
	results := make([]Result, 0, len(paths))
	total := len(paths)
	for idx, path := range paths {
		fileProgress := NewFileProgress(sink, idx, total)
		results = append(results, conv.ConvertFile(
			path, targetFormat, deleteOriginal,
			fileProgress.Report, prefixStatus(status, idx, total),
		))
	}
	return results
}

// prefixStatus scopes a batch status callback to one file.
func prefixStatus(status StatusFunc, idx, total int) StatusFunc {
	if status == nil {
		return nil
	}
	return func(msg string) {
		status(fmt.Sprintf("File %d/%d: %s", idx+1, total, msg))
	}
}

// targetPath replaces a path's suffix with the target format's extension.
func targetPath(path, targetFormat string) string {
	ext := filepath.Ext(path)
	return path[:len(path)-len(ext)] + "." + strings.ToLower(targetFormat)
}

// finishConversion decides the outcome of a conversion that raised no error:
// success means the computed output path exists on disk, not that the
// packing step returned cleanly. On confirmed success the original file is
// removed when requested.
func finishConversion(result *Result, deleteOriginal bool, logger util.Logger) {
	if _, err := os.Stat(result.ConvertedPath); err != nil {
		result.ErrorMessage = fmt.Sprintf("conversion failed: %s was not created", result.ConvertedPath)
		logger.Error(result.ErrorMessage)
		return
	}

	result.Success = true
	logger.Info(fmt.Sprintf("Converted %s to %s", result.OriginalPath, result.ConvertedPath))

	if deleteOriginal {
		// Retried deletion: originals often live on network mounts.
		if err := util.DeleteFileWithRetry(result.OriginalPath, 3, logger); err != nil {
			// The output exists, so the conversion itself stands; the
			// message names the delete so the two stay distinguishable.
			result.ErrorMessage = fmt.Sprintf("converted, but failed to delete original: %v", err)
			logger.Error(result.ErrorMessage)
			return
		}
		logger.Info(fmt.Sprintf("Deleted original file: %s", result.OriginalPath))
	}
}

// archiveRoute binds a source archive format to its extraction and packing
// primitives.
type archiveRoute struct {
	extract      func(string, string, ProgressFunc) error
	create       func(string, string, ProgressFunc, int, int) error
	targetFormat Format
}

var archiveRoutes = map[Format]archiveRoute{
	FormatCBR: {extract: ExtractRar, create: CreateZip, targetFormat: FormatCBZ},
	FormatCBZ: {extract: ExtractZip, create: CreateRar, targetFormat: FormatCBR},
}

// ArchiveConverter orchestrates CBR <-> CBZ conversions.
type ArchiveConverter struct {
	logger util.Logger
	sink   ProgressSink
}

// NewArchiveConverter creates an ArchiveConverter reporting batch progress
// to sink. Either argument may be nil.
func NewArchiveConverter(sink ProgressSink, logger util.Logger) *ArchiveConverter {
	if logger == nil {
		logger = &util.NoopLogger{}
	}
	return &ArchiveConverter{logger: logger, sink: sink}
}

// ConvertBatch converts a batch of comic archives to the target format,
// returning one Result per input path in input order.
func (c *ArchiveConverter) ConvertBatch(paths []string, targetFormat string, deleteOriginal bool, status StatusFunc) []Result {
	return convertBatch(c, c.sink, paths, targetFormat, deleteOriginal, status)
}

// ConvertFile converts a single comic archive to the target format ("cbz"
// or "cbr"). Every failure is captured in the Result; nothing escapes.
func (c *ArchiveConverter) ConvertFile(path, targetFormat string, deleteOriginal bool, progress ProgressFunc, status StatusFunc) Result {
	target := strings.ToLower(targetFormat)
	result := Result{
		OriginalPath:  path,
		ConvertedPath: targetPath(path, target),
	}

	sourceFormat := DetectFormat(path)

	var err error
	switch {
	case target == "cbz" && sourceFormat == FormatCBR,
		target == "cbr" && sourceFormat == FormatCBZ:
		if status != nil {
			status(fmt.Sprintf("Processing %s...", filepath.Base(path)))
		}
		err = c.convertArchive(path, sourceFormat, result.ConvertedPath, progress, status)
	default:
		err = ErrUnsupportedConversion
	}

	if err != nil {
		result.ErrorMessage = err.Error()
		c.logger.Error(fmt.Sprintf("Failed to convert %s: %v", path, err))
		return result
	}

	finishConversion(&result, deleteOriginal, c.logger)
	return result
}

// convertArchive runs the extract/pack pipeline for one archive through a
// scoped temporary directory. Extraction occupies the 10-60 sub-range of the
// job, packing 60-90; the final 100 is reported after cleanup.
func (c *ArchiveConverter) convertArchive(sourcePath string, sourceFormat Format, outputPath string, progress ProgressFunc, status StatusFunc) error {
	route := archiveRoutes[sourceFormat]
	c.logger.Info(fmt.Sprintf("Starting %s to %s conversion: %s", sourceFormat, route.targetFormat, sourcePath))

	if _, err := os.Stat(sourcePath); err != nil {
		return fmt.Errorf("source %s file not found: %s", sourceFormat, sourcePath)
	}
	if DetectFormat(sourcePath) != sourceFormat {
		return fmt.Errorf("file is not a valid %s archive: %s", sourceFormat, sourcePath)
	}

	const (
		extractStart = 10
		extractEnd   = 60
		createStart  = 60
		createEnd    = 90
	)

	tempDir, err := os.MkdirTemp("", "comic-convert-")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	if status != nil {
		status(fmt.Sprintf("Extracting %s archive...", sourceFormat))
	}
	if progress != nil {
		progress(extractStart, 100)
	}
	if err := route.extract(sourcePath, tempDir, progress); err != nil {
		return fmt.Errorf("failed to convert %s to %s: %w", sourceFormat, route.targetFormat, err)
	}
	if progress != nil {
		progress(extractEnd, 100)
	}

	if status != nil {
		status("Converting format...")
		status(fmt.Sprintf("Packing into %s archive...", route.targetFormat))
	}
	if err := route.create(tempDir, outputPath, progress, createStart, createEnd); err != nil {
		return fmt.Errorf("failed to convert %s to %s: %w", sourceFormat, route.targetFormat, err)
	}

	if status != nil {
		status("Cleaning up temporary files...")
	}
	os.RemoveAll(tempDir)
	if progress != nil {
		progress(100, 100)
	}

	c.logger.Info(fmt.Sprintf("%s to %s conversion complete: %s", sourceFormat, route.targetFormat, outputPath))
	return nil
}
