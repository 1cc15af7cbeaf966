package convert

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"comic-tool/internal/util"
)

// PDFConverter orchestrates PDF <-> CBZ conversions.
type PDFConverter struct {
	logger util.Logger
	sink   ProgressSink
}

// NewPDFConverter creates a PDFConverter reporting batch progress to sink.
// Either argument may be nil.
func NewPDFConverter(sink ProgressSink, logger util.Logger) *PDFConverter {
	if logger == nil {
		logger = &util.NoopLogger{}
	}
	return &PDFConverter{logger: logger, sink: sink}
}

// ConvertBatch converts a batch of files to the target format, returning one
// Result per input path in input order.
func (c *PDFConverter) ConvertBatch(paths []string, targetFormat string, deleteOriginal bool, status StatusFunc) []Result {
	return convertBatch(c, c.sink, paths, targetFormat, deleteOriginal, status)
}

// ConvertFile converts a single file between PDF and CBZ. Every failure is
// captured in the Result; nothing escapes.
func (c *PDFConverter) ConvertFile(path, targetFormat string, deleteOriginal bool, progress ProgressFunc, status StatusFunc) Result {
	target := strings.ToLower(targetFormat)
	result := Result{
		OriginalPath:  path,
		ConvertedPath: targetPath(path, target),
	}

	sourceFormat := DetectFormat(path)

	var err error
	switch {
	case target == "cbz" && sourceFormat == FormatPDF:
		if status != nil {
			status("Initializing PDF converter...")
		}
		err = c.convertPDFToCBZ(path, result.ConvertedPath, progress, status)
	case target == "pdf" && sourceFormat == FormatCBZ:
		if status != nil {
			status("Initializing PDF converter...")
		}
		err = c.convertCBZToPDF(path, result.ConvertedPath, progress, status)
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

// convertPDFToCBZ rasterizes every page into a scoped temporary directory
// and packs the pages into a CBZ. Rasterization occupies the 10-80
// sub-range of the job, packing 90-100.
func (c *PDFConverter) convertPDFToCBZ(pdfPath, outputPath string, progress ProgressFunc, status StatusFunc) error {
	c.logger.Info(fmt.Sprintf("Starting PDF to CBZ conversion: %s", pdfPath))

	if _, err := os.Stat(pdfPath); err != nil {
		return fmt.Errorf("source PDF file not found: %s", pdfPath)
	}
	if DetectFormat(pdfPath) != FormatPDF {
		return fmt.Errorf("file is not a valid PDF: %s", pdfPath)
	}

	const (
		extractStart = 10
		extractEnd   = 80
		createStart  = 90
		createEnd    = 100
	)

	tempDir, err := os.MkdirTemp("", "comic-convert-")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	if status != nil {
		status(fmt.Sprintf("Processing %s...", filepath.Base(pdfPath)))
	}
	if progress != nil {
		progress(extractStart, 100)
	}
	if status != nil {
		status("Extracting PDF pages...")
	}

	pages, err := RasterizePDF(pdfPath, tempDir, progress, extractStart, extractEnd)
	if err != nil {
		return fmt.Errorf("failed to convert PDF to CBZ: %w", err)
	}
	if pages == 0 {
		return fmt.Errorf("failed to convert PDF to CBZ: %w: PDF has no pages", ErrNoImages)
	}

	if progress != nil {
		progress(createStart, 100)
	}
	if status != nil {
		status("Packing into CBZ archive...")
	}
	if err := CreateZip(tempDir, outputPath, progress, createStart, createEnd); err != nil {
		return fmt.Errorf("failed to convert PDF to CBZ: %w", err)
	}

	if status != nil {
		status("Cleaning up temporary files...")
	}
	os.RemoveAll(tempDir)
	if progress != nil {
		progress(createEnd, 100)
	}

	c.logger.Info(fmt.Sprintf("PDF to CBZ conversion complete: %s", outputPath))
	return nil
}

// convertCBZToPDF extracts the archive's image entries into a scoped
// temporary directory, then composes them into a single PDF. Extraction
// occupies the 10-80 sub-range of the job, composition 90-100.
func (c *PDFConverter) convertCBZToPDF(cbzPath, outputPath string, progress ProgressFunc, status StatusFunc) error {
	c.logger.Info(fmt.Sprintf("Starting CBZ to PDF conversion: %s", cbzPath))

	if _, err := os.Stat(cbzPath); err != nil {
		return fmt.Errorf("source CBZ file not found: %s", cbzPath)
	}
	if DetectFormat(cbzPath) != FormatCBZ {
		return fmt.Errorf("file is not a valid CBZ archive: %s", cbzPath)
	}

	const (
		extractStart = 10
		extractEnd   = 80
		createStart  = 90
		createEnd    = 100
	)

	tempDir, err := os.MkdirTemp("", "comic-convert-")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	if status != nil {
		status(fmt.Sprintf("Processing %s...", filepath.Base(cbzPath)))
	}

	imagePaths, err := c.extractImageEntries(cbzPath, tempDir, progress, extractStart, extractEnd, status)
	if err != nil {
		return fmt.Errorf("failed to convert CBZ to PDF: %w", err)
	}

	if status != nil {
		status("Converting images to PDF...")
	}
	if err := ComposePDF(imagePaths, outputPath); err != nil {
		return fmt.Errorf("failed to convert CBZ to PDF: %w", err)
	}
	if progress != nil {
		progress(createStart, 100)
	}

	if status != nil {
		status("Cleaning up temporary files...")
	}
	os.RemoveAll(tempDir)
	if progress != nil {
		progress(createEnd, 100)
	}

	c.logger.Info(fmt.Sprintf("CBZ to PDF conversion complete: %s", outputPath))
	return nil
}

// extractImageEntries pulls the archive's image entries into destDir in
// name order. Entry names are flattened to their base name; the zero-padded
// page naming convention keeps the order stable.
func (c *PDFConverter) extractImageEntries(cbzPath, destDir string, progress ProgressFunc, startPct, endPct int, status StatusFunc) ([]string, error) {
	r, err := zip.OpenReader(cbzPath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var imageEntries []string
	for _, f := range r.File {
		if !f.FileInfo().IsDir() && IsImageEntry(f.Name) {
			imageEntries = append(imageEntries, f.Name)
		}
	}
	sort.Strings(imageEntries)

	if len(imageEntries) == 0 {
		return nil, fmt.Errorf("%w in CBZ archive", ErrNoImages)
	}

	if status != nil {
		status("Extracting images from CBZ...")
	}

	byName := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		byName[f.Name] = f
	}

	extracted := make([]string, 0, len(imageEntries))
	for i, name := range imageEntries {
		destPath := filepath.Join(destDir, filepath.Base(filepath.FromSlash(name)))
		if err := copyZipEntry(byName[name], destPath); err != nil {
			return nil, err
		}
		extracted = append(extracted, destPath)
		if progress != nil {
			progress(interpolate(startPct, endPct, i+1, len(imageEntries)), 100)
		}
	}
	return extracted, nil
}

func copyZipEntry(f *zip.File, destPath string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
