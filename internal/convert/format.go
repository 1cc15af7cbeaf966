package convert

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/nwaples/rardecode"
)

// Format identifies a comic container format.
type Format string

const (
	FormatCBZ     Format = "CBZ"
	FormatCBR     Format = "CBR"
	FormatPDF     Format = "PDF"
	FormatUnknown Format = "UNKNOWN"
)

// imageExtensions is the set of entry suffixes counted as page images.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tiff": true,
	".webp": true,
}

// IsImageEntry checks whether an archive entry name counts as a page image.
func IsImageEntry(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

// DetectFormat classifies a file as CBZ, CBR, PDF or Unknown. The .pdf
// suffix wins unconditionally; ZIP and RAR are detected structurally by
// parsing the container header. Detection never fails: any I/O or parse
// error yields FormatUnknown.
func DetectFormat(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return FormatPDF
	}
	if isZipArchive(path) {
		return FormatCBZ
	}
	if isRarArchive(path) {
		return FormatCBR
	}
	return FormatUnknown
}

func isZipArchive(path string) bool {
	r, err := zip.OpenReader(path)
	if err != nil {
		return false
	}
	r.Close()
	return true
}

func isRarArchive(path string) bool {
	r, err := rardecode.OpenReader(path, "")
	if err != nil {
		return false
	}
	r.Close()
	return true
}

// ValidationReport describes the contents of a comic file.
type ValidationReport struct {
	IsValid     bool     `json:"is_valid"`
	Format      Format   `json:"format"`
	ImageCount  int      `json:"image_count"`
	HasMetadata bool     `json:"has_metadata"`
	HasFolders  bool     `json:"has_folders"`
	ImageFiles  []string `json:"image_files"`
	TotalSize   int64    `json:"total_size"`
}

// Validate inspects a comic file and reports its image count, metadata and
// structure. A file that cannot be parsed as its detected format yields an
// invalid report still tagged with that format; only detection failure
// itself yields FormatUnknown.
func Validate(path string) ValidationReport {
	report := ValidationReport{Format: FormatUnknown}

	format := DetectFormat(path)
	if format == FormatUnknown {
		return report
	}
	report.Format = format

	switch format {
	case FormatCBZ:
		validateZip(path, &report)
	case FormatCBR:
		validateRar(path, &report)
	case FormatPDF:
		validatePDF(path, &report)
	}

	report.IsValid = report.ImageCount > 0
	return report
}

// classifyEntry records one archive entry in the report. Size is best-effort:
// callers pass a negative size when the lookup failed and it is skipped.
func classifyEntry(report *ValidationReport, name string, size int64) {
	slashName := filepath.ToSlash(name)
	if strings.EqualFold(filepath.Base(slashName), "comicinfo.xml") {
		report.HasMetadata = true
	}
	if strings.Contains(strings.Trim(slashName, "/"), "/") {
		report.HasFolders = true
	}
	if IsImageEntry(slashName) {
		report.ImageCount++
		report.ImageFiles = append(report.ImageFiles, name)
		if size >= 0 {
			report.TotalSize += size
		}
	}
}

func validateZip(path string, report *ValidationReport) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		classifyEntry(report, f.Name, int64(f.UncompressedSize64))
	}
}

func validateRar(path string, report *ValidationReport) {
	r, err := rardecode.OpenReader(path, "")
	if err != nil {
		return
	}
	defer r.Close()

	for {
		hdr, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return
		}
		if hdr.IsDir {
			continue
		}
		classifyEntry(report, hdr.Name, hdr.UnPackedSize)
	}
}

func validatePDF(path string, report *ValidationReport) {
	doc, err := fitz.New(path)
	if err != nil {
		return
	}
	defer doc.Close()

	report.ImageCount = doc.NumPage()
	if info, err := os.Stat(path); err == nil {
		report.TotalSize = info.Size()
	}
}
