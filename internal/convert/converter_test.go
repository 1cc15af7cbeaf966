package convert

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"comic-tool/internal/util"
)

func TestTargetPath(t *testing.T) {
	cases := []struct {
		path, target, want string
	}{
		{"/comics/book.cbr", "cbz", "/comics/book.cbz"},
		{"/comics/book.cbz", "cbr", "/comics/book.cbr"},
		{"/comics/book.pdf", "cbz", "/comics/book.cbz"},
		{"/comics/book.cbz", "PDF", "/comics/book.pdf"},
		{"/comics/book.v2.cbz", "pdf", "/comics/book.v2.pdf"},
	}

	for _, tc := range cases {
		if got := targetPath(tc.path, tc.target); got != tc.want {
			t.Errorf("targetPath(%q, %q) = %q, want %q", tc.path, tc.target, got, tc.want)
		}
	}
}

func TestArchiveConverterUnsupportedPair(t *testing.T) {
	dir := t.TempDir()

	// A CBZ asked to become a CBZ is not a supported pair.
	path := filepath.Join(dir, "book.cbz")
	writeTestCBZ(t, path, map[string][]byte{"page001.png": pngBytes(t)})

	conv := NewArchiveConverter(nil, nil)
	result := conv.ConvertFile(path, "cbz", false, nil, nil)

	if result.Success {
		t.Error("expected failure for unsupported pair")
	}
	if result.ErrorMessage != ErrUnsupportedConversion.Error() {
		t.Errorf("ErrorMessage = %q, want %q", result.ErrorMessage, ErrUnsupportedConversion.Error())
	}
	if result.ConvertedPath != path {
		t.Errorf("ConvertedPath = %q, want %q", result.ConvertedPath, path)
	}
}

func TestArchiveConverterMissingFile(t *testing.T) {
	dir := t.TempDir()

	conv := NewArchiveConverter(nil, nil)
	result := conv.ConvertFile(filepath.Join(dir, "missing.cbr"), "cbz", false, nil, nil)

	if result.Success {
		t.Error("expected failure for missing file")
	}
	if result.ErrorMessage == "" {
		t.Error("expected an error message")
	}
}

func TestArchiveConverterMislabeledArchive(t *testing.T) {
	dir := t.TempDir()

	// A .cbr extension on ZIP content is detected as CBZ, so converting it
	// to CBZ is rejected as unsupported rather than re-packed onto itself.
	path := filepath.Join(dir, "book.cbr")
	writeTestCBZ(t, path, map[string][]byte{"page001.png": pngBytes(t)})

	conv := NewArchiveConverter(nil, nil)
	result := conv.ConvertFile(path, "cbz", false, nil, nil)

	if result.Success {
		t.Error("expected failure for mislabeled archive")
	}
	if result.ErrorMessage != ErrUnsupportedConversion.Error() {
		t.Errorf("ErrorMessage = %q, want %q", result.ErrorMessage, ErrUnsupportedConversion.Error())
	}
}

func TestArchiveConverterCBZToCBRToolMissing(t *testing.T) {
	if _, err := exec.LookPath("rar"); err == nil {
		t.Skip("rar tool installed, cannot exercise the missing-tool path")
	}

	dir := t.TempDir()

	path := filepath.Join(dir, "book.cbz")
	writeTestCBZ(t, path, map[string][]byte{"page001.png": pngBytes(t)})

	conv := NewArchiveConverter(nil, nil)
	result := conv.ConvertFile(path, "cbr", false, nil, nil)

	if result.Success {
		t.Error("expected failure without the rar tool")
	}
	if !strings.Contains(result.ErrorMessage, ErrRarToolMissing.Error()) {
		t.Errorf("ErrorMessage = %q, want rar tool failure", result.ErrorMessage)
	}
	if _, err := os.Stat(path); err != nil {
		t.Error("original must survive a failed conversion")
	}
}

func TestArchiveConverterCBZToCBR(t *testing.T) {
	if _, err := exec.LookPath("rar"); err != nil {
		t.Skip("rar tool not installed")
	}

	dir := t.TempDir()
	page := pngBytes(t)

	path := filepath.Join(dir, "book.cbz")
	writeTestCBZ(t, path, map[string][]byte{
		"page001.png": page,
		"page002.png": page,
	})

	var statuses []string
	conv := NewArchiveConverter(nil, nil)
	result := conv.ConvertFile(path, "cbr", false, nil, func(msg string) {
		statuses = append(statuses, msg)
	})

	if !result.Success {
		t.Fatalf("conversion failed: %s", result.ErrorMessage)
	}
	if result.ConvertedPath != filepath.Join(dir, "book.cbr") {
		t.Errorf("ConvertedPath = %q", result.ConvertedPath)
	}
	if got := DetectFormat(result.ConvertedPath); got != FormatCBR {
		t.Errorf("output format = %v, want %v", got, FormatCBR)
	}

	report := Validate(result.ConvertedPath)
	if report.ImageCount != 2 {
		t.Errorf("output ImageCount = %d, want 2", report.ImageCount)
	}

	// Original stays without the delete flag.
	if _, err := os.Stat(path); err != nil {
		t.Error("original must survive when delete is not requested")
	}
	if len(statuses) == 0 {
		t.Error("expected status messages during conversion")
	}
}

func TestArchiveConverterCBRToCBZDeleteOriginal(t *testing.T) {
	if _, err := exec.LookPath("rar"); err != nil {
		t.Skip("rar tool not installed")
	}

	dir := t.TempDir()

	// Build a real CBR first.
	sourceDir := filepath.Join(dir, "src")
	if err := os.MkdirAll(sourceDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sourceDir, "page001.png"), pngBytes(t), 0644); err != nil {
		t.Fatal(err)
	}
	cbrPath := filepath.Join(dir, "book.cbr")
	if err := CreateRar(sourceDir, cbrPath, nil, 0, 100); err != nil {
		t.Fatalf("CreateRar: %v", err)
	}

	var progress [][2]int
	conv := NewArchiveConverter(nil, nil)
	result := conv.ConvertFile(cbrPath, "cbz", true, func(current, total int) {
		progress = append(progress, [2]int{current, total})
	}, nil)

	if !result.Success {
		t.Fatalf("conversion failed: %s", result.ErrorMessage)
	}
	if got := DetectFormat(result.ConvertedPath); got != FormatCBZ {
		t.Errorf("output format = %v, want %v", got, FormatCBZ)
	}
	if _, err := os.Stat(cbrPath); !os.IsNotExist(err) {
		t.Error("original must be deleted after confirmed success")
	}

	if len(progress) == 0 {
		t.Fatal("expected progress calls")
	}
	last := progress[len(progress)-1]
	if last != [2]int{100, 100} {
		t.Errorf("final progress = %v, want [100 100]", last)
	}
}

func TestConvertBatchContinuesPastFailures(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.cbz")
	writeTestCBZ(t, good, map[string][]byte{"page001.png": pngBytes(t)})
	missing := filepath.Join(dir, "missing.cbr")

	var statuses []string
	conv := NewArchiveConverter(nil, nil)
	// Both fail here (good.cbz to cbz is unsupported), the point is that
	// every path still yields a Result in order.
	results := conv.ConvertBatch([]string{missing, good}, "cbz", false, func(msg string) {
		statuses = append(statuses, msg)
	})

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].OriginalPath != missing || results[1].OriginalPath != good {
		t.Error("results must preserve input order")
	}
	for _, r := range results {
		if r.Success {
			t.Errorf("expected failure for %s", r.OriginalPath)
		}
		if r.ErrorMessage == "" {
			t.Errorf("expected error message for %s", r.OriginalPath)
		}
	}
}

func TestFinishConversionOutputMissing(t *testing.T) {
	dir := t.TempDir()

	result := Result{
		OriginalPath:  filepath.Join(dir, "book.cbr"),
		ConvertedPath: filepath.Join(dir, "book.cbz"),
	}
	finishConversion(&result, false, &util.NoopLogger{})

	if result.Success {
		t.Error("success requires the output to exist on disk")
	}
	if !strings.Contains(result.ErrorMessage, "was not created") {
		t.Errorf("ErrorMessage = %q, want output-not-created", result.ErrorMessage)
	}
}

func TestFinishConversionDeleteFailureKeepsSuccess(t *testing.T) {
	dir := t.TempDir()

	converted := filepath.Join(dir, "book.cbz")
	if err := os.WriteFile(converted, []byte("zip"), 0644); err != nil {
		t.Fatal(err)
	}

	result := Result{
		OriginalPath:  filepath.Join(dir, "gone.cbr"), // never existed
		ConvertedPath: converted,
	}
	finishConversion(&result, true, &util.NoopLogger{})

	if !result.Success {
		t.Error("delete failure must not undo a confirmed conversion")
	}
	if !strings.Contains(result.ErrorMessage, "failed to delete original") {
		t.Errorf("ErrorMessage = %q, want delete failure note", result.ErrorMessage)
	}
}

func TestErrorSentinels(t *testing.T) {
	wrapped := fmt.Errorf("failed to convert CBZ to PDF: %w in CBZ archive", ErrNoImages)
	if !errors.Is(wrapped, ErrNoImages) {
		t.Error("wrapped sentinel must survive errors.Is")
	}
	if !strings.Contains(ErrNoImages.Error(), "no images found") {
		t.Errorf("ErrNoImages text = %q", ErrNoImages.Error())
	}
}
