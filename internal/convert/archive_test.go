package convert

import (
	"archive/zip"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func TestExtractZip(t *testing.T) {
	dir := t.TempDir()
	page := pngBytes(t)

	zipPath := filepath.Join(dir, "book.cbz")
	writeTestCBZ(t, zipPath, map[string][]byte{
		"page001.png":          page,
		"chapter2/page002.png": page,
	})

	destDir := filepath.Join(dir, "out")
	var calls [][2]int
	err := ExtractZip(zipPath, destDir, func(current, total int) {
		calls = append(calls, [2]int{current, total})
	})
	if err != nil {
		t.Fatalf("ExtractZip: %v", err)
	}

	for _, rel := range []string{"page001.png", filepath.Join("chapter2", "page002.png")} {
		if _, err := os.Stat(filepath.Join(destDir, rel)); err != nil {
			t.Errorf("missing extracted file %s: %v", rel, err)
		}
	}

	if len(calls) != 2 {
		t.Fatalf("got %d progress calls, want 2", len(calls))
	}
	if calls[0] != [2]int{1, 2} || calls[1] != [2]int{2, 2} {
		t.Errorf("progress calls = %v, want raw entry counts", calls)
	}
}

func TestExtractZipInvalidArchive(t *testing.T) {
	dir := t.TempDir()

	badPath := filepath.Join(dir, "bad.cbz")
	if err := os.WriteFile(badPath, []byte("not a zip"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := ExtractZip(badPath, filepath.Join(dir, "out"), nil); err == nil {
		t.Error("expected error for invalid archive")
	}
}

func TestCreateZip(t *testing.T) {
	dir := t.TempDir()
	page := pngBytes(t)

	sourceDir := filepath.Join(dir, "src")
	if err := os.MkdirAll(filepath.Join(sourceDir, "chapter2"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sourceDir, "page001.png"), page, 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sourceDir, "chapter2", "page002.png"), page, 0644); err != nil {
		t.Fatal(err)
	}

	zipPath := filepath.Join(dir, "out.cbz")
	var calls [][2]int
	err := CreateZip(sourceDir, zipPath, func(current, total int) {
		calls = append(calls, [2]int{current, total})
	}, 60, 90)
	if err != nil {
		t.Fatalf("CreateZip: %v", err)
	}

	r, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatalf("created archive is not a zip: %v", err)
	}
	defer r.Close()

	names := make(map[string]bool)
	for _, f := range r.File {
		names[f.Name] = true
	}
	if !names["page001.png"] || !names["chapter2/page002.png"] {
		t.Errorf("archive entries = %v, want relative slash paths", names)
	}

	// Interpolated across [60, 90] over two files.
	if len(calls) != 2 {
		t.Fatalf("got %d progress calls, want 2", len(calls))
	}
	if calls[0] != [2]int{75, 100} || calls[1] != [2]int{90, 100} {
		t.Errorf("progress calls = %v, want interpolated percentages", calls)
	}
}

func TestCreateZipMissingSource(t *testing.T) {
	dir := t.TempDir()

	err := CreateZip(filepath.Join(dir, "nope"), filepath.Join(dir, "out.cbz"), nil, 60, 90)
	if err == nil {
		t.Error("expected error for missing source directory")
	}
}

func TestCreateRarMissingSource(t *testing.T) {
	dir := t.TempDir()

	err := CreateRar(filepath.Join(dir, "nope"), filepath.Join(dir, "out.cbr"), nil, 60, 90)
	if err == nil {
		t.Error("expected error for missing source directory")
	}
}

func TestCreateRarToolMissing(t *testing.T) {
	if _, err := exec.LookPath("rar"); err == nil {
		t.Skip("rar tool installed, cannot exercise the missing-tool path")
	}

	dir := t.TempDir()
	sourceDir := filepath.Join(dir, "src")
	if err := os.MkdirAll(sourceDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sourceDir, "page001.png"), pngBytes(t), 0644); err != nil {
		t.Fatal(err)
	}

	err := CreateRar(sourceDir, filepath.Join(dir, "out.cbr"), nil, 60, 90)
	if !errors.Is(err, ErrRarToolMissing) {
		t.Errorf("err = %v, want ErrRarToolMissing", err)
	}
}

func TestCreateRarRoundTrip(t *testing.T) {
	if _, err := exec.LookPath("rar"); err != nil {
		t.Skip("rar tool not installed")
	}

	dir := t.TempDir()
	page := pngBytes(t)

	sourceDir := filepath.Join(dir, "src")
	if err := os.MkdirAll(sourceDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sourceDir, "page001.png"), page, 0644); err != nil {
		t.Fatal(err)
	}

	rarPath := filepath.Join(dir, "out.cbr")
	if err := CreateRar(sourceDir, rarPath, nil, 60, 90); err != nil {
		t.Fatalf("CreateRar: %v", err)
	}

	if got := DetectFormat(rarPath); got != FormatCBR {
		t.Fatalf("DetectFormat = %v, want %v", got, FormatCBR)
	}

	destDir := filepath.Join(dir, "out")
	var calls [][2]int
	err := ExtractRar(rarPath, destDir, func(current, total int) {
		calls = append(calls, [2]int{current, total})
	})
	if err != nil {
		t.Fatalf("ExtractRar: %v", err)
	}

	if _, err := os.Stat(filepath.Join(destDir, "page001.png")); err != nil {
		t.Errorf("missing extracted file: %v", err)
	}
	if len(calls) != 1 || calls[0] != [2]int{1, 1} {
		t.Errorf("progress calls = %v, want [[1 1]]", calls)
	}
}

func TestInterpolate(t *testing.T) {
	cases := []struct {
		start, end, done, total, want int
	}{
		{10, 60, 0, 10, 10},
		{10, 60, 5, 10, 35},
		{10, 60, 10, 10, 60},
		{60, 90, 1, 2, 75},
		{10, 60, 3, 0, 10},
	}

	for _, tc := range cases {
		if got := interpolate(tc.start, tc.end, tc.done, tc.total); got != tc.want {
			t.Errorf("interpolate(%d, %d, %d, %d) = %d, want %d",
				tc.start, tc.end, tc.done, tc.total, got, tc.want)
		}
	}
}
