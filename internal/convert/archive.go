package convert

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nwaples/rardecode"
)

// ProgressFunc receives incremental progress as a (current, total) pair.
// Extraction reports raw entry counts; packing reports percentages
// interpolated into the job's reserved sub-range.
type ProgressFunc func(current, total int)

// ExtractZip extracts a ZIP archive into destDir preserving relative entry
// paths, reporting progress after every entry.
func ExtractZip(zipPath, destDir string, progress ProgressFunc) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("failed to extract ZIP archive %s: %w", filepath.Base(zipPath), err)
	}
	defer r.Close()

	total := len(r.File)
	for i, f := range r.File {
		if err := extractZipEntry(f, destDir); err != nil {
			return fmt.Errorf("failed to extract ZIP archive %s: %w", filepath.Base(zipPath), err)
		}
		if progress != nil && total > 0 {
			progress(i+1, total)
		}
	}
	return nil
}

func extractZipEntry(f *zip.File, destDir string) error {
	destPath := filepath.Join(destDir, filepath.FromSlash(f.Name))
	if f.FileInfo().IsDir() {
		return os.MkdirAll(destPath, 0755)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return err
	}

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

// ExtractRar extracts a RAR archive into destDir preserving relative entry
// paths, reporting progress after every entry. The archive is scanned once
// up front so the entry total is known before extraction starts.
func ExtractRar(rarPath, destDir string, progress ProgressFunc) error {
	total, err := countRarEntries(rarPath)
	if err != nil {
		return fmt.Errorf("failed to extract RAR archive %s: %w", filepath.Base(rarPath), err)
	}

	r, err := rardecode.OpenReader(rarPath, "")
	if err != nil {
		return fmt.Errorf("failed to extract RAR archive %s: %w", filepath.Base(rarPath), err)
	}
	defer r.Close()

	done := 0
	for {
		hdr, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to extract RAR archive %s: %w", filepath.Base(rarPath), err)
		}

		destPath := filepath.Join(destDir, filepath.FromSlash(hdr.Name))
		if hdr.IsDir {
			if err := os.MkdirAll(destPath, 0755); err != nil {
				return fmt.Errorf("failed to extract RAR archive %s: %w", filepath.Base(rarPath), err)
			}
			continue
		}

		if err := writeRarEntry(destPath, r); err != nil {
			return fmt.Errorf("failed to extract RAR archive %s: %w", filepath.Base(rarPath), err)
		}

		done++
		if progress != nil && total > 0 {
			progress(done, total)
		}
	}
	return nil
}

func countRarEntries(rarPath string) (int, error) {
	r, err := rardecode.OpenReader(rarPath, "")
	if err != nil {
		return 0, err
	}
	defer r.Close()

	count := 0
	for {
		hdr, err := r.Next()
		if err == io.EOF {
			return count, nil
		}
		if err != nil {
			return 0, err
		}
		if !hdr.IsDir {
			count++
		}
	}
}

func writeRarEntry(destPath string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return err
	}
	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// CreateZip packs every regular file under sourceDir into a new ZIP archive
// at zipPath, storing entries with paths relative to sourceDir. Progress is
// interpolated between startPct and endPct over files written.
func CreateZip(sourceDir, zipPath string, progress ProgressFunc, startPct, endPct int) error {
	if !isDirectory(sourceDir) {
		return fmt.Errorf("source directory does not exist: %s", sourceDir)
	}

	files, err := listFiles(sourceDir)
	if err != nil {
		return fmt.Errorf("failed to create ZIP archive: %w", err)
	}

	out, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("failed to create ZIP archive: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	for i, filePath := range files {
		if err := addZipEntry(zw, sourceDir, filePath); err != nil {
			zw.Close()
			return fmt.Errorf("failed to create ZIP archive: %w", err)
		}
		if progress != nil && len(files) > 0 {
			progress(interpolate(startPct, endPct, i+1, len(files)), 100)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to create ZIP archive: %w", err)
	}
	return out.Sync()
}

func addZipEntry(zw *zip.Writer, sourceDir, filePath string) error {
	relPath, err := filepath.Rel(sourceDir, filePath)
	if err != nil {
		return err
	}

	w, err := zw.Create(filepath.ToSlash(relPath))
	if err != nil {
		return err
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	_, err = w.Write(content)
	return err
}

// CreateRar packs every regular file under sourceDir into a new RAR archive
// at rarPath by invoking the external rar tool. A missing tool is a distinct
// fatal condition since no library fallback exists.
func CreateRar(sourceDir, rarPath string, progress ProgressFunc, startPct, endPct int) error {
	if !isDirectory(sourceDir) {
		return fmt.Errorf("source directory does not exist: %s", sourceDir)
	}

	if _, err := exec.LookPath("rar"); err != nil {
		return ErrRarToolMissing
	}

	if progress != nil {
		progress(startPct, 100)
	}

	// -ep1 strips the source directory prefix so entries stay relative.
	// The tool expands the trailing wildcard itself.
	cmd := exec.Command("rar", "a", "-r", "-ep1", rarPath, filepath.Join(sourceDir, "*"))
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("rar creation failed: %s: %w", strings.TrimSpace(string(output)), err)
	}

	if progress != nil {
		progress(endPct, 100)
	}
	return nil
}

// listFiles returns every regular file under dir in a deterministic order.
func listFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func isDirectory(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// interpolate maps done/total onto the [startPct, endPct] range.
func interpolate(startPct, endPct, done, total int) int {
	if total <= 0 {
		return startPct
	}
	return startPct + int(float64(done)/float64(total)*float64(endPct-startPct))
}
