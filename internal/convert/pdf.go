package convert

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	// Registers WEBP decoding for archives carrying .webp pages. BMP and
	// TIFF decoders come in with imaging.
	_ "golang.org/x/image/webp"
)

// RasterizePDF renders every page of the PDF at pdfPath into destDir as
// page_NNN.png (1-based, zero-padded so lexical order is page order),
// reporting progress interpolated between startPct and endPct over pages.
// It returns the number of pages rendered.
func RasterizePDF(pdfPath, destDir string, progress ProgressFunc, startPct, endPct int) (int, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF %s: %w", filepath.Base(pdfPath), err)
	}
	defer doc.Close()

	total := doc.NumPage()
	for i := 0; i < total; i++ {
		img, err := doc.Image(i)
		if err != nil {
			return i, fmt.Errorf("failed to render page %d of %s: %w", i+1, filepath.Base(pdfPath), err)
		}

		pagePath := filepath.Join(destDir, fmt.Sprintf("page_%03d.png", i+1))
		if err := writePNG(pagePath, img); err != nil {
			return i, fmt.Errorf("failed to write page %d of %s: %w", i+1, filepath.Base(pdfPath), err)
		}

		if progress != nil && total > 0 {
			progress(interpolate(startPct, endPct, i+1, total), 100)
		}
	}
	return total, nil
}

func writePNG(path string, img image.Image) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// ComposePDF decodes the given image files, normalizes each to a 3-channel
// RGB representation, and writes a single multi-page PDF at outputPath
// preserving input order. Images that fail to decode are skipped; if none
// decode the composition fails and no PDF is produced.
func ComposePDF(imagePaths []string, outputPath string) error {
	tempDir, err := os.MkdirTemp("", "comic-compose-")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	var pages []string
	for i, imagePath := range imagePaths {
		img, err := imaging.Open(imagePath)
		if err != nil {
			continue
		}

		// JPEG encoding flattens everything to 3-channel YCbCr, which is
		// the common representation the composed PDF embeds.
		pagePath := filepath.Join(tempDir, fmt.Sprintf("page_%03d.jpg", i+1))
		if err := imaging.Save(img, pagePath, imaging.JPEGQuality(95)); err != nil {
			return fmt.Errorf("failed to normalize image %s: %w", filepath.Base(imagePath), err)
		}
		pages = append(pages, pagePath)
	}

	if len(pages) == 0 {
		return fmt.Errorf("%w: no valid images to convert to PDF", ErrNoImages)
	}

	if err := api.ImportImagesFile(pages, outputPath, nil, nil); err != nil {
		return fmt.Errorf("failed to create PDF: %w", err)
	}
	return nil
}
