package printer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/mzyy94/qlabel/internal/raster"
)

// writeArchive renders the job's pages into a single timestamped PDF under
// dir and returns its path.
func writeArchive(dir string, cfg raster.Config, pages []raster.Page) (string, error) {
	data, err := renderPDF(cfg, pages)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create archive directory: %w", err)
	}
	timestamp := time.Now().Format("20060102-150405")
	path := filepath.Join(dir, fmt.Sprintf("label-%s.pdf", timestamp))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// renderPDF builds a PDF record of the job in memory, one PDF page per
// label, sized to the label's physical dimensions. The head prints 300dpi
// across; the feed direction is 600dpi in high-resolution mode.
func renderPDF(cfg raster.Config, pages []raster.Page) ([]byte, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("no pages to render")
	}
	rowBytes := cfg.Model.RowBytes()
	feedDPI := 300.0
	if cfg.HighResolution {
		feedDPI = 600.0
	}

	pdf := fpdf.New("P", "mm", "", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, p := range pages {
		img := pageImage(p, rowBytes)
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode page %d PNG: %w", i+1, err)
		}

		b := img.Bounds()
		widthMM := float64(b.Dx()) / 300.0 * 25.4
		heightMM := float64(b.Dy()) / feedDPI * 25.4

		pdf.AddPageFormat("P", fpdf.SizeType{Wd: widthMM, Ht: heightMM})
		name := fmt.Sprintf("page%d", i)
		pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, &buf)
		pdf.ImageOptions(name, 0, 0, widthMM, heightMM, false, fpdf.ImageOptions{}, 0, "")
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("generate PDF: %w", err)
	}
	return out.Bytes(), nil
}

// pageImage reconstructs the printed bitmap from packed raster rows,
// undoing the head's mirrored bit order. Black wins where the planes
// overlap.
func pageImage(page raster.Page, rowBytes int) *image.Paletted {
	width := rowBytes * 8
	palette := color.Palette{color.White, color.Black, color.RGBA{R: 0xFF, A: 0xFF}}
	img := image.NewPaletted(image.Rect(0, 0, width, page.Rows()), palette)

	for y, row := range page.Black {
		for x, b := range row {
			if b == 0 {
				continue
			}
			for i := 0; i < 8; i++ {
				if b&(1<<i) != 0 {
					img.SetColorIndex(width-(x+1)*8+i, y, 1)
				}
			}
		}
	}
	for y, row := range page.Red {
		for x, b := range row {
			if b == 0 {
				continue
			}
			for i := 0; i < 8; i++ {
				if b&(1<<i) != 0 {
					col := width - (x+1)*8 + i
					if img.ColorIndexAt(col, y) == 0 {
						img.SetColorIndex(col, y, 2)
					}
				}
			}
		}
	}
	return img
}
