package printer

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/mzyy94/qlabel/internal/raster"
)

// PrintImage scales the image onto the configured media and prints it in
// black and white. Pixels at or below the threshold print black.
func (p *Printer) PrintImage(img image.Image, threshold byte) error {
	cfg := p.Config()
	if cfg.TwoColor {
		return fmt.Errorf("%w: two-color configuration needs PrintImageTwoColor", raster.ErrInvalidConfig)
	}
	canvas, err := composeCanvas(img, cfg.Model.Pins(), cfg.Media.Spec())
	if err != nil {
		return err
	}
	b := canvas.Bounds()
	page, err := raster.PackGrayscale(threshold, b.Dx(), b.Dy(), grayPixels(canvas))
	if err != nil {
		return err
	}
	return p.Print([]raster.Page{page})
}

// PrintImageTwoColor scales the image onto the configured media and prints
// it with separated black and red planes. The configuration must have
// two-color enabled.
func (p *Printer) PrintImageTwoColor(img image.Image) error {
	cfg := p.Config()
	if !cfg.TwoColor {
		return fmt.Errorf("%w: configuration is not set for two-color printing", raster.ErrInvalidConfig)
	}
	canvas, err := composeCanvas(img, cfg.Model.Pins(), cfg.Media.Spec())
	if err != nil {
		return err
	}
	b := canvas.Bounds()
	page, err := raster.PackRGBTwoColor(b.Dx(), b.Dy(), rgbPixels(canvas))
	if err != nil {
		return err
	}
	return p.Print([]raster.Page{page})
}

// composeCanvas renders src onto a white head-width canvas: scaled to the
// media's printable width, centered over the printable area. Die-cut
// labels have a fixed length, so the image is scaled to fit inside the
// label and centered both ways. Catalog pin offsets are relative to the
// 720-pin head; narrow tape sits at the same reference edge on wide heads.
func composeCanvas(src image.Image, pins int, spec raster.MediaSpec) (*image.RGBA, error) {
	sb := src.Bounds()
	if sb.Dx() <= 0 || sb.Dy() <= 0 {
		return nil, fmt.Errorf("image is empty (%dx%d)", sb.Dx(), sb.Dy())
	}
	eff := spec.PinsEffective()
	if eff <= 0 {
		return nil, fmt.Errorf("media geometry unknown")
	}

	w := eff
	h := (sb.Dy()*eff + sb.Dx()/2) / sb.Dx()
	if h < 1 {
		h = 1
	}
	canvasH := h
	if spec.LengthDots > 0 {
		canvasH = spec.LengthDots
		if h > canvasH {
			w = (sb.Dx()*canvasH + sb.Dy()/2) / sb.Dy()
			if w < 1 {
				w = 1
			}
			h = canvasH
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, pins, canvasH))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)

	left := spec.PinsLeft() + (eff-w)/2
	top := (canvasH - h) / 2
	draw.CatmullRom.Scale(dst, image.Rect(left, top, left+w, top+h), src, sb, draw.Over, nil)
	return dst, nil
}

// grayPixels flattens the canvas to one luminance byte per pixel.
func grayPixels(canvas *image.RGBA) []byte {
	b := canvas.Bounds()
	g := image.NewGray(b)
	draw.Draw(g, b, canvas, b.Min, draw.Src)
	return g.Pix
}

// rgbPixels flattens the canvas to interleaved RGB bytes.
func rgbPixels(canvas *image.RGBA) []byte {
	b := canvas.Bounds()
	out := make([]byte, b.Dx()*b.Dy()*3)
	i := 0
	for y := 0; y < b.Dy(); y++ {
		row := canvas.Pix[y*canvas.Stride : y*canvas.Stride+b.Dx()*4]
		for x := 0; x < b.Dx(); x++ {
			out[i] = row[x*4]
			out[i+1] = row[x*4+1]
			out[i+2] = row[x*4+2]
			i += 3
		}
	}
	return out
}
