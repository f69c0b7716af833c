package raster

import "fmt"

// PackGrayscale packs 8-bit grayscale pixels (row-major, one byte per
// pixel) into 1-bit raster rows. A bit is set when its pixel is at or below
// the threshold, so darker pixels print. The head scans mirrored: output
// byte x of a row covers source pixels (y+1)*width-(x+1)*8 .. +7, bit i
// taking pixel base+i, which makes the first output byte encode the last
// eight source pixels.
func PackGrayscale(threshold byte, width, height int, pixels []byte) (Page, error) {
	if width <= 0 || width%8 != 0 {
		return Page{}, fmt.Errorf("bitmap width %d is not a positive multiple of 8", width)
	}
	if len(pixels) != width*height {
		return Page{}, fmt.Errorf("bitmap is %d bytes, want %d (%dx%d)", len(pixels), width*height, width, height)
	}

	rowBytes := width / 8
	rows := make([][]byte, height)
	for y := 0; y < height; y++ {
		row := make([]byte, rowBytes)
		for x := 0; x < rowBytes; x++ {
			base := (y+1)*width - (x+1)*8
			var b byte
			for i := 0; i < 8; i++ {
				if pixels[base+i] <= threshold {
					b |= 1 << i
				}
			}
			row[x] = b
		}
		rows[y] = row
	}
	return Page{Black: rows}, nil
}

// PackGrayscaleNormal packs pixels for the 720-pin head.
func PackGrayscaleNormal(threshold byte, height int, pixels []byte) (Page, error) {
	return PackGrayscale(threshold, PinsNormal, height, pixels)
}

// PackGrayscaleWide packs pixels for the 1296-pin head.
func PackGrayscaleWide(threshold byte, height int, pixels []byte) (Page, error) {
	return PackGrayscale(threshold, PinsWide, height, pixels)
}

// PackRGBTwoColor separates interleaved 8-bit RGB pixels into black and red
// 1-bit planes with the same mirrored layout as PackGrayscale. A pixel is
// red when r>200, g<100, b<100; black when its channel average is below 128
// and it is not red.
func PackRGBTwoColor(width, height int, rgb []byte) (Page, error) {
	if width <= 0 || width%8 != 0 {
		return Page{}, fmt.Errorf("bitmap width %d is not a positive multiple of 8", width)
	}
	if len(rgb) != width*height*3 {
		return Page{}, fmt.Errorf("rgb bitmap is %d bytes, want %d (%dx%dx3)", len(rgb), width*height*3, width, height)
	}

	rowBytes := width / 8
	black := make([][]byte, height)
	red := make([][]byte, height)
	for y := 0; y < height; y++ {
		blackRow := make([]byte, rowBytes)
		redRow := make([]byte, rowBytes)
		for x := 0; x < rowBytes; x++ {
			base := (y+1)*width - (x+1)*8
			var blackBits, redBits byte
			for i := 0; i < 8; i++ {
				p := (base + i) * 3
				r, g, b := rgb[p], rgb[p+1], rgb[p+2]
				isRed := r > 200 && g < 100 && b < 100
				if isRed {
					redBits |= 1 << i
				} else if (int(r)+int(g)+int(b))/3 < 128 {
					blackBits |= 1 << i
				}
			}
			blackRow[x] = blackBits
			redRow[x] = redBits
		}
		black[y] = blackRow
		red[y] = redRow
	}
	return Page{Black: black, Red: red}, nil
}
