package raster

import (
	"bytes"
	"testing"
)

// grayBitmap builds a width×height grayscale bitmap filled with one level.
func grayBitmap(width, height int, level byte) []byte {
	px := make([]byte, width*height)
	for i := range px {
		px[i] = level
	}
	return px
}

func TestPackGrayscale_AllWhite(t *testing.T) {
	page, err := PackGrayscaleNormal(80, 2, grayBitmap(PinsNormal, 2, 0xFF))
	if err != nil {
		t.Fatalf("PackGrayscaleNormal failed: %v", err)
	}
	if page.Rows() != 2 {
		t.Fatalf("Rows() = %d, want 2", page.Rows())
	}
	for y, row := range page.Black {
		if len(row) != RowBytesNormal {
			t.Fatalf("row %d is %d bytes, want %d", y, len(row), RowBytesNormal)
		}
		if !bytes.Equal(row, make([]byte, RowBytesNormal)) {
			t.Errorf("row %d of a white bitmap has set bits: [% X]", y, row)
		}
	}
}

func TestPackGrayscale_AllBlack(t *testing.T) {
	page, err := PackGrayscaleNormal(80, 2, grayBitmap(PinsNormal, 2, 0x00))
	if err != nil {
		t.Fatalf("PackGrayscaleNormal failed: %v", err)
	}
	for y, row := range page.Black {
		if !bytes.Equal(row, solidRow(0xFF)) {
			t.Errorf("row %d of a black bitmap = [% X], want all 0xFF", y, row)
		}
	}
}

// TestPackGrayscale_Mirrored checks the head's reversed scan order: the
// last source pixel of a row lands in bit 7 of output byte 0, the first
// source pixel in bit 0 of the last output byte.
func TestPackGrayscale_Mirrored(t *testing.T) {
	px := grayBitmap(PinsNormal, 1, 0xFF)
	px[PinsNormal-1] = 0x00 // rightmost pixel
	px[0] = 0x00            // leftmost pixel

	page, err := PackGrayscaleNormal(80, 1, px)
	if err != nil {
		t.Fatalf("PackGrayscaleNormal failed: %v", err)
	}
	row := page.Black[0]
	if row[0] != 0x80 {
		t.Errorf("byte 0 = 0x%02X, want 0x80 (rightmost pixel in bit 7)", row[0])
	}
	if row[RowBytesNormal-1] != 0x01 {
		t.Errorf("byte %d = 0x%02X, want 0x01 (leftmost pixel in bit 0)",
			RowBytesNormal-1, row[RowBytesNormal-1])
	}
	for x := 1; x < RowBytesNormal-1; x++ {
		if row[x] != 0 {
			t.Errorf("byte %d = 0x%02X, want 0x00", x, row[x])
		}
	}
}

// TestPackGrayscale_SecondRow checks that row packing advances through the
// bitmap row-major: a dark pixel on row 1 must not leak into row 0.
func TestPackGrayscale_SecondRow(t *testing.T) {
	px := grayBitmap(PinsNormal, 2, 0xFF)
	px[PinsNormal+7] = 0x00 // row 1, pixel 7

	page, err := PackGrayscaleNormal(80, 2, px)
	if err != nil {
		t.Fatalf("PackGrayscaleNormal failed: %v", err)
	}
	if !bytes.Equal(page.Black[0], make([]byte, RowBytesNormal)) {
		t.Errorf("row 0 = [% X], want blank", page.Black[0])
	}
	// Pixel 7 of the row sits in bit 7 of the last output byte.
	if got := page.Black[1][RowBytesNormal-1]; got != 0x80 {
		t.Errorf("row 1 byte %d = 0x%02X, want 0x80", RowBytesNormal-1, got)
	}
}

func TestPackGrayscale_Threshold(t *testing.T) {
	px := grayBitmap(PinsNormal, 1, 0xFF)
	px[0] = 80 // at the threshold: prints
	px[1] = 81 // just above: stays white

	page, err := PackGrayscaleNormal(80, 1, px)
	if err != nil {
		t.Fatalf("PackGrayscaleNormal failed: %v", err)
	}
	last := page.Black[0][RowBytesNormal-1]
	if last&0x01 == 0 {
		t.Error("pixel at the threshold did not print")
	}
	if last&0x02 != 0 {
		t.Error("pixel above the threshold printed")
	}
}

func TestPackGrayscale_WideHead(t *testing.T) {
	page, err := PackGrayscaleWide(80, 1, grayBitmap(PinsWide, 1, 0x00))
	if err != nil {
		t.Fatalf("PackGrayscaleWide failed: %v", err)
	}
	if len(page.Black[0]) != RowBytesWide {
		t.Errorf("row is %d bytes, want %d", len(page.Black[0]), RowBytesWide)
	}
}

func TestPackGrayscale_BadInput(t *testing.T) {
	tests := []struct {
		name   string
		width  int
		height int
		pixels []byte
	}{
		{"zero_width", 0, 1, nil},
		{"width_not_multiple_of_8", 10, 1, make([]byte, 10)},
		{"negative_width", -8, 1, nil},
		{"pixel_count_mismatch", 720, 2, make([]byte, 720)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := PackGrayscale(80, tt.width, tt.height, tt.pixels); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestPackRGBTwoColor(t *testing.T) {
	// One 8-pixel row exercising every classification rule.
	px := []struct {
		r, g, b   byte
		wantRed   bool
		wantBlack bool
	}{
		{0x00, 0x00, 0x00, false, true},  // pixel 0: black
		{0xFF, 0xFF, 0xFF, false, false}, // pixel 1: white
		{0xFF, 0x00, 0x00, true, false},  // pixel 2: pure red
		{0xC9, 0x63, 0x63, true, false},  // pixel 3: just inside the red cube
		{0xC8, 0x00, 0x00, false, true},  // pixel 4: r at the red boundary, dark enough for black
		{0x96, 0x14, 0x14, false, true},  // pixel 5: dark red prints black
		{0x7F, 0x7F, 0x7F, false, true},  // pixel 6: mid gray, avg 127
		{0x80, 0x80, 0x80, false, false}, // pixel 7: avg 128 stays white
	}

	rgb := make([]byte, 0, len(px)*3)
	for _, p := range px {
		rgb = append(rgb, p.r, p.g, p.b)
	}

	page, err := PackRGBTwoColor(8, 1, rgb)
	if err != nil {
		t.Fatalf("PackRGBTwoColor failed: %v", err)
	}
	if !page.TwoColor() {
		t.Fatal("TwoColor() = false")
	}
	blackRow, redRow := page.Black[0], page.Red[0]
	for i, p := range px {
		bit := byte(1 << i)
		if gotRed := redRow[0]&bit != 0; gotRed != p.wantRed {
			t.Errorf("pixel %d (%02X %02X %02X): red = %v, want %v", i, p.r, p.g, p.b, gotRed, p.wantRed)
		}
		if gotBlack := blackRow[0]&bit != 0; gotBlack != p.wantBlack {
			t.Errorf("pixel %d (%02X %02X %02X): black = %v, want %v", i, p.r, p.g, p.b, gotBlack, p.wantBlack)
		}
	}
}

func TestPackRGBTwoColor_PlaneShape(t *testing.T) {
	page, err := PackRGBTwoColor(PinsNormal, 3, make([]byte, PinsNormal*3*3))
	if err != nil {
		t.Fatalf("PackRGBTwoColor failed: %v", err)
	}
	if len(page.Black) != 3 || len(page.Red) != 3 {
		t.Fatalf("planes have %d/%d rows, want 3/3", len(page.Black), len(page.Red))
	}
	if err := page.validate(RowBytesNormal); err != nil {
		t.Errorf("packed page does not validate: %v", err)
	}
}

func TestPackRGBTwoColor_BadInput(t *testing.T) {
	if _, err := PackRGBTwoColor(8, 1, make([]byte, 23)); err == nil {
		t.Fatal("expected error for truncated rgb data, got nil")
	}
	if _, err := PackRGBTwoColor(7, 1, make([]byte, 21)); err == nil {
		t.Fatal("expected error for width not a multiple of 8, got nil")
	}
}
