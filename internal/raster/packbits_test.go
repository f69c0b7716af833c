package raster

import (
	"bytes"
	"testing"
)

// solidRow builds a 90-byte row filled with one value.
func solidRow(v byte) []byte {
	row := make([]byte, RowBytesNormal)
	for i := range row {
		row[i] = v
	}
	return row
}

func TestPackBits_SolidRow(t *testing.T) {
	got := PackBits(solidRow(0x42))
	// One run of 90: -(90-1) = -89 = 0xA7, then the value.
	want := []byte{0xA7, 0x42}
	if !bytes.Equal(got, want) {
		t.Errorf("PackBits(solid) = [% X], want [% X]", got, want)
	}
}

func TestPackBits_BlankRow(t *testing.T) {
	got := PackBits(solidRow(0x00))
	want := []byte{0xA7, 0x00}
	if !bytes.Equal(got, want) {
		t.Errorf("PackBits(blank) = [% X], want [% X]", got, want)
	}
}

func TestPackBits_ThreeRuns(t *testing.T) {
	row := make([]byte, 0, RowBytesNormal)
	row = append(row, bytes.Repeat([]byte{0xAA}, 30)...)
	row = append(row, bytes.Repeat([]byte{0xBB}, 30)...)
	row = append(row, bytes.Repeat([]byte{0xCC}, 30)...)

	got := PackBits(row)
	// Three runs of 30: -(30-1) = -29 = 0xE3.
	want := []byte{0xE3, 0xAA, 0xE3, 0xBB, 0xE3, 0xCC}
	if !bytes.Equal(got, want) {
		t.Errorf("PackBits = [% X], want [% X]", got, want)
	}
}

func TestPackBits_LiteralThenRun(t *testing.T) {
	row := append([]byte{0x01, 0x02, 0x03, 0x04, 0x05}, bytes.Repeat([]byte{0x06}, 85)...)

	got := PackBits(row)
	// Literal of 5 (count-1 = 4), then a run of 85: -(85-1) = -84 = 0xAC.
	want := []byte{0x04, 0x01, 0x02, 0x03, 0x04, 0x05, 0xAC, 0x06}
	if !bytes.Equal(got, want) {
		t.Errorf("PackBits = [% X], want [% X]", got, want)
	}
}

// TestPackBits_LiteralEndsBeforeRun checks that a literal stops one byte
// early when the next two bytes start a run, so the run is not split.
func TestPackBits_LiteralEndsBeforeRun(t *testing.T) {
	row := append([]byte{0x01, 0x02}, bytes.Repeat([]byte{0x03}, 88)...)

	got := PackBits(row)
	// Literal [01 02], then a run of 88: -(88-1) = -87 = 0xA9.
	want := []byte{0x01, 0x01, 0x02, 0xA9, 0x03}
	if !bytes.Equal(got, want) {
		t.Errorf("PackBits = [% X], want [% X]", got, want)
	}
}

// TestPackBits_Incompressible checks the raw fallback: an alternating row
// has no runs, so it is stored as one 90-byte literal.
func TestPackBits_Incompressible(t *testing.T) {
	row := make([]byte, RowBytesNormal)
	for i := range row {
		row[i] = byte(i % 2)
	}

	got := PackBits(row)
	if len(got) != RowBytesNormal+1 {
		t.Fatalf("output is %d bytes, want %d", len(got), RowBytesNormal+1)
	}
	if got[0] != 0x59 {
		t.Errorf("literal marker = 0x%02X, want 0x59 (count 90)", got[0])
	}
	if !bytes.Equal(got[1:], row) {
		t.Error("literal body does not match the row")
	}
}

// TestPackBits_ExpansionFallback checks that a row whose run encoding would
// exceed 90 bytes is re-emitted as the raw fallback, keeping the output
// within 91 bytes.
func TestPackBits_ExpansionFallback(t *testing.T) {
	// 30 groups of [AA AA BB]: each encodes to 4 bytes (run of 2 + literal
	// of 1), 120 in total.
	row := bytes.Repeat([]byte{0xAA, 0xAA, 0xBB}, 30)

	got := PackBits(row)
	if len(got) != RowBytesNormal+1 {
		t.Fatalf("output is %d bytes, want %d", len(got), RowBytesNormal+1)
	}
	if got[0] != 0x59 {
		t.Errorf("fallback marker = 0x%02X, want 0x59", got[0])
	}
	if !bytes.Equal(got[1:], row) {
		t.Error("fallback body does not match the row")
	}
}

func TestPackBits_OutputBound(t *testing.T) {
	rows := [][]byte{
		solidRow(0xFF),
		bytes.Repeat([]byte{0xAA, 0xAA, 0xBB}, 30),
		bytes.Repeat([]byte{0x00, 0xFF, 0xFF}, 30),
	}
	for i := 0; i < RowBytesNormal; i++ {
		row := solidRow(0)
		row[i] = 0xFF
		rows = append(rows, row)
	}
	for _, row := range rows {
		if got := PackBits(row); len(got) > RowBytesNormal+1 {
			t.Errorf("PackBits produced %d bytes for [% X], want at most %d",
				len(got), row, RowBytesNormal+1)
		}
	}
}

// TestPackBits_WrongLength checks that only exact 90-byte rows are
// compressed; anything else passes through untouched.
func TestPackBits_WrongLength(t *testing.T) {
	for _, n := range []int{0, 1, 89, 91, RowBytesWide} {
		row := make([]byte, n)
		got := PackBits(row)
		if !bytes.Equal(got, row) {
			t.Errorf("%d-byte input modified: got %d bytes", n, len(got))
		}
	}
}

func TestUnpackBits(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  []byte
	}{
		{"run", []byte{0xA7, 0x42}, solidRow(0x42)},
		{"literal", []byte{0x02, 0x0A, 0x0B, 0x0C}, []byte{0x0A, 0x0B, 0x0C}},
		{
			"literal_then_run",
			[]byte{0x01, 0x01, 0x02, 0xFE, 0x07},
			[]byte{0x01, 0x02, 0x07, 0x07, 0x07},
		},
		{"empty", nil, []byte{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UnpackBits(tt.input); !bytes.Equal(got, tt.want) {
				t.Errorf("UnpackBits = [% X], want [% X]", got, tt.want)
			}
		})
	}
}

func TestPackBits_RoundTrip(t *testing.T) {
	rows := map[string][]byte{
		"solid":          solidRow(0x55),
		"blank":          solidRow(0x00),
		"alternating":    bytes.Repeat([]byte{0x01, 0x00}, 45),
		"expanding":      bytes.Repeat([]byte{0xAA, 0xAA, 0xBB}, 30),
		"run_boundaries": append(bytes.Repeat([]byte{0x11}, 2), bytes.Repeat([]byte{0x22}, 88)...),
	}
	sparse := solidRow(0)
	sparse[0], sparse[45], sparse[89] = 0x80, 0x18, 0x01
	rows["sparse"] = sparse

	for name, row := range rows {
		t.Run(name, func(t *testing.T) {
			if got := UnpackBits(PackBits(row)); !bytes.Equal(got, row) {
				t.Errorf("round trip lost data:\n got: [% X]\nwant: [% X]", got, row)
			}
		})
	}
}
