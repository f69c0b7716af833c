package raster

// PackBits compresses one 90-byte raster row with TIFF PackBits: runs of
// 2..128 identical bytes become -(count-1) followed by the value, literal
// stretches of up to 128 bytes become count-1 followed by the bytes. A
// literal ends one byte early when the next two bytes start a run. Rows
// that compress to more than 90 bytes fall back to 89 followed by the raw
// row, so the output never exceeds 91 bytes. Input of any other length is
// returned unchanged.
func PackBits(row []byte) []byte {
	if len(row) != RowBytesNormal {
		return row
	}

	out := make([]byte, 0, RowBytesNormal+1)
	for i := 0; i < len(row); {
		run := 1
		for i+run < len(row) && row[i+run] == row[i] && run < 128 {
			run++
		}
		if run >= 2 {
			out = append(out, byte(-(run - 1)), row[i])
			i += run
			continue
		}

		start := i
		i++
		for i < len(row) && i-start < 128 {
			if i+1 < len(row) && row[i+1] == row[i] {
				break
			}
			i++
		}
		out = append(out, byte(i-start-1))
		out = append(out, row[start:i]...)
	}

	if len(out) > RowBytesNormal {
		out = out[:0]
		out = append(out, byte(RowBytesNormal-1))
		out = append(out, row...)
	}
	return out
}

// UnpackBits decodes a PackBits-compressed row. It is the inverse of
// PackBits for every 90-byte input.
func UnpackBits(data []byte) []byte {
	out := make([]byte, 0, RowBytesNormal)
	for i := 0; i < len(data); {
		n := int(int8(data[i]))
		i++
		if n >= 0 {
			count := n + 1
			if i+count > len(data) {
				count = len(data) - i
			}
			out = append(out, data[i:i+count]...)
			i += count
			continue
		}
		if i >= len(data) {
			break
		}
		for count := 1 - n; count > 0; count-- {
			out = append(out, data[i])
		}
		i++
	}
	return out
}
