package raster

import "encoding/binary"

// --------------------------------------------------------------------------
// Command builders. All return freshly allocated buffers.
// --------------------------------------------------------------------------

// MarshalInvalidate builds the 400-byte null flush that clears a partially
// received job from the printer's buffer.
func MarshalInvalidate() []byte {
	return make([]byte, InvalidateLen)
}

// MarshalInitialize builds invalidate followed by ESC @.
func MarshalInitialize() []byte {
	buf := make([]byte, InvalidateLen, InvalidateLen+2)
	return append(buf, cmdESC, cmdInit)
}

// MarshalStatusRequest builds initialize followed by ESC i S. The printer
// answers with one 32-byte status frame.
func MarshalStatusRequest() []byte {
	return append(MarshalInitialize(), cmdESC, cmdI, selStatus)
}

// MarshalRasterMode builds ESC i a 0x01, switching the printer to raster
// command mode.
func MarshalRasterMode() []byte {
	return []byte{cmdESC, cmdI, selRaster, 0x01}
}

// MarshalNotifyMode builds ESC i ! 0x00, enabling automatic status
// notification during printing.
func MarshalNotifyMode() []byte {
	return []byte{cmdESC, cmdI, selNotify, 0x00}
}

// MarshalCompression builds the compression mode select: PackBits or none.
func MarshalCompression(packbits bool) []byte {
	if packbits {
		return []byte{cmdCompression, compressionPackBits}
	}
	return []byte{cmdCompression, compressionNone}
}

// MarshalModeCommands builds the per-job mode block: feed amount, various
// mode (auto-cut), cut interval and expanded mode (two-color, cut-at-end,
// high resolution). The feed amount is validated against the media.
func MarshalModeCommands(cfg Config) ([]byte, error) {
	feed, err := cfg.Media.CheckFeedDots(cfg.FeedDots)
	if err != nil {
		return nil, err
	}

	var various byte
	if cfg.AutoCut {
		various |= variousAutoCut
	}

	// The cut interval is sent even with auto-cut off; the printers expect 1.
	cutEvery := cfg.AutoCutEvery
	if !cfg.AutoCut {
		cutEvery = 1
	}

	var expanded byte
	if cfg.TwoColor {
		expanded |= expandedTwoColor
	}
	if cfg.CutAtEnd {
		expanded |= expandedCutAtEnd
	}
	if cfg.HighResolution {
		expanded |= expandedHighRes
	}

	buf := make([]byte, 0, 17)
	buf = append(buf, cmdESC, cmdI, selFeed, feed[0], feed[1])
	buf = append(buf, cmdESC, cmdI, selVarious, various)
	buf = append(buf, cmdESC, cmdI, selAutoCut, cutEvery)
	buf = append(buf, cmdESC, cmdI, selExpanded, expanded)
	return buf, nil
}

// MarshalMediaHeader builds the ESC i z print information command for one
// page: validity flags, media kind, width and length in mm, the raster
// line count (little-endian u32) and the starting page flag.
func MarshalMediaHeader(cfg Config, rasterLines int, firstPage bool) []byte {
	spec := cfg.Media.Spec()
	flags := piRecover | piKind | piWidth | piLength
	if cfg.HighResolution {
		flags |= piQuality
	}

	buf := make([]byte, 0, 13)
	buf = append(buf, cmdESC, cmdI, selMedia, flags, cfg.Media.kindCode(), byte(spec.WidthMM), byte(spec.LengthMM))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(rasterLines))
	if firstPage {
		buf = append(buf, 0x00, 0x00)
	} else {
		buf = append(buf, 0x01, 0x00)
	}
	return buf
}

// MarshalRasterRow frames one raster row: 0x67 0x00 length, then the row
// (raw or PackBits-compressed).
func MarshalRasterRow(row []byte) []byte {
	buf := make([]byte, 0, len(row)+3)
	buf = append(buf, cmdRasterRow, 0x00, byte(len(row)))
	return append(buf, row...)
}

// MarshalTwoColorRow frames one two-color raster row: 0x77, the plane
// selector (0x01 black, 0x02 red), the row length, then the row.
func MarshalTwoColorRow(plane byte, row []byte) []byte {
	buf := make([]byte, 0, len(row)+3)
	buf = append(buf, cmdTwoColorRow, plane, byte(len(row)))
	return append(buf, row...)
}
