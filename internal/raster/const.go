package raster

// USB identity.
const (
	// VendorID is Brother Industries' USB vendor id, shared by every QL model.
	VendorID uint16 = 0x04F9
)

// Status frame magic bytes: print head mark (0x80), frame size (0x20 = 32),
// Brother code 'B', series code '4'.
var statusMagic = [4]byte{0x80, 0x20, 0x42, 0x34}

// Command prefixes. Most commands start with ESC 'i' (0x1B 0x69) followed
// by a selector byte.
const (
	cmdESC  byte = 0x1B
	cmdI    byte = 0x69 // 'i'
	cmdInit byte = 0x40 // ESC @ — initialize
)

// ESC i selector bytes.
const (
	selStatus   byte = 0x53 // 'S' — status information request
	selRaster   byte = 0x61 // 'a' — switch command mode (0x01 = raster)
	selNotify   byte = 0x21 // '!' — automatic status notification
	selFeed     byte = 0x64 // 'd' — feed amount in dots (little-endian u16)
	selVarious  byte = 0x4D // 'M' — various mode (bit 6 = auto-cut)
	selAutoCut  byte = 0x41 // 'A' — cut every n labels
	selExpanded byte = 0x4B // 'K' — expanded mode
	selMedia    byte = 0x7A // 'z' — print information (media header)
)

// Standalone command bytes.
const (
	cmdCompression byte = 0x4D // 'M' — compression mode select
	cmdRasterRow   byte = 0x67 // 'g' — one raster row follows
	cmdTwoColorRow byte = 0x77 // 'w' — one two-color raster row follows
	cmdPrintPage   byte = 0x0C // FF — print page, more pages follow
	cmdPrintEject  byte = 0x1A // SUB — print last page and eject
)

// InvalidateLen is the number of null bytes flushed ahead of ESC @ to clear
// a possibly half-written job from the printer's receive buffer.
const InvalidateLen = 400

// Compression mode arguments (after 0x4D).
const (
	compressionNone     byte = 0x00
	compressionPackBits byte = 0x02 // TIFF PackBits
)

// Various mode bits (ESC i M).
const variousAutoCut byte = 1 << 6

// Expanded mode bits (ESC i K).
const (
	expandedTwoColor byte = 1 << 0
	expandedCutAtEnd byte = 1 << 3
	expandedHighRes  byte = 1 << 6
)

// Print information validity flags (first argument of ESC i z).
// Recover is always requested per the reference manual.
const (
	piKind    byte = 0x02 // media kind field is valid
	piWidth   byte = 0x04 // media width field is valid
	piLength  byte = 0x08 // media length field is valid
	piQuality byte = 0x40 // give priority to print quality
	piRecover byte = 0x80 // printer recovery always on
)

// Media kind codes, used both in ESC i z and in status frames.
const (
	mediaKindContinuous byte = 0x0A
	mediaKindDieCut     byte = 0x0B
)

// Two-color row plane selectors (second byte of 0x77).
const (
	planeBlack byte = 0x01
	planeRed   byte = 0x02
)

// Raster geometry. Normal-head models drive 720 pins (90 bytes per row),
// wide-head models 1296 pins (162 bytes per row).
const (
	PinsNormal     = 720
	PinsWide       = 1296
	RowBytesNormal = PinsNormal / 8
	RowBytesWide   = PinsWide / 8
)

// StatusFrameSize is the fixed size of a printer status frame.
const StatusFrameSize = 32

// Status frame field offsets.
const (
	statusOffModel        = 4
	statusOffError1       = 8
	statusOffError2       = 9
	statusOffMediaWidth   = 10
	statusOffMediaKind    = 11
	statusOffSequenceID   = 14
	statusOffMode         = 15
	statusOffMediaLength  = 17
	statusOffType         = 18
	statusOffPhase        = 19
	statusOffPhaseNumber  = 20 // u16 little-endian
	statusOffNotification = 22
	statusOffColor        = 25
)

// Color capability values at offset 25.
const (
	colorPlain      byte = 0x01
	colorRedCapable byte = 0x81 // black/red 62mm continuous
)

// Feed amount bounds in dots for continuous media. Die-cut media must use 0.
const (
	FeedDotsMin     = 35
	FeedDotsMax     = 1500
	FeedDotsDefault = 35
)
