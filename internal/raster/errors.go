package raster

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the engine and config validation.
var (
	ErrInvalidConfig     = errors.New("invalid print configuration")
	ErrNoMediaInstalled  = errors.New("no media installed")
	ErrReadStatusTimeout = errors.New("printer did not answer the status request")
	ErrPrintTimeout      = errors.New("printer did not confirm job completion")
)

// ErrorKind classifies the hardware fault bits of a status frame.
type ErrorKind int

const (
	ErrorUnknown ErrorKind = iota

	// Error byte 1 (offset 8), checked first.
	ErrorNoMedia        // bit 0
	ErrorEndOfMedia     // bit 1
	ErrorCutterJam      // bit 2
	ErrorPrinterInUse   // bit 4
	ErrorPrinterOffline // bit 5

	// Error byte 2 (offset 9).
	ErrorInvalidMedia  // bit 0
	ErrorBufferFull    // bit 1
	ErrorCommunication // bit 2
	ErrorCoverOpen     // bit 4
	ErrorFeedMediaFail // bit 6
	ErrorSystem        // bit 7
)

var errorKindNames = map[ErrorKind]string{
	ErrorNoMedia:        "no media",
	ErrorEndOfMedia:     "end of media",
	ErrorCutterJam:      "cutter jam",
	ErrorPrinterInUse:   "printer in use",
	ErrorPrinterOffline: "printer offline",
	ErrorInvalidMedia:   "invalid media",
	ErrorBufferFull:     "expansion buffer full",
	ErrorCommunication:  "communication error",
	ErrorCoverOpen:      "cover open",
	ErrorFeedMediaFail:  "media cannot be fed",
	ErrorSystem:         "system error",
}

// ErrorCondition is the decoded fault state of a status frame. The raw
// error bytes are kept alongside the classification; Unknown(0, 0) means no
// fault at all.
type ErrorCondition struct {
	Kind  ErrorKind
	Byte1 byte
	Byte2 byte
}

// DecodeError classifies the two error bytes of a status frame. The first
// matching bit wins, byte 1 before byte 2.
func DecodeError(b1, b2 byte) ErrorCondition {
	cond := ErrorCondition{Kind: ErrorUnknown, Byte1: b1, Byte2: b2}
	switch {
	case b1&0x01 != 0:
		cond.Kind = ErrorNoMedia
	case b1&0x02 != 0:
		cond.Kind = ErrorEndOfMedia
	case b1&0x04 != 0:
		cond.Kind = ErrorCutterJam
	case b1&0x10 != 0:
		cond.Kind = ErrorPrinterInUse
	case b1&0x20 != 0:
		cond.Kind = ErrorPrinterOffline
	case b2&0x01 != 0:
		cond.Kind = ErrorInvalidMedia
	case b2&0x02 != 0:
		cond.Kind = ErrorBufferFull
	case b2&0x04 != 0:
		cond.Kind = ErrorCommunication
	case b2&0x10 != 0:
		cond.Kind = ErrorCoverOpen
	case b2&0x40 != 0:
		cond.Kind = ErrorFeedMediaFail
	case b2&0x80 != 0:
		cond.Kind = ErrorSystem
	}
	return cond
}

// IsClear reports whether the condition represents no fault: no known bit
// matched and both raw bytes are zero.
func (e ErrorCondition) IsClear() bool {
	return e.Kind == ErrorUnknown && e.Byte1 == 0 && e.Byte2 == 0
}

func (e ErrorCondition) String() string {
	if name, ok := errorKindNames[e.Kind]; ok {
		return name
	}
	if e.IsClear() {
		return "none"
	}
	return fmt.Sprintf("unknown (0x%02X 0x%02X)", e.Byte1, e.Byte2)
}

// FaultError is a hardware fault surfaced during a print session, either an
// error status frame or a non-clear error condition.
type FaultError struct {
	Condition ErrorCondition
}

func (e *FaultError) Error() string {
	return "printer fault: " + e.Condition.String()
}

// MediaMismatchError reports that the installed media does not match the
// configured one. A job is aborted before any raster data is sent.
type MediaMismatchError struct {
	Expected Media
	Actual   Media
}

func (e *MediaMismatchError) Error() string {
	return fmt.Sprintf("media mismatch: configured %s, installed %s", e.Expected, e.Actual)
}
