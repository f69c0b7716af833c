package raster

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Status is a decoded 32-byte printer status frame.
type Status struct {
	Model        Model
	Error        ErrorCondition
	Media        Media // MediaUnknown when nothing recognizable is installed
	MediaWidth   byte  // raw width in mm
	MediaKind    byte  // raw kind code (0x0A continuous, 0x0B die-cut)
	MediaLength  byte  // raw length in mm, 0 for continuous
	SequenceID   byte
	Mode         byte
	Type         StatusType
	Phase        Phase
	PhaseNumber  uint16
	Notification Notification
}

// ParseStatus decodes a 32-byte status frame. Frames of the wrong size or
// without the status magic are rejected; callers polling the printer treat
// that as "no frame yet".
func ParseStatus(frame []byte) (*Status, error) {
	if len(frame) != StatusFrameSize {
		return nil, fmt.Errorf("status frame is %d bytes, want %d", len(frame), StatusFrameSize)
	}
	if frame[0] != statusMagic[0] || frame[1] != statusMagic[1] ||
		frame[2] != statusMagic[2] || frame[3] != statusMagic[3] {
		return nil, errors.New("status frame: bad magic")
	}

	media, _ := MediaFromStatus(
		frame[statusOffMediaWidth],
		frame[statusOffMediaKind],
		frame[statusOffMediaLength],
		frame[statusOffColor],
	)

	return &Status{
		Model:        ModelFromCode(frame[statusOffModel]),
		Error:        DecodeError(frame[statusOffError1], frame[statusOffError2]),
		Media:        media,
		MediaWidth:   frame[statusOffMediaWidth],
		MediaKind:    frame[statusOffMediaKind],
		MediaLength:  frame[statusOffMediaLength],
		SequenceID:   frame[statusOffSequenceID],
		Mode:         frame[statusOffMode],
		Type:         StatusTypeFromCode(frame[statusOffType]),
		Phase:        PhaseFromCode(frame[statusOffPhase]),
		PhaseNumber:  binary.LittleEndian.Uint16(frame[statusOffPhaseNumber : statusOffPhaseNumber+2]),
		Notification: NotificationFromCode(frame[statusOffNotification]),
	}, nil
}

// CheckMedia verifies the installed media against the configured one.
// Nothing installed (or nothing recognizable) yields ErrNoMediaInstalled; a
// recognized but different variant yields a MediaMismatchError.
func (s *Status) CheckMedia(expected Media) error {
	if s.Media == MediaUnknown {
		return ErrNoMediaInstalled
	}
	if s.Media != expected {
		return &MediaMismatchError{Expected: expected, Actual: s.Media}
	}
	return nil
}
