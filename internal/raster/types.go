package raster

import (
	"fmt"
	"strings"
)

// Model represents a QL-series printer model.
type Model int

const (
	ModelUnknown Model = iota
	QL600
	QL720NW
	QL800
	QL810W
	QL820NWB
	QL1100
	QL1110NWB
	QL1115NWB
)

// modelCodes maps the model code reported at status offset 4.
var modelCodes = map[byte]Model{
	0x47: QL600,
	0x37: QL720NW,
	0x38: QL800,
	0x39: QL810W,
	0x41: QL820NWB,
	0x43: QL1100,
	0x44: QL1110NWB,
	0x45: QL1115NWB,
}

// modelPIDs maps each model to its USB product id under vendor 0x04F9.
var modelPIDs = map[Model]uint16{
	QL600:     0x20C0,
	QL720NW:   0x2044,
	QL800:     0x209B,
	QL810W:    0x209C,
	QL820NWB:  0x209D,
	QL1100:    0x20A7,
	QL1110NWB: 0x20A8,
	QL1115NWB: 0x20AB,
}

var modelNames = map[Model]string{
	ModelUnknown: "unknown",
	QL600:        "QL-600",
	QL720NW:      "QL-720NW",
	QL800:        "QL-800",
	QL810W:       "QL-810W",
	QL820NWB:     "QL-820NWB",
	QL1100:       "QL-1100",
	QL1110NWB:    "QL-1110NWB",
	QL1115NWB:    "QL-1115NWB",
}

// ModelFromCode decodes the model byte of a status frame.
// Unrecognized codes map to ModelUnknown.
func ModelFromCode(code byte) Model {
	return modelCodes[code]
}

// ParseModel parses a model name like "QL-800" or "ql800".
func ParseModel(s string) (Model, error) {
	norm := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", ""))
	for m, name := range modelNames {
		if m != ModelUnknown && strings.ReplaceAll(name, "-", "") == norm {
			return m, nil
		}
	}
	return ModelUnknown, fmt.Errorf("unknown printer model %q", s)
}

// PID returns the USB product id of the model, or 0 for ModelUnknown.
func (m Model) PID() uint16 { return modelPIDs[m] }

// Pins returns the print head width in dots.
func (m Model) Pins() int {
	switch m {
	case QL1100, QL1110NWB, QL1115NWB:
		return PinsWide
	default:
		return PinsNormal
	}
}

// RowBytes returns the raster row length in bytes for the model's head.
func (m Model) RowBytes() int { return m.Pins() / 8 }

// TwoColorCapable reports whether the model can drive black/red media.
func (m Model) TwoColorCapable() bool {
	switch m {
	case QL800, QL810W, QL820NWB:
		return true
	default:
		return false
	}
}

func (m Model) String() string {
	if name, ok := modelNames[m]; ok {
		return name
	}
	return "unknown"
}

// ModelByPID finds the model matching a USB product id.
func ModelByPID(pid uint16) (Model, bool) {
	for m, p := range modelPIDs {
		if p == pid {
			return m, true
		}
	}
	return ModelUnknown, false
}

// StatusType classifies a status frame (offset 18).
type StatusType int

const (
	StatusReply        StatusType = iota // 0x00: reply to a status request
	StatusCompleted                      // 0x01: printing completed
	StatusError                          // 0x02: error occurred
	StatusOffline                        // 0x04: printer going offline
	StatusNotification                   // 0x05: cooling notification
	StatusPhaseChange                    // 0x06: phase change
	StatusUnknown
)

// StatusTypeFromCode decodes status frame offset 18.
func StatusTypeFromCode(code byte) StatusType {
	switch code {
	case 0x00:
		return StatusReply
	case 0x01:
		return StatusCompleted
	case 0x02:
		return StatusError
	case 0x04:
		return StatusOffline
	case 0x05:
		return StatusNotification
	case 0x06:
		return StatusPhaseChange
	default:
		return StatusUnknown
	}
}

func (t StatusType) String() string {
	switch t {
	case StatusReply:
		return "reply"
	case StatusCompleted:
		return "completed"
	case StatusError:
		return "error"
	case StatusOffline:
		return "offline"
	case StatusNotification:
		return "notification"
	case StatusPhaseChange:
		return "phase change"
	default:
		return "unknown"
	}
}

// Phase is the printer state machine phase (offset 19).
type Phase int

const (
	PhaseReceiving Phase = iota // 0x00: waiting to receive
	PhasePrinting               // 0x01: printing
	PhaseWaiting                // anything else: waiting to be peeled etc.
)

// PhaseFromCode decodes status frame offset 19.
func PhaseFromCode(code byte) Phase {
	switch code {
	case 0x00:
		return PhaseReceiving
	case 0x01:
		return PhasePrinting
	default:
		return PhaseWaiting
	}
}

func (p Phase) String() string {
	switch p {
	case PhaseReceiving:
		return "receiving"
	case PhasePrinting:
		return "printing"
	default:
		return "waiting"
	}
}

// Notification is the cooling notification state (offset 22).
type Notification int

const (
	NotifyNone            Notification = iota
	NotifyCoolingStarted               // 0x03
	NotifyCoolingFinished              // 0x04
)

// NotificationFromCode decodes status frame offset 22.
func NotificationFromCode(code byte) Notification {
	switch code {
	case 0x03:
		return NotifyCoolingStarted
	case 0x04:
		return NotifyCoolingFinished
	default:
		return NotifyNone
	}
}

func (n Notification) String() string {
	switch n {
	case NotifyCoolingStarted:
		return "cooling started"
	case NotifyCoolingFinished:
		return "cooling finished"
	default:
		return "none"
	}
}

// Config holds the print parameters for one job. Build it once with
// DefaultConfig, adjust fields, then hand it to NewEngine; the engine keeps
// its own copy, so a config in use cannot change mid-job.
type Config struct {
	Model          Model
	Serial         string // USB serial; empty matches any printer of the model
	Media          Media
	AutoCut        bool
	AutoCutEvery   uint8 // cut after every n labels; ignored unless AutoCut
	TwoColor       bool  // black/red printing (62mm red media only)
	CutAtEnd       bool
	HighResolution bool   // 600dpi in the feed direction; halves feed speed
	Compress       bool   // PackBits-compress raster rows
	FeedDots       uint16 // feed amount; 0 is only valid for die-cut media
}

// DefaultConfig returns a Config with the usual one-label defaults:
// auto-cut every label, cut at end, normal resolution, no compression.
func DefaultConfig(model Model, serial string, media Media) Config {
	return Config{
		Model:        model,
		Serial:       serial,
		Media:        media,
		AutoCut:      true,
		AutoCutEvery: 1,
		CutAtEnd:     true,
		FeedDots:     media.DefaultFeedDots(),
	}
}

// Validate checks the config for combinations the printers reject.
func (c Config) Validate() error {
	if c.Model == ModelUnknown {
		return fmt.Errorf("%w: model not set", ErrInvalidConfig)
	}
	if c.Media == MediaUnknown {
		return fmt.Errorf("%w: media not set", ErrInvalidConfig)
	}
	if _, err := c.Media.CheckFeedDots(c.FeedDots); err != nil {
		return err
	}
	if c.AutoCut && c.AutoCutEvery == 0 {
		return fmt.Errorf("%w: auto-cut interval must be at least 1", ErrInvalidConfig)
	}
	if c.TwoColor {
		if !c.Model.TwoColorCapable() {
			return fmt.Errorf("%w: %s cannot print two colors", ErrInvalidConfig, c.Model)
		}
		if !c.Media.RedCapable() {
			return fmt.Errorf("%w: %s is not black/red media", ErrInvalidConfig, c.Media)
		}
		if c.HighResolution {
			return fmt.Errorf("%w: two-color and high resolution are mutually exclusive", ErrInvalidConfig)
		}
	}
	if c.Compress && c.Model.RowBytes() != RowBytesNormal {
		return fmt.Errorf("%w: compression is only supported on %d-pin models", ErrInvalidConfig, PinsNormal)
	}
	return nil
}

// Page is one label page of packed 1-bit raster rows in the mirrored bit
// order the print head expects (see PackGrayscale). Red is nil for
// single-color pages; two-color pages carry equal-shaped planes.
type Page struct {
	Black [][]byte
	Red   [][]byte
}

// Rows returns the physical raster line count of the page.
func (p Page) Rows() int { return len(p.Black) }

// TwoColor reports whether the page carries a red plane.
func (p Page) TwoColor() bool { return p.Red != nil }

// validate checks the page shape against the model's head width.
func (p Page) validate(rowBytes int) error {
	if len(p.Black) == 0 {
		return fmt.Errorf("%w: empty page", ErrInvalidConfig)
	}
	for i, row := range p.Black {
		if len(row) != rowBytes {
			return fmt.Errorf("%w: row %d is %d bytes, want %d", ErrInvalidConfig, i, len(row), rowBytes)
		}
	}
	if p.Red == nil {
		return nil
	}
	if len(p.Red) != len(p.Black) {
		return fmt.Errorf("%w: red plane has %d rows, black %d", ErrInvalidConfig, len(p.Red), len(p.Black))
	}
	for i, row := range p.Red {
		if len(row) != rowBytes {
			return fmt.Errorf("%w: red row %d is %d bytes, want %d", ErrInvalidConfig, i, len(row), rowBytes)
		}
	}
	return nil
}
