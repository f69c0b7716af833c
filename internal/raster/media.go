package raster

import (
	"fmt"
	"strings"
)

// Media represents an installed tape or label roll variant.
type Media int

const (
	MediaUnknown Media = iota

	// Continuous tape.
	Continuous12
	Continuous29
	Continuous38
	Continuous50
	Continuous54
	Continuous62
	Continuous62Red // black/red tape, reported via the color capability byte

	// Die-cut labels.
	DieCut17x54
	DieCut17x87
	DieCut23x23
	DieCut29x42
	DieCut29x90
	DieCut38x90
	DieCut39x48
	DieCut52x29
	DieCut60x86
	DieCut62x29
	DieCut62x100
	DieCut12Dia
	DieCut24Dia
	DieCut58Dia
)

// MediaSpec holds the printable geometry of a media variant. Dot counts are
// at 300dpi (≈11.811 dots/mm) on the 720-pin head; margins are the
// unprintable side strips inside the tape width.
type MediaSpec struct {
	ID         uint16
	WidthMM    int
	LengthMM   int // 0 for continuous tape
	WidthDots  int
	LengthDots int // 0 for continuous tape
	MarginDots int
	OffsetDots int // feed-direction offset before the printable area
	PinsRight  int // head pins to the right of the tape
}

// mediaSpecs is the media catalog.
var mediaSpecs = map[Media]MediaSpec{
	Continuous12:    {ID: 257, WidthMM: 12, WidthDots: 142, MarginDots: 18, PinsRight: 29},
	Continuous29:    {ID: 258, WidthMM: 29, WidthDots: 342, MarginDots: 18, PinsRight: 6},
	Continuous38:    {ID: 264, WidthMM: 38, WidthDots: 449, MarginDots: 18, PinsRight: 12},
	Continuous50:    {ID: 262, WidthMM: 50, WidthDots: 590, MarginDots: 18, PinsRight: 12},
	Continuous54:    {ID: 261, WidthMM: 54, WidthDots: 636, MarginDots: 23, PinsRight: 0},
	Continuous62:    {ID: 259, WidthMM: 62, WidthDots: 732, MarginDots: 18, PinsRight: 12},
	Continuous62Red: {ID: 260, WidthMM: 62, WidthDots: 732, MarginDots: 18, PinsRight: 12},

	DieCut17x54:  {ID: 269, WidthMM: 17, LengthMM: 54, WidthDots: 201, LengthDots: 636, MarginDots: 18, OffsetDots: 35, PinsRight: 0},
	DieCut17x87:  {ID: 270, WidthMM: 17, LengthMM: 87, WidthDots: 201, LengthDots: 1028, MarginDots: 18, OffsetDots: 35, PinsRight: 0},
	DieCut23x23:  {ID: 370, WidthMM: 23, LengthMM: 23, WidthDots: 272, LengthDots: 272, MarginDots: 18, PinsRight: 42},
	DieCut29x42:  {ID: 358, WidthMM: 29, LengthMM: 42, WidthDots: 342, LengthDots: 496, MarginDots: 18, PinsRight: 6},
	DieCut29x90:  {ID: 271, WidthMM: 29, LengthMM: 90, WidthDots: 342, LengthDots: 1063, MarginDots: 18, PinsRight: 6},
	DieCut38x90:  {ID: 272, WidthMM: 38, LengthMM: 90, WidthDots: 449, LengthDots: 1063, MarginDots: 18, PinsRight: 12},
	DieCut39x48:  {ID: 367, WidthMM: 39, LengthMM: 48, WidthDots: 461, LengthDots: 567, MarginDots: 18, PinsRight: 8},
	DieCut52x29:  {ID: 374, WidthMM: 52, LengthMM: 29, WidthDots: 614, LengthDots: 342, MarginDots: 18, PinsRight: 0},
	DieCut60x86:  {ID: 383, WidthMM: 60, LengthMM: 86, WidthDots: 708, LengthDots: 1016, MarginDots: 18, PinsRight: 24},
	DieCut62x29:  {ID: 274, WidthMM: 62, LengthMM: 29, WidthDots: 732, LengthDots: 342, MarginDots: 18, PinsRight: 12},
	DieCut62x100: {ID: 275, WidthMM: 62, LengthMM: 100, WidthDots: 732, LengthDots: 1181, MarginDots: 18, PinsRight: 12},
	DieCut12Dia:  {ID: 362, WidthMM: 12, LengthMM: 12, WidthDots: 142, LengthDots: 142, MarginDots: 24, PinsRight: 113},
	DieCut24Dia:  {ID: 363, WidthMM: 24, LengthMM: 24, WidthDots: 284, LengthDots: 284, MarginDots: 24, PinsRight: 42},
	DieCut58Dia:  {ID: 273, WidthMM: 58, LengthMM: 58, WidthDots: 684, LengthDots: 685, MarginDots: 33, PinsRight: 51},
}

// mediaNames maps each variant to its short configuration name.
var mediaNames = map[Media]string{
	Continuous12:    "12",
	Continuous29:    "29",
	Continuous38:    "38",
	Continuous50:    "50",
	Continuous54:    "54",
	Continuous62:    "62",
	Continuous62Red: "62red",
	DieCut17x54:     "17x54",
	DieCut17x87:     "17x87",
	DieCut23x23:     "23x23",
	DieCut29x42:     "29x42",
	DieCut29x90:     "29x90",
	DieCut38x90:     "38x90",
	DieCut39x48:     "39x48",
	DieCut52x29:     "52x29",
	DieCut60x86:     "60x86",
	DieCut62x29:     "62x29",
	DieCut62x100:    "62x100",
	DieCut12Dia:     "12dia",
	DieCut24Dia:     "24dia",
	DieCut58Dia:     "58dia",
}

// Spec returns the geometry of the media variant. MediaUnknown yields the
// zero spec.
func (m Media) Spec() MediaSpec { return mediaSpecs[m] }

// IsDieCut reports whether the variant is a die-cut label roll.
func (m Media) IsDieCut() bool { return m.Spec().LengthMM != 0 }

// RedCapable reports whether the variant supports black/red printing.
func (m Media) RedCapable() bool { return m == Continuous62Red }

// Name returns the short configuration name, e.g. "62" or "29x90".
func (m Media) Name() string { return mediaNames[m] }

func (m Media) String() string {
	spec, ok := mediaSpecs[m]
	if !ok {
		return "unknown"
	}
	suffix := ""
	if m == Continuous62Red {
		suffix = " black/red"
	}
	if !m.IsDieCut() {
		return fmt.Sprintf("%dmm continuous%s", spec.WidthMM, suffix)
	}
	if m == DieCut12Dia || m == DieCut24Dia || m == DieCut58Dia {
		return fmt.Sprintf("%dmm round die-cut", spec.WidthMM)
	}
	return fmt.Sprintf("%dmm x %dmm die-cut", spec.WidthMM, spec.LengthMM)
}

// MediaByID finds the variant with the given catalog id.
func MediaByID(id uint16) (Media, bool) {
	for m, spec := range mediaSpecs {
		if spec.ID == id {
			return m, true
		}
	}
	return MediaUnknown, false
}

// ParseMedia parses a short media name like "62", "62red" or "29x90".
func ParseMedia(s string) (Media, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	for m, name := range mediaNames {
		if name == norm {
			return m, nil
		}
	}
	return MediaUnknown, fmt.Errorf("unknown media %q", s)
}

// MediaFromStatus reverse-looks-up the installed media from status frame
// fields: width and length in mm, the media kind code, and the color
// capability byte. Returns false when the bytes match no known variant,
// including the no-media case (kind 0).
func MediaFromStatus(widthMM, kind, lengthMM, color byte) (Media, bool) {
	switch kind {
	case mediaKindContinuous:
		for m, spec := range mediaSpecs {
			if m.IsDieCut() || spec.WidthMM != int(widthMM) {
				continue
			}
			if spec.WidthMM == 62 {
				if (color == colorRedCapable) != (m == Continuous62Red) {
					continue
				}
			}
			return m, true
		}
	case mediaKindDieCut:
		for m, spec := range mediaSpecs {
			if m.IsDieCut() && spec.WidthMM == int(widthMM) && spec.LengthMM == int(lengthMM) {
				return m, true
			}
		}
	}
	return MediaUnknown, false
}

// kindCode returns the ESC i z media kind byte.
func (m Media) kindCode() byte {
	if m.IsDieCut() {
		return mediaKindDieCut
	}
	return mediaKindContinuous
}

// DefaultFeedDots returns the default feed amount: the minimum feed for
// continuous tape, zero for die-cut labels.
func (m Media) DefaultFeedDots() uint16 {
	if m == MediaUnknown || m.IsDieCut() {
		return 0
	}
	return FeedDotsDefault
}

// CheckFeedDots validates a feed amount against the media and returns its
// little-endian wire encoding. Continuous tape accepts 35..1500 dots;
// die-cut labels only 0.
func (m Media) CheckFeedDots(feed uint16) ([2]byte, error) {
	if m.IsDieCut() {
		if feed != 0 {
			return [2]byte{}, fmt.Errorf("%w: die-cut media requires feed 0, got %d", ErrInvalidConfig, feed)
		}
		return [2]byte{0, 0}, nil
	}
	if feed < FeedDotsMin || feed > FeedDotsMax {
		return [2]byte{}, fmt.Errorf("%w: feed %d outside %d..%d dots", ErrInvalidConfig, feed, FeedDotsMin, FeedDotsMax)
	}
	return [2]byte{byte(feed), byte(feed >> 8)}, nil
}

// PinsEffective returns the printable dot width between the margins.
func (s MediaSpec) PinsEffective() int { return s.WidthDots - 2*s.MarginDots }

// PinsLeft returns the unused head pins left of the printable area on the
// 720-pin head.
func (s MediaSpec) PinsLeft() int { return PinsNormal - s.PinsEffective() - s.PinsRight }
