package pattern

import (
	"fmt"
	"strings"
)

// ColorMode is the color mode of a pattern's pixel data.
type ColorMode uint32

// Known color modes. The values are the on-disk tags.
const (
	Bitmap       ColorMode = 0
	Grayscale    ColorMode = 1
	Indexed      ColorMode = 2
	RGB          ColorMode = 3
	CMYK         ColorMode = 4
	Multichannel ColorMode = 7
	Duotone      ColorMode = 8
	Lab          ColorMode = 9
)

var modeNames = map[ColorMode]string{
	Bitmap:       "bitmap",
	Grayscale:    "grayscale",
	Indexed:      "indexed",
	RGB:          "rgb",
	CMYK:         "cmyk",
	Multichannel: "multichannel",
	Duotone:      "duotone",
	Lab:          "lab",
}

// Valid reports whether m is a known color mode.
func (m ColorMode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

func (m ColorMode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("ColorMode(%d)", uint32(m))
}

// Channels returns the number of color channels a pattern in this mode
// carries, not counting the two auxiliary channels. Multichannel patterns
// have no fixed count and return 0.
func (m ColorMode) Channels() int {
	switch m {
	case Bitmap, Grayscale, Indexed, Duotone:
		return 1
	case RGB, Lab:
		return 3
	case CMYK:
		return 4
	}
	return 0
}

// ParseColorMode returns the color mode with the given name, ignoring case.
func ParseColorMode(s string) (ColorMode, error) {
	for m, name := range modeNames {
		if strings.EqualFold(s, name) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown color mode %q", ErrInvalidField, s)
}

// hasColorTable is the single condition deciding whether a color table
// follows the identifier, used when both reading and writing.
func hasColorTable(m ColorMode) bool {
	return m == Indexed
}
