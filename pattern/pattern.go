/*
Package pattern implements a decoder and encoder for the pattern resource of a
layered image document.

A pattern is a named, tileable block of pixels. Each pattern records a color
mode, a 256 entry color table when that mode is indexed, and a virtual memory
array list holding one channel per color component plus two auxiliary
channels. Channel payloads are kept as opaque bytes together with their
compression tag; this package never decompresses them.

Patterns are usually stored as a list where each record is prefixed with its
length and padded to a multiple of four bytes. Single records are also found
unframed, such as the records inside a pattern file.
*/
package pattern

import (
	"image/color"

	"github.com/bodgit/patterns/psdio"
)

const (
	patternVersion   = 1
	arrayListVersion = 3

	colorTableSize     = 256
	colorTableReserved = 4

	// The wire count of channels excludes two auxiliary channels
	extraChannels = 2

	// Depth, rectangle, pixel depth and compression
	arrayHeaderSize = 4 + 4*4 + 2 + 1

	listPadding      = 4
	arrayListPadding = 4
	arrayPadding     = 1
	idPadding        = 1
)

// Errors returned by the decoder and encoder. Returned errors wrap one of
// these and should be tested with errors.Is.
var (
	ErrTruncated          = psdio.ErrTruncated
	ErrUnsupportedVersion = psdio.ErrUnsupportedVersion
	ErrInvalidField       = psdio.ErrInvalidField
	ErrMalformedLength    = psdio.ErrMalformedLength
)

// Point is the origin offset of a pattern.
type Point struct {
	Vertical   int16
	Horizontal int16
}

// Rectangle is a bounding box stored as four unsigned 32-bit edges.
type Rectangle struct {
	Top    uint32
	Left   uint32
	Bottom uint32
	Right  uint32
}

// Dx returns the width of r.
func (r Rectangle) Dx() int {
	if r.Right < r.Left {
		return 0
	}
	return int(r.Right - r.Left)
}

// Dy returns the height of r.
func (r Rectangle) Dy() int {
	if r.Bottom < r.Top {
		return 0
	}
	return int(r.Bottom - r.Top)
}

// ColorTable is the palette of an indexed pattern.
type ColorTable struct {
	Colors [colorTableSize][3]uint8
	// Reserved holds the bytes trailing the table, kept as found
	Reserved [colorTableReserved]byte
}

// Palette returns the table as an opaque color.Palette.
func (ct *ColorTable) Palette() color.Palette {
	p := make(color.Palette, len(ct.Colors))
	for i, c := range ct.Colors {
		p[i] = color.RGBA{c[0], c[1], c[2], 0xff}
	}
	return p
}

// Compression is the compression tag of a channel payload.
type Compression uint8

// Compression tags seen in practice. Other values are carried through.
const (
	Raw Compression = iota
	RLE
	ZIP
	ZIPPrediction
)

// State describes which form a VirtualMemoryArray takes on the wire.
type State int

const (
	// Absent arrays are a single zero flag
	Absent State = iota
	// Empty arrays have a flag and a zero length
	Empty
	// Populated arrays carry a header and a payload
	Populated
)

func (s State) String() string {
	switch s {
	case Absent:
		return "absent"
	case Empty:
		return "empty"
	case Populated:
		return "populated"
	}
	return "unknown"
}

// Channel is the header and payload of a populated VirtualMemoryArray.
type Channel struct {
	Depth       uint32
	Rectangle   Rectangle
	PixelDepth  uint16
	Compression Compression
	// Data is the payload as stored, compressed according to Compression
	Data []byte
}

// VirtualMemoryArray holds the pixel data of one channel.
type VirtualMemoryArray struct {
	// Written is zero for an absent array. Any other value is preserved.
	Written uint32
	// Channel is nil for an absent or empty array
	Channel *Channel
}

// State returns the form the array is written in.
func (a *VirtualMemoryArray) State() State {
	switch {
	case a.Written == 0:
		return Absent
	case a.Channel == nil:
		return Empty
	}
	return Populated
}

// VirtualMemoryArrayList holds every channel of a pattern. Channels is the
// complete sequence including the two auxiliary channels.
type VirtualMemoryArrayList struct {
	Rectangle Rectangle
	Channels  []VirtualMemoryArray
}

// Pattern is a single pattern record.
type Pattern struct {
	Mode  ColorMode
	Point Point
	Name  string
	ID    string
	// ColorTable is non-nil exactly when Mode is Indexed
	ColorTable *ColorTable
	Data       VirtualMemoryArrayList
}

// Bounds returns the extent of the pattern's pixel data.
func (p *Pattern) Bounds() Rectangle {
	return p.Data.Rectangle
}
