package pattern

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/ericpauley/go-quantize/quantize"
)

const (
	sampleDepth   = 8
	channelMarker = 1
)

var errEmptyImage = errors.New("pattern: empty image")

// paletted returns m as a paletted image with no more than colorTableSize
// colors, quantizing it if necessary.
func paletted(m image.Image) *image.Paletted {
	b := m.Bounds()

	pm, _ := m.(*image.Paletted)
	if pm == nil {
		if cp, ok := m.ColorModel().(color.Palette); ok {
			pm = image.NewPaletted(b, cp)
			for y := b.Min.Y; y < b.Max.Y; y++ {
				for x := b.Min.X; x < b.Max.X; x++ {
					pm.Set(x, y, cp.Convert(m.At(x, y)))
				}
			}
		}
	}

	if pm == nil || len(pm.Palette) > colorTableSize {
		q := quantize.MedianCutQuantizer{}
		pm = image.NewPaletted(b, q.Quantize(make(color.Palette, 0, colorTableSize), m))
		draw.Draw(pm, b, m, b.Min, draw.Src)
	}

	return pm
}

func newColorTable(p color.Palette) *ColorTable {
	ct := new(ColorTable)
	for i, c := range p {
		n := color.NRGBAModel.Convert(c).(color.NRGBA)
		ct.Colors[i] = [3]uint8{n.R, n.G, n.B}
	}
	return ct
}

// planes splits m into one row-major sample plane per color channel
func planes(m image.Image, mode ColorMode) ([][]byte, *ColorTable, error) {
	b := m.Bounds()
	n := b.Dx() * b.Dy()

	switch mode {
	case Grayscale:
		gray := make([]byte, 0, n)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				gray = append(gray, color.GrayModel.Convert(m.At(x, y)).(color.Gray).Y)
			}
		}
		return [][]byte{gray}, nil, nil
	case RGB:
		r, g, bl := make([]byte, 0, n), make([]byte, 0, n), make([]byte, 0, n)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := color.NRGBAModel.Convert(m.At(x, y)).(color.NRGBA)
				r, g, bl = append(r, c.R), append(g, c.G), append(bl, c.B)
			}
		}
		return [][]byte{r, g, bl}, nil, nil
	case Indexed:
		pm := paletted(m)
		idx := make([]byte, 0, n)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			idx = append(idx, pm.Pix[pm.PixOffset(b.Min.X, y):pm.PixOffset(b.Max.X, y)]...)
		}
		return [][]byte{idx}, newColorTable(pm.Palette), nil
	}

	return nil, nil, fmt.Errorf("%w: cannot build a %s pattern from an image", ErrInvalidField, mode)
}

// FromImage builds a pattern from m in the given color mode, which must be
// Grayscale, RGB or Indexed. Every color channel is stored uncompressed with
// eight bits per sample and the two auxiliary channels are left absent.
// Indexed patterns reuse the palette of m when it has no more than 256
// colors, otherwise the image is quantized.
func FromImage(name, id string, m image.Image, mode ColorMode) (*Pattern, error) {
	b := m.Bounds()
	if b.Empty() {
		return nil, errEmptyImage
	}

	samples, ct, err := planes(m, mode)
	if err != nil {
		return nil, err
	}

	rect := Rectangle{Bottom: uint32(b.Dy()), Right: uint32(b.Dx())}

	channels := make([]VirtualMemoryArray, 0, len(samples)+extraChannels)
	for _, s := range samples {
		channels = append(channels, VirtualMemoryArray{
			Written: channelMarker,
			Channel: &Channel{
				Depth:       sampleDepth,
				Rectangle:   rect,
				PixelDepth:  sampleDepth,
				Compression: Raw,
				Data:        s,
			},
		})
	}
	channels = append(channels, make([]VirtualMemoryArray, extraChannels)...)

	p := &Pattern{
		Mode:       mode,
		Name:       name,
		ID:         id,
		ColorTable: ct,
		Data: VirtualMemoryArrayList{
			Rectangle: rect,
			Channels:  channels,
		},
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return p, nil
}
