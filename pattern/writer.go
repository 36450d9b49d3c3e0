package pattern

import (
	"bytes"
	"fmt"
	"io"

	"github.com/bodgit/patterns/psdio"
)

// Validate checks that p can be encoded. Encoding never writes anything for
// a pattern that fails validation.
func (p *Pattern) Validate() error {
	if !p.Mode.Valid() {
		return fmt.Errorf("%w: color mode %d", ErrInvalidField, uint32(p.Mode))
	}
	switch {
	case hasColorTable(p.Mode) && p.ColorTable == nil:
		return fmt.Errorf("%w: %s pattern without a color table", ErrInvalidField, p.Mode)
	case !hasColorTable(p.Mode) && p.ColorTable != nil:
		return fmt.Errorf("%w: %s pattern with a color table", ErrInvalidField, p.Mode)
	}
	if err := psdio.ValidPascalString(p.ID); err != nil {
		return fmt.Errorf("identifier: %w", err)
	}
	if len(p.Data.Channels) < extraChannels {
		return fmt.Errorf("%w: %d channels, need at least %d", ErrInvalidField, len(p.Data.Channels), extraChannels)
	}
	return nil
}

func writeRectangle(w *psdio.Writer, r Rectangle) error {
	for _, v := range []uint32{r.Top, r.Left, r.Bottom, r.Right} {
		if err := w.WriteUint32(v); err != nil {
			return err
		}
	}
	return nil
}

func writeChannel(w *psdio.Writer, c *Channel) error {
	if err := w.WriteUint32(c.Depth); err != nil {
		return err
	}
	if err := writeRectangle(w, c.Rectangle); err != nil {
		return err
	}
	if err := w.WriteUint16(c.PixelDepth); err != nil {
		return err
	}
	if err := w.WriteUint8(uint8(c.Compression)); err != nil {
		return err
	}
	return w.WriteBytes(c.Data)
}

func writeArray(w *psdio.Writer, a *VirtualMemoryArray) error {
	if err := w.WriteUint32(a.Written); err != nil {
		return err
	}
	switch a.State() {
	case Absent:
		return nil
	case Empty:
		return w.WriteUint32(0)
	}
	// The length is always recomputed from the payload
	return w.WriteLengthBlock(arrayPadding, func(w *psdio.Writer) error {
		return writeChannel(w, a.Channel)
	})
}

func writeArrayList(w *psdio.Writer, l *VirtualMemoryArrayList) error {
	if err := w.WriteUint32(arrayListVersion); err != nil {
		return err
	}
	return w.WriteLengthBlock(arrayListPadding, func(w *psdio.Writer) error {
		if err := writeRectangle(w, l.Rectangle); err != nil {
			return err
		}
		if err := w.WriteUint32(uint32(len(l.Channels) - extraChannels)); err != nil {
			return err
		}
		for i := range l.Channels {
			if err := writeArray(w, &l.Channels[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeColorTable(w *psdio.Writer, ct *ColorTable) error {
	b := make([]byte, 0, colorTableSize*3+colorTableReserved)
	for _, c := range ct.Colors {
		b = append(b, c[:]...)
	}
	b = append(b, ct.Reserved[:]...)
	return w.WriteBytes(b)
}

func writePattern(w *psdio.Writer, p *Pattern) error {
	if err := w.WriteUint32(patternVersion); err != nil {
		return err
	}
	if err := w.WriteUint32(uint32(p.Mode)); err != nil {
		return err
	}
	if err := w.WriteInt16(p.Point.Vertical); err != nil {
		return err
	}
	if err := w.WriteInt16(p.Point.Horizontal); err != nil {
		return err
	}
	if err := w.WriteUnicodeString(p.Name); err != nil {
		return err
	}
	if err := w.WritePascalString(p.ID, idPadding); err != nil {
		return err
	}
	if hasColorTable(p.Mode) {
		if err := writeColorTable(w, p.ColorTable); err != nil {
			return err
		}
	}
	return writeArrayList(w, &p.Data)
}

// WritePattern validates p and writes it to w as a single unframed record.
func WritePattern(w *psdio.Writer, p *Pattern) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return writePattern(w, p)
}

// MarshalBinary encodes p as a single unframed pattern record.
func (p *Pattern) MarshalBinary() ([]byte, error) {
	b := new(bytes.Buffer)
	if err := WritePattern(psdio.NewWriter(b), p); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// Encode writes p to w as a single unframed pattern record. Nothing is
// written if p cannot be encoded.
func Encode(w io.Writer, p *Pattern) error {
	b, err := p.MarshalBinary()
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}
