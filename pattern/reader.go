package pattern

import (
	"fmt"
	"io"

	"github.com/bodgit/patterns/psdio"
)

func readRectangle(r *psdio.Reader) (rect Rectangle, err error) {
	for _, v := range []*uint32{&rect.Top, &rect.Left, &rect.Bottom, &rect.Right} {
		if *v, err = r.ReadUint32(); err != nil {
			return Rectangle{}, err
		}
	}
	return rect, nil
}

func readChannel(r *psdio.Reader) (*Channel, error) {
	var (
		c   Channel
		err error
	)
	if c.Depth, err = r.ReadUint32(); err != nil {
		return nil, err
	}
	if c.Rectangle, err = readRectangle(r); err != nil {
		return nil, err
	}
	if c.PixelDepth, err = r.ReadUint16(); err != nil {
		return nil, err
	}
	compression, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	c.Compression = Compression(compression)
	if c.Data, err = r.ReadBytes(r.Len()); err != nil {
		return nil, err
	}
	return &c, nil
}

func readArray(r *psdio.Reader) (VirtualMemoryArray, error) {
	var (
		a   VirtualMemoryArray
		err error
	)
	if a.Written, err = r.ReadUint32(); err != nil || a.Written == 0 {
		return a, err
	}

	length, err := r.ReadUint32()
	if err != nil || length == 0 {
		return a, err
	}
	if length < arrayHeaderSize {
		return a, fmt.Errorf("%w: array length %d is shorter than its %d byte header", ErrMalformedLength, length, arrayHeaderSize)
	}

	br, err := r.ReadBlock(length, arrayPadding)
	if err != nil {
		return a, err
	}
	a.Channel, err = readChannel(br)
	return a, err
}

func readArrayList(r *psdio.Reader) (VirtualMemoryArrayList, error) {
	var l VirtualMemoryArrayList

	version, err := r.ReadUint32()
	if err != nil {
		return l, err
	}
	if version != arrayListVersion {
		return l, fmt.Errorf("%w: virtual memory array list version %d", ErrUnsupportedVersion, version)
	}

	br, err := r.ReadLengthBlock(arrayListPadding)
	if err != nil {
		return l, err
	}
	if l.Rectangle, err = readRectangle(br); err != nil {
		return l, err
	}
	n, err := br.ReadUint32()
	if err != nil {
		return l, err
	}

	// Every array is at least a four byte flag
	count := uint64(n) + extraChannels
	if count*4 > uint64(br.Len()) {
		return l, fmt.Errorf("%w: %d arrays declared in %d bytes", ErrTruncated, count, br.Len())
	}

	l.Channels = make([]VirtualMemoryArray, 0, count)
	for i := uint64(0); i < count; i++ {
		a, err := readArray(br)
		if err != nil {
			return l, fmt.Errorf("array %d: %w", i, err)
		}
		l.Channels = append(l.Channels, a)
	}

	return l, nil
}

func readColorTable(r *psdio.Reader) (*ColorTable, error) {
	b, err := r.ReadBytes(colorTableSize*3 + colorTableReserved)
	if err != nil {
		return nil, err
	}
	ct := new(ColorTable)
	for i := range ct.Colors {
		copy(ct.Colors[i][:], b[i*3:])
	}
	copy(ct.Reserved[:], b[colorTableSize*3:])
	return ct, nil
}

// ReadPattern reads a single unframed pattern record from r.
func ReadPattern(r *psdio.Reader) (*Pattern, error) {
	p := new(Pattern)

	version, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	if version != patternVersion {
		return nil, fmt.Errorf("%w: pattern version %d", ErrUnsupportedVersion, version)
	}

	mode, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	p.Mode = ColorMode(mode)
	if !p.Mode.Valid() {
		return nil, fmt.Errorf("%w: color mode %d", ErrInvalidField, mode)
	}

	if p.Point.Vertical, err = r.ReadInt16(); err != nil {
		return nil, err
	}
	if p.Point.Horizontal, err = r.ReadInt16(); err != nil {
		return nil, err
	}

	if p.Name, err = r.ReadUnicodeString(); err != nil {
		return nil, fmt.Errorf("name: %w", err)
	}
	if p.ID, err = r.ReadPascalString(idPadding); err != nil {
		return nil, fmt.Errorf("identifier: %w", err)
	}

	if hasColorTable(p.Mode) {
		if p.ColorTable, err = readColorTable(r); err != nil {
			return nil, fmt.Errorf("color table: %w", err)
		}
	}

	if p.Data, err = readArrayList(r); err != nil {
		return nil, err
	}

	return p, nil
}

// Decode reads a single unframed pattern record from r.
func Decode(r io.Reader) (*Pattern, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ReadPattern(psdio.NewReader(b))
}

// UnmarshalBinary decodes a single unframed pattern record. Bytes following
// the record are ignored.
func (p *Pattern) UnmarshalBinary(b []byte) error {
	q, err := ReadPattern(psdio.NewReader(b))
	if err != nil {
		return err
	}
	*p = *q
	return nil
}
