/*
Package psdio implements the primitive field codecs shared by the records of a
layered image document, along with the length prefixed block framing most of
those records are wrapped in.

All integers are big-endian. Text is either a length prefixed run of UTF-16
code units or a Pascal string of single byte ASCII characters padded to a
caller supplied alignment.
*/
package psdio

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

var utf16 = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

// padBytes returns the number of bytes needed to round size up to the next
// multiple of alignment.
func padBytes(size, alignment int) int {
	if alignment <= 1 {
		return 0
	}
	return (alignment - size%alignment) % alignment
}

// Reader is a cursor over an in-memory byte slice.
type Reader struct {
	b   []byte
	off int
}

// NewReader returns a Reader positioned at the start of b.
func NewReader(b []byte) *Reader {
	return &Reader{b: b}
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	return len(r.b) - r.off
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int {
	return r.off
}

// Bytes returns the unread portion of the input without consuming it.
func (r *Reader) Bytes() []byte {
	return r.b[r.off:]
}

func (r *Reader) next(n int) ([]byte, error) {
	if n < 0 || n > r.Len() {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncated, n, r.off, r.Len())
	}
	b := r.b[r.off : r.off+n : r.off+n]
	r.off += n
	return b, nil
}

// ReadBytes reads exactly n bytes and returns a copy of them.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	b, err := r.next(n)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return append([]byte(nil), b...), nil
}

// Skip discards exactly n bytes.
func (r *Reader) Skip(n int) error {
	_, err := r.next(n)
	return err
}

// ReadUint8 reads an unsigned 8-bit integer.
func (r *Reader) ReadUint8() (uint8, error) {
	b, err := r.next(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadUint16 reads an unsigned 16-bit integer.
func (r *Reader) ReadUint16() (uint16, error) {
	b, err := r.next(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// ReadInt16 reads a signed 16-bit integer.
func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.ReadUint16()
	return int16(v), err
}

// ReadUint32 reads an unsigned 32-bit integer.
func (r *Reader) ReadUint32() (uint32, error) {
	b, err := r.next(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// ReadBlock takes the next n bytes as a new Reader and then discards the
// padding that rounds n up to a multiple of padding. The padding must be
// present.
func (r *Reader) ReadBlock(n uint32, padding int) (*Reader, error) {
	pad := padBytes(int(uint64(n)%uint64(max(padding, 1))), padding)
	if uint64(n)+uint64(pad) > uint64(r.Len()) {
		return nil, fmt.Errorf("%w: block of %d bytes and %d bytes padding at offset %d, have %d", ErrTruncated, n, pad, r.off, r.Len())
	}
	b, _ := r.next(int(n))
	r.off += pad
	return NewReader(b), nil
}

// ReadLengthBlock reads a 32-bit length followed by that many bytes, see
// ReadBlock.
func (r *Reader) ReadLengthBlock(padding int) (*Reader, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	return r.ReadBlock(n, padding)
}

// ReadUnicodeString reads a 32-bit count of UTF-16 code units followed by
// the units themselves. The last unit must be the NUL terminator, which is
// removed; any NULs before it are part of the string.
func (r *Reader) ReadUnicodeString() (string, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", fmt.Errorf("%w: string at offset %d has no terminator", ErrMalformedLength, r.off-4)
	}
	if uint64(n)*2 > uint64(r.Len()) {
		return "", fmt.Errorf("%w: string of %d units at offset %d, have %d bytes", ErrTruncated, n, r.off, r.Len())
	}
	b, _ := r.next(int(n) * 2)
	if binary.BigEndian.Uint16(b[len(b)-2:]) != 0 {
		return "", fmt.Errorf("%w: string of %d units is not terminated", ErrMalformedLength, n)
	}
	b = b[:len(b)-2]
	if err := validUTF16(b); err != nil {
		return "", err
	}
	s, err := utf16.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidField, err)
	}
	return string(s), nil
}

// validUTF16 rejects unpaired surrogates.
func validUTF16(b []byte) error {
	for i := 0; i < len(b); i += 2 {
		u := binary.BigEndian.Uint16(b[i:])
		switch {
		case u >= 0xd800 && u < 0xdc00:
			if i+4 <= len(b) {
				if v := binary.BigEndian.Uint16(b[i+2:]); v >= 0xdc00 && v < 0xe000 {
					i += 2
					continue
				}
			}
			fallthrough
		case u >= 0xdc00 && u < 0xe000:
			return fmt.Errorf("%w: unpaired surrogate %#04x in string", ErrInvalidField, u)
		}
	}
	return nil
}

// ReadPascalString reads a single byte length followed by that many ASCII
// characters. The field, length byte included, is padded to a multiple of
// padding.
func (r *Reader) ReadPascalString(padding int) (string, error) {
	n, err := r.ReadUint8()
	if err != nil {
		return "", err
	}
	b, err := r.next(int(n))
	if err != nil {
		return "", err
	}
	for _, c := range b {
		if c >= utf8.RuneSelf {
			return "", fmt.Errorf("%w: non-ASCII byte %#02x in string", ErrInvalidField, c)
		}
	}
	if err := r.Skip(padBytes(1+int(n), padding)); err != nil {
		return "", err
	}
	return string(b), nil
}
