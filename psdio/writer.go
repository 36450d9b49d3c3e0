package psdio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"unicode/utf8"
)

// Writer writes big-endian fields to an underlying io.Writer and counts the
// bytes written.
type Writer struct {
	w io.Writer
	n int64
}

// NewWriter returns a Writer appending to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Written returns the number of bytes written so far.
func (w *Writer) Written() int64 {
	return w.n
}

// WriteBytes writes b as is.
func (w *Writer) WriteBytes(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	n, err := w.w.Write(b)
	w.n += int64(n)
	return err
}

// WriteUint8 writes an unsigned 8-bit integer.
func (w *Writer) WriteUint8(v uint8) error {
	return w.WriteBytes([]byte{v})
}

// WriteUint16 writes an unsigned 16-bit integer.
func (w *Writer) WriteUint16(v uint16) error {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return w.WriteBytes(b[:])
}

// WriteInt16 writes a signed 16-bit integer.
func (w *Writer) WriteInt16(v int16) error {
	return w.WriteUint16(uint16(v))
}

// WriteUint32 writes an unsigned 32-bit integer.
func (w *Writer) WriteUint32(v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return w.WriteBytes(b[:])
}

// WriteZeros writes n zero bytes.
func (w *Writer) WriteZeros(n int) error {
	if n <= 0 {
		return nil
	}
	return w.WriteBytes(make([]byte, n))
}

// WriteLengthBlock runs fn against a temporary buffer, then writes the
// buffer's length as a 32-bit integer, the buffer, and zero padding up to a
// multiple of padding. The length does not include the padding.
func (w *Writer) WriteLengthBlock(padding int, fn func(*Writer) error) error {
	var buf bytes.Buffer
	if err := fn(NewWriter(&buf)); err != nil {
		return err
	}
	if uint64(buf.Len()) > math.MaxUint32 {
		return fmt.Errorf("%w: block of %d bytes", ErrMalformedLength, buf.Len())
	}
	if err := w.WriteUint32(uint32(buf.Len())); err != nil {
		return err
	}
	if err := w.WriteBytes(buf.Bytes()); err != nil {
		return err
	}
	return w.WriteZeros(padBytes(buf.Len(), padding))
}

// WriteUnicodeString writes s as a 32-bit count of UTF-16 code units,
// including a NUL terminator, followed by the units.
func (w *Writer) WriteUnicodeString(s string) error {
	b, err := utf16.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidField, err)
	}
	if err := w.WriteUint32(uint32(len(b)/2 + 1)); err != nil {
		return err
	}
	if err := w.WriteBytes(b); err != nil {
		return err
	}
	return w.WriteUint16(0)
}

// ValidPascalString reports whether s can be written as a Pascal string.
func ValidPascalString(s string) error {
	if len(s) > math.MaxUint8 {
		return fmt.Errorf("%w: string of %d bytes is longer than %d", ErrInvalidField, len(s), math.MaxUint8)
	}
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return fmt.Errorf("%w: non-ASCII byte %#02x in string", ErrInvalidField, s[i])
		}
	}
	return nil
}

// WritePascalString writes s as a single byte length followed by its
// characters, zero padded so the whole field is a multiple of padding.
func (w *Writer) WritePascalString(s string, padding int) error {
	if err := ValidPascalString(s); err != nil {
		return err
	}
	if err := w.WriteUint8(uint8(len(s))); err != nil {
		return err
	}
	if err := w.WriteBytes([]byte(s)); err != nil {
		return err
	}
	return w.WriteZeros(padBytes(1+len(s), padding))
}
