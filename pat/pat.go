/*
Package pat implements the standalone pattern file.

A pattern file starts with the four byte signature "8BPT", a 16-bit version
which is always 1 and a 32-bit count of patterns. The patterns follow one after
another without any length framing.
*/
package pat

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/bodgit/patterns/pattern"
	"github.com/bodgit/patterns/psdio"
)

const (
	// Extension is the usual filename extension of a pattern file
	Extension = ".pat"

	signature = "8BPT"
	version   = 1
)

// ErrBadSignature is returned when the input is not a pattern file.
var ErrBadSignature = errors.New("pat: invalid signature")

// File is a pattern file. It implements the encoding.BinaryMarshaler and
// encoding.BinaryUnmarshaler interfaces.
type File struct {
	Patterns pattern.List
}

// New returns a pattern file holding the given patterns
func New(patterns ...pattern.Pattern) *File {
	return &File{
		Patterns: patterns,
	}
}

// Length returns the number of patterns in the file
func (f *File) Length() int {
	return len(f.Patterns)
}

// Add appends a pattern to the file
func (f *File) Add(p pattern.Pattern) {
	f.Patterns = append(f.Patterns, p)
}

// IsPatternFile reports whether b starts with the pattern file signature.
func IsPatternFile(b []byte) bool {
	return bytes.HasPrefix(b, []byte(signature))
}

// MarshalBinary encodes the file into binary form and returns the result
func (f *File) MarshalBinary() ([]byte, error) {
	if uint64(len(f.Patterns)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d patterns", pattern.ErrInvalidField, len(f.Patterns))
	}

	b := new(bytes.Buffer)
	w := psdio.NewWriter(b)

	if err := w.WriteBytes([]byte(signature)); err != nil {
		return nil, err
	}
	if err := w.WriteUint16(version); err != nil {
		return nil, err
	}
	if err := w.WriteUint32(uint32(len(f.Patterns))); err != nil {
		return nil, err
	}

	for i := range f.Patterns {
		if err := pattern.WritePattern(w, &f.Patterns[i]); err != nil {
			return nil, fmt.Errorf("pattern %d: %w", i, err)
		}
	}

	return b.Bytes(), nil
}

// UnmarshalBinary decodes the file from binary form. Anything following the
// last pattern is ignored.
func (f *File) UnmarshalBinary(b []byte) error {
	r := psdio.NewReader(b)

	sig, err := r.ReadBytes(len(signature))
	if err != nil {
		return err
	}
	if string(sig) != signature {
		return ErrBadSignature
	}

	v, err := r.ReadUint16()
	if err != nil {
		return err
	}
	if v != version {
		return fmt.Errorf("%w: pattern file version %d", pattern.ErrUnsupportedVersion, v)
	}

	n, err := r.ReadUint32()
	if err != nil {
		return err
	}

	f.Patterns = nil
	for i := uint32(0); i < n; i++ {
		p, err := pattern.ReadPattern(r)
		if err != nil {
			return fmt.Errorf("pattern %d: %w", i, err)
		}
		f.Patterns = append(f.Patterns, *p)
	}

	return nil
}

// Decode reads a pattern file from r.
func Decode(r io.Reader) (*File, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f := new(File)
	if err := f.UnmarshalBinary(b); err != nil {
		return nil, err
	}
	return f, nil
}

// Encode writes f to w. Nothing is written if any pattern cannot be encoded.
func Encode(w io.Writer, f *File) error {
	b, err := f.MarshalBinary()
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}
