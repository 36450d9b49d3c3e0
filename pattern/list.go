package pattern

import (
	"bytes"
	"fmt"
	"io"

	"github.com/bodgit/patterns/psdio"
)

// List is a sequence of patterns in on-disk order. It implements the
// encoding.BinaryMarshaler and encoding.BinaryUnmarshaler interfaces.
type List []Pattern

// ReadList reads length framed patterns from r until fewer than four bytes
// remain.
func ReadList(r *psdio.Reader) (List, error) {
	var l List
	for i := 0; r.Len() >= 4; i++ {
		br, err := r.ReadLengthBlock(listPadding)
		if err != nil {
			return nil, fmt.Errorf("pattern %d: %w", i, err)
		}
		p, err := ReadPattern(br)
		if err != nil {
			return nil, fmt.Errorf("pattern %d: %w", i, err)
		}
		l = append(l, *p)
	}
	return l, nil
}

// WriteList validates every pattern in l and then writes each one as a
// length framed record.
func WriteList(w *psdio.Writer, l List) error {
	for i := range l {
		if err := l[i].Validate(); err != nil {
			return fmt.Errorf("pattern %d: %w", i, err)
		}
	}
	for i := range l {
		p := &l[i]
		if err := w.WriteLengthBlock(listPadding, func(w *psdio.Writer) error {
			return writePattern(w, p)
		}); err != nil {
			return fmt.Errorf("pattern %d: %w", i, err)
		}
	}
	return nil
}

// MarshalBinary encodes the list.
func (l List) MarshalBinary() ([]byte, error) {
	b := new(bytes.Buffer)
	if err := WriteList(psdio.NewWriter(b), l); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// UnmarshalBinary decodes the list from b, replacing any existing patterns.
func (l *List) UnmarshalBinary(b []byte) error {
	list, err := ReadList(psdio.NewReader(b))
	if err != nil {
		return err
	}
	*l = list
	return nil
}

// DecodeList reads a list of length framed patterns from r until it is
// exhausted.
func DecodeList(r io.Reader) (List, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ReadList(psdio.NewReader(b))
}

// EncodeList writes l to w and returns the number of bytes written. Nothing
// is written if any pattern cannot be encoded.
func EncodeList(w io.Writer, l List) (int64, error) {
	b, err := l.MarshalBinary()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(b)
	return int64(n), err
}
