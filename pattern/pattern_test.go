package pattern

import (
	"bytes"
	"errors"
	"testing"

	"github.com/bodgit/patterns/psdio"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTilePattern(t *testing.T) {
	in := list(tilePattern([]byte{0, 0, 0, 0}))

	l, err := DecodeList(bytes.NewReader(in))
	require.NoError(t, err)
	require.Len(t, l, 1)

	p := l[0]
	assert.Equal(t, "tile", p.Name)
	assert.Equal(t, "t1", p.ID)
	assert.Equal(t, Indexed, p.Mode)
	assert.Equal(t, Point{}, p.Point)
	require.NotNil(t, p.ColorTable)
	assert.Len(t, p.ColorTable.Colors, 256)
	assert.Equal(t, [3]uint8{0x80, 0x80, 0x80}, p.ColorTable.Colors[0x80])
	assert.Equal(t, Rectangle{Bottom: 8, Right: 8}, p.Bounds())

	require.Len(t, p.Data.Channels, 3)
	assert.Equal(t, Populated, p.Data.Channels[0].State())
	assert.Equal(t, Absent, p.Data.Channels[1].State())
	assert.Equal(t, Absent, p.Data.Channels[2].State())

	c := p.Data.Channels[0].Channel
	assert.Equal(t, uint32(8), c.Depth)
	assert.Equal(t, uint16(8), c.PixelDepth)
	assert.Equal(t, Raw, c.Compression)
	assert.Equal(t, payload(10), c.Data)
	assert.Equal(t, 8, c.Rectangle.Dx())
	assert.Equal(t, 8, c.Rectangle.Dy())

	b := new(bytes.Buffer)
	n, err := EncodeList(b, l)
	require.NoError(t, err)
	assert.Equal(t, int64(len(in)), n)
	assert.Equal(t, in, b.Bytes())
}

func TestRoundTrip(t *testing.T) {
	tables := map[string][]byte{
		"indexed":           list(tilePattern([]byte{0, 0, 0, 0})),
		"reserved bytes":    list(tilePattern([]byte{0xde, 0xad, 0xbe, 0xef})),
		"rgb":               list(rgbPattern("stripes", "b7334da0-122f-11d4-8bb5-e27e45023b5f")),
		"multiple":          list(rgbPattern("a", "1"), tilePattern([]byte{1, 2, 3, 4}), rgbPattern("", "")),
		"non-ASCII name":    list(rgbPattern("Motiv ü", "x")),
		"odd-length record": list(rgbPattern("abc", "odd")),
	}

	for name, in := range tables {
		t.Run(name, func(t *testing.T) {
			var l List
			require.NoError(t, l.UnmarshalBinary(in))

			out, err := l.MarshalBinary()
			require.NoError(t, err)
			assert.Equal(t, in, out)

			var again List
			require.NoError(t, again.UnmarshalBinary(out))
			if diff := cmp.Diff(l, again); diff != "" {
				t.Errorf("decode(encode(decode(b))) mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReservedBytesPreserved(t *testing.T) {
	var p Pattern
	require.NoError(t, p.UnmarshalBinary(tilePattern([]byte{0xde, 0xad, 0xbe, 0xef})))
	assert.Equal(t, [4]byte{0xde, 0xad, 0xbe, 0xef}, p.ColorTable.Reserved)
}

func TestSinglePattern(t *testing.T) {
	in := rgbPattern("single", "s")

	p, err := Decode(bytes.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, RGB, p.Mode)
	assert.Equal(t, Point{Vertical: -3, Horizontal: 7}, p.Point)
	assert.Nil(t, p.ColorTable)
	require.Len(t, p.Data.Channels, 5)
	assert.Equal(t, Empty, p.Data.Channels[4].State())

	b := new(bytes.Buffer)
	require.NoError(t, Encode(b, p))
	assert.Equal(t, in, b.Bytes())
}

func TestColorTableSize(t *testing.T) {
	var p Pattern
	require.NoError(t, p.UnmarshalBinary(tilePattern([]byte{0, 0, 0, 0})))

	indexed, err := p.MarshalBinary()
	require.NoError(t, err)

	p.Mode = Grayscale
	p.ColorTable = nil
	gray, err := p.MarshalBinary()
	require.NoError(t, err)

	assert.Equal(t, 772, len(indexed)-len(gray))
}

func TestVersionGuard(t *testing.T) {
	wellFormed := rgbPattern("v", "v")

	badPattern := append([]byte(nil), wellFormed...)
	badPattern[3] = 2

	var p Pattern
	err := p.UnmarshalBinary(badPattern)
	assert.True(t, errors.Is(err, ErrUnsupportedVersion))

	_, err = DecodeList(bytes.NewReader(list(badPattern)))
	assert.True(t, errors.Is(err, ErrUnsupportedVersion))

	// The array list version follows the identifier
	badList := new(fixture).
		u32(patternVersion).u32(uint32(Grayscale)).i16(0).i16(0).unicode("").pascal("").
		u32(4).framed(new(fixture).rect(0, 0, 1, 1).u32(0).raw(absent()).raw(absent()).Bytes(), 4).
		Bytes()
	err = p.UnmarshalBinary(badList)
	assert.True(t, errors.Is(err, ErrUnsupportedVersion))
}

func TestInvalidColorMode(t *testing.T) {
	for _, mode := range []uint32{5, 6, 10, 0xffffffff} {
		in := rgbPattern("m", "m")
		in[4], in[5], in[6], in[7] = byte(mode>>24), byte(mode>>16), byte(mode>>8), byte(mode)

		var p Pattern
		err := p.UnmarshalBinary(in)
		assert.True(t, errors.Is(err, ErrInvalidField), "mode %d", mode)
	}
}

func TestTruncated(t *testing.T) {
	in := tilePattern([]byte{0, 0, 0, 0})

	// Every prefix of a record is an error, never a partial pattern
	for _, n := range []int{0, 3, 8, 12, 20, 30, 500, 800, len(in) - 4} {
		var p Pattern
		err := p.UnmarshalBinary(in[:n])
		assert.True(t, errors.Is(err, ErrTruncated), "prefix %d: %v", n, err)
	}

	framed := list(in)
	_, err := DecodeList(bytes.NewReader(framed[:len(framed)-10]))
	assert.True(t, errors.Is(err, ErrTruncated))
}

func TestArrayForms(t *testing.T) {
	tables := []struct {
		name  string
		in    []byte
		state State
	}{
		{"absent", []byte{0, 0, 0, 0}, Absent},
		{"empty", []byte{0, 0, 0, 1, 0, 0, 0, 0}, Empty},
		{"empty with marker", []byte{0, 0, 0, 7, 0, 0, 0, 0}, Empty},
		{"populated", populated(payload(3)), Populated},
		{"populated without payload", populated(nil), Populated},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			r := psdio.NewReader(table.in)
			a, err := readArray(r)
			require.NoError(t, err)
			assert.Equal(t, table.state, a.State())
			assert.Equal(t, 0, r.Len())

			b := new(bytes.Buffer)
			require.NoError(t, writeArray(psdio.NewWriter(b), &a))
			assert.Equal(t, table.in, b.Bytes())
		})
	}
}

func TestArrayMalformedLength(t *testing.T) {
	for _, length := range []uint32{1, 22} {
		in := new(fixture).u32(1).u32(length).raw(make([]byte, 40)).Bytes()
		_, err := readArray(psdio.NewReader(in))
		assert.True(t, errors.Is(err, ErrMalformedLength), "length %d", length)
	}

	in := new(fixture).u32(1).u32(23 + 100).raw(make([]byte, 40)).Bytes()
	_, err := readArray(psdio.NewReader(in))
	assert.True(t, errors.Is(err, ErrTruncated))
}

func TestArrayLengthRecomputed(t *testing.T) {
	a := VirtualMemoryArray{
		Written: 1,
		Channel: &Channel{
			Depth:      8,
			Rectangle:  Rectangle{Bottom: 2, Right: 2},
			PixelDepth: 8,
			Data:       payload(7),
		},
	}

	b := new(bytes.Buffer)
	require.NoError(t, writeArray(psdio.NewWriter(b), &a))
	assert.Equal(t, []byte{0, 0, 0, 1, 0, 0, 0, 30}, b.Bytes()[:8])
	assert.Equal(t, 8+30, b.Len())
}

func TestChannelCount(t *testing.T) {
	arrays := [][]byte{populated(payload(1)), populated(payload(2)), populated(payload(3)), absent(), absent()}
	in := arrayList([4]uint32{1, 2, 3, 4}, 3, arrays...)

	l, err := readArrayList(psdio.NewReader(in))
	require.NoError(t, err)
	assert.Len(t, l.Channels, 5)
	assert.Equal(t, Rectangle{1, 2, 3, 4}, l.Rectangle)

	l.Channels = append(l.Channels, VirtualMemoryArray{})
	b := new(bytes.Buffer)
	require.NoError(t, writeArrayList(psdio.NewWriter(b), &l))

	// version, length, rectangle, then the count
	r := psdio.NewReader(b.Bytes()[4+4+16:])
	n, err := r.ReadUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(4), n)

	// A declared count that cannot fit is refused before allocating
	in = arrayList([4]uint32{}, 0xfffffff0, absent(), absent())
	_, err = readArrayList(psdio.NewReader(in))
	assert.True(t, errors.Is(err, ErrTruncated))
}

func TestEmptyList(t *testing.T) {
	l, err := DecodeList(bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Len(t, l, 0)

	b := new(bytes.Buffer)
	n, err := EncodeList(b, l)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	assert.Equal(t, 0, b.Len())
}

func TestListTrailingBytes(t *testing.T) {
	in := append(list(rgbPattern("a", "a")), 0, 0, 0)

	l, err := DecodeList(bytes.NewReader(in))
	require.NoError(t, err)
	assert.Len(t, l, 1)
}

func TestRecordTrailingBytesDropped(t *testing.T) {
	record := append(rgbPattern("a", "a"), 0xff, 0xff)

	l, err := DecodeList(bytes.NewReader(list(record)))
	require.NoError(t, err)
	require.Len(t, l, 1)

	out, err := l.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, list(rgbPattern("a", "a")), out)
}

func TestEncodeRejectsInvalid(t *testing.T) {
	var valid Pattern
	require.NoError(t, valid.UnmarshalBinary(rgbPattern("ok", "ok")))

	tables := []struct {
		name   string
		mutate func(*Pattern)
	}{
		{"unknown mode", func(p *Pattern) { p.Mode = 42 }},
		{"indexed without table", func(p *Pattern) { p.Mode = Indexed }},
		{"rgb with table", func(p *Pattern) { p.ColorTable = new(ColorTable) }},
		{"too few channels", func(p *Pattern) { p.Data.Channels = p.Data.Channels[:1] }},
		{"non-ASCII identifier", func(p *Pattern) { p.ID = "ünique" }},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			p := valid
			p.Data.Channels = append([]VirtualMemoryArray(nil), valid.Data.Channels...)
			table.mutate(&p)

			b := new(bytes.Buffer)
			err := Encode(b, &p)
			assert.True(t, errors.Is(err, ErrInvalidField))
			assert.Equal(t, 0, b.Len())

			n, err := EncodeList(b, List{valid, p})
			assert.True(t, errors.Is(err, ErrInvalidField))
			assert.Equal(t, int64(0), n)
			assert.Equal(t, 0, b.Len())
		})
	}
}

func TestParseColorMode(t *testing.T) {
	for _, m := range []ColorMode{Bitmap, Grayscale, Indexed, RGB, CMYK, Multichannel, Duotone, Lab} {
		got, err := ParseColorMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}

	got, err := ParseColorMode("RGB")
	require.NoError(t, err)
	assert.Equal(t, RGB, got)

	_, err = ParseColorMode("sepia")
	assert.True(t, errors.Is(err, ErrInvalidField))

	assert.Equal(t, "ColorMode(5)", ColorMode(5).String())
	assert.False(t, ColorMode(5).Valid())
}

// grayPattern is an unframed grayscale pattern whose name field is given as
// raw wire bytes
func grayPattern(name []byte) []byte {
	return new(fixture).
		u32(patternVersion).
		u32(uint32(Grayscale)).
		i16(1).i16(2).
		raw(name).
		pascal("g").
		raw(arrayList([4]uint32{0, 0, 8, 8}, 1, populated(payload(3)), absent(), absent())).
		Bytes()
}

func TestNameRoundTrip(t *testing.T) {
	tables := []struct {
		name string
		in   []byte
		want string
	}{
		{"embedded nul", []byte{0, 0, 0, 3, 0, 'a', 0, 0, 0, 0}, "a\x00"},
		{"only nuls", []byte{0, 0, 0, 3, 0, 0, 0, 0, 0, 0}, "\x00\x00"},
		{"surrogate pair", []byte{0, 0, 0, 3, 0xd8, 0x34, 0xdd, 0x1e, 0, 0}, "\U0001d11e"},
		{"replacement character", []byte{0, 0, 0, 2, 0xff, 0xfd, 0, 0}, "�"},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			in := list(grayPattern(table.in))

			var l List
			require.NoError(t, l.UnmarshalBinary(in))
			require.Len(t, l, 1)
			assert.Equal(t, table.want, l[0].Name)

			out, err := l.MarshalBinary()
			require.NoError(t, err)
			assert.Equal(t, in, out)
		})
	}
}

func TestNameRejected(t *testing.T) {
	tables := []struct {
		name string
		in   []byte
		err  error
	}{
		{"zero count", []byte{0, 0, 0, 0}, ErrMalformedLength},
		{"unterminated", []byte{0, 0, 0, 2, 0, 'o', 0, 'k'}, ErrMalformedLength},
		{"lone high surrogate", []byte{0, 0, 0, 2, 0xd8, 0x34, 0, 0}, ErrInvalidField},
		{"lone low surrogate", []byte{0, 0, 0, 3, 0, 'a', 0xdc, 0x00, 0, 0}, ErrInvalidField},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			_, err := DecodeList(bytes.NewReader(list(grayPattern(table.in))))
			assert.True(t, errors.Is(err, table.err), "%v", err)
		})
	}
}

func TestArrayListPaddingMissing(t *testing.T) {
	// 62 byte body needing two bytes of padding that aren't there
	body := new(fixture).rect(0, 0, 8, 8).u32(1).
		raw(populated(payload(3))).raw(absent()).raw(absent())
	require.Equal(t, 62, body.Len())

	record := new(fixture).
		u32(patternVersion).
		u32(uint32(Grayscale)).
		i16(1).i16(2).
		unicode("g").
		pascal("g").
		u32(arrayListVersion).u32(uint32(body.Len())).raw(body.Bytes()).
		Bytes()

	var p Pattern
	assert.True(t, errors.Is(p.UnmarshalBinary(record), ErrTruncated))

	_, err := DecodeList(bytes.NewReader(list(record)))
	assert.True(t, errors.Is(err, ErrTruncated))

	padded := append(append([]byte(nil), record...), 0, 0)
	require.NoError(t, p.UnmarshalBinary(padded))
	out, err := p.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, padded, out)
}
