package pattern

import (
	"bytes"
	"encoding/binary"
)

// fixture builds wire bytes by hand so tests don't depend on the encoder
type fixture struct {
	bytes.Buffer
}

func (f *fixture) u8(v uint8) *fixture {
	f.WriteByte(v)
	return f
}

func (f *fixture) u16(v uint16) *fixture {
	_ = binary.Write(&f.Buffer, binary.BigEndian, v)
	return f
}

func (f *fixture) i16(v int16) *fixture {
	_ = binary.Write(&f.Buffer, binary.BigEndian, v)
	return f
}

func (f *fixture) u32(v uint32) *fixture {
	_ = binary.Write(&f.Buffer, binary.BigEndian, v)
	return f
}

func (f *fixture) raw(b []byte) *fixture {
	f.Write(b)
	return f
}

func (f *fixture) rect(top, left, bottom, right uint32) *fixture {
	return f.u32(top).u32(left).u32(bottom).u32(right)
}

func (f *fixture) unicode(s string) *fixture {
	rs := []rune(s)
	f.u32(uint32(len(rs) + 1))
	for _, c := range rs {
		f.u16(uint16(c))
	}
	return f.u16(0)
}

func (f *fixture) pascal(s string) *fixture {
	return f.u8(uint8(len(s))).raw([]byte(s))
}

// framed prefixes body with its length and pads it
func (f *fixture) framed(body []byte, padding int) *fixture {
	f.u32(uint32(len(body))).raw(body)
	if rem := len(body) % padding; rem != 0 {
		f.raw(make([]byte, padding-rem))
	}
	return f
}

// populated is a populated array with an 8x8 rectangle
func populated(payload []byte) []byte {
	body := new(fixture).u32(8).rect(0, 0, 8, 8).u16(8).u8(uint8(Raw)).raw(payload)
	return new(fixture).u32(1).framed(body.Bytes(), 1).Bytes()
}

func arrayList(rect [4]uint32, declared uint32, arrays ...[]byte) []byte {
	body := new(fixture).rect(rect[0], rect[1], rect[2], rect[3]).u32(declared)
	for _, a := range arrays {
		body.raw(a)
	}
	return new(fixture).u32(arrayListVersion).framed(body.Bytes(), 4).Bytes()
}

func absent() []byte {
	return []byte{0, 0, 0, 0}
}

func grayRamp() []byte {
	b := make([]byte, 0, colorTableSize*3)
	for i := 0; i < colorTableSize; i++ {
		b = append(b, byte(i), byte(i), byte(i))
	}
	return b
}

func payload(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(0xa0 + i)
	}
	return b
}

// tilePattern is an unframed indexed pattern named "tile" with one populated
// channel carrying a ten byte payload
func tilePattern(reserved []byte) []byte {
	return new(fixture).
		u32(patternVersion).
		u32(uint32(Indexed)).
		i16(0).i16(0).
		unicode("tile").
		pascal("t1").
		raw(grayRamp()).raw(reserved).
		raw(arrayList([4]uint32{0, 0, 8, 8}, 1, populated(payload(10)), absent(), absent())).
		Bytes()
}

// rgbPattern is an unframed RGB pattern with three populated channels
func rgbPattern(name, id string) []byte {
	return new(fixture).
		u32(patternVersion).
		u32(uint32(RGB)).
		i16(-3).i16(7).
		unicode(name).
		pascal(id).
		raw(arrayList([4]uint32{0, 0, 8, 8}, 3,
			populated(payload(4)), populated(payload(5)), populated(payload(6)),
			absent(), new(fixture).u32(1).u32(0).Bytes())).
		Bytes()
}

func list(patterns ...[]byte) []byte {
	f := new(fixture)
	for _, p := range patterns {
		f.framed(p, 4)
	}
	return f.Bytes()
}
