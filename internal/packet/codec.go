// Package packet implements the length-prefixed record streams that make up
// a telemetry log.
//
// Every packet is laid out as
//
//	[tag:u8][length:u32][count:u16][count x record]
//
// where length covers the count field and all records. All values are
// little-endian. Readers that do not understand a tag skip length bytes.
package packet

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/vrtelemetry/internal/geom"
)

var (
	// ErrTruncated is returned when a field needs more bytes than remain.
	ErrTruncated = errors.New("packet truncated")
	// ErrLengthMismatch is returned when the declared packet length does not
	// match the bytes consumed by its records.
	ErrLengthMismatch = errors.New("packet length mismatch")
	// ErrTooManyRecords is returned when a stream holds more records than
	// the u16 count field can describe.
	ErrTooManyRecords = errors.New("too many records for one packet")
	// ErrStringTooLong is returned when a string exceeds the u16 length prefix.
	ErrStringTooLong = errors.New("string exceeds 65535 bytes")
	// ErrPacketTooLarge is returned for a declared length above MaxPacketSize.
	ErrPacketTooLarge = errors.New("packet exceeds maximum size")
)

// MaxPacketSize caps the declared length accepted by the reader.
const MaxPacketSize = 64 << 20

// Encoder appends little-endian primitives to an in-memory buffer.
// The first error is sticky; later writes are ignored.
type Encoder struct {
	buf []byte
	err error
}

// Bytes returns the encoded bytes.
func (e *Encoder) Bytes() []byte { return e.buf }

// Len returns the number of encoded bytes.
func (e *Encoder) Len() int { return len(e.buf) }

// Err returns the first error encountered while encoding.
func (e *Encoder) Err() error { return e.err }

// Reset empties the buffer and clears any error.
func (e *Encoder) Reset() {
	e.buf = e.buf[:0]
	e.err = nil
}

func (e *Encoder) Uint8(v uint8) {
	e.buf = append(e.buf, v)
}

func (e *Encoder) Bool(v bool) {
	if v {
		e.Uint8(1)
	} else {
		e.Uint8(0)
	}
}

func (e *Encoder) Uint16(v uint16) {
	e.buf = binary.LittleEndian.AppendUint16(e.buf, v)
}

func (e *Encoder) Uint32(v uint32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
}

func (e *Encoder) Uint64(v uint64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, v)
}

func (e *Encoder) Int64(v int64) {
	e.Uint64(uint64(v))
}

func (e *Encoder) Float32(v float32) {
	e.Uint32(math.Float32bits(v))
}

func (e *Encoder) Float64(v float64) {
	e.Uint64(math.Float64bits(v))
}

// String writes a u16 byte length followed by the UTF-8 bytes.
func (e *Encoder) String(s string) {
	if len(s) > math.MaxUint16 {
		if e.err == nil {
			e.err = fmt.Errorf("%w: %d bytes", ErrStringTooLong, len(s))
		}
		return
	}
	e.Uint16(uint16(len(s)))
	e.buf = append(e.buf, s...)
}

// Blob writes a u32 byte length followed by b.
func (e *Encoder) Blob(b []byte) {
	if len(b) > MaxPacketSize {
		if e.err == nil {
			e.err = fmt.Errorf("%w: blob of %d bytes", ErrPacketTooLarge, len(b))
		}
		return
	}
	e.Uint32(uint32(len(b)))
	e.buf = append(e.buf, b...)
}

func (e *Encoder) Vector3(v geom.Vector3) {
	e.Float32(v.X)
	e.Float32(v.Y)
	e.Float32(v.Z)
}

func (e *Encoder) Vector2(v geom.Vector2) {
	e.Float32(v.X)
	e.Float32(v.Y)
}

func (e *Encoder) Rotator(r geom.Rotator) {
	e.Float32(r.Pitch)
	e.Float32(r.Yaw)
	e.Float32(r.Roll)
}

// Color writes c in A, B, G, R order.
func (e *Encoder) Color(c geom.LinearColor) {
	e.Float32(c.A)
	e.Float32(c.B)
	e.Float32(c.G)
	e.Float32(c.R)
}

func (e *Encoder) Transform(t geom.Transform) {
	e.Vector3(t.Location)
	e.Rotator(t.Rotation)
	e.Vector3(t.Scale)
}

// Decoder reads little-endian primitives from a byte slice. After the first
// failure every read returns the zero value and Err reports the cause.
type Decoder struct {
	buf []byte
	off int
	err error
}

// NewDecoder returns a Decoder over b.
func NewDecoder(b []byte) *Decoder {
	return &Decoder{buf: b}
}

// Err returns the first error encountered while decoding.
func (d *Decoder) Err() error { return d.err }

// Offset returns the number of bytes consumed so far.
func (d *Decoder) Offset() int { return d.off }

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int { return len(d.buf) - d.off }

func (d *Decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n > d.Remaining() {
		d.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncated, n, d.off, d.Remaining())
		d.off = len(d.buf)
		return nil
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b
}

func (d *Decoder) Uint8() uint8 {
	b := d.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// Bool treats any non-zero byte as true.
func (d *Decoder) Bool() bool {
	return d.Uint8() != 0
}

func (d *Decoder) Uint16() uint16 {
	b := d.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (d *Decoder) Uint32() uint32 {
	b := d.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (d *Decoder) Uint64() uint64 {
	b := d.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (d *Decoder) Int64() int64 {
	return int64(d.Uint64())
}

func (d *Decoder) Float32() float32 {
	return math.Float32frombits(d.Uint32())
}

func (d *Decoder) Float64() float64 {
	return math.Float64frombits(d.Uint64())
}

// String reads a u16 length-prefixed string. A length running past the end
// of the buffer is rejected.
func (d *Decoder) String() string {
	n := int(d.Uint16())
	b := d.take(n)
	if b == nil {
		return ""
	}
	return string(b)
}

// Blob reads a u32 length-prefixed byte slice. The result is a copy.
func (d *Decoder) Blob() []byte {
	n := d.Uint32()
	b := d.take(int(n))
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

func (d *Decoder) Vector3() geom.Vector3 {
	return geom.Vector3{X: d.Float32(), Y: d.Float32(), Z: d.Float32()}
}

func (d *Decoder) Vector2() geom.Vector2 {
	return geom.Vector2{X: d.Float32(), Y: d.Float32()}
}

func (d *Decoder) Rotator() geom.Rotator {
	return geom.Rotator{Pitch: d.Float32(), Yaw: d.Float32(), Roll: d.Float32()}
}

// Color reads a colour stored in A, B, G, R order.
func (d *Decoder) Color() geom.LinearColor {
	var c geom.LinearColor
	c.A = d.Float32()
	c.B = d.Float32()
	c.G = d.Float32()
	c.R = d.Float32()
	return c
}

func (d *Decoder) Transform() geom.Transform {
	return geom.Transform{
		Location: d.Vector3(),
		Rotation: d.Rotator(),
		Scale:    d.Vector3(),
	}
}
