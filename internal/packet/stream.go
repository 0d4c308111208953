package packet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
)

// Tag identifies the record kind carried by a packet. Values are shared with
// the surrounding log format, which reserves tags it does not describe here.
type Tag uint8

const (
	TagFrameStart  Tag = 0
	TagFrameEnd    Tag = 1
	TagAggregate   Tag = 17
	TagCustomActor Tag = 18
	TagConfig      Tag = 19

	// TagInvalid labels a packet whose header could not be read.
	TagInvalid Tag = 0xFF
)

func (t Tag) String() string {
	switch t {
	case TagFrameStart:
		return "FrameStart"
	case TagFrameEnd:
		return "FrameEnd"
	case TagAggregate:
		return "Aggregate"
	case TagCustomActor:
		return "CustomActor"
	case TagConfig:
		return "Config"
	case TagInvalid:
		return "Invalid"
	default:
		return fmt.Sprintf("Tag(%d)", uint8(t))
	}
}

// HeaderSize is the size of the tag and length fields.
const HeaderSize = 5

// Codec is implemented by every record type carried in a packet. Decode is
// called on a zero value and must visit fields in the same order as Encode.
type Codec interface {
	Encode(e *Encoder)
	Decode(d *Decoder)
}

// Stream accumulates records of one kind, in insertion order, until they are
// written out as a single packet.
type Stream[T any, P interface {
	*T
	Codec
}] struct {
	tag     Tag
	records []T
	scratch Encoder
}

// NewStream returns an empty stream for tag.
func NewStream[T any, P interface {
	*T
	Codec
}](tag Tag) *Stream[T, P] {
	return &Stream[T, P]{tag: tag}
}

// Tag returns the packet tag the stream is written under.
func (s *Stream[T, P]) Tag() Tag { return s.tag }

// Add appends a record.
func (s *Stream[T, P]) Add(r T) { s.records = append(s.records, r) }

// Len returns the number of pending records.
func (s *Stream[T, P]) Len() int { return len(s.records) }

// Records returns the pending records.
func (s *Stream[T, P]) Records() []T { return s.records }

// Clear drops all pending records.
func (s *Stream[T, P]) Clear() { s.records = s.records[:0] }

// WriteTo writes the pending records as one packet and clears the stream.
// An empty stream still writes a packet with a zero count. On error the
// records are kept so the caller may retry.
func (s *Stream[T, P]) WriteTo(w io.Writer) (int64, error) {
	s.scratch.Reset()
	if err := encodePacket[T, P](&s.scratch, s.tag, s.records); err != nil {
		return 0, err
	}
	n, err := w.Write(s.scratch.Bytes())
	if err != nil {
		return int64(n), fmt.Errorf("write %s packet: %w", s.tag, err)
	}
	s.Clear()
	return int64(n), nil
}

// Encode returns the packet bytes for tag and records.
func Encode[T any, P interface {
	*T
	Codec
}](tag Tag, records []T) ([]byte, error) {
	var e Encoder
	if err := encodePacket[T, P](&e, tag, records); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

// encodePacket encodes the whole payload first so that the length prefix is
// exact before anything reaches the writer.
func encodePacket[T any, P interface {
	*T
	Codec
}](e *Encoder, tag Tag, records []T) error {
	if len(records) > math.MaxUint16 {
		return fmt.Errorf("%s: %w: %d", tag, ErrTooManyRecords, len(records))
	}
	e.Uint8(uint8(tag))
	e.Uint32(0)
	e.Uint16(uint16(len(records)))
	for i := range records {
		P(&records[i]).Encode(e)
	}
	if err := e.Err(); err != nil {
		return fmt.Errorf("encode %s packet: %w", tag, err)
	}

	length := e.Len() - HeaderSize
	if length > MaxPacketSize {
		return fmt.Errorf("%s: %w: %d bytes", tag, ErrPacketTooLarge, length)
	}
	b := e.Bytes()
	b[1] = byte(length)
	b[2] = byte(length >> 8)
	b[3] = byte(length >> 16)
	b[4] = byte(length >> 24)
	return nil
}

// Header is the tag and declared length of a packet.
type Header struct {
	Tag    Tag
	Length uint32
}

// ReadHeader reads a packet header. It returns io.EOF only when r is
// exhausted exactly at a packet boundary.
func ReadHeader(r io.Reader) (Header, error) {
	var b [HeaderSize]byte
	n, err := io.ReadFull(r, b[:])
	if err != nil {
		if errors.Is(err, io.EOF) && n == 0 {
			return Header{}, io.EOF
		}
		return Header{}, fmt.Errorf("%w: header has %d of %d bytes", ErrTruncated, n, HeaderSize)
	}
	h := Header{
		Tag:    Tag(b[0]),
		Length: uint32(b[1]) | uint32(b[2])<<8 | uint32(b[3])<<16 | uint32(b[4])<<24,
	}
	return h, nil
}

// ReadBody reads the length bytes that follow h. The length is checked
// against MaxPacketSize before any allocation.
func ReadBody(r io.Reader, h Header) ([]byte, error) {
	if h.Length > MaxPacketSize {
		return nil, fmt.Errorf("%s: %w: %d bytes", h.Tag, ErrPacketTooLarge, h.Length)
	}
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, int64(h.Length)))
	if err != nil {
		return nil, fmt.Errorf("read %s body: %w", h.Tag, err)
	}
	if n < int64(h.Length) {
		return buf.Bytes(), fmt.Errorf("%s: %w: body has %d of %d bytes", h.Tag, ErrTruncated, n, h.Length)
	}
	return buf.Bytes(), nil
}

// Skip discards the body of a packet whose header has been read.
func Skip(r io.Reader, h Header) error {
	if s, ok := r.(io.Seeker); ok {
		if _, err := s.Seek(int64(h.Length), io.SeekCurrent); err != nil {
			return fmt.Errorf("skip %s: %w", h.Tag, err)
		}
		return nil
	}
	n, err := io.CopyN(io.Discard, r, int64(h.Length))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%s: %w: skipped %d of %d bytes", h.Tag, ErrTruncated, n, h.Length)
		}
		return fmt.Errorf("skip %s: %w", h.Tag, err)
	}
	return nil
}

// Decode decodes a packet body into records. Every byte of body must be
// consumed by exactly count records.
func Decode[T any, P interface {
	*T
	Codec
}](tag Tag, body []byte) ([]T, error) {
	d := NewDecoder(body)
	count := int(d.Uint16())
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("%s count: %w", tag, err)
	}

	records := make([]T, count)
	for i := range records {
		P(&records[i]).Decode(d)
		if err := d.Err(); err != nil {
			return nil, fmt.Errorf("%s record %d of %d: %w", tag, i+1, count, err)
		}
	}
	if d.Remaining() != 0 {
		return nil, fmt.Errorf("%s: %w: declared %d bytes, records used %d",
			tag, ErrLengthMismatch, len(body), d.Offset())
	}
	return records, nil
}

// Read reads one packet and decodes it as tag. A packet carrying a different
// tag is skipped and reported as an error.
func Read[T any, P interface {
	*T
	Codec
}](r io.Reader, tag Tag) ([]T, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	if h.Tag != tag {
		if err := Skip(r, h); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("unexpected packet %s, want %s", h.Tag, tag)
	}
	body, err := ReadBody(r, h)
	if err != nil {
		return nil, err
	}
	return Decode[T, P](tag, body)
}
