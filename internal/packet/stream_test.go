package packet

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/vrtelemetry/internal/geom"
)

// namedPoint is a small variable-length record for exercising the framer.
type namedPoint struct {
	Name  string
	Point geom.Vector3
	Ok    bool
}

func (n *namedPoint) Encode(e *Encoder) {
	e.String(n.Name)
	e.Vector3(n.Point)
	e.Bool(n.Ok)
}

func (n *namedPoint) Decode(d *Decoder) {
	n.Name = d.String()
	n.Point = d.Vector3()
	n.Ok = d.Bool()
}

func recordSize(n namedPoint) int {
	return 2 + len(n.Name) + 12 + 1
}

func TestStreamWriteLayout(t *testing.T) {
	records := []namedPoint{
		{Name: "", Point: geom.Vector3{X: 1}},
		{Name: "a", Point: geom.Vector3{Y: 2}, Ok: true},
		{Name: strings.Repeat("x", 300), Point: geom.Vector3{Z: -3}},
	}

	s := NewStream[namedPoint](TagCustomActor)
	for _, r := range records {
		s.Add(r)
	}

	var buf bytes.Buffer
	n, err := s.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	assert.Equal(t, 0, s.Len(), "stream must be cleared after write")

	b := buf.Bytes()
	assert.Equal(t, byte(TagCustomActor), b[0])

	want := 2
	for _, r := range records {
		want += recordSize(r)
	}
	length := binary.LittleEndian.Uint32(b[1:5])
	assert.Equal(t, uint32(want), length)
	assert.Equal(t, HeaderSize+want, len(b))
	assert.Equal(t, uint16(len(records)), binary.LittleEndian.Uint16(b[5:7]))

	// First record: empty string, then X=1.0 as float32.
	assert.Equal(t, []byte{0, 0}, b[7:9])
	assert.Equal(t, []byte{0x00, 0x00, 0x80, 0x3f}, b[9:13])
}

func TestStreamRoundTrip(t *testing.T) {
	records := []namedPoint{
		{Name: "left", Point: geom.Vector3{X: 1.5, Y: -2.25, Z: 1e9}, Ok: true},
		{Name: "ünïcode", Point: geom.Vector3{X: -0}},
	}
	data, err := Encode[namedPoint](TagCustomActor, records)
	require.NoError(t, err)

	got, err := Read[namedPoint](bytes.NewReader(data), TagCustomActor)
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestEmptyStream(t *testing.T) {
	s := NewStream[namedPoint](TagFrameEnd)
	var buf bytes.Buffer
	_, err := s.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{byte(TagFrameEnd), 2, 0, 0, 0, 0, 0}, buf.Bytes())

	got, err := Read[namedPoint](&buf, TagFrameEnd)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReadTruncated(t *testing.T) {
	data, err := Encode[namedPoint](TagCustomActor, []namedPoint{
		{Name: "one"}, {Name: "two"}, {Name: "three"},
	})
	require.NoError(t, err)

	// Cut anywhere after the length field but before the last record ends.
	for cut := HeaderSize; cut < len(data); cut++ {
		_, err := Read[namedPoint](bytes.NewReader(data[:cut]), TagCustomActor)
		require.Error(t, err, "cut at %d", cut)
		assert.True(t, errors.Is(err, ErrTruncated), "cut at %d: %v", cut, err)
	}

	// A cut inside the header is also truncation; an empty reader is EOF.
	_, err = Read[namedPoint](bytes.NewReader(data[:3]), TagCustomActor)
	assert.ErrorIs(t, err, ErrTruncated)
	_, err = Read[namedPoint](bytes.NewReader(nil), TagCustomActor)
	assert.ErrorIs(t, err, io.EOF)
}

func TestDecodeLengthMismatch(t *testing.T) {
	data, err := Encode[namedPoint](TagCustomActor, []namedPoint{{Name: "a"}})
	require.NoError(t, err)

	// Declare one more byte than the record uses and append padding.
	padded := append([]byte{}, data...)
	padded = append(padded, 0xff)
	binary.LittleEndian.PutUint32(padded[1:5], binary.LittleEndian.Uint32(data[1:5])+1)

	_, err = Read[namedPoint](bytes.NewReader(padded), TagCustomActor)
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestDecodeStringOverrun(t *testing.T) {
	var e Encoder
	e.Uint16(1)
	e.Uint16(500) // string length far beyond the body
	e.Uint8('a')

	_, err := Decode[namedPoint](TagCustomActor, e.Bytes())
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestSkipUnknownTag(t *testing.T) {
	unknown, err := Encode[namedPoint](Tag(42), []namedPoint{{Name: "future"}})
	require.NoError(t, err)
	known, err := Encode[namedPoint](TagCustomActor, []namedPoint{{Name: "now"}})
	require.NoError(t, err)

	r := io.MultiReader(bytes.NewReader(unknown), bytes.NewReader(known))

	h, err := ReadHeader(r)
	require.NoError(t, err)
	assert.Equal(t, Tag(42), h.Tag)
	require.NoError(t, Skip(r, h))

	got, err := Read[namedPoint](r, TagCustomActor)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "now", got[0].Name)
}

func TestReadRejectsOversizeLength(t *testing.T) {
	b := []byte{byte(TagAggregate), 0xff, 0xff, 0xff, 0xff}
	_, err := Read[namedPoint](bytes.NewReader(b), TagAggregate)
	assert.ErrorIs(t, err, ErrPacketTooLarge)
}

func TestEncodeLimits(t *testing.T) {
	_, err := Encode[namedPoint](TagCustomActor, []namedPoint{{Name: strings.Repeat("x", 1<<16)}})
	assert.ErrorIs(t, err, ErrStringTooLong)

	_, err = Encode[namedPoint](TagCustomActor, make([]namedPoint, 1<<16))
	assert.ErrorIs(t, err, ErrTooManyRecords)
}

func TestColorWireOrder(t *testing.T) {
	var e Encoder
	e.Color(geom.LinearColor{R: 1, G: 2, B: 3, A: 4})

	d := NewDecoder(e.Bytes())
	assert.Equal(t, float32(4), d.Float32())
	assert.Equal(t, float32(3), d.Float32())
	assert.Equal(t, float32(2), d.Float32())
	assert.Equal(t, float32(1), d.Float32())

	d = NewDecoder(e.Bytes())
	assert.Equal(t, geom.LinearColor{R: 1, G: 2, B: 3, A: 4}, d.Color())
	assert.NoError(t, d.Err())
}
