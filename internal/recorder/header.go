// Package recorder provides recording and reading of telemetry logs.
//
// A log is a file header followed by one frame group per simulation tick.
// A frame group is a FrameStart packet, the payload packets for the tick
// and a FrameEnd packet. Readers skip packets they cannot use by their
// declared length, so a damaged or partially-written log stays readable.
package recorder

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/banshee-data/vrtelemetry/internal/packet"
)

// FileExtension is the extension for telemetry log files.
const FileExtension = ".drlog"

// Magic opens every log file.
const Magic = "DRVR"

// FormatVersion is the log layout this package writes.
const FormatVersion uint16 = 1

// ErrBadHeader is returned when a file does not start with a valid header.
var ErrBadHeader = errors.New("bad log header")

// Header identifies a log.
type Header struct {
	Version       uint16
	SessionID     uuid.UUID
	WriterVersion string
	CreatedMs     int64
	Info          string
}

func (h *Header) encode(e *packet.Encoder) {
	for i := 0; i < len(Magic); i++ {
		e.Uint8(Magic[i])
	}
	e.Uint16(h.Version)
	e.String(h.SessionID.String())
	e.String(h.WriterVersion)
	e.Int64(h.CreatedMs)
	e.String(h.Info)
}

// readHeader reads a header from r and returns it with its size in bytes.
// Anything short or malformed is reported as ErrBadHeader.
func readHeader(r io.Reader) (Header, int64, error) {
	var h Header
	var n int64

	fixed := make([]byte, len(Magic)+2)
	if _, err := io.ReadFull(r, fixed); err != nil {
		return h, n, fmt.Errorf("%w: %v", ErrBadHeader, err)
	}
	n += int64(len(fixed))
	if string(fixed[:len(Magic)]) != Magic {
		return h, n, fmt.Errorf("%w: magic %q", ErrBadHeader, fixed[:len(Magic)])
	}
	h.Version = binary.LittleEndian.Uint16(fixed[len(Magic):])
	if h.Version != FormatVersion {
		return h, n, fmt.Errorf("%w: unsupported version %d", ErrBadHeader, h.Version)
	}

	readString := func(field string) (string, error) {
		var lb [2]byte
		if _, err := io.ReadFull(r, lb[:]); err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrBadHeader, field, err)
		}
		b := make([]byte, binary.LittleEndian.Uint16(lb[:]))
		if _, err := io.ReadFull(r, b); err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrBadHeader, field, err)
		}
		n += int64(2 + len(b))
		return string(b), nil
	}

	id, err := readString("session id")
	if err != nil {
		return h, n, err
	}
	if h.SessionID, err = uuid.Parse(id); err != nil {
		return h, n, fmt.Errorf("%w: session id: %v", ErrBadHeader, err)
	}
	if h.WriterVersion, err = readString("writer version"); err != nil {
		return h, n, err
	}

	var ts [8]byte
	if _, err := io.ReadFull(r, ts[:]); err != nil {
		return h, n, fmt.Errorf("%w: created: %v", ErrBadHeader, err)
	}
	n += 8
	h.CreatedMs = int64(binary.LittleEndian.Uint64(ts[:]))

	if h.Info, err = readString("info"); err != nil {
		return h, n, err
	}
	return h, n, nil
}
