// Package wire frames protocol envelopes for byte-stream transports.
//
// Each frame is a fixed 40-byte header followed by a message-specific
// payload, little-endian throughout:
//
//	offset  size  field
//	     0     4  magic "GRD\x01"
//	     4     2  protocol version
//	     6     1  message kind
//	     7     1  reserved
//	     8    16  session id
//	    24     8  sequence number
//	    32     4  payload length
//	    36     4  CRC32 (IEEE) of header[4:36] + payload
//
// The sequence number increases by one per frame in each direction, so
// a receiver can verify the FIFO, no-duplication contract. A version
// mismatch is channel-fatal: ReadEnvelope returns ErrVersionMismatch
// and the connection must be torn down.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/google/uuid"

	"github.com/gogpu/grade/proto"
)

const (
	magic      uint32 = 0x47524401 // "GRD\x01"
	headerSize        = 40

	// maxPayload caps a single frame. Large enough for an 8K RGBA
	// frame, small enough to stop a corrupt length from allocating
	// the address space.
	maxPayload = 256 << 20
)

var (
	// ErrInvalidMagic reports a frame that does not start a grade stream.
	ErrInvalidMagic = errors.New("wire: invalid magic")
	// ErrVersionMismatch reports a frame from an incompatible protocol
	// version. Channel-fatal.
	ErrVersionMismatch = errors.New("wire: protocol version mismatch")
	// ErrChecksumMismatch reports frame corruption.
	ErrChecksumMismatch = errors.New("wire: checksum mismatch")
	// ErrPayloadTooLarge reports a declared payload over the frame cap.
	ErrPayloadTooLarge = errors.New("wire: payload too large")
	// ErrUnknownKind reports a message kind this build cannot decode.
	ErrUnknownKind = errors.New("wire: unknown message kind")

	errPayloadShort    = errors.New("wire: payload too short")
	errPayloadTrailing = errors.New("wire: payload has trailing data")
)

// WriteEnvelope frames env and writes it to w. The sequence number seq
// is the sender's frame counter; senders must increase it by one per
// call. The payload buffers inside env are written as-is and remain
// owned by the caller.
func WriteEnvelope(w io.Writer, seq uint64, env proto.Envelope) error {
	payload, err := encodePayload(env.Msg)
	if err != nil {
		return err
	}
	if len(payload) > maxPayload {
		return ErrPayloadTooLarge
	}

	hdr := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(hdr[0:4], magic)
	binary.LittleEndian.PutUint16(hdr[4:6], env.Version)
	hdr[6] = byte(env.Msg.Kind())
	hdr[7] = 0
	copy(hdr[8:24], env.Session[:])
	binary.LittleEndian.PutUint64(hdr[24:32], seq)
	binary.LittleEndian.PutUint32(hdr[32:36], uint32(len(payload)))

	crc := crc32.NewIEEE()
	_, _ = crc.Write(hdr[4:36])
	if len(payload) > 0 {
		_, _ = crc.Write(payload)
	}
	binary.LittleEndian.PutUint32(hdr[36:40], crc.Sum32())

	if _, err := w.Write(hdr); err != nil {
		return fmt.Errorf("wire: write header: %w", err)
	}
	if len(payload) == 0 {
		return nil
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("wire: write payload: %w", err)
	}
	return nil
}

// ReadEnvelope reads one frame from r and returns the decoded envelope
// with the sender's sequence number. The returned envelope owns freshly
// allocated payload buffers.
func ReadEnvelope(r io.Reader) (proto.Envelope, uint64, error) {
	var env proto.Envelope

	hdr := make([]byte, headerSize)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return env, 0, err
	}
	if binary.LittleEndian.Uint32(hdr[0:4]) != magic {
		return env, 0, ErrInvalidMagic
	}

	env.Version = binary.LittleEndian.Uint16(hdr[4:6])
	kind := proto.Kind(hdr[6])
	env.Session = sessionFromBytes(hdr[8:24])
	seq := binary.LittleEndian.Uint64(hdr[24:32])
	payloadLen := binary.LittleEndian.Uint32(hdr[32:36])
	sum := binary.LittleEndian.Uint32(hdr[36:40])

	if env.Version != proto.Version {
		return env, seq, ErrVersionMismatch
	}
	if payloadLen > maxPayload {
		return env, seq, ErrPayloadTooLarge
	}

	payload := make([]byte, payloadLen)
	if payloadLen > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				return env, seq, errPayloadShort
			}
			return env, seq, err
		}
	}

	crc := crc32.NewIEEE()
	_, _ = crc.Write(hdr[4:36])
	if len(payload) > 0 {
		_, _ = crc.Write(payload)
	}
	if crc.Sum32() != sum {
		return env, seq, ErrChecksumMismatch
	}

	msg, err := decodePayload(kind, payload)
	if err != nil {
		return env, seq, err
	}
	env.Msg = msg
	return env, seq, nil
}

// sessionFromBytes rebuilds a session id from header bytes.
func sessionFromBytes(b []byte) uuid.UUID {
	var id uuid.UUID
	copy(id[:], b)
	return id
}
