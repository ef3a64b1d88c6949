package wire

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/grade"
	"github.com/gogpu/grade/frame"
	"github.com/gogpu/grade/proto"
)

// encodePayload serializes the message-specific payload, little-endian.
// Empty messages (Dispose, Ready, the context notifications) encode to
// a zero-length payload.
func encodePayload(msg proto.Message) ([]byte, error) {
	switch m := msg.(type) {
	case proto.Init:
		b := make([]byte, 0, 24)
		b = binary.LittleEndian.AppendUint64(b, m.ID)
		b = appendInt(b, m.Caps.Width)
		b = appendInt(b, m.Caps.Height)
		b = binary.LittleEndian.AppendUint32(b, uint32(m.Caps.Format))
		return appendBool(b, m.Caps.HDR), nil

	case proto.Resize:
		b := make([]byte, 0, 8)
		b = appendInt(b, m.Width)
		return appendInt(b, m.Height), nil

	case proto.Clear:
		b := make([]byte, 0, 32)
		b = appendF64(b, m.Color.R)
		b = appendF64(b, m.Color.G)
		b = appendF64(b, m.Color.B)
		return appendF64(b, m.Color.A), nil

	case proto.SyncState:
		if m.Patch == nil {
			return []byte{0}, nil
		}
		blob, err := m.Patch.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("wire: encode patch: %w", err)
		}
		b := make([]byte, 0, 1+len(blob))
		b = append(b, 1)
		return append(b, blob...), nil

	case proto.RenderFrame:
		b := make([]byte, 0, 40+bufferSize(m.Buffer))
		b = binary.LittleEndian.AppendUint64(b, m.ID)
		b = appendBuffer(b, m.Buffer)
		b = appendInt(b, m.Width)
		return appendInt(b, m.Height), nil

	case proto.RenderHDRFrame:
		b := make([]byte, 0, 48+bufferSize(m.Buffer))
		b = binary.LittleEndian.AppendUint64(b, m.ID)
		b = appendBuffer(b, m.Buffer)
		b = appendInt(b, m.Width)
		b = appendInt(b, m.Height)
		b = binary.LittleEndian.AppendUint32(b, uint32(m.Format))
		b = append(b, byte(m.Channels))
		b = append(b, byte(m.Transfer))
		return append(b, byte(m.Primaries)), nil

	case proto.ReadPixel:
		b := make([]byte, 0, 24)
		b = binary.LittleEndian.AppendUint64(b, m.ID)
		b = appendInt(b, m.X)
		b = appendInt(b, m.Y)
		b = appendInt(b, m.Width)
		return appendInt(b, m.Height), nil

	case proto.Dispose, proto.Ready, proto.ContextLost, proto.ContextRestored:
		return nil, nil

	case proto.InitResult:
		b := make([]byte, 0, 16+len(m.Mode)+len(m.Err))
		b = binary.LittleEndian.AppendUint64(b, m.ID)
		b = appendString(b, m.Mode)
		return appendString(b, m.Err), nil

	case proto.RenderDone:
		return binary.LittleEndian.AppendUint64(nil, m.ID), nil

	case proto.RenderError:
		b := make([]byte, 0, 16+len(m.Reason))
		b = binary.LittleEndian.AppendUint64(b, m.ID)
		return appendString(b, m.Reason), nil

	case proto.PixelData:
		b := make([]byte, 0, 16+len(m.Data))
		b = binary.LittleEndian.AppendUint64(b, m.ID)
		if m.Data == nil {
			return append(b, 0), nil
		}
		b = append(b, 1)
		b = binary.LittleEndian.AppendUint32(b, uint32(len(m.Data)))
		return append(b, m.Data...), nil

	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownKind, msg.Kind())
	}
}

// decodePayload rebuilds a message from a frame payload. Buffers and
// byte slices in the result are freshly allocated; decoded frame
// buffers are unpooled.
func decodePayload(kind proto.Kind, payload []byte) (proto.Message, error) {
	d := &payloadReader{buf: payload}
	var msg proto.Message

	switch kind {
	case proto.KindInit:
		msg = proto.Init{
			ID: d.u64(),
			Caps: proto.Capabilities{
				Width:  d.int(),
				Height: d.int(),
				Format: gputypes.TextureFormat(d.u32()),
				HDR:    d.bool(),
			},
		}

	case proto.KindResize:
		msg = proto.Resize{Width: d.int(), Height: d.int()}

	case proto.KindClear:
		msg = proto.Clear{Color: grade.RGBA{
			R: d.f64(), G: d.f64(), B: d.f64(), A: d.f64(),
		}}

	case proto.KindSyncState:
		var m proto.SyncState
		if d.bool() {
			blob := d.rest()
			if d.err == nil {
				var p grade.Patch
				if err := p.UnmarshalBinary(blob); err != nil {
					return nil, fmt.Errorf("wire: decode patch: %w", err)
				}
				m.Patch = &p
			}
		}
		msg = m

	case proto.KindRenderFrame:
		msg = proto.RenderFrame{
			ID:     d.u64(),
			Buffer: d.buffer(),
			Width:  d.int(),
			Height: d.int(),
		}

	case proto.KindRenderHDRFrame:
		msg = proto.RenderHDRFrame{
			ID:        d.u64(),
			Buffer:    d.buffer(),
			Width:     d.int(),
			Height:    d.int(),
			Format:    gputypes.TextureFormat(d.u32()),
			Channels:  int(d.u8()),
			Transfer:  grade.Transfer(d.u8()),
			Primaries: grade.Primaries(d.u8()),
		}

	case proto.KindReadPixel:
		msg = proto.ReadPixel{
			ID:     d.u64(),
			X:      d.int(),
			Y:      d.int(),
			Width:  d.int(),
			Height: d.int(),
		}

	case proto.KindDispose:
		msg = proto.Dispose{}
	case proto.KindReady:
		msg = proto.Ready{}
	case proto.KindContextLost:
		msg = proto.ContextLost{}
	case proto.KindContextRestored:
		msg = proto.ContextRestored{}

	case proto.KindInitResult:
		msg = proto.InitResult{ID: d.u64(), Mode: d.str(), Err: d.str()}

	case proto.KindRenderDone:
		msg = proto.RenderDone{ID: d.u64()}

	case proto.KindRenderError:
		msg = proto.RenderError{ID: d.u64(), Reason: d.str()}

	case proto.KindPixelData:
		m := proto.PixelData{ID: d.u64()}
		if d.bool() {
			n := int(d.u32())
			m.Data = d.bytes(n)
		}
		msg = m

	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, kind)
	}

	if d.err != nil {
		return nil, d.err
	}
	if d.off != len(d.buf) {
		return nil, errPayloadTrailing
	}
	return msg, nil
}

// bufferSize estimates the encoded size of a frame buffer for
// preallocation.
func bufferSize(b *frame.Buffer) int {
	if b == nil {
		return 1
	}
	return 21 + len(b.Pix)
}

func appendBuffer(b []byte, buf *frame.Buffer) []byte {
	if buf == nil {
		return append(b, 0)
	}
	b = append(b, 1)
	b = appendInt(b, buf.Width)
	b = appendInt(b, buf.Height)
	b = appendInt(b, buf.Stride)
	b = binary.LittleEndian.AppendUint32(b, uint32(buf.Format))
	b = binary.LittleEndian.AppendUint32(b, uint32(len(buf.Pix)))
	return append(b, buf.Pix...)
}

func appendBool(b []byte, v bool) []byte {
	if v {
		return append(b, 1)
	}
	return append(b, 0)
}

func appendInt(b []byte, v int) []byte {
	return binary.LittleEndian.AppendUint32(b, uint32(int32(v)))
}

func appendF64(b []byte, v float64) []byte {
	return binary.LittleEndian.AppendUint64(b, math.Float64bits(v))
}

func appendString(b []byte, s string) []byte {
	if len(s) > 0xFFFF {
		s = s[:0xFFFF]
	}
	b = binary.LittleEndian.AppendUint16(b, uint16(len(s)))
	return append(b, s...)
}

// payloadReader reads payload primitives with a sticky error: after the
// first short read every accessor returns zero values.
type payloadReader struct {
	buf []byte
	off int
	err error
}

func (d *payloadReader) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || len(d.buf)-d.off < n {
		d.err = errPayloadShort
		return nil
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b
}

func (d *payloadReader) u8() byte {
	b := d.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (d *payloadReader) bool() bool { return d.u8() != 0 }

func (d *payloadReader) u16() uint16 {
	b := d.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (d *payloadReader) u32() uint32 {
	b := d.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (d *payloadReader) u64() uint64 {
	b := d.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (d *payloadReader) int() int { return int(int32(d.u32())) }

func (d *payloadReader) f64() float64 { return math.Float64frombits(d.u64()) }

func (d *payloadReader) str() string {
	n := int(d.u16())
	b := d.take(n)
	if b == nil {
		return ""
	}
	return string(b)
}

func (d *payloadReader) bytes(n int) []byte {
	b := d.take(n)
	if d.err != nil {
		return nil
	}
	return append([]byte(nil), b...)
}

// rest consumes everything left in the payload.
func (d *payloadReader) rest() []byte {
	return d.take(len(d.buf) - d.off)
}

func (d *payloadReader) buffer() *frame.Buffer {
	if !d.bool() {
		return nil
	}
	buf := &frame.Buffer{
		Width:  d.int(),
		Height: d.int(),
		Stride: d.int(),
		Format: gputypes.TextureFormat(d.u32()),
	}
	n := int(d.u32())
	buf.Pix = d.bytes(n)
	if d.err != nil {
		return nil
	}
	return buf
}
