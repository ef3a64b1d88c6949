package wgpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/grade"
)

// Uniform slots live in one storage buffer at a fixed stride, so a slot
// update is a single buffer write at slot*slotStride floats. The stride
// covers the largest block the engine emits (HSL, 25 floats). Resource
// metadata (table lengths, image dimensions) occupies the slots after
// the uniform range; grade.wgsl mirrors both layouts.
const (
	slotStride  = 32
	paramSlots  = grade.UniformSlotCount + grade.ResourceSlotCount
	paramFloats = paramSlots * slotStride
	paramBytes  = paramFloats * 4
)

// slotOffset returns the float offset of a uniform slot.
func slotOffset(slot grade.UniformSlot) int { return int(slot) * slotStride }

// metaOffset returns the float offset of a resource slot's metadata.
func metaOffset(slot grade.ResourceSlot) int {
	return (grade.UniformSlotCount + int(slot)) * slotStride
}

// Source layouts the shader decodes. Everything else is normalized into
// one of these during packing.
const (
	srcModeRGBA8 = 0 // one u32 per pixel, RGBA byte order
	srcModeFloat = 1 // four f32 per pixel
)

// frameHeader mirrors FrameParams in grade.wgsl.
type frameHeader struct {
	outW, outH uint32
	srcW, srcH uint32
	mode       uint32
	transfer   uint32
	primaries  uint32
	hasSource  uint32
}

const frameHeaderBytes = 32

func (h frameHeader) bytes() []byte {
	b := make([]byte, 0, frameHeaderBytes)
	for _, v := range [...]uint32{
		h.outW, h.outH, h.srcW, h.srcH,
		h.mode, h.transfer, h.primaries, h.hasSource,
	} {
		b = binary.LittleEndian.AppendUint32(b, v)
	}
	return b
}

// floatBytes encodes floats little-endian, the layout both storage
// buffers use.
func floatBytes(vals []float32) []byte {
	b := make([]byte, 0, len(vals)*4)
	for _, v := range vals {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
	}
	return b
}

// packSource converts a source frame into the layout the shader decodes:
// u32-packed RGBA8 or interleaved rgba f32. BGRA is swapped and narrow
// formats are expanded during the copy, so the shader only ever sees the
// two modes.
func packSource(src *grade.SourceFrame) ([]byte, uint32, error) {
	w, h := src.Width, src.Height

	format := src.Format
	if format == gputypes.TextureFormatUndefined {
		format = gputypes.TextureFormatRGBA8Unorm
	}

	var bpp int
	mode := uint32(srcModeRGBA8)
	switch format {
	case gputypes.TextureFormatRGBA8Unorm:
		bpp = 4
	case gputypes.TextureFormatBGRA8Unorm:
		bpp = 4
	case gputypes.TextureFormatR8Unorm:
		bpp = 1
	case gputypes.TextureFormatR32Float:
		bpp, mode = 4, srcModeFloat
	case gputypes.TextureFormatRG32Float:
		bpp, mode = 8, srcModeFloat
	case gputypes.TextureFormatRGBA32Float:
		mode = srcModeFloat
		switch src.Channels {
		case 3:
			bpp = 12
		case 0, 4:
			bpp = 16
		default:
			return nil, 0, fmt.Errorf("%w: %d float channels", ErrSourceFormat, src.Channels)
		}
	default:
		return nil, 0, fmt.Errorf("%w: %v", ErrSourceFormat, format)
	}

	stride := src.Stride
	if stride == 0 {
		stride = w * bpp
	}
	if stride < w*bpp {
		return nil, 0, fmt.Errorf("wgpu: stride %d below row size %d", stride, w*bpp)
	}
	if need := (h-1)*stride + w*bpp; len(src.Pixels) < need {
		return nil, 0, fmt.Errorf("wgpu: source pixels truncated: have %d, need %d", len(src.Pixels), need)
	}

	if mode == srcModeRGBA8 {
		return packSource8(src.Pixels, w, h, stride, bpp, format), mode, nil
	}
	return packSourceFloat(src.Pixels, w, h, stride, bpp), mode, nil
}

func packSource8(pix []byte, w, h, stride, bpp int, format gputypes.TextureFormat) []byte {
	out := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		row := pix[y*stride:]
		dst := out[y*w*4:]
		switch format {
		case gputypes.TextureFormatRGBA8Unorm:
			copy(dst[:w*4], row)
		case gputypes.TextureFormatBGRA8Unorm:
			for x := 0; x < w; x++ {
				s, d := row[x*4:], dst[x*4:]
				d[0], d[1], d[2], d[3] = s[2], s[1], s[0], s[3]
			}
		case gputypes.TextureFormatR8Unorm:
			for x := 0; x < w; x++ {
				d := dst[x*4:]
				d[0], d[1], d[2], d[3] = row[x], row[x], row[x], 0xFF
			}
		}
	}
	return out
}

func packSourceFloat(pix []byte, w, h, stride, bpp int) []byte {
	channels := bpp / 4
	out := make([]byte, w*h*16)
	for y := 0; y < h; y++ {
		row := pix[y*stride:]
		dst := out[y*w*16:]
		if channels == 4 {
			copy(dst[:w*16], row)
			continue
		}
		for x := 0; x < w; x++ {
			s, d := row[x*bpp:], dst[x*16:]
			switch channels {
			case 1: // luminance
				copy(d[0:4], s[0:4])
				copy(d[4:8], s[0:4])
				copy(d[8:12], s[0:4])
				binary.LittleEndian.PutUint32(d[12:16], math.Float32bits(1))
			case 2: // luminance + alpha
				copy(d[0:4], s[0:4])
				copy(d[4:8], s[0:4])
				copy(d[8:12], s[0:4])
				copy(d[12:16], s[4:8])
			case 3:
				copy(d[0:12], s[0:12])
				binary.LittleEndian.PutUint32(d[12:16], math.Float32bits(1))
			}
		}
	}
	return out
}

// packImage converts a resource image into tight RGBA8, the only layout
// the shader samples watermark and palette pixels in.
func packImage(img *grade.ImageData) ([]byte, error) {
	if img.Width <= 0 || img.Height <= 0 {
		return nil, fmt.Errorf("wgpu: empty resource image %dx%d", img.Width, img.Height)
	}
	format := img.Format
	if format == gputypes.TextureFormatUndefined {
		format = gputypes.TextureFormatRGBA8Unorm
	}
	var bpp int
	switch format {
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatBGRA8Unorm:
		bpp = 4
	case gputypes.TextureFormatR8Unorm:
		bpp = 1
	default:
		return nil, fmt.Errorf("%w: resource image %v", ErrSourceFormat, format)
	}
	_ = bpp
	src := &grade.SourceFrame{
		Pixels: img.Pixels, Width: img.Width, Height: img.Height,
		Stride: img.Stride, Format: format,
	}
	out, _, err := packSource(src)
	return out, err
}

// packClear fills a pixel block with one color in packed RGBA8.
func packClear(c grade.RGBA, pixels int) []byte {
	out := make([]byte, pixels*4)
	if pixels == 0 {
		return out
	}
	out[0] = clampByte(c.R)
	out[1] = clampByte(c.G)
	out[2] = clampByte(c.B)
	out[3] = clampByte(c.A)
	for n := 4; n < len(out); n *= 2 {
		copy(out[n:], out[:n])
	}
	return out
}

func clampByte(v float64) byte {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 0xFF
	}
	return byte(v*255 + 0.5)
}

// cropRows extracts a tight w×h RGBA rectangle from a packed bufW×bufH
// block.
func cropRows(buf []byte, bufW, bufH, x, y, w, h int) ([]byte, error) {
	if x < 0 || y < 0 || w <= 0 || h <= 0 || x+w > bufW || y+h > bufH {
		return nil, fmt.Errorf("wgpu: readback rect %d,%d %dx%d outside %dx%d output",
			x, y, w, h, bufW, bufH)
	}
	out := make([]byte, w*h*4)
	for row := 0; row < h; row++ {
		src := buf[((y+row)*bufW+x)*4:]
		copy(out[row*w*4:(row+1)*w*4], src[:w*4])
	}
	return out, nil
}
