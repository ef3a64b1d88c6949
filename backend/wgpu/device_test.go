package wgpu

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/grade"
)

func TestParamLayout(t *testing.T) {
	last := slotOffset(grade.SlotEdgeScratch) + slotStride
	if first := metaOffset(grade.SlotCurve); last > first {
		t.Errorf("uniform slots end at %d, metadata starts at %d", last, first)
	}
	if got := metaOffset(grade.SlotFalseColor) + slotStride; got != paramFloats {
		t.Errorf("last metadata block ends at %d, want %d", got, paramFloats)
	}
	if paramBytes != paramFloats*4 {
		t.Errorf("paramBytes = %d, want %d", paramBytes, paramFloats*4)
	}
}

func TestFrameHeaderBytes(t *testing.T) {
	h := frameHeader{
		outW: 1920, outH: 1080, srcW: 640, srcH: 480,
		mode: srcModeFloat, transfer: 2, primaries: 1, hasSource: 1,
	}
	b := h.bytes()
	if len(b) != frameHeaderBytes {
		t.Fatalf("header is %d bytes, want %d", len(b), frameHeaderBytes)
	}
	want := []uint32{1920, 1080, 640, 480, srcModeFloat, 2, 1, 1}
	for i, w := range want {
		if got := binary.LittleEndian.Uint32(b[i*4:]); got != w {
			t.Errorf("word %d = %d, want %d", i, got, w)
		}
	}
}

func TestPackSourceRGBA8SkipsRowPadding(t *testing.T) {
	src := &grade.SourceFrame{
		Width: 2, Height: 2, Stride: 12,
		Pixels: []byte{
			1, 2, 3, 4, 5, 6, 7, 8, 0xAA, 0xAA, 0xAA, 0xAA,
			9, 10, 11, 12, 13, 14, 15, 16, 0xAA, 0xAA, 0xAA, 0xAA,
		},
	}
	got, mode, err := packSource(src)
	if err != nil {
		t.Fatalf("packSource: %v", err)
	}
	if mode != srcModeRGBA8 {
		t.Fatalf("mode = %d, want %d", mode, srcModeRGBA8)
	}
	want := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("pixels mismatch (-want +got):\n%s", diff)
	}
}

func TestPackSourceSwapsBGRA(t *testing.T) {
	src := &grade.SourceFrame{
		Width: 1, Height: 1,
		Format: gputypes.TextureFormatBGRA8Unorm,
		Pixels: []byte{10, 20, 30, 40},
	}
	got, _, err := packSource(src)
	if err != nil {
		t.Fatalf("packSource: %v", err)
	}
	want := []byte{30, 20, 10, 40}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("pixels mismatch (-want +got):\n%s", diff)
	}
}

func TestPackSourceExpandsGray(t *testing.T) {
	src := &grade.SourceFrame{
		Width: 2, Height: 1,
		Format: gputypes.TextureFormatR8Unorm,
		Pixels: []byte{0x40, 0x80},
	}
	got, _, err := packSource(src)
	if err != nil {
		t.Fatalf("packSource: %v", err)
	}
	want := []byte{0x40, 0x40, 0x40, 0xFF, 0x80, 0x80, 0x80, 0xFF}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("pixels mismatch (-want +got):\n%s", diff)
	}
}

func TestPackSourceFloatExpansion(t *testing.T) {
	tests := []struct {
		name     string
		format   gputypes.TextureFormat
		channels int
		in       []float32
		want     [4]float32
	}{
		{"r32 luminance", gputypes.TextureFormatR32Float, 0, []float32{0.25}, [4]float32{0.25, 0.25, 0.25, 1}},
		{"rg32 luminance alpha", gputypes.TextureFormatRG32Float, 0, []float32{0.25, 0.5}, [4]float32{0.25, 0.25, 0.25, 0.5}},
		{"rgb32 packed", gputypes.TextureFormatRGBA32Float, 3, []float32{0.1, 0.2, 0.3}, [4]float32{0.1, 0.2, 0.3, 1}},
		{"rgba32", gputypes.TextureFormatRGBA32Float, 4, []float32{0.1, 0.2, 0.3, 0.4}, [4]float32{0.1, 0.2, 0.3, 0.4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &grade.SourceFrame{
				Width: 1, Height: 1,
				Format: tt.format, Channels: tt.channels,
				Pixels: floatBytes(tt.in),
			}
			got, mode, err := packSource(src)
			if err != nil {
				t.Fatalf("packSource: %v", err)
			}
			if mode != srcModeFloat {
				t.Fatalf("mode = %d, want %d", mode, srcModeFloat)
			}
			if len(got) != 16 {
				t.Fatalf("packed %d bytes, want 16", len(got))
			}
			for i, w := range tt.want {
				v := math.Float32frombits(binary.LittleEndian.Uint32(got[i*4:]))
				if v != w {
					t.Errorf("channel %d = %v, want %v", i, v, w)
				}
			}
		})
	}
}

func TestPackSourceRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		src  *grade.SourceFrame
	}{
		{"short stride", &grade.SourceFrame{Width: 2, Height: 1, Stride: 4, Pixels: make([]byte, 8)}},
		{"truncated pixels", &grade.SourceFrame{Width: 2, Height: 2, Pixels: make([]byte, 12)}},
		{"two float channels", &grade.SourceFrame{
			Width: 1, Height: 1,
			Format: gputypes.TextureFormatRGBA32Float, Channels: 2,
			Pixels: make([]byte, 8),
		}},
		{"unsupported format", &grade.SourceFrame{
			Width: 1, Height: 1,
			Format: gputypes.TextureFormat(250),
			Pixels: make([]byte, 4),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := packSource(tt.src); err == nil {
				t.Error("packSource accepted bad input")
			}
		})
	}
}

func TestPackSourceFormatError(t *testing.T) {
	src := &grade.SourceFrame{
		Width: 1, Height: 1,
		Format: gputypes.TextureFormatRGBA32Float, Channels: 2,
		Pixels: make([]byte, 8),
	}
	_, _, err := packSource(src)
	if !errors.Is(err, ErrSourceFormat) {
		t.Errorf("err = %v, want ErrSourceFormat", err)
	}
}

func TestPackImage(t *testing.T) {
	img := &grade.ImageData{
		Width: 1, Height: 1,
		Format: gputypes.TextureFormatBGRA8Unorm,
		Pixels: []byte{10, 20, 30, 40},
	}
	got, err := packImage(img)
	if err != nil {
		t.Fatalf("packImage: %v", err)
	}
	want := []byte{30, 20, 10, 40}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("pixels mismatch (-want +got):\n%s", diff)
	}

	if _, err := packImage(&grade.ImageData{}); err == nil {
		t.Error("packImage accepted an empty image")
	}
	float := &grade.ImageData{
		Width: 1, Height: 1,
		Format: gputypes.TextureFormatR32Float,
		Pixels: make([]byte, 4),
	}
	if _, err := packImage(float); !errors.Is(err, ErrSourceFormat) {
		t.Errorf("err = %v, want ErrSourceFormat", err)
	}
}

func TestPackClearRepeatsPixel(t *testing.T) {
	got := packClear(grade.RGBA{R: 1, G: 0.5, B: -1, A: 2}, 3)
	want := []byte{255, 128, 0, 255, 255, 128, 0, 255, 255, 128, 0, 255}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("clear pixels mismatch (-want +got):\n%s", diff)
	}
}

func TestCropRows(t *testing.T) {
	buf := make([]byte, 4*2*4)
	for i := range buf {
		buf[i] = byte(i)
	}
	got, err := cropRows(buf, 4, 2, 1, 1, 2, 1)
	if err != nil {
		t.Fatalf("cropRows: %v", err)
	}
	want := buf[20:28]
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("crop mismatch (-want +got):\n%s", diff)
	}

	if _, err := cropRows(buf, 4, 2, 3, 0, 2, 1); err == nil {
		t.Error("cropRows accepted a rect past the right edge")
	}
	if _, err := cropRows(buf, 4, 2, 0, 0, 0, 1); err == nil {
		t.Error("cropRows accepted a zero-width rect")
	}
}

func TestBindUniformStagesShadow(t *testing.T) {
	d := &Device{shadow: make([]float32, paramFloats)}
	slot := grade.GroupSlot(grade.GroupExposure)
	off := slotOffset(slot)

	d.BindUniform(slot, []float32{1, 0.5})
	if d.shadow[off] != 1 || d.shadow[off+1] != 0.5 {
		t.Errorf("shadow block = %v %v, want 1 0.5", d.shadow[off], d.shadow[off+1])
	}

	// A shorter rebind zeroes the rest of the block.
	d.BindUniform(slot, []float32{2})
	if d.shadow[off] != 2 || d.shadow[off+1] != 0 {
		t.Errorf("shadow block = %v %v, want 2 0", d.shadow[off], d.shadow[off+1])
	}

	// Overlong payloads stop at the stride.
	next := off + slotStride
	d.shadow[next] = 7
	d.BindUniform(slot, make([]float32, slotStride+4))
	if d.shadow[next] != 7 {
		t.Errorf("overlong payload bled into the next slot: %v", d.shadow[next])
	}

	// Out-of-range slots are ignored.
	d.BindUniform(grade.UniformSlot(200), []float32{1})
}

func TestBindResourceStagesShadowAndMeta(t *testing.T) {
	d := &Device{shadow: make([]float32, paramFloats)}

	table := []float32{0, 0.5, 1}
	d.BindResource(grade.SlotCurve, &grade.Resource{Table: table, Upload: true})
	curveOff := metaOffset(grade.SlotCurve)
	if d.shadow[curveOff] != 3 {
		t.Errorf("curve length meta = %v, want 3", d.shadow[curveOff])
	}
	if d.resShadow[grade.SlotCurve] == nil {
		t.Fatal("curve shadow not captured")
	}
	table[1] = 9
	if got := d.resShadow[grade.SlotCurve].Table[1]; got != 0.5 {
		t.Errorf("shadow shares the caller's table: %v", got)
	}

	cube := &grade.LUTData{Size: 2, Table: make([]float32, 2*2*2*3)}
	d.BindResource(grade.SlotLUT, &grade.Resource{Cube: cube, Upload: true})
	if got := d.shadow[metaOffset(grade.SlotLUT)]; got != 2 {
		t.Errorf("lut size meta = %v, want 2", got)
	}

	img := &grade.ImageData{Width: 3, Height: 2, Pixels: make([]byte, 24)}
	d.BindResource(grade.SlotWatermark, &grade.Resource{Image: img, Upload: true})
	wmOff := metaOffset(grade.SlotWatermark)
	if d.shadow[wmOff] != 3 || d.shadow[wmOff+1] != 2 {
		t.Errorf("watermark meta = %v %v, want 3 2", d.shadow[wmOff], d.shadow[wmOff+1])
	}

	// Unbinding clears metadata and the shadow.
	d.BindResource(grade.SlotCurve, nil)
	if d.shadow[curveOff] != 0 {
		t.Errorf("curve meta after unbind = %v, want 0", d.shadow[curveOff])
	}
	if d.resShadow[grade.SlotCurve] != nil {
		t.Error("curve shadow survived unbind")
	}

	// An undersized LUT table is dropped, not bound.
	short := &grade.Resource{Cube: &grade.LUTData{Size: 4, Table: make([]float32, 5)}, Upload: true}
	d.BindResource(grade.SlotLUT, short)
	if got := d.shadow[metaOffset(grade.SlotLUT)]; got != 0 {
		t.Errorf("undersized lut meta = %v, want 0", got)
	}
	if d.resShadow[grade.SlotLUT] != nil {
		t.Error("undersized lut captured in shadow")
	}
}

func TestOnContextEventSubscription(t *testing.T) {
	d := &Device{}
	var got []bool
	cancel := d.OnContextEvent(func(lost bool) { got = append(got, lost) })

	d.notify(true)
	d.notify(false)
	cancel()
	d.notify(true)

	want := []bool{true, false}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestDeviceGuards(t *testing.T) {
	d := &Device{shadow: make([]float32, paramFloats)}

	if err := d.Resize(0, 4); err == nil {
		t.Error("Resize accepted zero width")
	}
	if err := d.Resize(4, 4); !errors.Is(err, ErrDeviceLost) {
		t.Errorf("Resize on lost device: err = %v, want ErrDeviceLost", err)
	}
	if d.width != 4 || d.height != 4 {
		t.Errorf("lost device forgot dimensions: %dx%d", d.width, d.height)
	}
	if err := d.Draw(nil); !errors.Is(err, ErrDeviceLost) {
		t.Errorf("Draw on lost device: err = %v, want ErrDeviceLost", err)
	}
	if _, err := d.Readback(0, 0, 1, 1); !errors.Is(err, ErrDeviceLost) {
		t.Errorf("Readback on lost device: err = %v, want ErrDeviceLost", err)
	}

	d.ready = true
	if err := d.Draw(nil); !errors.Is(err, ErrNotSized) {
		t.Errorf("Draw before Resize: err = %v, want ErrNotSized", err)
	}
	if err := d.Clear(grade.RGBA{}); !errors.Is(err, ErrNotSized) {
		t.Errorf("Clear before Resize: err = %v, want ErrNotSized", err)
	}
	if _, err := d.Readback(0, 0, 1, 1); !errors.Is(err, ErrNotSized) {
		t.Errorf("Readback before Resize: err = %v, want ErrNotSized", err)
	}

	d.closed = true
	if err := d.Resize(4, 4); !errors.Is(err, ErrDeviceClosed) {
		t.Errorf("Resize after Close: err = %v, want ErrDeviceClosed", err)
	}
}

func TestCloseIdempotent(t *testing.T) {
	d := &Device{}
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestDeviceMode(t *testing.T) {
	d := &Device{}
	if got := d.Mode(); got != "wgpu" {
		t.Errorf("Mode() = %q, want %q", got, "wgpu")
	}
}
