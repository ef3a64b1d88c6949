package frame

import (
	"testing"

	"github.com/gogpu/gputypes"
)

func TestPoolGet(t *testing.T) {
	tests := []struct {
		name       string
		w, h       int
		format     gputypes.TextureFormat
		wantStride int
	}{
		{"rgba8", 16, 8, gputypes.TextureFormatRGBA8Unorm, 64},
		{"bgra8", 16, 8, gputypes.TextureFormatBGRA8Unorm, 64},
		{"r8", 16, 8, gputypes.TextureFormatR8Unorm, 16},
		{"rgba32f", 4, 4, gputypes.TextureFormatRGBA32Float, 64},
	}

	pool := NewPool()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := pool.Get(tt.w, tt.h, tt.format)
			defer b.Release()

			if b.Width != tt.w || b.Height != tt.h {
				t.Errorf("size = %dx%d, want %dx%d", b.Width, b.Height, tt.w, tt.h)
			}
			if b.Stride != tt.wantStride {
				t.Errorf("Stride = %d, want %d", b.Stride, tt.wantStride)
			}
			if len(b.Pix) != tt.wantStride*tt.h {
				t.Errorf("len(Pix) = %d, want %d", len(b.Pix), tt.wantStride*tt.h)
			}
			if b.Format != tt.format {
				t.Errorf("Format = %v, want %v", b.Format, tt.format)
			}
		})
	}
}

func TestPoolReuse(t *testing.T) {
	pool := NewPool()

	b := pool.Get(8, 8, gputypes.TextureFormatRGBA8Unorm)
	b.Pix[0] = 0xFF
	b.Release()

	// Whether or not the same allocation comes back, the buffer must be
	// correctly sized and fully usable.
	c := pool.Get(4, 4, gputypes.TextureFormatRGBA8Unorm)
	defer c.Release()
	if len(c.Pix) != 4*4*4 {
		t.Errorf("len(Pix) = %d, want %d", len(c.Pix), 4*4*4)
	}
}

func TestBufferReleaseNil(t *testing.T) {
	var b *Buffer
	b.Release() // must not panic
}

func TestBufferReleaseUnpooled(t *testing.T) {
	b := &Buffer{Pix: make([]byte, 16), Width: 2, Height: 2, Stride: 8}
	b.Release()
	if b.Pix != nil {
		t.Error("unpooled Release kept pixel storage")
	}
}

func TestPoolPutForeignBuffer(t *testing.T) {
	p1 := NewPool()
	p2 := NewPool()
	b := p1.Get(2, 2, gputypes.TextureFormatRGBA8Unorm)
	p2.Put(b) // wrong pool: ignored, not adopted
	b.Release()
}
