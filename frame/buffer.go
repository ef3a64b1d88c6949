package frame

import (
	"sync"

	"github.com/gogpu/gputypes"
)

// Buffer holds one frame's pixels. Buffers travel with render messages
// across the proxy/dispatcher boundary: ownership moves with the
// message, the sender must not touch the buffer after send, and the
// receiver releases it.
type Buffer struct {
	// Pix holds the pixel data, Stride bytes per row, tightly packed
	// unless Stride says otherwise.
	Pix []byte
	// Width and Height are the frame size in pixels.
	Width  int
	Height int
	// Stride is the byte distance between rows.
	Stride int
	// Format describes the pixel layout.
	Format gputypes.TextureFormat

	pool *Pool // nil for unpooled buffers
}

// Release returns the buffer to its pool, or drops it if unpooled.
// The caller must not use the buffer afterwards. Calling Release on a
// nil buffer is a no-op.
func (b *Buffer) Release() {
	if b == nil {
		return
	}
	if b.pool != nil {
		b.pool.Put(b)
		return
	}
	b.Pix = nil
}

// bytesPerPixel returns the pixel size for the formats buffers carry.
func bytesPerPixel(format gputypes.TextureFormat) int {
	switch format {
	case gputypes.TextureFormatR8Unorm:
		return 1
	case gputypes.TextureFormatR32Float:
		return 4
	case gputypes.TextureFormatRG32Float:
		return 8
	case gputypes.TextureFormatRGBA32Float:
		return 16
	default:
		// RGBA8Unorm and friends.
		return 4
	}
}

// Pool recycles Buffers to keep steady-state staging allocation-free.
// Pixel storage is kept across reuse and regrown only when a larger
// frame comes through.
//
// Usage:
//
//	pool := frame.NewPool()
//	buf := pool.Get(w, h, gputypes.TextureFormatRGBA8Unorm)
//	defer buf.Release()
type Pool struct {
	pool sync.Pool
}

// NewPool creates an empty buffer pool.
func NewPool() *Pool {
	p := &Pool{}
	p.pool.New = func() any {
		return &Buffer{pool: p}
	}
	return p
}

// Get returns a buffer sized for a w×h frame in the given format. The
// pixel contents are unspecified; callers overwrite them.
func (p *Pool) Get(w, h int, format gputypes.TextureFormat) *Buffer {
	b := p.pool.Get().(*Buffer)
	stride := w * bytesPerPixel(format)
	size := stride * h
	if cap(b.Pix) < size {
		b.Pix = make([]byte, size)
	}
	b.Pix = b.Pix[:size]
	b.Width = w
	b.Height = h
	b.Stride = stride
	b.Format = format
	return b
}

// Put returns a buffer for reuse. Prefer Buffer.Release, which routes
// here for pooled buffers.
func (p *Pool) Put(b *Buffer) {
	if b == nil || b.pool != p {
		return
	}
	b.Width, b.Height, b.Stride = 0, 0, 0
	p.pool.Put(b)
}

// DefaultPool is the pool used by package-level helpers and by stagers
// created without an explicit pool.
var DefaultPool = NewPool()

// GetBuffer returns a buffer from the default pool.
func GetBuffer(w, h int, format gputypes.TextureFormat) *Buffer {
	return DefaultPool.Get(w, h, format)
}
