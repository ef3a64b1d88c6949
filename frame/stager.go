package frame

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/grade"
	"github.com/gogpu/grade/internal/cache"
)

// ErrStagerClosed is returned by Stage after Close.
var ErrStagerClosed = errors.New("frame: stager closed")

// Stager is a single-slot frame hand-off between a producer that
// decides what to show next and a present loop that consumes frames.
//
// The slot holds at most one decoded buffer. Staging a different frame
// releases the previous staged buffer immediately (latest wins);
// re-staging the frame already staged or decoding is a no-op, so a
// present loop that stages every tick does no redundant work.
// TakeStaged hands the buffer out exactly once; ownership moves to the
// caller, who releases it (typically by attaching it to a render
// message).
//
// Decoding runs on a worker goroutine per Stage call. A decode whose
// staging was superseded lands nowhere: its buffer is returned to the
// pool. Decode failures are recorded, surfaced as nil from TakeStaged
// and readable via Err.
//
// A Stager is safe for concurrent use.
type Stager struct {
	mu      sync.Mutex
	pool    *Pool
	cache   *cache.Cache[string, *image.RGBA]
	targetW int
	targetH int

	gen        uint64 // bumped per accepted Stage; stale decodes miss
	staged     *Buffer
	stagedKey  string
	pendingKey string
	err        error
	closed     bool
}

// StagerOption configures a Stager.
type StagerOption func(*Stager)

// WithPool sets the buffer pool staged frames are drawn from. Defaults
// to DefaultPool.
func WithPool(p *Pool) StagerOption {
	return func(s *Stager) {
		if p != nil {
			s.pool = p
		}
	}
}

// WithTargetSize scales every staged frame to w×h. Zero (the default)
// keeps the native size.
func WithTargetSize(w, h int) StagerOption {
	return func(s *Stager) {
		s.targetW, s.targetH = w, h
	}
}

// WithDecodeCache keeps up to entries decoded frames per cache shard,
// so re-staging recently seen content skips the decode. Default is no
// cache.
func WithDecodeCache(entries int) StagerOption {
	return func(s *Stager) {
		s.cache = cache.New[string, *image.RGBA](entries, cache.StringHasher)
	}
}

// NewStager creates an empty stager.
func NewStager(opts ...StagerOption) *Stager {
	s := &Stager{pool: DefaultPool}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stage asks for src to become the staged frame. It returns once the
// decode has been handed to a worker goroutine; it never waits for the
// decode itself.
//
// If a buffer for a different source is already staged it is released
// now. If src is already staged, or already decoding, Stage does
// nothing.
func (s *Stager) Stage(ctx context.Context, src Source) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := src.Key()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStagerClosed
	}
	if s.staged != nil {
		if s.stagedKey == key {
			s.mu.Unlock()
			return nil
		}
		s.staged.Release()
		s.staged = nil
		s.stagedKey = ""
	}
	if s.pendingKey == key {
		s.mu.Unlock()
		return nil
	}
	s.gen++
	gen := s.gen
	s.pendingKey = key
	s.mu.Unlock()

	go s.decode(ctx, gen, key, src)
	return nil
}

// Staged reports whether a buffer is waiting to be taken.
func (s *Stager) Staged() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.staged != nil
}

// TakeStaged returns the staged buffer and clears the slot, or nil when
// nothing has landed since the last take (not yet decoded, failed, or
// never staged). Ownership of the returned buffer moves to the caller.
func (s *Stager) TakeStaged() *Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.staged
	s.staged = nil
	s.stagedKey = ""
	return b
}

// Err returns the most recent decode failure, or nil. A successful
// stage clears it.
func (s *Stager) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close releases any staged buffer and makes further Stage calls fail
// with ErrStagerClosed. In-flight decodes land nowhere. Idempotent.
func (s *Stager) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.gen++
	b := s.staged
	s.staged = nil
	s.stagedKey = ""
	s.pendingKey = ""
	s.mu.Unlock()

	b.Release()
}

func (s *Stager) decode(ctx context.Context, gen uint64, key string, src Source) {
	start := time.Now()
	img, err := s.load(key, src)

	s.mu.Lock()
	if s.gen != gen || s.closed {
		// A later Stage or Close superseded this decode.
		s.mu.Unlock()
		return
	}
	if err != nil || ctx.Err() != nil {
		s.pendingKey = ""
		if err == nil {
			err = ctx.Err()
		}
		s.err = err
		s.mu.Unlock()
		grade.Logger().Debug("frame decode failed", "key", key, "err", err)
		return
	}
	pool := s.pool
	s.mu.Unlock()

	buf := bufferFromRGBA(pool, img)

	s.mu.Lock()
	if s.gen != gen || s.closed {
		s.mu.Unlock()
		buf.Release()
		return
	}
	s.staged = buf
	s.stagedKey = key
	s.pendingKey = ""
	s.err = nil
	s.mu.Unlock()

	grade.Logger().Debug("frame staged",
		"key", key,
		"width", buf.Width,
		"height", buf.Height,
		"elapsed", time.Since(start))
}

// load produces the decoded, scaled RGBA content for key, consulting
// the decode cache when one is configured.
func (s *Stager) load(key string, src Source) (*image.RGBA, error) {
	if s.cache != nil {
		if img, ok := s.cache.Get(key); ok {
			return img, nil
		}
	}
	raw, err := src.Image()
	if err != nil {
		return nil, err
	}
	img := toRGBA(raw)
	if s.targetW > 0 && s.targetH > 0 {
		b := img.Bounds()
		if b.Dx() != s.targetW || b.Dy() != s.targetH {
			img = scaleRGBA(img, s.targetW, s.targetH)
		}
	}
	if s.cache != nil {
		s.cache.Set(key, img)
	}
	return img, nil
}

// bufferFromRGBA copies img into a pooled buffer. The image is not
// retained, so cached decodes stay immutable.
func bufferFromRGBA(pool *Pool, img *image.RGBA) *Buffer {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	buf := pool.Get(w, h, gputypes.TextureFormatRGBA8Unorm)
	if img.Stride == buf.Stride {
		copy(buf.Pix, img.Pix[:h*img.Stride])
		return buf
	}
	for y := 0; y < h; y++ {
		copy(buf.Pix[y*buf.Stride:(y+1)*buf.Stride], img.Pix[y*img.Stride:y*img.Stride+buf.Stride])
	}
	return buf
}
