package remote

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/google/uuid"

	"github.com/gogpu/grade"
	"github.com/gogpu/grade/frame"
	"github.com/gogpu/grade/proto"
)

// Renderer is the caller-side proxy of a grading session. Setters write
// into a local pending delta and a cached state copy and return
// immediately; render and readback calls flush the delta as one batched
// SyncState, then send a correlated request and return a [Pending].
//
// All methods are safe for concurrent use. Pendings complete on the
// receive goroutine in response arrival order.
type Renderer struct {
	t       Transport
	session uuid.UUID
	stager  *frame.Stager

	// mu guards the editing side: cached state, pending delta, id
	// counter, disposed flag. sendMu is acquired under mu and held
	// across the transport write after mu is released, so messages
	// leave in id-allocation order while editors stay unblocked.
	mu       sync.Mutex
	sendMu   sync.Mutex
	cache    *grade.State
	patch    grade.Patch
	nextID   uint64
	disposed bool

	// pmu guards everything the receive goroutine touches: the request
	// table, subscribers, the channel-fatal error. Kept apart from mu
	// and never held across a transport op, so a blocked send can never
	// stall response handling.
	pmu     sync.Mutex
	pending map[uint64]*Pending
	subs    map[int]func(lost bool)
	subSeq  int
	fatal   error

	lost atomic.Bool

	readyOnce sync.Once
	readyCh   chan struct{}
	recvDone  chan struct{}
	closeOnce sync.Once
}

// NewRenderer creates a proxy speaking over t and starts its receive
// goroutine. The caller owns the session's lifetime through Close.
func NewRenderer(t Transport, opts ...Option) *Renderer {
	r := &Renderer{
		t:        t,
		session:  uuid.New(),
		cache:    grade.DefaultState(),
		nextID:   1,
		pending:  make(map[uint64]*Pending),
		subs:     make(map[int]func(bool)),
		readyCh:  make(chan struct{}),
		recvDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	go r.recvLoop()
	return r
}

// Session returns the id stamped on this renderer's envelopes.
func (r *Renderer) Session() uuid.UUID { return r.session }

// Stager returns the staging slot attached with WithStager, nil if none.
func (r *Renderer) Stager() *frame.Stager { return r.stager }

// Ready returns a channel closed when the dispatcher announces it is
// consuming messages. Waiters should select against their own context:
// the channel never closes if the peer dies first.
func (r *Renderer) Ready() <-chan struct{} { return r.readyCh }

// ContextLost reports whether the rendering context is currently lost.
// While lost, render and readback calls fail fast with ErrContextLost
// without touching the channel.
func (r *Renderer) ContextLost() bool { return r.lost.Load() }

// OnContextEvent subscribes fn to context loss and restoration
// notifications. fn runs on the receive goroutine and must not block.
// The returned cancel removes the subscription.
func (r *Renderer) OnContextEvent(fn func(lost bool)) (cancel func()) {
	r.pmu.Lock()
	id := r.subSeq
	r.subSeq++
	r.subs[id] = fn
	r.pmu.Unlock()
	return func() {
		r.pmu.Lock()
		delete(r.subs, id)
		r.pmu.Unlock()
	}
}

// ----------------------------------------------------------------------------
// Requests
// ----------------------------------------------------------------------------

// Init asks the execution side to initialize its device for the given
// capabilities. The result's Mode reports the backing render mode. A
// failed init is fatal to the session and not retried.
func (r *Renderer) Init(caps proto.Capabilities) *Pending {
	return r.request(proto.KindInit, false, nil, func(id uint64) proto.Message {
		return proto.Init{ID: id, Caps: caps}
	})
}

// RenderFrame renders one SDR frame from buf. Ownership of buf moves
// with the call: the renderer releases it on every failure path and the
// dispatcher releases it after drawing. The caller must not touch buf
// afterwards.
func (r *Renderer) RenderFrame(buf *frame.Buffer, w, h int) *Pending {
	return r.request(proto.KindRenderFrame, true, buf, func(id uint64) proto.Message {
		return proto.RenderFrame{ID: id, Buffer: buf, Width: w, Height: h}
	})
}

// HDRFormat describes the pixel encoding of an HDR source buffer.
type HDRFormat struct {
	// Format is the pixel data type, for example RGBA32Float.
	Format gputypes.TextureFormat
	// Channels is the number of interleaved channels per pixel.
	Channels int
	// Transfer is the transfer function the pixels are encoded with.
	Transfer grade.Transfer
	// Primaries are the color primaries of the pixels.
	Primaries grade.Primaries
}

// RenderHDRFrame renders one HDR frame from buf. Buffer ownership moves
// as with RenderFrame.
func (r *Renderer) RenderHDRFrame(buf *frame.Buffer, w, h int, f HDRFormat) *Pending {
	return r.request(proto.KindRenderHDRFrame, true, buf, func(id uint64) proto.Message {
		return proto.RenderHDRFrame{
			ID: id, Buffer: buf, Width: w, Height: h,
			Format: f.Format, Channels: f.Channels,
			Transfer: f.Transfer, Primaries: f.Primaries,
		}
	})
}

// ReadPixel requests the given rectangle of rendered output. On success
// the result's Data holds tightly packed RGBA bytes; nil Data reports a
// readback that failed on the device without failing the request.
func (r *Renderer) ReadPixel(x, y, w, h int) *Pending {
	return r.request(proto.KindReadPixel, true, nil, func(id uint64) proto.Message {
		return proto.ReadPixel{ID: id, X: x, Y: y, Width: w, Height: h}
	})
}

// request flushes the pending delta, registers a Pending under a fresh
// id and sends the built message. buf, if any, is released on every
// path that fails before the transport accepts the message.
func (r *Renderer) request(kind proto.Kind, gateLost bool, buf *frame.Buffer, build func(id uint64) proto.Message) *Pending {
	if gateLost && r.lost.Load() {
		buf.Release()
		return rejected(kind, ErrContextLost)
	}

	r.mu.Lock()
	if r.disposed {
		r.mu.Unlock()
		buf.Release()
		return rejected(kind, ErrDisposed)
	}

	msgs := make([]proto.Message, 0, 2)
	if !r.patch.IsEmpty() {
		msgs = append(msgs, proto.SyncState{Patch: r.patch.Clone()})
		r.patch.Reset()
	}
	id := r.nextID
	r.nextID++
	msgs = append(msgs, build(id))
	p := newPending(id, kind)

	r.pmu.Lock()
	if r.fatal != nil {
		err := r.fatal
		r.pmu.Unlock()
		r.mu.Unlock()
		buf.Release()
		return rejected(kind, err)
	}
	r.pending[id] = p
	r.pmu.Unlock()

	if err := r.send(msgs); err != nil { // releases mu
		buf.Release()
		r.fail(err)
	}
	return p
}

// Resize resizes the remote output surface. Fire-and-forget.
func (r *Renderer) Resize(w, h int) {
	r.directive(proto.Resize{Width: w, Height: h})
}

// Clear fills the remote output with a solid color. Fire-and-forget.
func (r *Renderer) Clear(c grade.RGBA) {
	r.directive(proto.Clear{Color: c})
}

func (r *Renderer) directive(msg proto.Message) {
	r.mu.Lock()
	if r.disposed {
		r.mu.Unlock()
		return
	}
	if err := r.send([]proto.Message{msg}); err != nil {
		r.fail(err)
	}
}

// send writes msgs in order. Called with mu held; mu is released once
// sendMu is taken, so later batches queue behind this one while the
// editing lock stays free during the write.
func (r *Renderer) send(msgs []proto.Message) error {
	r.sendMu.Lock()
	r.mu.Unlock()
	defer r.sendMu.Unlock()
	for _, m := range msgs {
		if err := r.t.Send(proto.Seal(r.session, m)); err != nil {
			return fmt.Errorf("%w: send %v: %w", ErrChannelClosed, m.Kind(), err)
		}
	}
	return nil
}

// ----------------------------------------------------------------------------
// Lifecycle
// ----------------------------------------------------------------------------

// Close disposes the session: a best-effort Dispose directive is sent,
// every pending request is rejected with ErrDisposed, any staged frame
// buffer is released and the transport is closed. Afterwards setters
// are silent no-ops and requests fail fast, so late UI events during
// teardown are tolerated. Idempotent.
func (r *Renderer) Close() error {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.disposed = true
		r.patch.Reset()

		r.pmu.Lock()
		orphans := make([]*Pending, 0, len(r.pending))
		for _, p := range r.pending {
			orphans = append(orphans, p)
		}
		clear(r.pending)
		alive := r.fatal == nil
		r.pmu.Unlock()

		if alive {
			_ = r.send([]proto.Message{proto.Dispose{}}) // releases mu
		} else {
			r.mu.Unlock()
		}

		for _, p := range orphans {
			p.reject(ErrDisposed)
		}
		if r.stager != nil {
			r.stager.Close()
		}
		_ = r.t.Close()
		grade.Logger().Debug("renderer closed",
			"session", r.session, "rejected", len(orphans))
	})
	return nil
}

// fail marks the channel dead and rejects every pending request. The
// first error wins; later failures keep it.
func (r *Renderer) fail(err error) {
	r.pmu.Lock()
	if r.fatal == nil {
		r.fatal = err
	} else {
		err = r.fatal
	}
	orphans := make([]*Pending, 0, len(r.pending))
	for _, p := range r.pending {
		orphans = append(orphans, p)
	}
	clear(r.pending)
	r.pmu.Unlock()

	for _, p := range orphans {
		p.reject(err)
	}
	if len(orphans) > 0 {
		grade.Logger().Warn("channel failed, rejecting pending requests",
			"session", r.session, "rejected", len(orphans), "err", err)
	}
}

// ----------------------------------------------------------------------------
// Receive loop
// ----------------------------------------------------------------------------

// recvLoop drains the transport until it closes. It deliberately never
// touches mu: response handling must stay live while an editor goroutine
// blocks inside a send.
func (r *Renderer) recvLoop() {
	defer close(r.recvDone)
	for {
		env, err := r.t.Recv()
		if err != nil {
			r.fail(err)
			return
		}
		if env.Version != proto.Version {
			grade.Logger().Warn("rejecting foreign protocol version",
				"session", r.session, "version", env.Version)
			r.fail(ErrProtocolVersion)
			return
		}
		r.dispatchMsg(env.Msg)
	}
}

func (r *Renderer) dispatchMsg(msg proto.Message) {
	switch m := msg.(type) {
	case proto.Ready:
		r.readyOnce.Do(func() { close(r.readyCh) })
	case proto.InitResult:
		if m.Err != "" {
			r.reject(m.ID, fmt.Errorf("%w: %s", ErrInitFailed, m.Err))
			return
		}
		r.resolve(m.ID, nil, m.Mode)
	case proto.RenderDone:
		r.resolve(m.ID, nil, "")
	case proto.RenderError:
		r.reject(m.ID, fmt.Errorf("%w: %s", ErrRenderFailed, m.Reason))
	case proto.PixelData:
		r.resolve(m.ID, m.Data, "")
	case proto.ContextLost:
		r.setLost(true)
	case proto.ContextRestored:
		r.setLost(false)
	default:
		grade.Logger().Debug("dropping unexpected message", "kind", msg.Kind())
	}
}

// resolve fulfils and removes the pending entry for id. Responses with
// no matching entry (already rejected at Close) are dropped.
func (r *Renderer) resolve(id uint64, data []byte, mode string) {
	r.pmu.Lock()
	p, ok := r.pending[id]
	delete(r.pending, id)
	r.pmu.Unlock()
	if !ok {
		grade.Logger().Debug("dropping response for unknown request", "id", id)
		return
	}
	p.resolve(data, mode)
}

func (r *Renderer) reject(id uint64, err error) {
	r.pmu.Lock()
	p, ok := r.pending[id]
	delete(r.pending, id)
	r.pmu.Unlock()
	if !ok {
		grade.Logger().Debug("dropping response for unknown request", "id", id)
		return
	}
	p.reject(err)
}

func (r *Renderer) setLost(lost bool) {
	r.lost.Store(lost)

	r.pmu.Lock()
	subs := make([]func(bool), 0, len(r.subs))
	for _, fn := range r.subs {
		subs = append(subs, fn)
	}
	r.pmu.Unlock()

	for _, fn := range subs {
		fn(lost)
	}
}
