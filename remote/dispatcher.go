package remote

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/google/uuid"

	"github.com/gogpu/grade"
	"github.com/gogpu/grade/frame"
	"github.com/gogpu/grade/proto"
)

// Dispatcher is the execution side of a grading session. It owns a
// grade.Device and a grade.Engine and consumes messages strictly in
// arrival order on the Serve goroutine, so neither is ever touched from
// two goroutines. A state delta flushed before a render request is
// therefore always applied before that render executes.
type Dispatcher struct {
	t   Transport
	dev grade.Device
	eng *grade.Engine

	mu      sync.Mutex
	session uuid.UUID

	// lost and needRepush are flipped from the device's loss-notifier
	// goroutine and read on the Serve goroutine.
	lost       atomic.Bool
	needRepush atomic.Bool
}

// NewDispatcher creates a dispatcher driving dev. A nil dev renders
// into a grade.NullDevice.
func NewDispatcher(t Transport, dev grade.Device, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{t: t, dev: dev}
	for _, opt := range opts {
		opt(d)
	}
	if d.dev == nil {
		d.dev = grade.NullDevice{}
	}
	if d.eng == nil {
		d.eng = grade.NewEngine()
	}
	return d
}

// Serve announces readiness, then consumes messages until the transport
// closes, ctx ends, or a Dispose arrives. Each message is handled
// completely before the next one is read.
//
// If the device implements grade.LossNotifier, loss events broadcast
// ContextLost and make render and readback requests answer with a
// not-available failure; restoration broadcasts ContextRestored and
// forces the complete state to be re-pushed before the next draw.
func (d *Dispatcher) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { _ = d.t.Close() })
	defer stop()

	if ln, ok := d.dev.(grade.LossNotifier); ok {
		cancel := ln.OnContextEvent(d.onContextEvent)
		defer cancel()
	}

	grade.Logger().Info("dispatcher serving", "mode", deviceMode(d.dev))
	defer grade.Logger().Info("dispatcher stopped")

	if err := d.send(proto.Ready{}); err != nil {
		return err
	}

	for {
		env, err := d.t.Recv()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, ErrChannelClosed) {
				// Peer went away without Dispose; normal teardown.
				return nil
			}
			return err
		}
		if env.Version != proto.Version {
			grade.Logger().Warn("rejecting foreign protocol version",
				"version", env.Version)
			return ErrProtocolVersion
		}
		d.adoptSession(env.Session)
		if d.handle(env.Msg) {
			return nil
		}
	}
}

// handle processes one message and reports whether the session is done.
func (d *Dispatcher) handle(msg proto.Message) (done bool) {
	switch m := msg.(type) {
	case proto.Init:
		d.handleInit(m)

	case proto.Resize:
		if err := d.dev.Resize(m.Width, m.Height); err != nil {
			grade.Logger().Warn("resize failed",
				"w", m.Width, "h", m.Height, "err", err)
		}

	case proto.Clear:
		if err := d.dev.Clear(m.Color); err != nil {
			grade.Logger().Warn("clear failed", "err", err)
		}

	case proto.SyncState:
		d.eng.ApplyPatch(m.Patch)
		d.eng.Flush(d.dev)

	case proto.RenderFrame:
		d.handleRender(m.ID, m.Buffer, &grade.SourceFrame{
			Width: m.Width, Height: m.Height, Channels: 4,
		})

	case proto.RenderHDRFrame:
		d.handleRender(m.ID, m.Buffer, &grade.SourceFrame{
			Width: m.Width, Height: m.Height,
			Format: m.Format, Channels: m.Channels,
			Transfer: m.Transfer, Primaries: m.Primaries,
		})

	case proto.ReadPixel:
		d.handleReadPixel(m)

	case proto.Dispose:
		d.eng.Reset()
		if c, ok := d.dev.(io.Closer); ok {
			_ = c.Close()
		}
		return true

	default:
		grade.Logger().Debug("dropping unexpected message", "kind", msg.Kind())
	}
	return false
}

// handleInit probes the device by sizing the surface, then force-pushes
// the complete state so the first draw starts from a known binding
// table. A failed init is reported and not retried.
func (d *Dispatcher) handleInit(m proto.Init) {
	if m.Caps.Width <= 0 || m.Caps.Height <= 0 {
		d.send(proto.InitResult{ID: m.ID, Err: "invalid surface size"})
		return
	}
	if err := d.dev.Resize(m.Caps.Width, m.Caps.Height); err != nil {
		grade.Logger().Warn("device init failed", "err", err)
		d.send(proto.InitResult{ID: m.ID, Err: err.Error()})
		return
	}
	d.eng.MarkAllDirty()
	d.eng.Flush(d.dev)
	mode := deviceMode(d.dev)
	grade.Logger().Info("device initialized",
		"mode", mode, "w", m.Caps.Width, "h", m.Caps.Height, "hdr", m.Caps.HDR)
	d.send(proto.InitResult{ID: m.ID, Mode: mode})
}

func (d *Dispatcher) handleRender(id uint64, buf *frame.Buffer, src *grade.SourceFrame) {
	defer buf.Release()

	if d.lost.Load() {
		d.send(proto.RenderError{ID: id, Reason: "rendering context lost"})
		return
	}
	if buf == nil {
		d.send(proto.RenderError{ID: id, Reason: "no source buffer"})
		return
	}
	if d.needRepush.CompareAndSwap(true, false) {
		d.eng.MarkAllDirty()
	}
	d.eng.Flush(d.dev)

	src.Pixels = buf.Pix
	src.Stride = buf.Stride
	if src.Format == gputypes.TextureFormatUndefined {
		src.Format = buf.Format
	}
	if err := d.dev.Draw(src); err != nil {
		d.send(proto.RenderError{ID: id, Reason: err.Error()})
		return
	}
	d.send(proto.RenderDone{ID: id})
}

// handleReadPixel answers with nil data when the readback itself fails;
// that path is distinct from a request-level error.
func (d *Dispatcher) handleReadPixel(m proto.ReadPixel) {
	if d.lost.Load() {
		d.send(proto.PixelData{ID: m.ID})
		return
	}
	data, err := d.dev.Readback(m.X, m.Y, m.Width, m.Height)
	if err != nil {
		grade.Logger().Debug("readback failed",
			"x", m.X, "y", m.Y, "w", m.Width, "h", m.Height, "err", err)
		data = nil
	}
	d.send(proto.PixelData{ID: m.ID, Data: data})
}

// onContextEvent runs on the device's notifier goroutine. It only flips
// flags and broadcasts; the engine is touched exclusively by Serve.
func (d *Dispatcher) onContextEvent(lost bool) {
	d.lost.Store(lost)
	if lost {
		grade.Logger().Warn("rendering context lost")
		_ = d.send(proto.ContextLost{})
		return
	}
	d.needRepush.Store(true)
	grade.Logger().Info("rendering context restored")
	_ = d.send(proto.ContextRestored{})
}

// adoptSession pins the session id to stamp on responses. The first
// envelope wins.
func (d *Dispatcher) adoptSession(id uuid.UUID) {
	if id == uuid.Nil {
		return
	}
	d.mu.Lock()
	if d.session == uuid.Nil {
		d.session = id
	}
	d.mu.Unlock()
}

func (d *Dispatcher) send(msg proto.Message) error {
	d.mu.Lock()
	session := d.session
	d.mu.Unlock()
	if err := d.t.Send(proto.Seal(session, msg)); err != nil {
		grade.Logger().Debug("send failed", "kind", msg.Kind(), "err", err)
		return err
	}
	return nil
}

// deviceMode names the backing implementation for InitResult, through
// the optional Mode capability backends expose.
func deviceMode(dev grade.Device) string {
	if m, ok := dev.(interface{ Mode() string }); ok {
		return m.Mode()
	}
	return "unknown"
}
