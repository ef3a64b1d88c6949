package remote

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/gogpu/grade/proto"
	"github.com/gogpu/grade/wire"
)

// Transport moves envelopes between the two halves of a session. Sends
// from one side arrive at the other side's Recv in send order, exactly
// once.
//
// Send may be called from multiple goroutines; Recv is single-reader.
// After Close, Send fails and Recv drains already-queued envelopes
// before reporting ErrChannelClosed, so a best-effort Dispose sent just
// before Close still reaches the peer.
type Transport interface {
	Send(env proto.Envelope) error
	Recv() (proto.Envelope, error)
	Close() error
}

// pipeDepth is the per-direction queue of an in-process pipe. Deep
// enough that an editing burst never blocks on the dispatcher; shallow
// enough to apply backpressure when the device falls behind.
const pipeDepth = 64

// Pipe returns the two ends of an in-process transport. Envelopes sent
// on one end arrive at the other's Recv. Closing either end closes
// both directions.
func Pipe() (caller, exec Transport) {
	toExec := make(chan proto.Envelope, pipeDepth)
	toCaller := make(chan proto.Envelope, pipeDepth)
	done := make(chan struct{})
	once := &sync.Once{}
	caller = &pipeEnd{out: toExec, in: toCaller, done: done, once: once}
	exec = &pipeEnd{out: toCaller, in: toExec, done: done, once: once}
	return caller, exec
}

type pipeEnd struct {
	out  chan<- proto.Envelope
	in   <-chan proto.Envelope
	done chan struct{}
	once *sync.Once
}

// Send implements Transport.
func (p *pipeEnd) Send(env proto.Envelope) error {
	select {
	case <-p.done:
		return ErrChannelClosed
	default:
	}
	select {
	case p.out <- env:
		return nil
	case <-p.done:
		return ErrChannelClosed
	}
}

// Recv implements Transport. Queued envelopes drain even after Close.
func (p *pipeEnd) Recv() (proto.Envelope, error) {
	select {
	case env := <-p.in:
		return env, nil
	default:
	}
	select {
	case env := <-p.in:
		return env, nil
	case <-p.done:
		// One more drain: a sender may have won the race between
		// queueing and the close.
		select {
		case env := <-p.in:
			return env, nil
		default:
			return proto.Envelope{}, ErrChannelClosed
		}
	}
}

// Close implements Transport.
func (p *pipeEnd) Close() error {
	p.once.Do(func() { close(p.done) })
	return nil
}

// StreamTransport frames envelopes over a byte stream using package
// wire. Both directions carry their own frame sequence; a gap or
// reorder is reported as channel-fatal.
type StreamTransport struct {
	rwc io.ReadWriteCloser

	wmu  sync.Mutex
	wseq uint64

	// rseq is only touched by the single Recv caller.
	rseq uint64
}

var _ Transport = (*StreamTransport)(nil)

// NewStreamTransport wraps rwc, typically a net.Conn or a pair of OS
// pipes into another process.
func NewStreamTransport(rwc io.ReadWriteCloser) *StreamTransport {
	return &StreamTransport{rwc: rwc}
}

// Send implements Transport.
func (t *StreamTransport) Send(env proto.Envelope) error {
	t.wmu.Lock()
	defer t.wmu.Unlock()
	if err := wire.WriteEnvelope(t.rwc, t.wseq, env); err != nil {
		return fmt.Errorf("%w: %w", ErrChannelClosed, err)
	}
	t.wseq++
	return nil
}

// Recv implements Transport.
func (t *StreamTransport) Recv() (proto.Envelope, error) {
	env, seq, err := wire.ReadEnvelope(t.rwc)
	if err != nil {
		if errors.Is(err, wire.ErrVersionMismatch) {
			return env, fmt.Errorf("%w: %w", ErrProtocolVersion, err)
		}
		if errors.Is(err, io.EOF) {
			return env, ErrChannelClosed
		}
		return env, fmt.Errorf("%w: %w", ErrChannelClosed, err)
	}
	if seq != t.rseq {
		return env, fmt.Errorf("%w: frame %d arrived, expected %d", ErrChannelClosed, seq, t.rseq)
	}
	t.rseq++
	return env, nil
}

// Close implements Transport.
func (t *StreamTransport) Close() error {
	return t.rwc.Close()
}
