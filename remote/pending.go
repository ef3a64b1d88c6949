package remote

import (
	"context"

	"github.com/gogpu/grade/proto"
)

// Pending is the deferred result of one correlated request. It is
// fulfilled or rejected exactly once, when the matching response
// arrives or when the session fails. All methods are safe for
// concurrent use; result accessors are valid once Done is closed.
type Pending struct {
	id   uint64
	kind proto.Kind
	done chan struct{}

	// Written once before done closes.
	err  error
	data []byte
	mode string
}

func newPending(id uint64, kind proto.Kind) *Pending {
	return &Pending{id: id, kind: kind, done: make(chan struct{})}
}

// rejected returns an already-failed Pending for requests that never
// reach the channel.
func rejected(kind proto.Kind, err error) *Pending {
	p := newPending(0, kind)
	p.err = err
	close(p.done)
	return p
}

// ID returns the request id, 0 for requests rejected before send.
func (p *Pending) ID() uint64 { return p.id }

// Kind returns the request kind this result answers.
func (p *Pending) Kind() proto.Kind { return p.kind }

// Done returns a channel closed when the result is ready.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the result is ready or ctx ends. It returns the
// request's error, or ctx.Err() on early cancellation; the request
// itself keeps running — there is no mid-flight cancellation.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the request's failure, nil on success. Valid once Done
// is closed.
func (p *Pending) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

// Data returns the payload of a fulfilled ReadPixel request. Nil when
// the request is not done, failed, or the remote readback itself
// failed.
func (p *Pending) Data() []byte {
	select {
	case <-p.done:
		return p.data
	default:
		return nil
	}
}

// Mode returns the render mode reported by a fulfilled Init request.
func (p *Pending) Mode() string {
	select {
	case <-p.done:
		return p.mode
	default:
		return ""
	}
}

// resolve fulfils the result. The renderer removes the entry from its
// table before calling, so each Pending completes at most once.
func (p *Pending) resolve(data []byte, mode string) {
	p.data = data
	p.mode = mode
	close(p.done)
}

// reject fails the result.
func (p *Pending) reject(err error) {
	p.err = err
	close(p.done)
}
