package remote

import (
	"github.com/google/uuid"

	"github.com/gogpu/grade"
	"github.com/gogpu/grade/frame"
)

// Option configures a Renderer.
type Option func(*Renderer)

// WithSession sets the session id stamped on every envelope. Defaults
// to a fresh random id per Renderer.
func WithSession(id uuid.UUID) Option {
	return func(r *Renderer) { r.session = id }
}

// WithStager attaches a frame staging slot to the renderer's lifecycle:
// Close releases any staged-but-unconsumed buffer along with the rest
// of the session.
func WithStager(s *frame.Stager) Option {
	return func(r *Renderer) { r.stager = s }
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithEngine supplies the diffing engine the dispatcher drives, for
// callers that need a non-default curve computation. Defaults to
// grade.NewEngine().
func WithEngine(eng *grade.Engine) DispatcherOption {
	return func(d *Dispatcher) { d.eng = eng }
}
