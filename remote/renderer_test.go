package remote

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/grade"
	"github.com/gogpu/grade/frame"
	"github.com/gogpu/grade/proto"
)

func waitPending(t *testing.T, p *Pending) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := p.Wait(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatal("pending never completed")
	}
	return err
}

func testBuffer() *frame.Buffer {
	return frame.GetBuffer(2, 2, gputypes.TextureFormatRGBA8Unorm)
}

func TestRendererBatchesSettersBeforeRender(t *testing.T) {
	caller, exec := Pipe()
	r := NewRenderer(caller)
	defer r.Close()

	r.SetExposure(grade.Exposure{Enabled: true, EV: 0.5})
	r.SetExposure(grade.Exposure{Enabled: true, EV: 1.5}) // last write wins
	r.SetContrast(grade.Contrast{Enabled: true, Amount: 0.2, Pivot: 0.5})

	p := r.RenderFrame(testBuffer(), 2, 2)

	delta, ok := recvMsg(t, exec).(proto.SyncState)
	if !ok {
		t.Fatal("first message is not SyncState")
	}
	wantGroups := []grade.Group{grade.GroupExposure, grade.GroupContrast}
	if diff := cmp.Diff(wantGroups, delta.Patch.Groups()); diff != "" {
		t.Errorf("carried groups mismatch (-want +got):\n%s", diff)
	}
	var st grade.State
	delta.Patch.Peek(grade.GroupExposure, &st)
	if st.Exposure.EV != 1.5 {
		t.Errorf("EV = %v, want the last written 1.5", st.Exposure.EV)
	}

	req, ok := recvMsg(t, exec).(proto.RenderFrame)
	if !ok {
		t.Fatal("second message is not RenderFrame")
	}
	if req.ID != p.ID() {
		t.Errorf("request id = %d, want %d", req.ID, p.ID())
	}

	// A render with no intervening edits sends no SyncState.
	r.RenderFrame(testBuffer(), 2, 2)
	if kind := recvMsg(t, exec).Kind(); kind != proto.KindRenderFrame {
		t.Errorf("message after clean render = %v, want RenderFrame", kind)
	}
}

func TestRendererAppliesStateAsOneBatch(t *testing.T) {
	caller, exec := Pipe()
	r := NewRenderer(caller)
	defer r.Close()

	preset := grade.DefaultState()
	preset.Exposure = grade.Exposure{Enabled: true, EV: 2}
	r.ApplyState(preset)
	r.ReadPixel(0, 0, 1, 1)

	delta, ok := recvMsg(t, exec).(proto.SyncState)
	if !ok {
		t.Fatal("first message is not SyncState")
	}
	if want := grade.FullPatch(preset).Len(); delta.Patch.Len() != want {
		t.Errorf("patch carries %d groups, want all %d", delta.Patch.Len(), want)
	}
	if kind := recvMsg(t, exec).Kind(); kind != proto.KindReadPixel {
		t.Errorf("second message = %v, want ReadPixel", kind)
	}
}

func TestRequestIDsUniqueAndResolvedOnce(t *testing.T) {
	caller, exec := Pipe()
	r := NewRenderer(caller)
	defer r.Close()

	// Echo responder standing in for a dispatcher.
	go func() {
		for {
			env, err := exec.Recv()
			if err != nil {
				return
			}
			switch m := env.Msg.(type) {
			case proto.RenderFrame:
				_ = exec.Send(proto.Seal(env.Session, proto.RenderDone{ID: m.ID}))
			case proto.ReadPixel:
				_ = exec.Send(proto.Seal(env.Session, proto.PixelData{ID: m.ID, Data: []byte{1}}))
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	const workers = 16
	ids := make(chan uint64, 2*workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := r.RenderFrame(testBuffer(), 2, 2)
			q := r.ReadPixel(0, 0, 1, 1)
			if err := p.Wait(ctx); err != nil {
				t.Errorf("render: %v", err)
			}
			if err := q.Wait(ctx); err != nil {
				t.Errorf("readback: %v", err)
			}
			ids <- p.ID()
			ids <- q.ID()
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[uint64]bool, 2*workers)
	for id := range ids {
		if id == 0 {
			t.Error("request rejected before send")
			continue
		}
		if seen[id] {
			t.Errorf("id %d issued twice", id)
		}
		seen[id] = true
	}
	if len(seen) != 2*workers {
		t.Errorf("distinct ids = %d, want %d", len(seen), 2*workers)
	}

	r.Close()
	r.pmu.Lock()
	left := len(r.pending)
	r.pmu.Unlock()
	if left != 0 {
		t.Errorf("%d entries left pending after close", left)
	}
}

func TestCloseRejectsPendingAndDisposes(t *testing.T) {
	caller, exec := Pipe()
	r := NewRenderer(caller)

	p := r.RenderFrame(testBuffer(), 2, 2)
	if kind := recvMsg(t, exec).Kind(); kind != proto.KindRenderFrame {
		t.Fatalf("expected the render request, got %v", kind)
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !errors.Is(p.Err(), ErrDisposed) {
		t.Errorf("pending err = %v, want ErrDisposed", p.Err())
	}

	// The best-effort Dispose went out before the transport closed.
	env, err := exec.Recv()
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if env.Msg.Kind() != proto.KindDispose {
		t.Errorf("kind = %v, want Dispose", env.Msg.Kind())
	}

	// Late edits are silent no-ops; late requests fail fast.
	r.SetExposure(grade.Exposure{Enabled: true, EV: 3})
	if got := r.Exposure(); got.EV == 3 {
		t.Error("setter mutated state after close")
	}
	q := r.RenderFrame(testBuffer(), 2, 2)
	if !errors.Is(q.Err(), ErrDisposed) {
		t.Errorf("late request err = %v, want ErrDisposed", q.Err())
	}
	if _, err := exec.Recv(); !errors.Is(err, ErrChannelClosed) {
		t.Error("late request touched the channel")
	}

	// Idempotent.
	if err := r.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestContextLossFailsRequestsLocally(t *testing.T) {
	caller, exec := Pipe()
	r := NewRenderer(caller)
	defer r.Close()

	events := make(chan bool, 4)
	cancel := r.OnContextEvent(func(lost bool) { events <- lost })
	defer cancel()

	if err := exec.Send(proto.Seal(r.Session(), proto.ContextLost{})); err != nil {
		t.Fatal(err)
	}
	select {
	case lost := <-events:
		if !lost {
			t.Fatal("first event is not a loss")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("loss notification never arrived")
	}
	if !r.ContextLost() {
		t.Error("ContextLost() = false after loss")
	}

	p := r.RenderFrame(testBuffer(), 2, 2)
	if !errors.Is(p.Err(), ErrContextLost) {
		t.Errorf("render err = %v, want ErrContextLost", p.Err())
	}
	if !errors.Is(r.ReadPixel(0, 0, 1, 1).Err(), ErrContextLost) {
		t.Error("readback while lost did not fail fast")
	}

	// Nothing touched the channel: the next message the exec side sees
	// is this directive.
	r.Resize(8, 8)
	if kind := recvMsg(t, exec).Kind(); kind != proto.KindResize {
		t.Errorf("channel saw %v before the resize", kind)
	}

	if err := exec.Send(proto.Seal(r.Session(), proto.ContextRestored{})); err != nil {
		t.Fatal(err)
	}
	select {
	case lost := <-events:
		if lost {
			t.Fatal("second event is not a restore")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("restore notification never arrived")
	}

	q := r.RenderFrame(testBuffer(), 2, 2)
	if kind := recvMsg(t, exec).Kind(); kind != proto.KindRenderFrame {
		t.Fatalf("expected the render request, got %v", kind)
	}
	if err := exec.Send(proto.Seal(r.Session(), proto.RenderDone{ID: q.ID()})); err != nil {
		t.Fatal(err)
	}
	if err := waitPending(t, q); err != nil {
		t.Errorf("render after restore: %v", err)
	}
}

func TestForeignVersionIsChannelFatal(t *testing.T) {
	caller, exec := Pipe()
	r := NewRenderer(caller)
	defer r.Close()

	p := r.RenderFrame(testBuffer(), 2, 2)

	env := proto.Envelope{Version: proto.Version + 1, Session: r.Session(), Msg: proto.Ready{}}
	if err := exec.Send(env); err != nil {
		t.Fatal(err)
	}

	if err := waitPending(t, p); !errors.Is(err, ErrProtocolVersion) {
		t.Errorf("pending err = %v, want ErrProtocolVersion", err)
	}
	// The channel is dead for further requests.
	q := r.ReadPixel(0, 0, 1, 1)
	if !errors.Is(q.Err(), ErrProtocolVersion) {
		t.Errorf("late request err = %v, want ErrProtocolVersion", q.Err())
	}
}

func TestGettersReturnIndependentCopies(t *testing.T) {
	caller, _ := Pipe()
	r := NewRenderer(caller)
	defer r.Close()

	pts := []grade.CurvePoint{{X: 0, Y: 0}, {X: 0.5, Y: 0.6}, {X: 1, Y: 1}}
	r.SetToneCurve(grade.ToneCurve{Enabled: true, Points: pts})
	pts[1].Y = 0 // caller keeps mutating its slice

	got := r.ToneCurve()
	if got.Points[1].Y != 0.6 {
		t.Error("cache aliased the caller's point slice")
	}
	got.Points[0].X = 9
	if r.ToneCurve().Points[0].X != 0 {
		t.Error("getter aliased the cached point slice")
	}

	// Read-back without a round trip.
	r.SetExposure(grade.Exposure{Enabled: true, EV: 0.75})
	if ev := r.Exposure().EV; ev != 0.75 {
		t.Errorf("Exposure().EV = %v, want 0.75", ev)
	}

	st := r.State()
	st.Contrast.Amount = 5
	if r.Contrast().Amount == 5 {
		t.Error("State() aliased the cache")
	}
}

func TestRendererReleasesBufferOnLocalRejection(t *testing.T) {
	caller, _ := Pipe()
	r := NewRenderer(caller)
	_ = r.Close()

	// Unpooled buffers drop their pixels on Release, which makes the
	// rejection path observable.
	buf := &frame.Buffer{
		Pix: make([]byte, 16), Width: 2, Height: 2, Stride: 8,
		Format: gputypes.TextureFormatRGBA8Unorm,
	}
	p := r.RenderFrame(buf, 2, 2)
	if !errors.Is(p.Err(), ErrDisposed) {
		t.Fatalf("err = %v, want ErrDisposed", p.Err())
	}
	if buf.Pix != nil {
		t.Error("rejected request did not release the buffer")
	}
}
