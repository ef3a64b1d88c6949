package wgpu

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/vulkan" // registers the Vulkan backend

	"github.com/gogpu/grade"
)

var (
	// ErrNoAdapter reports that instance enumeration found no GPU adapter.
	ErrNoAdapter = errors.New("wgpu: no GPU adapter")
	// ErrDeviceLost reports that the GPU device is lost and not yet restored.
	ErrDeviceLost = errors.New("wgpu: device lost")
	// ErrDeviceClosed reports use after Close.
	ErrDeviceClosed = errors.New("wgpu: device closed")
	// ErrNotSized reports a draw, clear or readback before the first Resize.
	ErrNotSized = errors.New("wgpu: output not sized")
	// ErrSourceFormat reports a source pixel layout the backend cannot pack.
	ErrSourceFormat = errors.New("wgpu: unsupported source format")
)

const (
	defaultRestoreAttempts = 5
	defaultRestoreDelay    = 250 * time.Millisecond

	// gpuTimeout bounds fence waits; a dispatch exceeding it is treated
	// as device loss.
	gpuTimeout = 5 * time.Second

	// placeholderBytes is the size of an unbound resource buffer. The
	// shader never reads it: zero slot metadata disables the lookup.
	placeholderBytes = 16
)

// Option configures a Device.
type Option func(*Device)

// WithRestoreAttempts bounds how many re-initializations a lost device
// tries before giving up. Defaults to 5.
func WithRestoreAttempts(n int) Option {
	return func(d *Device) { d.restoreAttempts = n }
}

// WithRestoreDelay sets the pause before each restore attempt.
// Defaults to 250ms.
func WithRestoreDelay(delay time.Duration) Option {
	return func(d *Device) { d.restoreDelay = delay }
}

// Device renders the grading chain on the GPU through the wgpu hal.
// Beyond grade.Device it implements grade.LossNotifier, Mode and
// io.Closer: a failed dispatch marks the device lost, notifies
// subscribers and restores it on a background goroutine, replaying the
// shadow copy of all bound state.
type Device struct {
	restoreAttempts int
	restoreDelay    time.Duration

	mu       sync.Mutex
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	pipe     *pipelineState

	paramsBuf hal.Buffer // all uniform slots plus resource metadata
	frameBuf  hal.Buffer // per-draw frame header
	srcBuf    hal.Buffer // packed source pixels
	outBuf    hal.Buffer // tightly packed RGBA8 output
	resBufs   [grade.ResourceSlotCount]hal.Buffer

	srcCap  uint64
	resCaps [grade.ResourceSlotCount]uint64
	width   int
	height  int

	// Shadow state survives device loss and is replayed on restore.
	shadow    []float32 // paramFloats long, mirrors paramsBuf
	resShadow [grade.ResourceSlotCount]*grade.Resource

	ready    bool
	lost     bool
	closed   bool
	external bool // device and queue owned by a provider, never destroyed here

	subMu   sync.Mutex
	subs    map[int]func(bool)
	nextSub int
}

var (
	_ grade.Device       = (*Device)(nil)
	_ grade.LossNotifier = (*Device)(nil)
	_ io.Closer          = (*Device)(nil)
)

// New opens a GPU adapter, compiles the grading pipeline and allocates
// the persistent buffers. The caller owns the device and must Close it.
func New(opts ...Option) (*Device, error) {
	d := &Device{
		restoreAttempts: defaultRestoreAttempts,
		restoreDelay:    defaultRestoreDelay,
		shadow:          make([]float32, paramFloats),
		subs:            make(map[int]func(bool)),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.restoreAttempts <= 0 {
		d.restoreAttempts = defaultRestoreAttempts
	}
	if d.restoreDelay <= 0 {
		d.restoreDelay = defaultRestoreDelay
	}
	if err := d.initGPU(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Device) initGPU() error {
	if d.external {
		return d.initShared()
	}
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return errors.New("wgpu: vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("wgpu: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return ErrNoAdapter
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return fmt.Errorf("wgpu: open device: %w", err)
	}
	d.instance = instance
	d.device = openDev.Device
	d.queue = openDev.Queue

	d.pipe, err = buildPipeline(d.device)
	if err == nil {
		err = d.createStaticBuffers()
	}
	if err != nil {
		d.releaseGPULocked()
		return err
	}
	d.ready = true
	grade.Logger().Info("wgpu device initialized", "adapter", selected.Info.Name)
	return nil
}

// createStaticBuffers allocates the buffers every dispatch binds. The
// params buffer is seeded from the shadow so a restore re-establishes
// all uniform state in one write.
func (d *Device) createStaticBuffers() error {
	var err error
	d.paramsBuf, err = d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "grade_params", Size: uint64(paramBytes),
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create params buffer: %w", err)
	}
	d.frameBuf, err = d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "grade_frame", Size: frameHeaderBytes,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create frame buffer: %w", err)
	}
	d.srcBuf, err = d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "grade_source", Size: placeholderBytes,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create source buffer: %w", err)
	}
	d.srcCap = placeholderBytes
	for slot := range d.resBufs {
		name := grade.ResourceSlot(slot).String()
		d.resBufs[slot], err = d.device.CreateBuffer(&hal.BufferDescriptor{
			Label: "grade_" + name, Size: placeholderBytes,
			Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("wgpu: create %s buffer: %w", name, err)
		}
		d.resCaps[slot] = placeholderBytes
	}
	d.queue.WriteBuffer(d.paramsBuf, 0, floatBytes(d.shadow))
	return nil
}

// BindUniform implements grade.Device. Data is copied into the shadow
// block before upload; the remainder of the slot is zeroed so stale
// floats never leak into the shader.
func (d *Device) BindUniform(slot grade.UniformSlot, data []float32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || int(slot) >= grade.UniformSlotCount {
		return
	}
	off := slotOffset(slot)
	block := d.shadow[off : off+slotStride]
	for i := range block {
		block[i] = 0
	}
	copy(block, data) // payloads beyond the stride are truncated
	if d.ready {
		d.queue.WriteBuffer(d.paramsBuf, uint64(off)*4, floatBytes(block))
	}
}

// BindResource implements grade.Device. Content is uploaded when
// res.Upload is set or the slot's buffer had to grow; otherwise only
// the slot metadata is refreshed.
func (d *Device) BindResource(slot grade.ResourceSlot, res *grade.Resource) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || int(slot) >= grade.ResourceSlotCount {
		return
	}
	payload, meta, err := resourcePayload(slot, res)
	if err != nil {
		grade.Logger().Warn("wgpu dropping resource", "slot", slot.String(), "err", err)
		payload = nil
	}
	if payload == nil {
		d.resShadow[slot] = nil
		d.writeMeta(slot, nil)
		return
	}
	if res.Upload || d.resShadow[slot] == nil {
		d.resShadow[slot] = cloneResource(res)
	}
	if d.ready {
		created, err := d.ensureResBuf(slot, uint64(len(payload)))
		if err != nil {
			grade.Logger().Warn("wgpu resource buffer", "slot", slot.String(), "err", err)
			d.writeMeta(slot, nil)
			return
		}
		if created || res.Upload {
			d.queue.WriteBuffer(d.resBufs[slot], 0, payload)
		}
	}
	d.writeMeta(slot, meta)
}

// resourcePayload packs a resource into upload bytes plus the metadata
// floats the shader reads to interpret it. A nil payload means the slot
// is unbound.
func resourcePayload(slot grade.ResourceSlot, res *grade.Resource) ([]byte, []float32, error) {
	if res == nil {
		return nil, nil, nil
	}
	switch slot {
	case grade.SlotCurve:
		if len(res.Table) == 0 {
			return nil, nil, nil
		}
		return floatBytes(res.Table), []float32{float32(len(res.Table))}, nil
	case grade.SlotLUT:
		if res.Cube == nil || res.Cube.Size <= 0 {
			return nil, nil, nil
		}
		n := res.Cube.Size
		want := n * n * n * 3
		if len(res.Cube.Table) < want {
			return nil, nil, fmt.Errorf("wgpu: lut table holds %d floats, want %d", len(res.Cube.Table), want)
		}
		return floatBytes(res.Cube.Table[:want]), []float32{float32(n)}, nil
	case grade.SlotWatermark, grade.SlotFalseColor:
		if res.Image == nil {
			return nil, nil, nil
		}
		pix, err := packImage(res.Image)
		if err != nil {
			return nil, nil, err
		}
		return pix, []float32{float32(res.Image.Width), float32(res.Image.Height)}, nil
	}
	return nil, nil, nil
}

// writeMeta stores a resource slot's metadata block. Zero metadata
// disables the slot in the shader.
func (d *Device) writeMeta(slot grade.ResourceSlot, meta []float32) {
	off := metaOffset(slot)
	block := d.shadow[off : off+slotStride]
	for i := range block {
		block[i] = 0
	}
	copy(block, meta)
	if d.ready {
		d.queue.WriteBuffer(d.paramsBuf, uint64(off)*4, floatBytes(block))
	}
}

func cloneResource(res *grade.Resource) *grade.Resource {
	out := &grade.Resource{Upload: true}
	if res.Table != nil {
		out.Table = append([]float32(nil), res.Table...)
	}
	out.Cube = res.Cube.Clone()
	out.Image = res.Image.Clone()
	return out
}

func (d *Device) ensureResBuf(slot grade.ResourceSlot, size uint64) (created bool, err error) {
	if d.resBufs[slot] != nil && size <= d.resCaps[slot] {
		return false, nil
	}
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "grade_" + slot.String(), Size: size,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return false, fmt.Errorf("wgpu: create %s buffer: %w", slot, err)
	}
	if d.resBufs[slot] != nil {
		d.device.DestroyBuffer(d.resBufs[slot])
	}
	d.resBufs[slot] = buf
	d.resCaps[slot] = size
	return true, nil
}

func (d *Device) ensureSrcBuf(size uint64) error {
	if d.srcBuf != nil && size <= d.srcCap {
		return nil
	}
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "grade_source", Size: size,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create source buffer: %w", err)
	}
	if d.srcBuf != nil {
		d.device.DestroyBuffer(d.srcBuf)
	}
	d.srcBuf = buf
	d.srcCap = size
	return nil
}

// Resize implements grade.Device. The requested dimensions are
// remembered even while the device is lost so a restore recreates the
// output at the last size.
func (d *Device) Resize(w, h int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDeviceClosed
	}
	if w <= 0 || h <= 0 {
		return fmt.Errorf("wgpu: resize %dx%d: dimensions must be positive", w, h)
	}
	d.width, d.height = w, h
	if !d.ready {
		return ErrDeviceLost
	}
	return d.recreateOutput()
}

func (d *Device) recreateOutput() error {
	if d.outBuf != nil {
		d.device.DestroyBuffer(d.outBuf)
		d.outBuf = nil
	}
	size := uint64(d.width*d.height) * 4
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "grade_output", Size: size,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create output buffer: %w", err)
	}
	d.outBuf = buf
	d.queue.WriteBuffer(d.outBuf, 0, make([]byte, size))
	return nil
}

// Clear implements grade.Device. The fill happens on the transfer
// queue; no dispatch is needed.
func (d *Device) Clear(c grade.RGBA) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDeviceClosed
	}
	if !d.ready {
		return ErrDeviceLost
	}
	if d.outBuf == nil {
		return ErrNotSized
	}
	d.queue.WriteBuffer(d.outBuf, 0, packClear(c, d.width*d.height))
	return nil
}

// Draw implements grade.Device. A nil source renders the background
// alone. Encoder, submit or fence failures mark the device lost.
func (d *Device) Draw(src *grade.SourceFrame) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDeviceClosed
	}
	if !d.ready {
		return ErrDeviceLost
	}
	if d.outBuf == nil {
		return ErrNotSized
	}

	header := frameHeader{outW: uint32(d.width), outH: uint32(d.height)}
	if src != nil {
		if src.Width <= 0 || src.Height <= 0 {
			return fmt.Errorf("wgpu: source frame %dx%d: dimensions must be positive", src.Width, src.Height)
		}
		pixels, mode, err := packSource(src)
		if err != nil {
			return err
		}
		if err := d.ensureSrcBuf(uint64(len(pixels))); err != nil {
			return err
		}
		d.queue.WriteBuffer(d.srcBuf, 0, pixels)
		header.srcW, header.srcH = uint32(src.Width), uint32(src.Height)
		header.mode = mode
		header.transfer = uint32(src.Transfer)
		header.primaries = uint32(src.Primaries)
		header.hasSource = 1
	}
	d.queue.WriteBuffer(d.frameBuf, 0, header.bytes())

	if err := d.dispatch(); err != nil {
		d.markLostLocked(err)
		return fmt.Errorf("%w: %v", ErrDeviceLost, err)
	}
	return nil
}

// dispatch runs one grading pass over the whole output. The bind group
// is rebuilt per draw because source and resource buffers can be
// reallocated between frames.
func (d *Device) dispatch() error {
	bg, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "grade_bind", Layout: d.pipe.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: bindFrame, Resource: gputypes.BufferBinding{Buffer: d.frameBuf.NativeHandle(), Offset: 0, Size: frameHeaderBytes}},
			{Binding: bindSlots, Resource: gputypes.BufferBinding{Buffer: d.paramsBuf.NativeHandle(), Offset: 0, Size: uint64(paramBytes)}},
			{Binding: bindSource, Resource: gputypes.BufferBinding{Buffer: d.srcBuf.NativeHandle(), Offset: 0, Size: d.srcCap}},
			{Binding: bindOutput, Resource: gputypes.BufferBinding{Buffer: d.outBuf.NativeHandle(), Offset: 0, Size: uint64(d.width*d.height) * 4}},
			{Binding: bindCurve, Resource: gputypes.BufferBinding{Buffer: d.resBufs[grade.SlotCurve].NativeHandle(), Offset: 0, Size: d.resCaps[grade.SlotCurve]}},
			{Binding: bindLUT, Resource: gputypes.BufferBinding{Buffer: d.resBufs[grade.SlotLUT].NativeHandle(), Offset: 0, Size: d.resCaps[grade.SlotLUT]}},
			{Binding: bindWatermark, Resource: gputypes.BufferBinding{Buffer: d.resBufs[grade.SlotWatermark].NativeHandle(), Offset: 0, Size: d.resCaps[grade.SlotWatermark]}},
			{Binding: bindFalseColor, Resource: gputypes.BufferBinding{Buffer: d.resBufs[grade.SlotFalseColor].NativeHandle(), Offset: 0, Size: d.resCaps[grade.SlotFalseColor]}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}
	defer d.device.DestroyBindGroup(bg)

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "grade_encoder"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("grade_frame"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}
	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "grade_pass"})
	pass.SetPipeline(d.pipe.pipeline)
	pass.SetBindGroup(0, bg, nil)
	pass.Dispatch(uint32((d.width+7)/8), uint32((d.height+7)/8), 1)
	pass.End()
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	return d.submitAndWait(cmdBuf)
}

func (d *Device) submitAndWait(cmdBuf hal.CommandBuffer) error {
	fence, err := d.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer d.device.DestroyFence(fence)
	if err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	ok, err := d.device.Wait(fence, 1, gpuTimeout)
	if err != nil {
		return fmt.Errorf("wait for GPU: %w", err)
	}
	if !ok {
		return errors.New("wait for GPU: timeout")
	}
	return nil
}

// Readback implements grade.Device. Only the rows covering the
// requested rectangle are copied to the staging buffer.
func (d *Device) Readback(x, y, w, h int) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrDeviceClosed
	}
	if !d.ready {
		return nil, ErrDeviceLost
	}
	if d.outBuf == nil {
		return nil, ErrNotSized
	}
	if x < 0 || y < 0 || w <= 0 || h <= 0 || x+w > d.width || y+h > d.height {
		return nil, fmt.Errorf("wgpu: readback rect %d,%d %dx%d outside %dx%d output",
			x, y, w, h, d.width, d.height)
	}

	rowBytes := uint64(d.width) * 4
	size := rowBytes * uint64(h)
	staging, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "grade_staging", Size: size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create staging buffer: %w", err)
	}
	defer d.device.DestroyBuffer(staging)

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "grade_readback_encoder"})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("grade_readback"); err != nil {
		return nil, fmt.Errorf("wgpu: begin encoding: %w", err)
	}
	encoder.CopyBufferToBuffer(d.outBuf, staging, []hal.BufferCopy{
		{SrcOffset: uint64(y) * rowBytes, DstOffset: 0, Size: size},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("wgpu: end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	if err := d.submitAndWait(cmdBuf); err != nil {
		d.markLostLocked(err)
		return nil, fmt.Errorf("%w: %v", ErrDeviceLost, err)
	}

	rows := make([]byte, size)
	if err := d.queue.ReadBuffer(staging, 0, rows); err != nil {
		return nil, fmt.Errorf("wgpu: readback: %w", err)
	}
	return cropRows(rows, d.width, h, x, 0, w, h)
}

// Mode implements the optional mode capability.
func (d *Device) Mode() string { return "wgpu" }

// OnContextEvent implements grade.LossNotifier. The callback runs on
// the restore goroutine.
func (d *Device) OnContextEvent(fn func(lost bool)) (cancel func()) {
	d.subMu.Lock()
	defer d.subMu.Unlock()
	if d.subs == nil {
		d.subs = make(map[int]func(bool))
	}
	id := d.nextSub
	d.nextSub++
	d.subs[id] = fn
	return func() {
		d.subMu.Lock()
		defer d.subMu.Unlock()
		delete(d.subs, id)
	}
}

func (d *Device) notify(lost bool) {
	d.subMu.Lock()
	fns := make([]func(bool), 0, len(d.subs))
	for _, fn := range d.subs {
		fns = append(fns, fn)
	}
	d.subMu.Unlock()
	for _, fn := range fns {
		fn(lost)
	}
}

// markLostLocked tears the GPU state down and starts the background
// restore. Shadow state is kept; it is replayed once a fresh device
// comes up. Callers must hold d.mu.
func (d *Device) markLostLocked(err error) {
	if d.lost || d.closed {
		return
	}
	grade.Logger().Warn("wgpu device lost", "err", err)
	d.lost = true
	d.releaseGPULocked()
	go d.notify(true)
	go d.restoreLoop()
}

func (d *Device) restoreLoop() {
	for attempt := 1; ; attempt++ {
		time.Sleep(d.restoreDelay)

		d.mu.Lock()
		if d.closed {
			d.mu.Unlock()
			return
		}
		err := d.initGPU()
		if err == nil {
			if err = d.replayLocked(); err != nil {
				d.releaseGPULocked()
			}
		}
		if err == nil {
			d.lost = false
			d.mu.Unlock()
			grade.Logger().Info("wgpu device restored", "attempt", attempt)
			d.notify(false)
			return
		}
		d.mu.Unlock()

		grade.Logger().Warn("wgpu device restore failed", "attempt", attempt, "err", err)
		if attempt >= d.restoreAttempts {
			return
		}
	}
}

// replayLocked re-uploads resource contents and recreates the output
// after a restore. Uniform state was already written by
// createStaticBuffers from the shadow.
func (d *Device) replayLocked() error {
	for slot := range d.resShadow {
		res := d.resShadow[slot]
		if res == nil {
			continue
		}
		payload, _, err := resourcePayload(grade.ResourceSlot(slot), res)
		if err != nil || payload == nil {
			continue
		}
		if _, err := d.ensureResBuf(grade.ResourceSlot(slot), uint64(len(payload))); err != nil {
			return err
		}
		d.queue.WriteBuffer(d.resBufs[slot], 0, payload)
	}
	if d.width > 0 && d.height > 0 {
		return d.recreateOutput()
	}
	return nil
}

func (d *Device) releaseGPULocked() {
	if d.device != nil {
		for slot, buf := range d.resBufs {
			if buf != nil {
				d.device.DestroyBuffer(buf)
				d.resBufs[slot] = nil
			}
			d.resCaps[slot] = 0
		}
		for _, buf := range []hal.Buffer{d.srcBuf, d.outBuf, d.frameBuf, d.paramsBuf} {
			if buf != nil {
				d.device.DestroyBuffer(buf)
			}
		}
		d.srcBuf, d.outBuf, d.frameBuf, d.paramsBuf = nil, nil, nil, nil
		d.srcCap = 0
		d.pipe.destroy(d.device)
		d.pipe = nil
		if !d.external {
			d.device.Destroy()
			d.device = nil
		}
	}
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
	if !d.external {
		d.queue = nil
	}
	d.ready = false
}

// Close releases all GPU objects. It is idempotent; a restore loop in
// flight exits on its next attempt.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	d.releaseGPULocked()
	return nil
}
