package wgpu

import (
	"errors"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/grade"
)

// NewFromProvider builds a Device on a GPU shared through a
// gpucontext.DeviceProvider (a windowing host, or another renderer in
// the same process). The provider must expose its HAL handles via
// HalDevice() any and HalQueue() any. The shared device and queue stay
// owned by the provider: Close releases pipelines and buffers but never
// destroys them, and a restore rebuilds on the same device.
func NewFromProvider(provider gpucontext.DeviceProvider, opts ...Option) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, errors.New("wgpu: provider does not expose HAL types")
	}
	dev, ok := hp.HalDevice().(hal.Device)
	if !ok || dev == nil {
		return nil, errors.New("wgpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, errors.New("wgpu: provider HalQueue is not hal.Queue")
	}

	d := &Device{
		restoreAttempts: defaultRestoreAttempts,
		restoreDelay:    defaultRestoreDelay,
		shadow:          make([]float32, paramFloats),
		subs:            make(map[int]func(bool)),
		external:        true,
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
	d.device = dev
	d.queue = queue
	if err := d.initShared(); err != nil {
		return nil, err
	}
	return d, nil
}

// initShared compiles the pipeline and allocates buffers on a device
// someone else owns.
func (d *Device) initShared() error {
	pipe, err := buildPipeline(d.device)
	if err != nil {
		return err
	}
	d.pipe = pipe
	if err := d.createStaticBuffers(); err != nil {
		d.releaseGPULocked()
		return err
	}
	d.ready = true
	grade.Logger().Info("wgpu device initialized on shared device")
	return nil
}
