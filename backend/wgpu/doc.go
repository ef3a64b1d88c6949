// Package wgpu implements grade.Device on a GPU compute pipeline using
// the gogpu wgpu HAL.
//
// The full grading chain runs in a single WGSL compute shader. Uniform
// slots are packed into one storage buffer with a fixed stride per slot,
// so BindUniform is a plain buffer write and never touches the pipeline.
// Resource tables (tone curve, LUT cube, watermark, false color) live in
// their own buffers and are re-uploaded only when the engine marks them
// dirty.
//
// The device keeps a shadow copy of every slot and resource. When the
// adapter is lost it notifies subscribers, restores the device in the
// background and replays the shadow state, so callers only have to
// re-issue a full sync if they want to be certain.
package wgpu
