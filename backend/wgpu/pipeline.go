package wgpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

//go:embed shaders/grade.wgsl
var gradeShaderWGSL string

// Bindings, in grade.wgsl declaration order.
const (
	bindFrame = iota
	bindSlots
	bindSource
	bindOutput
	bindCurve
	bindLUT
	bindWatermark
	bindFalseColor
	bindingCount
)

// compileShader compiles the grading shader to SPIR-V words,
// little-endian as SPIR-V requires.
func compileShader() ([]uint32, error) {
	spirv, err := naga.Compile(gradeShaderWGSL)
	if err != nil {
		return nil, fmt.Errorf("wgpu: compile grade shader: %w", err)
	}
	words := make([]uint32, len(spirv)/4)
	for i := range words {
		words[i] = uint32(spirv[i*4]) |
			uint32(spirv[i*4+1])<<8 |
			uint32(spirv[i*4+2])<<16 |
			uint32(spirv[i*4+3])<<24
	}
	return words, nil
}

// pipelineState holds the compiled grading pipeline and its layouts.
type pipelineState struct {
	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline
}

func buildPipeline(device hal.Device) (*pipelineState, error) {
	words, err := compileShader()
	if err != nil {
		return nil, err
	}

	ps := &pipelineState{}
	ps.shader, err = device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "grade_shader",
		Source: hal.ShaderSource{SPIRV: words},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create shader module: %w", err)
	}

	uniform := &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}
	readOnly := &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}
	writable := &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}
	ps.bindLayout, err = device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "grade_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: bindFrame, Visibility: gputypes.ShaderStageCompute, Buffer: uniform},
			{Binding: bindSlots, Visibility: gputypes.ShaderStageCompute, Buffer: readOnly},
			{Binding: bindSource, Visibility: gputypes.ShaderStageCompute, Buffer: readOnly},
			{Binding: bindOutput, Visibility: gputypes.ShaderStageCompute, Buffer: writable},
			{Binding: bindCurve, Visibility: gputypes.ShaderStageCompute, Buffer: readOnly},
			{Binding: bindLUT, Visibility: gputypes.ShaderStageCompute, Buffer: readOnly},
			{Binding: bindWatermark, Visibility: gputypes.ShaderStageCompute, Buffer: readOnly},
			{Binding: bindFalseColor, Visibility: gputypes.ShaderStageCompute, Buffer: readOnly},
		},
	})
	if err != nil {
		ps.destroy(device)
		return nil, fmt.Errorf("wgpu: create bind group layout: %w", err)
	}

	ps.pipeLayout, err = device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "grade_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{ps.bindLayout},
	})
	if err != nil {
		ps.destroy(device)
		return nil, fmt.Errorf("wgpu: create pipeline layout: %w", err)
	}

	ps.pipeline, err = device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: "grade_pipeline", Layout: ps.pipeLayout,
		Compute: hal.ComputeState{Module: ps.shader, EntryPoint: "main"},
	})
	if err != nil {
		ps.destroy(device)
		return nil, fmt.Errorf("wgpu: create compute pipeline: %w", err)
	}

	return ps, nil
}

// destroy releases the pipeline objects in reverse creation order.
func (ps *pipelineState) destroy(device hal.Device) {
	if ps == nil || device == nil {
		return
	}
	if ps.pipeline != nil {
		device.DestroyComputePipeline(ps.pipeline)
	}
	if ps.pipeLayout != nil {
		device.DestroyPipelineLayout(ps.pipeLayout)
	}
	if ps.bindLayout != nil {
		device.DestroyBindGroupLayout(ps.bindLayout)
	}
	if ps.shader != nil {
		device.DestroyShaderModule(ps.shader)
	}
	*ps = pipelineState{}
}
