package wgpu

import (
	"strings"
	"testing"
)

// TestGradeShaderNonEmpty verifies the shader source is embedded correctly.
func TestGradeShaderNonEmpty(t *testing.T) {
	if gradeShaderWGSL == "" {
		t.Fatal("grade shader source is empty")
	}
	if len(gradeShaderWGSL) < 100 {
		t.Fatalf("grade shader source suspiciously short: %d bytes", len(gradeShaderWGSL))
	}
}

// TestGradeShaderContainsExpectedContent verifies the shader declares the
// interface the device binds: one buffer per binding slot, the compute
// entry point and the grading chain.
func TestGradeShaderContainsExpectedContent(t *testing.T) {
	required := []string{
		"@compute @workgroup_size(8, 8, 1)",
		"fn main(",
		"@group(0) @binding(0) var<uniform> frame: FrameParams;",
		"@group(0) @binding(1) var<storage, read> slots: array<f32>;",
		"@group(0) @binding(2) var<storage, read> src_pix: array<u32>;",
		"@group(0) @binding(3) var<storage, read_write> out_pix: array<u32>;",
		"@group(0) @binding(4) var<storage, read> curve_tab: array<f32>;",
		"@group(0) @binding(5) var<storage, read> lut_tab: array<f32>;",
		"@group(0) @binding(6) var<storage, read> wm_pix: array<u32>;",
		"@group(0) @binding(7) var<storage, read> fc_pix: array<u32>;",
		"fn grade_color(",
		"fn source_uv(",
		"fn mask_weight(",
		"fn apply_watermark(",
		"fn false_color(",
		"SLOT_STRIDE",
	}
	for _, want := range required {
		if !strings.Contains(gradeShaderWGSL, want) {
			t.Errorf("grade shader missing %q", want)
		}
	}
}
