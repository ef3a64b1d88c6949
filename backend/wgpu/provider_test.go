package wgpu

import (
	"strings"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// mockDevice implements gpucontext.Device for testing.
type mockDevice struct{}

func (m *mockDevice) Poll(wait bool) {}
func (m *mockDevice) Destroy()       {}

// mockQueue implements gpucontext.Queue for testing.
type mockQueue struct{}

// mockAdapter implements gpucontext.Adapter for testing.
type mockAdapter struct{}

// bareProvider implements gpucontext.DeviceProvider without exposing
// HAL handles.
type bareProvider struct{}

func (bareProvider) Device() gpucontext.Device             { return &mockDevice{} }
func (bareProvider) Queue() gpucontext.Queue               { return &mockQueue{} }
func (bareProvider) Adapter() gpucontext.Adapter           { return &mockAdapter{} }
func (bareProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatBGRA8Unorm }
func (bareProvider) AdapterInfo() gpucontext.AdapterInfo   { return gpucontext.AdapterInfo{} }

// wrongHALProvider exposes HalDevice/HalQueue with non-HAL payloads.
type wrongHALProvider struct{ bareProvider }

func (wrongHALProvider) HalDevice() any { return 42 }
func (wrongHALProvider) HalQueue() any  { return "queue" }

func TestNewFromProviderRejectsBareProvider(t *testing.T) {
	_, err := NewFromProvider(bareProvider{})
	if err == nil {
		t.Fatal("NewFromProvider accepted a provider without HAL types")
	}
	if !strings.Contains(err.Error(), "HAL") {
		t.Errorf("err = %v, want mention of HAL types", err)
	}
}

func TestNewFromProviderRejectsWrongHALTypes(t *testing.T) {
	_, err := NewFromProvider(wrongHALProvider{})
	if err == nil {
		t.Fatal("NewFromProvider accepted non-HAL device handles")
	}
}
