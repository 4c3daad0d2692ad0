// SPDX-License-Identifier: MIT
package audio

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/gordonklaus/portaudio"
)

var testDevices = []*portaudio.DeviceInfo{
	{Name: "Built-in Microphone", MaxInputChannels: 1, DefaultSampleRate: 48000, DefaultLowInputLatency: 3 * time.Millisecond, DefaultHighInputLatency: 12 * time.Millisecond},
	{Name: "Built-in Output", MaxOutputChannels: 2, DefaultSampleRate: 44100},
	{Name: "USB Interface", MaxInputChannels: 2, MaxOutputChannels: 2, DefaultSampleRate: 96000},
}

func mockDevices(t *testing.T, devices []*portaudio.DeviceInfo, err error) {
	t.Helper()
	orig := paLibDevicesFunc
	paLibDevicesFunc = func() ([]*portaudio.DeviceInfo, error) { return devices, err }
	t.Cleanup(func() { paLibDevicesFunc = orig })
}

func TestHostDevices(t *testing.T) {
	mockDevices(t, testDevices, nil)

	devices, err := HostDevices()
	if err != nil {
		t.Fatalf("HostDevices error: %v", err)
	}
	if len(devices) != 3 {
		t.Fatalf("got %d devices, want 3", len(devices))
	}
	for i, d := range devices {
		if d.ID != i {
			t.Errorf("Device ID mismatch: got %d, want %d", d.ID, i)
		}
	}
	kinds := []string{"Input", "Output", "Input/Output"}
	for i, want := range kinds {
		if got := devices[i].Kind(); got != want {
			t.Errorf("device %d kind = %q, want %q", i, got, want)
		}
	}
	if devices[0].HighInputLatency != 12 {
		t.Errorf("high latency = %v ms, want 12", devices[0].HighInputLatency)
	}
}

func TestHostDevices_paDevicesError(t *testing.T) {
	mockDevices(t, nil, fmt.Errorf("mock error"))

	_, err := HostDevices()
	if err == nil || !strings.Contains(err.Error(), "mock error") {
		t.Errorf("expected mock error, got %v", err)
	}
}

func TestInputDevice(t *testing.T) {
	mockDevices(t, testDevices, nil)

	dev, err := InputDevice(2)
	if err != nil || dev.Name != "USB Interface" {
		t.Fatalf("InputDevice(2) = %v, %v", dev, err)
	}

	tests := []struct {
		name   string
		id     int
		substr string
	}{
		{"Negative ID", -2, "invalid device ID"},
		{"Too high ID", 13, "invalid device ID"},
		{"Non-input device", 1, "does not support input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := InputDevice(tt.id)
			if err == nil {
				t.Errorf("Expected error for ID %d", tt.id)
			} else if !strings.Contains(err.Error(), tt.substr) {
				t.Errorf("Error = %q, want substring %q", err.Error(), tt.substr)
			}
		})
	}
}

func TestInputDeviceDefault(t *testing.T) {
	mockDevices(t, testDevices, nil)
	orig := paLibDefaultInputDeviceFunc
	defer func() { paLibDefaultInputDeviceFunc = orig }()

	paLibDefaultInputDeviceFunc = func() (*portaudio.DeviceInfo, error) {
		return testDevices[0], nil
	}
	if dev, err := InputDevice(DefaultDeviceID); err != nil || dev != testDevices[0] {
		t.Errorf("InputDevice(default) = %v, %v", dev, err)
	}

	paLibDefaultInputDeviceFunc = func() (*portaudio.DeviceInfo, error) {
		return nil, fmt.Errorf("mock default input error")
	}
	if _, err := InputDevice(DefaultDeviceID); err == nil || !strings.Contains(err.Error(), "mock default input error") {
		t.Errorf("expected mock error, got %v", err)
	}
}

func TestErrorInitialize(t *testing.T) {
	orig := paLibInitialize
	defer func() { paLibInitialize = orig }()

	paLibInitialize = func() error { return nil }
	if err := Initialize(); err != nil {
		t.Errorf("expected nil, got %v", err)
	}

	paLibInitialize = func() error { return fmt.Errorf("mock init error") }
	if err := Initialize(); err == nil || !strings.Contains(err.Error(), "mock init error") {
		t.Errorf("expected mock init error, got %v", err)
	}
}

func TestErrorTerminate(t *testing.T) {
	orig := paLibTerminate
	defer func() { paLibTerminate = orig }()

	paLibTerminate = func() error { return fmt.Errorf("mock term error") }
	if err := Terminate(); err == nil || !strings.Contains(err.Error(), "mock term error") {
		t.Errorf("expected mock term error, got %v", err)
	}
}

func TestNilDevices(t *testing.T) {
	mockDevices(t, nil, nil)

	devices, err := paDevices()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if devices == nil || len(devices) != 0 {
		t.Errorf("expected empty slice, got %v", devices)
	}
}

func TestListDevices(t *testing.T) {
	mockDevices(t, testDevices, nil)

	var out bytes.Buffer
	if err := ListDevices(&out); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"[0] Built-in Microphone (Input)", "[2] USB Interface (Input/Output)", "Default sample rate: 96000 Hz"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}
