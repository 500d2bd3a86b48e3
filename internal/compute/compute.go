// Package compute runs collision broad-phase queries on the GPU through
// WebGPU. It is independent of raylib's OpenGL context and works headless.
package compute

import (
	"fmt"
	"log"

	"github.com/cogentcore/webgpu/wgpu"
)

// Device is an opened GPU adapter with its queue.
type Device struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
}

// AdapterInfo describes the GPU a Device runs on.
type AdapterInfo struct {
	Name    string
	Vendor  string
	Backend string
	Driver  string
}

func (a AdapterInfo) String() string {
	return fmt.Sprintf("%s | %s | %s", a.Backend, a.Vendor, a.Name)
}

// buffer is a sized GPU buffer.
type buffer struct {
	buf  *wgpu.Buffer
	size uint64
}

func (b *buffer) release() {
	if b != nil {
		b.buf.Release()
	}
}

// Open requests a high performance adapter and its device.
func Open() (*Device, error) {
	instance := wgpu.CreateInstance(nil)

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("failed to get GPU adapter: %w", err)
	}

	device, err := adapter.RequestDevice(nil)
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("failed to get GPU device: %w", err)
	}

	d := &Device{
		instance: instance,
		adapter:  adapter,
		device:   device,
		queue:    device.GetQueue(),
	}
	log.Printf("Compute: using %s", d.Info())
	return d, nil
}

func (d *Device) Info() AdapterInfo {
	info := d.adapter.GetInfo()
	return AdapterInfo{
		Name:    info.Name,
		Vendor:  info.VendorName,
		Backend: info.BackendType.String(),
		Driver:  info.DriverDescription,
	}
}

func (d *Device) newBuffer(label string, size uint64, usage wgpu.BufferUsage) (*buffer, error) {
	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create buffer %s: %w", label, err)
	}
	return &buffer{buf: buf, size: size}, nil
}

func (d *Device) newBufferWithData(label string, data []byte, usage wgpu.BufferUsage) (*buffer, error) {
	buf, err := d.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    label,
		Contents: data,
		Usage:    usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create buffer %s: %w", label, err)
	}
	return &buffer{buf: buf, size: uint64(len(data))}, nil
}

func (d *Device) write(b *buffer, data []byte) {
	d.queue.WriteBuffer(b.buf, 0, data)
}

// read copies b back to the CPU through a staging buffer and blocks until
// the GPU is done with it. b needs BufferUsageCopySrc.
func (d *Device) read(b *buffer) ([]byte, error) {
	staging, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "staging_read",
		Size:  b.size,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	defer staging.Release()

	encoder, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	encoder.CopyBufferToBuffer(b.buf, 0, staging, 0, b.size)
	commands, err := encoder.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("finish encoder: %w", err)
	}
	d.queue.Submit(commands)
	commands.Release()

	done := make(chan error, 1)
	err = staging.MapAsync(wgpu.MapModeRead, 0, b.size, func(status wgpu.BufferMapAsyncStatus) {
		if status != wgpu.BufferMapAsyncStatusSuccess {
			done <- fmt.Errorf("map buffer: %v", status)
		} else {
			done <- nil
		}
	})
	if err != nil {
		return nil, err
	}
	d.device.Poll(true, nil)
	if err := <-done; err != nil {
		return nil, err
	}

	mapped := staging.GetMappedRange(0, uint(b.size))
	out := make([]byte, len(mapped))
	copy(out, mapped)
	staging.Unmap()
	return out, nil
}

// Close releases the device. Broad phases created from it must be released
// first.
func (d *Device) Close() {
	d.queue.Release()
	d.device.Release()
	d.adapter.Release()
	d.instance.Release()
}
