// Package compute runs WGSL compute shaders through WebGPU, independently of
// the raylib OpenGL context.
package compute

import (
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	log "github.com/sirupsen/logrus"
)

// System owns the WebGPU device. Initialize it once and share it.
type System struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	kernelsMu sync.RWMutex
	kernels   map[string]*Kernel
}

// Kernel is a compiled compute entry point. Bindings of group 0 come from the
// layout WebGPU derives from the shader.
type Kernel struct {
	Name string

	module   *wgpu.ShaderModule
	pipeline *wgpu.ComputePipeline
	group0   *wgpu.BindGroupLayout
}

// Buffer is a device buffer of fixed size.
type Buffer struct {
	gpu  *wgpu.Buffer
	size uint64
}

type AdapterInfo struct {
	Name       string
	Vendor     string
	Backend    string
	DeviceType string
	Driver     string
}

func (i AdapterInfo) String() string {
	return fmt.Sprintf("%s | %s | %s | %s", i.Backend, i.Vendor, i.Name, i.DeviceType)
}

var (
	shared     *System
	sharedErr  error
	sharedOnce sync.Once
)

// Initialize opens the shared device. Only the first call does any work; the
// others report its outcome.
func Initialize() (AdapterInfo, error) {
	sharedOnce.Do(func() {
		shared, sharedErr = open()
		if sharedErr != nil {
			log.Warnf("Compute: unavailable: %v", sharedErr)
		}
	})
	if sharedErr != nil {
		return AdapterInfo{}, sharedErr
	}
	return shared.Adapter(), nil
}

// Get returns the shared system, nil before a successful Initialize.
func Get() *System {
	return shared
}

func open() (*System, error) {
	inst := wgpu.CreateInstance(nil)
	ad, err := inst.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		inst.Release()
		return nil, fmt.Errorf("compute: no adapter: %w", err)
	}
	dev, err := ad.RequestDevice(nil)
	if err != nil {
		ad.Release()
		inst.Release()
		return nil, fmt.Errorf("compute: no device: %w", err)
	}
	return &System{
		instance: inst,
		adapter:  ad,
		device:   dev,
		queue:    dev.GetQueue(),
		kernels:  map[string]*Kernel{},
	}, nil
}

// Adapter describes the GPU the system runs on.
func (s *System) Adapter() AdapterInfo {
	info := s.adapter.GetInfo()
	return AdapterInfo{
		Name:       info.Name,
		Vendor:     info.VendorName,
		Backend:    info.BackendType.String(),
		DeviceType: info.AdapterType.String(),
		Driver:     info.DriverDescription,
	}
}

// Kernel returns the kernel compiled under name, compiling src on first use.
func (s *System) Kernel(name, src, entry string) (*Kernel, error) {
	s.kernelsMu.RLock()
	k := s.kernels[name]
	s.kernelsMu.RUnlock()
	if k != nil {
		return k, nil
	}

	s.kernelsMu.Lock()
	defer s.kernelsMu.Unlock()
	if k := s.kernels[name]; k != nil {
		return k, nil
	}

	k, err := s.compile(name, src, entry)
	if err != nil {
		return nil, err
	}
	s.kernels[name] = k
	log.Debugf("Compute: compiled kernel %s", name)
	return k, nil
}

func (s *System) compile(name, src, entry string) (*Kernel, error) {
	mod, err := s.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          name,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: src},
	})
	if err != nil {
		return nil, fmt.Errorf("compute: shader %s: %w", name, err)
	}
	pl, err := s.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:   name,
		Compute: wgpu.ProgrammableStageDescriptor{Module: mod, EntryPoint: entry},
	})
	if err != nil {
		mod.Release()
		return nil, fmt.Errorf("compute: pipeline %s: %w", name, err)
	}
	return &Kernel{Name: name, module: mod, pipeline: pl, group0: pl.GetBindGroupLayout(0)}, nil
}

// NewBuffer allocates size bytes on the device.
func (s *System) NewBuffer(label string, size uint64, usage wgpu.BufferUsage) (*Buffer, error) {
	b, err := s.device.CreateBuffer(&wgpu.BufferDescriptor{Label: label, Size: size, Usage: usage})
	if err != nil {
		return nil, fmt.Errorf("compute: buffer %s: %w", label, err)
	}
	return &Buffer{gpu: b, size: size}, nil
}

// Upload queues a write of data at offset. The buffer needs BufferUsageCopyDst.
func (s *System) Upload(b *Buffer, offset uint64, data []byte) {
	s.queue.WriteBuffer(b.gpu, offset, data)
}

// submit records one command buffer and queues it.
func (s *System) submit(record func(enc *wgpu.CommandEncoder)) error {
	enc, err := s.device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("compute: encoder: %w", err)
	}
	record(enc)
	cmd, err := enc.Finish(nil)
	if err != nil {
		return fmt.Errorf("compute: finish: %w", err)
	}
	defer cmd.Release()
	s.queue.Submit(cmd)
	return nil
}

// Run dispatches groups workgroups of k along X, with buffers bound in order
// to @binding 0..n-1 of group 0.
func (s *System) Run(k *Kernel, groups uint32, buffers ...*Buffer) error {
	entries := make([]wgpu.BindGroupEntry, 0, len(buffers))
	for i, b := range buffers {
		entries = append(entries, wgpu.BindGroupEntry{Binding: uint32(i), Buffer: b.gpu, Size: b.size})
	}
	bg, err := s.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   k.Name,
		Layout:  k.group0,
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("compute: bind group %s: %w", k.Name, err)
	}
	defer bg.Release()

	return s.submit(func(enc *wgpu.CommandEncoder) {
		pass := enc.BeginComputePass(nil)
		pass.SetPipeline(k.pipeline)
		pass.SetBindGroup(0, bg, nil)
		pass.DispatchWorkgroups(groups, 1, 1)
		pass.End()
		pass.Release()
	})
}

// Download blocks until the first n bytes of b are back on the CPU. Zero or
// an n past the end reads the whole buffer. b needs BufferUsageCopySrc.
func (s *System) Download(b *Buffer, n uint64) ([]byte, error) {
	if n == 0 || n > b.size {
		n = b.size
	}
	staging, err := s.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "readback",
		Size:  n,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("compute: readback buffer: %w", err)
	}
	defer staging.Release()

	err = s.submit(func(enc *wgpu.CommandEncoder) {
		enc.CopyBufferToBuffer(b.gpu, 0, staging, 0, n)
	})
	if err != nil {
		return nil, err
	}

	status := make(chan wgpu.BufferMapAsyncStatus, 1)
	if err := staging.MapAsync(wgpu.MapModeRead, 0, n, func(st wgpu.BufferMapAsyncStatus) {
		status <- st
	}); err != nil {
		return nil, fmt.Errorf("compute: map: %w", err)
	}
	s.device.Poll(true, nil)
	if st := <-status; st != wgpu.BufferMapAsyncStatusSuccess {
		return nil, fmt.Errorf("compute: map: status %v", st)
	}
	defer staging.Unmap()

	return append([]byte(nil), staging.GetMappedRange(0, uint(n))...), nil
}

// Release frees the kernels and the device. The system is unusable after.
func (s *System) Release() {
	s.kernelsMu.Lock()
	for _, k := range s.kernels {
		k.group0.Release()
		k.pipeline.Release()
		k.module.Release()
	}
	s.kernels = nil
	s.kernelsMu.Unlock()

	s.queue.Release()
	s.device.Release()
	s.adapter.Release()
	s.instance.Release()
}

func (b *Buffer) Release() {
	b.gpu.Release()
}

func (b *Buffer) Size() uint64 {
	return b.size
}

// ToBytes reinterprets a slice of plain structs as its raw bytes.
func ToBytes[T any](data []T) []byte {
	return wgpu.ToBytes(data)
}

func fromBytes[T any](data []byte) []T {
	return wgpu.FromBytes[T](data)
}
