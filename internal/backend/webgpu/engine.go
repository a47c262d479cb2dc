//go:build windows

package webgpu

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"unsafe"

	"github.com/born-ml/braincore/internal/layer"
	"github.com/go-webgpu/webgpu/wgpu"
)

// Config controls the WebGPU engine.
type Config struct {
	// Capacity is the maximum number of float32 values that may be allocated
	// at the same time. Zero means unlimited.
	Capacity int
}

// Engine executes invocations on a WebGPU device.
//
// Buffer allocation and invocation creation are safe for concurrent use.
// Execute runs one invocation list at a time, in order.
type Engine struct {
	cfg Config

	instance    *wgpu.Instance
	adapter     *wgpu.Adapter
	device      *wgpu.Device
	queue       *wgpu.Queue
	adapterInfo *wgpu.AdapterInfo

	pool *bufferPool

	mu          sync.RWMutex
	pipelines   map[string]*wgpu.ComputePipeline
	buffers     map[*Buffer]struct{}
	invocations map[*Invocation]struct{}

	// Memory tracking
	allocated int
	peak      int
	total     int

	execMu sync.Mutex
}

// New creates an engine on the default high-performance adapter.
// Returns an error if WebGPU is not available or initialization fails.
func New() (*Engine, error) {
	return NewWithConfig(Config{})
}

// NewWithConfig creates an engine with the given configuration.
func NewWithConfig(cfg Config) (engine *Engine, err error) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			engine = nil
			err = fmt.Errorf("webgpu: native library not available: %v", r)
		}
	}()

	instance := wgpu.CreateInstance(nil)
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request adapter: %w", err)
	}
	info := adapter.GetInfo()

	device, err := adapter.RequestDevice(nil)
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request device: %w", err)
	}
	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to get queue")
	}

	return &Engine{
		cfg:         cfg,
		instance:    instance,
		adapter:     adapter,
		device:      device,
		queue:       queue,
		adapterInfo: &info,
		pool:        newBufferPool(device),
		pipelines:   make(map[string]*wgpu.ComputePipeline),
		buffers:     make(map[*Buffer]struct{}),
		invocations: make(map[*Invocation]struct{}),
	}, nil
}

// IsAvailable checks if WebGPU is available on this system.
func IsAvailable() (available bool) {
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	adapter, err := instance.RequestAdapter(nil)
	if err != nil {
		return false
	}
	adapter.Release()
	return true
}

// Name returns the engine name including the adapter.
func (e *Engine) Name() string {
	if e.adapterInfo != nil && e.adapterInfo.Device != "" {
		return fmt.Sprintf("webgpu (%s %s)", e.adapterInfo.Vendor, e.adapterInfo.Device)
	}
	return "webgpu"
}

// Close releases the device and every remaining buffer and pipeline.
// The engine cannot be used afterwards.
func (e *Engine) Close() {
	e.execMu.Lock()
	defer e.execMu.Unlock()
	e.mu.Lock()
	defer e.mu.Unlock()

	for inv := range e.invocations {
		inv.release()
	}
	e.invocations = nil
	for b := range e.buffers {
		b.gpu.Release()
		b.gpu = nil
	}
	e.buffers = nil
	e.pool.clear()

	for _, p := range e.pipelines {
		p.Release()
	}
	e.pipelines = nil

	if e.queue != nil {
		e.queue.Release()
		e.queue = nil
	}
	if e.device != nil {
		e.device.Release()
		e.device = nil
	}
	if e.adapter != nil {
		e.adapter.Release()
		e.adapter = nil
	}
	if e.instance != nil {
		e.instance.Release()
		e.instance = nil
	}
}

// NewBuffer allocates a zeroed buffer of size values.
//
// Returns an error wrapping layer.ErrCapacityExceeded if the allocation would
// exceed the configured capacity.
func (e *Engine) NewBuffer(name string, size int) (layer.Buffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("webgpu: buffer %q: size must be positive, got %d", name, size)
	}

	e.mu.Lock()
	if e.cfg.Capacity > 0 && e.allocated+size > e.cfg.Capacity {
		e.mu.Unlock()
		return nil, fmt.Errorf("webgpu: buffer %q of %d values (allocated %d of %d): %w",
			name, size, e.allocated, e.cfg.Capacity, layer.ErrCapacityExceeded)
	}
	e.allocated += size
	e.total += size
	if e.allocated > e.peak {
		e.peak = e.allocated
	}
	buf := &Buffer{name: name, n: size, gpu: e.pool.acquire(byteSize(size), storageUsage)}
	e.buffers[buf] = struct{}{}
	e.mu.Unlock()

	// Pooled buffers keep their old contents.
	if err := e.write(buf, make([]float32, size)); err != nil {
		e.Release(buf)
		return nil, err
	}
	return buf, nil
}

// NewBufferWithValues allocates a buffer holding a copy of values.
func (e *Engine) NewBufferWithValues(name string, values []float32) (layer.Buffer, error) {
	buf, err := e.NewBuffer(name, len(values))
	if err != nil {
		return nil, err
	}
	if err := e.write(buf.(*Buffer), values); err != nil {
		e.Release(buf)
		return nil, err
	}
	return buf, nil
}

// Release returns buffers to the pool and frees every invocation bound to
// one of them. Unknown and already released buffers are ignored.
func (e *Engine) Release(buffers ...layer.Buffer) {
	e.execMu.Lock()
	defer e.execMu.Unlock()
	e.mu.Lock()
	defer e.mu.Unlock()

	released := make(map[*Buffer]struct{}, len(buffers))
	for _, b := range buffers {
		buf, ok := b.(*Buffer)
		if !ok || buf == nil {
			continue
		}
		if _, owned := e.buffers[buf]; !owned {
			continue
		}
		delete(e.buffers, buf)
		e.allocated -= buf.n
		e.pool.release(buf.gpu, byteSize(buf.n), storageUsage)
		buf.gpu = nil
		released[buf] = struct{}{}
	}
	if len(released) == 0 {
		return
	}

	// An invocation bound to a released buffer can never run again.
	for inv := range e.invocations {
		if inv.binds(released) {
			inv.release()
			delete(e.invocations, inv)
		}
	}
}

// Upload copies data into buf. len(data) must equal buf.Len().
func (e *Engine) Upload(b layer.Buffer, data []float32) error {
	buf, err := e.owned(b)
	if err != nil {
		return err
	}
	if len(data) != buf.n {
		return &layer.SizeMismatchError{What: "upload to " + buf.name, Want: buf.n, Got: len(data)}
	}
	return e.write(buf, data)
}

// Download returns a copy of the contents of buf. Pending work is finished
// first.
func (e *Engine) Download(b layer.Buffer) ([]float32, error) {
	buf, err := e.owned(b)
	if err != nil {
		return nil, err
	}

	e.execMu.Lock()
	defer e.execMu.Unlock()

	raw, err := e.readBuffer(buf.gpu, byteSize(buf.n))
	if err != nil {
		return nil, fmt.Errorf("webgpu: download %s: %w", buf.name, err)
	}
	values := make([]float32, buf.n)
	for i := range values {
		values[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return values, nil
}

// Execute records invocations into one compute pass, in order, and submits
// it. Dispatches within a pass observe the writes of earlier dispatches.
func (e *Engine) Execute(ctx context.Context, invocations []layer.Invocation) error {
	if len(invocations) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	e.execMu.Lock()
	defer e.execMu.Unlock()

	bound := make([]*Invocation, len(invocations))
	for i, inv := range invocations {
		gi, ok := inv.(*Invocation)
		if !ok || gi == nil || gi.engine != e {
			return fmt.Errorf("webgpu: invocation %d (%T) was not created by this engine: %w", i, inv, layer.ErrContractViolation)
		}
		for _, b := range gi.buffers {
			if _, err := e.owned(b); err != nil {
				return fmt.Errorf("webgpu: invocation %d (%s): %w", i, gi.kernel, err)
			}
		}
		bound[i] = gi
	}

	encoder := e.device.CreateCommandEncoder(nil)
	pass := encoder.BeginComputePass(nil)
	for _, inv := range bound {
		for _, d := range inv.dispatches {
			pass.SetPipeline(d.pipeline)
			pass.SetBindGroup(0, d.bindGroup, nil)
			pass.DispatchWorkgroups(d.workgroups, 1, 1)
		}
	}
	pass.End()
	e.queue.Submit(encoder.Finish(nil))
	return nil
}

// Stats holds memory statistics.
type Stats struct {
	Buffers         int // Number of live buffers
	AllocatedValues int // float32 values currently allocated
	PeakValues      int // Peak of AllocatedValues
	TotalValues     int // float32 values allocated since creation
	PooledBuffers   int // GPU buffers kept for reuse
	Invocations     int // Live invocations holding bind groups
}

// Stats returns current memory statistics.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Stats{
		Buffers:         len(e.buffers),
		AllocatedValues: e.allocated,
		PeakValues:      e.peak,
		TotalValues:     e.total,
		PooledBuffers:   e.pool.size(),
		Invocations:     len(e.invocations),
	}
}

func (e *Engine) owned(b layer.Buffer) (*Buffer, error) {
	buf, ok := b.(*Buffer)
	if !ok || buf == nil {
		return nil, fmt.Errorf("webgpu: buffer %T is not a GPU buffer: %w", b, layer.ErrContractViolation)
	}
	e.mu.RLock()
	_, owned := e.buffers[buf]
	e.mu.RUnlock()
	if !owned {
		return nil, fmt.Errorf("webgpu: buffer %q is released or foreign: %w", buf.name, layer.ErrContractViolation)
	}
	return buf, nil
}

// write uploads data through a mapped staging buffer.
func (e *Engine) write(buf *Buffer, data []float32) error {
	raw := make([]byte, byteSize(len(data)))
	for i, v := range data {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
	}

	e.execMu.Lock()
	defer e.execMu.Unlock()

	staging := e.createBuffer(raw, wgpu.BufferUsageCopySrc)
	defer staging.Release()

	encoder := e.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(staging, 0, buf.gpu, 0, uint64(len(raw)))
	e.queue.Submit(encoder.Finish(nil))
	return nil
}

// createBuffer creates a GPU buffer initialized with data.
func (e *Engine) createBuffer(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := uint64(len(data))
	buffer := e.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	copy(unsafe.Slice((*byte)(mappedPtr), size), data)
	buffer.Unmap()
	return buffer
}

// readBuffer reads size bytes of src back to host memory through a staging
// buffer. Storage buffers cannot be mapped directly.
func (e *Engine) readBuffer(src *wgpu.Buffer, size uint64) ([]byte, error) {
	staging := e.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer staging.Release()

	encoder := e.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(src, 0, staging, 0, size)
	e.queue.Submit(encoder.Finish(nil))

	if err := staging.MapAsync(e.device, wgpu.MapModeRead, 0, size); err != nil {
		return nil, fmt.Errorf("failed to map staging buffer: %w", err)
	}
	mappedPtr := staging.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	result := append([]byte(nil), unsafe.Slice((*byte)(mappedPtr), size)...)
	staging.Unmap()
	return result, nil
}

// pipeline returns the cached compute pipeline of a shader, compiling it on
// first use.
func (e *Engine) pipeline(name, code string) *wgpu.ComputePipeline {
	e.mu.RLock()
	p, ok := e.pipelines[name]
	e.mu.RUnlock()
	if ok {
		return p
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.pipelines[name]; ok {
		return p
	}
	shader := e.device.CreateShaderModuleWGSL(code)
	defer shader.Release()
	p = e.device.CreateComputePipelineSimple(nil, shader, "main")
	e.pipelines[name] = p
	return p
}

func byteSize(values int) uint64 {
	//nolint:gosec // G115: sizes are positive
	return uint64(values) * 4
}
