//go:build windows

package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"

	catalog "github.com/born-ml/braincore/internal/kernel"
	"github.com/born-ml/braincore/internal/layer"
	"github.com/go-webgpu/webgpu/wgpu"
)

const storageUsage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst

// Buffer is a GPU storage buffer of float32 values.
type Buffer struct {
	name string
	n    int
	gpu  *wgpu.Buffer
}

// Name returns the buffer name.
func (b *Buffer) Name() string {
	return b.name
}

// Len returns the number of values the buffer holds.
func (b *Buffer) Len() int {
	return b.n
}

// dispatch is one compute shader dispatch of an invocation.
type dispatch struct {
	pipeline   *wgpu.ComputePipeline
	bindGroup  *wgpu.BindGroup
	workgroups uint32
}

// Invocation is a kernel bound to GPU buffers.
type Invocation struct {
	engine     *Engine
	kernel     string
	buffers    []*Buffer
	params     *wgpu.Buffer // nil for kernels without scalar values
	dispatches []dispatch
}

// Kernel returns the kernel name.
func (i *Invocation) Kernel() string {
	return i.kernel
}

// NewInvocation binds kernel to buffers and values.
//
// Buffer sizes are validated against the values. The grid is the number of
// threads the caller expects; the engine dispatches the kernel over the
// elements it writes, rounded up to whole workgroups.
func (e *Engine) NewInvocation(kernel string, buffers []layer.Buffer, values []float32, grid layer.Grid) (layer.Invocation, error) {
	k, ok := kernels[kernel]
	if !ok {
		return nil, fmt.Errorf("webgpu: %q: %w", kernel, layer.ErrUnknownKernel)
	}
	if len(buffers) != k.buffers {
		return nil, fmt.Errorf("webgpu: %s takes %d buffers, got %d: %w", kernel, k.buffers, len(buffers), layer.ErrContractViolation)
	}
	if len(values) < k.values {
		return nil, fmt.Errorf("webgpu: %s takes %d values, got %d: %w", kernel, k.values, len(values), layer.ErrContractViolation)
	}
	if err := catalog.CheckDimensions(kernel, values); err != nil {
		return nil, fmt.Errorf("webgpu: %s: %v: %w", kernel, err, layer.ErrContractViolation)
	}
	if grid.Width < 0 || grid.Height < 0 || grid.Depth < 0 {
		return nil, fmt.Errorf("webgpu: %s: negative grid %+v: %w", kernel, grid, layer.ErrContractViolation)
	}

	bound := make([]*Buffer, len(buffers))
	lens := make([]int, len(buffers))
	for i, b := range buffers {
		buf, err := e.owned(b)
		if err != nil {
			return nil, fmt.Errorf("webgpu: %s buffer %d: %w", kernel, i, err)
		}
		bound[i] = buf
		lens[i] = buf.n
	}
	if k.check != nil {
		if err := k.check(lens, values); err != nil {
			return nil, fmt.Errorf("webgpu: %s: %w", kernel, err)
		}
	}

	inv := &Invocation{engine: e, kernel: kernel, buffers: bound}
	entries := make([]wgpu.BindGroupEntry, 0, len(bound)+1)
	for i, b := range bound {
		//nolint:gosec // G115: binding index is small
		entries = append(entries, wgpu.BufferBindingEntry(uint32(i), b.gpu, 0, byteSize(b.n)))
	}
	if k.values > 0 {
		inv.params = e.createBuffer(uniform(values[:k.values]), wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)
		//nolint:gosec // G115: binding index is small
		entries = append(entries, wgpu.BufferBindingEntry(uint32(len(bound)), inv.params, 0, 16))
	}

	for _, stage := range k.stages {
		pipeline := e.pipeline(stage.name, stage.code)
		used := entries
		if stage.bindings != nil {
			used = make([]wgpu.BindGroupEntry, len(stage.bindings))
			for i, b := range stage.bindings {
				used[i] = entries[b]
			}
		}
		bindGroup := e.device.CreateBindGroupSimple(pipeline.GetBindGroupLayout(0), used)
		threads := stage.threads(lens, values)
		//nolint:gosec // G115: workgroup count is non-negative
		inv.dispatches = append(inv.dispatches, dispatch{
			pipeline:   pipeline,
			bindGroup:  bindGroup,
			workgroups: uint32((threads + workgroupSize - 1) / workgroupSize),
		})
	}

	e.mu.Lock()
	e.invocations[inv] = struct{}{}
	e.mu.Unlock()
	return inv, nil
}

func (i *Invocation) binds(buffers map[*Buffer]struct{}) bool {
	for _, b := range i.buffers {
		if _, ok := buffers[b]; ok {
			return true
		}
	}
	return false
}

func (i *Invocation) release() {
	for _, d := range i.dispatches {
		d.bindGroup.Release()
	}
	i.dispatches = nil
	if i.params != nil {
		i.params.Release()
		i.params = nil
	}
}

// uniform packs up to four values into a 16-byte uniform block.
func uniform(values []float32) []byte {
	data := make([]byte, 16)
	for i, v := range values {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
	}
	return data
}
