//go:build windows

package webgpu

import (
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"
)

const (
	// Size thresholds for buffer categories.
	smallThreshold  = 4 * 1024    // 4KB
	mediumThreshold = 1024 * 1024 // 1MB
	maxPoolSize     = 100         // Max buffers per category
)

// pooledBuffer wraps a GPU buffer with metadata.
type pooledBuffer struct {
	buffer *wgpu.Buffer
	size   uint64
	usage  wgpu.BufferUsage
}

// bufferPool keeps released storage buffers for reuse. Buffers are
// categorized by size; a request is served by any pooled buffer at least as
// large with the same usage flags.
type bufferPool struct {
	device *wgpu.Device

	mu    sync.Mutex
	pools [3][]*pooledBuffer // small, medium, large

	hits   uint64
	misses uint64
}

func newBufferPool(device *wgpu.Device) *bufferPool {
	return &bufferPool{device: device}
}

// acquire gets a buffer from the pool or creates a new one.
func (p *bufferPool) acquire(size uint64, usage wgpu.BufferUsage) *wgpu.Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()

	c := category(size)
	for i, pb := range p.pools[c] {
		if pb.size >= size && pb.usage&usage == usage {
			p.pools[c] = append(p.pools[c][:i], p.pools[c][i+1:]...)
			p.hits++
			return pb.buffer
		}
	}

	p.misses++
	return p.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: usage,
		Size:  size,
	})
}

// release returns a buffer to the pool. If the pool is full, the buffer is
// released immediately.
func (p *bufferPool) release(buffer *wgpu.Buffer, size uint64, usage wgpu.BufferUsage) {
	p.mu.Lock()
	defer p.mu.Unlock()

	c := category(size)
	if len(p.pools[c]) >= maxPoolSize {
		buffer.Release()
		return
	}
	p.pools[c] = append(p.pools[c], &pooledBuffer{buffer: buffer, size: size, usage: usage})
}

// clear releases all pooled buffers.
func (p *bufferPool) clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for c := range p.pools {
		for _, pb := range p.pools[c] {
			pb.buffer.Release()
		}
		p.pools[c] = nil
	}
}

func (p *bufferPool) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pools[0]) + len(p.pools[1]) + len(p.pools[2])
}

func category(size uint64) int {
	switch {
	case size < smallThreshold:
		return 0
	case size < mediumThreshold:
		return 1
	default:
		return 2
	}
}
