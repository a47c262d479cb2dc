// Package webgpu implements the WebGPU execution engine.
//
// Buffers live in GPU storage buffers and every kernel of the catalogue is a
// WGSL compute shader. Invocations bind their buffers once; Execute records
// all of them into one compute pass and submits it. The engine uses
// go-webgpu (github.com/go-webgpu/webgpu) for zero-CGO WebGPU bindings and is
// only built on Windows.
package webgpu
