//go:build windows

package webgpu

// WGSL compute shaders, one per kernel of the catalogue. Scalar values are
// passed as a uniform block of four f32; integer dimensions are converted in
// the shader.

// workgroupSize is the number of threads per workgroup.
const workgroupSize = 256

// fillShader sets every value of dst to params.value.
const fillShader = `
@group(0) @binding(0) var<storage, read_write> dst: array<f32>;

struct Params {
    value: f32,
}
@group(0) @binding(1) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < arrayLength(&dst)) {
        dst[idx] = params.value;
    }
}
`

// copyColumnsShader copies src [rows, src_width] into columns
// [offset, offset+src_width) of dst [rows, dst_width].
const copyColumnsShader = `
@group(0) @binding(0) var<storage, read> src: array<f32>;
@group(0) @binding(1) var<storage, read_write> dst: array<f32>;

struct Params {
    rows: f32,
    src_width: f32,
    dst_width: f32,
    col_offset: f32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    let src_width = u32(params.src_width);
    if (idx >= u32(params.rows) * src_width) {
        return;
    }
    let row = idx / src_width;
    let col = idx % src_width;
    dst[row * u32(params.dst_width) + u32(params.col_offset) + col] = src[idx];
}
`

// accumulateColumnsShader adds columns [offset, offset+dst_width) of
// src [rows, src_width] into dst [rows, dst_width].
const accumulateColumnsShader = `
@group(0) @binding(0) var<storage, read> src: array<f32>;
@group(0) @binding(1) var<storage, read_write> dst: array<f32>;

struct Params {
    rows: f32,
    src_width: f32,
    dst_width: f32,
    col_offset: f32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    let dst_width = u32(params.dst_width);
    if (idx >= u32(params.rows) * dst_width) {
        return;
    }
    let row = idx / dst_width;
    let col = idx % dst_width;
    dst[idx] = dst[idx] + src[row * u32(params.src_width) + u32(params.col_offset) + col];
}
`

// linearForwardShader computes output = input · weightsᵀ + biases, one
// thread per output value.
const linearForwardShader = `
@group(0) @binding(0) var<storage, read> in_values: array<f32>;
@group(0) @binding(1) var<storage, read> weights: array<f32>;
@group(0) @binding(2) var<storage, read> biases: array<f32>;
@group(0) @binding(3) var<storage, read_write> out_values: array<f32>;

struct Params {
    batch: f32,
    in_features: f32,
    out_features: f32,
}
@group(0) @binding(4) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    let n_in = u32(params.in_features);
    let n_out = u32(params.out_features);
    if (idx >= u32(params.batch) * n_out) {
        return;
    }
    let b = idx / n_out;
    let o = idx % n_out;
    var sum = biases[o];
    for (var k = 0u; k < n_in; k = k + 1u) {
        sum = sum + in_values[b * n_in + k] * weights[o * n_in + k];
    }
    out_values[idx] = sum;
}
`

// linearBackwardInputShader computes input_deltas = output_deltas · weights,
// one thread per input delta.
const linearBackwardInputShader = `
@group(0) @binding(0) var<storage, read> output_deltas: array<f32>;
@group(0) @binding(1) var<storage, read> weights: array<f32>;
@group(0) @binding(2) var<storage, read_write> input_deltas: array<f32>;

struct Params {
    batch: f32,
    in_features: f32,
    out_features: f32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    let n_in = u32(params.in_features);
    let n_out = u32(params.out_features);
    if (idx >= u32(params.batch) * n_in) {
        return;
    }
    let b = idx / n_in;
    let k = idx % n_in;
    var sum = 0.0;
    for (var o = 0u; o < n_out; o = o + 1u) {
        sum = sum + output_deltas[b * n_out + o] * weights[o * n_in + k];
    }
    input_deltas[idx] = sum;
}
`

// linearBackwardParamsShader computes weight_deltas = output_deltasᵀ · input
// (threads [0, out·in)) and bias_deltas = Σ_batch output_deltas
// (threads [out·in, out·in + out)).
const linearBackwardParamsShader = `
@group(0) @binding(0) var<storage, read> in_values: array<f32>;
@group(0) @binding(1) var<storage, read> output_deltas: array<f32>;
@group(0) @binding(2) var<storage, read_write> weight_deltas: array<f32>;
@group(0) @binding(3) var<storage, read_write> bias_deltas: array<f32>;

struct Params {
    batch: f32,
    in_features: f32,
    out_features: f32,
}
@group(0) @binding(4) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    let batch = u32(params.batch);
    let n_in = u32(params.in_features);
    let n_out = u32(params.out_features);
    let n_weights = n_out * n_in;

    if (idx < n_weights) {
        let o = idx / n_in;
        let k = idx % n_in;
        var sum = 0.0;
        for (var b = 0u; b < batch; b = b + 1u) {
            sum = sum + output_deltas[b * n_out + o] * in_values[b * n_in + k];
        }
        weight_deltas[idx] = sum;
    } else if (idx < n_weights + n_out) {
        let o = idx - n_weights;
        var sum = 0.0;
        for (var b = 0u; b < batch; b = b + 1u) {
            sum = sum + output_deltas[b * n_out + o];
        }
        bias_deltas[o] = sum;
    }
}
`

// reluForwardShader computes output = max(input, 0).
const reluForwardShader = `
@group(0) @binding(0) var<storage, read> in_values: array<f32>;
@group(0) @binding(1) var<storage, read_write> out_values: array<f32>;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < arrayLength(&out_values)) {
        out_values[idx] = max(in_values[idx], 0.0);
    }
}
`

// reluBackwardShader passes output deltas where the input was positive.
const reluBackwardShader = `
@group(0) @binding(0) var<storage, read> in_values: array<f32>;
@group(0) @binding(1) var<storage, read> output_deltas: array<f32>;
@group(0) @binding(2) var<storage, read_write> input_deltas: array<f32>;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < arrayLength(&input_deltas)) {
        input_deltas[idx] = select(0.0, output_deltas[idx], in_values[idx] > 0.0);
    }
}
`

// sigmoidForwardShader computes output = 1 / (1 + exp(-input)).
const sigmoidForwardShader = `
@group(0) @binding(0) var<storage, read> in_values: array<f32>;
@group(0) @binding(1) var<storage, read_write> out_values: array<f32>;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < arrayLength(&out_values)) {
        out_values[idx] = 1.0 / (1.0 + exp(-in_values[idx]));
    }
}
`

// sigmoidBackwardShader computes input_deltas = output_deltas · y · (1 - y).
const sigmoidBackwardShader = `
@group(0) @binding(0) var<storage, read> out_values: array<f32>;
@group(0) @binding(1) var<storage, read> output_deltas: array<f32>;
@group(0) @binding(2) var<storage, read_write> input_deltas: array<f32>;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < arrayLength(&input_deltas)) {
        let y = out_values[idx];
        input_deltas[idx] = output_deltas[idx] * y * (1.0 - y);
    }
}
`

// tanhForwardShader computes output = tanh(input).
const tanhForwardShader = `
@group(0) @binding(0) var<storage, read> in_values: array<f32>;
@group(0) @binding(1) var<storage, read_write> out_values: array<f32>;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < arrayLength(&out_values)) {
        out_values[idx] = tanh(in_values[idx]);
    }
}
`

// tanhBackwardShader computes input_deltas = output_deltas · (1 - y²).
const tanhBackwardShader = `
@group(0) @binding(0) var<storage, read> out_values: array<f32>;
@group(0) @binding(1) var<storage, read> output_deltas: array<f32>;
@group(0) @binding(2) var<storage, read_write> input_deltas: array<f32>;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < arrayLength(&input_deltas)) {
        let y = out_values[idx];
        input_deltas[idx] = output_deltas[idx] * (1.0 - y * y);
    }
}
`

// l2LossForwardShader computes ½ Σ (prediction - label)² per batch element.
const l2LossForwardShader = `
@group(0) @binding(0) var<storage, read> in_values: array<f32>;
@group(0) @binding(1) var<storage, read_write> out_values: array<f32>;

struct Params {
    batch: f32,
    size: f32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let b = global_id.x;
    let size = u32(params.size);
    if (b >= u32(params.batch)) {
        return;
    }
    let row = b * 2u * size;
    var sum = 0.0;
    for (var j = 0u; j < size; j = j + 1u) {
        let d = in_values[row + j] - in_values[row + size + j];
        sum = sum + d * d;
    }
    out_values[b] = 0.5 * sum;
}
`

// l2LossBackwardShader computes the gradient of the batch-mean L2 loss with
// respect to predictions and labels.
const l2LossBackwardShader = `
@group(0) @binding(0) var<storage, read> in_values: array<f32>;
@group(0) @binding(1) var<storage, read_write> input_deltas: array<f32>;

struct Params {
    batch: f32,
    size: f32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    let size = u32(params.size);
    if (idx >= u32(params.batch) * size) {
        return;
    }
    let row = (idx / size) * 2u * size;
    let j = idx % size;
    let d = (in_values[row + j] - in_values[row + size + j]) / params.batch;
    input_deltas[row + j] = d;
    input_deltas[row + size + j] = -d;
}
`

// sgdUpdateShader applies velocity = momentum·velocity + deltas and
// values -= lr·velocity.
const sgdUpdateShader = `
@group(0) @binding(0) var<storage, read_write> values: array<f32>;
@group(0) @binding(1) var<storage, read> deltas: array<f32>;
@group(0) @binding(2) var<storage, read_write> velocity: array<f32>;

struct Params {
    lr: f32,
    momentum: f32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < arrayLength(&values)) {
        let v = params.momentum * velocity[idx] + deltas[idx];
        velocity[idx] = v;
        values[idx] = values[idx] - params.lr * v;
    }
}
`

// adamUpdateShader applies one Adam step using the step counter in
// state[0] + 1. adamStepShader increments the counter afterwards.
const adamUpdateShader = `
@group(0) @binding(0) var<storage, read_write> values: array<f32>;
@group(0) @binding(1) var<storage, read> deltas: array<f32>;
@group(0) @binding(2) var<storage, read_write> m: array<f32>;
@group(0) @binding(3) var<storage, read_write> v: array<f32>;
@group(0) @binding(4) var<storage, read> state: array<f32>;

struct Params {
    lr: f32,
    beta1: f32,
    beta2: f32,
    eps: f32,
}
@group(0) @binding(5) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx >= arrayLength(&values)) {
        return;
    }
    let t = state[0] + 1.0;
    let step_size = params.lr * sqrt(1.0 - pow(params.beta2, t)) / (1.0 - pow(params.beta1, t));
    let g = deltas[idx];
    let mi = params.beta1 * m[idx] + (1.0 - params.beta1) * g;
    let vi = params.beta2 * v[idx] + (1.0 - params.beta2) * g * g;
    m[idx] = mi;
    v[idx] = vi;
    values[idx] = values[idx] - step_size * mi / (sqrt(vi) + params.eps);
}
`

const adamStepShader = `
@group(0) @binding(4) var<storage, read_write> state: array<f32>;

@compute @workgroup_size(1)
fn main() {
    state[0] = state[0] + 1.0;
}
`
