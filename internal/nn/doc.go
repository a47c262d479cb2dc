// Package nn provides reference layers built on the layer contracts:
// fully connected (Linear), element-wise activations (ReLU, Sigmoid, Tanh)
// and the L2 loss.
//
// Every layer builds its invocations once, when the graph initializes it,
// and replays them on every pass. Buffers a layer allocates are named
// "<layer>.<buffer>" by the graph, so a Linear layer named "dense1" owns
// "dense1.weights" and "dense1.biases".
package nn
