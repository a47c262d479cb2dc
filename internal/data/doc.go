// Package data provides reference data and sink layers.
//
// SliceSource and TokenSource are data layers: they originate batches from an
// in-memory dataset or from tokenized text. Collector is a sink layer that
// keeps the network output of the last forward pass.
//
// Data layers that feed the same graph (inputs and labels, for example)
// advance in lockstep as long as they hold the same number of samples.
package data
