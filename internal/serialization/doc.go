// Package serialization implements the .brnc checkpoint format used to save
// and restore the parameters of a trained graph.
//
//	Format Structure:
//	  [4 bytes: Magic "BRNC"]
//	  [4 bytes: Version (uint32 LE)]
//	  [4 bytes: Flags (uint32 LE)]
//	  [8 bytes: Header Size (uint64 LE)]
//	  [Header: protobuf wire encoding]
//	  [Tensor data: float32 LE, tensors back to back]
//	  [32 bytes: SHA-256 of everything above]
//
// The header records the library version, the creation time, the training
// step and loss, free-form metadata, and the name, offset and length of every
// tensor. Offsets and lengths count float32 values, not bytes.
//
// Example usage:
//
//	err := serialization.Write(f, serialization.Header{Step: 1000, Loss: 0.01}, []serialization.Tensor{
//	    {Name: "dense1.weights", Values: weights},
//	})
//
//	header, tensors, err := serialization.Read(f)
package serialization
