package layer

import "fmt"

// Parameter pairs a parameter values buffer with its deltas buffer.
// Deltas is nil until the owning layer's backward pass is initialized.
type Parameter struct {
	Values Buffer
	Deltas Buffer
}

// EncodeParameters calls encode for every parameter of owner that has a
// deltas buffer, in the given order.
//
// Parameters without deltas are skipped. A pair whose buffers differ in
// length is an implementation bug and panics with a *ContractViolation.
//
// Example:
//
//	func (l *Linear) EncodeParametersUpdate(encode layer.ParameterUpdateFunc) {
//	    layer.EncodeParameters(l, encode, l.weights, l.biases)
//	}
func EncodeParameters(owner Layer, encode ParameterUpdateFunc, params ...Parameter) {
	for i, p := range params {
		if p.Deltas == nil {
			continue
		}
		if p.Values == nil {
			panic(&ContractViolation{Layer: Describe(owner), Reason: fmt.Sprintf("parameter %d has deltas but no values", i)})
		}
		if p.Values.Len() != p.Deltas.Len() {
			panic(&ContractViolation{
				Layer:  Describe(owner),
				Reason: fmt.Sprintf("parameter %q has %d values but %d deltas", p.Values.Name(), p.Values.Len(), p.Deltas.Len()),
			})
		}
		encode(p.Values, p.Deltas)
	}
}
