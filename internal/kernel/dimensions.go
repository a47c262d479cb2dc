package kernel

import (
	"fmt"
	"math"
)

// MaxDimension is the largest integer scalar a kernel accepts. float32
// represents every integer up to it exactly.
const MaxDimension = 1 << 24

// Dimensions maps kernels to the number of leading scalar values that are
// integer dimensions (sizes, counts and offsets). Kernels not listed take
// only real-valued scalars.
var Dimensions = map[string]int{
	CopyColumns:          4,
	AccumulateColumns:    4,
	LinearForward:        3,
	LinearBackwardInput:  3,
	LinearBackwardParams: 3,
	L2LossForward:        2,
	L2LossBackward:       2,
}

// CheckDimensions returns an error unless the dimension values of kernel
// are whole numbers in [0, MaxDimension]. values must hold at least as many
// entries as the kernel takes.
func CheckDimensions(kernel string, values []float32) error {
	n := min(Dimensions[kernel], len(values))
	for i, v := range values[:n] {
		if !(v >= 0 && v <= MaxDimension) || float64(v) != math.Trunc(float64(v)) {
			return fmt.Errorf("value %d (%g) is not an integer in [0, %d]", i, v, MaxDimension)
		}
	}
	return nil
}
