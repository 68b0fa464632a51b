// Package workers computes the bounded concurrency level for verification
// batches.
package workers

import "runtime"

// Size returns clamp(NumCPU*multiplier, floor, ceiling). The result is never
// zero and never exceeds the ceiling, regardless of host parallelism.
func Size(multiplier, floor, ceiling int) int {
	return clamp(runtime.NumCPU()*multiplier, floor, ceiling)
}

func clamp(n, floor, ceiling int) int {
	if ceiling < 1 {
		ceiling = 1
	}
	if floor < 1 {
		floor = 1
	}
	if floor > ceiling {
		floor = ceiling
	}
	if n < floor {
		return floor
	}
	if n > ceiling {
		return ceiling
	}
	return n
}
