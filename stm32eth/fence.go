//go:build !(tinygo && cortexm)

package stm32eth

import "sync/atomic"

var fenceWord uint32

// fence orders all memory accesses before it with those after it.
// Atomic read-modify-write operations are sequentially consistent in Go.
func fence() {
	atomic.AddUint32(&fenceWord, 1)
}
