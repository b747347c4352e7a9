//go:build tinygo && cortexm

package stm32eth

import "device/arm"

// fence issues a full data memory barrier so the DMA engine observes every
// descriptor write before the ownership flip that follows.
func fence() {
	arm.Asm("dmb 0xF")
}
