package stm32eth

import (
	"fmt"

	"github.com/soypat/ethmac"
)

// ClockRange is the MACMIIAR.CR field selecting the HCLK divider that
// generates the MDC clock. MDC must stay at or below 2.5MHz.
type ClockRange uint8

const (
	ClockRange60_100  ClockRange = 0b000 // HCLK 60-100MHz, divide by 42
	ClockRange100_150 ClockRange = 0b001 // HCLK 100-150MHz, divide by 62
	ClockRange20_35   ClockRange = 0b010 // HCLK 20-35MHz, divide by 16
	ClockRange35_60   ClockRange = 0b011 // HCLK 35-60MHz, divide by 26
	ClockRange150_216 ClockRange = 0b100 // HCLK 150-216MHz, divide by 102
)

// ClockRangeFor returns the MDC clock range for an HCLK of hclk Hz.
// Frequencies below 25MHz are not supported and frequencies above 216MHz
// cannot be divided down to a valid MDC clock; both return [ethmac.ErrClockRange].
func ClockRangeFor(hclk uint32) (ClockRange, error) {
	mhz := hclk / 1_000_000
	switch {
	case mhz < 25:
		return 0, fmt.Errorf("HCLK %dMHz, need at least 25MHz: %w", mhz, ethmac.ErrClockRange)
	case mhz < 35:
		return ClockRange20_35, nil
	case mhz < 60:
		return ClockRange35_60, nil
	case mhz < 100:
		return ClockRange60_100, nil
	case mhz < 150:
		return ClockRange100_150, nil
	case mhz <= 216:
		return ClockRange150_216, nil
	}
	return 0, fmt.Errorf("HCLK %dMHz results in MDC above 2.5MHz for every divider: %w", mhz, ethmac.ErrClockRange)
}

// Divider returns the HCLK division factor selected by cr.
func (cr ClockRange) Divider() uint32 {
	switch cr {
	case ClockRange60_100:
		return 42
	case ClockRange100_150:
		return 62
	case ClockRange20_35:
		return 16
	case ClockRange35_60:
		return 26
	case ClockRange150_216:
		return 102
	}
	return 0
}

func (cr ClockRange) String() string {
	switch cr {
	case ClockRange60_100:
		return "HCLK/42"
	case ClockRange100_150:
		return "HCLK/62"
	case ClockRange20_35:
		return "HCLK/16"
	case ClockRange35_60:
		return "HCLK/26"
	case ClockRange150_216:
		return "HCLK/102"
	}
	return "ClockRange(invalid)"
}
