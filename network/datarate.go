package network

import (
	"fmt"
	"strconv"
	"strings"
)

// DataRate is a transmission rate in bits per second.
type DataRate float64

// Common data rate units.
const (
	Bps  DataRate = 1
	Kbps DataRate = 1e3
	Mbps DataRate = 1e6
	Gbps DataRate = 1e9
)

// rateUnits is checked in order. The longer suffixes come first because
// every unit ends in "bps".
var rateUnits = []struct {
	suffix string
	unit   DataRate
}{
	{"Gbps", Gbps},
	{"Mbps", Mbps},
	{"Kbps", Kbps},
	{"bps", Bps},
}

// ParseDataRate parses a rate string such as "10Mbps" or "6Mbps".
func ParseDataRate(s string) (DataRate, error) {
	for _, u := range rateUnits {
		if !strings.HasSuffix(s, u.suffix) {
			continue
		}

		numStr := strings.TrimSuffix(s, u.suffix)
		num, err := strconv.ParseFloat(numStr, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid data rate %q: %w", s, err)
		}

		if num < 0 {
			return 0, fmt.Errorf("invalid data rate %q: negative", s)
		}

		return DataRate(num) * u.unit, nil
	}

	return 0, fmt.Errorf("invalid data rate %q: unknown unit", s)
}

// MustParseDataRate parses a rate string and panics on failure. It is meant
// for the fixed rates in topology presets.
func MustParseDataRate(s string) DataRate {
	r, err := ParseDataRate(s)
	if err != nil {
		panic(err)
	}
	return r
}

func (r DataRate) String() string {
	switch {
	case r >= Gbps:
		return fmt.Sprintf("%gGbps", float64(r/Gbps))
	case r >= Mbps:
		return fmt.Sprintf("%gMbps", float64(r/Mbps))
	case r >= Kbps:
		return fmt.Sprintf("%gKbps", float64(r/Kbps))
	default:
		return fmt.Sprintf("%gbps", float64(r))
	}
}
