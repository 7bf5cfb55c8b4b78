package ratecontrol

import (
	"fmt"
	"math"
	"sync/atomic"
)

// Law selects which control law runs on a tick.
type Law int

const (
	LawPID Law = iota
	LawMFC
)

func (l Law) String() string {
	switch l {
	case LawPID:
		return "pid"
	case LawMFC:
		return "mfc"
	default:
		return "unknown"
	}
}

// ParseLaw is the inverse of Law.String.
func ParseLaw(s string) (Law, bool) {
	switch s {
	case "pid":
		return LawPID, true
	case "mfc":
		return LawMFC, true
	}
	return LawPID, false
}

func (l Law) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Law) UnmarshalText(b []byte) error {
	law, ok := ParseLaw(string(b))
	if !ok {
		return fmt.Errorf("unknown law %q", b)
	}
	*l = law
	return nil
}

// MFCChannelThreshold is the RC channel value above which the MFC law is engaged.
const MFCChannelThreshold = -1.0

// ModeSource is sampled exactly once per Update.
type ModeSource interface {
	Law() Law
}

// FixedMode always selects the same law.
type FixedMode Law

func (m FixedMode) Law() Law { return Law(m) }

// ChannelModeSource maps a raw RC channel value to a law. The value may be
// written from the receiver goroutine while the control loop reads it.
type ChannelModeSource struct {
	bits atomic.Uint64
}

// NewChannelModeSource starts with the channel at its low end, i.e. PID.
func NewChannelModeSource() *ChannelModeSource {
	c := &ChannelModeSource{}
	c.Set(MFCChannelThreshold)
	return c
}

// Set stores the latest channel value.
func (c *ChannelModeSource) Set(value float64) {
	c.bits.Store(math.Float64bits(value))
}

func (c *ChannelModeSource) Value() float64 {
	return math.Float64frombits(c.bits.Load())
}

func (c *ChannelModeSource) Law() Law {
	if c.Value() > MFCChannelThreshold {
		return LawMFC
	}
	return LawPID
}
