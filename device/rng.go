package device

import (
	"context"
	"math"

	"github.com/ardnew/wrn/device/hal"
	"github.com/ardnew/wrn/pkg"
)

// RNG implements the self-calibrating true-random-number engine: it samples
// an analog noise source, self-calibrates a decision threshold, debiases
// bits, assembles bytes, and in flood mode hands full 64-byte batches to the
// Framer.
type RNG struct {
	adc hal.ADC

	flood     bool
	threshold uint8
	byte_     uint8
	bitFlip   bool

	payload    [RNGPayloadSize]byte
	payloadLen int

	numMeasures  int
	measureLimit int
	panLeft      int
	panRight     int
	fault        uint16
}

// NewRNG returns an RNG engine reading from adc, starting uncalibrated with
// the default threshold and measurement window.
func NewRNG(adc hal.ADC) *RNG {
	return &RNG{
		adc:          adc,
		threshold:    RNGDefaultThreshold,
		measureLimit: RNGDefaultMeasureLimit,
	}
}

// Calibrated reports whether the calibration window has completed
// (measureLimit == 0).
func (r *RNG) Calibrated() bool {
	return r.measureLimit == 0
}

// Sample performs one measurement-and-bit-production step. It returns true
// when flood mode is enabled and a full 64-byte payload batch has just been
// assembled; the caller is expected to synthesize an RNGSendPayload command
// in that case.
func (r *RNG) Sample(ctx context.Context) (bool, error) {
	measure, err := r.adc.Sample(ctx)
	if err != nil {
		return false, err
	}

	r.numMeasures++

	if !r.Calibrated() {
		if r.numMeasures == r.measureLimit {
			r.fault = uint16(abs(r.panLeft - r.panRight))
			acceptable := acceptableFault(r.measureLimit)

			if r.fault > acceptable {
				if r.panRight > r.panLeft {
					if r.threshold < math.MaxUint8 {
						r.threshold++
					}
				} else if r.threshold > 0 {
					r.threshold--
				}
			} else {
				r.measureLimit = 0
				r.payloadLen = 0
			}

			if r.threshold == 0 || r.fault == math.MaxUint16 {
				r.measureLimit = RNGFastCalibration
			}

			r.numMeasures = 0
			r.panLeft = 0
			r.panRight = 0
		} else {
			// Drop one measure per calibration cycle to prevent overflow:
			// the window-boundary sample above is excluded from the pan
			// count, so pan_left + pan_right == measureLimit - 1.
			if measure <= r.threshold {
				r.panLeft++
			} else {
				r.panRight++
			}
		}
		return false, nil
	}

	r.byte_ <<= 1
	if measure > r.threshold {
		r.byte_ |= 1
	}
	r.byte_ ^= boolToByte(r.bitFlip)
	r.bitFlip = !r.bitFlip

	if r.flood && r.numMeasures%8 == 0 {
		if r.payloadLen < len(r.payload) {
			r.payload[r.payloadLen] = r.byte_
			r.payloadLen++
		}
		if r.payloadLen == len(r.payload) {
			return true, nil
		}
	}
	return false, nil
}

// acceptableFault computes the tolerance formula:
// ((measureLimit-1)/256 + 1) * 3.
func acceptableFault(measureLimit int) uint16 {
	return uint16(((measureLimit-1)/256 + 1) * 3)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func boolToByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// SetFlood enables or disables flood mode. Disabling resets the in-progress
// payload batch.
func (r *RNG) SetFlood(flood bool) {
	r.flood = flood
	if !flood {
		r.payloadLen = 0
	}
}

// Flood reports whether flood mode is enabled.
func (r *RNG) Flood() bool {
	return r.flood
}

// Payload returns the current (possibly partial) payload batch and its
// length.
func (r *RNG) Payload() ([]byte, int) {
	return r.payload[:], r.payloadLen
}

// ResetPayload clears the assembled payload after it has been sent.
func (r *RNG) ResetPayload() {
	r.payloadLen = 0
}

// Status returns the wire RNG/Status payload.
func (r *RNG) Status() RNGStatusPayload {
	return RNGStatusPayload{
		Threshold:  r.threshold,
		Calibrated: boolToByte(r.Calibrated()),
		Flood:      boolToByte(r.flood),
		Fault:      r.fault,
	}
}

// RNGStatusPayload is the RNG/Status wire payload.
type RNGStatusPayload struct {
	Threshold  uint8
	Calibrated uint8
	Flood      uint8
	Fault      uint16
}

// MarshalTo writes the payload in wire order (packed, little-endian).
func (p RNGStatusPayload) MarshalTo(buf []byte) int {
	const size = 5
	if len(buf) < size {
		return 0
	}
	buf[0] = p.Threshold
	buf[1] = p.Calibrated
	buf[2] = p.Flood
	buf[3] = byte(p.Fault)
	buf[4] = byte(p.Fault >> 8)
	return size
}

// HandleRNG dispatches an RNG/* command. It returns ok=false for an
// unrecognized command id.
func HandleRNG(r *RNG, cmd Command) (ok bool) {
	switch cmd.ID {
	case RNGFloodOn:
		r.SetFlood(true)
		return true
	case RNGFloodOff:
		r.SetFlood(false)
		return true
	case RNGStatus:
		return true
	default:
		pkg.LogWarn(pkg.ComponentRNG, "unknown command", "id", cmd.ID)
		return false
	}
}
