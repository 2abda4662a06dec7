// Package stream implements the rate-tagged, single-producer sample model
// every node output/input port is built from: a Stream carries one
// regtype.Type at a fixed rate, and each tick produces at most one Sample
// tagged with a monotonic index and a health bit.
//
// Generalized from the teacher's bus.Message/bus.Subscription broadcast
// shape (bus/bus.go): a Stream plays the role of a topic with exactly one
// writer, and Sample plays the role of Message, but scoped to a single
// scheduler tick instead of an asynchronous pub/sub delivery.
package stream

import (
	"fmt"

	"github.com/jeanleflambeur/silkopter/errcode"
	"github.com/jeanleflambeur/silkopter/regtype"
)

// Sample is one tick's worth of stream output.
type Sample struct {
	Value       regtype.Value
	Index       uint64 // monotonic, never reset by Clear
	PeriodUS    int64  // 1e6 / RateHz, truncated
	TimestampUS int64  // monotonic capture time
	Healthy     bool   // false for extrapolated/stale samples
}

// Stream is a named, rate-tagged, single-producer buffer of one Sample per
// tick. Only the owning node's Process call may push to it; readers observe
// the last pushed Sample until the next Clear/Push cycle.
type Stream struct {
	id       string
	elemType *regtype.Type
	rateHz   float64
	producer string

	has       bool
	nextIndex uint64 // next Sample.Index to hand out; never reset by Clear
	sample    Sample
}

// New constructs a Stream. id is conventionally "<node>/<output>".
func New(id string, elemType *regtype.Type, rateHz float64, producer string) (*Stream, error) {
	if rateHz <= 0 {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "stream.New", Msg: fmt.Sprintf("rate must be positive, got %g", rateHz)}
	}
	return &Stream{id: id, elemType: elemType, rateHz: rateHz, producer: producer}, nil
}

func (s *Stream) ID() string             { return s.id }
func (s *Stream) Type() *regtype.Type    { return s.elemType }
func (s *Stream) RateHz() float64        { return s.rateHz }
func (s *Stream) Producer() string       { return s.producer }
func (s *Stream) PeriodUS() int64        { return int64(1e6 / s.rateHz) }

// Clear drops this tick's sample, leaving the stream with no current value
// until the next Push. Index is not affected — it only advances on Push.
func (s *Stream) Clear() {
	s.has = false
}

// Push publishes a new sample, checked against the stream's element type,
// and advances the monotonic sample index.
func (s *Stream) Push(v regtype.Value, timestampUS int64, healthy bool) error {
	if !s.elemType.Same(v.Type()) {
		return &errcode.E{C: errcode.TypeMismatch, Op: "Stream.Push", Msg: "value type does not match stream element type"}
	}
	idx := s.nextIndex
	s.nextIndex++
	s.sample = Sample{
		Value:       v.Copy(),
		Index:       idx,
		PeriodUS:    s.PeriodUS(),
		TimestampUS: timestampUS,
		Healthy:     healthy,
	}
	s.has = true
	return nil
}

// Latest returns the current tick's sample, if one was pushed.
func (s *Stream) Latest() (Sample, bool) {
	return s.sample, s.has
}

// SamplesNeeded implements the exact pacing rule every source/generator/
// simulator output uses: how many new samples are due given the stream's
// rate and the last tick's timestamp, with the remainder carried forward in
// lastTickUS so fractional-tick drift never accumulates.
//
//	samples_needed = floor((now - last_tp) * rate)
//	last_tp += samples_needed / rate
func SamplesNeeded(nowUS, lastTickUS int64, rateHz float64) (needed int, newLastTickUS int64) {
	dt := float64(nowUS-lastTickUS) / 1e6
	n := int(dt * rateHz)
	if n < 0 {
		n = 0
	}
	advanceUS := int64(float64(n) / rateHz * 1e6)
	return n, lastTickUS + advanceUS
}
