package sched

import (
	"github.com/jeanleflambeur/silkopter/errcode"
	"github.com/jeanleflambeur/silkopter/regtype"
)

// maxDrift is the persistent sample-count divergence between inputs beyond
// which the Accumulator gives up waiting for the slow input to catch up and
// truncates to the shorter buffer, per spec §4.4.
const maxDrift = 30

// Accumulator resamples N same-rate input streams into aligned tuples: it
// holds one FIFO queue per input and yields a tuple only once every input
// has at least one queued sample.
type Accumulator struct {
	queues [][]regtype.Value
}

// NewAccumulator builds an accumulator over n inputs.
func NewAccumulator(n int) *Accumulator {
	return &Accumulator{queues: make([][]regtype.Value, n)}
}

// Feed enqueues a newly produced sample value for input i.
func (a *Accumulator) Feed(i int, v regtype.Value) {
	a.queues[i] = append(a.queues[i], v)
}

// TryYield pops one value from every input's queue and returns the aligned
// tuple, or ok=false if any input queue is still empty. If the queues have
// drifted more than maxDrift samples apart, it first truncates every queue
// down to the shortest queue's length (keeping the newest samples), then
// yields from the truncated queues in the same call, returning driftErr set
// to BufferDrift alongside the tuple.
func (a *Accumulator) TryYield() (tuple []regtype.Value, driftErr error, ok bool) {
	minLen, maxLen := -1, 0
	for _, q := range a.queues {
		if minLen == -1 || len(q) < minLen {
			minLen = len(q)
		}
		if len(q) > maxLen {
			maxLen = len(q)
		}
	}
	if minLen == -1 {
		return nil, nil, false
	}
	if maxLen-minLen > maxDrift {
		for i, q := range a.queues {
			if len(q) > minLen {
				a.queues[i] = q[len(q)-minLen:]
			}
		}
		driftErr = &errcode.E{C: errcode.BufferDrift, Op: "Accumulator.TryYield", Msg: "inputs diverged beyond tolerance, truncated"}
	}
	if minLen == 0 {
		return nil, driftErr, false
	}
	tuple = make([]regtype.Value, len(a.queues))
	for i, q := range a.queues {
		tuple[i] = q[0]
		a.queues[i] = q[1:]
	}
	return tuple, driftErr, true
}

// Len reports how many samples are currently queued for input i, for tests
// and diagnostics.
func (a *Accumulator) Len(i int) int { return len(a.queues[i]) }
