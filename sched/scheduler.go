// Package sched implements the fixed-tick scheduler driving a graph.Graph in
// topological order, and the Accumulator helper processors use to resample
// heterogeneous multi-input streams into aligned tuples.
//
// Grounded in the teacher's single-goroutine, select-driven tick loop
// (services/hal/internal/core/loop.go) — here repurposed from MQTT-style
// capability polling to fixed-period topological graph execution (spec
// §4.4), and in poller.go's due-queue bookkeeping style, adapted from
// poll-due-time alignment to sample-count alignment.
package sched

import (
	"github.com/jeanleflambeur/silkopter/errcode"
	"github.com/jeanleflambeur/silkopter/graph"
)

// Scheduler drives a validated graph.Graph at a fixed tick period.
// Single-threaded cooperative: Tick never blocks, suspends, or re-enters.
type Scheduler struct {
	g          *graph.Graph
	order      []graph.Node
	tickOrigin int64
	now        int64
	started    bool
}

// New builds a Scheduler over an already-validated graph.
func New(g *graph.Graph) *Scheduler {
	return &Scheduler{g: g, order: g.Order()}
}

// Start calls Start(tickOrigin) on every node in topological order, once,
// before the first Tick.
func (s *Scheduler) Start(tickOriginUS int64) {
	s.tickOrigin = tickOriginUS
	s.now = tickOriginUS
	for _, n := range s.order {
		n.Start(tickOriginUS)
	}
	s.started = true
}

// Tick snapshots nowUS as the tick timestamp, then invokes Process on every
// node in topological order. Nodes read already-processed predecessors'
// same-tick output and the plant's previous-tick output across the one
// designated feedback edge; nothing here enforces that distinction — it is
// upheld structurally because graph.Graph.Validate places the plant last in
// the order, so the plant always executes using whatever its consumers already pushed this
// tick, and its consumers always read the samples it pushed on the
// previous Tick call (the plant's Process has not run again yet).
func (s *Scheduler) Tick(nowUS int64) error {
	if !s.started {
		return &errcode.E{C: errcode.SchedulerInvariantBroken, Op: "Tick", Msg: "Tick called before Start"}
	}
	if nowUS < s.now {
		return &errcode.E{C: errcode.SchedulerInvariantBroken, Op: "Tick", Msg: "non-monotonic tick timestamp"}
	}
	s.now = nowUS
	for _, n := range s.order {
		n.Process(nowUS)
	}
	return nil
}

// Now returns the timestamp of the most recent Tick (or the tick origin,
// before the first Tick).
func (s *Scheduler) Now() int64 { return s.now }

// Stop is the cooperative shutdown point: the current tick has already run
// to completion by the time a caller observes Stop returning, since Tick
// never yields mid-pass. Teardown (reverse init order) is the graph
// owner's responsibility, not the scheduler's.
func (s *Scheduler) Stop() {
	s.started = false
}
