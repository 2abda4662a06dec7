package remote

import "github.com/jeanleflambeur/silkopter/bus"

// Lane identifies one of the four virtual transport channels (spec §6).
// Each lane is backed by its own bus.Bus because a Bus's queue depth is
// fixed at construction and has no per-topic override, so differing queue
// depths per lane can only be expressed as separate bus instances.
type Lane int

const (
	LaneSetup Lane = iota
	LaneInput
	LaneTelemetry
	LaneVideo
	laneCount
)

func (l Lane) String() string {
	switch l {
	case LaneSetup:
		return "setup"
	case LaneInput:
		return "input"
	case LaneTelemetry:
		return "telemetry"
	case LaneVideo:
		return "video"
	default:
		return "unknown"
	}
}

// Lane queue depths: setup/input are low-rate request/reply traffic and
// tolerate a shallow queue; telemetry is high-rate sample streaming and
// wants more slack before a slow subscriber starts dropping; video frames
// are large and latest-value-only, so a depth of 1 keeps the lane from
// ever buffering stale frames.
const (
	setupQueueLen     = 4
	inputQueueLen     = 4
	telemetryQueueLen = 64
	videoQueueLen     = 1
)

// Lanes bundles one bus.Bus per virtual channel.
type Lanes struct {
	buses [laneCount]*bus.Bus
}

// NewLanes constructs the four lane buses with their fixed queue depths.
func NewLanes() *Lanes {
	return &Lanes{buses: [laneCount]*bus.Bus{
		LaneSetup:     bus.NewBus(setupQueueLen),
		LaneInput:     bus.NewBus(inputQueueLen),
		LaneTelemetry: bus.NewBus(telemetryQueueLen),
		LaneVideo:     bus.NewBus(videoQueueLen),
	}}
}

// Bus returns the bus.Bus backing lane l.
func (ls *Lanes) Bus(l Lane) *bus.Bus { return ls.buses[l] }

// NewConnection opens a connection on lane l under the given connection id.
func (ls *Lanes) NewConnection(l Lane, id string) *bus.Connection {
	return ls.buses[l].NewConnection(id)
}

// SampleTopic is the telemetry-lane topic carrying samples for one stream.
func SampleTopic(streamID string) bus.Topic {
	return bus.T("telemetry", streamID)
}

// RPCTopic is the setup-lane topic carrying one RPC method's requests.
func RPCTopic(method Method) bus.Topic {
	return bus.T("rpc", string(method))
}

// InputTopic is the input-lane topic carrying pilot/stick input messages
// for one node.
func InputTopic(nodeName string) bus.Topic {
	return bus.T("input", nodeName)
}

// VideoTopic is the video-lane topic carrying the single latest frame.
var VideoTopic = bus.T("video")
