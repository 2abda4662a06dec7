package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jeanleflambeur/silkopter/bus"
)

// Service supervises a single remote link: dialling the configured
// Transport, reading request frames and dispatching them against a
// Dispatcher, and writing back response/telemetry frames. Lifecycle
// (reconfigure/runLink/handleLink/backoff) is adapted from
// services/bridge/bridge.go's Service, generalized from a heartbeat-only
// protocol to the full RPC and telemetry surface.
type Service struct {
	dispatcher *Dispatcher
	lanes      *Lanes

	mu     sync.Mutex
	curRun context.CancelFunc
}

// NewService builds a Service dispatching requests against d and carrying
// telemetry over the given lane set.
func NewService(d *Dispatcher, lanes *Lanes) *Service {
	return &Service{dispatcher: d, lanes: lanes}
}

// Run supervises reconnect/backoff for a single transport config until ctx
// is cancelled, exactly as the bridge's runLink does.
func (s *Service) Run(ctx context.Context, cfg Config) {
	s.mu.Lock()
	if s.curRun != nil {
		s.curRun()
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.curRun = cancel
	s.mu.Unlock()

	s.runLink(runCtx, cfg)
}

// Stop cancels any active link.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.curRun != nil {
		s.curRun()
		s.curRun = nil
	}
}

func (s *Service) runLink(ctx context.Context, cfg Config) {
	tr, err := NewTransport(cfg)
	if err != nil {
		return
	}

	backoff := BackoffSeq(250*time.Millisecond, 5*time.Second)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		rwc, err := tr.Open(ctx)
		if err != nil {
			if !Sleep(ctx, backoff()) {
				return
			}
			continue
		}

		if err := s.handleLink(ctx, rwc); err != nil {
			_ = rwc.Close()
			if !Sleep(ctx, backoff()) {
				return
			}
			continue
		}
		return
	}
}

// handleLink owns one active link's lifetime: a separate goroutine reads
// frameRequest frames, dispatches them, and writes back frameResponse
// frames, while handleLink itself drains the telemetry lane onto
// frameTelemetry frames and sends keepalive pings.
func (s *Service) handleLink(ctx context.Context, rwc io.ReadWriteCloser) error {
	rd := NewFrameReader(rwc)
	wr := NewFrameWriter(rwc)

	var writeMu sync.Mutex
	writeFrame := func(f Frame) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return wr.WriteFrame(f)
	}

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		for {
			f, err := rd.ReadFrame()
			if err != nil {
				errCh <- err
				return
			}
			switch f.Type {
			case framePing:
				_ = writeFrame(Frame{Type: framePong})
			case frameRequest:
				s.handleRequestFrame(f.Payload, writeFrame)
			case frameClose:
				errCh <- nil
				return
			}
		}
	}()

	telConn := s.lanes.Bus(LaneTelemetry).NewConnection(fmt.Sprintf("link-%p", rwc))
	telSub := telConn.Subscribe(bus.T("telemetry", "+"))
	defer telConn.Unsubscribe(telSub)

	tick := time.NewTicker(5 * time.Second)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = writeFrame(Frame{Type: frameClose})
			return nil
		case err := <-errCh:
			return err
		case <-tick.C:
			if err := writeFrame(Frame{Type: framePing}); err != nil {
				return err
			}
		case msg, ok := <-telSub.Channel():
			if !ok {
				continue
			}
			payload, _ := msg.Payload.([]byte)
			if err := writeFrame(Frame{Type: frameTelemetry, Payload: payload}); err != nil {
				return err
			}
		}
	}
}

func (s *Service) handleRequestFrame(payload []byte, writeFrame func(Frame) error) {
	var req wireRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return
	}
	resp := s.dispatcher.Handle(Request{ID: req.ID, Method: Method(req.Method), NodeName: req.NodeName, NodeKind: req.NodeKind, PortIndex: req.PortIndex, StreamID: req.StreamID, TelemetryActive: req.TelemetryActive})

	wresp := wireResponse{ID: resp.ID}
	if resp.Err != nil {
		wresp.Err = resp.Err.Error()
	}
	out, err := json.Marshal(wresp)
	if err != nil {
		return
	}
	_ = writeFrame(Frame{Type: frameResponse, Payload: out})
}

// wireRequest/wireResponse are the JSON envelope carried inside
// frameRequest/frameResponse payloads. regtype.Value fields (Descriptor,
// Config, Message) are intentionally omitted from this minimal envelope;
// a richer encoding lives at the sz.Value layer once a concrete wire
// codec is chosen.
type wireRequest struct {
	ID              uint64 `json:"id"`
	Method          string `json:"method"`
	NodeName        string `json:"node_name,omitempty"`
	NodeKind        string `json:"node_kind,omitempty"`
	PortIndex       int    `json:"port_index,omitempty"`
	StreamID        string `json:"stream_id,omitempty"`
	TelemetryActive bool   `json:"telemetry_active,omitempty"`
}

type wireResponse struct {
	ID  uint64 `json:"id"`
	Err string `json:"err,omitempty"`
}
