// Package bus implements the lossy, single-level-wildcard publish/subscribe
// primitive backing remote.Lanes (spec §6's four virtual channels). It is a
// trimmed, domain-specific descendant of the teacher's MQTT-style bus
// (bus/bus.go in jangala-dev-devicecode-go): this system never needs
// arbitrary comparable tokens, retained messages, or request/reply topics
// (RPC dispatch goes through remote.Dispatcher directly, not over the bus),
// so those are dropped and only what remote/lanes.go and remote/service.go
// actually exercise remains — string-segment topics, a single wildcard
// ("+", used by service.go's "telemetry/+" drain-everything subscription),
// and a bounded per-subscriber queue that drops the oldest pending message
// rather than blocking a slow subscriber.
package bus

import (
	"sync"
	"sync/atomic"
)

const defaultQueueLen = 3

// Topic is a stream/rpc/input/video path, one segment per level
// (e.g. {"telemetry", "gyro0"}).
type Topic []string

// T builds a Topic from its segments.
func T(segments ...string) Topic { return Topic(segments) }

// Message is one published value: a telemetry sample, an RPC frame, or a
// pilot input, tagged with the topic it was published on.
type Message struct {
	Topic   Topic
	Payload any
	ID      uint64
}

// Subscription is a live subscriber's inbound channel for one topic
// (possibly wildcarded).
type Subscription struct {
	topic Topic
	ch    chan *Message
	conn  *Connection
}

func (s *Subscription) Topic() Topic             { return s.topic }
func (s *Subscription) Channel() <-chan *Message { return s.ch }
func (s *Subscription) Unsubscribe()             { s.conn.Unsubscribe(s) }

// wildcard is the single-level match token; Topic{"telemetry", wildcard}
// matches every message published under "telemetry/<anything>".
const wildcard = "+"

// node is a trie node keyed by topic segment, holding the subscriptions
// registered at exactly this depth.
type node struct {
	children map[string]*node
	subs     []*Subscription
}

func ensureChild(n *node, seg string) *node {
	if n.children == nil {
		n.children = make(map[string]*node)
	}
	if n.children[seg] == nil {
		n.children[seg] = &node{}
	}
	return n.children[seg]
}

// Bus is one lane's topic trie plus a fixed per-subscriber queue depth.
type Bus struct {
	mu    sync.Mutex
	root  *node
	qLen  int
	idCtr atomic.Uint64
}

// NewBus builds a Bus whose subscriber channels buffer queueLen messages
// before the oldest pending one is dropped in favor of the newest (the
// lossy, cancel-on-new-data behavior spec §6 requires of the input and
// telemetry lanes).
func NewBus(queueLen int) *Bus {
	if queueLen <= 0 {
		queueLen = defaultQueueLen
	}
	return &Bus{root: &node{}, qLen: queueLen}
}

func (b *Bus) nextID() uint64 { return b.idCtr.Add(1) }

// NewMessage stamps payload with a bus-unique, monotonically increasing ID.
func (b *Bus) NewMessage(topic Topic, payload any) *Message {
	return &Message{Topic: topic, Payload: payload, ID: b.nextID()}
}

func (b *Bus) addSubscription(topic Topic, sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := b.root
	for _, seg := range topic {
		n = ensureChild(n, seg)
	}
	n.subs = append(n.subs, sub)
}

// Publish delivers msg to every subscription whose topic matches
// msg.Topic, dropping the oldest queued message for any subscriber whose
// channel is already full.
func (b *Bus) Publish(msg *Message) {
	b.mu.Lock()
	var subs []*Subscription
	collectSubscribers(b.root, msg.Topic, 0, &subs)
	b.mu.Unlock()

	for _, sub := range subs {
		deliver(sub.ch, msg)
	}
}

func trySend(ch chan *Message, m *Message) bool {
	select {
	case ch <- m:
		return true
	default:
		return false
	}
}

func drainOne(ch chan *Message) {
	select {
	case <-ch:
	default:
	}
}

func deliver(ch chan *Message, msg *Message) {
	defer func() { _ = recover() }() // channel may have just been closed by Unsubscribe
	if trySend(ch, msg) {
		return
	}
	drainOne(ch)
	_ = trySend(ch, msg)
}

func (b *Bus) unsubscribe(topic Topic, sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.root
	var stack []*node
	for _, seg := range topic {
		if n.children == nil {
			return
		}
		child := n.children[seg]
		if child == nil {
			return
		}
		stack = append(stack, n)
		n = child
	}

	for i, s := range n.subs {
		if s == sub {
			n.subs = append(n.subs[:i], n.subs[i+1:]...)
			break
		}
	}
	b.pruneEmpty(stack, topic)
}

func (b *Bus) pruneEmpty(stack []*node, path Topic) {
	for i := len(path) - 1; i >= 0; i-- {
		parent := stack[i]
		seg := path[i]
		child := parent.children[seg]
		if child != nil && len(child.subs) == 0 && len(child.children) == 0 {
			delete(parent.children, seg)
		} else {
			break
		}
	}
}

// collectSubscribers walks the trie matching topic against registered
// subscription paths, where a subscription segment of "+" matches any
// single published segment at that depth.
func collectSubscribers(n *node, topic Topic, depth int, out *[]*Subscription) {
	if n == nil {
		return
	}
	if depth == len(topic) {
		*out = append(*out, n.subs...)
		return
	}
	seg := topic[depth]
	if n.children == nil {
		return
	}
	if child := n.children[seg]; child != nil {
		collectSubscribers(child, topic, depth+1, out)
	}
	if seg != wildcard {
		if wild := n.children[wildcard]; wild != nil {
			collectSubscribers(wild, topic, depth+1, out)
		}
	}
}

// Connection groups the subscriptions held by one caller (e.g. one remote
// link's telemetry drain) so they can all be torn down together.
type Connection struct {
	bus  *Bus
	subs []*Subscription
	mu   sync.Mutex
	id   string
}

// NewConnection opens a connection against b, tagged with a caller-chosen
// id for diagnostics.
func (b *Bus) NewConnection(id string) *Connection {
	return &Connection{bus: b, id: id}
}

func (c *Connection) NewMessage(topic Topic, payload any) *Message {
	return c.bus.NewMessage(topic, payload)
}

func (c *Connection) Publish(msg *Message) { c.bus.Publish(msg) }

// Subscribe registers a subscription for topic (which may contain "+"
// wildcard segments) and returns it; the caller drains Subscription.Channel()
// until Unsubscribe or Disconnect.
func (c *Connection) Subscribe(topic Topic) *Subscription {
	sub := &Subscription{topic: topic, ch: make(chan *Message, c.bus.qLen), conn: c}
	c.bus.addSubscription(topic, sub)
	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	return sub
}

func (c *Connection) Unsubscribe(sub *Subscription) {
	c.bus.unsubscribe(sub.topic, sub)
	c.mu.Lock()
	c.subs = removeSub(c.subs, sub)
	c.mu.Unlock()
	close(sub.ch)
}

// Disconnect tears down every subscription this connection still holds.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	for _, sub := range subs {
		c.bus.unsubscribe(sub.topic, sub)
		close(sub.ch)
	}
}

func removeSub(list []*Subscription, target *Subscription) []*Subscription {
	for i, s := range list {
		if s == target {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
