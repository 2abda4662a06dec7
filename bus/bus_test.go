package bus

import (
	"testing"
	"time"
)

func TestBasicPubSub(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("test")

	sub := conn.Subscribe(T("telemetry", "gyro0"))
	defer conn.Unsubscribe(sub)

	conn.Publish(conn.NewMessage(T("telemetry", "gyro0"), "sample"))

	select {
	case got := <-sub.Channel():
		if got.Payload.(string) != "sample" {
			t.Errorf("expected payload %q, got %v", "sample", got.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for message")
	}
}

func TestSingleWildcardMatchesAnySegment(t *testing.T) {
	b := NewBus(8)
	conn := b.NewConnection("test")

	sub := conn.Subscribe(T("telemetry", "+"))
	defer conn.Unsubscribe(sub)

	conn.Publish(conn.NewMessage(T("telemetry", "gyro0"), 1))
	conn.Publish(conn.NewMessage(T("telemetry", "baro0"), 2))
	conn.Publish(conn.NewMessage(T("input", "stick0"), 3)) // different lane-internal prefix, must not match

	got := map[int]bool{}
	for i := 0; i < 2; i++ {
		select {
		case m := <-sub.Channel():
			got[m.Payload.(int)] = true
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("timeout waiting for message %d", i)
		}
	}
	if !got[1] || !got[2] {
		t.Fatalf("expected both telemetry topics delivered, got %v", got)
	}
	select {
	case m := <-sub.Channel():
		t.Fatalf("wildcard leaked a non-matching topic: %v", m.Topic)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestWildcardDoesNotMatchShorterTopic(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("test")

	sub := conn.Subscribe(T("telemetry", "+"))
	defer conn.Unsubscribe(sub)

	conn.Publish(conn.NewMessage(T("telemetry"), "too-short"))

	select {
	case m := <-sub.Channel():
		t.Fatalf("expected no delivery for a topic shorter than the subscription, got %v", m)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestFullQueueDropsOldestInFavorOfNewest(t *testing.T) {
	b := NewBus(2)
	conn := b.NewConnection("test")

	sub := conn.Subscribe(T("input", "throttle"))
	defer conn.Unsubscribe(sub)

	conn.Publish(conn.NewMessage(T("input", "throttle"), 1))
	conn.Publish(conn.NewMessage(T("input", "throttle"), 2))
	conn.Publish(conn.NewMessage(T("input", "throttle"), 3)) // queue depth 2: drops 1, keeps 2,3

	var got []int
	for i := 0; i < 2; i++ {
		select {
		case m := <-sub.Channel():
			got = append(got, m.Payload.(int))
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("timeout draining message %d", i)
		}
	}
	if len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Fatalf("expected [2 3] (oldest dropped), got %v", got)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("test")

	sub := conn.Subscribe(T("video"))
	conn.Unsubscribe(sub)

	conn.Publish(conn.NewMessage(T("video"), []byte{0xFF}))

	if _, ok := <-sub.Channel(); ok {
		t.Fatal("expected channel closed after Unsubscribe, got a delivered message")
	}
}

func TestDisconnectTearsDownAllSubscriptions(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("test")

	a := conn.Subscribe(T("rpc", "clock"))
	v := conn.Subscribe(T("video"))

	conn.Disconnect()

	if _, ok := <-a.Channel(); ok {
		t.Error("expected rpc subscription channel closed after Disconnect")
	}
	if _, ok := <-v.Channel(); ok {
		t.Error("expected video subscription channel closed after Disconnect")
	}
}

func TestMessageIDsAreUniqueAndMonotonic(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("test")

	m1 := conn.NewMessage(T("rpc", "clock"), nil)
	m2 := conn.NewMessage(T("rpc", "clock"), nil)
	if m2.ID <= m1.ID {
		t.Fatalf("expected strictly increasing message IDs, got %d then %d", m1.ID, m2.ID)
	}
}
