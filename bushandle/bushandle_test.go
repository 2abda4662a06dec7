package bushandle

import "testing"

func TestSimBusRegisterRoundTrip(t *testing.T) {
	mem := map[byte]byte{}
	b := NewSimBus(
		func(reg byte) (byte, error) { return mem[reg], nil },
		func(reg, val byte) error { mem[reg] = val; return nil },
	)
	if err := b.WriteRegister(0x10, 0x42); err != nil {
		t.Fatalf("WriteRegister: %v", err)
	}
	v, err := b.ReadRegister(0x10)
	if err != nil {
		t.Fatalf("ReadRegister: %v", err)
	}
	if v != 0x42 {
		t.Fatalf("expected 0x42, got %#x", v)
	}
}

func TestSimBusNilCallbackFails(t *testing.T) {
	b := NewSimBus(nil, nil)
	if _, err := b.ReadRegister(0); err == nil {
		t.Fatalf("expected BusTransferFail for nil read callback")
	}
	if err := b.WriteRegister(0, 1); err == nil {
		t.Fatalf("expected BusTransferFail for nil write callback")
	}
}

func TestGuardedSerializesTransfers(t *testing.T) {
	mem := map[byte]byte{}
	b := NewGuarded(NewSimBus(
		func(reg byte) (byte, error) { return mem[reg], nil },
		func(reg, val byte) error { mem[reg] = val; return nil },
	))
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.WriteRegister(1, byte(i))
		}
		close(done)
	}()
	for i := 0; i < 100; i++ {
		b.WriteRegister(2, byte(i))
	}
	<-done
}
