// Package bushandle implements the opaque bus-handle trait spec §9 replaces
// hardware-specific conditional compilation with: a small capability set
// (transfer, register read/write) shared by a simulated backing (simbus,
// coupled to the in-process simulator.Plant) and a host backing (hostbus,
// a thin shim over tinygo.org/x/drivers' register contract).
//
// Grounded in the teacher's services/hal/internal/platform build-tag-
// selected setup pattern (setup_none.go/setup_selected.go) for choosing a
// backing at build time, and drivers/ltc4015/bus.go's mutex-guarded,
// one-transfer-at-a-time shape (spec §5: "a node claims the mutex for the
// duration of one transfer").
package bushandle

import (
	"sync"

	"github.com/jeanleflambeur/silkopter/errcode"
)

// Handle is the capability set every node sees instead of a concrete
// SPI/I2C/UART driver: transfer raw bytes, or read/write one register.
type Handle interface {
	Transfer(tx, rx []byte, speedHz uint32) error
	ReadRegister(reg byte) (byte, error)
	WriteRegister(reg, val byte) error
}

// Guarded wraps a Handle with the mutex every bus claims for the duration
// of exactly one transfer — short, non-nested holds, matching the teacher's
// driver-level bus locking.
type Guarded struct {
	mu sync.Mutex
	h  Handle
}

// NewGuarded wraps h with a transfer mutex.
func NewGuarded(h Handle) *Guarded {
	return &Guarded{h: h}
}

func (g *Guarded) Transfer(tx, rx []byte, speedHz uint32) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.h.Transfer(tx, rx, speedHz)
}

func (g *Guarded) ReadRegister(reg byte) (byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.h.ReadRegister(reg)
}

func (g *Guarded) WriteRegister(reg, val byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.h.WriteRegister(reg, val)
}

// errBusTransfer wraps a backing transport error with the runtime error
// taxonomy's BusTransferFail code.
func errBusTransfer(op string, cause error) error {
	return &errcode.E{C: errcode.BusTransferFail, Op: op, Err: cause}
}
