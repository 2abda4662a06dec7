package bushandle

import (
	"tinygo.org/x/drivers"
)

// HostBus is the real-hardware backing: a minimal byte-transfer shim over
// tinygo.org/x/drivers' I2C register contract (Tx(addr, w, r) error),
// generalized from the teacher's per-device drivers (drivers/ltc4015) to an
// opaque byte-register handle any node kind can use.
type HostBus struct {
	i2c  drivers.I2C
	addr uint16
}

// NewHostBus wraps a tinygo I2C bus at a fixed device address.
func NewHostBus(i2c drivers.I2C, addr uint16) *HostBus {
	return &HostBus{i2c: i2c, addr: addr}
}

func (h *HostBus) Transfer(tx, rx []byte, _ uint32) error {
	if err := h.i2c.Tx(h.addr, tx, rx); err != nil {
		return errBusTransfer("HostBus.Transfer", err)
	}
	return nil
}

func (h *HostBus) ReadRegister(reg byte) (byte, error) {
	var rx [1]byte
	if err := h.i2c.Tx(h.addr, []byte{reg}, rx[:]); err != nil {
		return 0, errBusTransfer("HostBus.ReadRegister", err)
	}
	return rx[0], nil
}

func (h *HostBus) WriteRegister(reg, val byte) error {
	if err := h.i2c.Tx(h.addr, []byte{reg, val}, nil); err != nil {
		return errBusTransfer("HostBus.WriteRegister", err)
	}
	return nil
}

var _ Handle = (*HostBus)(nil)
