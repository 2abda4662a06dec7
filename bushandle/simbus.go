package bushandle

// SimBus is the simulated backing: registers are backed by plain callbacks
// so a sim-backed sensor/actuator node can expose its simulator.Plant state
// as if it were a real device's register file, without bushandle importing
// the simulator package.
type SimBus struct {
	read  func(reg byte) (byte, error)
	write func(reg, val byte) error
}

// NewSimBus builds a SimBus from read/write register callbacks. A nil
// callback makes that direction always fail with BusTransferFail.
func NewSimBus(read func(reg byte) (byte, error), write func(reg, val byte) error) *SimBus {
	return &SimBus{read: read, write: write}
}

func (s *SimBus) Transfer(tx, rx []byte, speedHz uint32) error {
	if len(tx) == 0 {
		return nil
	}
	reg := tx[0]
	for i := range rx {
		v, err := s.ReadRegister(reg + byte(i))
		if err != nil {
			return err
		}
		rx[i] = v
	}
	return nil
}

func (s *SimBus) ReadRegister(reg byte) (byte, error) {
	if s.read == nil {
		return 0, errBusTransfer("SimBus.ReadRegister", nil)
	}
	v, err := s.read(reg)
	if err != nil {
		return 0, errBusTransfer("SimBus.ReadRegister", err)
	}
	return v, nil
}

func (s *SimBus) WriteRegister(reg, val byte) error {
	if s.write == nil {
		return errBusTransfer("SimBus.WriteRegister", nil)
	}
	if err := s.write(reg, val); err != nil {
		return errBusTransfer("SimBus.WriteRegister", err)
	}
	return nil
}

var _ Handle = (*SimBus)(nil)
