package serial

import "github.com/Amjad50/OS/kernel/cpu"

// COM1 is the port base for the first UART; QEMU wires it to the -serial
// backend.
const COM1 = uint16(0x3f8)

// 16550 register offsets relative to the port base.
const (
	regData            = uint16(0)
	regInterruptEnable = uint16(1)
	regFifoControl     = uint16(2)
	regLineControl     = uint16(3)
	regModemControl    = uint16(4)
	regLineStatus      = uint16(5)
)

const (
	lineControlDLAB   = uint8(1) << 7
	lineControl8n1    = uint8(0x03)
	lineStatusTxEmpty = uint8(1) << 5

	// 115200 baud: divisor 1.
	baudDivisorLow  = uint8(1)
	baudDivisorHigh = uint8(0)

	fifoEnableClear14 = uint8(0xc7)
	modemDtrRtsOut2   = uint8(0x0b)
)

var (
	// the port IO functions are mocked by tests.
	portWriteFn = cpu.PortWriteByte
	portReadFn  = cpu.PortReadByte
)

// Port drives a 16550-compatible UART in polled mode. The kernel mirrors
// its console output here so it is visible on the QEMU serial backend and
// capturable by the host-side serial monitor.
type Port struct {
	base uint16
}

// Init programs the UART at base for 115200 8n1 operation with interrupts
// masked.
func (p *Port) Init(base uint16) {
	p.base = base

	portWriteFn(base+regInterruptEnable, 0)
	portWriteFn(base+regLineControl, lineControlDLAB)
	portWriteFn(base+regData, baudDivisorLow)
	portWriteFn(base+regInterruptEnable, baudDivisorHigh)
	portWriteFn(base+regLineControl, lineControl8n1)
	portWriteFn(base+regFifoControl, fifoEnableClear14)
	portWriteFn(base+regModemControl, modemDtrRtsOut2)
}

// WriteByte implements io.ByteWriter, spinning until the transmit holding
// register drains.
func (p *Port) WriteByte(b byte) error {
	for portReadFn(p.base+regLineStatus)&lineStatusTxEmpty == 0 {
	}
	portWriteFn(p.base+regData, b)
	return nil
}

// Write implements io.Writer. LF is expanded to CRLF so the stream renders
// correctly on a raw terminal.
func (p *Port) Write(data []byte) (int, error) {
	for _, b := range data {
		if b == '\n' {
			p.WriteByte('\r')
		}
		p.WriteByte(b)
	}

	return len(data), nil
}
