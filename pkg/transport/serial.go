package transport

import (
	"fmt"
	"time"

	"go.bug.st/serial"

	"github.com/marmos91/linkfs/internal/logger"
)

// serialReadTimeout bounds each read so a closed port is noticed.
const serialReadTimeout = 100 * time.Millisecond

// OpenSerial opens a serial device at baud, 8N1.
func OpenSerial(device string, baud int, name string) (serial.Port, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", device, err)
	}
	if err := port.SetReadTimeout(serialReadTimeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", device, err)
	}
	logger.Info("Serial link opened", logger.KeyLink, name, logger.KeyAddress, device, logger.KeyBaud, baud)
	return port, nil
}

// SerialBandwidth is the usable byte rate of a baud rate with 8N1 framing.
func SerialBandwidth(baud int) uint32 {
	if baud <= 0 {
		return 0
	}
	return uint32(baud / 10)
}
