// Package serial is the byte-level device transport used by the monitor.
//
// It wraps go.bug.st/serial with the handful of operations an ESP console
// needs: open at a baud rate, bounded-timeout reads, and the DTR/RTS lines
// that drive the chip's EN/IO0 auto-reset circuit.
//
// Reads return (0, nil) when the read timeout expires. IsTimeout classifies
// the errors some platforms return instead (EAGAIN, EINTR, deadline
// exceeded) so callers can treat them as "no data yet".
//
// Example usage:
//
//	port, err := serial.Open(serial.Config{
//	    Device:   "/dev/ttyUSB0",
//	    BaudRate: 115200,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
package serial
