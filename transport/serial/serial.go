// Package serial implements an nci.Link over a UART-attached NCI-native
// front end, opened through github.com/tarm/serial the way mjolnir.Open
// opens its engraving-machine port: a single serial.Config, one
// serial.Port, no reconnect logic.
package serial

import (
	"fmt"
	"io"

	"github.com/tarm/serial"

	"github.com/seedhammer/ncicore/nci"
	"github.com/seedhammer/ncicore/transport"
)

// Port drives an NCI control-packet link over a byte stream. It implements
// nci.Link directly; pair it with (*Port).Run to pump inbound packets into
// an (*nci.SM).Deliver callback.
type Port struct {
	rw io.ReadWriteCloser
}

// Open opens dev at baud and wraps it as a Port.
func Open(dev string, baud int) (*Port, error) {
	s, err := serial.OpenPort(&serial.Config{Name: dev, Baud: baud})
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", dev, err)
	}
	return New(s), nil
}

// New wraps an already-open stream as a Port, for tests and non-tarm
// transports sharing the same framing (e.g. an in-memory pipe).
func New(rw io.ReadWriteCloser) *Port {
	return &Port{rw: rw}
}

// Close closes the underlying stream.
func (p *Port) Close() error { return p.rw.Close() }

// Send implements nci.Link.
func (p *Port) Send(gid, oid byte, payload []byte) error {
	pkt := transport.Frame(transport.MTCommand, gid, oid, payload)
	if _, err := p.rw.Write(pkt); err != nil {
		return fmt.Errorf("serial: send gid=%#x oid=%#x: %w", gid, oid, err)
	}
	return nil
}

// Deliver is the callback signature (*nci.SM).Deliver satisfies.
type Deliver func(kind nci.PacketKind, gid, oid byte, payload []byte)

// Run blocks, reading one control packet at a time from the stream and
// handing it to deliver, until a read fails (typically because Close was
// called from another goroutine).
func (p *Port) Run(deliver Deliver) error {
	for {
		if err := p.readOne(deliver); err != nil {
			return err
		}
	}
}

func (p *Port) readOne(deliver Deliver) error {
	var hdr [transport.HeaderLen]byte
	if _, err := io.ReadFull(p.rw, hdr[:]); err != nil {
		return fmt.Errorf("serial: read header: %w", err)
	}
	mt, gid, oid, payloadLen, err := transport.ParseHeader(hdr[:])
	if err != nil {
		return fmt.Errorf("serial: %w", err)
	}
	payload := make([]byte, payloadLen)
	if payloadLen > 0 {
		if _, err := io.ReadFull(p.rw, payload); err != nil {
			return fmt.Errorf("serial: read payload: %w", err)
		}
	}
	kind, ok := transport.PacketKind(mt)
	if !ok {
		return fmt.Errorf("serial: unexpected message type %#x", mt)
	}
	deliver(kind, gid, oid, payload)
	return nil
}
