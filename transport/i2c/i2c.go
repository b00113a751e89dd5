// Package i2c implements an nci.Link over an I²C-attached NCI-native
// front end (the PN7150/PN7160 family), the desktop/Linux counterpart of
// driver/clrc663's TinyGo machine.I2C wiring: one bus transaction per
// outgoing packet and two (header, then payload) per inbound packet,
// framed through transport.Frame/ParseHeader.
package i2c

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"

	"github.com/seedhammer/ncicore/nci"
	"github.com/seedhammer/ncicore/transport"
)

// Device drives an NCI control-packet link over I²C. It implements
// nci.Link directly; pair it with (*Device).Run to pump inbound packets
// into an (*nci.SM).Deliver callback.
type Device struct {
	dev i2c.Dev
	irq gpio.PinIO
}

// New returns a Device addressing the NFCC at addr on bus. irq is the
// controller's interrupt/data-ready line; pass nil to poll instead.
func New(bus i2c.Bus, addr uint16, irq gpio.PinIO) *Device {
	return &Device{
		dev: i2c.Dev{Bus: bus, Addr: addr},
		irq: irq,
	}
}

// Send implements nci.Link: it frames gid/oid/payload as a single command
// packet and writes it in one I²C transaction.
func (d *Device) Send(gid, oid byte, payload []byte) error {
	pkt := transport.Frame(transport.MTCommand, gid, oid, payload)
	if err := d.dev.Tx(pkt, nil); err != nil {
		return fmt.Errorf("i2c: send gid=%#x oid=%#x: %w", gid, oid, err)
	}
	return nil
}

// Deliver is the callback signature (*nci.SM).Deliver satisfies, so Run
// can be handed sm.Deliver directly.
type Deliver func(kind nci.PacketKind, gid, oid byte, payload []byte)

// Run blocks, reading one control packet at a time and handing it to
// deliver, until stop is closed or a read fails. Each packet is read in
// two I²C transactions: a fixed 3-byte header, then exactly the payload
// length it declares — the two-phase read PN7150-class controllers
// expect, and the only shape this package's single-packet framing needs.
func (d *Device) Run(stop <-chan struct{}, deliver Deliver) error {
	for {
		select {
		case <-stop:
			return nil
		default:
		}
		if d.irq != nil {
			if !d.irq.WaitForEdge(-1) {
				continue
			}
		}
		if err := d.readOne(deliver); err != nil {
			return err
		}
	}
}

func (d *Device) readOne(deliver Deliver) error {
	var hdr [transport.HeaderLen]byte
	if err := d.dev.Tx(nil, hdr[:]); err != nil {
		return fmt.Errorf("i2c: read header: %w", err)
	}
	mt, gid, oid, payloadLen, err := transport.ParseHeader(hdr[:])
	if err != nil {
		return fmt.Errorf("i2c: %w", err)
	}
	payload := make([]byte, payloadLen)
	if payloadLen > 0 {
		if err := d.dev.Tx(nil, payload); err != nil {
			return fmt.Errorf("i2c: read payload: %w", err)
		}
	}
	kind, ok := transport.PacketKind(mt)
	if !ok {
		return fmt.Errorf("i2c: unexpected message type %#x", mt)
	}
	deliver(kind, gid, oid, payload)
	return nil
}
