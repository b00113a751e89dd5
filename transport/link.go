// Package transport provides reference adapters from a physical byte
// stream (I²C, UART) to the nci.Link contract of §6. It is example
// wiring, not part of the in-scope core: the core only needs nci.Link,
// never this package.
//
// Fragmentation/reassembly (SAR) is explicitly out of scope for this
// repository (spec.md §1 Non-goals), so the framing here handles exactly
// one control packet per transaction: every Send and every delivered
// packet must already fit NCI's single-packet length field (255 bytes of
// payload). A real SAR layer belongs below this package in a production
// stack.
package transport

import (
	"errors"
	"fmt"

	"github.com/seedhammer/ncicore/nci"
)

// NCI message-type values, [NFCForum-TS-NCI-1.0] §3.1, carried in the top
// three bits of a control packet's first byte.
const (
	MTData         byte = 0x00 << 5
	MTCommand      byte = 0x01 << 5
	MTResponse     byte = 0x02 << 5
	MTNotification byte = 0x03 << 5

	mtMask  byte = 0x07 << 5
	gidMask byte = 0x0f
	oidMask byte = 0x3f
)

// ErrShortPacket is returned by Parse when a buffer is too short to hold a
// complete header, or the declared payload length, per [NFCForum-TS-NCI-1.0] §3.2.
var ErrShortPacket = errors.New("transport: short NCI packet")

// HeaderLen is the fixed 3-byte control-packet header size.
const HeaderLen = 3

// Frame builds a single, unfragmented NCI control packet: a 3-byte header
// (message type, GID, OID, payload length) followed by payload.
func Frame(mt, gid, oid byte, payload []byte) []byte {
	pkt := make([]byte, HeaderLen+len(payload))
	pkt[0] = mt | (gid & gidMask)
	pkt[1] = oid & oidMask
	pkt[2] = byte(len(payload))
	copy(pkt[HeaderLen:], payload)
	return pkt
}

// ParseHeader decodes a packet's 3-byte header, returning the payload
// length it declares. Callers read exactly that many more bytes before
// calling Parse on the full buffer.
func ParseHeader(hdr []byte) (mt, gid, oid byte, payloadLen int, err error) {
	if len(hdr) < HeaderLen {
		return 0, 0, 0, 0, fmt.Errorf("transport: header: %w", ErrShortPacket)
	}
	mt = hdr[0] & mtMask
	gid = hdr[0] & gidMask
	oid = hdr[1] & oidMask
	payloadLen = int(hdr[2])
	return mt, gid, oid, payloadLen, nil
}

// Parse decodes a complete control packet (header plus payload already
// concatenated).
func Parse(pkt []byte) (mt, gid, oid byte, payload []byte, err error) {
	mt, gid, oid, payloadLen, err := ParseHeader(pkt)
	if err != nil {
		return 0, 0, 0, nil, err
	}
	if len(pkt)-HeaderLen < payloadLen {
		return 0, 0, 0, nil, fmt.Errorf("transport: payload: %w", ErrShortPacket)
	}
	return mt, gid, oid, pkt[HeaderLen : HeaderLen+payloadLen], nil
}

// PacketKind maps an NCI message type to the nci.PacketKind the engine
// expects at its Deliver entry point. Data packets have no place in the
// control plane this package frames and report ok=false.
func PacketKind(mt byte) (kind nci.PacketKind, ok bool) {
	switch mt {
	case MTResponse:
		return nci.PacketResponse, true
	case MTNotification:
		return nci.PacketNotification, true
	default:
		return 0, false
	}
}
