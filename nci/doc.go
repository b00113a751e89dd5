// Package nci implements the Device Host (DH) side of the RF discovery
// and activation state machine described by the NFC Forum NCI 1.0
// specification, §5.2. It parses the subset of NCI control packets needed
// to drive poll-mode tag discovery (T2T, ISO-DEP) and listen-mode sleep,
// demultiplexes notifications to the current RF state, and correlates
// outgoing commands with their responses.
//
// The package does not implement segmentation and reassembly, transport
// (I²C/UART/USB), or application-level tag I/O. Callers deliver already
// reassembled control packets via (*SM).Deliver and send raw control
// packets through the Link they supply to New.
package nci
