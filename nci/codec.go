package nci

import (
	"errors"
	"fmt"
)

// ErrTruncated is returned by the parse functions when a payload is too
// short to contain its fixed-width fields, and by the fixed-size error
// notification parsers when a payload is not exactly the expected length.
var ErrTruncated = errors.New("nci: truncated packet")

// ModeParam carries the opaque, mode-specific parameter bytes of a
// discovery or activation notification. The bytes are retained verbatim;
// this package does not interpret them beyond length.
type ModeParam struct {
	Bytes []byte
}

// ActivationParam carries the opaque, interface-specific trailing bytes of
// RF_INTF_ACTIVATED_NTF.
type ActivationParam struct {
	Bytes []byte
}

// DiscoveryNtf is the parsed representation of RF_DISCOVER_NTF
// (GID=NCI_GID_RF, OID=RF_DISCOVER), [NFCForum-TS-NCI-1.0] table 52.
type DiscoveryNtf struct {
	DiscoveryID byte
	Protocol    RFProtocol
	Mode        RFMode
	// Last is true when NotificationType != 2 ("not last notification").
	Last bool
}

// Copy returns an independent copy of ntf, safe to retain past the
// current dispatch (§3, "copied into owned storage when retained").
func (ntf DiscoveryNtf) Copy() DiscoveryNtf {
	return ntf
}

// ParseDiscoverNtf parses an RF_DISCOVER_NTF payload.
//
//	+========+======+=================================+
//	| Offset | Size | Field                            |
//	+========+======+=================================+
//	| 0      | 1    | RF Discovery ID                  |
//	| 1      | 1    | RF Protocol                      |
//	| 2      | 1    | RF Technology and Mode            |
//	| 3      | 1    | RF Technology Specific Parameters Length |
//	| 4      | n    | RF Technology Specific Parameters |
//	| 4+n    | 1    | Notification Type                |
//	+========+======+=================================+
func ParseDiscoverNtf(b []byte) (DiscoveryNtf, ModeParam, error) {
	if len(b) < 4 {
		return DiscoveryNtf{}, ModeParam{}, fmt.Errorf("nci: discover ntf: %w", ErrTruncated)
	}
	discoveryID, protocol, mode, paramLen := b[0], b[1], b[2], int(b[3])
	b = b[4:]
	if len(b) < paramLen+1 {
		return DiscoveryNtf{}, ModeParam{}, fmt.Errorf("nci: discover ntf: %w", ErrTruncated)
	}
	param := append([]byte(nil), b[:paramLen]...)
	notifType := b[paramLen]
	ntf := DiscoveryNtf{
		DiscoveryID: discoveryID,
		Protocol:    RFProtocol(protocol),
		Mode:        RFMode(mode),
		Last:        notifType != 2,
	}
	return ntf, ModeParam{Bytes: param}, nil
}

// SerializeDiscoverNtf builds an RF_DISCOVER_NTF payload from the fields
// ParseDiscoverNtf extracts, for round-trip testing (§8 "Round-trip").
// ntf.Last == false is serialized as Notification Type 2, "more
// notifications to follow"; every other value, including 1, parses back
// as Last == true, so 2 is the only value round trips exactly.
func SerializeDiscoverNtf(ntf DiscoveryNtf, mode ModeParam) []byte {
	notifType := byte(0)
	if !ntf.Last {
		notifType = 2
	}
	b := make([]byte, 0, 4+len(mode.Bytes)+1)
	b = append(b, ntf.DiscoveryID, byte(ntf.Protocol), byte(ntf.Mode), byte(len(mode.Bytes)))
	b = append(b, mode.Bytes...)
	b = append(b, notifType)
	return b
}

// IntfActivationNtf is the parsed representation of
// RF_INTF_ACTIVATED_NTF (GID=NCI_GID_RF, OID=RF_INTF_ACTIVATED),
// [NFCForum-TS-NCI-1.0] table 56.
type IntfActivationNtf struct {
	DiscoveryID        byte
	Interface          RFInterface
	Protocol           RFProtocol
	Mode               RFMode
	MaxDataSize        byte
	InitCredits        byte
	DataExchangeTxRate byte
	DataExchangeRxRate byte
}

// ParseIntfActivatedNtf parses an RF_INTF_ACTIVATED_NTF payload.
//
//	+========+======+========================================+
//	| Offset | Size | Field                                  |
//	+========+======+========================================+
//	| 0      | 1    | RF Discovery ID                        |
//	| 1      | 1    | RF Interface                           |
//	| 2      | 1    | RF Protocol                            |
//	| 3      | 1    | Activation RF Technology and Mode       |
//	| 4      | 1    | Max Data Packet Payload Size             |
//	| 5      | 1    | Initial Number of Credits                |
//	| 6      | 1    | RF Technology Specific Parameters Length |
//	| 7      | n    | RF Technology Specific Parameters         |
//	| 7+n    | 1    | Data Exchange RF Technology and Mode      |
//	| 8+n    | 1    | Data Exchange Transmit Bit Rate           |
//	| 9+n    | 1    | Data Exchange Receive Bit Rate            |
//	| 10+n   | 1    | Activation Parameters Length               |
//	| 11+n   | m    | Activation Parameters                      |
//	+========+======+========================================+
func ParseIntfActivatedNtf(b []byte) (IntfActivationNtf, ModeParam, ActivationParam, error) {
	const headerLen = 7
	if len(b) < headerLen {
		return IntfActivationNtf{}, ModeParam{}, ActivationParam{}, fmt.Errorf("nci: intf activated ntf: %w", ErrTruncated)
	}
	discoveryID := b[0]
	iface := b[1]
	protocol := b[2]
	mode := b[3]
	maxDataSize := b[4]
	initCredits := b[5]
	modeParamLen := int(b[6])
	b = b[headerLen:]
	if len(b) < modeParamLen+3 {
		return IntfActivationNtf{}, ModeParam{}, ActivationParam{}, fmt.Errorf("nci: intf activated ntf: %w", ErrTruncated)
	}
	modeParam := append([]byte(nil), b[:modeParamLen]...)
	b = b[modeParamLen:]
	// Data Exchange RF Technology and Mode is not separately surfaced: the
	// activation's own Mode field already carries the technology, and no
	// in-scope state consumes the data-exchange mode byte independently.
	txRate := b[1]
	rxRate := b[2]
	b = b[3:]
	if len(b) < 1 {
		return IntfActivationNtf{}, ModeParam{}, ActivationParam{}, fmt.Errorf("nci: intf activated ntf: %w", ErrTruncated)
	}
	activationParamLen := int(b[0])
	b = b[1:]
	if len(b) < activationParamLen {
		return IntfActivationNtf{}, ModeParam{}, ActivationParam{}, fmt.Errorf("nci: intf activated ntf: %w", ErrTruncated)
	}
	activationParam := append([]byte(nil), b[:activationParamLen]...)
	ntf := IntfActivationNtf{
		DiscoveryID:        discoveryID,
		Interface:          RFInterface(iface),
		Protocol:           RFProtocol(protocol),
		Mode:               RFMode(mode),
		MaxDataSize:        maxDataSize,
		InitCredits:        initCredits,
		DataExchangeTxRate: txRate,
		DataExchangeRxRate: rxRate,
	}
	return ntf, ModeParam{Bytes: modeParam}, ActivationParam{Bytes: activationParam}, nil
}

// ParseDeactivateNtf parses an RF_DEACTIVATE_NTF payload.
//
//	+========+======+======================+
//	| Offset | Size | Field                |
//	+========+======+======================+
//	| 0      | 1    | Deactivation Type     |
//	| 1      | 1    | Deactivation Reason   |
//	+========+======+======================+
func ParseDeactivateNtf(b []byte) (DeactivationType, byte, error) {
	if len(b) < 2 {
		return 0, 0, fmt.Errorf("nci: deactivate ntf: %w", ErrTruncated)
	}
	return DeactivationType(b[0]), b[1], nil
}

// ParseGenericErrorNtf parses a CORE_GENERIC_ERROR_NTF payload.
//
//	+========+======+==========+
//	| Offset | Size | Field    |
//	+========+======+==========+
//	| 0      | 1    | Status   |
//	+========+======+==========+
func ParseGenericErrorNtf(b []byte) (GenericErrorStatus, error) {
	if len(b) != 1 {
		return 0, fmt.Errorf("nci: generic error ntf: %w", ErrTruncated)
	}
	return GenericErrorStatus(b[0]), nil
}

// ParseInterfaceErrorNtf parses a CORE_INTERFACE_ERROR_NTF payload.
//
//	+========+======+==========+
//	| Offset | Size | Field    |
//	+========+======+==========+
//	| 0      | 1    | Status   |
//	| 1      | 1    | Conn ID  |
//	+========+======+==========+
func ParseInterfaceErrorNtf(b []byte) (InterfaceErrorStatus, byte, error) {
	if len(b) != 2 {
		return 0, 0, fmt.Errorf("nci: interface error ntf: %w", ErrTruncated)
	}
	return InterfaceErrorStatus(b[0]), b[1], nil
}

// SerializeDiscoverSelectCmd builds the 3-byte RF_DISCOVER_SELECT_CMD
// payload.
//
//	+========+======+================+
//	| Offset | Size | Field          |
//	+========+======+================+
//	| 0      | 1    | RF Discovery ID |
//	| 1      | 1    | RF Protocol     |
//	| 2      | 1    | RF Interface    |
//	+========+======+================+
func SerializeDiscoverSelectCmd(discoveryID byte, protocol RFProtocol, iface RFInterface) []byte {
	return []byte{discoveryID, byte(protocol), byte(iface)}
}

// SerializeDeactivateCmd builds the 1-byte RF_DEACTIVATE_CMD payload.
func SerializeDeactivateCmd(t DeactivationType) []byte {
	return []byte{byte(t)}
}

// StatusOK is the wire-level NCI_STATUS_OK value carried in the first byte
// of a command's response payload. It is distinct from RequestStatus, which
// reflects the transport-level outcome of the request/response round trip
// rather than the NFCC's own status code.
const StatusOK byte = 0x00
