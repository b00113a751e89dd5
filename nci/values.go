package nci

import "fmt"

// Group identifiers (GID) of NCI control packets in scope.
const (
	GIDCore = 0x0
	GIDRF   = 0x1
)

// Opcode identifiers (OID), scoped to GIDCore and GIDRF.
const (
	OIDCoreGenericError   = 0x7
	OIDCoreInterfaceError = 0x8

	OIDRFDiscover       = 0x3
	OIDRFDiscoverSelect = 0x4
	OIDRFIntfActivated  = 0x5
	OIDRFDeactivate     = 0x6
)

// RFProtocol identifies a remote endpoint's RF protocol, as carried by
// RF_DISCOVER_NTF and RF_INTF_ACTIVATED_NTF.
type RFProtocol byte

// RF protocol assignments from [NFCForum-TS-NCI-1.0] table 49. Only the
// subset needed for T2T/ISO-DEP poll mode (plus NFC-DEP) is named; any
// other byte is kept as-is and reports Unknown.
const (
	RFProtocolUnknown RFProtocol = 0x00
	RFProtocolT2T     RFProtocol = 0x02
	RFProtocolISODEP  RFProtocol = 0x04
	RFProtocolNFCDEP  RFProtocol = 0x05
)

func (p RFProtocol) String() string {
	switch p {
	case RFProtocolT2T:
		return "T2T"
	case RFProtocolISODEP:
		return "ISO_DEP"
	case RFProtocolNFCDEP:
		return "NFC_DEP"
	default:
		return fmt.Sprintf("RFProtocol(%#02x)", byte(p))
	}
}

// Unknown reports whether p is a value this package has no specific
// encoding for. Unknown protocols are never rejected by the codec (§9,
// "Unknown enum values"); they simply never participate in W4_HOST_SELECT
// selection unless the caller declares them supported.
func (p RFProtocol) Unknown() bool {
	switch p {
	case RFProtocolT2T, RFProtocolISODEP, RFProtocolNFCDEP:
		return false
	default:
		return true
	}
}

// RFInterface identifies the RF interface used to exchange data with an
// activated remote endpoint.
type RFInterface byte

const (
	RFInterfaceFrame  RFInterface = 0x01
	RFInterfaceISODEP RFInterface = 0x02
	RFInterfaceNFCDEP RFInterface = 0x03
)

func (i RFInterface) String() string {
	switch i {
	case RFInterfaceFrame:
		return "FRAME"
	case RFInterfaceISODEP:
		return "ISO_DEP"
	case RFInterfaceNFCDEP:
		return "NFC_DEP"
	default:
		return fmt.Sprintf("RFInterface(%#02x)", byte(i))
	}
}

func (i RFInterface) Unknown() bool {
	switch i {
	case RFInterfaceFrame, RFInterfaceISODEP, RFInterfaceNFCDEP:
		return false
	default:
		return true
	}
}

// RFMode identifies the RF technology and poll/listen direction of an
// activation or discovery, per [NFCForum-TS-NCI-1.0] table 48.
type RFMode byte

const (
	RFModePollA   RFMode = 0x00
	RFModePollB   RFMode = 0x01
	RFModePollF   RFMode = 0x02
	RFModePollV   RFMode = 0x06
	RFModeListenA RFMode = 0x80
	RFModeListenB RFMode = 0x81
	RFModeListenF RFMode = 0x82
)

func (m RFMode) String() string {
	switch m {
	case RFModePollA:
		return "POLL_A"
	case RFModePollB:
		return "POLL_B"
	case RFModePollF:
		return "POLL_F"
	case RFModePollV:
		return "POLL_V"
	case RFModeListenA:
		return "LISTEN_A"
	case RFModeListenB:
		return "LISTEN_B"
	case RFModeListenF:
		return "LISTEN_F"
	default:
		return fmt.Sprintf("RFMode(%#02x)", byte(m))
	}
}

// IsListen reports whether m is one of the listen-mode technologies. The
// high bit distinguishes listen from poll modes in the NCI 1.0 assignment.
func (m RFMode) IsListen() bool {
	return m&0x80 != 0
}

func (m RFMode) Unknown() bool {
	switch m {
	case RFModePollA, RFModePollB, RFModePollF, RFModePollV,
		RFModeListenA, RFModeListenB, RFModeListenF:
		return false
	default:
		return true
	}
}

// DeactivationType is carried by RF_DEACTIVATE_NTF and RF_DEACTIVATE_CMD.
type DeactivationType byte

const (
	DeactivationTypeIdle      DeactivationType = 0x00
	DeactivationTypeSleep     DeactivationType = 0x01
	DeactivationTypeSleepAF   DeactivationType = 0x02
	DeactivationTypeDiscovery DeactivationType = 0x03
)

func (t DeactivationType) String() string {
	switch t {
	case DeactivationTypeIdle:
		return "IDLE"
	case DeactivationTypeSleep:
		return "SLEEP"
	case DeactivationTypeSleepAF:
		return "SLEEP_AF"
	case DeactivationTypeDiscovery:
		return "DISCOVERY"
	default:
		return fmt.Sprintf("DeactivationType(%#02x)", byte(t))
	}
}

// GenericErrorStatus is the status byte of CORE_GENERIC_ERROR_NTF.
type GenericErrorStatus byte

const (
	GenericErrorTargetActivationFailed GenericErrorStatus = 0x05
	GenericErrorTearDown               GenericErrorStatus = 0x06
)

func (s GenericErrorStatus) String() string {
	switch s {
	case GenericErrorTargetActivationFailed:
		return "DISCOVERY_TARGET_ACTIVATION_FAILED"
	case GenericErrorTearDown:
		return "DISCOVERY_TEAR_DOWN"
	default:
		return fmt.Sprintf("GenericErrorStatus(%#02x)", byte(s))
	}
}

// InterfaceErrorStatus is the status byte of CORE_INTERFACE_ERROR_NTF.
type InterfaceErrorStatus byte

const (
	InterfaceErrorTransmission InterfaceErrorStatus = 0x01
	InterfaceErrorProtocol     InterfaceErrorStatus = 0x02
	InterfaceErrorTimeout      InterfaceErrorStatus = 0x03
)

func (s InterfaceErrorStatus) String() string {
	switch s {
	case InterfaceErrorTransmission:
		return "RF_TRANSMISSION_ERROR"
	case InterfaceErrorProtocol:
		return "RF_PROTOCOL_ERROR"
	case InterfaceErrorTimeout:
		return "RF_TIMEOUT_ERROR"
	default:
		return fmt.Sprintf("InterfaceErrorStatus(%#02x)", byte(s))
	}
}

// StallReason explains why the engine froze (§4.4 stall).
type StallReason int

const (
	StallError StallReason = iota
)

func (r StallReason) String() string {
	switch r {
	case StallError:
		return "ERROR"
	default:
		return fmt.Sprintf("StallReason(%d)", int(r))
	}
}

// RequestStatus is the outcome delivered to a command's response callback
// (§4.4 "Response correlation", §5 "Cancellation").
type RequestStatus int

const (
	RequestSuccess RequestStatus = iota
	RequestTimeout
	RequestCancelled
	RequestTransportError
)

func (s RequestStatus) String() string {
	switch s {
	case RequestSuccess:
		return "success"
	case RequestTimeout:
		return "timeout"
	case RequestCancelled:
		return "cancelled"
	case RequestTransportError:
		return "transport error"
	default:
		return fmt.Sprintf("RequestStatus(%d)", int(s))
	}
}
