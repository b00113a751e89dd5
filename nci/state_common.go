package nci

// swallowGenericError parses payload as CORE_GENERIC_ERROR_NTF and, if its
// status is one of accepted, logs it and reports true so the caller can
// stop processing the notification. A parse failure or an unlisted status
// reports false, leaving the notification unhandled (§4.3: DISCOVERY
// absorbs both TARGET_ACTIVATION_FAILED and TEAR_DOWN; W4_HOST_SELECT
// absorbs only TARGET_ACTIVATION_FAILED).
func swallowGenericError(sm *SM, payload []byte, accepted ...GenericErrorStatus) bool {
	status, err := ParseGenericErrorNtf(payload)
	if err != nil {
		return false
	}
	for _, a := range accepted {
		if status == a {
			sm.logger.Printf("nci: CORE_GENERIC_ERROR_NTF (%s)", status)
			return true
		}
	}
	return false
}

// swallowInterfaceError parses payload as CORE_INTERFACE_ERROR_NTF and
// logs it unconditionally; the protocol layer above decides whether a
// transmission, protocol, or timeout error is itself fatal, so the RF
// state machine only records it (§4.3 "POLL_ACTIVE").
func swallowInterfaceError(sm *SM, payload []byte) bool {
	status, connID, err := ParseInterfaceErrorNtf(payload)
	if err != nil {
		return false
	}
	sm.logger.Printf("nci: CORE_INTERFACE_ERROR_NTF (%s) conn=%d", status, connID)
	return true
}

// handleIntfActivatedNtf is RF_INTF_ACTIVATED_NTF handling shared between
// DISCOVERY and W4_HOST_SELECT (§4.3): both states activate identically,
// publishing the activation and requesting a transition to POLL_ACTIVE. A
// malformed notification cannot be recovered locally — the NFCC believes a
// target is active regardless of whether this package could decode the
// notice that said so — so it takes the documented recovery path instead
// (§9): force the local model to POLL_ACTIVE, then round-trip back to
// DISCOVERY.
func handleIntfActivatedNtf(sm *SM, payload []byte) {
	ntf, modeParam, activationParam, err := ParseIntfActivatedNtf(payload)
	if err != nil {
		sm.logger.Printf("nci: intf activated ntf: %v", err)
		sm.enterState(StatePollActive, nil)
		sm.SwitchTo(StateDiscovery)
		return
	}
	sm.intfActivated(ntf, modeParam, activationParam)
	sm.enterState(StatePollActive, nil)
}
