package nci

// stateListenSleep is LISTEN_SLEEP (§3): this device is in listen mode but
// not currently selected by a remote reader. It can be woken into
// LISTEN_ACTIVE by the NFCC, or returned to DISCOVERY by the NFCC ending
// the listen session. Any other activation or deactivation here (a
// malformed one, a poll-mode activation, a non-DISCOVERY deactivation)
// stalls the engine; other notifications are logged and dropped.
type stateListenSleep struct{ baseState }

func newStateListenSleep() state { return &stateListenSleep{baseState{id: StateListenSleep}} }

func (s *stateListenSleep) onNotification(sm *SM, gid, oid byte, payload []byte) {
	if gid == GIDRF {
		switch oid {
		case OIDRFIntfActivated:
			s.handleIntfActivated(sm, payload)
			return
		case OIDRFDeactivate:
			s.handleDeactivate(sm, payload)
			return
		}
	}
	s.baseState.onNotification(sm, gid, oid, payload)
}

func (s *stateListenSleep) handleIntfActivated(sm *SM, payload []byte) {
	ntf, modeParam, activationParam, err := ParseIntfActivatedNtf(payload)
	if err != nil {
		sm.logger.Printf("nci: listen_sleep: %v", err)
		sm.stall(StallError)
		return
	}
	if !ntf.Mode.IsListen() {
		sm.logger.Printf("nci: listen_sleep: unexpected activation mode %s", ntf.Mode)
		sm.stall(StallError)
		return
	}
	sm.intfActivated(ntf, modeParam, activationParam)
	sm.enterState(StateListenActive, nil)
}

func (s *stateListenSleep) handleDeactivate(sm *SM, payload []byte) {
	typ, reason, err := ParseDeactivateNtf(payload)
	if err != nil {
		sm.logger.Printf("nci: listen_sleep: %v", err)
		sm.stall(StallError)
		return
	}
	if typ != DeactivationTypeDiscovery {
		sm.logger.Printf("nci: listen_sleep: unexpected RF_DEACTIVATE_NTF %s (reason %d)", typ, reason)
		sm.stall(StallError)
		return
	}
	sm.enterState(StateDiscovery, nil)
}
