package nci

// stateDiscovery is DISCOVERY (§3): the NFCC is actively polling and/or
// listening for remote endpoints, none yet seen. It absorbs generic
// discovery failures, starts accumulating a multi-technology discovery
// round on the first RF_DISCOVER_NTF, and activates directly on
// RF_INTF_ACTIVATED_NTF when exactly one technology responds.
type stateDiscovery struct{ baseState }

func newStateDiscovery() state { return &stateDiscovery{baseState{id: StateDiscovery}} }

func (s *stateDiscovery) onNotification(sm *SM, gid, oid byte, payload []byte) {
	switch gid {
	case GIDCore:
		if oid == OIDCoreGenericError {
			if swallowGenericError(sm, payload, GenericErrorTargetActivationFailed, GenericErrorTearDown) {
				return
			}
		}
	case GIDRF:
		switch oid {
		case OIDRFDiscover:
			s.handleDiscoverNtf(sm, payload)
			return
		case OIDRFIntfActivated:
			handleIntfActivatedNtf(sm, payload)
			return
		case OIDRFDeactivate:
			sm.handleRFDeactivateNtf(payload)
			return
		}
	}
	s.baseState.onNotification(sm, gid, oid, payload)
}

// handleDiscoverNtf starts accumulating a discovery round. Only the first
// notification is DISCOVERY's concern; once it transitions to
// W4_ALL_DISCOVERIES, that state's own handler takes over accumulating any
// further RF_DISCOVER_NTF belonging to the same round.
func (s *stateDiscovery) handleDiscoverNtf(sm *SM, payload []byte) {
	ntf, _, err := ParseDiscoverNtf(payload)
	if err != nil {
		sm.logger.Printf("nci: discovery: %v", err)
		return
	}
	sm.enterState(StateW4AllDiscoveries, NewW4AllDiscoveriesParam(ntf))
}
