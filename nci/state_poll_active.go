package nci

// statePollActive is POLL_ACTIVE (§3): an endpoint selected from polling
// is active. It records (but does not itself act on) transmission,
// protocol, and timeout errors reported at the data-exchange layer, and
// leaves on RF_DEACTIVATE_NTF via the engine's shared handler.
type statePollActive struct{ baseState }

func newStatePollActive() state { return &statePollActive{baseState{id: StatePollActive}} }

func (s *statePollActive) onNotification(sm *SM, gid, oid byte, payload []byte) {
	switch gid {
	case GIDCore:
		if oid == OIDCoreInterfaceError {
			if swallowInterfaceError(sm, payload) {
				return
			}
		}
	case GIDRF:
		if oid == OIDRFDeactivate {
			sm.handleRFDeactivateNtf(payload)
			return
		}
	}
	s.baseState.onNotification(sm, gid, oid, payload)
}
