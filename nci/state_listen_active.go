package nci

// stateListenActive is LISTEN_ACTIVE (§3): a remote reader has activated
// this device in listen mode. Like POLL_ACTIVE it hands RF_DEACTIVATE_NTF
// to the engine's shared handler, which maps SLEEP/SLEEP_AF to
// LISTEN_SLEEP on the listen side; LISTEN_SLEEP itself handles
// RF_DEACTIVATE_NTF on its own. Every other notification is logged and
// dropped.
type stateListenActive struct{ baseState }

func newStateListenActive() state { return &stateListenActive{baseState{id: StateListenActive}} }

func (s *stateListenActive) onNotification(sm *SM, gid, oid byte, payload []byte) {
	if gid == GIDRF && oid == OIDRFDeactivate {
		sm.handleRFDeactivateNtf(payload)
		return
	}
	s.baseState.onNotification(sm, gid, oid, payload)
}
