package nci

// stateW4AllDiscoveries is W4_ALL_DISCOVERIES (§3): the NFCC is still
// reporting additional technologies seen in the current discovery round.
// The state owns the accumulating sequence of RF_DISCOVER_NTF directly
// (rather than through the engine's generic Param storage), cleared on
// every entry and released on leave — its lifetime is exactly one visit.
type stateW4AllDiscoveries struct {
	baseState
	discoveries []DiscoveryNtf
}

func newStateW4AllDiscoveries() state {
	return &stateW4AllDiscoveries{baseState: baseState{id: StateW4AllDiscoveries}}
}

func (s *stateW4AllDiscoveries) start(sm *SM, param Param) {
	s.discoveries = s.discoveries[:0]
	p, ok := param.(*W4AllDiscoveriesParam)
	if !ok || p == nil {
		return
	}
	s.discoveries = append(s.discoveries, p.Ntf)
	if p.Ntf.Last {
		s.advance(sm)
	}
}

func (s *stateW4AllDiscoveries) onEnter(sm *SM, param Param)   { s.start(sm, param) }
func (s *stateW4AllDiscoveries) onReenter(sm *SM, param Param) { s.start(sm, param) }
func (s *stateW4AllDiscoveries) onLeave(sm *SM)                { s.discoveries = nil }

func (s *stateW4AllDiscoveries) onNotification(sm *SM, gid, oid byte, payload []byte) {
	if gid == GIDRF && oid == OIDRFDiscover {
		ntf, _, err := ParseDiscoverNtf(payload)
		if err != nil {
			sm.logger.Printf("nci: w4_all_discoveries: %v", err)
			return
		}
		s.discoveries = append(s.discoveries, ntf)
		if ntf.Last {
			s.advance(sm)
		}
		return
	}
	s.baseState.onNotification(sm, gid, oid, payload)
}

// advance moves to W4_HOST_SELECT carrying the round's full discovery
// sequence, once an RF_DISCOVER_NTF with NotificationType != "more follow"
// closes the round (§3, §4.3).
func (s *stateW4AllDiscoveries) advance(sm *SM) {
	sm.enterState(StateW4HostSelect, NewW4HostSelectParam(s.discoveries))
}
