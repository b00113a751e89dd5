package nci

import "sort"

// stateW4HostSelect is W4_HOST_SELECT (§3): the discovery round has
// closed and this package, acting as host, must pick one of the reported
// targets and issue RF_DISCOVER_SELECT_CMD for it.
type stateW4HostSelect struct{ baseState }

func newStateW4HostSelect() state { return &stateW4HostSelect{baseState{id: StateW4HostSelect}} }

func (s *stateW4HostSelect) onEnter(sm *SM, param Param)   { s.selectTarget(sm, param) }
func (s *stateW4HostSelect) onReenter(sm *SM, param Param) { s.selectTarget(sm, param) }

// selectTarget ranks the discoveries this package supports by the
// configured protocol preference order, breaking ties by discovery ID for
// a stable, deterministic choice (§8 "Selection stability"), and issues
// RF_DISCOVER_SELECT_CMD for the winner. A round with no supported
// protocol leaves the state idle, awaiting an external SwitchTo back to
// DISCOVERY.
func (s *stateW4HostSelect) selectTarget(sm *SM, param Param) {
	p, ok := param.(*W4HostSelectParam)
	if !ok || p == nil {
		return
	}
	var candidates []DiscoveryNtf
	for _, ntf := range p.Discoveries {
		if sm.supportsProtocol(ntf.Protocol) {
			candidates = append(candidates, ntf)
		}
	}
	if len(candidates) == 0 {
		sm.logger.Printf("nci: w4_host_select: no supported protocol among %d discoveries", len(p.Discoveries))
		return
	}

	order := sm.protocolOrder()
	rank := func(proto RFProtocol) int {
		for i, q := range order {
			if proto == q {
				return i
			}
		}
		return len(order)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		ri, rj := rank(candidates[i].Protocol), rank(candidates[j].Protocol)
		if ri != rj {
			return ri < rj
		}
		return candidates[i].DiscoveryID < candidates[j].DiscoveryID
	})

	best := candidates[0]
	iface := RFInterfaceFrame
	if best.Protocol == RFProtocolISODEP {
		iface = RFInterfaceISODEP
	}
	payload := SerializeDiscoverSelectCmd(best.DiscoveryID, best.Protocol, iface)
	sm.SendCommand(GIDRF, OIDRFDiscoverSelect, payload, func(status RequestStatus, resp []byte, _ any) {
		switch {
		case status != RequestSuccess:
			sm.logger.Printf("nci: RF_DISCOVER_SELECT_CMD: %s", status)
		case len(resp) < 1:
			sm.logger.Printf("nci: RF_DISCOVER_SELECT_RSP: %v", ErrTruncated)
		case resp[0] != StatusOK:
			sm.logger.Printf("nci: RF_DISCOVER_SELECT_RSP: status %#02x", resp[0])
		}
		// A rejected or timed-out select is logged, not retried against
		// the next-best candidate: the remaining discoveries in this
		// round are already gone by the time the response arrives.
	}, nil)
}

func (s *stateW4HostSelect) onNotification(sm *SM, gid, oid byte, payload []byte) {
	switch gid {
	case GIDCore:
		if oid == OIDCoreGenericError {
			if swallowGenericError(sm, payload, GenericErrorTargetActivationFailed) {
				return
			}
		}
	case GIDRF:
		if oid == OIDRFIntfActivated {
			handleIntfActivatedNtf(sm, payload)
			return
		}
	}
	s.baseState.onNotification(sm, gid, oid, payload)
}
