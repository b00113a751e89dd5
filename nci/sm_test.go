package nci

import (
	"sync"
	"testing"
	"time"
)

type sentPacket struct {
	gid, oid byte
	payload  []byte
}

type fakeLink struct {
	mu   sync.Mutex
	sent []sentPacket
	fail bool
}

func (f *fakeLink) Send(gid, oid byte, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errTransport
	}
	f.sent = append(f.sent, sentPacket{gid, oid, append([]byte(nil), payload...)})
	return nil
}

func (f *fakeLink) last() (sentPacket, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return sentPacket{}, false
	}
	return f.sent[len(f.sent)-1], true
}

func (f *fakeLink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

var errTransport = errTransportSentinel{}

type errTransportSentinel struct{}

func (errTransportSentinel) Error() string { return "fake link: send failed" }

func discoverNtf(id byte, proto RFProtocol, mode RFMode, last bool) []byte {
	notifType := byte(2)
	if last {
		notifType = 0
	}
	return []byte{id, byte(proto), byte(mode), 0, notifType}
}

func intfActivatedNtf(id byte, iface RFInterface, proto RFProtocol, mode RFMode) []byte {
	return []byte{
		id, byte(iface), byte(proto), byte(mode),
		0xFE, 0x01,
		0, // mode param len
		byte(mode), 0x01, 0x02,
		0, // activation param len
	}
}

func deactivateNtf(typ DeactivationType, reason byte) []byte {
	return []byte{byte(typ), reason}
}

func newTestSM(link Link, supported ...RFProtocol) *SM {
	return New(supported, WithLink(link), WithTimeout(50*time.Millisecond))
}

func TestInitEntersDiscovery(t *testing.T) {
	sm := newTestSM(&fakeLink{}, RFProtocolT2T)
	if sm.CurrentState() != StateIdle {
		t.Fatalf("expected IDLE before Init, got %s", sm.CurrentState())
	}
	sm.Init()
	if sm.CurrentState() != StateDiscovery {
		t.Fatalf("expected DISCOVERY after Init, got %s", sm.CurrentState())
	}
}

func TestSendCommandForbiddenInIdle(t *testing.T) {
	sm := newTestSM(&fakeLink{}, RFProtocolT2T)
	ok := sm.SendCommand(GIDRF, OIDRFDeactivate, nil, nil, nil)
	if ok {
		t.Fatalf("expected SendCommand to fail fast in IDLE")
	}
}

func TestSingleTechnologyDiscoveryAndActivation(t *testing.T) {
	link := &fakeLink{}
	sm := newTestSM(link, RFProtocolT2T)
	sm.Init()

	var activated bool
	sm.OnIntfActivated(func(ntf IntfActivationNtf, _ ModeParam, _ ActivationParam) {
		activated = true
		if ntf.Protocol != RFProtocolT2T {
			t.Fatalf("unexpected protocol: %s", ntf.Protocol)
		}
	})

	sm.Deliver(PacketNotification, GIDRF, OIDRFDiscover, discoverNtf(1, RFProtocolT2T, RFModePollA, true))
	if sm.CurrentState() != StateW4HostSelect {
		t.Fatalf("expected W4_HOST_SELECT, got %s", sm.CurrentState())
	}
	pkt, ok := link.last()
	if !ok || pkt.gid != GIDRF || pkt.oid != OIDRFDiscoverSelect {
		t.Fatalf("expected RF_DISCOVER_SELECT_CMD to be sent, got %+v", pkt)
	}
	if pkt.payload[0] != 1 {
		t.Fatalf("expected discovery id 1 selected, got %d", pkt.payload[0])
	}

	sm.Deliver(PacketResponse, GIDRF, OIDRFDiscoverSelect, []byte{StatusOK})

	sm.Deliver(PacketNotification, GIDRF, OIDRFIntfActivated,
		intfActivatedNtf(1, RFInterfaceFrame, RFProtocolT2T, RFModePollA))
	if sm.CurrentState() != StatePollActive {
		t.Fatalf("expected POLL_ACTIVE, got %s", sm.CurrentState())
	}
	if !activated {
		t.Fatalf("expected intf_activated observer to fire")
	}
}

func TestMultiTechnologyPreferenceOrderIsIndependentOfArrivalOrder(t *testing.T) {
	link := &fakeLink{}
	sm := newTestSM(link, RFProtocolT2T, RFProtocolISODEP)
	sm.Init()

	// ISO-DEP arrives first but T2T ranks ahead in the default preference
	// order, so the engine must still select the T2T target once the
	// round closes.
	sm.Deliver(PacketNotification, GIDRF, OIDRFDiscover, discoverNtf(2, RFProtocolISODEP, RFModePollA, false))
	if sm.CurrentState() != StateW4AllDiscoveries {
		t.Fatalf("expected W4_ALL_DISCOVERIES, got %s", sm.CurrentState())
	}
	sm.Deliver(PacketNotification, GIDRF, OIDRFDiscover, discoverNtf(1, RFProtocolT2T, RFModePollA, true))
	if sm.CurrentState() != StateW4HostSelect {
		t.Fatalf("expected W4_HOST_SELECT, got %s", sm.CurrentState())
	}

	pkt, ok := link.last()
	if !ok {
		t.Fatalf("expected a command to be sent")
	}
	if pkt.payload[0] != 1 || RFProtocol(pkt.payload[1]) != RFProtocolT2T {
		t.Fatalf("expected T2T discovery 1 to win selection, got %+v", pkt)
	}
}

func TestW4HostSelectWithNoSupportedProtocolSendsNothing(t *testing.T) {
	link := &fakeLink{}
	sm := newTestSM(link, RFProtocolT2T)
	sm.Init()

	sm.Deliver(PacketNotification, GIDRF, OIDRFDiscover, discoverNtf(1, RFProtocolNFCDEP, RFModePollF, true))
	if sm.CurrentState() != StateW4HostSelect {
		t.Fatalf("expected W4_HOST_SELECT, got %s", sm.CurrentState())
	}
	if n := link.count(); n != 0 {
		t.Fatalf("expected no command sent, got %d", n)
	}
}

func TestPollActiveDeactivateToDiscovery(t *testing.T) {
	link := &fakeLink{}
	sm := newTestSM(link, RFProtocolT2T)
	sm.Init()
	sm.Deliver(PacketNotification, GIDRF, OIDRFDiscover, discoverNtf(1, RFProtocolT2T, RFModePollA, true))
	sm.Deliver(PacketNotification, GIDRF, OIDRFIntfActivated,
		intfActivatedNtf(1, RFInterfaceFrame, RFProtocolT2T, RFModePollA))
	if sm.CurrentState() != StatePollActive {
		t.Fatalf("expected POLL_ACTIVE, got %s", sm.CurrentState())
	}

	sm.Deliver(PacketNotification, GIDRF, OIDRFDeactivate, deactivateNtf(DeactivationTypeDiscovery, 0))
	if sm.CurrentState() != StateDiscovery {
		t.Fatalf("expected DISCOVERY after deactivate, got %s", sm.CurrentState())
	}
}

func TestListenWakeSleepCycle(t *testing.T) {
	link := &fakeLink{}
	sm := newTestSM(link, RFProtocolT2T)
	sm.Init()

	// LISTEN_SLEEP is only reached by a host-driven SwitchTo (§4.4):
	// RF_INTF_ACTIVATED_NTF from DISCOVERY always requests POLL_ACTIVE,
	// per spec.md §4.3, regardless of activation mode.
	if !sm.SwitchTo(StateListenSleep) {
		t.Fatalf("expected SwitchTo(LISTEN_SLEEP) to be accepted")
	}
	sm.Deliver(PacketResponse, GIDRF, OIDRFDeactivate, []byte{StatusOK})
	if sm.CurrentState() != StateListenSleep {
		t.Fatalf("expected LISTEN_SLEEP, got %s", sm.CurrentState())
	}

	sm.Deliver(PacketNotification, GIDRF, OIDRFIntfActivated,
		intfActivatedNtf(3, RFInterfaceFrame, RFProtocolT2T, RFModeListenA))
	if sm.CurrentState() != StateListenActive {
		t.Fatalf("expected LISTEN_ACTIVE, got %s", sm.CurrentState())
	}

	sm.Deliver(PacketNotification, GIDRF, OIDRFDeactivate, deactivateNtf(DeactivationTypeSleep, 0))
	if sm.CurrentState() != StateListenSleep {
		t.Fatalf("expected LISTEN_SLEEP, got %s", sm.CurrentState())
	}

	sm.Deliver(PacketNotification, GIDRF, OIDRFIntfActivated,
		intfActivatedNtf(3, RFInterfaceFrame, RFProtocolT2T, RFModeListenA))
	if sm.CurrentState() != StateListenActive {
		t.Fatalf("expected LISTEN_ACTIVE after wake, got %s", sm.CurrentState())
	}

	sm.Deliver(PacketNotification, GIDRF, OIDRFDeactivate, deactivateNtf(DeactivationTypeDiscovery, 0))
	if sm.CurrentState() != StateDiscovery {
		t.Fatalf("expected DISCOVERY, got %s", sm.CurrentState())
	}
}

func TestGenericErrorSwallowedInDiscovery(t *testing.T) {
	link := &fakeLink{}
	sm := newTestSM(link, RFProtocolT2T)
	sm.Init()

	sm.Deliver(PacketNotification, GIDCore, OIDCoreGenericError, []byte{byte(GenericErrorTearDown)})
	if sm.CurrentState() != StateDiscovery {
		t.Fatalf("expected to remain in DISCOVERY, got %s", sm.CurrentState())
	}
	if stalled, _ := sm.Stalled(); stalled {
		t.Fatalf("generic error should not stall the engine")
	}
}

func TestMalformedIntfActivatedRecoversViaSwitchTo(t *testing.T) {
	link := &fakeLink{}
	sm := newTestSM(link, RFProtocolT2T)
	sm.Init()

	sm.Deliver(PacketNotification, GIDRF, OIDRFIntfActivated, []byte{0x01})
	if sm.CurrentState() != StatePollActive {
		t.Fatalf("expected recovery to force POLL_ACTIVE locally, got %s", sm.CurrentState())
	}
	pkt, ok := link.last()
	if !ok || pkt.gid != GIDRF || pkt.oid != OIDRFDeactivate {
		t.Fatalf("expected RF_DEACTIVATE_CMD to be sent for recovery, got %+v", pkt)
	}

	sm.Deliver(PacketResponse, GIDRF, OIDRFDeactivate, []byte{StatusOK})
	if sm.CurrentState() != StateDiscovery {
		t.Fatalf("expected DISCOVERY once the deactivate completes, got %s", sm.CurrentState())
	}
}

func TestCommandTimeoutInvokesCallbackOnce(t *testing.T) {
	link := &fakeLink{}
	sm := newTestSM(link, RFProtocolT2T)
	sm.Init()

	var calls int
	var mu sync.Mutex
	var status RequestStatus
	ok := sm.SendCommand(GIDRF, OIDRFDeactivate, SerializeDeactivateCmd(DeactivationTypeIdle),
		func(s RequestStatus, _ []byte, _ any) {
			mu.Lock()
			calls++
			status = s
			mu.Unlock()
		}, nil)
	if !ok {
		t.Fatalf("expected SendCommand to succeed")
	}

	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Fatalf("expected exactly one callback invocation, got %d", calls)
	}
	if status != RequestTimeout {
		t.Fatalf("expected timeout status, got %s", status)
	}
}

func TestCommandCancelledOnStateLeave(t *testing.T) {
	link := &fakeLink{}
	sm := newTestSM(link, RFProtocolT2T)
	sm.Init()

	done := make(chan RequestStatus, 1)
	sm.SendCommand(GIDRF, OIDRFDiscoverSelect, []byte{1, byte(RFProtocolT2T), byte(RFInterfaceFrame)},
		func(s RequestStatus, _ []byte, _ any) { done <- s }, nil)

	// Force the engine out of DISCOVERY before any response arrives; the
	// pending command originated in DISCOVERY and must be cancelled.
	sm.Deliver(PacketNotification, GIDRF, OIDRFDiscover, discoverNtf(1, RFProtocolT2T, RFModePollA, true))

	select {
	case s := <-done:
		if s != RequestCancelled {
			t.Fatalf("expected cancellation, got %s", s)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected cancellation callback to fire promptly")
	}
}

func TestQueuedCommandDispatchedAfterFirstCompletes(t *testing.T) {
	link := &fakeLink{}
	sm := newTestSM(link, RFProtocolT2T)
	sm.Init()

	var secondSent bool
	sm.SendCommand(GIDRF, OIDRFDeactivate, SerializeDeactivateCmd(DeactivationTypeIdle), nil, nil)
	sm.SendCommand(GIDRF, OIDRFDeactivate, SerializeDeactivateCmd(DeactivationTypeSleep),
		func(RequestStatus, []byte, any) { secondSent = true }, nil)

	if n := link.count(); n != 1 {
		t.Fatalf("expected only the first command on the wire, got %d", n)
	}

	sm.Deliver(PacketResponse, GIDRF, OIDRFDeactivate, []byte{StatusOK})

	if n := link.count(); n != 2 {
		t.Fatalf("expected the second command dispatched after the first completed, got %d", n)
	}
	_ = secondSent
}
