package nci

import (
	"log"
	"sync"
	"time"
)

// Link is the downward interface of §6: a fire-and-forget sender for
// outgoing control packets. The matching inbound path is (*SM).Deliver,
// which the lower (SAR) layer calls once per reassembled control packet.
type Link interface {
	Send(gid, oid byte, payload []byte) error
}

// PacketKind distinguishes a response from a notification on the inbound
// path, mirroring the SAR's deliver_control_packet(kind, ...) contract.
type PacketKind int

const (
	PacketResponse PacketKind = iota
	PacketNotification
)

// ResponseFunc is a command's response callback (§3 "Pending command").
// It is invoked exactly once per accepted SendCommand call: on success
// with the decoded response payload, or on failure with a RequestStatus
// explaining why (§5 "Cancellation", §4.4 "Response correlation").
type ResponseFunc func(status RequestStatus, payload []byte, userData any)

type commandRequest struct {
	gid, oid    byte
	payload     []byte
	resp        ResponseFunc
	userData    any
	originState StateID
}

type pendingCommand struct {
	commandRequest
	timer *time.Timer
}

type enterRequest struct {
	id    StateID
	param Param
}

// SM is the RF discovery and activation state-machine engine (§4.4). It
// holds the single current RF state, serializes transitions, demultiplexes
// inbound notifications to the current state's handler, and correlates
// outgoing commands with their responses.
//
// SM is not safe for concurrent use from multiple goroutines driving
// Deliver/SendCommand/SwitchTo at the same time (§5: the core assumes a
// single cooperative executor). Its internal mutex exists only to
// arbitrate against the one legitimate background actor: a response
// timeout firing on the runtime's timer goroutine.
type SM struct {
	link   Link
	logger *log.Logger

	timeout    time.Duration
	protoOrder []RFProtocol
	supported  map[RFProtocol]bool

	states map[StateID]state

	mu          sync.Mutex
	current     StateID
	dispatching bool
	deferred    []enterRequest
	pending     *pendingCommand
	cmdQueue    []commandRequest
	stalled     bool
	stallReason StallReason

	onStateChanged  func(old, new StateID)
	onIntfActivated func(ntf IntfActivationNtf, mode ModeParam, activation ActivationParam)
	onStalled       func(reason StallReason)
}

// New creates an engine supporting the given RF protocols, starting in
// IDLE. Call Init once the out-of-scope CORE_RESET/CORE_INIT handshake
// with the NFCC has completed to move it to DISCOVERY. The downward Link
// is supplied via WithLink; an engine constructed without one can still
// be driven through Deliver but SendCommand has nowhere to send.
func New(supported []RFProtocol, opts ...Option) *SM {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	sm := &SM{
		link:       cfg.link,
		logger:     cfg.logger,
		timeout:    cfg.timeout,
		protoOrder: cfg.protocolOrder,
		supported:  make(map[RFProtocol]bool, len(supported)),
		current:    StateIdle,
	}
	for _, p := range supported {
		sm.supported[p] = true
	}
	sm.states = map[StateID]state{
		StateIdle:             newStateIdle(),
		StateDiscovery:        newStateDiscovery(),
		StateW4AllDiscoveries: newStateW4AllDiscoveries(),
		StateW4HostSelect:     newStateW4HostSelect(),
		StatePollActive:       newStatePollActive(),
		StateListenActive:     newStateListenActive(),
		StateListenSleep:      newStateListenSleep(),
	}
	return sm
}

// Init transitions the engine from IDLE to DISCOVERY. It is the one
// transition not driven by an inbound notification or a SwitchTo round
// trip: it marks the point at which the caller considers the NFCC
// initialized and ready to poll.
func (sm *SM) Init() {
	sm.enterState(StateDiscovery, nil)
}

// CurrentState returns the engine's current RF state.
func (sm *SM) CurrentState() StateID {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.current
}

// Stalled reports whether the engine has stalled, and why.
func (sm *SM) Stalled() (bool, StallReason) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.stalled, sm.stallReason
}

// OnStateChanged registers the state_changed observer (§6).
func (sm *SM) OnStateChanged(f func(old, new StateID)) { sm.onStateChanged = f }

// OnIntfActivated registers the intf_activated observer (§6).
func (sm *SM) OnIntfActivated(f func(ntf IntfActivationNtf, mode ModeParam, activation ActivationParam)) {
	sm.onIntfActivated = f
}

// OnStalled registers the stalled observer (§6).
func (sm *SM) OnStalled(f func(reason StallReason)) { sm.onStalled = f }

// Deliver is the inbound callback the SAR layer drives once per
// reassembled control packet (§6 deliver_control_packet).
func (sm *SM) Deliver(kind PacketKind, gid, oid byte, payload []byte) {
	if stalled, _ := sm.Stalled(); stalled {
		return
	}
	switch kind {
	case PacketResponse:
		sm.mu.Lock()
		pc := sm.pending
		sm.mu.Unlock()
		if pc == nil {
			sm.logger.Printf("nci: unexpected response gid=%#x oid=%#x", gid, oid)
			return
		}
		sm.completeCommand(pc, RequestSuccess, payload)
	case PacketNotification:
		sm.handleNtf(gid, oid, payload)
	}
}

func (sm *SM) handleNtf(gid, oid byte, payload []byte) {
	st := sm.states[sm.CurrentState()]
	st.onNotification(sm, gid, oid, payload)
}

// SendCommand enqueues a command (§4.4). It returns false without
// queuing anything if the engine is in a state where commands are
// forbidden (currently IDLE, pre-Init). Exactly one command is in flight
// at a time; later calls queue behind it.
func (sm *SM) SendCommand(gid, oid byte, payload []byte, resp ResponseFunc, userData any) bool {
	sm.mu.Lock()
	if sm.current == StateIdle {
		sm.mu.Unlock()
		return false
	}
	req := commandRequest{
		gid:         gid,
		oid:         oid,
		payload:     append([]byte(nil), payload...),
		resp:        resp,
		userData:    userData,
		originState: sm.current,
	}
	dispatchNow := sm.pending == nil
	if !dispatchNow {
		sm.cmdQueue = append(sm.cmdQueue, req)
	}
	sm.mu.Unlock()

	if dispatchNow {
		sm.beginDispatch(req)
	}
	return true
}

// beginDispatch sends req over the link and arms its timeout. Must be
// called without holding sm.mu.
func (sm *SM) beginDispatch(req commandRequest) {
	pc := &pendingCommand{commandRequest: req}
	sm.mu.Lock()
	sm.pending = pc
	sm.mu.Unlock()

	pc.timer = time.AfterFunc(sm.timeout, func() {
		sm.completeCommand(pc, RequestTimeout, nil)
	})

	if sm.link == nil {
		sm.completeCommand(pc, RequestTransportError, nil)
		return
	}
	if err := sm.link.Send(req.gid, req.oid, req.payload); err != nil {
		sm.logger.Printf("nci: send gid=%#x oid=%#x: %v", req.gid, req.oid, err)
		sm.completeCommand(pc, RequestTransportError, nil)
	}
}

// completeCommand resolves pc exactly once (Invariant 4): a concurrent
// timeout and response racing for the same pc is resolved by the
// sm.pending != pc guard below, which only lets the first of the two win.
func (sm *SM) completeCommand(pc *pendingCommand, status RequestStatus, payload []byte) {
	sm.mu.Lock()
	if sm.pending != pc {
		sm.mu.Unlock()
		return
	}
	sm.pending = nil
	var next *commandRequest
	if len(sm.cmdQueue) > 0 {
		n := sm.cmdQueue[0]
		sm.cmdQueue = sm.cmdQueue[1:]
		next = &n
	}
	sm.mu.Unlock()

	pc.timer.Stop()
	if pc.resp != nil {
		pc.resp(status, payload, pc.userData)
	}
	if next != nil {
		sm.beginDispatch(*next)
	}
}

// SwitchTo is the host-driven state change of §4.4: it emits whatever
// RF_DEACTIVATE_CMD is needed to bring the NFCC to the requested
// configuration, then performs the local state change once the NFCC
// confirms it. States also call this internally for the documented
// RF_INTF_ACTIVATED_NTF parse-failure recovery path (§9).
func (sm *SM) SwitchTo(target StateID) bool {
	if sm.CurrentState() == target {
		return true
	}
	var deactType DeactivationType
	switch target {
	case StateDiscovery:
		deactType = DeactivationTypeDiscovery
	case StateIdle:
		deactType = DeactivationTypeIdle
	case StateListenSleep, StatePollActive:
		deactType = DeactivationTypeSleep
	default:
		sm.enterState(target, nil)
		return true
	}
	payload := SerializeDeactivateCmd(deactType)
	return sm.SendCommand(GIDRF, OIDRFDeactivate, payload, func(status RequestStatus, _ []byte, _ any) {
		if status != RequestSuccess {
			sm.logger.Printf("nci: switch_to(%s): RF_DEACTIVATE_CMD failed: %s", target, status)
			return
		}
		sm.enterState(target, nil)
	}, nil)
}

// enterState performs §4.4's "enter_state": resolve the target state,
// call the leaving state's on_leave (unless it's the same state), call
// the target's on_enter or on_reenter, and record it as current. A call
// arriving while another on_enter/on_reenter body is still executing is
// queued and drained after that body returns (§5 "Suspension points"),
// which is what keeps on_enter bodies from re-entering the engine.
func (sm *SM) enterState(id StateID, param Param) {
	sm.mu.Lock()
	if sm.dispatching {
		sm.deferred = append(sm.deferred, enterRequest{id, param})
		sm.mu.Unlock()
		return
	}
	sm.dispatching = true
	sm.mu.Unlock()

	sm.doEnterState(id, param)

	for {
		sm.mu.Lock()
		if len(sm.deferred) == 0 {
			sm.dispatching = false
			sm.mu.Unlock()
			return
		}
		next := sm.deferred[0]
		sm.deferred = sm.deferred[1:]
		sm.mu.Unlock()
		sm.doEnterState(next.id, next.param)
	}
}

func (sm *SM) doEnterState(id StateID, param Param) {
	sm.mu.Lock()
	prev := sm.current
	sameState := prev == id
	var toCancel *pendingCommand
	if !sameState && sm.pending != nil && sm.pending.originState == prev {
		toCancel = sm.pending
	}
	sm.mu.Unlock()

	if toCancel != nil {
		sm.completeCommand(toCancel, RequestCancelled, nil)
	}

	if !sameState {
		sm.states[prev].onLeave(sm)
	}

	sm.mu.Lock()
	sm.current = id
	sm.mu.Unlock()

	if sameState {
		sm.states[id].onReenter(sm, param)
	} else {
		sm.states[id].onEnter(sm, param)
	}

	if sm.onStateChanged != nil {
		sm.onStateChanged(prev, id)
	}
}

// handleRFDeactivateNtf is the shared RF_DEACTIVATE_NTF handler of §4.4,
// called by every state that delegates deactivation handling to the
// engine instead of handling it itself.
func (sm *SM) handleRFDeactivateNtf(payload []byte) {
	typ, _, err := ParseDeactivateNtf(payload)
	if err != nil {
		sm.logger.Printf("nci: rf_deactivate_ntf: %v", err)
		sm.stall(StallError)
		return
	}
	switch typ {
	case DeactivationTypeDiscovery:
		sm.enterState(StateDiscovery, nil)
	case DeactivationTypeSleep, DeactivationTypeSleepAF:
		if sm.CurrentState().isListenSide() {
			sm.enterState(StateListenSleep, nil)
		} else {
			sm.enterState(StatePollActive, nil)
		}
	case DeactivationTypeIdle:
		sm.enterState(StateIdle, nil)
	default:
		sm.logger.Printf("nci: rf_deactivate_ntf: unexpected type %s", typ)
		sm.stall(StallError)
	}
}

// intfActivated publishes an activation to the upward observer.
func (sm *SM) intfActivated(ntf IntfActivationNtf, mode ModeParam, activation ActivationParam) {
	if sm.onIntfActivated != nil {
		sm.onIntfActivated(ntf, mode, activation)
	}
}

// stall freezes the machine pending an explicit external reset (§4.4,
// §7 "Fatal engine errors").
func (sm *SM) stall(reason StallReason) {
	sm.mu.Lock()
	if sm.stalled {
		sm.mu.Unlock()
		return
	}
	sm.stalled = true
	sm.stallReason = reason
	sm.mu.Unlock()

	sm.logger.Printf("nci: stall: %s", reason)
	if sm.onStalled != nil {
		sm.onStalled(reason)
	}
}

func (sm *SM) supportsProtocol(p RFProtocol) bool {
	return sm.supported[p]
}

func (sm *SM) protocolOrder() []RFProtocol {
	return sm.protoOrder
}
