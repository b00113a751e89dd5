package nci

// StateID identifies one of the seven RF states (§3).
type StateID int

const (
	StateIdle StateID = iota
	StateDiscovery
	StateW4AllDiscoveries
	StateW4HostSelect
	StatePollActive
	StateListenActive
	StateListenSleep
)

func (id StateID) String() string {
	switch id {
	case StateIdle:
		return "IDLE"
	case StateDiscovery:
		return "DISCOVERY"
	case StateW4AllDiscoveries:
		return "W4_ALL_DISCOVERIES"
	case StateW4HostSelect:
		return "W4_HOST_SELECT"
	case StatePollActive:
		return "POLL_ACTIVE"
	case StateListenActive:
		return "LISTEN_ACTIVE"
	case StateListenSleep:
		return "LISTEN_SLEEP"
	default:
		return "StateID(?)"
	}
}

// isListenSide reports whether id belongs to the listen-mode branch of the
// state diagram, as opposed to the poll-mode branch. Used by
// (*SM).handleRFDeactivateNtf to choose between LISTEN_SLEEP and
// POLL_ACTIVE on a {SLEEP, SLEEP_AF} deactivation (DESIGN.md, Open
// Question 3).
func (id StateID) isListenSide() bool {
	return id == StateListenActive || id == StateListenSleep
}

// state is the capability set every RF state implements (§4.3, Design
// notes "Polymorphism of states"). The engine invokes these polymorphically
// and never needs to know which concrete state it's holding.
type state interface {
	onEnter(sm *SM, param Param)
	onReenter(sm *SM, param Param)
	onLeave(sm *SM)
	onNotification(sm *SM, gid, oid byte, payload []byte)
}

// baseState supplies the default behaviour every state inherits unless it
// overrides it: entry/re-entry/leave are no-ops, and unrecognized
// notifications are logged and dropped (§4.3 "Default behaviour").
// Concrete states embed baseState and shadow only the methods they need;
// where a concrete state's switch falls through to the default case, it
// calls baseState.onNotification explicitly, mirroring the C
// implementation's NCI_STATE_CLASS(PARENT_CLASS)->handle_ntf chaining.
type baseState struct {
	id StateID
}

func (b baseState) onEnter(sm *SM, param Param)    {}
func (b baseState) onReenter(sm *SM, param Param)  {}
func (b baseState) onLeave(sm *SM)                 {}

func (b baseState) onNotification(sm *SM, gid, oid byte, payload []byte) {
	sm.logger.Printf("nci: %s: unhandled notification gid=%#x oid=%#x (%d bytes)",
		b.id, gid, oid, len(payload))
}
