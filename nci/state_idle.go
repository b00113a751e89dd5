package nci

// stateIdle is IDLE (§3): the NFCC has no RF session and accepts no
// commands through this engine. There is no dedicated notification
// handling; transitions out of IDLE are driven externally, by Init.
type stateIdle struct{ baseState }

func newStateIdle() state { return &stateIdle{baseState{id: StateIdle}} }
