package session

import (
	"context"

	"github.com/looplab/fsm"
)

// Session states.
const (
	StateDisconnected   = "DISCONNECTED"
	StateConnecting     = "CONNECTING"
	StateAuthenticating = "AUTHENTICATING"
	StateActive         = "ACTIVE"
	StateDegraded       = "DEGRADED"
	StateClosing        = "CLOSING"
)

// State machine events.
const (
	eventConnect      = "connect"
	eventAuthenticate = "authenticate"
	eventActivate     = "activate"
	eventDegrade      = "degrade"
	eventClose        = "close"
	eventDisconnect   = "disconnect"
)

// newStateMachine builds the session lifecycle machine. onEnter runs
// after every transition with the new state name.
func newStateMachine(onEnter func(state string)) *fsm.FSM {
	return fsm.NewFSM(
		StateDisconnected,
		fsm.Events{
			{Name: eventConnect, Src: []string{StateDisconnected}, Dst: StateConnecting},
			{Name: eventAuthenticate, Src: []string{StateConnecting}, Dst: StateAuthenticating},
			{Name: eventActivate, Src: []string{StateAuthenticating, StateDegraded}, Dst: StateActive},
			{Name: eventDegrade, Src: []string{StateActive}, Dst: StateDegraded},
			{Name: eventClose, Src: []string{StateConnecting, StateAuthenticating, StateActive, StateDegraded}, Dst: StateClosing},
			{Name: eventDisconnect, Src: []string{StateConnecting, StateAuthenticating, StateActive, StateDegraded, StateClosing}, Dst: StateDisconnected},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				onEnter(e.Dst)
			},
		},
	)
}
