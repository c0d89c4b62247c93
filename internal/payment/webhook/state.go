package webhook

import "strings"

// State is where a callback ended up after validation.
type State string

const (
	StateReceived     State = "RECEIVED"
	StateVerified     State = "VERIFIED"
	StateAccepted     State = "ACCEPTED"
	StateDeclined     State = "DECLINED"
	StatePending      State = "PENDING"
	StateUnrecognized State = "UNRECOGNIZED"
	StateRejected     State = "REJECTED"
)

// Terminal reports whether the state is recorded and applied to the order.
func (s State) Terminal() bool {
	return s == StateAccepted || s == StateDeclined
}

var outcomeCodes = map[string]State{
	"SUCCESS":    StateAccepted,
	"ACCEPTED":   StateAccepted,
	"PAID":       StateAccepted,
	"DECLINED":   StateDeclined,
	"FAILED":     StateDeclined,
	"CANCELLED":  StateDeclined,
	"PENDING":    StatePending,
	"INPROGRESS": StatePending,
}

// MapOutcome maps a gateway outcome code. Anything unknown is
// StateUnrecognized, never StateAccepted.
func MapOutcome(code string) State {
	if s, ok := outcomeCodes[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return s
	}
	return StateUnrecognized
}
