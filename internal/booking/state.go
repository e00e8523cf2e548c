package booking

import "fmt"

// State is where a booking session sits in the search-to-checkout flow.
type State string

const (
	StateIdle            State = "idle"
	StateSearching       State = "searching"
	StateResultsShown    State = "results_shown"
	StateOfferSelected   State = "offer_selected"
	StateCheckoutPending State = "checkout_pending"
	StateRedirected      State = "redirected"
)

// Idle may go straight to OfferSelected when an earlier search's results were
// kept after a failed search or a closed checkout.
var validTransitions = map[State][]State{
	StateIdle:            {StateSearching, StateOfferSelected},
	StateSearching:       {StateResultsShown, StateIdle},
	StateResultsShown:    {StateSearching, StateOfferSelected},
	StateOfferSelected:   {StateOfferSelected, StateSearching, StateCheckoutPending, StateIdle},
	StateCheckoutPending: {StateOfferSelected, StateRedirected, StateIdle},
	StateRedirected:      {},
}

func (s State) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

func (s State) CanTransitionTo(target State) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the session has handed off to the hosted
// payment page. Only Reset leaves a terminal state.
func (s State) IsTerminal() bool {
	allowed, exists := validTransitions[s]
	return !exists || len(allowed) == 0
}

func (s State) String() string {
	return string(s)
}

// TransitionError is returned when an operation is not allowed in the
// session's current state, e.g. a second search while one is in flight.
type TransitionError struct {
	From State
	To   State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move booking session from %s to %s", e.From, e.To)
}
