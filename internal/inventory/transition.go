package inventory

import "github.com/rhymednick/inw-radio-log/internal/models"

// CheckoutEvent is a checkout log entry to record for a radio.
type CheckoutEvent struct {
	UserID    string
	Operation models.Operation
}

// TransitionCheckout returns the events implied by changing a radio's
// checked out user from prev to next. A direct reassignment from one user
// to another checks the radio in for the first user before checking it out
// to the second.
func TransitionCheckout(prev, next *string) []CheckoutEvent {
	switch {
	case prev == nil && next == nil:
		return nil
	case prev == nil:
		return []CheckoutEvent{{UserID: *next, Operation: models.OperationCheckOut}}
	case next == nil:
		return []CheckoutEvent{{UserID: *prev, Operation: models.OperationCheckIn}}
	case *prev == *next:
		return nil
	default:
		return []CheckoutEvent{
			{UserID: *prev, Operation: models.OperationCheckIn},
			{UserID: *next, Operation: models.OperationCheckOut},
		}
	}
}
