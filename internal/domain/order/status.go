package order

import "github.com/go-faster/errors"

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

// transitions holds the allowed state machine edges. DELIVERED and CANCELLED
// are terminal.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusDelivered},
}

// ParseStatus converts a wire string into a Status.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled:
		return st, nil
	default:
		return "", errors.Errorf("unknown order status %q", s)
	}
}

// CanTransitionTo reports whether the state machine allows moving from s to t.
func (s Status) CanTransitionTo(t Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == t {
			return true
		}
	}
	return false
}

// restocksOnCancel reports whether cancelling from s must return reserved
// stock to the catalog. Only states that still hold a reservation qualify.
func (s Status) restocksOnCancel() bool {
	return s == StatusPending || s == StatusConfirmed
}

// RestocksOnTransition reports whether moving from s to t releases the
// order's stock reservation.
func (s Status) RestocksOnTransition(t Status) bool {
	return t == StatusCancelled && s.restocksOnCancel()
}
