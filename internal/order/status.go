package order

// Status is the order lifecycle state.
//
// The forward path is pending -> confirmed -> processing -> shipped ->
// delivered. Cancellation is allowed from pending, confirmed and processing;
// cancelled and delivered are terminal. Note that UpdateStatus deliberately
// does NOT walk this graph (see Service.UpdateStatus); only cancellation is
// policed.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// ParseStatus validates a caller-supplied status string.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", &ValidationError{Msg: "invalid order status: " + s}
	}
	return st, nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is exposed from s.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanCancel applies the cancellation policy: any status may be cancelled
// except cancelled itself and shipped/delivered.
func CanCancel(s Status) error {
	switch s {
	case StatusCancelled:
		return ErrAlreadyCancelled
	case StatusShipped, StatusDelivered:
		return ErrCannotCancel
	}
	return nil
}
