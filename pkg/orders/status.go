package orders

// Order statuses. The normal flow is placed -> preparing ->
// out_for_delivery -> delivered; placed/preparing may go to cancelled, and
// a cancelled order can be flipped back to placed via the order-again
// action.
//
// Only OrderAgain enforces a transition rule. Customer cancel is
// unconditional and admin SetStatus accepts any string; both match the
// behavior customers and operators currently rely on.
const (
	StatusPlaced         = "placed"
	StatusPreparing      = "preparing"
	StatusOutForDelivery = "out_for_delivery"
	StatusDelivered      = "delivered"
	StatusCancelled      = "cancelled"
)
