package messaging

const (
	// TopicCheckoutEvents receives completed and rolled back checkouts, keyed
	// by order id.
	TopicCheckoutEvents = "checkout.events"
	// TopicCompensationFailed receives checkouts whose compensating cancel
	// failed. The reconciler consumes it.
	TopicCompensationFailed = "checkout.compensation_failed"

	ReconcilerGroup = "checkout-reconciler"
)
