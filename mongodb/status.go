package mongodb

// BridgeStatus lifecycle of a bridge settlement. There is no failed
// state, a pending bridge is retried until it completes.
type BridgeStatus string

// bridge statuses
const (
	StatusPending   BridgeStatus = "pending"
	StatusCompleted BridgeStatus = "completed"
)

// CanTransitionTo enforces the monotonic pending to completed lifecycle.
func (s BridgeStatus) CanTransitionTo(next BridgeStatus) bool {
	return s == StatusPending && next == StatusCompleted
}
