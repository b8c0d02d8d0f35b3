package events

// PushStatus is the push channel's connection state. It is a bus-level
// type so adapters and the app agree on it without importing each
// other.
type PushStatus string

const (
	PushDisconnected PushStatus = "disconnected"
	PushConnecting   PushStatus = "connecting"
	PushConnected    PushStatus = "connected"
	PushReconnecting PushStatus = "reconnecting"
	PushError        PushStatus = "error"
)

// SnapshotUpdated is emitted after every successful store apply or
// optimistic mutation. Carries nothing: subscribers re-read the store.
type SnapshotUpdated struct{}

// PushStatusChanged is emitted whenever the push channel's status
// actually changes value.
type PushStatusChanged struct {
	Status PushStatus
}

// TickerReceived mirrors a ticker:message push event.
type TickerReceived struct {
	Message string
}
