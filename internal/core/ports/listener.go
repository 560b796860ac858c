package ports

import "go.trai.ch/sheaf/internal/core/domain"

// Listener receives outbound notifications. Notify is never called concurrently
// by a single build.
//
//go:generate go run go.uber.org/mock/mockgen -source=listener.go -destination=mocks/mock_listener.go -package=mocks
type Listener interface {
	Notify(n domain.Notification)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(n domain.Notification)

// Notify calls f(n).
func (f ListenerFunc) Notify(n domain.Notification) {
	f(n)
}
