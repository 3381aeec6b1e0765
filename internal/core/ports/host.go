package ports

import "github.com/wholesalehub/sessiongate/internal/core/domain"

// Navigator moves the host UI to a route.
type Navigator interface {
	Navigate(route string)
}

// EventSource delivers host UI events. Subscribe returns a function that
// removes the listener.
type EventSource interface {
	Subscribe(listener func(domain.UIEvent)) (unsubscribe func())
}
