package session

import "context"

// CombineContext returns a context that inherits values from primary (the tab context
// carrying the CDP target) and is canceled when either primary or op is done.
func CombineContext(primary, op context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(primary)
	go func() {
		select {
		case <-op.Done():
			cancel()
		case <-combined.Done():
		}
	}()
	return combined, cancel
}
