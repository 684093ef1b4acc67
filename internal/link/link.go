// Package link abstracts the wireless transport to the flow sensor. The
// supervisor only depends on these interfaces; the BLE implementation
// lives in the nus subpackage and tests substitute fakes.
package link

import (
	"context"
	"time"
)

// Advertisement is one device seen during discovery.
type Advertisement struct {
	Name    string
	Address string
}

// NotifyFunc receives the raw bytes of one inbound notification. The
// transport invokes it serially, in arrival order.
type NotifyFunc func(data []byte)

// Conn is a live connection to a device.
type Conn interface {
	// Subscribe registers fn for notifications on the given characteristic.
	Subscribe(characteristic string, fn NotifyFunc) error

	// Alive reports whether the underlying link still considers itself
	// connected. It must be cheap; the supervisor polls it.
	Alive() bool

	// Unsubscribe stops notification delivery. Best effort.
	Unsubscribe() error

	// Close tears down the connection. Best effort.
	Close() error
}

// Link provides discovery and connection over the wireless transport.
type Link interface {
	// Discover scans for nearby devices for up to timeout, or until ctx
	// is cancelled.
	Discover(ctx context.Context, timeout time.Duration) ([]Advertisement, error)

	// Connect opens a connection to a previously discovered address.
	Connect(ctx context.Context, address string) (Conn, error)
}

// Error wraps a transport failure with the operation that produced it.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return "link " + e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}
