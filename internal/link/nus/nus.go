// Package nus implements the device link over BLE using the Nordic UART
// Service, the transport the flow sensor firmware exposes.
package nus

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"tinygo.org/x/bluetooth"

	"github.com/sipsmart/sipstream/internal/link"
)

// Nordic UART Service UUIDs. TX is the notify characteristic the sensor
// streams CSV lines on.
const (
	ServiceUUID = "6e400001-b5a3-f393-e0a9-e50e24dcca9e"
	TxUUID      = "6e400003-b5a3-f393-e0a9-e50e24dcca9e"
)

const connectTimeout = 10 * time.Second

// Link is a BLE-backed device link using the platform's default adapter.
type Link struct {
	adapter *bluetooth.Adapter

	enableOnce sync.Once
	enableErr  error

	mu    sync.Mutex
	addrs map[string]bluetooth.Address
	conns map[string]*atomic.Bool
}

// New creates a link over the default BLE adapter. The adapter is enabled
// lazily on first use.
func New() *Link {
	return &Link{
		adapter: bluetooth.DefaultAdapter,
		addrs:   make(map[string]bluetooth.Address),
		conns:   make(map[string]*atomic.Bool),
	}
}

func (l *Link) enable() error {
	l.enableOnce.Do(func() {
		l.enableErr = l.adapter.Enable()
		if l.enableErr != nil {
			return
		}
		l.adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
			l.mu.Lock()
			alive, ok := l.conns[device.Address.String()]
			l.mu.Unlock()
			if ok {
				alive.Store(connected)
			}
		})
	})
	return l.enableErr
}

// Discover scans for advertising devices until the timeout elapses or ctx
// is cancelled, deduplicating by address.
func (l *Link) Discover(ctx context.Context, timeout time.Duration) ([]link.Advertisement, error) {
	if err := l.enable(); err != nil {
		return nil, &link.Error{Op: "enable", Err: err}
	}

	seen := make(map[string]link.Advertisement)
	var seenMu sync.Mutex

	timer := time.AfterFunc(timeout, func() {
		_ = l.adapter.StopScan()
	})
	defer timer.Stop()
	stop := context.AfterFunc(ctx, func() {
		_ = l.adapter.StopScan()
	})
	defer stop()

	// Scan blocks until StopScan.
	err := l.adapter.Scan(func(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
		addr := result.Address.String()
		seenMu.Lock()
		seen[addr] = link.Advertisement{
			Name:    result.LocalName(),
			Address: addr,
		}
		seenMu.Unlock()

		l.mu.Lock()
		l.addrs[addr] = result.Address
		l.mu.Unlock()
	})
	if err != nil {
		return nil, &link.Error{Op: "scan", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, &link.Error{Op: "scan", Err: err}
	}

	ads := make([]link.Advertisement, 0, len(seen))
	for _, ad := range seen {
		ads = append(ads, ad)
	}
	sort.Slice(ads, func(i, j int) bool {
		if ads[i].Name != ads[j].Name {
			return ads[i].Name < ads[j].Name
		}
		return ads[i].Address < ads[j].Address
	})
	return ads, nil
}

// Connect opens a connection to an address seen during a prior Discover.
func (l *Link) Connect(ctx context.Context, address string) (link.Conn, error) {
	if err := l.enable(); err != nil {
		return nil, &link.Error{Op: "enable", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, &link.Error{Op: "connect", Err: err}
	}

	l.mu.Lock()
	addr, ok := l.addrs[address]
	l.mu.Unlock()
	if !ok {
		return nil, &link.Error{Op: "connect", Err: fmt.Errorf("address %s not seen in scan", address)}
	}

	device, err := l.adapter.Connect(addr, bluetooth.ConnectionParams{
		ConnectionTimeout: bluetooth.NewDuration(connectTimeout),
	})
	if err != nil {
		return nil, &link.Error{Op: "connect", Err: err}
	}

	alive := &atomic.Bool{}
	alive.Store(true)
	l.mu.Lock()
	l.conns[address] = alive
	l.mu.Unlock()

	return &conn{link: l, device: device, address: address, alive: alive}, nil
}

// conn wraps one BLE connection and its notify characteristic.
type conn struct {
	link    *Link
	device  bluetooth.Device
	address string
	alive   *atomic.Bool

	mu      sync.Mutex
	char    bluetooth.DeviceCharacteristic
	hasChar bool
}

// Subscribe discovers the NUS service and enables notifications on the
// given characteristic.
func (c *conn) Subscribe(characteristic string, fn link.NotifyFunc) error {
	svcUUID, err := bluetooth.ParseUUID(ServiceUUID)
	if err != nil {
		return &link.Error{Op: "subscribe", Err: err}
	}
	charUUID, err := bluetooth.ParseUUID(characteristic)
	if err != nil {
		return &link.Error{Op: "subscribe", Err: err}
	}

	services, err := c.device.DiscoverServices([]bluetooth.UUID{svcUUID})
	if err != nil {
		return &link.Error{Op: "subscribe", Err: err}
	}
	if len(services) == 0 {
		return &link.Error{Op: "subscribe", Err: errors.New("uart service not found")}
	}

	chars, err := services[0].DiscoverCharacteristics([]bluetooth.UUID{charUUID})
	if err != nil {
		return &link.Error{Op: "subscribe", Err: err}
	}
	if len(chars) == 0 {
		return &link.Error{Op: "subscribe", Err: errors.New("notify characteristic not found")}
	}

	c.mu.Lock()
	c.char = chars[0]
	c.hasChar = true
	c.mu.Unlock()

	if err := chars[0].EnableNotifications(func(buf []byte) {
		fn(buf)
	}); err != nil {
		return &link.Error{Op: "subscribe", Err: err}
	}
	return nil
}

func (c *conn) Alive() bool {
	return c.alive.Load()
}

func (c *conn) Unsubscribe() error {
	c.mu.Lock()
	char, ok := c.char, c.hasChar
	c.mu.Unlock()
	if !ok {
		return nil
	}
	if err := char.EnableNotifications(nil); err != nil {
		return &link.Error{Op: "unsubscribe", Err: err}
	}
	return nil
}

func (c *conn) Close() error {
	c.alive.Store(false)

	c.link.mu.Lock()
	delete(c.link.conns, c.address)
	c.link.mu.Unlock()

	if err := c.device.Disconnect(); err != nil {
		return &link.Error{Op: "close", Err: err}
	}
	return nil
}
