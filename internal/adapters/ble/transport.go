// Package ble connects to a heart rate strap over Bluetooth Low Energy.
package ble

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"

	"github.com/bft-labs/rrship/internal/domain"
	"github.com/bft-labs/rrship/internal/ports"
	"github.com/bft-labs/rrship/internal/protocol"
)

// Default timeouts.
const (
	DefaultScanTimeout    = 30 * time.Second
	DefaultConnectTimeout = 10 * time.Second
)

var (
	heartRateService   = mustParseUUID(protocol.HeartRateServiceUUID)
	heartRateMeasure   = mustParseUUID(protocol.HeartRateMeasurementUUID)
	bodySensorLocation = mustParseUUID(protocol.BodySensorLocationUUID)
	batteryService     = mustParseUUID(protocol.BatteryServiceUUID)
	batteryLevel       = mustParseUUID(protocol.BatteryLevelUUID)
)

func mustParseUUID(s string) bluetooth.UUID {
	uuid, err := bluetooth.ParseUUID(s)
	if err != nil {
		panic(err)
	}
	return uuid
}

// Config selects the strap to connect to.
type Config struct {
	// NameContains matches against the advertised local name.
	NameContains string

	// Address, when set, must match the device address exactly and
	// takes precedence over NameContains.
	Address string

	ScanTimeout    time.Duration
	ConnectTimeout time.Duration
}

// Transport drives one strap connection and forwards its traffic to a
// ports.SensorEvents. It implements ports.SensorControl.
type Transport struct {
	adapter *bluetooth.Adapter
	config  Config
	events  ports.SensorEvents
	logger  ports.Logger

	mu          sync.Mutex
	device      bluetooth.Device
	connected   bool
	notifying   bool
	hrChar      bluetooth.DeviceCharacteristic
	bodyChar    *bluetooth.DeviceCharacteristic
	batteryChar *bluetooth.DeviceCharacteristic
}

var (
	_ ports.SensorControl      = (*Transport)(nil)
	_ ports.BodyLocationReader = (*Transport)(nil)
)

// NewTransport creates a transport on adapter, usually bluetooth.DefaultAdapter.
func NewTransport(adapter *bluetooth.Adapter, config Config, events ports.SensorEvents, logger ports.Logger) *Transport {
	if config.ScanTimeout <= 0 {
		config.ScanTimeout = DefaultScanTimeout
	}
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = DefaultConnectTimeout
	}
	return &Transport{
		adapter: adapter,
		config:  config,
		events:  events,
		logger:  logger,
	}
}

// Connect enables the adapter, scans for the strap, connects and discovers
// the heart rate and battery characteristics. Notifications stay disarmed.
func (t *Transport) Connect(ctx context.Context) error {
	if err := t.adapter.Enable(); err != nil {
		return fmt.Errorf("enable bluetooth adapter: %w", err)
	}

	t.adapter.SetConnectHandler(func(_ bluetooth.Device, connected bool) {
		if connected {
			t.events.OnConnect()
			return
		}
		t.mu.Lock()
		t.connected = false
		t.notifying = false
		t.mu.Unlock()
		t.events.OnDisconnect()
	})

	found, err := t.scan(ctx)
	if err != nil {
		return err
	}

	device, err := t.adapter.Connect(found.Address, bluetooth.ConnectionParams{
		ConnectionTimeout: bluetooth.NewDuration(t.config.ConnectTimeout),
	})
	if err != nil {
		return fmt.Errorf("connect to %s: %w", found.Address.String(), err)
	}

	t.mu.Lock()
	t.device = device
	t.connected = true
	t.mu.Unlock()

	if err := t.discover(device); err != nil {
		_ = device.Disconnect()
		return err
	}

	t.logger.Info("connected to strap",
		ports.String("name", found.LocalName()),
		ports.String("address", found.Address.String()),
	)
	return nil
}

func (t *Transport) scan(ctx context.Context) (bluetooth.ScanResult, error) {
	ctx, cancel := context.WithTimeout(ctx, t.config.ScanTimeout)
	defer cancel()

	t.logger.Info("scanning for strap",
		ports.String("name", t.config.NameContains),
		ports.String("address", t.config.Address),
		ports.Duration("timeout", t.config.ScanTimeout),
	)

	results := make(chan bluetooth.ScanResult, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- t.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
			if !matches(t.config, result.LocalName(), result.Address.String()) {
				return
			}
			t.events.OnSignalStrength(int(result.RSSI))
			if !result.HasServiceUUID(heartRateService) {
				t.logger.Debug("strap does not advertise heart rate service",
					ports.String("address", result.Address.String()),
				)
			}
			select {
			case results <- result:
				if err := adapter.StopScan(); err != nil {
					t.logger.Warn("stop scan failed", ports.Err(err))
				}
			default:
			}
		})
	}()

	select {
	case result := <-results:
		return result, nil
	case err := <-errCh:
		if err == nil {
			err = domain.ErrDeviceNotFound
		}
		return bluetooth.ScanResult{}, fmt.Errorf("scan: %w", err)
	case <-ctx.Done():
		_ = t.adapter.StopScan()
		select {
		case result := <-results:
			return result, nil
		default:
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return bluetooth.ScanResult{}, fmt.Errorf("scan for %q: %w", t.target(), domain.ErrDeviceNotFound)
		}
		return bluetooth.ScanResult{}, ctx.Err()
	}
}

func (t *Transport) target() string {
	if t.config.Address != "" {
		return t.config.Address
	}
	return t.config.NameContains
}

// matches reports whether an advertisement belongs to the configured strap.
func matches(config Config, localName, address string) bool {
	if config.Address != "" {
		return strings.EqualFold(config.Address, address)
	}
	if config.NameContains == "" {
		return false
	}
	return strings.Contains(strings.ToLower(localName), strings.ToLower(config.NameContains))
}

func (t *Transport) discover(device bluetooth.Device) error {
	services, err := device.DiscoverServices([]bluetooth.UUID{heartRateService, batteryService})
	if err != nil {
		// Some stacks reject partial filters; retry with the heart rate service only.
		services, err = device.DiscoverServices([]bluetooth.UUID{heartRateService})
		if err != nil {
			return fmt.Errorf("discover services: %w", err)
		}
	}

	var hrFound bool
	for _, svc := range services {
		switch svc.UUID() {
		case heartRateService:
			chars, err := svc.DiscoverCharacteristics([]bluetooth.UUID{heartRateMeasure, bodySensorLocation})
			if err != nil {
				return fmt.Errorf("discover heart rate characteristics: %w", err)
			}
			for i := range chars {
				switch chars[i].UUID() {
				case heartRateMeasure:
					t.hrChar = chars[i]
					hrFound = true
				case bodySensorLocation:
					c := chars[i]
					t.bodyChar = &c
				}
			}
		case batteryService:
			chars, err := svc.DiscoverCharacteristics([]bluetooth.UUID{batteryLevel})
			if err != nil {
				t.logger.Warn("discover battery characteristic failed", ports.Err(err))
				continue
			}
			if len(chars) > 0 {
				c := chars[0]
				t.batteryChar = &c
			}
		}
	}

	if !hrFound {
		return fmt.Errorf("heart rate measurement characteristic not found")
	}
	return nil
}

// SetNotificationsEnabled arms or disarms heart rate notifications.
// Repeating the current state is a no-op.
func (t *Transport) SetNotificationsEnabled(enabled bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.connected {
		return domain.ErrNoSensor
	}
	if t.notifying == enabled {
		return nil
	}

	var handler func([]byte)
	if enabled {
		handler = t.events.OnNotification
	}
	if err := t.hrChar.EnableNotifications(handler); err != nil {
		return fmt.Errorf("set heart rate notifications to %t: %w", enabled, err)
	}
	t.notifying = enabled
	t.logger.Debug("heart rate notifications", ports.Bool("enabled", enabled))
	return nil
}

// ReadBatteryLevel reads the battery percentage.
func (t *Transport) ReadBatteryLevel() (int, error) {
	data, err := t.read(func() *bluetooth.DeviceCharacteristic { return t.batteryChar }, "battery level")
	if err != nil {
		return 0, err
	}
	return protocol.DecodeBatteryLevel(data)
}

// ReadBodyLocation reads where the sensor is worn.
func (t *Transport) ReadBodyLocation() (string, error) {
	data, err := t.read(func() *bluetooth.DeviceCharacteristic { return t.bodyChar }, "body sensor location")
	if err != nil {
		return "", err
	}
	loc, err := protocol.DecodeBodyLocation(data)
	if err != nil {
		return "", err
	}
	return loc.String(), nil
}

func (t *Transport) read(char func() *bluetooth.DeviceCharacteristic, what string) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.connected {
		return nil, domain.ErrNoSensor
	}
	c := char()
	if c == nil {
		return nil, fmt.Errorf("%s characteristic not available", what)
	}

	buf := make([]byte, 8)
	n, err := c.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", what, err)
	}
	return buf[:n], nil
}

// Disconnect disarms notifications and drops the connection.
func (t *Transport) Disconnect() error {
	t.mu.Lock()
	if !t.connected {
		t.mu.Unlock()
		return nil
	}
	if t.notifying {
		if err := t.hrChar.EnableNotifications(nil); err != nil {
			t.logger.Warn("disable notifications failed", ports.Err(err))
		}
		t.notifying = false
	}
	t.connected = false
	device := t.device
	t.mu.Unlock()

	// The connect handler may run synchronously and takes t.mu.
	if err := device.Disconnect(); err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	t.logger.Info("disconnected from strap")
	return nil
}
