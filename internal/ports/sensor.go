package ports

// SensorEvents receives callbacks from the BLE transport.
// OnNotification is invoked once per notification, in arrival order, and
// never concurrently with itself.
type SensorEvents interface {
	OnNotification(data []byte)
	OnConnect()
	OnDisconnect()
	OnSignalStrength(rssi int)
}

// SensorControl drives the connected strap.
type SensorControl interface {
	// SetNotificationsEnabled arms or disarms heart-rate notifications.
	// Calling it twice with the same value is a no-op.
	SetNotificationsEnabled(enabled bool) error

	// ReadBatteryLevel performs a one-shot read of the battery percentage.
	ReadBatteryLevel() (int, error)
}

// BodyLocationReader is implemented by sensors that expose characteristic 2A38.
type BodyLocationReader interface {
	ReadBodyLocation() (string, error)
}
