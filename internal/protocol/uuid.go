package protocol

// GATT identifiers used by the strap.
const (
	HeartRateServiceUUID     = "0000180d-0000-1000-8000-00805f9b34fb"
	HeartRateMeasurementUUID = "00002a37-0000-1000-8000-00805f9b34fb"
	BodySensorLocationUUID   = "00002a38-0000-1000-8000-00805f9b34fb"

	BatteryServiceUUID = "0000180f-0000-1000-8000-00805f9b34fb"
	BatteryLevelUUID   = "00002a19-0000-1000-8000-00805f9b34fb"
)

// BodyLocation is the sensor position reported by characteristic 2A38.
type BodyLocation uint8

const (
	BodyLocationOther BodyLocation = iota
	BodyLocationChest
	BodyLocationWrist
	BodyLocationFinger
	BodyLocationHand
	BodyLocationEarLobe
	BodyLocationFoot
)

func (l BodyLocation) String() string {
	switch l {
	case BodyLocationOther:
		return "other"
	case BodyLocationChest:
		return "chest"
	case BodyLocationWrist:
		return "wrist"
	case BodyLocationFinger:
		return "finger"
	case BodyLocationHand:
		return "hand"
	case BodyLocationEarLobe:
		return "ear lobe"
	case BodyLocationFoot:
		return "foot"
	default:
		return "unknown"
	}
}

// DecodeBodyLocation reads the first byte of a 2A38 value.
func DecodeBodyLocation(data []byte) (BodyLocation, error) {
	if len(data) == 0 {
		return 0, ErrEmpty
	}
	return BodyLocation(data[0]), nil
}

// DecodeBatteryLevel reads the first byte of a 2A19 value as a percentage.
func DecodeBatteryLevel(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, ErrEmpty
	}
	return int(data[0]), nil
}
