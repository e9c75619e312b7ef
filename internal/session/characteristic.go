package session

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// bluetoothBase is the Bluetooth SIG base UUID that 16-bit assigned numbers expand into.
var bluetoothBase = uuid.MustParse("00000000-0000-1000-8000-00805f9b34fb")

var (
	// ServiceUUID identifies the node's humidity service.
	ServiceUUID = uuid.MustParse("4bf524fc-e77c-4b80-bbc6-1345b5f41d76")
	// HumidityUUID is the assigned Humidity characteristic (0x2A6F).
	HumidityUUID = FromUUID16(0x2A6F)
)

// HumidityDescription labels the characteristic on the banner. The radio stack
// has no descriptor support, so it is not served as a 0x2901 descriptor.
const HumidityDescription = "Humidity: [0,100]%"

// PayloadLen is the size of a characteristic read response.
const PayloadLen = 2

// FromUUID16 expands a 16-bit assigned number into a full UUID.
func FromUUID16(n uint16) uuid.UUID {
	u := bluetoothBase
	binary.BigEndian.PutUint16(u[2:4], n)
	return u
}

// Characteristic is the single readable value the node exposes.
type Characteristic struct {
	Service     uuid.UUID
	ID          uuid.UUID
	Description string

	read func() uint8
}

// Read produces the current reading as a read response payload.
func (c Characteristic) Read() []byte {
	return EncodeReading(c.read())
}

// EncodeReading renders v as the 2-byte little-endian unsigned percentage clients expect.
func EncodeReading(v uint8) []byte {
	b := make([]byte, PayloadLen)
	binary.LittleEndian.PutUint16(b, uint16(v))
	return b
}
