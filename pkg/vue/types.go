package vue

import (
	"context"
	"time"
)

// Scale is the temporal resolution of a usage query.
type Scale string

const (
	ScaleSecond Scale = "1S"
	ScaleMinute Scale = "1MIN"
	ScaleHour   Scale = "1H"
	ScaleDay    Scale = "1D"
)

// ChannelNumAll is the composite channel covering all legs of a
// device's mains feed.
const ChannelNumAll = "1,2,3"

// Device is a metering device as reported by the cloud. Usage queries
// return the same shape with per-channel kWh filled in.
type Device struct {
	GID      int64
	Name     string
	Channels []Channel
}

// Channel is a single meterable circuit. Num may be a composite such
// as "1,2,3" or a pseudo channel like "Balance". Usage is nil when the
// cloud has no reading for the queried window. NestedDevices carry
// sub-metered loads plugged in behind this channel.
type Channel struct {
	DeviceGID     int64
	Num           string
	Name          string
	Usage         *float64
	NestedDevices []Device
}

// API is the slice of the cloud service the collector consumes.
type API interface {
	Login(ctx context.Context, email, password string) error
	Devices(ctx context.Context) ([]Device, error)
	DeviceListUsage(ctx context.Context, gids []int64, instant time.Time, scale Scale) (map[int64]*Device, error)
	ChartUsage(ctx context.Context, ch Channel, start, end time.Time, scale Scale) ([]*float64, time.Time, error)
}
