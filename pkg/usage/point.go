package usage

import "time"

// Measurement is the series every point is written to.
const Measurement = "energy_usage"

// Detail is the value of the "detailed" tag. The stringified booleans
// match series written by earlier releases; changing them would orphan
// existing dashboards.
type Detail string

const (
	DetailNone    Detail = "False"
	DetailSeconds Detail = "True"
	DetailHour    Detail = "Hour"
	DetailDay     Detail = "Day"
)

// Point is one normalized usage sample, ready for the batch writer.
type Point struct {
	Account  string
	Channel  string
	Detailed Detail
	Watts    float64
	Time     time.Time
}

// New builds a point, forcing the timestamp to UTC.
func New(account, channel string, detailed Detail, watts float64, ts time.Time) Point {
	return Point{
		Account:  account,
		Channel:  channel,
		Detailed: detailed,
		Watts:    watts,
		Time:     ts.UTC(),
	}
}

const (
	wattsPerKw     = 1000
	minutesPerHour = 60
	secondsPerHour = 3600
)

// LiveWatts converts a one-minute kWh reading to average watts.
func LiveWatts(kwh float64) float64 {
	return kwh * minutesPerHour * wattsPerKw
}

// RollupWatts converts an hourly or daily kWh total to watts. Daily
// totals deliberately share the per-hour factor (no division by 24);
// the stored scale is what existing dashboards graph against.
func RollupWatts(kwh float64) float64 {
	return kwh * wattsPerKw
}

// SecondWatts converts a one-second kWh reading to average watts.
func SecondWatts(kwh float64) float64 {
	return kwh * secondsPerHour * wattsPerKw
}
