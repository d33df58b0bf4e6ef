package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jertel/vuegraf/pkg/vue"
)

// Kind selects what an extraction pass produces from a device tree.
type Kind string

const (
	// KindLive emits one point per channel at the tick's stop time.
	KindLive Kind = "Live"
	// KindHour / KindDay emit one rollup point per channel at the
	// window start.
	KindHour Kind = "Hour"
	KindDay  Kind = "Day"
	// KindHistory emits hourly and daily series across the window via
	// per-channel chart queries; no aggregate point.
	KindHistory Kind = "History"
)

// Resolver maps a channel to the display name its points are tagged
// with.
type Resolver interface {
	ChannelName(ctx context.Context, ch vue.Channel) (string, error)
}

// ChartAPI is the slice of the cloud API used for seconds detail and
// history series.
type ChartAPI interface {
	ChartUsage(ctx context.Context, ch vue.Channel, start, end time.Time, scale vue.Scale) ([]*float64, time.Time, error)
}

// excludedDetailChannels are pseudo channels that never get
// seconds-level collection. Their aggregate usage still produces a
// point.
var excludedDetailChannels = map[string]bool{
	"Balance":    true,
	"TotalUsage": true,
}

// Request describes one extraction pass.
type Request struct {
	Kind Kind

	// Start is the window start for rollups and history; End is only
	// set for history windows.
	Start time.Time
	End   time.Time

	// StopTime is the tick's reference stop time. Live points carry it
	// as their timestamp and seconds detail ends at it.
	StopTime time.Time

	// CollectSeconds enables the per-second series from DetailStart to
	// StopTime on live passes.
	CollectSeconds bool
	DetailStart    time.Time
}

// Extractor walks device trees and appends normalized points to a
// caller-supplied batch.
type Extractor struct {
	account  string
	resolver Resolver
	api      ChartAPI
	location *time.Location
}

func NewExtractor(account string, resolver Resolver, api ChartAPI, location *time.Location) *Extractor {
	return &Extractor{
		account:  account,
		resolver: resolver,
		api:      api,
		location: location,
	}
}

// Extract converts one device's channels (and, depth-first, any nested
// devices) into points for the requested window. Channels with no
// usage value are skipped, never zeroed. API failures propagate so the
// caller's per-account boundary can contain them.
func (e *Extractor) Extract(ctx context.Context, device vue.Device, req Request, batch *[]Point) error {
	for _, ch := range device.Channels {
		for _, nested := range ch.NestedDevices {
			if err := e.Extract(ctx, nested, req, batch); err != nil {
				return err
			}
		}

		name, err := e.resolver.ChannelName(ctx, ch)
		if err != nil {
			return err
		}

		if ch.Usage != nil {
			switch req.Kind {
			case KindLive:
				*batch = append(*batch, New(e.account, name, DetailNone, LiveWatts(*ch.Usage), req.StopTime))
			case KindHour:
				*batch = append(*batch, New(e.account, name, DetailHour, RollupWatts(*ch.Usage), req.Start))
			case KindDay:
				*batch = append(*batch, New(e.account, name, DetailDay, RollupWatts(*ch.Usage), req.Start))
			}
		}

		if excludedDetailChannels[ch.Num] {
			continue
		}

		if req.Kind == KindLive && req.CollectSeconds {
			if err := e.extractSeconds(ctx, ch, name, req, batch); err != nil {
				return err
			}
		}

		if req.Kind == KindHistory {
			if err := e.extractHistory(ctx, ch, name, req, batch); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Extractor) extractSeconds(ctx context.Context, ch vue.Channel, name string, req Request, batch *[]Point) error {
	logrus.WithFields(logrus.Fields{
		"device": name,
		"start":  req.DetailStart,
		"stop":   req.StopTime,
	}).Debug("collecting second details")

	values, _, err := e.api.ChartUsage(ctx, ch, req.DetailStart, req.StopTime, vue.ScaleSecond)
	if err != nil {
		return fmt.Errorf("second series for %s: %w", name, err)
	}
	for i, kwh := range values {
		if kwh == nil {
			continue
		}
		ts := req.DetailStart.Add(time.Duration(i) * time.Second)
		*batch = append(*batch, New(e.account, name, DetailSeconds, SecondWatts(*kwh), ts))
	}
	return nil
}

func (e *Extractor) extractHistory(ctx context.Context, ch vue.Channel, name string, req Request, batch *[]Point) error {
	logrus.WithFields(logrus.Fields{
		"device": name,
		"start":  req.Start,
		"stop":   req.End,
	}).Debug("collecting historic details")

	hours, _, err := e.api.ChartUsage(ctx, ch, req.Start, req.End, vue.ScaleHour)
	if err != nil {
		return fmt.Errorf("hour series for %s: %w", name, err)
	}
	for i, kwh := range hours {
		if kwh == nil {
			continue
		}
		ts := req.Start.Add(time.Duration(i) * time.Hour)
		*batch = append(*batch, New(e.account, name, DetailHour, RollupWatts(*kwh), ts))
	}

	days, _, err := e.api.ChartUsage(ctx, ch, req.Start, req.End, vue.ScaleDay)
	if err != nil {
		return fmt.Errorf("day series for %s: %w", name, err)
	}
	for i, kwh := range days {
		if kwh == nil {
			continue
		}
		*batch = append(*batch, New(e.account, name, DetailDay, RollupWatts(*kwh), e.dayEnd(req.Start, i-1)))
	}
	return nil
}

// dayEnd pins a daily rollup to 23:59:59 local time on the window
// start's day plus the given offset, converted to UTC for storage.
func (e *Extractor) dayEnd(start time.Time, days int) time.Time {
	local := start.In(e.location).AddDate(0, 0, days)
	return time.Date(local.Year(), local.Month(), local.Day(), 23, 59, 59, 0, e.location).UTC()
}
