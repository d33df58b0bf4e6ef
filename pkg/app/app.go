package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jertel/vuegraf/pkg/account"
	"github.com/jertel/vuegraf/pkg/config"
	"github.com/jertel/vuegraf/pkg/influx"
	"github.com/jertel/vuegraf/pkg/usage"
	"github.com/jertel/vuegraf/pkg/vue"
)

// historyWindowPause throttles backfill chart queries between windows.
var historyWindowPause = 5 * time.Second

// App runs the collection loop: once per tick it decides which
// granularities are due, pulls usage for every account and submits one
// batch per account. All state below is owned by the loop goroutine.
type App struct {
	wg       *sync.WaitGroup
	cfg      *config.Config
	writer   influx.Writer
	accounts []*account.Account
	location *time.Location

	// detailedStart is the checkpoint the next seconds-detail series
	// resumes from. pastDay marks the end of the local day whose daily
	// rollup was last collected. historyDays is consumed by the
	// one-time backfill.
	detailedStart time.Time
	pastDay       time.Time
	historyDays   int
}

func New(cfg *config.Config, cli *config.CliConfig, writer influx.Writer, newAPI func() vue.API) (*App, error) {
	location, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	accounts := make([]*account.Account, 0, len(cfg.Accounts))
	for _, ac := range cfg.Accounts {
		accounts = append(accounts, account.New(ac, newAPI()))
	}

	now := time.Now()
	return &App{
		wg:            &sync.WaitGroup{},
		cfg:           cfg,
		writer:        writer,
		accounts:      accounts,
		location:      location,
		detailedStart: now.UTC(),
		pastDay:       endOfDay(now.In(location)),
		historyDays:   cli.CappedHistoryDays(),
	}, nil
}

func (a *App) Start(ctx context.Context) error {
	a.wg.Add(1)
	go a.loop(ctx)
	return nil
}

func (a *App) Wait() {
	a.wg.Wait()
}

func (a *App) loop(ctx context.Context) {
	defer a.wg.Done()
	for {
		a.tick(ctx)
		if !sleep(ctx, a.cfg.UpdateInterval()) {
			return
		}
	}
}

// tick runs one collection pass over all accounts. Failures are
// contained per account; the next tick retries everything due.
func (a *App) tick(ctx context.Context) {
	now := time.Now().UTC()
	curDay := time.Now().In(a.location)
	stopTime := now.Add(-a.cfg.Lag())

	sinceDetail := stopTime.Sub(a.detailedStart)
	collectDetails := a.cfg.DetailedDataEnabled &&
		a.cfg.DetailedIntervalSecs > 0 &&
		sinceDetail >= a.cfg.DetailedInterval()
	dayAdvanced := a.pastDay.Day() != curDay.Day()

	logrus.WithFields(logrus.Fields{
		"collectDetails":  collectDetails,
		"sinceDetailSecs": int(sinceDetail.Seconds()),
		"dayAdvanced":     dayAdvanced,
	}).Debug("starting next collection")

	for _, acc := range a.accounts {
		if ctx.Err() != nil {
			return
		}
		err := a.collectAccount(ctx, acc, stopTime, collectDetails, dayAdvanced)
		if err != nil && ctx.Err() == nil {
			logrus.WithError(err).WithField("account", acc.Name()).Error("failed to record new usage data")
		}
	}

	if dayAdvanced {
		a.pastDay = endOfDay(time.Now().In(a.location))
	}
	if collectDetails {
		a.detailedStart = stopTime.Add(time.Second)
	}
}

func (a *App) collectAccount(ctx context.Context, acc *account.Account, stopTime time.Time, collectDetails, dayAdvanced bool) error {
	if err := acc.EnsureSession(ctx); err != nil {
		return err
	}

	ex := usage.NewExtractor(acc.Name(), acc, acc.API(), a.location)
	var batch []usage.Point

	gids := acc.DeviceGIDs()
	usages, err := acc.API().DeviceListUsage(ctx, gids, stopTime, vue.ScaleMinute)
	if err != nil {
		return fmt.Errorf("live usage: %w", err)
	}
	liveReq := usage.Request{
		Kind:           usage.KindLive,
		StopTime:       stopTime,
		CollectSeconds: collectDetails && a.cfg.DetailedDataSecondsEnabled,
		DetailStart:    a.detailedStart,
	}
	for _, device := range usages {
		if err := ex.Extract(ctx, *device, liveReq, &batch); err != nil {
			return err
		}
	}

	if collectDetails && a.cfg.DetailedDataHoursEnabled {
		pastHour := stopTime.Add(-time.Hour).Truncate(time.Hour)
		logrus.WithField("hour", pastHour).Debug("collecting previous hour")
		hourUsages, err := acc.API().DeviceListUsage(ctx, gids, pastHour, vue.ScaleHour)
		if err != nil {
			return fmt.Errorf("hourly usage: %w", err)
		}
		req := usage.Request{Kind: usage.KindHour, Start: pastHour}
		for _, device := range hourUsages {
			if err := ex.Extract(ctx, *device, req, &batch); err != nil {
				return err
			}
		}
	}

	if dayAdvanced {
		logrus.WithField("day", a.pastDay).Debug("collecting previous day")
		dayUsages, err := acc.API().DeviceListUsage(ctx, gids, a.pastDay, vue.ScaleDay)
		if err != nil {
			return fmt.Errorf("daily usage: %w", err)
		}
		req := usage.Request{Kind: usage.KindDay, Start: a.pastDay.UTC()}
		for _, device := range dayUsages {
			if err := ex.Extract(ctx, *device, req, &batch); err != nil {
				return err
			}
		}
	}

	if a.historyDays > 0 {
		if err := a.collectHistory(ctx, ex, usages, stopTime, &batch); err != nil {
			return err
		}
		a.historyDays = 0
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	logrus.WithFields(logrus.Fields{
		"account": acc.Name(),
		"points":  len(batch),
	}).Info("submitting datapoints to database")
	if err := a.writer.WriteBatch(ctx, batch); err != nil {
		return fmt.Errorf("writing %d points: %w", len(batch), err)
	}
	return nil
}

// collectHistory backfills hourly and daily series over the requested
// range in bounded windows, pausing between windows to spare the API.
// A shutdown signal abandons the remaining windows.
func (a *App) collectHistory(ctx context.Context, ex *usage.Extractor, usages map[int64]*vue.Device, stopTime time.Time, batch *[]usage.Point) error {
	logrus.WithField("days", a.historyDays).Info("loading historical data")

	start := startOfDay(stopTime.AddDate(0, 0, -a.historyDays).In(a.location))
	for _, w := range historyWindows(start, stopTime, a.location) {
		logrus.WithFields(logrus.Fields{
			"start": w.Start,
			"end":   w.End,
		}).Debug("history window")

		req := usage.Request{Kind: usage.KindHistory, Start: w.Start, End: w.End}
		for _, device := range usages {
			if err := ex.Extract(ctx, *device, req, batch); err != nil {
				return err
			}
		}

		if !sleep(ctx, historyWindowPause) {
			return nil
		}
	}
	return nil
}
