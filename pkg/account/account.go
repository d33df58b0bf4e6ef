package account

import (
	"context"
	"fmt"
	"strconv"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/jertel/vuegraf/pkg/config"
	"github.com/jertel/vuegraf/pkg/vue"
)

// Account pairs one set of cloud credentials with its session and the
// device/channel caches built from it. All methods run on the single
// collector thread; no locking.
type Account struct {
	cfg config.Account
	api vue.API

	loggedIn bool
	devices  map[int64]vue.Device
	channels map[string]vue.Channel
}

func New(cfg config.Account, api vue.API) *Account {
	return &Account{
		cfg:      cfg,
		api:      api,
		devices:  map[int64]vue.Device{},
		channels: map[string]vue.Channel{},
	}
}

func (a *Account) Name() string {
	return a.cfg.Name
}

func (a *Account) API() vue.API {
	return a.api
}

// EnsureSession logs in and populates the caches on first use. Login
// happens at most once per process run; populating is retried on every
// tick until the device cache holds something, so a transient outage
// during the first tick cannot strand the account with empty caches.
// A lost session surfaces as API errors on the tick that hits it.
func (a *Account) EnsureSession(ctx context.Context) error {
	if !a.loggedIn {
		if err := a.api.Login(ctx, a.cfg.Email, a.cfg.Password); err != nil {
			return fmt.Errorf("login failed for account %s: %w", a.cfg.Name, err)
		}
		a.loggedIn = true
		logrus.WithField("account", a.cfg.Name).Info("login completed")
	}
	if len(a.devices) == 0 {
		return a.PopulateDevices(ctx)
	}
	return nil
}

// DeviceGIDs snapshots the ids of all known devices.
func (a *Account) DeviceGIDs() []int64 {
	return lo.Keys(a.devices)
}

// PopulateDevices refetches every device and rebuilds both caches.
// This is the only mutation path for the caches.
func (a *Account) PopulateDevices(ctx context.Context) error {
	devices, err := a.api.Devices(ctx)
	if err != nil {
		return fmt.Errorf("listing devices for account %s: %w", a.cfg.Name, err)
	}

	a.devices = make(map[int64]vue.Device, len(devices))
	a.channels = make(map[string]vue.Channel)
	for _, device := range devices {
		a.devices[device.GID] = device
		for _, ch := range device.Channels {
			if ch.Name == "" && ch.Num == vue.ChannelNumAll {
				ch.Name = device.Name
			}
			a.channels[channelKey(device.GID, ch.Num)] = ch
			logrus.WithFields(logrus.Fields{
				"account": a.cfg.Name,
				"name":    ch.Name,
				"channel": ch.Num,
			}).Info("discovered new channel")
		}
	}
	return nil
}

// DeviceName resolves a device id to its display name, refetching the
// caches on a miss. An id still unknown after the refresh is rendered
// numerically so the point is not lost.
func (a *Account) DeviceName(ctx context.Context, gid int64) (string, error) {
	if _, ok := a.devices[gid]; !ok {
		if err := a.PopulateDevices(ctx); err != nil {
			return "", err
		}
	}
	if device, ok := a.devices[gid]; ok {
		return device.Name, nil
	}
	return strconv.FormatInt(gid, 10), nil
}

// ChannelName resolves a channel to the name its points are tagged
// with: the configured override when one covers this channel number,
// the bare device name for the "1,2,3" composite, otherwise
// "deviceName-channelNum".
func (a *Account) ChannelName(ctx context.Context, ch vue.Channel) (string, error) {
	if _, ok := a.devices[ch.DeviceGID]; !ok {
		if err := a.PopulateDevices(ctx); err != nil {
			return "", err
		}
	}

	deviceName, err := a.DeviceName(ctx, ch.DeviceGID)
	if err != nil {
		return "", err
	}

	num, err := strconv.Atoi(ch.Num)
	if err != nil {
		if ch.Num == vue.ChannelNumAll {
			return deviceName, nil
		}
		return fmt.Sprintf("%s-%s", deviceName, ch.Num), nil
	}

	for _, device := range a.cfg.Devices {
		if device.Name == deviceName && num >= 1 && len(device.Channels) >= num {
			return device.Channels[num-1], nil
		}
	}
	return fmt.Sprintf("%s-%s", deviceName, ch.Num), nil
}

// channel returns the cached channel for a device id and channel
// number, if known.
func (a *Account) channel(gid int64, num string) (vue.Channel, bool) {
	ch, ok := a.channels[channelKey(gid, num)]
	return ch, ok
}

func channelKey(gid int64, num string) string {
	return fmt.Sprintf("%d-%s", gid, num)
}
