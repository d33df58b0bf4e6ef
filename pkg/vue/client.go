package vue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultBaseURL = "https://api.emporiaenergy.com"

var httpClient = &http.Client{
	Timeout: time.Second * 30,
}

// Client talks to the Emporia cloud API. It is not safe for concurrent
// use; the collector runs a single control loop.
type Client struct {
	baseURL string
	token   string
}

func NewClient() *Client {
	return &Client{baseURL: defaultBaseURL}
}

// NewClientWithBaseURL is used by tests to point the client at a local
// server.
func NewClientWithBaseURL(baseURL string) *Client {
	return &Client{baseURL: baseURL}
}

func (c *Client) Login(ctx context.Context, email, password string) error {
	body, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login failed StatusCode: %d", resp.StatusCode)
	}

	response := struct {
		AuthToken string `json:"authToken"`
	}{}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return err
	}
	if response.AuthToken == "" {
		return fmt.Errorf("login response contained no token")
	}
	c.token = response.AuthToken
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("authtoken", c.token)

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("error fetching %s StatusCode: %d", path, resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// wire shapes; the exported types stay free of transport tags.

type deviceResponse struct {
	DeviceGID          int64             `json:"deviceGid"`
	LocationProperties map[string]string `json:"locationProperties"`
	Channels           []channelResponse `json:"channels"`
	Devices            []deviceResponse  `json:"devices"`
}

type channelResponse struct {
	DeviceGID  int64  `json:"deviceGid"`
	Name       string `json:"name"`
	ChannelNum string `json:"channelNum"`
}

func (d deviceResponse) toDevice() Device {
	dev := Device{
		GID:  d.DeviceGID,
		Name: d.LocationProperties["deviceName"],
	}
	for _, ch := range d.Channels {
		dev.Channels = append(dev.Channels, Channel{
			DeviceGID: ch.DeviceGID,
			Num:       ch.ChannelNum,
			Name:      ch.Name,
		})
	}
	return dev
}

// Devices enumerates all devices on the account with their channel
// properties populated. Nested devices are flattened into the result,
// matching how the cloud reports sub-metered hardware.
func (c *Client) Devices(ctx context.Context) ([]Device, error) {
	response := struct {
		Devices []deviceResponse `json:"devices"`
	}{}
	if err := c.get(ctx, "/customers/devices", nil, &response); err != nil {
		return nil, err
	}

	var devices []Device
	var walk func(list []deviceResponse)
	walk = func(list []deviceResponse) {
		for _, d := range list {
			devices = append(devices, d.toDevice())
			walk(d.Devices)
		}
	}
	walk(response.Devices)
	return devices, nil
}

type usageDeviceResponse struct {
	DeviceGID     int64                  `json:"deviceGid"`
	ChannelUsages []channelUsageResponse `json:"channelUsages"`
}

type channelUsageResponse struct {
	DeviceGID     int64                 `json:"deviceGid"`
	Name          string                `json:"name"`
	ChannelNum    string                `json:"channelNum"`
	Usage         *float64              `json:"usage"`
	NestedDevices []usageDeviceResponse `json:"nestedDevices"`
}

func (d usageDeviceResponse) toDevice() Device {
	dev := Device{GID: d.DeviceGID}
	for _, ch := range d.ChannelUsages {
		channel := Channel{
			DeviceGID: ch.DeviceGID,
			Num:       ch.ChannelNum,
			Name:      ch.Name,
			Usage:     ch.Usage,
		}
		for _, nested := range ch.NestedDevices {
			channel.NestedDevices = append(channel.NestedDevices, nested.toDevice())
		}
		dev.Channels = append(dev.Channels, channel)
	}
	return dev
}

// DeviceListUsage returns the usage tree for the listed devices at the
// given instant and scale, in kWh.
func (c *Client) DeviceListUsage(ctx context.Context, gids []int64, instant time.Time, scale Scale) (map[int64]*Device, error) {
	if len(gids) == 0 {
		return map[int64]*Device{}, nil
	}

	ids := make([]string, 0, len(gids))
	for _, gid := range gids {
		ids = append(ids, strconv.FormatInt(gid, 10))
	}

	query := url.Values{}
	query.Set("apiMethod", "getDeviceListUsage")
	query.Set("deviceGids", strings.Join(ids, ","))
	query.Set("instant", instant.UTC().Format(time.RFC3339))
	query.Set("scale", string(scale))
	query.Set("energyUnit", "KilowattHours")

	response := struct {
		DeviceListUsages struct {
			Devices []usageDeviceResponse `json:"devices"`
		} `json:"deviceListUsages"`
	}{}
	if err := c.get(ctx, "/AppAPI", query, &response); err != nil {
		return nil, err
	}

	usages := make(map[int64]*Device, len(response.DeviceListUsages.Devices))
	for _, d := range response.DeviceListUsages.Devices {
		dev := d.toDevice()
		usages[dev.GID] = &dev
	}
	return usages, nil
}

// ChartUsage returns the per-interval kWh series for one channel over
// [start, end] at the given scale. Entries are nil where the cloud has
// no reading. The second return value is the instant of the first
// entry as reported by the cloud.
func (c *Client) ChartUsage(ctx context.Context, ch Channel, start, end time.Time, scale Scale) ([]*float64, time.Time, error) {
	query := url.Values{}
	query.Set("apiMethod", "getChartUsage")
	query.Set("deviceGid", strconv.FormatInt(ch.DeviceGID, 10))
	query.Set("channel", ch.Num)
	query.Set("start", start.UTC().Format(time.RFC3339))
	query.Set("end", end.UTC().Format(time.RFC3339))
	query.Set("scale", string(scale))
	query.Set("energyUnit", "KilowattHours")

	response := struct {
		UsageList         []*float64 `json:"usageList"`
		FirstUsageInstant time.Time  `json:"firstUsageInstant"`
	}{}
	if err := c.get(ctx, "/AppAPI", query, &response); err != nil {
		return nil, time.Time{}, err
	}

	logrus.WithFields(logrus.Fields{
		"channel": ch.Num,
		"scale":   scale,
		"entries": len(response.UsageList),
	}).Debug("fetched chart usage")
	return response.UsageList, response.FirstUsageInstant, nil
}
