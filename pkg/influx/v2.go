package influx

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/sirupsen/logrus"

	"github.com/jertel/vuegraf/pkg/config"
	"github.com/jertel/vuegraf/pkg/usage"
)

// v2Writer writes through the InfluxDB 2.x blocking API so a failed
// write surfaces on the tick that produced the batch.
type v2Writer struct {
	client influxdb2.Client
	write  api.WriteAPIBlocking
	org    string
	bucket string
}

func newV2(cfg config.InfluxDB, reset bool) (*v2Writer, error) {
	logrus.Info("using InfluxDB version 2")

	opts := influxdb2.DefaultOptions().
		SetHTTPRequestTimeout(uint(writeTimeout / time.Second))
	if !cfg.SSLVerify {
		opts = opts.SetTLSConfig(&tls.Config{InsecureSkipVerify: true}) // #nosec G402 -- explicit config opt-out
	}

	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, opts)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if _, err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("influxdb ping failed: %w", err)
	}

	w := &v2Writer{
		client: client,
		write:  client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		org:    cfg.Org,
		bucket: cfg.Bucket,
	}

	if reset {
		if err := w.reset(ctx); err != nil {
			client.Close()
			return nil, err
		}
	}
	return w, nil
}

// reset deletes every stored usage point up to now.
func (w *v2Writer) reset(ctx context.Context) error {
	logrus.Warn("resetting database")
	predicate := fmt.Sprintf(`_measurement="%s"`, usage.Measurement)
	err := w.client.DeleteAPI().DeleteWithName(ctx, w.org, w.bucket, time.Unix(0, 0), time.Now(), predicate)
	if err != nil {
		return fmt.Errorf("error resetting database: %w", err)
	}
	return nil
}

func (w *v2Writer) WriteBatch(ctx context.Context, points []usage.Point) error {
	if len(points) == 0 {
		return nil
	}
	records := make([]*write.Point, 0, len(points))
	for _, p := range points {
		records = append(records, influxdb2.NewPoint(usage.Measurement, tags(p), fields(p), p.Time))
	}
	if err := w.write.WritePoint(ctx, records...); err != nil {
		return fmt.Errorf("error writing points: %w", err)
	}
	logrus.WithField("points", len(records)).Debug("wrote batch")
	return nil
}

func (w *v2Writer) Close() {
	w.client.Close()
}
