package influx

import (
	"context"
	"fmt"

	client "github.com/influxdata/influxdb1-client/v2"
	"github.com/sirupsen/logrus"

	"github.com/jertel/vuegraf/pkg/config"
	"github.com/jertel/vuegraf/pkg/usage"
)

type v1Writer struct {
	client   client.Client
	database string
}

func newV1(cfg config.InfluxDB, reset bool) (*v1Writer, error) {
	logrus.Info("using InfluxDB version 1")

	scheme := "http"
	if cfg.SSLEnable {
		scheme = "https"
	}

	c, err := client.NewHTTPClient(client.HTTPConfig{
		Addr:               fmt.Sprintf("%s://%s:%d", scheme, cfg.Host, cfg.Port),
		Username:           cfg.User,
		Password:           cfg.Pass,
		Timeout:            writeTimeout,
		InsecureSkipVerify: !cfg.SSLVerify,
	})
	if err != nil {
		return nil, fmt.Errorf("error connecting to influxdb: %w", err)
	}

	if _, _, err := c.Ping(pingTimeout); err != nil {
		c.Close()
		return nil, fmt.Errorf("influxdb ping failed: %w", err)
	}

	w := &v1Writer{client: c, database: cfg.Database}

	if err := w.query(fmt.Sprintf("CREATE DATABASE %q", cfg.Database)); err != nil {
		c.Close()
		return nil, fmt.Errorf("error creating database: %w", err)
	}

	if reset {
		logrus.Warn("resetting database")
		if err := w.query(fmt.Sprintf("DROP SERIES FROM %q", usage.Measurement)); err != nil {
			c.Close()
			return nil, fmt.Errorf("error resetting database: %w", err)
		}
	}
	return w, nil
}

func (w *v1Writer) query(q string) error {
	resp, err := w.client.Query(client.NewQuery(q, w.database, ""))
	if err != nil {
		return err
	}
	return resp.Error()
}

func (w *v1Writer) WriteBatch(ctx context.Context, points []usage.Point) error {
	if len(points) == 0 {
		return nil
	}

	bp, err := client.NewBatchPoints(client.BatchPointsConfig{Database: w.database})
	if err != nil {
		return err
	}
	for _, p := range points {
		pt, err := client.NewPoint(usage.Measurement, tags(p), fields(p), p.Time)
		if err != nil {
			return fmt.Errorf("error building point for %s: %w", p.Channel, err)
		}
		bp.AddPoint(pt)
	}

	if err := w.client.Write(bp); err != nil {
		return fmt.Errorf("error writing points: %w", err)
	}
	logrus.WithField("points", len(points)).Debug("wrote batch")
	return nil
}

func (w *v1Writer) Close() {
	w.client.Close()
}
