package influx

import (
	"context"
	"time"

	"github.com/jertel/vuegraf/pkg/config"
	"github.com/jertel/vuegraf/pkg/usage"
)

// Writer persists batches of usage points. One WriteBatch call is made
// per account per tick; the underlying client's atomicity applies, no
// partial-write recovery is attempted here.
type Writer interface {
	WriteBatch(ctx context.Context, points []usage.Point) error
	Close()
}

const (
	connectTimeout = 10 * time.Second
	pingTimeout    = 5 * time.Second
	writeTimeout   = 45 * time.Second
)

// New connects the writer selected by the configured version. When
// reset is set, all previously stored usage data is destroyed first.
func New(cfg config.InfluxDB, reset bool) (Writer, error) {
	if cfg.Version == 2 {
		return newV2(cfg, reset)
	}
	return newV1(cfg, reset)
}

func tags(p usage.Point) map[string]string {
	return map[string]string{
		"account_name": p.Account,
		"device_name":  p.Channel,
		"detailed":     string(p.Detailed),
	}
}

func fields(p usage.Point) map[string]interface{} {
	return map[string]interface{}{
		"usage": p.Watts,
	}
}
