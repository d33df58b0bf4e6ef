package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/koding/multiconfig"
	"github.com/sirupsen/logrus"

	"github.com/jertel/vuegraf/pkg/app"
	"github.com/jertel/vuegraf/pkg/config"
	"github.com/jertel/vuegraf/pkg/influx"
	"github.com/jertel/vuegraf/pkg/version"
	"github.com/jertel/vuegraf/pkg/vue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM)
	defer stop()
	err := Run(ctx)
	if err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

func Run(ctx context.Context) error {
	cli := &config.CliConfig{}
	err := multiconfig.New().Load(cli)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	lvl, err := logrus.ParseLevel(cli.LogLevel)
	if err != nil {
		return fmt.Errorf("error setting logrus loglevel: %w", err)
	}
	logrus.SetLevel(lvl)
	logrus.WithField("version", version.String()).Info("starting vuegraf")

	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"updateIntervalSecs":         cfg.UpdateIntervalSecs,
		"detailedDataEnabled":        cfg.DetailedDataEnabled,
		"detailedIntervalSecs":       cfg.DetailedIntervalSecs,
		"detailedDataHoursEnabled":   cfg.DetailedDataHoursEnabled,
		"detailedDataSecondsEnabled": cfg.DetailedDataSecondsEnabled,
		"lagSecs":                    cfg.LagSecs,
		"timezone":                   cfg.Timezone,
	}).Info("settings")

	writer, err := influx.New(cfg.InfluxDB, cli.ResetDatabase)
	if err != nil {
		return err
	}
	defer writer.Close()

	a, err := app.New(cfg, cli, writer, func() vue.API {
		return vue.NewClient()
	})
	if err != nil {
		return err
	}
	if err := a.Start(ctx); err != nil {
		return err
	}

	a.Wait()
	logrus.Info("finished")
	return nil
}
