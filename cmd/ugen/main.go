// Command ugen renders and plays patches described by YAML configuration.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dudk/ugen"
	"github.com/dudk/ugen/config"
	"github.com/dudk/ugen/metric"
	"github.com/dudk/ugen/mp3"
	"github.com/dudk/ugen/signal"
	"github.com/dudk/ugen/wav"
)

var (
	successExitCode = 0
	errorExitCode   = 1
)

// errUnsupportedOutput is returned for output files other than wav and mp3.
var errUnsupportedOutput = errors.New("unsupported output file")

// app holds state shared by commands.
type app struct {
	configPath  string
	metricsAddr string

	cfg   *config.Config
	log   *logrus.Logger
	meter *metric.Meter
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(errorExitCode)
	}
	os.Exit(successExitCode)
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "ugen",
		Short:         "Render and play unit generator patches",
		SilenceUsage:  true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.load()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to YAML configuration")
	root.PersistentFlags().StringVar(&a.metricsAddr, "metrics", "", "address to serve Prometheus metrics on, e.g. :9100")
	root.AddCommand(
		newRenderCmd(a),
		newPlayCmd(a),
		newInfoCmd(a),
	)
	return root
}

func (a *app) load() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.metricsAddr != "" {
		cfg.Metrics.Listen = a.metricsAddr
	}
	a.cfg = cfg
	a.log = cfg.Logger()
	a.meter = metric.New()
	return nil
}

// context creates audio context and builds the patch.
func (a *app) context() (*ugen.Context, error) {
	ctx, err := ugen.New(append(a.cfg.Options(), ugen.WithMetrics(a.meter))...)
	if err != nil {
		return nil, err
	}
	if _, err := a.cfg.Patch.Build(ctx); err != nil {
		return nil, fmt.Errorf("failed to build patch: %w", err)
	}
	return ctx, nil
}

// serveMetrics starts metrics endpoint if configured. Returned function
// stops it.
func (a *app) serveMetrics() func() {
	if a.cfg.Metrics.Listen == "" {
		return func() {}
	}
	srv := &http.Server{
		Addr:              a.cfg.Metrics.Listen,
		Handler:           a.meter.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.WithError(err).Error("metrics server failed")
		}
	}()
	a.log.WithField("addr", srv.Addr).Info("serving metrics")
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			a.log.WithError(err).Warn("metrics server shutdown")
		}
	}
}

// sink is a ugen.Sink that must be closed.
type sink interface {
	ugen.Sink
	io.Closer
}

func newFileSink(path string, sampleRate float64, channels, bitDepth, bitRate int) (sink, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return wav.NewSink(path, int(sampleRate), channels, signal.BitDepth(bitDepth))
	case ".mp3":
		return mp3.NewSink(path, int(sampleRate), channels, bitRate, 2)
	}
	return nil, fmt.Errorf("%s: %w", path, errUnsupportedOutput)
}
