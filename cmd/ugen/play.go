package main

import (
	"context"
	"errors"
	"os"
	ossignal "os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/dudk/ugen/portaudio"
)

type playCmd struct {
	*app
	seconds float64
}

func newPlayCmd(a *app) *cobra.Command {
	p := &playCmd{app: a}
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play patch on the default output device",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return p.run(cmd.Context())
		},
	}
	cmd.Flags().Float64VarP(&p.seconds, "seconds", "s", 0, "playback duration, zero plays until interrupted")
	return cmd
}

func (p *playCmd) run(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, err := p.context()
	if err != nil {
		return err
	}
	stop := p.serveMetrics()
	defer stop()

	runCtx, cancel := ossignal.NotifyContext(parent, os.Interrupt)
	defer cancel()
	if p.seconds > 0 {
		var timeout context.CancelFunc
		runCtx, timeout = context.WithTimeout(runCtx, time.Duration(p.seconds*float64(time.Second)))
		defer timeout()
	}

	s, err := portaudio.NewSink(ctx.SampleRate(), ctx.Channels(), ctx.BufferSize())
	if err != nil {
		return err
	}
	p.log.Info("playing")
	err = ctx.Run(runCtx, s)
	if cerr := s.Close(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	p.log.WithField("duration", ctx.Time()).Info("stopped")
	return err
}
