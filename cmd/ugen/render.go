package main

import (
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dudk/ugen"
	"github.com/dudk/ugen/repeat"
)

type renderCmd struct {
	*app
	outs     []string
	seconds  float64
	bitDepth int
	bitRate  int
}

func newRenderCmd(a *app) *cobra.Command {
	r := &renderCmd{app: a}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render patch into wav or mp3 file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.run(cmd)
		},
	}
	cmd.Flags().StringSliceVarP(&r.outs, "out", "o", nil, "output files, wav or mp3 (required)")
	cmd.Flags().Float64VarP(&r.seconds, "seconds", "s", 10, "duration of rendered audio")
	cmd.Flags().IntVar(&r.bitDepth, "bit-depth", 16, "wav bit depth")
	cmd.Flags().IntVar(&r.bitRate, "bit-rate", 192, "mp3 bit rate")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func (r *renderCmd) run(cmd *cobra.Command) error {
	if r.seconds <= 0 {
		return fmt.Errorf("invalid duration %v", r.seconds)
	}
	ctx, err := r.context()
	if err != nil {
		return err
	}
	stop := r.serveMetrics()
	defer stop()

	sinks := make([]ugen.Sink, 0, len(r.outs))
	for _, out := range r.outs {
		s, err := newFileSink(out, ctx.SampleRate(), ctx.Channels(), r.bitDepth, r.bitRate)
		if err != nil {
			return errors.Join(err, repeat.New(sinks...).Close())
		}
		sinks = append(sinks, s)
	}
	repeater := repeat.New(sinks...)
	blocks := int(math.Ceil(r.seconds * ctx.SampleRate() / float64(ctx.BufferSize())))
	err = ctx.Render(blocks, repeater)
	if cerr := repeater.Close(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	if err != nil {
		return err
	}
	r.log.WithFields(logrus.Fields{
		"out":      r.outs,
		"duration": ctx.Time(),
		"nodes":    ctx.Len(),
	}).Info("rendered")
	for _, out := range r.outs {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", out, ctx.Time())
	}
	return nil
}
