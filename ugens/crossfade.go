package ugens

import (
	"fmt"

	"github.com/dudk/ugen"
)

// Crossfade replaces source connected to target with destination within
// duration in milliseconds. Source is faded out and destination is faded
// in through temporary gains. When fades are complete, helper nodes are
// killed and destination is connected to target directly. Deleted source
// is not faded. Graph is not changed if nodes can't be linked.
func Crossfade(target, source, destination ugen.Node, ms float64) (err error) {
	if err := target.Check(destination); err != nil {
		return fmt.Errorf("crossfade destination: %w", err)
	}
	fadeSource := !source.Deleted()
	if fadeSource {
		if err := target.Check(source); err != nil {
			return fmt.Errorf("crossfade source: %w", err)
		}
	}

	ctx := target.Context()
	var helpers []ugen.Node
	defer func() {
		if err != nil {
			for _, h := range helpers {
				h.Kill()
			}
		}
	}()

	var gOut ugen.Node
	if fadeSource {
		fadeOut := NewEnvelope(1)
		out := fadeOut.Node(ctx, ugen.WithName("fade out"))
		gainOut := NewGain(source.Outs(), 1)
		gOut = gainOut.Node(ctx, ugen.WithName("fade out gain"))
		helpers = append(helpers, out, gOut)
		gainOut.Gain().Bind(out)
		if err := gOut.ConnectAll(source); err != nil {
			return err
		}
		fadeOut.AddSegment(0, ms, ugen.Listeners(ugen.KillTrigger(gOut), ugen.KillTrigger(out)))
	}

	fadeIn := NewEnvelope(0)
	in := fadeIn.Node(ctx, ugen.WithName("fade in"))
	gainIn := NewGain(destination.Outs(), 0)
	gIn := gainIn.Node(ctx, ugen.WithName("fade in gain"))
	helpers = append(helpers, in, gIn)
	gainIn.Gain().Bind(in)
	if err := gIn.ConnectAll(destination); err != nil {
		return err
	}
	fadeIn.AddSegment(1, ms, ugen.ListenerFunc(func(ugen.Node) {
		target.DisconnectAll(gIn)
		// target could be killed during the fade.
		_ = target.ConnectAll(destination)
		gIn.Kill()
		in.Kill()
	}))

	target.DisconnectAll(source)
	if fadeSource {
		if err := target.ConnectAll(gOut); err != nil {
			return err
		}
	}
	return target.ConnectAll(gIn)
}
