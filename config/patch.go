package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dudk/ugen"
	"github.com/dudk/ugen/mp3"
	"github.com/dudk/ugen/sample"
	"github.com/dudk/ugen/ugens"
	"github.com/dudk/ugen/wav"
)

// ErrUnsupportedFile is returned for sample files other than wav and mp3.
var ErrUnsupportedFile = errors.New("unsupported sample file")

// LoadSample decodes wav or mp3 file by its extension.
func LoadSample(path string) (*sample.Sample, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return wav.Load(path)
	case ".mp3":
		return mp3.Load(path)
	}
	return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFile)
}

// Build creates patch nodes and connects them to the root node of the
// context through a gain limiter. The limiter node is returned.
func (p *Patch) Build(ctx *ugen.Context) (ugen.Node, error) {
	master := ugens.NewGainLimiter(ctx.Channels(), p.Gain).Node(ctx, ugen.WithName("master"))
	if err := ctx.Out.ConnectAll(master); err != nil {
		return ugen.Node{}, err
	}
	for i, o := range p.Oscillators {
		voice := o.build(ctx, fmt.Sprintf("osc%d", i))
		if err := master.ConnectAll(voice); err != nil {
			return ugen.Node{}, err
		}
	}
	if p.Bank != nil {
		if err := master.ConnectAll(p.Bank.build(ctx)); err != nil {
			return ugen.Node{}, err
		}
	}
	if p.Sample != nil {
		player, err := p.Sample.build(ctx)
		if err != nil {
			return ugen.Node{}, err
		}
		if err := master.ConnectAll(player); err != nil {
			return ugen.Node{}, err
		}
	}
	return master, nil
}

// build returns gain node of the voice. Envelope drives the gain when
// attack or release is set. Voice is killed after release.
func (o Oscillator) build(ctx *ugen.Context, name string) ugen.Node {
	// shape is checked by Validate.
	shape, _ := ugens.ParseShape(o.Shape)
	osc := ugens.NewWavePlayer(o.Frequency, ugens.WithShape(shape)).Node(ctx, ugen.WithName(name))
	gain := ugens.NewGain(1, o.Gain)
	voice := gain.Node(ctx, ugen.WithName(name+".gain"))
	// both nodes are fresh, connection can't fail.
	_ = voice.ConnectAll(osc)
	if o.Attack == 0 && o.Release == 0 {
		return voice
	}

	start := o.Gain
	if o.Attack > 0 {
		start = 0
	}
	env := ugens.NewEnvelope(start)
	envNode := env.Node(ctx, ugen.WithName(name+".env"))
	env.AddSegment(o.Gain, o.Attack, nil)
	if o.Release > 0 {
		env.AddSegment(o.Gain, o.Hold, nil)
		env.AddSegment(0, o.Release, ugen.Listeners(
			ugen.KillTrigger(voice),
			ugen.KillTrigger(osc),
			ugen.KillTrigger(envNode),
		))
	}
	gain.Gain().Bind(envNode)
	return voice
}

// build returns gain node of the bank.
func (b *Bank) build(ctx *ugen.Context) ugen.Node {
	shape, _ := ugens.ParseShape(b.Shape)
	bank := ugens.NewOscillatorBank(shape, len(b.Frequencies))
	bank.SetFrequencies(b.Frequencies...)
	bank.SetGains(b.Gains...)
	node := bank.Node(ctx, ugen.WithName("bank"))
	gain := ugens.NewGain(1, b.Gain).Node(ctx, ugen.WithName("bank.gain"))
	_ = gain.ConnectAll(node)
	return gain
}

func (s *Sample) build(ctx *ugen.Context) (ugen.Node, error) {
	smp, err := LoadSample(s.File)
	if err != nil {
		return ugen.Node{}, err
	}
	mode, err := sample.ParseInterpolation(s.Interpolation)
	if err != nil {
		return ugen.Node{}, err
	}
	player := ugens.NewSamplePlayer(smp)
	player.Rate().Set(s.Rate)
	player.SetLoop(s.Loop)
	player.SetInterpolation(mode)
	node := player.Node(ctx, ugen.WithName(filepath.Base(s.File)))

	gain := ugens.NewGain(smp.NumChannels(), s.Gain).Node(ctx, ugen.WithName("sample.gain"))
	_ = gain.ConnectAll(node)
	// player kills itself at the end, gain follows it.
	node.OnKill(ugen.KillTrigger(gain))
	return gain, nil
}
