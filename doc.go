/*
Package ugen implements a real-time audio engine built as a graph of unit
generators.

Concept

The engine computes fixed-size blocks of samples. Every block is produced
by pulling the root node of the Context: each node pulls its sources first,
then computes its own outputs. A node is computed at most once per time
step no matter how many consumers pull it:

    ctx, err := ugen.New(ugen.WithBufferSize(256), ugen.WithChannels(2))
    osc := ugens.NewWavePlayer(440).Node(ctx)
    err = ctx.Out.ConnectAll(osc)
    err = ctx.Render(100, sink)

Nodes

A node is created from a Processor and a fixed number of inputs and
outputs. Node values are handles: they can be copied and compared, and
they resolve to nothing once the node is killed. Connections, dependents
and lifecycle can be changed from any goroutine while the graph is being
computed. Computation itself happens on a single goroutine.

Inputs

An input with no connections reads the shared zero buffer. An input with
one connection reads output of the source directly. An input with many
connections reads the sum of all sources. Killed sources are removed from
connection lists the next time they are traversed.

Cycles

Time step of a node is updated before its sources are pulled. If a node is
reached again through a cycle, consumers read its outputs of the previous
step.

Proxies

A node can delegate computation to other nodes: inputs are fed to the
input proxy and outputs of the output proxy become outputs of the node.
This allows to present a sub-graph as a single node.
*/
package ugen
