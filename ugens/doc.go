// Package ugens provides unit generators for ugen graphs: signal sources,
// effects, envelopes, timers and recorders.
//
// Every type is a ugen.Processor. Node method adds it to a context with
// required number of inputs and outputs.
package ugens
