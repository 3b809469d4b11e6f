package ugen_test

import (
	"fmt"

	"github.com/dudk/ugen"
	"github.com/dudk/ugen/ugens"
)

// Sources connected to the same input are summed.
func Example() {
	ctx, err := ugen.New(ugen.WithBufferSize(4), ugen.WithChannels(1))
	if err != nil {
		panic(err)
	}
	_ = ctx.Out.ConnectAll(ugens.NewStatic(0.25).Node(ctx))
	_ = ctx.Out.ConnectAll(ugens.NewStatic(0.5).Node(ctx))
	ctx.Tick()
	fmt.Println(ctx.Output()[0])
	// Output: [0.75 0.75 0.75 0.75]
}

// A node that reads itself gets its previous block.
func Example_cycle() {
	ctx, err := ugen.New(ugen.WithBufferSize(2), ugen.WithChannels(1))
	if err != nil {
		panic(err)
	}
	counter := ctx.New(ugen.ProcessorFunc(func(b *ugen.Block) {
		for i := range b.Out[0] {
			b.Out[0][i] = b.In[0][i] + 1
		}
	}), 1, 1)
	_ = counter.Connect(0, counter, 0)
	_ = ctx.Out.ConnectAll(counter)
	for i := 0; i < 3; i++ {
		ctx.Tick()
		fmt.Println(ctx.Output()[0])
	}
	// Output:
	// [1 1]
	// [2 2]
	// [3 3]
}

// Killed nodes are removed from the graph on next traversal.
func ExampleNode_Kill() {
	ctx, err := ugen.New(ugen.WithBufferSize(2), ugen.WithChannels(1))
	if err != nil {
		panic(err)
	}
	a := ugens.NewStatic(1).Node(ctx, ugen.WithName("a"))
	_ = ctx.Out.ConnectAll(a)
	a.OnKill(ugen.ListenerFunc(func(n ugen.Node) {
		fmt.Println("killed:", n.Deleted())
	}))
	ctx.Tick()
	fmt.Println(ctx.Output()[0], ctx.Len())
	a.Kill()
	ctx.Tick()
	fmt.Println(ctx.Output()[0], ctx.Len())
	// Output:
	// [1 1] 2
	// killed: true
	// [0 0] 1
}
