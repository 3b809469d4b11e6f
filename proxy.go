package ugen

// SetProxy makes p compute on behalf of the node. Inputs of the node are
// fed to p and outputs of p become outputs of the node. Proxy is owned by
// the node: it's killed together with it. Proxy should not be connected
// elsewhere. If it's pulled by another node, it's still computed once per
// step, with inputs of whichever node pulls it first.
func (n Node) SetProxy(p Node) error {
	return n.setProxy(p, p)
}

// SetInputProxy sets the node that receives inputs of the node.
func (n Node) SetInputProxy(p Node) error {
	e, _, err := check(n, p)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.proxyIn = p.h
	e.mu.Unlock()
	return nil
}

// SetOutputProxy sets the node whose outputs become outputs of the node.
func (n Node) SetOutputProxy(p Node) error {
	e, _, err := check(n, p)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.proxyOut = p.h
	e.mu.Unlock()
	return nil
}

func (n Node) setProxy(in, out Node) error {
	e, _, err := check(n, in)
	if err != nil {
		return err
	}
	if _, _, err := check(n, out); err != nil {
		return err
	}
	e.mu.Lock()
	e.proxyIn, e.proxyOut = in.h, out.h
	e.mu.Unlock()
	return nil
}

// ClearProxy removes proxies. Proxy nodes are not killed.
func (n Node) ClearProxy() {
	if e := n.entry(); e != nil {
		e.mu.Lock()
		e.proxyIn, e.proxyOut = handle{}, handle{}
		e.mu.Unlock()
	}
}

// Proxies returns input and output proxies of the node.
func (n Node) Proxies() (in, out Node, ok bool) {
	e := n.entry()
	if e == nil {
		return Node{}, Node{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.proxyIn == (handle{}) && e.proxyOut == (handle{}) {
		return Node{}, Node{}, false
	}
	return Node{ctx: n.ctx, h: e.proxyIn}, Node{ctx: n.ctx, h: e.proxyOut}, true
}

// proxies returns live proxies of the node. Single configured proxy is
// used for both sides.
func (e *entry) proxies(c *Context) (in, out *entry, ok bool) {
	e.mu.Lock()
	hin, hout := e.proxyIn, e.proxyOut
	e.mu.Unlock()
	if hin == (handle{}) && hout == (handle{}) {
		return nil, nil, false
	}
	in, out = c.nodes.get(hin), c.nodes.get(hout)
	switch {
	case in == nil && out == nil:
		return nil, nil, false
	case in == nil:
		in = out
	case out == nil:
		out = in
	}
	return in, out, true
}

// computeProxy feeds inputs through proxies and adopts outputs of the
// output proxy. Proxy already computed within the step is not computed
// again.
func (e *entry) computeProxy(c *Context, in, out *entry) {
	step := c.step.Load()
	if in.lastStep != step {
		feed(in, e.bufIn, c)
		in.lastStep = step
		in.compute(c)
	}
	if out != in && out.lastStep != step {
		outs := in.outs
		for i := range out.bufIn {
			if outs == 0 {
				out.bufIn[i] = c.pool.Zero()
				continue
			}
			out.bufIn[i] = in.output(i%outs, c.pool)
		}
		out.lastStep = step
		out.compute(c)
	}
	e.retained = false
	for i := range e.bufOut {
		if out.outs == 0 {
			e.bufOut[i] = c.pool.Zero()
			continue
		}
		e.bufOut[i] = out.output(i%out.outs, c.pool)
	}
}

// feed sets inputs of the node cycling over provided buffers.
func feed(e *entry, bufs [][]float64, c *Context) {
	for i := range e.bufIn {
		if len(bufs) == 0 {
			e.bufIn[i] = c.pool.Zero()
			continue
		}
		e.bufIn[i] = bufs[i%len(bufs)]
	}
}
