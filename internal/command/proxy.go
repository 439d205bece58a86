package command

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

type loopBuffer struct {
	n    int
	body Actions
}

// Proxy sits between the input worker and the simulation. It expands loops,
// forks concurrent batches onto their own workers and executes sleeps, so
// the simulation only ever sees plain actions.
type Proxy struct {
	out    chan<- Actions
	logger *log.Logger

	pending  Actions
	loop     *loopBuffer
	conc     Actions
	concOpen bool

	wg sync.WaitGroup
}

// NewProxy returns a proxy that forwards rewritten batches to out.
func NewProxy(out chan<- Actions, logger *log.Logger) *Proxy {
	return &Proxy{out: out, logger: logger.WithPrefix("proxy")}
}

// Run consumes batches from in until it is closed, a KillSimulation passes
// through or ctx is cancelled. Pending output is flushed at the end of every
// incoming batch. Run waits for its concurrent workers before returning.
func (p *Proxy) Run(ctx context.Context, in <-chan Actions) error {
	defer p.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case batch, ok := <-in:
			if !ok {
				p.flush(ctx)
				return nil
			}
			for _, a := range batch {
				if stop := p.handle(ctx, a); stop {
					if err := ctx.Err(); err != nil {
						return err
					}
					return nil
				}
			}
			p.flush(ctx)
		}
	}
}

// handle interprets one action. It reports true once the proxy must stop.
func (p *Proxy) handle(ctx context.Context, a Action) bool {
	if p.loop != nil {
		switch a.(type) {
		case EndLoop:
			lb := p.loop
			p.loop = nil
			for range lb.n {
				for _, b := range lb.body {
					if p.handle(ctx, b) {
						return true
					}
				}
			}
		case Loop:
			p.logger.Warn("nested loops are not supported, ignoring", "action", a)
		default:
			p.loop.body = append(p.loop.body, a)
		}
		return false
	}

	switch a := a.(type) {
	case Loop:
		p.loop = &loopBuffer{n: a.N}
	case EndLoop:
		p.logger.Debug("endloop without loop")
	case StartConcurrency:
		if p.concOpen {
			p.logger.Warn("concurrency block already open")
		}
		p.concOpen = true
	case DoConcurrently:
		if !p.concOpen {
			p.logger.Warn("doconc outside of a concurrency block, ignoring")
			return false
		}
		snapshot := p.conc
		p.conc = nil
		p.fork(ctx, snapshot)
	case EndConcurrency:
		if !p.concOpen {
			p.logger.Warn("endconc without conc, ignoring")
			return false
		}
		rest := p.conc
		p.conc, p.concOpen = nil, false
		for _, b := range rest {
			if p.handle(ctx, b) {
				return true
			}
		}
	case KillSimulation:
		p.pending = append(p.pending, a)
		p.flush(ctx)
		return true
	case Sleep:
		if p.concOpen {
			p.conc = append(p.conc, a)
			return false
		}
		p.flush(ctx)
		return !sleep(ctx, a.Duration)
	default:
		if p.concOpen {
			p.conc = append(p.conc, a)
			return false
		}
		p.pending = append(p.pending, a)
	}
	return ctx.Err() != nil
}

// fork hands a snapshot of the concurrency buffer to its own worker. The
// worker honours sleeps in the snapshot without holding up the proxy.
func (p *Proxy) fork(ctx context.Context, snapshot Actions) {
	if len(snapshot) == 0 {
		return
	}
	p.logger.Debug("forking concurrent batch", "actions", len(snapshot))
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		var buf Actions
		for _, a := range snapshot {
			switch a := a.(type) {
			case Sleep:
				if !send(ctx, p.out, buf) {
					return
				}
				buf = nil
				if !sleep(ctx, a.Duration) {
					return
				}
			default:
				buf = append(buf, a)
			}
		}
		send(ctx, p.out, buf)
	}()
}

func (p *Proxy) flush(ctx context.Context) {
	if send(ctx, p.out, p.pending) {
		p.pending = nil
	}
}

func send(ctx context.Context, out chan<- Actions, batch Actions) bool {
	if len(batch) == 0 {
		return true
	}
	select {
	case out <- batch:
		return true
	case <-ctx.Done():
		return false
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
