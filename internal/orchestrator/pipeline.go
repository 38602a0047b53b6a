package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"wallet-analytics/internal/observability"
)

// Pipeline turns input changes into cycles. Triggers within the debounce
// window collapse into one cycle. Each cycle gets a new generation that
// cancels the cycle in flight; results of superseded generations are
// discarded.
type Pipeline struct {
	orch     *Orchestrator
	debounce time.Duration
	onResult func(*Result)
	logger   logrus.FieldLogger

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	timer      *time.Timer
	pending    Input
	generation uint64
	inflight   context.CancelFunc
	latest     *Result
	lastErr    error
	closed     bool

	wg sync.WaitGroup
}

// NewPipeline creates a pipeline bound to ctx. onResult, when non-nil,
// receives every published result from a cycle goroutine.
func (o *Orchestrator) NewPipeline(ctx context.Context, onResult func(*Result)) *Pipeline {
	pctx, cancel := context.WithCancel(ctx)
	return &Pipeline{
		orch:     o,
		debounce: o.debounce,
		onResult: onResult,
		logger:   o.logger.WithField("component", "pipeline"),
		ctx:      pctx,
		cancel:   cancel,
	}
}

// Trigger schedules a cycle for in after the debounce window. A trigger
// inside the window replaces the pending input and restarts the window.
func (p *Pipeline) Trigger(in Input) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	p.pending = in
	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = time.AfterFunc(p.debounce, p.fire)
}

// fire starts a new generation with the pending input.
func (p *Pipeline) fire() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.generation++
	gen := p.generation
	if p.inflight != nil {
		p.inflight()
		observability.RecordSuperseded()
	}
	ctx, cancel := context.WithCancel(p.ctx)
	p.inflight = cancel
	in := p.pending
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		defer cancel()

		res, err := p.orch.Run(ctx, in)
		p.publish(gen, in, res, err)
	}()
}

// publish stores the outcome of gen unless a newer generation has started.
func (p *Pipeline) publish(gen uint64, in Input, res *Result, err error) {
	p.mu.Lock()
	if gen != p.generation {
		p.mu.Unlock()
		p.logger.WithField("generation", gen).Debug("discarding superseded cycle")
		return
	}
	p.inflight = nil
	if err != nil {
		p.lastErr = err
		p.mu.Unlock()
		if p.ctx.Err() == nil {
			p.logger.WithError(err).WithFields(logrus.Fields{
				"address":    in.Address,
				"generation": gen,
			}).Warn("analytics cycle failed")
		}
		return
	}
	res.Generation = gen
	p.latest = res
	p.lastErr = nil
	p.mu.Unlock()

	if p.onResult != nil {
		p.onResult(res)
	}
}

// Latest returns the newest published result, or nil before the first one.
func (p *Pipeline) Latest() *Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest
}

// Err returns the error of the newest generation, nil when it succeeded.
func (p *Pipeline) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// Generation returns the number of cycles started so far.
func (p *Pipeline) Generation() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generation
}

// Close stops pending triggers, cancels the running cycle and waits for it.
func (p *Pipeline) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	if p.timer != nil {
		p.timer.Stop()
	}
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()
}
