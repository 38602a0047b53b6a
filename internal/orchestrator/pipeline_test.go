package orchestrator

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-analytics/internal/domain"
)

const debounce = 20 * time.Millisecond

type collector struct {
	mu      sync.Mutex
	results []*Result
}

func (c *collector) add(r *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, r)
}

func (c *collector) all() []*Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Result(nil), c.results...)
}

func TestPipeline_DebounceCollapsesBurst(t *testing.T) {
	var calls atomic.Int32
	holdings := holdingsFunc(func(context.Context, string) ([]domain.Holding, error) {
		calls.Add(1)
		return portfolio(), nil
	})
	o := newTestOrchestrator(t, Options{Holdings: holdings, Debounce: debounce})

	var got collector
	p := o.NewPipeline(context.Background(), got.add)
	defer p.Close()

	p.Trigger(input(domain.Period1D))
	p.Trigger(input(domain.Period7D))
	p.Trigger(input(domain.Period30D))

	require.Eventually(t, func() bool { return p.Latest() != nil }, 2*time.Second, 5*time.Millisecond)

	res := p.Latest()
	assert.Equal(t, domain.Period30D, res.Input.Period, "last trigger in the window wins")
	assert.Equal(t, uint64(1), res.Generation)
	assert.Equal(t, int32(1), calls.Load())
	assert.Len(t, got.all(), 1)
	assert.NoError(t, p.Err())
}

func TestPipeline_SupersedesInflightCycle(t *testing.T) {
	started := make(chan struct{})
	var calls atomic.Int32
	holdings := holdingsFunc(func(ctx context.Context, address string) ([]domain.Holding, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return portfolio(), nil
	})
	o := newTestOrchestrator(t, Options{Holdings: holdings, Debounce: debounce})

	var got collector
	p := o.NewPipeline(context.Background(), got.add)
	defer p.Close()

	first := Input{Address: "wallet-old", Period: domain.Period7D}
	second := Input{Address: "wallet-new", Period: domain.Period7D}

	p.Trigger(first)
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("first cycle never started")
	}
	p.Trigger(second)

	require.Eventually(t, func() bool { return p.Latest() != nil }, 2*time.Second, 5*time.Millisecond)

	res := p.Latest()
	assert.Equal(t, "wallet-new", res.Input.Address)
	assert.Equal(t, uint64(2), res.Generation)
	assert.NoError(t, p.Err(), "the cancelled generation must not overwrite the error state")

	time.Sleep(3 * debounce)
	results := got.all()
	require.Len(t, results, 1, "superseded result is never published")
	assert.Equal(t, "wallet-new", results[0].Input.Address)
}

func TestPipeline_RecordsCycleError(t *testing.T) {
	holdings := holdingsFunc(func(context.Context, string) ([]domain.Holding, error) {
		return nil, domain.ErrUpstream
	})
	o := newTestOrchestrator(t, Options{Holdings: holdings, Debounce: debounce})

	p := o.NewPipeline(context.Background(), nil)
	defer p.Close()

	p.Trigger(input(domain.Period7D))

	require.Eventually(t, func() bool { return p.Err() != nil }, 2*time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, p.Err(), domain.ErrUpstream)
	assert.Nil(t, p.Latest())
}

func TestPipeline_CloseDropsPendingTrigger(t *testing.T) {
	var calls atomic.Int32
	holdings := holdingsFunc(func(context.Context, string) ([]domain.Holding, error) {
		calls.Add(1)
		return portfolio(), nil
	})
	o := newTestOrchestrator(t, Options{Holdings: holdings, Debounce: debounce})

	p := o.NewPipeline(context.Background(), nil)
	p.Trigger(input(domain.Period7D))
	p.Close()
	p.Close()

	time.Sleep(3 * debounce)
	assert.Equal(t, int32(0), calls.Load())
	assert.Equal(t, uint64(0), p.Generation())

	p.Trigger(input(domain.Period7D))
	time.Sleep(3 * debounce)
	assert.Equal(t, int32(0), calls.Load(), "closed pipeline ignores triggers")
}

func TestPipeline_CloseCancelsRunningCycle(t *testing.T) {
	started := make(chan struct{})
	holdings := holdingsFunc(func(ctx context.Context, address string) ([]domain.Holding, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})
	o := newTestOrchestrator(t, Options{Holdings: holdings, Debounce: debounce})

	p := o.NewPipeline(context.Background(), nil)
	p.Trigger(input(domain.Period7D))
	<-started

	done := make(chan struct{})
	go func() {
		p.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not wait for the cancelled cycle")
	}
	assert.Nil(t, p.Latest())
}
