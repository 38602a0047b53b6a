// Package api exposes wallet analytics over HTTP.
package api

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"wallet-analytics/internal/config"
	"wallet-analytics/internal/domain"
	"wallet-analytics/internal/observability"
	"wallet-analytics/internal/orchestrator"
	"wallet-analytics/internal/taxlot"
)

// Options for creating Service.
type Options struct {
	Orchestrator *orchestrator.Orchestrator
	Transactions orchestrator.TransactionSource
	Tax          *taxlot.Engine

	Network string
	Period  domain.Period // default analytics period

	Logger logrus.FieldLogger
	Clock  func() time.Time
}

// Service keeps one pipeline per wallet and answers API queries.
type Service struct {
	orch    *orchestrator.Orchestrator
	txs     orchestrator.TransactionSource
	tax     *taxlot.Engine
	network string
	period  domain.Period
	logger  logrus.FieldLogger
	clock   func() time.Time
	started time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	pipelines map[string]*walletPipeline
}

type walletPipeline struct {
	pipeline    *orchestrator.Pipeline
	period      domain.Period
	lastTrigger time.Time
	triggers    int
}

// NewService creates a service. Pipelines live until Close.
func NewService(opts Options) (*Service, error) {
	if opts.Orchestrator == nil || opts.Transactions == nil {
		return nil, fmt.Errorf("%w: orchestrator and transactions source are required", domain.ErrInvalidConfig)
	}
	if opts.Tax == nil {
		engine, err := taxlot.NewEngine(taxlot.DefaultOptions())
		if err != nil {
			return nil, err
		}
		opts.Tax = engine
	}
	if opts.Period == "" {
		opts.Period = domain.Period30D
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		orch:      opts.Orchestrator,
		txs:       opts.Transactions,
		tax:       opts.Tax,
		network:   opts.Network,
		period:    opts.Period,
		logger:    opts.Logger.WithField("component", "api"),
		clock:     opts.Clock,
		started:   opts.Clock(),
		ctx:       ctx,
		cancel:    cancel,
		pipelines: make(map[string]*walletPipeline),
	}, nil
}

// DefaultPeriod returns the period used when a request names none.
func (s *Service) DefaultPeriod() domain.Period {
	return s.period
}

// Refresh schedules a debounced cycle for address. source labels the trigger
// in metrics (api, cron, ws).
func (s *Service) Refresh(address string, period domain.Period, source string) {
	if period == "" {
		period = s.period
	}

	s.mu.Lock()
	wp, ok := s.pipelines[address]
	if !ok {
		wp = &walletPipeline{pipeline: s.orch.NewPipeline(s.ctx, nil)}
		s.pipelines[address] = wp
	}
	wp.period = period
	wp.lastTrigger = s.clock()
	wp.triggers++
	s.mu.Unlock()

	observability.RecordTrigger(source)
	wp.pipeline.Trigger(orchestrator.Input{Address: address, Network: s.network, Period: period})
}

// RefreshAll triggers every wallet that has a pipeline.
func (s *Service) RefreshAll(source string) int {
	s.mu.Lock()
	targets := make(map[string]domain.Period, len(s.pipelines))
	for addr, wp := range s.pipelines {
		targets[addr] = wp.period
	}
	s.mu.Unlock()

	for addr, period := range targets {
		s.Refresh(addr, period, source)
	}
	return len(targets)
}

// Analytics returns the latest pipeline result for address when it covers
// period, and otherwise runs a cycle synchronously.
func (s *Service) Analytics(ctx context.Context, address string, period domain.Period) (*orchestrator.Result, error) {
	if period == "" {
		period = s.period
	}

	s.mu.Lock()
	wp, ok := s.pipelines[address]
	s.mu.Unlock()
	if ok {
		if res := wp.pipeline.Latest(); res != nil && res.Input.Period == period {
			return res, nil
		}
	}

	return s.orch.Run(ctx, orchestrator.Input{Address: address, Network: s.network, Period: period})
}

// TaxReport replays the wallet history and aggregates year.
func (s *Service) TaxReport(ctx context.Context, address string, year int) (*domain.TaxReport, error) {
	if year < config.FirstTaxYear || year > s.clock().Year()+1 {
		return nil, fmt.Errorf("%w: tax year %d", domain.ErrInvalidConfig, year)
	}

	txs, err := s.txs.Transactions(ctx, address)
	if err != nil {
		return nil, err
	}
	ledger, err := s.tax.Replay(address, txs)
	if err != nil {
		return nil, err
	}
	return s.tax.YearReport(ledger, year, s.clock())
}

// WalletStatus summarizes one wallet pipeline.
type WalletStatus struct {
	Address     string        `json:"address"`
	Period      domain.Period `json:"period"`
	Generation  uint64        `json:"generation"`
	Triggers    int           `json:"triggers"`
	LastTrigger time.Time     `json:"last_trigger"`
	LastCycle   *time.Time    `json:"last_cycle,omitempty"`
	LastError   string        `json:"last_error,omitempty"`
}

// Status is the service snapshot served by /status.
type Status struct {
	StartedAt time.Time      `json:"started_at"`
	Uptime    string         `json:"uptime"`
	Network   string         `json:"network"`
	Wallets   []WalletStatus `json:"wallets"`
}

// Status returns a snapshot of every wallet pipeline sorted by address.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		StartedAt: s.started,
		Uptime:    s.clock().Sub(s.started).Round(time.Second).String(),
		Network:   s.network,
		Wallets:   make([]WalletStatus, 0, len(s.pipelines)),
	}
	for addr, wp := range s.pipelines {
		ws := WalletStatus{
			Address:     addr,
			Period:      wp.period,
			Generation:  wp.pipeline.Generation(),
			Triggers:    wp.triggers,
			LastTrigger: wp.lastTrigger,
		}
		if res := wp.pipeline.Latest(); res != nil {
			completed := res.CompletedAt
			ws.LastCycle = &completed
		}
		if err := wp.pipeline.Err(); err != nil {
			ws.LastError = err.Error()
		}
		st.Wallets = append(st.Wallets, ws)
	}
	sort.Slice(st.Wallets, func(i, j int) bool { return st.Wallets[i].Address < st.Wallets[j].Address })
	return st
}

// Close stops every pipeline and waits for running cycles.
func (s *Service) Close() {
	s.cancel()

	s.mu.Lock()
	pipelines := make([]*orchestrator.Pipeline, 0, len(s.pipelines))
	for _, wp := range s.pipelines {
		pipelines = append(pipelines, wp.pipeline)
	}
	s.mu.Unlock()

	for _, p := range pipelines {
		p.Close()
	}
}
