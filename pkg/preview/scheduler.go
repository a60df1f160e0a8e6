package preview

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/crawlpulse/datafilters/pkg/evaluator"
	"github.com/crawlpulse/datafilters/pkg/observability"
)

// ErrSchedulerClosed is returned when scheduling on a closed scheduler
var ErrSchedulerClosed = errors.New("preview scheduler is closed")

// Gate issues monotonically increasing tokens and accepts only the latest
type Gate struct {
	mu     sync.Mutex
	latest uint64
}

// Issue returns a new token that supersedes every earlier one
func (g *Gate) Issue() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.latest++
	return g.latest
}

// Latest returns the most recently issued token, zero if none
func (g *Gate) Latest() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.latest
}

// Accept reports whether token is still the latest issued token
func (g *Gate) Accept(token uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return token == g.latest
}

// Update is a preview outcome delivered to the caller
type Update struct {
	Token  uint64
	Result *evaluator.Result
	Err    error
}

// DeliverFunc receives accepted updates. Calls never overlap.
type DeliverFunc func(Update)

// Scheduler debounces preview requests. Each Schedule stops the pending timer,
// cancels the in-flight evaluation and issues a new token; a result is
// delivered only when its token is still the latest when it completes.
type Scheduler struct {
	log     logrus.FieldLogger
	svc     Service
	cfg     *Config
	deliver DeliverFunc
	gate    Gate

	mu        sync.Mutex
	timer     *time.Timer
	cancel    context.CancelFunc
	closed    bool
	wg        sync.WaitGroup
	deliverMu sync.Mutex
	baseCtx   context.Context //nolint:containedctx // lifetime of the scheduler
	stop      context.CancelFunc
}

// NewScheduler creates a scheduler that sends accepted results to deliver
func NewScheduler(log logrus.FieldLogger, svc Service, cfg *Config, deliver DeliverFunc) *Scheduler {
	ctx, stop := context.WithCancel(context.Background())

	return &Scheduler{
		log:     log.WithField("service", "preview"),
		svc:     svc,
		cfg:     cfg,
		deliver: deliver,
		baseCtx: ctx,
		stop:    stop,
	}
}

// Schedule queues req to run after the debounce period and returns its token
func (s *Scheduler) Schedule(req evaluator.Request) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrSchedulerClosed
	}

	s.supersedeLocked()

	token := s.gate.Issue()

	s.wg.Add(1)
	s.timer = time.AfterFunc(s.cfg.Debounce, func() {
		defer s.wg.Done()
		s.run(token, req)
	})

	s.log.WithField("token", token).Debug("Scheduled preview")

	return token, nil
}

// Latest returns the most recently issued token
func (s *Scheduler) Latest() uint64 {
	return s.gate.Latest()
}

// Close stops the pending timer, cancels any in-flight evaluation and waits
// for running callbacks to return
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.supersedeLocked()
	s.stop()
	s.mu.Unlock()

	s.wg.Wait()
}

// supersedeLocked drops the pending timer and cancels the in-flight run
func (s *Scheduler) supersedeLocked() {
	if s.timer != nil && s.timer.Stop() {
		s.wg.Done()
	}
	s.timer = nil

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Scheduler) run(token uint64, req evaluator.Request) {
	ctx, cancel := context.WithTimeout(s.baseCtx, s.cfg.Timeout)
	defer cancel()

	s.mu.Lock()
	if !s.gate.Accept(token) || s.closed {
		s.mu.Unlock()
		observability.RecordPreviewDropped()
		return
	}
	s.cancel = cancel
	s.mu.Unlock()

	res, err := s.svc.Evaluate(ctx, req)

	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	if !s.gate.Accept(token) {
		observability.RecordPreviewDropped()
		s.log.WithField("token", token).Debug("Dropped stale preview")
		return
	}

	if err != nil {
		s.log.WithError(err).WithField("token", token).Warn("Preview failed")
	}

	s.deliver(Update{Token: token, Result: res, Err: err})
}
