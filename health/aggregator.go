package health

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/vendora/resilience"
)

// AggregatorConfig configures an Aggregator.
type AggregatorConfig struct {
	// CheckTimeout bounds each check.
	// Default: 5 seconds
	CheckTimeout time.Duration

	// Concurrency caps how many checks run at once. Zero means no cap.
	Concurrency int

	// Now is the time source. Default: time.Now
	Now func() time.Time
}

// Aggregator runs a set of checkers and folds their results.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Run never fails; a check that overruns CheckTimeout reports
//   StatusUnhealthy with ErrCheckTimeout.
type Aggregator struct {
	config AggregatorConfig

	mu       sync.RWMutex
	checkers []Checker
}

// NewAggregator creates an empty aggregator.
func NewAggregator(config AggregatorConfig) *Aggregator {
	if config.CheckTimeout <= 0 {
		config.CheckTimeout = 5 * time.Second
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Aggregator{config: config}
}

// Register adds checkers. Names must be unique.
func (a *Aggregator) Register(checkers ...Checker) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, c := range checkers {
		if a.indexLocked(c.Name()) >= 0 {
			return fmt.Errorf("%w: %q", ErrDuplicateChecker, c.Name())
		}
		a.checkers = append(a.checkers, c)
	}
	return nil
}

// Names returns checker names in registration order.
func (a *Aggregator) Names() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	names := make([]string, len(a.checkers))
	for i, c := range a.checkers {
		names[i] = c.Name()
	}
	return names
}

// Check runs the named checker.
func (a *Aggregator) Check(ctx context.Context, name string) (Result, error) {
	a.mu.RLock()
	i := a.indexLocked(name)
	var c Checker
	if i >= 0 {
		c = a.checkers[i]
	}
	a.mu.RUnlock()

	if c == nil {
		return Result{}, fmt.Errorf("%w: %q", ErrCheckerNotFound, name)
	}
	return a.run(ctx, c), nil
}

// Report is the folded outcome of a Run.
type Report struct {
	Status  Status
	Checked time.Time
	Names   []string
	Results map[string]Result
}

// Run executes every checker in parallel.
func (a *Aggregator) Run(ctx context.Context) Report {
	a.mu.RLock()
	checkers := append([]Checker(nil), a.checkers...)
	a.mu.RUnlock()

	results := make([]Result, len(checkers))
	var g errgroup.Group
	if a.config.Concurrency > 0 {
		g.SetLimit(a.config.Concurrency)
	}
	for i, c := range checkers {
		g.Go(func() error {
			results[i] = a.run(ctx, c)
			return nil
		})
	}
	_ = g.Wait()

	report := Report{
		Status:  StatusHealthy,
		Checked: a.config.Now(),
		Names:   make([]string, len(checkers)),
		Results: make(map[string]Result, len(checkers)),
	}
	for i, c := range checkers {
		report.Names[i] = c.Name()
		report.Results[c.Name()] = results[i]
		report.Status = report.Status.Worse(results[i].Status)
	}
	return report
}

func (a *Aggregator) run(ctx context.Context, c Checker) Result {
	start := a.config.Now()
	r, err := resilience.WithTimeout(ctx, a.config.CheckTimeout, func(ctx context.Context) (Result, error) {
		return c.Check(ctx), nil
	})
	switch {
	case errors.Is(err, resilience.ErrTimeout):
		r = Unhealthy("check timed out", ErrCheckTimeout)
	case err != nil:
		r = Unhealthy("check abandoned", err)
	}
	r.Checked = start
	r.Duration = a.config.Now().Sub(start)
	return r
}

func (a *Aggregator) indexLocked(name string) int {
	for i, c := range a.checkers {
		if c.Name() == name {
			return i
		}
	}
	return -1
}
