// Package refresh reconciles the metadata store with the tradable NSE universe.
package refresh

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/nsechat/internal/common"
	"github.com/bobmcallan/nsechat/internal/interfaces"
	"github.com/bobmcallan/nsechat/internal/models"
)

// DefaultWorkers is the detail-fetch pool width when none is configured.
const DefaultWorkers = 5

// Service implements interfaces.RefreshService
type Service struct {
	nse     interfaces.NSEClient
	store   interfaces.MetadataStore
	logger  *common.Logger
	workers int
	now     func() time.Time // injectable clock for testing

	runMu sync.Mutex // held for the duration of a run

	mu      sync.RWMutex
	last    *models.RefreshRun
	running bool

	wg sync.WaitGroup // background runs
}

var _ interfaces.RefreshService = (*Service)(nil)

// NewService creates a new refresh service
func NewService(nse interfaces.NSEClient, store interfaces.MetadataStore, logger *common.Logger, config common.RefreshConfig) *Service {
	workers := config.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Service{
		nse:     nse,
		store:   store,
		logger:  logger,
		workers: workers,
		now:     time.Now,
	}
}

// Reconcile runs one reconciliation to completion. It returns
// common.ErrRefreshInProgress when another run holds the lock.
func (s *Service) Reconcile(ctx context.Context, trigger string) (*models.RefreshRun, error) {
	if !s.runMu.TryLock() {
		return nil, common.ErrRefreshInProgress
	}
	defer s.runMu.Unlock()
	return s.reconcile(ctx, uuid.NewString(), trigger)
}

// TriggerAsync starts a reconciliation in the background and returns its run ID.
func (s *Service) TriggerAsync(trigger string) (string, error) {
	if !s.runMu.TryLock() {
		return "", common.ErrRefreshInProgress
	}
	id := uuid.NewString()
	s.setRunning(true)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.runMu.Unlock()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error().
					Str("run_id", id).
					Str("panic", fmt.Sprintf("%v", r)).
					Str("stack", string(debug.Stack())).
					Msg("Recovered from panic in metadata refresh")
				s.setRunning(false)
			}
		}()
		s.reconcile(context.Background(), id, trigger)
	}()

	return id, nil
}

// Wait blocks until background runs started by TriggerAsync have finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// LastRun returns a copy of the most recent run, or nil before the first one.
func (s *Service) LastRun() *models.RefreshRun {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return nil
	}
	cp := *s.last
	cp.Failures = append([]models.SymbolResult(nil), s.last.Failures...)
	return &cp
}

// Running reports whether a reconciliation is in progress.
func (s *Service) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *Service) setRunning(v bool) {
	s.mu.Lock()
	s.running = v
	s.mu.Unlock()
}

func (s *Service) publish(run *models.RefreshRun) {
	cp := *run
	cp.Failures = append([]models.SymbolResult(nil), run.Failures...)
	s.mu.Lock()
	s.last = &cp
	s.running = run.Status == models.RefreshStatusRunning
	s.mu.Unlock()
}

// reconcile fetches the universe, upserts every symbol's detail through the
// worker pool, then prunes symbols no longer listed. The caller holds runMu.
func (s *Service) reconcile(ctx context.Context, id, trigger string) (*models.RefreshRun, error) {
	run := &models.RefreshRun{
		ID:        id,
		Trigger:   trigger,
		Status:    models.RefreshStatusRunning,
		StartedAt: s.now(),
	}
	s.publish(run)
	s.logger.Info().Str("run_id", id).Str("trigger", trigger).Msg("Metadata refresh started")

	universe, err := s.nse.GetUniverse(ctx)
	if err != nil || len(universe) == 0 {
		run.Status = models.RefreshStatusAborted
		if err != nil {
			run.Error = err.Error()
		} else {
			run.Error = "upstream universe is empty"
		}
		s.finish(run)
		s.logger.Warn().Str("run_id", id).Str("reason", run.Error).Msg("Metadata refresh aborted, store left unchanged")
		return run, nil
	}
	run.Universe = len(universe)

	for _, res := range s.runPool(ctx, universe) {
		run.Tally(res)
	}

	pruned, err := s.store.DeleteNotIn(ctx, universe)
	if err != nil {
		run.Status = models.RefreshStatusFailed
		run.Error = err.Error()
		s.finish(run)
		s.logger.Error().Err(err).Str("run_id", id).Msg("Metadata prune failed")
		return run, fmt.Errorf("prune metadata: %w", err)
	}
	run.Pruned = pruned
	run.Status = models.RefreshStatusCompleted
	s.finish(run)

	s.logger.Info().
		Str("run_id", id).
		Int("universe", run.Universe).
		Int("inserted", run.Inserted).
		Int("updated", run.Updated).
		Int("unchanged", run.Unchanged).
		Int("failed", run.Failed).
		Int("pruned", run.Pruned).
		Int64("duration_ms", run.DurationMS).
		Msg("Metadata refresh completed")

	return run, nil
}

func (s *Service) finish(run *models.RefreshRun) {
	run.FinishedAt = s.now()
	run.DurationMS = run.FinishedAt.Sub(run.StartedAt).Milliseconds()
	s.publish(run)
}

// runPool fans symbols out to a fixed number of workers and collects one
// result per symbol. A failing or panicking task never affects its siblings.
func (s *Service) runPool(ctx context.Context, symbols []string) []models.SymbolResult {
	workers := s.workers
	if workers > len(symbols) {
		workers = len(symbols)
	}

	jobs := make(chan string)
	results := make(chan models.SymbolResult, len(symbols))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range jobs {
				results <- s.reconcileSymbol(ctx, symbol)
			}
		}()
	}

	for _, symbol := range symbols {
		jobs <- symbol
	}
	close(jobs)
	wg.Wait()
	close(results)

	out := make([]models.SymbolResult, 0, len(symbols))
	for res := range results {
		out = append(out, res)
	}
	return out
}

// reconcileSymbol fetches one symbol's detail and writes it when it differs
// from the stored row.
func (s *Service) reconcileSymbol(ctx context.Context, symbol string) (res models.SymbolResult) {
	res.Symbol = symbol
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("symbol", symbol).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("Recovered from panic reconciling symbol")
			res.Outcome = models.OutcomeFailed
			res.Error = fmt.Sprintf("panic: %v", r)
		}
	}()

	fail := func(err error) models.SymbolResult {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Symbol skipped this cycle")
		return models.SymbolResult{Symbol: symbol, Outcome: models.OutcomeFailed, Error: err.Error()}
	}

	detail, err := s.nse.GetStockDetail(ctx, symbol)
	if err != nil {
		return fail(err)
	}
	if detail == nil {
		return fail(fmt.Errorf("%w: no detail for %s", common.ErrUpstreamUnavailable, symbol))
	}

	row := detail.Metadata()
	row.Symbol = symbol

	existing, err := s.store.Get(ctx, symbol)
	if err != nil {
		return fail(err)
	}
	if existing != nil && existing.SameContent(row) {
		return models.SymbolResult{Symbol: symbol, Outcome: models.OutcomeUnchanged}
	}

	row.RefreshedAt = s.now().UTC()
	if err := s.store.Upsert(ctx, row); err != nil {
		return fail(err)
	}

	if existing == nil {
		return models.SymbolResult{Symbol: symbol, Outcome: models.OutcomeInserted}
	}
	return models.SymbolResult{Symbol: symbol, Outcome: models.OutcomeUpdated}
}
