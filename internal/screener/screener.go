// Package screener implements the Screener: a cooperative per-cycle fan-out
// loop over the tradable instrument universe (spec §4.5). Grounded on the
// teacher's per-symbol PredatorWorker map (one goroutine per instrument)
// and ScalpSignalEngine's threshold-gated per-candidate evaluation, adapted
// from a streaming whale-trade filter into a periodic multi-symbol scan
// that re-runs IndicatorEngine + SignalGenerator per tick.
package screener

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sniperterm/futuresengine/internal/indicators"
	"github.com/sniperterm/futuresengine/internal/marketstore"
	"github.com/sniperterm/futuresengine/internal/model"
	"github.com/sniperterm/futuresengine/internal/signal"
)

// Config tunes cadence and batching.
type Config struct {
	Cadence           time.Duration
	BatchSize         int
	TopM              int
	InstrumentRefresh int // refresh instrument list every K cycles
	HTFRefresh        int // refresh cached HTF bundles every N cycles
	Timeframe         string
	HTFTimeframes     []string
	TailLength        int
}

// Stats summarizes one scan cycle for monitoring.
type Stats struct {
	Duration time.Duration
	Scanned  int
	Emitted  int
}

// InstrumentLister supplies the tradable-instrument universe; refreshed
// every Config.InstrumentRefresh cycles.
type InstrumentLister func(ctx context.Context) ([]string, error)

type Screener struct {
	cfg       Config
	store     *marketstore.Store
	generator *signal.Generator
	lister    InstrumentLister

	mu          sync.Mutex
	instruments []string
	htfCache    map[string]map[string]model.IndicatorBundle // instrument -> timeframe -> bundle
	priorScores map[string]float64
	cycle       int
	lastStats   Stats
}

func New(cfg Config, store *marketstore.Store, generator *signal.Generator, lister InstrumentLister) *Screener {
	return &Screener{
		cfg:         cfg,
		store:       store,
		generator:   generator,
		lister:      lister,
		htfCache:    make(map[string]map[string]model.IndicatorBundle),
		priorScores: make(map[string]float64),
	}
}

// Run executes the cooperative scan loop until ctx is cancelled; a stop
// request lets the in-flight batch finish before returning, per spec §4.5.
func (s *Screener) Run(ctx context.Context, emit func(model.CompositeSignal)) {
	ticker := time.NewTicker(s.cfg.Cadence)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runCycle(ctx, emit)
		}
	}
}

func (s *Screener) runCycle(ctx context.Context, emit func(model.CompositeSignal)) {
	start := time.Now()
	s.cycle++

	if s.cycle == 1 || s.cfg.InstrumentRefresh > 0 && s.cycle%s.cfg.InstrumentRefresh == 0 {
		if s.lister != nil {
			if list, err := s.lister(ctx); err == nil {
				s.mu.Lock()
				s.instruments = list
				s.mu.Unlock()
			}
		}
	}

	s.mu.Lock()
	instruments := append([]string(nil), s.instruments...)
	s.mu.Unlock()

	refreshHTF := s.cfg.HTFRefresh <= 0 || s.cycle%s.cfg.HTFRefresh == 0

	candidates := make([]model.CompositeSignal, 0, len(instruments))
	var mu sync.Mutex

	for i := 0; i < len(instruments); i += s.cfg.BatchSize {
		select {
		case <-ctx.Done():
			return
		default:
		}
		end := i + s.cfg.BatchSize
		if end > len(instruments) {
			end = len(instruments)
		}
		batch := instruments[i:end]

		var wg sync.WaitGroup
		for _, inst := range batch {
			wg.Add(1)
			go func(inst string) {
				defer wg.Done()
				cs, ok := s.evaluate(inst, refreshHTF)
				if !ok {
					return
				}
				mu.Lock()
				candidates = append(candidates, cs)
				mu.Unlock()
			}(inst)
		}
		wg.Wait()
	}

	sort.Slice(candidates, func(a, b int) bool {
		return abs(candidates[a].Score) > abs(candidates[b].Score)
	})
	top := candidates
	if s.cfg.TopM > 0 && len(top) > s.cfg.TopM {
		top = top[:s.cfg.TopM]
	}
	for _, cs := range top {
		s.mu.Lock()
		s.priorScores[cs.Instrument] = cs.Score
		s.mu.Unlock()
		emit(cs)
	}

	s.mu.Lock()
	s.lastStats = Stats{Duration: time.Since(start), Scanned: len(instruments), Emitted: len(top)}
	s.mu.Unlock()
}

// Stats returns a snapshot of the most recently completed scan cycle, for
// monitoring (spec §4.5).
func (s *Screener) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastStats
}

func (s *Screener) evaluate(instrument string, refreshHTF bool) (model.CompositeSignal, bool) {
	tail := s.store.Tail(instrument, s.cfg.Timeframe, s.cfg.TailLength)
	if len(tail) == 0 {
		return model.CompositeSignal{}, false
	}
	primary := indicators.Compute(tail, indicators.DefaultPeriods())

	other := map[string]model.IndicatorBundle{}
	s.mu.Lock()
	cached, hasCache := s.htfCache[instrument]
	s.mu.Unlock()
	if refreshHTF || !hasCache {
		cached = map[string]model.IndicatorBundle{}
		for _, tf := range s.cfg.HTFTimeframes {
			htfTail := s.store.Tail(instrument, tf, s.cfg.TailLength)
			if len(htfTail) == 0 {
				continue
			}
			cached[tf] = indicators.Compute(htfTail, indicators.DefaultPeriods())
		}
		s.mu.Lock()
		s.htfCache[instrument] = cached
		s.mu.Unlock()
	}
	for tf, b := range cached {
		other[tf] = b
	}

	var micro *model.MicrostructureSnapshot
	if snap, ok := s.store.Microstructure(instrument); ok && !snap.Stale(5*time.Second) {
		micro = &snap
	}

	s.mu.Lock()
	prior := s.priorScores[instrument]
	s.mu.Unlock()

	cs := s.generator.Generate(signal.Input{
		Instrument: instrument,
		Timeframe:  s.cfg.Timeframe,
		Primary:    primary,
		Other:      other,
		Micro:      micro,
		PriorScore: prior,
		Now:        time.Now(),
	})
	return cs, true
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
