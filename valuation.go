package pmcalc

import (
	"context"
	"encoding/json"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// PricedEntry is a ledger entry valued at one price.
type PricedEntry struct {
	Entry    LedgerEntry
	Price    Money
	Subtotal Money // Price x Entry.Quantity
}

func (p PricedEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name     string `json:"name"`
		URL      string `json:"url"`
		Quantity int64  `json:"quantity"`
		Price    Money  `json:"price"`
		Subtotal Money  `json:"subtotal"`
	}{p.Entry.Name, p.Entry.URL, p.Entry.Quantity, p.Price, p.Subtotal})
}

// Snapshot is the result of one complete valuation. It is never modified once built.
type Snapshot struct {
	id          uuid.UUID
	currency    string
	entries     []PricedEntry
	total       Money
	evaluatedAt time.Time
}

// newSnapshot builds a snapshot whose total is the sum of the entries subtotals.
func newSnapshot(id uuid.UUID, currency string, entries []PricedEntry, at time.Time) *Snapshot {
	total := M(0, currency)
	for _, e := range entries {
		total = total.Add(e.Subtotal)
	}
	return &Snapshot{
		id:          id,
		currency:    currency,
		entries:     entries,
		total:       total,
		evaluatedAt: at,
	}
}

func (s *Snapshot) ID() uuid.UUID          { return s.id }
func (s *Snapshot) Currency() string       { return s.currency }
func (s *Snapshot) Total() Money           { return s.total }
func (s *Snapshot) EvaluatedAt() time.Time { return s.evaluatedAt }
func (s *Snapshot) Len() int               { return len(s.entries) }

// Entries returns the priced entries in ledger order. The slice is a copy.
func (s *Snapshot) Entries() []PricedEntry { return slices.Clone(s.entries) }

func (s *Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID          uuid.UUID     `json:"id"`
		Currency    string        `json:"currency"`
		EvaluatedAt time.Time     `json:"evaluated_at"`
		Total       Money         `json:"total"`
		Entries     []PricedEntry `json:"entries"`
	}{s.id, s.currency, s.evaluatedAt, s.total, s.entries})
}

// Engine values a Ledger with prices from a PriceSource.
//
// It holds no state between evaluations: every call to Evaluate fetches every
// price again, and the resulting Snapshot belongs to the caller.
type Engine struct {
	ledger  *Ledger
	source  PriceSource
	workers int
	logger  *zap.Logger
	now     func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithParallel fetches up to workers prices at the same time. One or less means sequential.
func WithParallel(workers int) EngineOption {
	return func(e *Engine) {
		e.workers = max(workers, 1)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock sets the function used to timestamp snapshots.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine returns an Engine pricing ledger from source.
func NewEngine(ledger *Ledger, source PriceSource, opts ...EngineOption) *Engine {
	e := &Engine{
		ledger:  ledger,
		source:  source,
		workers: 1,
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Ledger returns the ledger being valued.
func (e *Engine) Ledger() *Ledger { return e.ledger }

// Evaluate prices every ledger entry and returns the resulting snapshot.
//
// It is all or nothing: the first entry that cannot be priced fails the whole
// evaluation with an *EvaluationError, and no snapshot is returned.
func (e *Engine) Evaluate(ctx context.Context) (*Snapshot, error) {
	id := uuid.New()
	log := e.logger.With(zap.Stringer("evaluation", id))
	entries := e.ledger.Entries()
	log.Debug("evaluation started", zap.Int("entries", len(entries)), zap.Int("workers", e.workers))
	start := time.Now()

	var (
		priced []PricedEntry
		err    error
	)
	if e.workers > 1 {
		priced, err = e.priceParallel(ctx, entries)
	} else {
		priced, err = e.priceSequential(ctx, entries)
	}
	if err != nil {
		log.Warn("evaluation failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return nil, err
	}

	s := newSnapshot(id, e.ledger.Currency(), priced, e.now())
	log.Info("evaluation finished", zap.Stringer("total", s.total), zap.Duration("elapsed", time.Since(start)))
	return s, nil
}

func (e *Engine) priceSequential(ctx context.Context, entries []LedgerEntry) ([]PricedEntry, error) {
	priced := make([]PricedEntry, 0, len(entries))
	for _, entry := range entries {
		p, err := e.price(ctx, entry)
		if err != nil {
			return nil, err
		}
		priced = append(priced, p)
	}
	return priced, nil
}

// priceParallel fans out the fetches. Results land at their ledger index, so
// completion order does not matter.
func (e *Engine) priceParallel(ctx context.Context, entries []LedgerEntry) ([]PricedEntry, error) {
	priced := make([]PricedEntry, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, entry := range entries {
		g.Go(func() error {
			p, err := e.price(gctx, entry)
			if err != nil {
				return err
			}
			priced[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return priced, nil
}

// price values a single entry.
func (e *Engine) price(ctx context.Context, entry LedgerEntry) (PricedEntry, error) {
	value, err := e.source.FetchPrice(ctx, entry.URL)
	if err != nil {
		return PricedEntry{}, &EvaluationError{Entry: entry, Err: err}
	}
	if !value.IsPositive() {
		return PricedEntry{}, &EvaluationError{Entry: entry, Err: &ExtractionError{Reason: "price must be positive, got " + value.String()}}
	}
	price := M(value, e.ledger.Currency())
	e.logger.Debug("entry priced", zap.String("entry", entry.Name), zap.Stringer("price", price))
	return PricedEntry{
		Entry:    entry,
		Price:    price,
		Subtotal: price.Times(entry.Quantity),
	}, nil
}
