package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/roach88/costcore/internal/ingest"
	"github.com/roach88/costcore/internal/metrics"
	"github.com/roach88/costcore/internal/model"
	"github.com/roach88/costcore/internal/rules"
	"github.com/roach88/costcore/internal/store"
)

// Engine runs the cost operations against a store.
//
// Every operation is one store transaction. Snapshot generation is also
// serialized per project so that two callers never compute the same next
// calculation version.
//
// Thread-safety: all methods are safe for concurrent use.
type Engine struct {
	store      *store.Store
	validator  *rules.Validator
	normalizer ingest.Normalizer
	ids        IDGenerator
	clock      Clock
	logger     *zap.Logger
	metrics    *metrics.Metrics

	mu       sync.Mutex
	projects map[string]*sync.Mutex
}

// EngineOption allows configuration of engine collaborators.
type EngineOption func(*Engine)

// WithValidator sets the item validator.
//
// Default: rules.Default()
func WithValidator(v *rules.Validator) EngineOption {
	return func(e *Engine) {
		e.validator = v
	}
}

// WithPolicy builds the validator from p.
func WithPolicy(p rules.Policy) EngineOption {
	return func(e *Engine) {
		e.validator = rules.New(p)
	}
}

// WithNormalizer sets the name normalizer used during ingestion.
//
// Default: ingest.IdentityNormalizer
func WithNormalizer(n ingest.Normalizer) EngineOption {
	return func(e *Engine) {
		e.normalizer = n
	}
}

// WithIDGenerator sets the id source for new files, items and summaries.
// Use NewFixedGenerator or testutil.SequenceGenerator in tests.
func WithIDGenerator(g IDGenerator) EngineOption {
	return func(e *Engine) {
		e.ids = g
	}
}

// WithClock sets the clock stamped on records and audit entries.
func WithClock(c Clock) EngineOption {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithLogger sets the logger. Default: zap.NewNop().
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithMetrics sets the metrics sink. A nil sink records nothing.
func WithMetrics(m *metrics.Metrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// New creates an Engine over s.
func New(s *store.Store, opts ...EngineOption) *Engine {
	e := &Engine{
		store:      s,
		validator:  rules.Default(),
		normalizer: ingest.IdentityNormalizer{},
		ids:        UUIDv7Generator{},
		clock:      SystemClock{},
		logger:     zap.NewNop(),
		projects:   make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the underlying store for read-only listings.
func (e *Engine) Store() *store.Store {
	return e.store
}

// projectLock returns the mutex serializing snapshot generation for projectID.
func (e *Engine) projectLock(projectID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.projects[projectID]
	if !ok {
		l = &sync.Mutex{}
		e.projects[projectID] = l
	}
	return l
}

// loadFile reads a file inside tx, mapping a miss to FILE_NOT_FOUND.
func loadFile(ctx context.Context, tx *store.Tx, fileID string) (model.FileRecord, error) {
	f, err := tx.GetFile(ctx, fileID)
	if errors.Is(err, store.ErrNotFound) {
		return model.FileRecord{}, fileNotFound(fileID)
	}
	if err != nil {
		return model.FileRecord{}, fmt.Errorf("load file %s: %w", fileID, err)
	}
	return f, nil
}

// audit appends entries inside tx.
func audit(ctx context.Context, tx *store.Tx, entries ...model.AuditEntry) error {
	for _, e := range entries {
		if _, err := tx.AppendAudit(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// failed logs and counts err before it is returned to the caller.
// Failures are expected outcomes and log at info; anything else is an error.
func (e *Engine) failed(op string, err error, fields ...zap.Field) error {
	fields = append(fields, zap.String("operation", op), zap.Error(err))
	if f, ok := AsFailure(err); ok {
		e.metrics.RecordFailure(op, string(f.Code))
		e.logger.Info("operation rejected", append(fields, zap.String("code", string(f.Code)))...)
		return err
	}
	e.metrics.RecordFailure(op, "system")
	e.logger.Error("operation failed", fields...)
	return err
}
