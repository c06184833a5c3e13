// Package schema reconciles the legacy users table with the current account
// shape. Every step is idempotent and non-destructive; a failing step is
// recorded and logged, and later steps still run.
package schema

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ErrSchemaDrift marks a step skipped because a legacy column it depends on
// is absent.
var ErrSchemaDrift = errors.New("schema drift")

// errNothingToDo marks a step skipped without drift, e.g. the seed row exists.
var errNothingToDo = errors.New("nothing to do")

const defaultStepTimeout = 30 * time.Second

type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

type StepResult struct {
	Version int
	Name    string
	Outcome Outcome
	Err     error
}

type Report struct {
	Results []StepResult
}

// OK reports whether no step failed. Skipped steps count as success.
func (r *Report) OK() bool {
	return len(r.Failed()) == 0
}

func (r *Report) Failed() []StepResult {
	var failed []StepResult
	for _, res := range r.Results {
		if res.Outcome == OutcomeFailed {
			failed = append(failed, res)
		}
	}
	return failed
}

// Result returns the outcome recorded for a step version.
func (r *Report) Result(version int) (StepResult, bool) {
	for _, res := range r.Results {
		if res.Version == version {
			return res, true
		}
	}
	return StepResult{}, false
}

// SeedAccount is the account inserted on first run.
type SeedAccount struct {
	Email    string
	Name     string
	Password string
	Role     string
}

var DefaultSeedAccount = SeedAccount{
	Email:    "test@example.com",
	Name:     "Test User",
	Password: "test123",
	Role:     "customer",
}

type Migrator struct {
	db          *sql.DB
	logger      *zap.Logger
	seed        SeedAccount
	stepTimeout time.Duration
}

type Option func(*Migrator)

func WithSeedAccount(seed SeedAccount) Option {
	return func(m *Migrator) { m.seed = seed }
}

func WithStepTimeout(d time.Duration) Option {
	return func(m *Migrator) {
		if d > 0 {
			m.stepTimeout = d
		}
	}
}

func NewMigrator(db *sql.DB, logger *zap.Logger, opts ...Option) *Migrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Migrator{
		db:          db,
		logger:      logger.Named("schema"),
		seed:        DefaultSeedAccount,
		stepTimeout: defaultStepTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Reconcile runs every step in version order. The returned error is non-nil
// only when the store cannot be reached at all; per-step failures are in the
// report.
func (m *Migrator) Reconcile(ctx context.Context) (*Report, error) {
	if err := m.db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("reach store: %w", err)
	}

	report := &Report{}
	for _, step := range m.steps() {
		res := m.runStep(ctx, step)
		report.Results = append(report.Results, res)
	}

	if cols, err := m.columns(ctx); err == nil {
		m.logger.Debug("users columns after reconcile", zap.Strings("columns", cols.sorted()))
	}

	m.logger.Info("schema reconcile finished",
		zap.Int("steps", len(report.Results)),
		zap.Int("failed", len(report.Failed())))
	return report, nil
}

func (m *Migrator) runStep(ctx context.Context, step Step) StepResult {
	ctx, cancel := context.WithTimeout(ctx, m.stepTimeout)
	defer cancel()

	res := StepResult{Version: step.Version, Name: step.Name}
	err := step.Run(ctx)

	switch {
	case err == nil:
		res.Outcome = OutcomeApplied
	case errors.Is(err, errNothingToDo):
		res.Outcome = OutcomeSkipped
	case errors.Is(err, ErrSchemaDrift):
		res.Outcome = OutcomeSkipped
		res.Err = err
	default:
		res.Outcome = OutcomeFailed
		res.Err = err
	}

	fields := []zap.Field{
		zap.Int("version", res.Version),
		zap.String("step", res.Name),
		zap.String("outcome", string(res.Outcome)),
	}
	switch res.Outcome {
	case OutcomeFailed:
		m.logger.Warn("schema step failed", append(fields, zap.Error(res.Err))...)
	case OutcomeSkipped:
		if res.Err != nil {
			fields = append(fields, zap.Error(res.Err))
		}
		m.logger.Info("schema step skipped", fields...)
	default:
		m.logger.Info("schema step applied", fields...)
	}
	return res
}

func (m *Migrator) hashSeedPassword() (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(m.seed.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash seed password: %w", err)
	}
	return string(hash), nil
}
