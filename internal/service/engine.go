// Package service implements the reservation engine: client and room
// registration, availability, the reservation state machine and the
// reporting queries.  It is the only component that mutates the entity
// tables; every mutation runs in a single store transaction.
package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/coworking-reservation/internal/apperror"
	"github.com/iliyamo/coworking-reservation/internal/logger"
	"github.com/iliyamo/coworking-reservation/internal/policy"
	"github.com/iliyamo/coworking-reservation/internal/queue"
	"github.com/iliyamo/coworking-reservation/internal/repository"
)

// EventPublisher receives lifecycle events after the owning transaction
// commits.  Implementations must be safe for concurrent use.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.ReservationEvent) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, queue.ReservationEvent) error { return nil }

// Engine is safe for concurrent use; all shared state lives in the store.
type Engine struct {
	store     *repository.Store
	policy    policy.Policy
	clock     policy.Clock
	publisher EventPublisher
	log       *logger.Logger
}

// New builds an engine over store.  A nil clock, publisher or logger falls
// back to the system clock, NopPublisher and a discarding logger.
func New(store *repository.Store, p policy.Policy, clock policy.Clock, publisher EventPublisher, log *logger.Logger) *Engine {
	if clock == nil {
		clock = policy.RealClock{}
	}
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Engine{store: store, policy: p, clock: clock, publisher: publisher, log: log}
}

// Policy returns the booking rules the engine enforces.
func (e *Engine) Policy() policy.Policy { return e.policy }

// Today returns the current calendar date under the engine's clock.
func (e *Engine) Today() time.Time { return e.policy.Today(e.clock) }

// inTx runs fn in one store transaction.  Errors returned by fn keep their
// kind; anything unclassified is reported as an infrastructure error of op.
func (e *Engine) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return e.infra(op+": begin", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		if apperror.KindOf(err) == 0 {
			return e.infra(op, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return e.infra(op+": commit", err)
	}
	committed = true
	return nil
}

func (e *Engine) infra(op string, err error) error {
	err = apperror.Infrastructure(op, err)
	if apperror.KindOf(err) == apperror.KindInfrastructure {
		e.log.Error("store failure", logger.Action(op), logger.Error(err))
	}
	return err
}

// publish hands ev to the publisher.  A failure is logged and does not
// affect the committed operation.
func (e *Engine) publish(ctx context.Context, ev queue.ReservationEvent) {
	if err := e.publisher.Publish(ctx, ev); err != nil {
		e.log.Warn("event publish failed", logger.Action(ev.Type), logger.Folio(ev.Folio), logger.Error(err))
	}
}
