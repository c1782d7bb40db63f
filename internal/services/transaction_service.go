package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"finzen/internal/amqp"
	"finzen/internal/core"
	"finzen/internal/log"
	"finzen/internal/tables"
)

// ChangePublisher broadcasts collection changes to other instances.
type ChangePublisher interface {
	PublishChange(ctx context.Context, ev amqp.ChangeEvent) error
}

// Invalidator drops cached dashboard state for a user.
type Invalidator interface {
	Invalidate(userID string)
}

// TransactionInput is the raw transaction form.
type TransactionInput struct {
	Type        string
	Amount      string
	Category    string
	Description string
	Date        string
}

// TransactionService validates and stores transactions, then invalidates the
// owner's dashboard locally and on other instances.
type TransactionService struct {
	store     tables.TransactionWriter
	publisher ChangePublisher
	state     Invalidator
	logger    *log.Logger
	loc       *time.Location
	now       func() time.Time
}

// NewTransactionService creates the service. publisher may be nil.
func NewTransactionService(store tables.TransactionWriter, publisher ChangePublisher, state Invalidator, loc *time.Location, logger *log.Logger) *TransactionService {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &TransactionService{
		store:     store,
		publisher: publisher,
		state:     state,
		logger:    logger.WithComponent(log.ComponentTransaction),
		loc:       loc,
		now:       time.Now,
	}
}

// Build turns form input into a validated transaction without storing it.
// A blank date means today in the configured zone.
func (s *TransactionService) Build(userID string, in TransactionInput) (core.Transaction, error) {
	typ, err := core.ParseTransactionType(in.Type)
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return core.Transaction{}, err
	}

	date := core.DateOf(s.now().In(s.loc))
	if strings.TrimSpace(in.Date) != "" {
		if date, err = core.ParseDate(in.Date); err != nil {
			return core.Transaction{}, err
		}
	}

	tx := core.Transaction{
		UserID:      userID,
		Type:        typ,
		Amount:      amount,
		Category:    core.NormalizeCategory(typ, in.Category),
		Description: strings.TrimSpace(in.Description),
		Date:        date,
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

// Create validates and stores a transaction. Validation failures write nothing.
func (s *TransactionService) Create(ctx context.Context, userID string, in TransactionInput) (core.Transaction, error) {
	tx, err := s.Build(userID, in)
	if err != nil {
		return core.Transaction{}, err
	}

	saved, err := s.store.InsertTransaction(ctx, tx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to insert transaction",
			log.NewFields().WithUser(userID).WithOperation(log.OpCreate).WithError(err).ToSlice()...)
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "Transaction created",
		log.NewFields().
			WithUser(userID).
			WithTransaction(saved.ID, string(saved.Type), saved.Amount.Cents, saved.Category).
			ToSlice()...)

	s.changed(ctx, amqp.KindTransactionCreated, userID, saved.ID)
	return saved, nil
}

// Delete removes one of the user's transactions.
func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteTransaction(ctx, userID, id); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	s.logger.InfoContext(ctx, "Transaction deleted", log.FieldUserID, userID, log.FieldEntityID, id)
	s.changed(ctx, amqp.KindTransactionDeleted, userID, id)
	return nil
}

func (s *TransactionService) changed(ctx context.Context, kind, userID, entityID string) {
	if s.state != nil {
		s.state.Invalidate(userID)
	}
	publish(ctx, s.publisher, s.logger, amqp.NewChangeEvent(kind, userID, entityID))
}

// publish never fails the caller: the write already happened.
func publish(ctx context.Context, p ChangePublisher, logger *log.Logger, ev amqp.ChangeEvent) {
	if p == nil {
		return
	}
	if err := p.PublishChange(ctx, ev); err != nil {
		logger.WarnContext(ctx, "Failed to publish change event",
			"kind", ev.Kind, log.FieldUserID, ev.UserID, log.FieldError, err.Error())
	}
}
