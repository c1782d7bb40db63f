package services

import (
	"context"
	"fmt"
	"strings"

	"finzen/internal/amqp"
	"finzen/internal/core"
	"finzen/internal/log"
	"finzen/internal/tables"
)

// GoalInput is the raw savings goal form. A blank current amount means zero.
type GoalInput struct {
	Title         string
	TargetAmount  string
	CurrentAmount string
	Deadline      string
	Icon          string
}

type GoalService struct {
	store     tables.GoalWriter
	publisher ChangePublisher
	state     Invalidator
	logger    *log.Logger
}

func NewGoalService(store tables.GoalWriter, publisher ChangePublisher, state Invalidator, logger *log.Logger) *GoalService {
	if logger == nil {
		logger = log.Discard()
	}
	return &GoalService{
		store:     store,
		publisher: publisher,
		state:     state,
		logger:    logger.WithComponent(log.ComponentGoal),
	}
}

func BuildGoal(userID string, in GoalInput) (core.SavingsGoal, error) {
	target, err := core.ParseAmount(in.TargetAmount)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("%w: %v", core.ErrInvalidTarget, err)
	}
	var current core.Money
	if strings.TrimSpace(in.CurrentAmount) != "" {
		if current, err = core.ParseAmount(in.CurrentAmount); err != nil {
			return core.SavingsGoal{}, err
		}
	}
	var deadline core.Date
	if strings.TrimSpace(in.Deadline) != "" {
		if deadline, err = core.ParseDate(in.Deadline); err != nil {
			return core.SavingsGoal{}, err
		}
	}
	icon, err := core.ParseGoalIcon(in.Icon)
	if err != nil {
		return core.SavingsGoal{}, err
	}

	g := core.SavingsGoal{
		UserID:        userID,
		Title:         strings.TrimSpace(in.Title),
		TargetAmount:  target,
		CurrentAmount: current,
		Deadline:      deadline,
		Icon:          icon,
	}
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}
	return g, nil
}

// Create validates and stores a goal.
func (s *GoalService) Create(ctx context.Context, userID string, in GoalInput) (core.SavingsGoal, error) {
	g, err := BuildGoal(userID, in)
	if err != nil {
		return core.SavingsGoal{}, err
	}

	saved, err := s.store.InsertGoal(ctx, g)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to insert goal", log.FieldUserID, userID, log.FieldError, err.Error())
		return core.SavingsGoal{}, fmt.Errorf("insert goal: %w", err)
	}
	s.logger.InfoContext(ctx, "Goal created",
		log.FieldUserID, userID,
		log.FieldEntityID, saved.ID,
		"target_cents", saved.TargetAmount.Cents)

	if s.state != nil {
		s.state.Invalidate(userID)
	}
	publish(ctx, s.publisher, s.logger, amqp.NewChangeEvent(amqp.KindGoalCreated, userID, saved.ID))
	return saved, nil
}
