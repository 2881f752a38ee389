package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/polkiloo/cardshop/internal/clock"
	domainErrors "github.com/polkiloo/cardshop/internal/domain/errors"
	"github.com/polkiloo/cardshop/internal/domain/model"
	"github.com/polkiloo/cardshop/internal/domain/repository"
)

// AbusePolicy bounds how many unpaid orders an account may open.
type AbusePolicy struct {
	Window    time.Duration
	Threshold int
	Duration  time.Duration
}

// DefaultAbusePolicy: three pending orders within thirty minutes suspend for twelve hours.
var DefaultAbusePolicy = AbusePolicy{
	Window:    30 * time.Minute,
	Threshold: 3,
	Duration:  12 * time.Hour,
}

// AbuseMonitor suspends accounts that open too many unpaid orders.
type AbuseMonitor struct {
	orders      *OrderStateMachine
	suspensions repository.SuspensionRepository
	deliverer   Deliverer
	policy      AbusePolicy
	clock       clock.Clock
	metrics     Metrics
	logger      *slog.Logger
}

// NewAbuseMonitor constructs AbuseMonitor.
func NewAbuseMonitor(
	orders *OrderStateMachine,
	suspensions repository.SuspensionRepository,
	deliverer Deliverer,
	policy AbusePolicy,
	clk clock.Clock,
	metrics Metrics,
	logger *slog.Logger,
) *AbuseMonitor {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &AbuseMonitor{
		orders:      orders,
		suspensions: suspensions,
		deliverer:   deliverer,
		policy:      policy,
		clock:       clk,
		metrics:     metrics,
		logger:      logger,
	}
}

// IsSuspended reports the active suspension of an account, if any.
// Lapsed records are removed on read.
func (m *AbuseMonitor) IsSuspended(ctx context.Context, accountID string) (*model.Suspension, bool, error) {
	s, err := m.suspensions.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	now := m.clock.Now()
	if s.Active(now) {
		return s, true, nil
	}

	if _, err := m.suspensions.DeleteExpired(ctx, accountID, now); err != nil {
		m.logger.Warn("lapsed suspension cleanup failed", slog.String("account", accountID), slog.String("error", err.Error()))
	}
	return nil, false, nil
}

// CheckVelocity suspends the account when its pending orders inside the window
// reach the threshold. Those orders are expired. It reports whether the account
// is suspended after the check.
func (m *AbuseMonitor) CheckVelocity(ctx context.Context, accountID string) (bool, error) {
	if _, active, err := m.IsSuspended(ctx, accountID); err != nil || active {
		return active, err
	}

	now := m.clock.Now()
	pending, err := m.orders.ListPendingSince(ctx, accountID, now.Add(-m.policy.Window))
	if err != nil {
		return false, err
	}
	if len(pending) < m.policy.Threshold {
		return false, nil
	}

	until := now.Add(m.policy.Duration)
	s, err := m.suspensions.Upsert(ctx, accountID, model.VelocityReason(len(pending)), until, now)
	if err != nil {
		return false, err
	}
	m.metrics.AccountSuspended()
	m.logger.Warn("account suspended",
		slog.String("account", accountID),
		slog.Int("pending", len(pending)),
		slog.Int("count", s.Count),
		slog.Time("until", s.SuspendedUntil))

	for _, o := range pending {
		_, err := m.orders.Transition(ctx, o.ID, model.OrderStatusPending, model.OrderStatusExpired,
			model.TransitionFields{At: now})
		switch {
		case err == nil:
			m.metrics.OrderExpired(ExpiredBySuspension)
		case errors.Is(err, domainErrors.ErrConflictingState):
			// Paid or expired concurrently.
		default:
			m.logger.Error("expire order of suspended account failed",
				slog.String("order", o.ID),
				slog.String("error", err.Error()))
		}
	}

	notice := model.SuspensionNotice{
		AccountID:      accountID,
		Reason:         s.Reason,
		SuspendedUntil: s.SuspendedUntil.UTC().Format(time.RFC3339),
	}
	if err := m.deliverer.NotifySuspension(ctx, notice); err != nil {
		m.logger.Warn("suspension notice failed", slog.String("account", accountID), slog.String("error", err.Error()))
	}
	return true, nil
}

// Unban lifts a suspension. It reports whether one existed.
func (m *AbuseMonitor) Unban(ctx context.Context, accountID string) (bool, error) {
	ok, err := m.suspensions.Delete(ctx, accountID)
	if err != nil {
		return false, err
	}
	if ok {
		m.logger.Info("account unbanned", slog.String("account", accountID))
	}
	return ok, nil
}
