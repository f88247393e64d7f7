package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/duebook/internal/clock"
	paymentdomain "github.com/smallbiznis/duebook/internal/payment/domain"
	"github.com/smallbiznis/duebook/internal/schedule"
	settlementdomain "github.com/smallbiznis/duebook/internal/settlement/domain"
	subscriptiondomain "github.com/smallbiznis/duebook/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB               *gorm.DB
	Log              *zap.Logger
	Clock            clock.Clock
	PaymentRepo      paymentdomain.Repository
	SubscriptionRepo subscriptiondomain.Repository
}

type Service struct {
	db               *gorm.DB
	log              *zap.Logger
	clock            clock.Clock
	paymentRepo      paymentdomain.Repository
	subscriptionRepo subscriptiondomain.Repository
}

func NewService(p Params) settlementdomain.Service {
	return &Service{
		db:               p.DB,
		log:              p.Log.Named("settlement.service"),
		clock:            p.Clock,
		paymentRepo:      p.PaymentRepo,
		subscriptionRepo: p.SubscriptionRepo,
	}
}

func (s *Service) MarkPaid(ctx context.Context, req settlementdomain.MarkPaidRequest) (paymentdomain.Payment, error) {
	paymentID, err := parseID(req.PaymentID)
	if err != nil {
		return paymentdomain.Payment{}, paymentdomain.ErrInvalidID
	}
	if req.PeriodsPaid < 1 {
		return paymentdomain.Payment{}, settlementdomain.ErrInvalidPeriodsPaid
	}

	today := clock.Today(s.clock)
	reference := referenceOrGenerated(req.Reference)

	var settled paymentdomain.Payment
	var pruned int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payment, err := s.paymentRepo.FindByIDForUpdate(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if payment == nil {
			return paymentdomain.ErrPaymentNotFound
		}
		if payment.IsPaid {
			return settlementdomain.ErrAlreadyPaid
		}

		method := strings.TrimSpace(req.PaymentMethod)
		payment.IsPaid = true
		payment.PaidDate = &today
		if method != "" {
			payment.PaymentMethod = &method
		}
		payment.Reference = &reference
		payment.IsOverdue = false
		payment.UpdatedAt = time.Now().UTC()
		if err := s.paymentRepo.Update(ctx, tx, payment); err != nil {
			return err
		}

		if req.PeriodsPaid > 1 && payment.SubscriptionID != nil {
			pruned, err = s.advanceCursor(ctx, tx, payment, req.PeriodsPaid, today)
			if err != nil {
				return err
			}
		}

		settled = *payment
		return nil
	})
	if err != nil {
		return paymentdomain.Payment{}, err
	}

	s.log.Info("payment settled",
		zap.String("payment_id", req.PaymentID),
		zap.Int("periods_paid", req.PeriodsPaid),
		zap.Int64("superseded_payments_pruned", pruned),
		zap.String("actor", req.Actor),
	)
	return settled, nil
}

// advanceCursor moves the subscription cursor forward by periodsPaid periods
// and deletes unpaid payments strictly between the settled due date and the
// new cursor. One-off subscriptions are left untouched.
func (s *Service) advanceCursor(ctx context.Context, tx *gorm.DB, payment *paymentdomain.Payment, periodsPaid int, today time.Time) (int64, error) {
	subscription, err := s.subscriptionRepo.FindByIDForUpdate(ctx, tx, *payment.SubscriptionID)
	if err != nil {
		return 0, err
	}
	if subscription == nil || subscription.BillingMode != subscriptiondomain.BillingModePeriodic || subscription.Period == nil {
		return 0, nil
	}

	base := payment.DueDate
	if subscription.NextPaymentDate != nil && !subscription.NextPaymentDate.IsZero() {
		base = *subscription.NextPaymentDate
	}
	newCursor := schedule.AdvanceDueDate(*subscription.Period, base, subscription.ChargeDay, periodsPaid)

	subscription.LastPaidDate = &today
	subscription.NextPaymentDate = &newCursor
	subscription.UpdatedAt = time.Now().UTC()
	if err := s.subscriptionRepo.Update(ctx, tx, subscription); err != nil {
		return 0, err
	}

	return s.paymentRepo.DeleteUnpaidBetween(ctx, tx, subscription.ID, payment.DueDate, newCursor)
}

func referenceOrGenerated(ref *string) string {
	if ref != nil {
		if trimmed := strings.TrimSpace(*ref); trimmed != "" {
			return trimmed
		}
	}
	return ulid.Make().String()
}

func parseID(raw string) (snowflake.ID, error) {
	parsed, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || parsed == 0 {
		return 0, paymentdomain.ErrInvalidID
	}
	return snowflake.ID(parsed), nil
}
