package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/duebook/internal/catalog/domain"
	"github.com/smallbiznis/duebook/internal/clock"
	horizondomain "github.com/smallbiznis/duebook/internal/horizon/domain"
	paymentdomain "github.com/smallbiznis/duebook/internal/payment/domain"
	"github.com/smallbiznis/duebook/internal/schedule"
	subscriptiondomain "github.com/smallbiznis/duebook/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const sweepBatchSize = 100

type Params struct {
	fx.In

	DB               *gorm.DB
	Log              *zap.Logger
	GenID            *snowflake.Node
	Clock            clock.Clock
	SubscriptionRepo subscriptiondomain.Repository
	PaymentRepo      paymentdomain.Repository
	CatalogRepo      catalogdomain.Repository
}

type Service struct {
	db               *gorm.DB
	log              *zap.Logger
	genID            *snowflake.Node
	clock            clock.Clock
	subscriptionRepo subscriptiondomain.Repository
	paymentRepo      paymentdomain.Repository
	catalogRepo      catalogdomain.Repository
}

func NewService(p Params) horizondomain.Service {
	return &Service{
		db:               p.DB,
		log:              p.Log.Named("horizon.service"),
		genID:            p.GenID,
		clock:            p.Clock,
		subscriptionRepo: p.SubscriptionRepo,
		paymentRepo:      p.PaymentRepo,
		catalogRepo:      p.CatalogRepo,
	}
}

func (s *Service) Sweep(ctx context.Context, lookaheadDays int) (horizondomain.SweepResult, error) {
	if lookaheadDays <= 0 {
		lookaheadDays = horizondomain.DefaultLookaheadDays
	}
	cutoff := clock.Today(s.clock).AddDate(0, 0, lookaheadDays)

	var result horizondomain.SweepResult
	var afterID snowflake.ID
	for {
		batch, err := s.subscriptionRepo.ListDuePeriodic(ctx, s.db, cutoff, afterID, sweepBatchSize)
		if err != nil {
			return result, err
		}

		for _, subscription := range batch {
			afterID = subscription.ID
			result.Examined++

			created, advanced, err := s.ensureDuePayment(ctx, subscription.ID, cutoff)
			if err != nil {
				result.Failed++
				s.log.Warn("horizon sweep item failed",
					zap.String("subscription_id", subscription.ID.String()),
					zap.Error(err),
				)
				continue
			}
			if created {
				result.Created++
			}
			if advanced {
				result.Advanced++
			}
		}

		if len(batch) < sweepBatchSize {
			break
		}
	}
	return result, nil
}

// ensureDuePayment handles one subscription inside its own transaction: it
// rolls the cursor past already-settled due dates, then materializes exactly
// one payment at the cursor when the cursor falls inside the window and no
// payment exists for that (subscription, dueDate) pair.
func (s *Service) ensureDuePayment(ctx context.Context, subscriptionID snowflake.ID, cutoff time.Time) (created bool, advanced bool, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subscription, err := s.subscriptionRepo.FindByIDForUpdate(ctx, tx, subscriptionID)
		if err != nil {
			return err
		}
		if subscription == nil || !subscription.IsActive ||
			subscription.BillingMode != subscriptiondomain.BillingModePeriodic ||
			subscription.Period == nil || subscription.NextPaymentDate == nil {
			return nil
		}

		cursor := schedule.DateOnly(*subscription.NextPaymentDate)
		for {
			existing, err := s.paymentRepo.FindForDueDate(ctx, tx, subscription.ID, cursor)
			if err != nil {
				return err
			}
			if existing == nil {
				if cursor.After(cutoff) {
					break
				}
				if err := s.materialize(ctx, tx, subscription, cursor); err != nil {
					return err
				}
				created = true
				break
			}
			if !existing.IsPaid {
				// Pending obligation at the cursor; nothing to do.
				break
			}
			// Settled obligation: the cursor rolls forward to the next period.
			cursor = schedule.NextDueDate(*subscription.Period, cursor, subscription.ChargeDay)
			advanced = true
		}

		if advanced {
			subscription.NextPaymentDate = &cursor
			subscription.UpdatedAt = time.Now().UTC()
			return s.subscriptionRepo.Update(ctx, tx, subscription)
		}
		return nil
	})
	return created, advanced, err
}

func (s *Service) materialize(ctx context.Context, tx *gorm.DB, subscription *subscriptiondomain.Subscription, dueDate time.Time) error {
	svc, err := s.catalogRepo.FindServiceByID(ctx, tx, subscription.ServiceID)
	if err != nil {
		return err
	}
	if svc == nil {
		return catalogdomain.ErrServiceNotFound
	}

	now := time.Now().UTC()
	serviceID := subscription.ServiceID
	subscriptionID := subscription.ID
	payment := paymentdomain.Payment{
		ID:             s.genID.Generate(),
		ClientID:       subscription.ClientID,
		ServiceID:      &serviceID,
		SubscriptionID: &subscriptionID,
		PaymentType:    paymentdomain.PaymentTypePeriodic,
		DueDate:        dueDate,
		Amount:         subscription.EffectivePrice(svc.BasePrice),
		CreatedBy:      paymentdomain.SystemActorHorizon,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return s.paymentRepo.Insert(ctx, tx, &payment)
}
