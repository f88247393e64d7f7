package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/duebook/internal/catalog/domain"
	paymentdomain "github.com/smallbiznis/duebook/internal/payment/domain"
	"github.com/smallbiznis/duebook/internal/schedule"
	subscriptiondomain "github.com/smallbiznis/duebook/internal/subscription/domain"
	"github.com/smallbiznis/duebook/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Repo        subscriptiondomain.Repository
	PaymentRepo paymentdomain.Repository
	CatalogRepo catalogdomain.Repository
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	repo        subscriptiondomain.Repository
	paymentRepo paymentdomain.Repository
	catalogRepo catalogdomain.Repository
}

func NewService(p Params) subscriptiondomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("subscription.service"),
		genID:       p.GenID,
		repo:        p.Repo,
		paymentRepo: p.PaymentRepo,
		catalogRepo: p.CatalogRepo,
	}
}

// Create validates the schedule, computes the first due date, and inserts the
// subscription together with its first payment in a single transaction.
// Nothing persists if any step fails.
func (s *Service) Create(ctx context.Context, req subscriptiondomain.CreateSubscriptionRequest) (subscriptiondomain.Subscription, error) {
	clientID, err := parseID(req.ClientID)
	if err != nil {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrInvalidID
	}
	serviceID, err := parseID(req.ServiceID)
	if err != nil {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrInvalidID
	}
	if err := validateSchedule(req.BillingMode, req.Period, req.ChargeDay); err != nil {
		return subscriptiondomain.Subscription{}, err
	}
	if req.CustomPrice != nil && *req.CustomPrice < 0 {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrInvalidCustomPrice
	}
	if req.StartDate.IsZero() {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrInvalidStartDate
	}

	client, err := s.catalogRepo.FindClientByID(ctx, s.db, clientID)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}
	if client == nil {
		return subscriptiondomain.Subscription{}, catalogdomain.ErrClientNotFound
	}
	svc, err := s.catalogRepo.FindServiceByID(ctx, s.db, serviceID)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}
	if svc == nil {
		return subscriptiondomain.Subscription{}, catalogdomain.ErrServiceNotFound
	}

	now := time.Now().UTC()
	startDate := schedule.DateOnly(req.StartDate)
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	subscription := subscriptiondomain.Subscription{
		ID:          s.genID.Generate(),
		ClientID:    clientID,
		ServiceID:   serviceID,
		BillingMode: req.BillingMode,
		Period:      req.Period,
		ChargeDay:   req.ChargeDay,
		CustomPrice: req.CustomPrice,
		StartDate:   startDate,
		IsActive:    isActive,
		Metadata:    req.Metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	firstDue := startDate
	if req.BillingMode == subscriptiondomain.BillingModePeriodic {
		firstDue = schedule.InitialDueDate(*req.Period, startDate, req.ChargeDay)
		subscription.NextPaymentDate = &firstDue
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &subscription); err != nil {
			return err
		}
		if !isActive {
			return nil
		}

		payment := paymentdomain.Payment{
			ID:             s.genID.Generate(),
			ClientID:       clientID,
			ServiceID:      &serviceID,
			SubscriptionID: &subscription.ID,
			PaymentType:    paymentType(req.BillingMode),
			DueDate:        firstDue,
			Amount:         subscription.EffectivePrice(svc.BasePrice),
			CreatedBy:      req.Actor,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		return s.paymentRepo.Insert(ctx, tx, &payment)
	})
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}

	s.log.Info("subscription created",
		zap.String("subscription_id", subscription.ID.String()),
		zap.String("client_id", clientID.String()),
		zap.String("actor", req.Actor),
	)
	return subscription, nil
}

// Update edits schedule parameters. An explicitly supplied cursor is trusted
// as a manual correction; an unset cursor on a periodic subscription is
// recomputed from the (possibly edited) schedule. Existing payments are left
// untouched.
func (s *Service) Update(ctx context.Context, req subscriptiondomain.UpdateSubscriptionRequest) (subscriptiondomain.Subscription, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrInvalidID
	}

	var updated subscriptiondomain.Subscription
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subscription, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if subscription == nil {
			return subscriptiondomain.ErrSubscriptionNotFound
		}

		if req.Period != nil {
			subscription.Period = req.Period
		}
		if req.ChargeDay != nil {
			subscription.ChargeDay = req.ChargeDay
		}
		if err := validateSchedule(subscription.BillingMode, subscription.Period, subscription.ChargeDay); err != nil {
			return err
		}
		if req.CustomPrice != nil {
			if *req.CustomPrice < 0 {
				return subscriptiondomain.ErrInvalidCustomPrice
			}
			subscription.CustomPrice = req.CustomPrice
		}
		if req.StartDate != nil {
			if req.StartDate.IsZero() {
				return subscriptiondomain.ErrInvalidStartDate
			}
			start := schedule.DateOnly(*req.StartDate)
			subscription.StartDate = start
		}
		if req.IsActive != nil {
			subscription.IsActive = *req.IsActive
		}
		if req.Metadata != nil {
			subscription.Metadata = req.Metadata
		}

		switch {
		case req.NextPaymentDate != nil:
			cursor := schedule.DateOnly(*req.NextPaymentDate)
			subscription.NextPaymentDate = &cursor
		case subscription.BillingMode == subscriptiondomain.BillingModePeriodic && cursorUnset(subscription.NextPaymentDate):
			cursor := schedule.InitialDueDate(*subscription.Period, subscription.StartDate, subscription.ChargeDay)
			subscription.NextPaymentDate = &cursor
		}

		subscription.UpdatedAt = time.Now().UTC()
		if err := s.repo.Update(ctx, tx, subscription); err != nil {
			return err
		}
		updated = *subscription
		return nil
	})
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}

	s.log.Info("subscription updated",
		zap.String("subscription_id", req.ID),
		zap.String("actor", req.Actor),
	)
	return updated, nil
}

// Delete purges the subscription's unpaid payments and removes the row in one
// transaction. Paid payments are preserved for history.
func (s *Service) Delete(ctx context.Context, rawID string, actor string) error {
	id, err := parseID(rawID)
	if err != nil {
		return subscriptiondomain.ErrInvalidID
	}

	var purged int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subscription, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if subscription == nil {
			return subscriptiondomain.ErrSubscriptionNotFound
		}

		purged, err = s.paymentRepo.DeleteUnpaidBySubscription(ctx, tx, id)
		if err != nil {
			return err
		}
		return s.repo.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	s.log.Info("subscription deleted",
		zap.String("subscription_id", rawID),
		zap.Int64("unpaid_payments_purged", purged),
		zap.String("actor", actor),
	)
	return nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (subscriptiondomain.Subscription, error) {
	id, err := parseID(rawID)
	if err != nil {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrInvalidID
	}
	subscription, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}
	if subscription == nil {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrSubscriptionNotFound
	}
	return *subscription, nil
}

func (s *Service) List(ctx context.Context, req subscriptiondomain.ListSubscriptionRequest) (subscriptiondomain.ListSubscriptionResponse, error) {
	limit := int(req.PageSize)
	if limit <= 0 {
		limit = 20
	}
	if limit > 250 {
		limit = 250
	}

	var afterID snowflake.ID
	if req.PageToken != "" {
		cursor, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return subscriptiondomain.ListSubscriptionResponse{}, subscriptiondomain.ErrInvalidFilter
		}
		parsed, err := strconv.ParseInt(cursor.ID, 10, 64)
		if err != nil {
			return subscriptiondomain.ListSubscriptionResponse{}, subscriptiondomain.ErrInvalidFilter
		}
		afterID = snowflake.ID(parsed)
	}

	subscriptions, err := s.repo.List(ctx, s.db, req.Filters, afterID, limit+1)
	if err != nil {
		return subscriptiondomain.ListSubscriptionResponse{}, err
	}

	resp := subscriptiondomain.ListSubscriptionResponse{}
	if len(subscriptions) > limit {
		subscriptions = subscriptions[:limit]
		resp.HasMore = true
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID: subscriptions[len(subscriptions)-1].ID.String(),
		})
		if err != nil {
			return subscriptiondomain.ListSubscriptionResponse{}, err
		}
		resp.NextPageToken = token
	}
	resp.Subscriptions = subscriptions
	return resp, nil
}

func validateSchedule(mode subscriptiondomain.BillingMode, period *schedule.Period, chargeDay *int) error {
	switch mode {
	case subscriptiondomain.BillingModeOneOff:
		return nil
	case subscriptiondomain.BillingModePeriodic:
	default:
		return subscriptiondomain.ErrInvalidBillingMode
	}

	if period == nil {
		return subscriptiondomain.ErrPeriodRequired
	}
	switch *period {
	case schedule.PeriodWeekly, schedule.PeriodMonthly, schedule.PeriodQuarterly, schedule.PeriodYearly:
	default:
		return subscriptiondomain.ErrInvalidPeriod
	}

	if chargeDay == nil || *period == schedule.PeriodWeekly {
		return nil
	}
	switch *period {
	case schedule.PeriodMonthly, schedule.PeriodQuarterly:
		if *chargeDay < 1 || *chargeDay > 31 {
			return subscriptiondomain.ErrInvalidChargeDay
		}
	case schedule.PeriodYearly:
		if *chargeDay < 1 || *chargeDay > 366 {
			return subscriptiondomain.ErrInvalidChargeDay
		}
	}
	return nil
}

func paymentType(mode subscriptiondomain.BillingMode) paymentdomain.PaymentType {
	if mode == subscriptiondomain.BillingModePeriodic {
		return paymentdomain.PaymentTypePeriodic
	}
	return paymentdomain.PaymentTypeOneOff
}

func cursorUnset(cursor *time.Time) bool {
	return cursor == nil || cursor.IsZero()
}

func parseID(raw string) (snowflake.ID, error) {
	parsed, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || parsed == 0 {
		return 0, subscriptiondomain.ErrInvalidID
	}
	return snowflake.ID(parsed), nil
}
