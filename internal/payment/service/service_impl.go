package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/duebook/internal/clock"
	paymentdomain "github.com/smallbiznis/duebook/internal/payment/domain"
	"github.com/smallbiznis/duebook/internal/schedule"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  paymentdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  paymentdomain.Repository
}

func NewService(p Params) paymentdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("payment.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

// Create records an ad hoc one-off obligation not tied to any subscription.
func (s *Service) Create(ctx context.Context, req paymentdomain.CreatePaymentRequest) (paymentdomain.Payment, error) {
	clientID, err := parseID(req.ClientID)
	if err != nil {
		return paymentdomain.Payment{}, paymentdomain.ErrInvalidClient
	}
	if req.Amount < 0 {
		return paymentdomain.Payment{}, paymentdomain.ErrInvalidAmount
	}
	if req.DueDate.IsZero() {
		return paymentdomain.Payment{}, paymentdomain.ErrInvalidDueDate
	}

	var serviceID *snowflake.ID
	if req.ServiceID != nil {
		parsed, err := parseID(*req.ServiceID)
		if err != nil {
			return paymentdomain.Payment{}, paymentdomain.ErrInvalidID
		}
		serviceID = &parsed
	}

	now := time.Now().UTC()
	payment := paymentdomain.Payment{
		ID:          s.genID.Generate(),
		ClientID:    clientID,
		ServiceID:   serviceID,
		PaymentType: paymentdomain.PaymentTypeOneOff,
		DueDate:     schedule.DateOnly(req.DueDate),
		Amount:      req.Amount,
		Notes:       req.Notes,
		Metadata:    req.Metadata,
		CreatedBy:   req.Actor,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Insert(ctx, s.db, &payment); err != nil {
		return paymentdomain.Payment{}, err
	}
	s.log.Info("payment created",
		zap.String("payment_id", payment.ID.String()),
		zap.String("actor", req.Actor),
	)
	return payment, nil
}

// Update is the direct correction path. A paid flag flipped here does not
// advance any subscription cursor and does not prune future payments; that
// behavior belongs to the settlement engine alone.
func (s *Service) Update(ctx context.Context, req paymentdomain.UpdatePaymentRequest) (paymentdomain.Payment, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return paymentdomain.Payment{}, paymentdomain.ErrInvalidID
	}
	if req.Amount != nil && *req.Amount < 0 {
		return paymentdomain.Payment{}, paymentdomain.ErrInvalidAmount
	}

	var updated paymentdomain.Payment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payment, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if payment == nil {
			return paymentdomain.ErrPaymentNotFound
		}

		today := clock.Today(s.clock)

		if req.DueDate != nil {
			if req.DueDate.IsZero() {
				return paymentdomain.ErrInvalidDueDate
			}
			payment.DueDate = schedule.DateOnly(*req.DueDate)
			// A due-date edit is the one path that can un-flag overdue.
			payment.IsOverdue = !payment.IsPaid && payment.DueDate.Before(today)
		}
		if req.Amount != nil {
			payment.Amount = *req.Amount
		}
		if req.Notes != nil {
			payment.Notes = req.Notes
		}
		if req.PaymentMethod != nil {
			payment.PaymentMethod = req.PaymentMethod
		}
		if req.Reference != nil {
			payment.Reference = req.Reference
		}
		if req.Metadata != nil {
			payment.Metadata = req.Metadata
		}
		if req.IsPaid != nil && *req.IsPaid != payment.IsPaid {
			payment.IsPaid = *req.IsPaid
			if payment.IsPaid {
				paidDate := today
				payment.PaidDate = &paidDate
				payment.IsOverdue = false
			} else {
				payment.PaidDate = nil
				payment.IsOverdue = payment.DueDate.Before(today)
			}
		}
		payment.UpdatedAt = time.Now().UTC()

		if err := s.repo.Update(ctx, tx, payment); err != nil {
			return err
		}
		updated = *payment
		return nil
	})
	if err != nil {
		return paymentdomain.Payment{}, err
	}

	s.log.Info("payment updated",
		zap.String("payment_id", req.ID),
		zap.String("actor", req.Actor),
	)
	return updated, nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (paymentdomain.Payment, error) {
	id, err := parseID(rawID)
	if err != nil {
		return paymentdomain.Payment{}, paymentdomain.ErrInvalidID
	}
	payment, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return paymentdomain.Payment{}, err
	}
	if payment == nil {
		return paymentdomain.Payment{}, paymentdomain.ErrPaymentNotFound
	}
	return *payment, nil
}

func (s *Service) ListUpcoming(ctx context.Context, req paymentdomain.ListUpcomingRequest) ([]paymentdomain.Payment, error) {
	from := schedule.DateOnly(req.From)
	to := schedule.DateOnly(req.To)
	if to.Before(from) {
		return nil, paymentdomain.ErrInvalidDueDate
	}
	return s.repo.ListDueBetween(ctx, s.db, from, to)
}

func (s *Service) ListOverdue(ctx context.Context) ([]paymentdomain.OverduePayment, error) {
	payments, err := s.repo.ListOverdue(ctx, s.db)
	if err != nil {
		return nil, err
	}

	today := clock.Today(s.clock)
	overdue := make([]paymentdomain.OverduePayment, 0, len(payments))
	for _, payment := range payments {
		days := int(today.Sub(schedule.DateOnly(payment.DueDate)).Hours() / 24)
		overdue = append(overdue, paymentdomain.OverduePayment{
			Payment:     payment,
			DaysOverdue: days,
		})
	}
	return overdue, nil
}

func (s *Service) ListRecent(ctx context.Context, limit int) ([]paymentdomain.Payment, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.ListRecent(ctx, s.db, limit)
}

func (s *Service) Summary(ctx context.Context) (paymentdomain.Summary, error) {
	return s.repo.Aggregates(ctx, s.db)
}

func (s *Service) RefreshOverdue(ctx context.Context) (int64, error) {
	flagged, err := s.repo.MarkOverdue(ctx, s.db, clock.Today(s.clock))
	if err != nil {
		return 0, err
	}
	if flagged > 0 {
		s.log.Info("overdue refresh flagged payments", zap.Int64("count", flagged))
	}
	return flagged, nil
}

func parseID(raw string) (snowflake.ID, error) {
	parsed, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || parsed == 0 {
		return 0, paymentdomain.ErrInvalidID
	}
	return snowflake.ID(parsed), nil
}
