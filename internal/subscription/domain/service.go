package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/duebook/internal/schedule"
	"github.com/smallbiznis/duebook/pkg/db/pagination"
	"gorm.io/datatypes"
)

type CreateSubscriptionRequest struct {
	ClientID    string            `json:"client_id"`
	ServiceID   string            `json:"service_id"`
	BillingMode BillingMode       `json:"billing_mode"`
	Period      *schedule.Period  `json:"period,omitempty"`
	ChargeDay   *int              `json:"charge_day,omitempty"`
	CustomPrice *int64            `json:"custom_price,omitempty"`
	StartDate   time.Time         `json:"start_date"`
	IsActive    *bool             `json:"is_active,omitempty"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty"`
	Actor       string            `json:"-"`
}

// UpdateSubscriptionRequest edits schedule parameters. A nil NextPaymentDate
// leaves the cursor alone unless it was never set, in which case it is
// recomputed from the schedule; a non-nil value is trusted as a manual
// correction. Existing payments are never touched retroactively.
type UpdateSubscriptionRequest struct {
	ID              string            `json:"-"`
	Period          *schedule.Period  `json:"period,omitempty"`
	ChargeDay       *int              `json:"charge_day,omitempty"`
	CustomPrice     *int64            `json:"custom_price,omitempty"`
	StartDate       *time.Time        `json:"start_date,omitempty"`
	NextPaymentDate *time.Time        `json:"next_payment_date,omitempty"`
	IsActive        *bool             `json:"is_active,omitempty"`
	Metadata        datatypes.JSONMap `json:"metadata,omitempty"`
	Actor           string            `json:"-"`
}

// FilterField enumerates the searchable subscription fields; the repository
// evaluates the filter, keeping query construction out of the core.
type FilterField string

const (
	FilterClient  FilterField = "client"
	FilterService FilterField = "service"
	FilterActive  FilterField = "active"
)

type Filter struct {
	Field FilterField
	Value string
}

type ListSubscriptionRequest struct {
	Filters   []Filter
	PageToken string
	PageSize  int32
}

type ListSubscriptionResponse struct {
	pagination.PageInfo
	Subscriptions []Subscription `json:"subscriptions"`
}

type Service interface {
	Create(context.Context, CreateSubscriptionRequest) (Subscription, error)
	Update(context.Context, UpdateSubscriptionRequest) (Subscription, error)

	// Delete removes the subscription and purges its unpaid payments in one
	// transaction. Paid payments survive as history.
	Delete(ctx context.Context, id string, actor string) error

	GetByID(ctx context.Context, id string) (Subscription, error)
	List(context.Context, ListSubscriptionRequest) (ListSubscriptionResponse, error)
}

var (
	ErrSubscriptionNotFound = errors.New("subscription_not_found")
	ErrInvalidID            = errors.New("invalid_subscription_id")
	ErrInvalidBillingMode   = errors.New("invalid_billing_mode")
	ErrPeriodRequired       = errors.New("period_required_for_periodic")
	ErrInvalidPeriod        = errors.New("invalid_period")
	ErrInvalidChargeDay     = errors.New("invalid_charge_day")
	ErrInvalidCustomPrice   = errors.New("invalid_custom_price")
	ErrInvalidStartDate     = errors.New("invalid_start_date")
	ErrInvalidFilter        = errors.New("invalid_filter")
)
