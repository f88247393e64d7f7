package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
)

type CreatePaymentRequest struct {
	ClientID  string            `json:"client_id"`
	ServiceID *string           `json:"service_id,omitempty"`
	DueDate   time.Time         `json:"due_date"`
	Amount    int64             `json:"amount"`
	Notes     *string           `json:"notes,omitempty"`
	Metadata  datatypes.JSONMap `json:"metadata,omitempty"`
	Actor     string            `json:"-"`
}

// UpdatePaymentRequest is the direct edit path. Flipping IsPaid here bypasses
// the settlement engine: no cursor advance, no pruning of future payments.
type UpdatePaymentRequest struct {
	ID            string            `json:"-"`
	DueDate       *time.Time        `json:"due_date,omitempty"`
	Amount        *int64            `json:"amount,omitempty"`
	Notes         *string           `json:"notes,omitempty"`
	IsPaid        *bool             `json:"is_paid,omitempty"`
	PaymentMethod *string           `json:"payment_method,omitempty"`
	Reference     *string           `json:"reference,omitempty"`
	Metadata      datatypes.JSONMap `json:"metadata,omitempty"`
	Actor         string            `json:"-"`
}

type ListUpcomingRequest struct {
	From time.Time
	To   time.Time
}

// OverduePayment decorates a ledger entry with its computed days overdue.
type OverduePayment struct {
	Payment
	DaysOverdue int `json:"days_overdue"`
}

type Service interface {
	Create(context.Context, CreatePaymentRequest) (Payment, error)
	Update(context.Context, UpdatePaymentRequest) (Payment, error)
	GetByID(ctx context.Context, id string) (Payment, error)

	ListUpcoming(context.Context, ListUpcomingRequest) ([]Payment, error)
	ListOverdue(ctx context.Context) ([]OverduePayment, error)
	ListRecent(ctx context.Context, limit int) ([]Payment, error)
	Summary(ctx context.Context) (Summary, error)

	// RefreshOverdue recomputes the overdue flag on unpaid, past-due payments.
	// Idempotent and monotonic per payment until settlement or a due-date edit.
	RefreshOverdue(ctx context.Context) (int64, error)
}

var (
	ErrPaymentNotFound = errors.New("payment_not_found")
	ErrInvalidID       = errors.New("invalid_payment_id")
	ErrInvalidAmount   = errors.New("invalid_amount")
	ErrInvalidDueDate  = errors.New("invalid_due_date")
	ErrInvalidClient   = errors.New("invalid_client")
)
