// Package domain defines the settlement contract: marking a payment paid,
// optionally covering several future billing periods at once.
package domain

import (
	"context"
	"errors"

	paymentdomain "github.com/smallbiznis/duebook/internal/payment/domain"
)

type MarkPaidRequest struct {
	PaymentID     string  `json:"-"`
	PaymentMethod string  `json:"payment_method"`
	Reference     *string `json:"reference,omitempty"`
	PeriodsPaid   int     `json:"periods_paid"`
	Actor         string  `json:"-"`
}

type Service interface {
	// MarkPaid settles a payment in one transaction. When the payment belongs
	// to a periodic subscription and PeriodsPaid > 1, the subscription cursor
	// advances by that many periods and unpaid payments falling strictly
	// between the settled due date and the new cursor are deleted; they are
	// covered by the bulk payment, not billed again. With PeriodsPaid == 1 the
	// cursor is untouched and the next horizon sweep advances it naturally.
	MarkPaid(context.Context, MarkPaidRequest) (paymentdomain.Payment, error)
}

var (
	ErrInvalidPeriodsPaid = errors.New("invalid_periods_paid")
	ErrAlreadyPaid        = errors.New("payment_already_paid")
)
