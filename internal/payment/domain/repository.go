package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository methods take the gorm handle from the caller, so composite
// operations (subscription create, settlement) can run them inside one
// caller-owned transaction.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, payment *Payment) error
	Update(ctx context.Context, db *gorm.DB, payment *Payment) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Payment, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Payment, error)

	// FindForDueDate is the horizon sweep's idempotency check: at most one
	// payment per (subscription_id, due_date).
	FindForDueDate(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID, dueDate time.Time) (*Payment, error)

	ListUnpaidBySubscription(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID) ([]Payment, error)
	DeleteUnpaidBySubscription(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID) (int64, error)

	// DeleteUnpaidBetween removes unpaid payments with after < due_date < before
	// (both bounds strict) for the subscription. Used when a bulk settlement
	// supersedes already-materialized future obligations.
	DeleteUnpaidBetween(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID, after, before time.Time) (int64, error)

	ListDueBetween(ctx context.Context, db *gorm.DB, from, to time.Time) ([]Payment, error)
	ListOverdue(ctx context.Context, db *gorm.DB) ([]Payment, error)
	ListRecent(ctx context.Context, db *gorm.DB, limit int) ([]Payment, error)

	// MarkOverdue flags every unpaid payment due strictly before today.
	// Returns the number of newly flagged rows.
	MarkOverdue(ctx context.Context, db *gorm.DB, today time.Time) (int64, error)

	Aggregates(ctx context.Context, db *gorm.DB) (Summary, error)
}

// Summary holds the scalar aggregates exposed to reporting collaborators.
type Summary struct {
	PaidTotal    int64 `json:"paid_total"`
	UnpaidTotal  int64 `json:"unpaid_total"`
	OverdueCount int64 `json:"overdue_count"`
}
