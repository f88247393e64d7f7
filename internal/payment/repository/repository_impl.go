package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	paymentdomain "github.com/smallbiznis/duebook/internal/payment/domain"
	"gorm.io/gorm"
)

const paymentColumns = `id, client_id, service_id, subscription_id, payment_type, due_date, amount,
	 is_paid, paid_date, payment_method, reference, is_overdue, notes, created_by, metadata,
	 created_at, updated_at`

type repo struct{}

func Provide() paymentdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, payment *paymentdomain.Payment) error {
	return db.WithContext(ctx).Create(payment).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, payment *paymentdomain.Payment) error {
	return db.WithContext(ctx).Save(payment).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*paymentdomain.Payment, error) {
	var payment paymentdomain.Payment
	err := db.WithContext(ctx).Raw(
		`SELECT `+paymentColumns+` FROM payments WHERE id = ?`,
		id,
	).Scan(&payment).Error
	if err != nil {
		return nil, err
	}
	if payment.ID == 0 {
		return nil, nil
	}
	return &payment, nil
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*paymentdomain.Payment, error) {
	var payment paymentdomain.Payment
	err := db.WithContext(ctx).Raw(
		`SELECT `+paymentColumns+` FROM payments WHERE id = ? `+lockSuffix(db),
		id,
	).Scan(&payment).Error
	if err != nil {
		return nil, err
	}
	if payment.ID == 0 {
		return nil, nil
	}
	return &payment, nil
}

func (r *repo) FindForDueDate(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID, dueDate time.Time) (*paymentdomain.Payment, error) {
	var payment paymentdomain.Payment
	err := db.WithContext(ctx).Raw(
		`SELECT `+paymentColumns+` FROM payments WHERE subscription_id = ? AND due_date = ? LIMIT 1`,
		subscriptionID,
		dueDate,
	).Scan(&payment).Error
	if err != nil {
		return nil, err
	}
	if payment.ID == 0 {
		return nil, nil
	}
	return &payment, nil
}

func (r *repo) ListUnpaidBySubscription(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID) ([]paymentdomain.Payment, error) {
	var payments []paymentdomain.Payment
	err := db.WithContext(ctx).Raw(
		`SELECT `+paymentColumns+` FROM payments
		 WHERE subscription_id = ? AND is_paid = ?
		 ORDER BY due_date ASC`,
		subscriptionID,
		false,
	).Scan(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repo) DeleteUnpaidBySubscription(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`DELETE FROM payments WHERE subscription_id = ? AND is_paid = ?`,
		subscriptionID,
		false,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) DeleteUnpaidBetween(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID, after, before time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`DELETE FROM payments
		 WHERE subscription_id = ? AND is_paid = ? AND due_date > ? AND due_date < ?`,
		subscriptionID,
		false,
		after,
		before,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) ListDueBetween(ctx context.Context, db *gorm.DB, from, to time.Time) ([]paymentdomain.Payment, error) {
	var payments []paymentdomain.Payment
	err := db.WithContext(ctx).Raw(
		`SELECT `+paymentColumns+` FROM payments
		 WHERE is_paid = ? AND due_date >= ? AND due_date <= ?
		 ORDER BY due_date ASC`,
		false,
		from,
		to,
	).Scan(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repo) ListOverdue(ctx context.Context, db *gorm.DB) ([]paymentdomain.Payment, error) {
	var payments []paymentdomain.Payment
	err := db.WithContext(ctx).Raw(
		`SELECT `+paymentColumns+` FROM payments
		 WHERE is_paid = ? AND is_overdue = ?
		 ORDER BY due_date ASC`,
		false,
		true,
	).Scan(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repo) ListRecent(ctx context.Context, db *gorm.DB, limit int) ([]paymentdomain.Payment, error) {
	var payments []paymentdomain.Payment
	err := db.WithContext(ctx).Raw(
		`SELECT `+paymentColumns+` FROM payments
		 ORDER BY COALESCE(paid_date, created_at) DESC
		 LIMIT ?`,
		limit,
	).Scan(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repo) MarkOverdue(ctx context.Context, db *gorm.DB, today time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE payments
		 SET is_overdue = ?, updated_at = ?
		 WHERE is_paid = ? AND is_overdue = ? AND due_date < ?`,
		true,
		time.Now().UTC(),
		false,
		false,
		today,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) Aggregates(ctx context.Context, db *gorm.DB) (paymentdomain.Summary, error) {
	var summary paymentdomain.Summary
	err := db.WithContext(ctx).Raw(
		`SELECT
		   COALESCE(SUM(CASE WHEN is_paid THEN amount ELSE 0 END), 0) AS paid_total,
		   COALESCE(SUM(CASE WHEN is_paid THEN 0 ELSE amount END), 0) AS unpaid_total,
		   COALESCE(SUM(CASE WHEN is_overdue AND NOT is_paid THEN 1 ELSE 0 END), 0) AS overdue_count
		 FROM payments`,
	).Scan(&summary).Error
	if err != nil {
		return paymentdomain.Summary{}, err
	}
	return summary, nil
}

// lockSuffix returns a row-lock clause on dialects that support it. SQLite
// serializes writers at the database level, so the clause is omitted there.
func lockSuffix(db *gorm.DB) string {
	if db.Dialector.Name() == "sqlite" {
		return ""
	}
	return "FOR UPDATE"
}
