package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	subscriptiondomain "github.com/smallbiznis/duebook/internal/subscription/domain"
	"gorm.io/gorm"
)

const subscriptionColumns = `id, client_id, service_id, billing_mode, period, charge_day, custom_price,
	 start_date, next_payment_date, last_paid_date, is_active, metadata, created_at, updated_at`

type repo struct{}

func Provide() subscriptiondomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, subscription *subscriptiondomain.Subscription) error {
	return db.WithContext(ctx).Create(subscription).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, subscription *subscriptiondomain.Subscription) error {
	return db.WithContext(ctx).Save(subscription).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM subscriptions WHERE id = ?`, id).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*subscriptiondomain.Subscription, error) {
	var subscription subscriptiondomain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = ?`,
		id,
	).Scan(&subscription).Error
	if err != nil {
		return nil, err
	}
	if subscription.ID == 0 {
		return nil, nil
	}
	return &subscription, nil
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*subscriptiondomain.Subscription, error) {
	var subscription subscriptiondomain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = ? `+lockSuffix(db),
		id,
	).Scan(&subscription).Error
	if err != nil {
		return nil, err
	}
	if subscription.ID == 0 {
		return nil, nil
	}
	return &subscription, nil
}

// List evaluates the tagged filter specification here, keeping query
// construction out of the service layer.
func (r *repo) List(ctx context.Context, db *gorm.DB, filters []subscriptiondomain.Filter, afterID snowflake.ID, limit int) ([]subscriptiondomain.Subscription, error) {
	stmt := db.WithContext(ctx).Model(&subscriptiondomain.Subscription{})
	for _, filter := range filters {
		switch filter.Field {
		case subscriptiondomain.FilterClient:
			stmt = stmt.Where("client_id = ?", filter.Value)
		case subscriptiondomain.FilterService:
			stmt = stmt.Where("service_id = ?", filter.Value)
		case subscriptiondomain.FilterActive:
			stmt = stmt.Where("is_active = ?", filter.Value == "true")
		default:
			return nil, subscriptiondomain.ErrInvalidFilter
		}
	}
	if afterID != 0 {
		stmt = stmt.Where("id > ?", afterID)
	}

	var subscriptions []subscriptiondomain.Subscription
	err := stmt.Order("id ASC").Limit(limit).Find(&subscriptions).Error
	if err != nil {
		return nil, err
	}
	return subscriptions, nil
}

func (r *repo) ListDuePeriodic(ctx context.Context, db *gorm.DB, cutoff time.Time, afterID snowflake.ID, limit int) ([]subscriptiondomain.Subscription, error) {
	var subscriptions []subscriptiondomain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+subscriptionColumns+` FROM subscriptions
		 WHERE is_active = ? AND billing_mode = ? AND id > ?
		   AND next_payment_date IS NOT NULL AND next_payment_date <= ?
		 ORDER BY id ASC
		 LIMIT ?`,
		true,
		subscriptiondomain.BillingModePeriodic,
		afterID,
		cutoff,
		limit,
	).Scan(&subscriptions).Error
	if err != nil {
		return nil, err
	}
	return subscriptions, nil
}

func lockSuffix(db *gorm.DB) string {
	if db.Dialector.Name() == "sqlite" {
		return ""
	}
	return "FOR UPDATE"
}
