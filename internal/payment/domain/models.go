// Package domain contains the payment ledger model: one row per billing
// obligation, carrying its settlement state.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// PaymentType mirrors the billing mode of the originating subscription.
// Ad hoc payments entered without a subscription are always one-off.
type PaymentType string

const (
	PaymentTypeOneOff   PaymentType = "ONE_OFF"
	PaymentTypePeriodic PaymentType = "PERIODIC"
)

// SystemActorHorizon stamps payments materialized by the horizon sweep,
// distinguishing them from user-entered obligations.
const SystemActorHorizon = "system:horizon"

// Payment is a single ledger entry. Amount is a snapshot of the effective
// price at creation time; later price changes never alter it.
type Payment struct {
	ID             snowflake.ID      `gorm:"primaryKey"`
	ClientID       snowflake.ID      `gorm:"not null;index"`
	ServiceID      *snowflake.ID     `gorm:"index"`
	SubscriptionID *snowflake.ID     `gorm:"index:idx_payments_subscription_due"`
	PaymentType    PaymentType       `gorm:"type:text;not null"`
	DueDate        time.Time         `gorm:"not null;index;index:idx_payments_subscription_due"`
	Amount         int64             `gorm:"not null"`
	IsPaid         bool              `gorm:"not null;default:false"`
	PaidDate       *time.Time        `gorm:""`
	PaymentMethod  *string           `gorm:"type:text"`
	Reference      *string           `gorm:"type:text"`
	IsOverdue      bool              `gorm:"not null;default:false"`
	Notes          *string           `gorm:"type:text"`
	CreatedBy      string            `gorm:"type:text;not null"`
	Metadata       datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }
