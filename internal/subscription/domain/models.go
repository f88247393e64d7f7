// Package domain contains persistence models for client subscriptions.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/duebook/internal/schedule"
	"gorm.io/datatypes"
)

// BillingMode distinguishes one-off engagements from recurring schedules.
type BillingMode string

const (
	BillingModeOneOff   BillingMode = "ONE_OFF"
	BillingModePeriodic BillingMode = "PERIODIC"
)

// Subscription binds a client to a service with a billing schedule.
//
// NextPaymentDate is the schedule cursor: for an active periodic subscription
// it is always the earliest due date not yet materialized, or the due date of
// a currently unpaid payment awaiting settlement. It is nil for one-off
// subscriptions.
type Subscription struct {
	ID              snowflake.ID      `gorm:"primaryKey"`
	ClientID        snowflake.ID      `gorm:"not null;index"`
	ServiceID       snowflake.ID      `gorm:"not null;index"`
	BillingMode     BillingMode       `gorm:"type:text;not null"`
	Period          *schedule.Period  `gorm:"type:text"`
	ChargeDay       *int              `gorm:"type:smallint"`
	CustomPrice     *int64            `gorm:""`
	StartDate       time.Time         `gorm:"not null"`
	NextPaymentDate *time.Time        `gorm:"index"`
	LastPaidDate    *time.Time        `gorm:""`
	IsActive        bool              `gorm:"not null;default:true"`
	Metadata        datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt       time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "subscriptions" }

// EffectivePrice is the amount snapshotted onto materialized payments: the
// subscription's override when present, the service base price otherwise.
func (s Subscription) EffectivePrice(basePrice int64) int64 {
	if s.CustomPrice != nil {
		return *s.CustomPrice
	}
	return basePrice
}
