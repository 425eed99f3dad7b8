package models

import (
	"time"

	"gorm.io/gorm"
)

// Subscription payment statuses. The ledger is append-only: rows are never
// deleted, an expired row is flipped to disable the next time it is read.
const (
	SubscriptionActive  = "active"
	SubscriptionDisable = "disable"
)

type Subscription struct {
	gorm.Model
	EmitterID     uint      `gorm:"column:emitter_id;index;not null" json:"emitter_id"`
	TariffName    string    `gorm:"column:tariff_name;size:255;not null" json:"tariff_name"`
	DurationDays  int       `gorm:"column:duration_days;not null" json:"duration_days"`
	PaymentID     uint      `gorm:"column:payment_id;unique;not null" json:"payment_id"`
	StartDate     time.Time `gorm:"column:start_date;index" json:"start_date"`
	EndDate       time.Time `gorm:"column:end_date;index" json:"end_date"`
	PaymentStatus string    `gorm:"column:payment_status;size:20;not null;default:active" json:"payment_status"`
	PaymentAmount float64   `gorm:"column:payment_amount;not null" json:"payment_amount"`

	Payment *Payment `gorm:"foreignKey:PaymentID;constraint:OnDelete:CASCADE;" json:"payment,omitempty"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}
