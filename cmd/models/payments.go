package models

import (
	"time"

	"gorm.io/gorm"
)

// Payment statuses. There is no external gateway: the activation path
// records a completed payment synchronously.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentCanceled  = "canceled"
	PaymentRefunded  = "refunded"
)

type Payment struct {
	gorm.Model
	Reference string    `gorm:"column:reference;size:36;unique;not null" json:"reference"`
	Amount    float64   `gorm:"column:amount;not null" json:"amount"`
	Date      time.Time `gorm:"column:date;not null" json:"date"`
	Status    string    `gorm:"column:status;size:20;not null;default:pending" json:"status"`
}

func (Payment) TableName() string {
	return "payments"
}
