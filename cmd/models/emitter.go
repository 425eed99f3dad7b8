package models

import (
	"gorm.io/gorm"
)

// Moderation statuses for an emitter profile.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

type Emitter struct {
	gorm.Model
	Name               string  `gorm:"column:name;size:255;unique;not null" json:"name"`
	Email              string  `gorm:"column:email;size:255;unique;not null" json:"email"`
	PasswordHash       string  `gorm:"column:password_hash;size:255;not null" json:"-"`
	TaxNumber          *string `gorm:"column:tax_number;size:12;unique" json:"tax_number,omitempty"`
	RegistrationNumber *string `gorm:"column:registration_number;size:15;unique" json:"registration_number,omitempty"`
	LegalAddress       string  `gorm:"column:legal_address;type:text" json:"legal_address,omitempty"`
	ActualAddress      string  `gorm:"column:actual_address;type:text" json:"actual_address,omitempty"`
	Phone              string  `gorm:"column:phone;size:20" json:"phone,omitempty"`
	Website            string  `gorm:"column:website;size:255" json:"website,omitempty"`
	Description        string  `gorm:"column:description;type:text" json:"description,omitempty"`
	LogoURL            string  `gorm:"column:logo_url;size:255" json:"logo_url,omitempty"`
	Status             string  `gorm:"column:status;size:20;not null;default:pending" json:"status"`
	RejectionReason    *string `gorm:"column:rejection_reason;type:text" json:"rejection_reason"`

	FinancialData *FinancialData `gorm:"foreignKey:EmitterID;constraint:OnDelete:CASCADE;" json:"financial_data,omitempty"`
	Analytics     *Analytics     `gorm:"foreignKey:EmitterID;constraint:OnDelete:CASCADE;" json:"analytics,omitempty"`
	Subscriptions []Subscription `gorm:"foreignKey:EmitterID;constraint:OnDelete:CASCADE;" json:"subscriptions,omitempty"`
}

func (Emitter) TableName() string {
	return "emitters"
}
