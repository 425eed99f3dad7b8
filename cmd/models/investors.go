package models

import (
	"gorm.io/gorm"
)

// Investor is a lead captured by the public track-interest endpoint,
// keyed by email.
type Investor struct {
	gorm.Model
	Name  string  `gorm:"column:name;size:255" json:"name"`
	Email string  `gorm:"column:email;size:255;unique;not null" json:"email"`
	Phone *string `gorm:"column:phone;size:20" json:"phone,omitempty"`
	Role  string  `gorm:"column:role;size:50;not null;default:investor" json:"role"`
}

func (Investor) TableName() string {
	return "investors"
}
