package models

import (
	"gorm.io/gorm"
)

type Admin struct {
	gorm.Model
	Username     string  `gorm:"column:username;size:255;unique;not null" json:"username"`
	Email        *string `gorm:"column:email;size:255;unique" json:"email,omitempty"`
	PasswordHash string  `gorm:"column:password_hash;size:255;not null" json:"-"`
	Role         string  `gorm:"column:role;size:50;not null;default:admin" json:"role"`
}

func (Admin) TableName() string {
	return "admins"
}
