package models

import (
	"gorm.io/gorm"
)

type Analytics struct {
	gorm.Model
	EmitterID          uint  `gorm:"column:emitter_id;unique;not null" json:"emitter_id"`
	PageViews          int64 `gorm:"column:page_views;default:0" json:"page_views"`
	ExternalLinkClicks int64 `gorm:"column:external_link_clicks;default:0" json:"external_link_clicks"`
}

func (Analytics) TableName() string {
	return "analytics"
}
