// Package analytics maintains the per-emitter page-view and link-click
// counters. Increments are atomic column updates, so concurrent requests
// never lose counts.
package analytics

import (
	"github.com/otcboard/otcboard-server/cmd/models"
	"gorm.io/gorm"
)

// CreateInitial inserts the zeroed counter row for a new emitter.
func CreateInitial(db *gorm.DB, emitterID uint) error {
	record := models.Analytics{
		EmitterID:          emitterID,
		PageViews:          0,
		ExternalLinkClicks: 0,
	}
	return db.Create(&record).Error
}

// IncrementPageViews bumps the public-card view counter.
func IncrementPageViews(db *gorm.DB, emitterID uint) error {
	return db.Model(&models.Analytics{}).
		Where("emitter_id = ?", emitterID).
		UpdateColumn("page_views", gorm.Expr("page_views + ?", 1)).Error
}

// IncrementExternalLinkClicks bumps the track-interest counter.
func IncrementExternalLinkClicks(db *gorm.DB, emitterID uint) error {
	return db.Model(&models.Analytics{}).
		Where("emitter_id = ?", emitterID).
		UpdateColumn("external_link_clicks", gorm.Expr("external_link_clicks + ?", 1)).Error
}
