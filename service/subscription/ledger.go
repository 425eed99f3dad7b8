package subscription

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/otcboard/otcboard-server/cmd/apperr"
	"github.com/otcboard/otcboard-server/cmd/models"
	"github.com/otcboard/otcboard-server/cmd/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ledger owns the append-only subscription history of every emitter and the
// visibility gate derived from it. All dates are UTC calendar dates.
type Ledger struct {
	db          *gorm.DB
	pricePerDay float64
	maxDuration int
}

func NewLedger(db *gorm.DB, pricePerDay float64, maxDurationDays int) *Ledger {
	return &Ledger{db: db, pricePerDay: pricePerDay, maxDuration: maxDurationDays}
}

// PricePerDay is the configured rate of the single placement tariff.
func (l *Ledger) PricePerDay() float64 {
	return l.pricePerDay
}

// MaxDurationDays is the upper bound accepted by Activate.
func (l *Ledger) MaxDurationDays() int {
	return l.maxDuration
}

// Activate purchases a placement period of durationDays for the emitter.
// A completed Payment row is recorded and a new active Subscription row is
// appended. Renewal stacks: when an active subscription still reaches past
// today, the new period starts the day after it ends; otherwise it starts
// today. The whole operation runs in one transaction and the latest-row
// read is locked on Postgres, so concurrent activations for one emitter
// serialize instead of producing overlapping periods.
func (l *Ledger) Activate(emitterID uint, durationDays int) (*models.Subscription, error) {
	if durationDays < 1 || durationDays > l.maxDuration {
		return nil, apperr.NewValidation("duration_days must be between 1 and %d", l.maxDuration)
	}

	var emitter models.Emitter
	if err := l.db.First(&emitter, emitterID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFound("Emitter not found")
		}
		return nil, err
	}

	amount := float64(durationDays) * l.pricePerDay
	today := utils.Today()

	var created *models.Subscription
	err := l.db.Transaction(func(tx *gorm.DB) error {
		payment := models.Payment{
			Reference: uuid.NewString(),
			Amount:    amount,
			Date:      today,
			Status:    models.PaymentCompleted,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		latest := tx.
			Where("emitter_id = ? AND payment_status = ?", emitterID, models.SubscriptionActive).
			Order("end_date DESC")
		if tx.Dialector.Name() == "postgres" {
			// SQLite has no FOR UPDATE; its single-writer model serializes
			// concurrent activations on its own.
			latest = latest.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		startDate := today
		var prev models.Subscription
		if err := latest.First(&prev).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		} else if prev.EndDate.After(today) {
			startDate = utils.AddDays(prev.EndDate, 1)
		}
		endDate := utils.AddDays(startDate, durationDays)

		sub := models.Subscription{
			EmitterID:     emitterID,
			TariffName:    fmt.Sprintf("Placement for %d days", durationDays),
			DurationDays:  durationDays,
			PaymentID:     payment.ID,
			StartDate:     startDate,
			EndDate:       endDate,
			PaymentStatus: models.SubscriptionActive,
			PaymentAmount: amount,
		}
		if err := tx.Create(&sub).Error; err != nil {
			return err
		}
		created = &sub
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("subscription activated",
		zap.Uint("emitter_id", emitterID),
		zap.Int("duration_days", durationDays),
		zap.Time("start_date", created.StartDate),
		zap.Time("end_date", created.EndDate),
	)
	return created, nil
}

// Current returns the emitter's live subscription, or nil when there is
// none. Side effect: when the furthest-reaching active row has already
// ended, it is flipped to disable and persisted before nil is returned.
// This lazy expiry is the only place an expired row gets disabled; there is
// no background sweep, and calling Current again is a no-op for that row.
func (l *Ledger) Current(emitterID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := l.db.
		Where("emitter_id = ? AND payment_status = ?", emitterID, models.SubscriptionActive).
		Order("end_date DESC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if sub.EndDate.Before(utils.Today()) {
		if err := l.db.Model(&sub).Update("payment_status", models.SubscriptionDisable).Error; err != nil {
			return nil, err
		}
		zap.L().Info("subscription expired on read",
			zap.Uint("emitter_id", emitterID),
			zap.Uint("subscription_id", sub.ID),
			zap.Time("end_date", sub.EndDate),
		)
		return nil, nil
	}

	return &sub, nil
}

// History returns all subscription rows of the emitter, newest first.
func (l *Ledger) History(emitterID uint) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := l.db.
		Where("emitter_id = ?", emitterID).
		Order("end_date DESC").
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}
