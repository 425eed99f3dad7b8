package emitter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/otcboard/otcboard-server/cmd/models"
	"github.com/otcboard/otcboard-server/cmd/utils"
	"github.com/otcboard/otcboard-server/service/subscription"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Handler struct {
	db     *gorm.DB
	ledger *subscription.Ledger
}

func NewHandler(db *gorm.DB, ledger *subscription.Ledger) *Handler {
	return &Handler{db: db, ledger: ledger}
}

// RegisterRoutes sets up the emitter self-service routes
func (h *Handler) RegisterRoutes(router *mux.Router) {
	profileRouter := router.PathPrefix("/profile/emitter").Subrouter()

	profileRouter.HandleFunc("", utils.EmitterAuth(h.GetProfile)).Methods("GET")
	profileRouter.HandleFunc("", utils.EmitterAuth(h.UpdateProfile)).Methods("PUT")
	profileRouter.HandleFunc("/financials", utils.EmitterAuth(h.UpdateFinancials)).Methods("PUT")
	profileRouter.HandleFunc("/submit-for-review", utils.EmitterAuth(h.SubmitForReview)).Methods("POST")
}

// SubscriptionSummary is the gate-derived view of the current placement.
type SubscriptionSummary struct {
	ID            uint      `json:"id"`
	TariffName    string    `json:"tariff_name"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	PaymentStatus string    `json:"payment_status"`
	DaysRemaining int       `json:"days_remaining"`
	IsActive      bool      `json:"is_active"`
}

type profileResponse struct {
	models.Emitter
	Subscription *SubscriptionSummary `json:"subscription"`
}

// GetProfile returns the authenticated emitter's full profile, including
// the current subscription as seen through the visibility gate.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	emitterID, err := utils.GetAccountIDFromContext(r)
	if err != nil {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	var em models.Emitter
	if err := h.db.Preload("FinancialData").Preload("Analytics").First(&em, emitterID).Error; err != nil {
		http.Error(w, "Emitter not found", http.StatusNotFound)
		return
	}

	current, err := h.ledger.Current(emitterID)
	if err != nil {
		http.Error(w, "Error reading subscription", http.StatusInternalServerError)
		return
	}

	response := profileResponse{Emitter: em}
	if current != nil {
		today := utils.Today()
		response.Subscription = &SubscriptionSummary{
			ID:            current.ID,
			TariffName:    current.TariffName,
			StartDate:     current.StartDate,
			EndDate:       current.EndDate,
			PaymentStatus: current.PaymentStatus,
			DaysRemaining: utils.DaysBetween(today, current.EndDate),
			IsActive:      current.PaymentStatus == models.SubscriptionActive && !current.EndDate.Before(today),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

type updateProfileRequest struct {
	Name               *string `json:"name"`
	TaxNumber          *string `json:"tax_number"`
	RegistrationNumber *string `json:"registration_number"`
	LegalAddress       *string `json:"legal_address"`
	ActualAddress      *string `json:"actual_address"`
	Phone              *string `json:"phone"`
	Website            *string `json:"website"`
	Description        *string `json:"description"`
	LogoURL            *string `json:"logo_url"`
}

func validateUpdateRequest(req *updateProfileRequest) string {
	if req.Name != nil && (len(*req.Name) < 2 || len(*req.Name) > 255) {
		return "Company name must be between 2 and 255 characters"
	}
	if req.TaxNumber != nil && !utils.ValidTaxNumber(*req.TaxNumber) {
		return "Tax number must consist of 10 or 12 digits"
	}
	if req.RegistrationNumber != nil && !utils.ValidRegistrationNumber(*req.RegistrationNumber) {
		return "Registration number must consist of 13 or 15 digits"
	}
	if req.Website != nil && *req.Website != "" && !utils.ValidURL(*req.Website) {
		return "Invalid website URL"
	}
	if req.LogoURL != nil && *req.LogoURL != "" && !utils.ValidURL(*req.LogoURL) {
		return "Invalid logo URL"
	}
	return ""
}

// UpdateProfile applies a partial update to the emitter's profile fields.
// Everything is validated before any field is assigned, so a rejected
// request changes nothing.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	emitterID, err := utils.GetAccountIDFromContext(r)
	if err != nil {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON input", http.StatusBadRequest)
		return
	}

	if msg := validateUpdateRequest(&req); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	var em models.Emitter
	if err := h.db.First(&em, emitterID).Error; err != nil {
		http.Error(w, "Emitter not found", http.StatusNotFound)
		return
	}

	if req.Name != nil {
		em.Name = *req.Name
	}
	if req.TaxNumber != nil {
		em.TaxNumber = req.TaxNumber
	}
	if req.RegistrationNumber != nil {
		em.RegistrationNumber = req.RegistrationNumber
	}
	if req.LegalAddress != nil {
		em.LegalAddress = *req.LegalAddress
	}
	if req.ActualAddress != nil {
		em.ActualAddress = *req.ActualAddress
	}
	if req.Phone != nil {
		em.Phone = *req.Phone
	}
	if req.Website != nil {
		em.Website = *req.Website
	}
	if req.Description != nil {
		em.Description = *req.Description
	}
	if req.LogoURL != nil {
		em.LogoURL = *req.LogoURL
	}

	if err := h.db.Save(&em).Error; err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") || strings.Contains(err.Error(), "duplicate key") {
			http.Error(w, "Another emitter already uses one of these unique fields", http.StatusConflict)
			return
		}
		http.Error(w, "Error updating emitter", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(em)
}

type updateFinancialsRequest struct {
	Ticker        *string  `json:"ticker"`
	Market        *string  `json:"market"`
	Industry      *string  `json:"industry"`
	MarketCap     *float64 `json:"market_cap"`
	StockPrice    *float64 `json:"stock_price"`
	TradingVolume *float64 `json:"trading_volume"`
	HasDividends  *bool    `json:"has_dividends"`
	Rating        *string  `json:"rating"`
	CompanyStatus *string  `json:"company_status"`
}

func validateFinancialsRequest(req *updateFinancialsRequest) string {
	if req.Ticker != nil && len(*req.Ticker) > 10 {
		return "Ticker must not exceed 10 characters"
	}
	if req.MarketCap != nil && *req.MarketCap < 0 {
		return "Market cap cannot be negative"
	}
	if req.StockPrice != nil && *req.StockPrice < 0 {
		return "Stock price cannot be negative"
	}
	if req.TradingVolume != nil && *req.TradingVolume < 0 {
		return "Trading volume cannot be negative"
	}
	if req.Rating != nil && len(*req.Rating) > 1 {
		return "Rating must be a single letter"
	}
	return ""
}

// UpdateFinancials updates the emitter's screener card numbers.
func (h *Handler) UpdateFinancials(w http.ResponseWriter, r *http.Request) {
	emitterID, err := utils.GetAccountIDFromContext(r)
	if err != nil {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	var req updateFinancialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON input", http.StatusBadRequest)
		return
	}

	if msg := validateFinancialsRequest(&req); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	var financial models.FinancialData
	if err := h.db.Where("emitter_id = ?", emitterID).First(&financial).Error; err != nil {
		http.Error(w, "Financial data not found", http.StatusNotFound)
		return
	}

	if req.Ticker != nil {
		financial.Ticker = *req.Ticker
	}
	if req.Market != nil {
		financial.Market = *req.Market
	}
	if req.Industry != nil {
		financial.Industry = *req.Industry
	}
	if req.MarketCap != nil {
		financial.MarketCap = req.MarketCap
	}
	if req.StockPrice != nil {
		financial.StockPrice = req.StockPrice
	}
	if req.TradingVolume != nil {
		financial.TradingVolume = req.TradingVolume
	}
	if req.HasDividends != nil {
		financial.HasDividends = *req.HasDividends
	}
	if req.Rating != nil {
		financial.Rating = *req.Rating
	}
	if req.CompanyStatus != nil {
		financial.CompanyStatus = *req.CompanyStatus
	}

	if err := h.db.Save(&financial).Error; err != nil {
		http.Error(w, "Error updating financial data", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(financial)
}

// SubmitForReview puts the profile back into the moderation queue. The
// status becomes pending regardless of the previous state; a stored
// rejection reason stays until the next admin decision.
func (h *Handler) SubmitForReview(w http.ResponseWriter, r *http.Request) {
	emitterID, err := utils.GetAccountIDFromContext(r)
	if err != nil {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	var em models.Emitter
	if err := h.db.First(&em, emitterID).Error; err != nil {
		http.Error(w, "Emitter not found", http.StatusNotFound)
		return
	}

	em.Status = models.StatusPending
	if err := h.db.Save(&em).Error; err != nil {
		http.Error(w, "Error updating emitter status", http.StatusInternalServerError)
		return
	}

	zap.L().Info("emitter submitted for review", zap.Uint("emitter_id", em.ID))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(em)
}
