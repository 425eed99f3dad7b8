package subscription

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/otcboard/otcboard-server/cmd/apperr"
	"github.com/otcboard/otcboard-server/cmd/metrics"
	"github.com/otcboard/otcboard-server/cmd/models"
	"github.com/otcboard/otcboard-server/cmd/utils"
)

// Response is a standardized API response structure
type Response struct {
	Data  interface{} `json:"data,omitempty"`
	Meta  interface{} `json:"meta,omitempty"`
	Error string      `json:"error,omitempty"`
}

// SubscriptionResponse extends the subscription row with calculated fields
type SubscriptionResponse struct {
	models.Subscription
	IsExpired bool `json:"is_expired"`
}

// TariffInfo describes the single placement tariff.
type TariffInfo struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	DurationDays int     `json:"duration_days"`
}

// The tariff is a constant product, not a table; the fixed id keeps the
// frontend contract stable.
const tariffID = "a1b2c3d4-e5f6-7890-1234-567890abcdef"

// SubscriptionHandler handles subscription-related HTTP requests
type SubscriptionHandler struct {
	ledger *Ledger
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(ledger *Ledger) *SubscriptionHandler {
	return &SubscriptionHandler{ledger: ledger}
}

// RegisterRoutes registers all subscription routes
func (h *SubscriptionHandler) RegisterRoutes(router *mux.Router) {
	subscriptionRouter := router.PathPrefix("/subscriptions").Subrouter()

	subscriptionRouter.HandleFunc("/tariffs", h.GetTariffs).Methods("GET")
	subscriptionRouter.HandleFunc("/activate", utils.EmitterAuth(h.ActivateSubscription)).Methods("POST")
	subscriptionRouter.HandleFunc("", utils.EmitterAuth(h.GetSubscriptionHistory)).Methods("GET")
}

// GetTariffs returns the single placement tariff. Public.
func (h *SubscriptionHandler) GetTariffs(w http.ResponseWriter, r *http.Request) {
	tariff := TariffInfo{
		ID:           tariffID,
		Name:         "Basic placement",
		Description:  "Placement of your company in the public screener.",
		Price:        h.ledger.PricePerDay(),
		DurationDays: 1,
	}
	h.respondWithJSON(w, http.StatusOK, Response{Data: tariff})
}

// ActivateSubscription purchases or extends the placement of the
// authenticated emitter.
func (h *SubscriptionHandler) ActivateSubscription(w http.ResponseWriter, r *http.Request) {
	emitterID, err := utils.GetAccountIDFromContext(r)
	if err != nil {
		h.respondWithError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var activateRequest struct {
		DurationDays int `json:"duration_days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&activateRequest); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sub, err := h.ledger.Activate(emitterID, activateRequest.DurationDays)
	if err != nil {
		metrics.SubscriptionActivations.WithLabelValues("failure").Inc()
		h.respondWithError(w, apperr.HTTPStatus(err), apperr.Message(err))
		return
	}
	metrics.SubscriptionActivations.WithLabelValues("success").Inc()

	h.respondWithJSON(w, http.StatusOK, Response{
		Data: sub,
		Meta: map[string]interface{}{"message": "Subscription activated successfully"},
	})
}

// GetSubscriptionHistory lists the authenticated emitter's subscription
// rows, newest first, with an is_expired annotation on each.
func (h *SubscriptionHandler) GetSubscriptionHistory(w http.ResponseWriter, r *http.Request) {
	emitterID, err := utils.GetAccountIDFromContext(r)
	if err != nil {
		h.respondWithError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	subs, err := h.ledger.History(emitterID)
	if err != nil {
		h.respondWithError(w, http.StatusInternalServerError, "Failed to retrieve subscriptions")
		return
	}

	today := utils.Today()
	responseSubscriptions := make([]SubscriptionResponse, 0, len(subs))
	for _, sub := range subs {
		responseSubscriptions = append(responseSubscriptions, SubscriptionResponse{
			Subscription: sub,
			IsExpired:    sub.EndDate.Before(today),
		})
	}

	h.respondWithJSON(w, http.StatusOK, Response{Data: responseSubscriptions})
}

// Helper function to respond with an error
func (h *SubscriptionHandler) respondWithError(w http.ResponseWriter, code int, message string) {
	h.respondWithJSON(w, code, Response{Error: message})
}

// Helper function to respond with JSON
func (h *SubscriptionHandler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
