package admin

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/otcboard/otcboard-server/cmd/config"
	"github.com/otcboard/otcboard-server/cmd/models"
	"github.com/otcboard/otcboard-server/cmd/utils"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
	"gorm.io/gorm"
)

type Handler struct {
	db   *gorm.DB
	smtp config.SMTPConfig
}

func NewHandler(db *gorm.DB, smtp config.SMTPConfig) *Handler {
	return &Handler{db: db, smtp: smtp}
}

// RegisterRoutes sets up the moderation routes. Everything here requires
// an admin token.
func (h *Handler) RegisterRoutes(router *mux.Router) {
	adminRouter := router.PathPrefix("/admin").Subrouter()

	adminRouter.HandleFunc("/emitters", utils.AdminAuth(h.ListEmitters)).Methods("GET")
	adminRouter.HandleFunc("/emitters/{id}", utils.AdminAuth(h.GetEmitter)).Methods("GET")
	adminRouter.HandleFunc("/emitters/{id}/status", utils.AdminAuth(h.UpdateEmitterStatus)).Methods("PATCH")
}

type listMeta struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

// ListEmitters returns the moderation queue, newest registrations first.
// An optional ?status= filter narrows it to one moderation state.
func (h *Handler) ListEmitters(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && status != models.StatusPending && status != models.StatusApproved && status != models.StatusRejected {
		http.Error(w, "Invalid status filter", http.StatusBadRequest)
		return
	}

	page := 1
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	limit := 20
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}

	query := h.db.Model(&models.Emitter{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		http.Error(w, "Error counting emitters", http.StatusInternalServerError)
		return
	}

	var emitters []models.Emitter
	if err := query.Order("created_at DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&emitters).Error; err != nil {
		http.Error(w, "Error fetching emitters", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data": emitters,
		"meta": listMeta{Total: total, Page: page, Limit: limit},
	})
}

// GetEmitter returns one emitter with its financial data and analytics
// counters. Admins see every profile regardless of status or placement.
func (h *Handler) GetEmitter(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		http.Error(w, "Invalid emitter ID", http.StatusBadRequest)
		return
	}

	var em models.Emitter
	if err := h.db.Preload("FinancialData").Preload("Analytics").First(&em, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Emitter not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Error fetching emitter", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(em)
}

type updateStatusRequest struct {
	Status          string `json:"status"`
	RejectionReason string `json:"rejection_reason"`
}

// UpdateEmitterStatus records a moderation decision. Admins can only set
// approved or rejected; pending is reserved for the emitter's own
// submit-for-review. Rejection requires a reason, approval clears it.
func (h *Handler) UpdateEmitterStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		http.Error(w, "Invalid emitter ID", http.StatusBadRequest)
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON input", http.StatusBadRequest)
		return
	}

	if req.Status != models.StatusApproved && req.Status != models.StatusRejected {
		http.Error(w, "Status must be 'approved' or 'rejected'", http.StatusBadRequest)
		return
	}
	if req.Status == models.StatusRejected && req.RejectionReason == "" {
		http.Error(w, "Rejection reason is required", http.StatusBadRequest)
		return
	}

	var em models.Emitter
	if err := h.db.First(&em, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Emitter not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Error fetching emitter", http.StatusInternalServerError)
		return
	}

	em.Status = req.Status
	if req.Status == models.StatusRejected {
		em.RejectionReason = &req.RejectionReason
	} else {
		em.RejectionReason = nil
	}

	// Save skips nil pointers, so clear the reason column explicitly.
	updates := map[string]interface{}{
		"status":           em.Status,
		"rejection_reason": em.RejectionReason,
	}
	if err := h.db.Model(&em).Updates(updates).Error; err != nil {
		http.Error(w, "Error updating emitter status", http.StatusInternalServerError)
		return
	}

	zap.L().Info("moderation decision recorded",
		zap.Uint("emitter_id", em.ID),
		zap.String("status", em.Status))

	go func(email, name, status, reason string) {
		if err := h.sendDecisionEmail(email, name, status, reason); err != nil {
			zap.L().Warn("failed to send moderation email", zap.Error(err))
		}
	}(em.Email, em.Name, em.Status, req.RejectionReason)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(em)
}

// sendDecisionEmail notifies the emitter about the moderation outcome.
// Delivery is best-effort; without an SMTP host it is a no-op.
func (h *Handler) sendDecisionEmail(email, name, status, reason string) error {
	if h.smtp.Host == "" {
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", h.smtp.User)
	m.SetHeader("To", email)

	var subject, body string
	if status == models.StatusApproved {
		subject = "Your company profile has been approved"
		body = fmt.Sprintf("Hello %s,\n\nYour company profile passed moderation and can now be placed in the public screener.", name)
	} else {
		subject = "Your company profile has been rejected"
		body = fmt.Sprintf("Hello %s,\n\nYour company profile was rejected by moderation.\n\nReason: %s\n\nYou can edit the profile and submit it for review again.", name, reason)
	}
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(h.smtp.Host, h.smtp.Port, h.smtp.User, h.smtp.Pass)
	return d.DialAndSend(m)
}
