package screener

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/otcboard/otcboard-server/cmd/metrics"
	"github.com/otcboard/otcboard-server/cmd/models"
	"github.com/otcboard/otcboard-server/cmd/utils"
	"github.com/otcboard/otcboard-server/service/analytics"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler serves the public marketplace endpoints. No authentication:
// investors browse anonymously.
type Handler struct {
	db    *gorm.DB
	cache *Cache
}

func NewHandler(db *gorm.DB, cache *Cache) *Handler {
	return &Handler{db: db, cache: cache}
}

// RegisterRoutes sets up the public screener routes
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/emitters", h.ListEmitters).Methods("GET")
	router.HandleFunc("/emitters/{id}", h.GetEmitter).Methods("GET")
	router.HandleFunc("/emitters/{id}/track-interest", h.TrackInterest).Methods("POST")
}

// ListEmitters is the screener: filtered, sorted, paginated cards of
// every currently placed emitter. Result pages are cached briefly.
func (h *Handler) ListEmitters(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(metrics.ScreenerQueryDuration)
	defer timer.ObserveDuration()

	filter := ParseFilter(r.URL.Query())

	if page, ok := h.cache.Get(r.Context(), filter); ok {
		metrics.ScreenerQueries.WithLabelValues("cache").Inc()
		h.writeList(w, page.Data, page.Total, filter)
		return
	}

	data, total, err := Query(h.db, filter)
	if err != nil {
		zap.L().Error("screener query failed", zap.Error(err))
		http.Error(w, "Error fetching emitters", http.StatusInternalServerError)
		return
	}
	metrics.ScreenerQueries.WithLabelValues("db").Inc()

	h.cache.Set(r.Context(), filter, data, total)
	h.writeList(w, data, total, filter)
}

func (h *Handler) writeList(w http.ResponseWriter, data []EmitterSummary, total int64, f Filter) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data": data,
		"meta": map[string]interface{}{
			"total": total,
			"page":  f.Page,
			"limit": f.Limit,
		},
	})
}

// GetEmitter returns the public detail card of one placed emitter and
// counts the view. Unplaced or unknown emitters both answer 404.
func (h *Handler) GetEmitter(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		http.Error(w, "Invalid emitter ID", http.StatusBadRequest)
		return
	}

	em, err := VisibleByID(h.db, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Emitter not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Error fetching emitter", http.StatusInternalServerError)
		return
	}

	if err := analytics.IncrementPageViews(h.db, em.ID); err != nil {
		zap.L().Warn("failed to count page view", zap.Uint("emitter_id", em.ID), zap.Error(err))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toSummary(*em))
}

type trackInterestRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// TrackInterest records an investor contact against a placed emitter and
// counts the external-link click. The investor is upserted by email, so
// repeat submissions refresh the contact instead of duplicating it.
func (h *Handler) TrackInterest(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		http.Error(w, "Invalid emitter ID", http.StatusBadRequest)
		return
	}

	var req trackInterestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON input", http.StatusBadRequest)
		return
	}
	if !utils.ValidEmail(req.Email) {
		http.Error(w, "Invalid email format", http.StatusBadRequest)
		return
	}
	if len(strings.TrimSpace(req.Name)) < 2 {
		http.Error(w, "Name must contain at least 2 characters", http.StatusBadRequest)
		return
	}

	em, err := VisibleByID(h.db, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Emitter not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Error fetching emitter", http.StatusInternalServerError)
		return
	}

	var investor models.Investor
	err = h.db.Where("email = ?", req.Email).First(&investor).Error
	switch {
	case err == nil:
		investor.Name = req.Name
		if req.Phone != "" {
			investor.Phone = &req.Phone
		}
		err = h.db.Save(&investor).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		investor = models.Investor{Name: req.Name, Email: req.Email}
		if req.Phone != "" {
			investor.Phone = &req.Phone
		}
		err = h.db.Create(&investor).Error
	}
	if err != nil {
		http.Error(w, "Error saving investor", http.StatusInternalServerError)
		return
	}

	if err := analytics.IncrementExternalLinkClicks(h.db, em.ID); err != nil {
		zap.L().Warn("failed to count link click", zap.Uint("emitter_id", em.ID), zap.Error(err))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Interest recorded",
	})
}
