package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/otcboard/otcboard-server/cmd/models"
	"github.com/otcboard/otcboard-server/cmd/utils"
	"github.com/otcboard/otcboard-server/service/analytics"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Handler struct {
	db *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// RegisterRoutes sets up all authentication routes
func (h *Handler) RegisterRoutes(router *mux.Router) {
	authRouter := router.PathPrefix("/auth").Subrouter()

	authRouter.HandleFunc("/register", h.HandleRegister).Methods("POST")
	authRouter.HandleFunc("/login", h.HandleLogin).Methods("POST")
	authRouter.HandleFunc("/admin/login", h.HandleAdminLogin).Methods("POST")
}

type registerRequest struct {
	Name               string `json:"name"`
	Email              string `json:"email"`
	Password           string `json:"password"`
	TaxNumber          string `json:"tax_number"`
	RegistrationNumber string `json:"registration_number"`
	LegalAddress       string `json:"legal_address"`
	ActualAddress      string `json:"actual_address"`
	Phone              string `json:"phone"`
	Website            string `json:"website"`
	Description        string `json:"description"`
	LogoURL            string `json:"logo_url"`
}

func validateRegisterRequest(req *registerRequest) string {
	if len(req.Name) < 2 || len(req.Name) > 255 {
		return "Company name must be between 2 and 255 characters"
	}
	if !utils.ValidEmail(req.Email) {
		return "Invalid email format"
	}
	if len(req.Password) < 8 {
		return "Password must contain at least 8 characters"
	}
	if req.TaxNumber != "" && !utils.ValidTaxNumber(req.TaxNumber) {
		return "Tax number must consist of 10 or 12 digits"
	}
	if req.RegistrationNumber != "" && !utils.ValidRegistrationNumber(req.RegistrationNumber) {
		return "Registration number must consist of 13 or 15 digits"
	}
	if req.Website != "" && !utils.ValidURL(req.Website) {
		return "Invalid website URL"
	}
	if req.LogoURL != "" && !utils.ValidURL(req.LogoURL) {
		return "Invalid logo URL"
	}
	return ""
}

// HandleRegister creates an emitter account with its empty financial-data
// and analytics rows, and answers with an access token.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON input", http.StatusBadRequest)
		return
	}

	if msg := validateRegisterRequest(&req); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	// Uniqueness checks, first violation wins.
	var existing models.Emitter
	if err := h.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		http.Error(w, "An emitter with this email already exists", http.StatusConflict)
		return
	}
	if err := h.db.Where("name = ?", req.Name).First(&existing).Error; err == nil {
		http.Error(w, "An emitter with this name already exists", http.StatusConflict)
		return
	}
	if req.TaxNumber != "" {
		if err := h.db.Where("tax_number = ?", req.TaxNumber).First(&existing).Error; err == nil {
			http.Error(w, "An emitter with this tax number already exists", http.StatusConflict)
			return
		}
	}
	if req.RegistrationNumber != "" {
		if err := h.db.Where("registration_number = ?", req.RegistrationNumber).First(&existing).Error; err == nil {
			http.Error(w, "An emitter with this registration number already exists", http.StatusConflict)
			return
		}
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "Error hashing password", http.StatusInternalServerError)
		return
	}

	emitter := models.Emitter{
		Name:          req.Name,
		Email:         req.Email,
		PasswordHash:  string(passwordHash),
		LegalAddress:  req.LegalAddress,
		ActualAddress: req.ActualAddress,
		Phone:         req.Phone,
		Website:       req.Website,
		Description:   req.Description,
		LogoURL:       req.LogoURL,
		Status:        models.StatusPending,
	}
	if req.TaxNumber != "" {
		emitter.TaxNumber = &req.TaxNumber
	}
	if req.RegistrationNumber != "" {
		emitter.RegistrationNumber = &req.RegistrationNumber
	}

	tx := h.db.Begin()

	if err := tx.Create(&emitter).Error; err != nil {
		tx.Rollback()
		if strings.Contains(err.Error(), "UNIQUE constraint") || strings.Contains(err.Error(), "duplicate key") {
			http.Error(w, "Emitter already exists", http.StatusConflict)
			return
		}
		http.Error(w, "Error registering emitter", http.StatusInternalServerError)
		return
	}

	financial := models.FinancialData{
		EmitterID:     emitter.ID,
		HasDividends:  false,
		CompanyStatus: "Inactive",
	}
	if err := tx.Create(&financial).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error creating financial data", http.StatusInternalServerError)
		return
	}

	if err := analytics.CreateInitial(tx, emitter.ID); err != nil {
		tx.Rollback()
		http.Error(w, "Error creating analytics record", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit().Error; err != nil {
		http.Error(w, "Error committing transaction", http.StatusInternalServerError)
		return
	}

	accessToken, err := utils.GenerateToken(emitter.ID, utils.RoleEmitter)
	if err != nil {
		http.Error(w, "Error generating access token", http.StatusInternalServerError)
		return
	}

	zap.L().Info("emitter registered", zap.Uint("emitter_id", emitter.ID), zap.String("name", emitter.Name))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"access_token": accessToken,
		"emitter":      emitter,
	})
}

// HandleLogin authenticates an emitter by email and password.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var loginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&loginRequest); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var emitter models.Emitter
	if err := h.db.Where("email = ?", loginRequest.Email).First(&emitter).Error; err != nil {
		http.Error(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(emitter.PasswordHash), []byte(loginRequest.Password)); err != nil {
		http.Error(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	accessToken, err := utils.GenerateToken(emitter.ID, utils.RoleEmitter)
	if err != nil {
		http.Error(w, "Error generating access token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"access_token": accessToken,
		"emitter":      emitter,
	})
}

// HandleAdminLogin authenticates an admin by username or email.
func (h *Handler) HandleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var loginRequest struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&loginRequest); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if loginRequest.Username == "" && loginRequest.Email == "" {
		http.Error(w, "Username or email is required", http.StatusBadRequest)
		return
	}

	var admin models.Admin
	var result *gorm.DB
	if loginRequest.Username != "" {
		result = h.db.Where("username = ?", loginRequest.Username).First(&admin)
	} else {
		result = h.db.Where("email = ?", loginRequest.Email).First(&admin)
	}
	if result.Error != nil {
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			http.Error(w, "Database error", http.StatusInternalServerError)
			return
		}
		http.Error(w, "Invalid username/email or password", http.StatusUnauthorized)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(loginRequest.Password)); err != nil {
		http.Error(w, "Invalid username/email or password", http.StatusUnauthorized)
		return
	}

	accessToken, err := utils.GenerateToken(admin.ID, utils.RoleAdmin)
	if err != nil {
		http.Error(w, "Error generating access token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"access_token": accessToken,
		"admin":        admin,
	})
}
