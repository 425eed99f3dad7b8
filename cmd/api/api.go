package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/otcboard/otcboard-server/cmd/config"
	"github.com/otcboard/otcboard-server/service/admin"
	"github.com/otcboard/otcboard-server/service/auth"
	"github.com/otcboard/otcboard-server/service/emitter"
	"github.com/otcboard/otcboard-server/service/screener"
	"github.com/otcboard/otcboard-server/service/subscription"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type APIServer struct {
	address string
	db      *gorm.DB
	rdb     *redis.Client
	cfg     *config.Config

	server *http.Server
}

func NewApiServer(address string, db *gorm.DB, rdb *redis.Client, cfg *config.Config) *APIServer {
	return &APIServer{
		address: address,
		db:      db,
		rdb:     rdb,
		cfg:     cfg,
	}
}

func (s *APIServer) Run() error {
	router := mux.NewRouter()
	subrouter := router.PathPrefix("/api/v1").Subrouter()

	ledger := subscription.NewLedger(s.db, s.cfg.Billing.PricePerDay, s.cfg.Billing.MaxDurationDays)

	authHandler := auth.NewHandler(s.db)
	authHandler.RegisterRoutes(subrouter)

	emitterHandler := emitter.NewHandler(s.db, ledger)
	emitterHandler.RegisterRoutes(subrouter)

	subscriptionHandler := subscription.NewSubscriptionHandler(ledger)
	subscriptionHandler.RegisterRoutes(subrouter)

	screenerHandler := screener.NewHandler(s.db, screener.NewCache(s.rdb, s.cfg.Redis.CacheTTL))
	screenerHandler.RegisterRoutes(subrouter)

	adminHandler := admin.NewHandler(s.db, s.cfg.SMTP)
	adminHandler.RegisterRoutes(subrouter)

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	corsHandler := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)(router)

	s.server = &http.Server{
		Addr:         s.address,
		Handler:      corsHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	zap.L().Info("server running", zap.String("address", s.address))
	return s.server.ListenAndServe()
}

// Shutdown stops accepting new connections and drains in-flight requests.
func (s *APIServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
