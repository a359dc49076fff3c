package rest

import (
	"database/sql"
	"net/http"

	"github.com/gorilla/mux"

	"maktaba-backend/internal/security"
	"maktaba-backend/internal/service"
)

// RouterDeps carries everything the HTTP surface needs. The db handle is
// only used by the health endpoint.
type RouterDeps struct {
	Auth        service.AuthService
	Circulation service.CirculationService
	Reports     service.ReportsService
	Tokens      security.TokenManager
	DB          *sql.DB
	LoanDays    int
}

// NewRouter builds the full route table. Everything under /api/v1 except
// /auth/login sits behind the bearer-token middleware.
func NewRouter(deps RouterDeps) *mux.Router {
	root := mux.NewRouter()
	root.HandleFunc("/health", healthHandler(deps.DB)).Methods("GET")

	authHandler := NewAuthHandler(deps.Auth)
	circHandler := NewCirculationHandler(deps.Circulation, deps.Reports, deps.LoanDays)
	reportsHandler := NewReportsHandler(deps.Reports)
	authMw := NewAuthMiddleware(deps.Tokens, deps.Auth)

	api := root.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	protected := api.NewRoute().Subrouter()
	protected.Use(authMw.Handler)
	protected.HandleFunc("/auth/me", authHandler.Me).Methods("GET")

	// Fixed paths are registered before /{id} so "stats" and "export"
	// are never parsed as record IDs.
	protected.HandleFunc("/circulation", circHandler.List).Methods("GET")
	protected.HandleFunc("/circulation", circHandler.Issue).Methods("POST")
	protected.HandleFunc("/circulation/stats", circHandler.Stats).Methods("GET")
	protected.HandleFunc("/circulation/export", circHandler.Export).Methods("GET")
	protected.HandleFunc("/circulation/fines/collect/{userId}", circHandler.CollectFines).Methods("POST")
	protected.HandleFunc("/circulation/{id}", circHandler.Get).Methods("GET")
	protected.HandleFunc("/circulation/{id}", circHandler.Update).Methods("PATCH")
	protected.HandleFunc("/circulation/{id}", circHandler.Delete).Methods("DELETE")
	protected.HandleFunc("/circulation/{id}/return", circHandler.Return).Methods("POST")
	protected.HandleFunc("/circulation/{id}/renew", circHandler.Renew).Methods("POST")

	protected.HandleFunc("/reports/trends", reportsHandler.Trends).Methods("GET")
	protected.HandleFunc("/reports/summary", reportsHandler.Summary).Methods("GET")

	return root
}

func healthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		code := http.StatusOK
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				status = "degraded"
				code = http.StatusServiceUnavailable
			}
		}
		writeJSON(w, code, map[string]string{"status": status})
	}
}
