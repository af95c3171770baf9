package server

import (
	"net/http"

	"github.com/plazareviews/revscope/internal/utils"
	"github.com/plazareviews/revscope/pkg/period"
	"github.com/plazareviews/revscope/pkg/storage"
)

type Server struct {
	DB       *storage.DB
	Username string
	Password string

	Boundary period.Boundary
	Rolling  period.RollingOptions
}

func New(db *storage.DB, user, pass string, b period.Boundary, rolling period.RollingOptions) *Server {
	return &Server{
		DB:       db,
		Username: user,
		Password: pass,
		Boundary: b,
		Rolling:  rolling,
	}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/stats", s.basicAuth(s.handleStats))
	mux.HandleFunc("GET /api/periods", s.basicAuth(s.handlePeriods))
	mux.HandleFunc("GET /api/timeline", s.basicAuth(s.handleTimeline))
	mux.HandleFunc("GET /api/dashboard", s.basicAuth(s.handleDashboard))
	mux.HandleFunc("GET /api/reviews", s.basicAuth(s.handleReviews))
	mux.HandleFunc("GET /api/reviews/{id}", s.basicAuth(s.handleReview))
	mux.HandleFunc("GET /api/imports", s.basicAuth(s.handleImports))
	return mux
}

func (s *Server) Start(addr string) error {
	utils.Log.Infof("Starting server on %s (construction %s)", addr, s.Boundary)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Username == "" && s.Password == "" {
			next(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Username || pass != s.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
