package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/ladle/internal/auth"
	"github.com/dukerupert/ladle/internal/group"
	"github.com/dukerupert/ladle/internal/handler"
	"github.com/dukerupert/ladle/internal/list"
	"github.com/dukerupert/ladle/internal/middleware"
	"github.com/dukerupert/ladle/internal/push"
	"github.com/dukerupert/ladle/internal/rtdb"
	"github.com/dukerupert/ladle/internal/store"
	ws "github.com/dukerupert/ladle/internal/websocket"
)

type Server struct {
	db          *sql.DB
	store       *rtdb.Store
	hub         *ws.Hub
	verifier    auth.TokenVerifier
	groups      *group.Service
	lists       *list.Service
	listH       *handler.ListHandler
	mealH       *handler.MealHandler
	groupH      *handler.GroupHandler
	pushH       *handler.PushHandler
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(db *sql.DB, rstore *rtdb.Store, verifier auth.TokenVerifier, categorizer list.Categorizer, pushSvc *push.Service, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	pushStore := store.NewPushStore(db)
	cacheStore := store.NewCategoryCacheStore(db)

	groups := group.NewService(rstore, logger.With("component", "group"))
	lists := list.NewService(rstore, categorizer, cacheStore, logger.With("component", "list"))

	var pushH *handler.PushHandler
	if pushSvc != nil && pushSvc.Enabled() {
		pushH = handler.NewPushHandler(pushStore, pushSvc, logger.With("component", "push_handler"))
	}

	return &Server{
		db:          db,
		store:       rstore,
		hub:         hub,
		verifier:    verifier,
		groups:      groups,
		lists:       lists,
		listH:       handler.NewListHandler(lists, groups, logger.With("component", "list_handler")),
		mealH:       handler.NewMealHandler(lists, groups, pushStore, pushSvc, logger.With("component", "meal_handler")),
		groupH:      handler.NewGroupHandler(groups, logger.With("component", "group_handler")),
		pushH:       pushH,
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
}

// Hub returns the viewer registry for observability.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (the websocket gate does its own auth from query
	// params, since browser WebSocket clients cannot set headers)
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.HandleFunc("GET /ws/list/{id}", ws.HandleList(s.hub, s.store, s.verifier, s.groups, s.logger.With("component", "ws_gate")))

	// Protected routes, wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.verifier)
	outerMux.Handle("/api/", authMiddleware(protectedMux))

	// Apply request logging middleware
	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// rateLimitedHandler guards endpoints that call paid upstream services.
func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Weekly list API routes
	mux.HandleFunc("GET /api/list", s.listH.EnsureWeeks)
	mux.HandleFunc("POST /api/list", s.listH.Create)
	mux.HandleFunc("GET /api/list/{id}", s.listH.Get)
	mux.HandleFunc("POST /api/list/{id}", s.listH.Update)
	mux.HandleFunc("POST /api/list/categorize/{id}", s.rateLimitedHandler(s.listH.Categorize))

	// Meal API routes
	mux.HandleFunc("POST /api/meal", s.mealH.Add)

	// Group API routes
	mux.HandleFunc("GET /api/group", s.groupH.List)
	mux.HandleFunc("POST /api/group", s.groupH.Create)
	mux.HandleFunc("PUT /api/group/{id}", s.groupH.Rename)
	mux.HandleFunc("DELETE /api/group/{id}", s.groupH.Delete)

	// Push notification API routes
	if s.pushH != nil {
		mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)
	}
}
