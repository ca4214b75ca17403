package http

import (
	"net/http"

	"studyhub-backend/internal/security"
	"studyhub-backend/internal/service"

	"github.com/gorilla/mux"
)

// Handlers bundles the HTTP handlers needed by the router.
type Handlers struct {
	Auth    *AuthHandler
	Profile *ProfileHandler
	Session *SessionHandler
	Memory  *MemoryHandler
}

func NewHandlers(
	authSvc service.AuthService,
	userSvc service.UserService,
	admissionSvc service.AdmissionService,
	messageSvc service.MessageService,
	memorySvc service.MemoryService,
) *Handlers {
	return &Handlers{
		Auth:    NewAuthHandler(authSvc),
		Profile: NewProfileHandler(userSvc),
		Session: NewSessionHandler(admissionSvc, messageSvc),
		Memory:  NewMemoryHandler(memorySvc),
	}
}

// NewRouter wires all routes. Everything under /api except health and auth
// requires a valid access token.
func NewRouter(h *Handlers, tokens security.TokenManager) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	r.HandleFunc("/api/auth/signup", h.Auth.Signup).Methods("POST")
	r.HandleFunc("/api/auth/login", h.Auth.Login).Methods("POST")
	r.HandleFunc("/api/auth/refresh", h.Auth.Refresh).Methods("POST")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(AuthMiddleware(tokens))

	api.HandleFunc("/profile", h.Profile.Get).Methods("GET")
	api.HandleFunc("/profile", h.Profile.Update).Methods("PUT")

	api.HandleFunc("/memories", h.Memory.Create).Methods("POST")
	api.HandleFunc("/memories", h.Memory.List).Methods("GET")
	api.HandleFunc("/memories/{id}/favorite", h.Memory.ToggleFavorite).Methods("PATCH")

	api.HandleFunc("/sessions", h.Session.Create).Methods("POST")
	api.HandleFunc("/sessions", h.Session.List).Methods("GET")
	api.HandleFunc("/sessions/join", h.Session.Join).Methods("POST")
	api.HandleFunc("/sessions/{id}", h.Session.Get).Methods("GET")
	api.HandleFunc("/sessions/{id}/members", h.Session.Members).Methods("GET")
	api.HandleFunc("/sessions/{id}/approve", h.Session.Approve).Methods("POST")
	api.HandleFunc("/sessions/{id}/reject", h.Session.Reject).Methods("POST")
	api.HandleFunc("/sessions/{id}/complete", h.Session.Complete).Methods("POST")
	api.HandleFunc("/sessions/{id}/attendance", h.Session.Attendance).Methods("GET")
	api.HandleFunc("/sessions/{id}/messages", h.Session.PostMessage).Methods("POST")
	api.HandleFunc("/sessions/{id}/messages", h.Session.ListMessages).Methods("GET")

	return r
}
